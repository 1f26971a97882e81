// Package driving declares what the CLI, HTTP API, MCP server and TUI may ask
// of the core: build the index, answer a question, read history, report
// health, summarise bookings and manage settings.
//
// internal/core/services provides the implementations.
package driving
