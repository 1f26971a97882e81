// Package migrations holds the numbered SQL files that build the SQLite schema.
package migrations

import "embed"

// FS is read by the sqlite store at open time.
//
//go:embed *.sql
var FS embed.FS
