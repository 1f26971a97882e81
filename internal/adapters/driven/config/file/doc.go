// Package file keeps hotelrag's user-editable state on disk: the TOML
// settings file, the answer prompt templates and dotenv credentials.
package file
