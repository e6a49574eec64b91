// Package database stores benchmark history in SQLite.
//
// Every bench run is kept as one row holding its summary columns and the
// full run as JSON, so "bench --list" can show past runs without decoding
// them. The database is a single file under the XDG data directory, opened
// through modernc.org/sqlite, which needs no cgo.
package database
