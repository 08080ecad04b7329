// Package sqlite keeps cached analyses in a SQLite file so they survive
// restarts: re-opening an unchanged document needs no analyzer call.
//
// It uses modernc.org/sqlite, which is pure Go. The database lives at
// ~/.lexiq/data/cache.db unless a directory is given, runs in WAL mode so
// a watch session and a one-off analyze can share it, and is migrated on
// open from the numbered scripts under schema/.
package sqlite
