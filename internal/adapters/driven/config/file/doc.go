// Package file provides the file-backed configuration store.
//
// The configuration lives in ~/.blcat/config.toml:
//
//	[storage]
//	backend = "sqlite"          # sqlite | postgres | memory
//	data_dir = "~/.blcat/data"
//	postgres_dsn = ""
//
//	[import]
//	watch_dir = "~/.blcat/drop"
//
//	[log]
//	file = ""
//	verbose = false
package file
