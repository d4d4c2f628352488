// Package file provides the TOML-backed configuration store.
//
// Keys are exposed in dot notation ("http.timeout") and written back as
// nested tables, so the file stays readable by hand:
//
//	data_dir = "/srv/fedledger"
//
//	[http]
//	timeout = "45s"
package file
