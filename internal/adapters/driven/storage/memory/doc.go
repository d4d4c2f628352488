// Package memory provides in-memory implementations of driven ports, used
// by tests and by dry runs that must leave no trace on disk.
package memory
