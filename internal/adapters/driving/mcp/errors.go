// Package mcp provides an MCP (Model Context Protocol) server adapter for fedledger.
// It lets downstream agents query the archive: list documents, read one
// document's record and raw artifact, and summarise the archive.
package mcp

import "errors"

// ErrMissingArchiveService is returned when the archive service is not provided.
var ErrMissingArchiveService = errors.New("mcp: archive service is required")
