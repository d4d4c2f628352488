package mcp

import (
	"net/http"

	"github.com/policyledger/fedledger/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server uses.
type Ports struct {
	// Archive answers every tool and resource.
	Archive driving.ArchiveService

	// Metrics is served at /metrics in HTTP mode. Optional.
	Metrics http.Handler
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Archive == nil {
		return ErrMissingArchiveService
	}
	return nil
}
