package mcp

import (
	"github.com/custodia-labs/blcat/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Catalog answers catalog queries.
	Catalog driving.CatalogService

	// Sync exposes import history. Optional.
	Sync driving.CatalogSync
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Catalog == nil {
		return ErrMissingCatalogService
	}
	return nil
}
