// Package mcp provides an MCP (Model Context Protocol) server adapter for blcat.
// It lets AI assistants query the local parts catalog.
package mcp

import "errors"

// ErrMissingCatalogService is returned when the catalog service is not provided.
var ErrMissingCatalogService = errors.New("mcp: catalog service is required")
