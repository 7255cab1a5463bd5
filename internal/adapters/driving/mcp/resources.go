package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for blcat resources.
	uriScheme = "blcat://"

	// runsLimit bounds the import history resource.
	runsLimit = 20
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "counts",
		Name:        "counts",
		Description: "Number of rows in each catalog table",
		MIMEType:    "application/json",
	}, s.handleCountsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "runs",
		Name:        "import-runs",
		Description: "Recent catalog import runs, newest first",
		MIMEType:    "application/json",
	}, s.handleRunsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sets/{prefix}",
		Name:        "sets-by-prefix",
		Description: "Sets whose number starts with a prefix, e.g. blcat://sets/6080",
		MIMEType:    "application/json",
	}, s.handleSetsResource)
}

func (s *Server) handleCountsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	counts, err := s.ports.Catalog.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting tables: %w", err)
	}
	return jsonResource(req.Params.URI, counts)
}

// handleRunsResource returns import history. Without a sync port the
// list is empty.
func (s *Server) handleRunsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	type runInfo struct {
		ID        string `json:"id"`
		Kind      string `json:"kind"`
		Source    string `json:"source"`
		StartedAt string `json:"started_at"`
		Status    string `json:"status"`
		Written   int    `json:"written"`
		Error     string `json:"error,omitempty"`
	}

	infos := []runInfo{}
	if s.ports.Sync != nil {
		runs, err := s.ports.Sync.Runs(ctx, runsLimit)
		if err != nil {
			return nil, fmt.Errorf("listing import runs: %w", err)
		}
		for _, r := range runs {
			infos = append(infos, runInfo{
				ID:        r.ID,
				Kind:      string(r.Kind),
				Source:    r.Source,
				StartedAt: r.StartedAt.Format(time.RFC3339),
				Status:    string(r.Status),
				Written:   r.Written,
				Error:     r.Error,
			})
		}
	}

	return jsonResource(req.Params.URI, infos)
}

func (s *Server) handleSetsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	prefix := extractSetPrefix(req.Params.URI)
	if prefix == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	sets, err := s.ports.Catalog.SetsByPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing sets: %w", err)
	}
	return jsonResource(req.Params.URI, setsOutput(sets))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractSetPrefix extracts the prefix from a URI like blcat://sets/{prefix}.
func extractSetPrefix(uri string) string {
	const prefix = uriScheme + "sets/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	return strings.TrimPrefix(uri, prefix)
}
