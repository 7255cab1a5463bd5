package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/blcat/internal/core/domain"
)

// defaultLimit caps search results when the caller gives no limit.
const defaultLimit = 10

// SearchPartsInput is the input schema for the search_parts tool.
type SearchPartsInput struct {
	Query        string `json:"query" jsonschema:"words to match against part number, name and category"`
	CategoryID   int    `json:"category_id,omitempty" jsonschema:"restrict results to one category id"`
	Limit        int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	IncludeStale bool   `json:"include_stale,omitempty" jsonschema:"include parts missing from the latest catalog"`
}

// SearchSetsInput is the input schema for the search_sets tool.
type SearchSetsInput struct {
	Query      string `json:"query" jsonschema:"words to match against set name and category"`
	CategoryID int    `json:"category_id,omitempty" jsonschema:"restrict results to one category id"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
}

// GetPartInput is the input schema for the get_part tool.
type GetPartInput struct {
	ID string `json:"id" jsonschema:"the part number, e.g. 3001"`
}

// ListCategoriesInput is the input schema for the list_categories tool.
type ListCategoriesInput struct {
	UsedBy string `json:"used_by,omitempty" jsonschema:"parts or sets; lists only categories in use by that table"`
}

// GetColorInput is the input schema for the get_color tool.
type GetColorInput struct {
	ID int `json:"id" jsonschema:"the colour id; unknown ids return colour 0"`
}

// PartOutput is a single part.
type PartOutput struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	CategoryID int     `json:"category_id"`
	Category   string  `json:"category"`
	Weight     float64 `json:"weight,omitempty"`
	Dimensions string  `json:"dimensions,omitempty"`
	Stale      bool    `json:"stale,omitempty"`
}

// PartsOutput is the output schema for search_parts.
type PartsOutput struct {
	Parts []PartOutput `json:"parts"`
	Count int          `json:"count"`
}

// SetOutput is a single set.
type SetOutput struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CategoryID int    `json:"category_id"`
	Category   string `json:"category"`
	Year       int    `json:"year,omitempty"`
}

// SetsOutput is the output schema for search_sets.
type SetsOutput struct {
	Sets  []SetOutput `json:"sets"`
	Count int         `json:"count"`
}

// CategoryOutput is a single category.
type CategoryOutput struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CategoriesOutput is the output schema for list_categories.
type CategoriesOutput struct {
	Categories []CategoryOutput `json:"categories"`
	Count      int              `json:"count"`
}

// ColorOutput is the output schema for get_color.
type ColorOutput struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	RGB      string `json:"rgb"`
	Type     string `json:"type,omitempty"`
	YearFrom int    `json:"year_from,omitempty"`
	YearTo   int    `json:"year_to,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_parts",
		Description: "Search the parts catalog by number, name or category",
	}, s.handleSearchParts)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_sets",
		Description: "Search the sets catalog by name or category",
	}, s.handleSearchSets)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_part",
		Description: "Look up a single part by its part number",
	}, s.handleGetPart)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_categories",
		Description: "List catalog categories, optionally only those used by parts or sets",
	}, s.handleListCategories)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_color",
		Description: "Look up a colour by id",
	}, s.handleGetColor)
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return limit
}

func (s *Server) handleSearchParts(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchPartsInput,
) (*mcp.CallToolResult, PartsOutput, error) {
	opts := domain.SearchOptions{
		Limit:        limitOrDefault(input.Limit),
		CategoryID:   input.CategoryID,
		IncludeStale: input.IncludeStale,
	}
	parts, err := s.ports.Catalog.SearchParts(ctx, input.Query, opts)
	if err != nil {
		return nil, PartsOutput{}, err
	}

	output := PartsOutput{Parts: make([]PartOutput, len(parts)), Count: len(parts)}
	for i := range parts {
		output.Parts[i] = partOutput(&parts[i])
	}
	return nil, output, nil
}

func (s *Server) handleSearchSets(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchSetsInput,
) (*mcp.CallToolResult, SetsOutput, error) {
	opts := domain.SearchOptions{
		Limit:      limitOrDefault(input.Limit),
		CategoryID: input.CategoryID,
	}
	sets, err := s.ports.Catalog.SearchSets(ctx, input.Query, opts)
	if err != nil {
		return nil, SetsOutput{}, err
	}
	return nil, setsOutput(sets), nil
}

func (s *Server) handleGetPart(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetPartInput,
) (*mcp.CallToolResult, PartOutput, error) {
	part, err := s.ports.Catalog.GetPart(ctx, input.ID)
	if err != nil {
		return nil, PartOutput{}, fmt.Errorf("part %q: %w", input.ID, err)
	}
	return nil, partOutput(part), nil
}

func (s *Server) handleListCategories(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListCategoriesInput,
) (*mcp.CallToolResult, CategoriesOutput, error) {
	var usedBy domain.Kind
	if input.UsedBy != "" {
		kind, err := domain.ParseKind(input.UsedBy)
		if err != nil {
			return nil, CategoriesOutput{}, err
		}
		usedBy = kind
	}

	cats, err := s.ports.Catalog.Categories(ctx, usedBy)
	if err != nil {
		return nil, CategoriesOutput{}, err
	}

	output := CategoriesOutput{Categories: make([]CategoryOutput, len(cats)), Count: len(cats)}
	for i, c := range cats {
		output.Categories[i] = CategoryOutput{ID: c.ID, Name: c.Name}
	}
	return nil, output, nil
}

func (s *Server) handleGetColor(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetColorInput,
) (*mcp.CallToolResult, ColorOutput, error) {
	c, err := s.ports.Catalog.GetColor(ctx, input.ID)
	if err != nil {
		return nil, ColorOutput{}, fmt.Errorf("colour %d: %w", input.ID, err)
	}
	return nil, ColorOutput{
		ID:       c.ID,
		Name:     c.Name,
		RGB:      c.RGB,
		Type:     c.Type,
		YearFrom: c.YearFrom,
		YearTo:   c.YearTo,
	}, nil
}

func partOutput(p *domain.Part) PartOutput {
	out := PartOutput{
		ID:         p.ID,
		Name:       p.Name,
		CategoryID: p.CategoryID,
		Category:   p.CategoryName,
		Weight:     p.Weight,
		Stale:      p.Stale,
	}
	if p.DimX != 0 || p.DimY != 0 || p.DimZ != 0 {
		out.Dimensions = fmt.Sprintf("%g x %g x %g", p.DimX, p.DimY, p.DimZ)
	}
	return out
}

func setsOutput(sets []domain.Set) SetsOutput {
	output := SetsOutput{Sets: make([]SetOutput, len(sets)), Count: len(sets)}
	for i, st := range sets {
		output.Sets[i] = SetOutput{
			ID:         st.ID,
			Name:       st.Name,
			CategoryID: st.CategoryID,
			Category:   st.CategoryName,
			Year:       st.Year,
		}
	}
	return output
}
