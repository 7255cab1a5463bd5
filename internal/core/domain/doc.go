// Package domain defines the core business entities for blcat.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Record: One catalog entry (Category, Part, Set, Color)
//   - Kind: Which catalog table a Record belongs to
//   - ImportRun: History of a single synchronisation pass
//   - SearchOptions: Filters for catalog queries
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
