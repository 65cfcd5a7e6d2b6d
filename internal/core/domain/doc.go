// Package domain defines the core business entities for Tessera.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A document being indexed, with its ordered pages
//   - Page: One page with text spans, images and a full-page raster
//   - TextUnit / ImageUnit: The smallest indexed items
//   - TextIndexEntry / ImageIndexEntry: Records emitted for persistence
//   - Outcome: Per-document processing result
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
