// Package domain defines the core business entities for fedledger.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Identifier: Deterministic key derived from a source location
//   - RawArtifact: Fetched bytes preserved before any processing
//   - StructuredRecord: Fields extracted from a raw artifact
//   - ValidatedRecord: A record normalised against its document schema
//   - BatchResult: The outcome of one ingestion run
//   - Settings: Validated runtime configuration
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
