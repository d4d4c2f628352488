// Package driven defines interfaces for infrastructure adapters.
// These are the "driven" ports in hexagonal architecture - the
// application drives them to reach the filesystem and the network.
//
// # Required Interfaces
//
//   - Fetcher: Reads source bytes from disk or HTTP
//   - SourceDiscoverer: Lists the inputs of a batch
//   - RawStore: Write-once preservation of fetched bytes
//   - ExtractorRegistry / Extractor: Type-specific field extraction
//   - SchemaValidator: Per-type field contract
//   - OutputWriter / RecordReader: Columnar and metadata sinks
//
// # Optional Interfaces
//
// These can be nil - the orchestrator skips them:
//
//   - RunStore: Batch history used by stats and info
//   - MetricsRecorder: Batch counters
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven
