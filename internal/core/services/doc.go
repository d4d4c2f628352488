// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// SyncOrchestrator runs ingestion batches, ArchiveService answers
// list/info/stats queries over what was written, and SettingsService
// resolves configuration.
package services
