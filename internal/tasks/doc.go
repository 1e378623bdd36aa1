// Package tasks runs website analyses with real-time progress reporting and records their outcomes.
//
// # Core Operations
//
// [AnalysisEngine] offers three operations:
//
//  1. [AnalysisEngine.Run]: streaming analysis of one URL
//     - Opens the push stream, falling back to the buffered request
//     - Converts every callback into a [ProgressUpdate]
//     - Records the outcome as a [models.AnalysisRecord]
//
//  2. [AnalysisEngine.RunDirect]: one-shot analysis through POST /website-analysis/analyze
//
//  3. [AnalysisEngine.BulkAnalyze]: many URLs through a rate-limited worker pool
//     - Writes a manifest report in CSV, Markdown, text or JSON
//     - Handles partial failures; one failed URL never stops the batch
//
// # Progress Reporting
//
// Operations accept an optional send-only channel. Updates are sent with select/default,
// so a slow or absent reader never blocks an analysis; updates are dropped instead.
//
// # Persistence
//
// When the engine has a [Store], every run is inserted as running and updated once it
// finishes. Store failures are logged and never fail the analysis itself.
package tasks
