// Package diag defines the diagnostic model shared by the metadata loader,
// the retargeting layer and the walker.
//
// # Purpose
//
//   - Provide deterministic data structures describing version-skew findings
//     (missing types, unsupported embedded types, illegal generic
//     instantiations, unresolvable canonical types).
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to storage or formatting.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity: tri-level enum (Info, Warning, Error).
//   - Code: compact numeric identifier (see codes.go) with stable string form.
//   - Message: human oriented text; keep it short and actionable.
//   - Primary: the Location (assembly + symbol display string) the finding
//     is attached to.
//   - Notes: optional secondary locations/messages.
//
// Use-site diagnostics attached to symbols are plain *Diagnostic values; a
// nil pointer means the symbol is healthy.
//
// # Consumers
//
//   - internal/diagfmt renders diagnostics as pretty text or JSON.
//   - internal/walk collects use-site diagnostics into reports.
//   - cmd/retarget merges reports through a DedupReporter and prints the
//     short form with FormatShortDiagnostics.
package diag
