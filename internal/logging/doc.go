// Package logging builds slog loggers with the console and JSON handlers used
// across bandstand. The console handler renders compact single-line records
// with the component attribute lifted into the message prefix; the JSON
// handler emits lowercase level names and RFC3339 timestamps for ingestion.
//
// Every degraded-mode code path (mock uploads, canned quiz content, canned
// drafts) logs through here with the FieldFallback attribute so operators can
// tell fabricated successes from real ones.
package logging
