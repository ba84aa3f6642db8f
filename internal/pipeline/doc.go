// Package pipeline runs the two phases of a notelink run over one vault.
//
// The scan phase walks the vault, extracts a keyword signature per note and
// upserts the documents into the store, pruning rows for notes that no
// longer exist. The link phase loads every document, computes the
// similarity graph and rewrites the generated annotation lines of each
// note. Per-note failures are logged and recorded in the phase report;
// storage failures abort the run.
package pipeline
