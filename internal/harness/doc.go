// Package harness runs drill scenarios against a fresh document and
// checks the outcome.
//
// A scenario is a YAML file with setup steps, flow steps and assertions.
// Every step names a drill operation (create_pages, delete_marchers,
// undo, ...) with its arguments. Setup steps must succeed; flow steps may
// declare the outcome they expect, either "success" or an error code such
// as NOT_FOUND.
//
// Each run uses an in-memory store with a deterministic clock and action
// tokens, so the trace of a scenario is stable and can be compared
// against a golden file:
//
//	go test ./internal/harness -update
//
// regenerates testdata/golden.
package harness
