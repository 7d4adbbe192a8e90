// Package engine implements the core workflow execution engine
//
// This package contains the main engine logic for executing workflows:
// per-run execution contexts, step execution with retry and conditions,
// the sequential run orchestrator, and the batch runner
package engine
