// Package flowgrid is the workflow execution engine behind the spreadsheet
// automation product. It executes declarative multi-step workflows against
// spreadsheet ranges, wiring step outputs into later step inputs, applying
// per-step retry policies, and replaying workflows across batches of targets
package flowgrid

const (
	// Name identifies the service in logs and health responses
	Name = "flowgrid"

	// Version is the engine release version
	Version = "0.4.1"
)
