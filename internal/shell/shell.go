// Package shell contains constructs shared across the shell's
// sub-packages: the hidden re-exec subcommand name.
package shell

const (
	// PipelineLeader is the hidden subcommand a pipeline leader process is
	// re-exec'd with. It is never typed by a user; the pipeline executor
	// (reexec.Launch) passes it as the leader's argument when it launches
	// a pipeline.
	PipelineLeader = "__pipeline-leader__"
)
