package constants

// Despite the package name these are vars, so that they can be updated at link time.
var (
	ToolName = "backup-manager"
	Version  = "v0.0.1-dev"
)
