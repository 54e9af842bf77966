package logger

// Standard field names for structured logging across gramlink.
const (
	FieldRunID    = "run_id"
	FieldLibrary  = "library"
	FieldStage    = "stage"
	FieldCommand  = "command"
	FieldDir      = "dir"
	FieldFile     = "file"
	FieldCount    = "count"
	FieldLinkMode = "link_mode"
	FieldExitCode = "exit_code"
	FieldDuration = "duration_ms"
	FieldError    = "error"
	FieldArtifact = "artifact"
)
