package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pterm/pterm"
)

// ProgressEmitter reports pipeline progress to a human or a machine.
// Implementations write to stderr by default; stdout carries directives.
//
// Implementations include:
// - CLIEmitter: pretty-printed terminal output using pterm
// - JSONEmitter: one JSON event per line
type ProgressEmitter interface {
	EmitStage(stage string, message string)
	EmitLibrary(result LibraryResult)
	EmitComplete(summary map[string]interface{})
	EmitError(stage string, err error)
	EmitInfo(message string)
}

// ProgressEvent represents a structured JSON progress event
type ProgressEvent struct {
	Type      string                 `json:"type"` // "stage", "library", "complete", "error", "info"
	RunID     string                 `json:"run_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// CLIEmitter outputs pretty-printed progress to a terminal using pterm
type CLIEmitter struct {
	verbosity int
	w         io.Writer
}

// NewCLIEmitter creates a CLI progress emitter writing to stderr
func NewCLIEmitter(verbosity int) *CLIEmitter {
	return &CLIEmitter{verbosity: verbosity, w: os.Stderr}
}

// WithWriter redirects the emitter's output
func (e *CLIEmitter) WithWriter(w io.Writer) *CLIEmitter {
	e.w = w
	return e
}

// EmitStage prints a stage announcement
func (e *CLIEmitter) EmitStage(stage string, message string) {
	fmt.Fprintf(e.w, "%s %s: %s\n", pterm.Gray("»"), pterm.LightCyan(stage), message)
}

// EmitLibrary prints the outcome of one library
func (e *CLIEmitter) EmitLibrary(result LibraryResult) {
	if result.Skipped {
		fmt.Fprintf(e.w, "%s %s %s\n", pterm.Gray("="), pterm.Bold.Sprint(result.Name), pterm.Gray("up to date"))
		return
	}
	detail := fmt.Sprintf("%d sources, %d headers", len(result.Artifacts.SourceFiles), len(result.Artifacts.HeaderFiles))
	if result.Library != nil && result.Library.Binding != "" {
		detail += ", binding " + result.Library.Binding
	}
	fmt.Fprintf(e.w, "%s %s %s\n", pterm.Green("✓"), pterm.Bold.Sprint(result.Name), detail)
	if e.verbosity >= 1 && result.Reason != "" {
		fmt.Fprintf(e.w, "  rebuilt: %s\n", result.Reason)
	}
}

// EmitComplete prints the completion summary
func (e *CLIEmitter) EmitComplete(summary map[string]interface{}) {
	pterm.Success.WithWriter(e.w).Println("Build complete")
	if e.verbosity >= 1 {
		for key, value := range summary {
			fmt.Fprintf(e.w, "  %s: %v\n", key, value)
		}
	}
}

// EmitError prints an error
func (e *CLIEmitter) EmitError(stage string, err error) {
	pterm.Error.WithWriter(e.w).Printf("Error in %s: %v\n", stage, err)
}

// EmitInfo prints an informational message
func (e *CLIEmitter) EmitInfo(message string) {
	if e.verbosity >= 1 {
		pterm.Info.WithWriter(e.w).Println(message)
	}
}

// JSONEmitter outputs one JSON event per line
type JSONEmitter struct {
	encoder *json.Encoder
	runID   string
}

// NewJSONEmitter creates a JSON progress emitter writing to w
func NewJSONEmitter(w io.Writer) *JSONEmitter {
	return &JSONEmitter{encoder: json.NewEncoder(w)}
}

// SetRunID tags subsequent events with runID
func (e *JSONEmitter) SetRunID(runID string) {
	e.runID = runID
}

func (e *JSONEmitter) emit(typ string, data map[string]interface{}) {
	e.encoder.Encode(ProgressEvent{
		Type:      typ,
		RunID:     e.runID,
		Timestamp: time.Now(),
		Data:      data,
	})
}

// EmitStage emits a stage event
func (e *JSONEmitter) EmitStage(stage string, message string) {
	e.emit("stage", map[string]interface{}{
		"stage":   stage,
		"message": message,
	})
}

// EmitLibrary emits a library result event
func (e *JSONEmitter) EmitLibrary(result LibraryResult) {
	e.emit("library", map[string]interface{}{
		"result": result,
	})
}

// EmitComplete emits a completion event
func (e *JSONEmitter) EmitComplete(summary map[string]interface{}) {
	e.emit("complete", summary)
}

// EmitError emits an error event
func (e *JSONEmitter) EmitError(stage string, err error) {
	e.emit("error", map[string]interface{}{
		"stage": stage,
		"error": err.Error(),
	})
}

// EmitInfo emits an informational event
func (e *JSONEmitter) EmitInfo(message string) {
	e.emit("info", map[string]interface{}{
		"message": message,
	})
}

// runIDSetter is implemented by emitters that tag events with the run id.
type runIDSetter interface {
	SetRunID(runID string)
}

type nopEmitter struct{}

func (nopEmitter) EmitStage(string, string)            {}
func (nopEmitter) EmitLibrary(LibraryResult)           {}
func (nopEmitter) EmitComplete(map[string]interface{}) {}
func (nopEmitter) EmitError(string, error)             {}
func (nopEmitter) EmitInfo(string)                     {}

// NopEmitter discards all progress
var NopEmitter ProgressEmitter = nopEmitter{}
