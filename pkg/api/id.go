package api

import (
	"regexp"
	"strings"
)

type (
	// ID is a unique identifier for a workflow or step
	ID string

	// RunID uniquely identifies a single workflow execution
	RunID string

	// Name is a string identifier for inputs, outputs, and variables
	Name string

	// OutputRef identifies a step output within a run as "<stepID>.<output>"
	OutputRef string
)

// InvalidIDChars matches characters not permitted in workflow and step IDs.
// Valid characters are: letters, digits, underscore, dot, hyphen, plus, space
var InvalidIDChars = regexp.MustCompile(`[^a-zA-Z0-9_.\-+ ]`)

// SanitizeID lowercases an ID, removes invalid characters, replaces spaces
// with hyphens, and trims leading and trailing hyphens
func SanitizeID[T ~string](id T) T {
	lower := strings.ToLower(string(id))
	sanitized := InvalidIDChars.ReplaceAllString(lower, "")
	sanitized = strings.ReplaceAll(sanitized, " ", "-")
	return T(strings.Trim(sanitized, "-"))
}

// MakeOutputRef joins a step ID and output name into an OutputRef
func MakeOutputRef(stepID ID, output Name) OutputRef {
	return OutputRef(string(stepID) + "." + string(output))
}

// Split breaks an OutputRef into its step ID and output name. The second
// return value is false when the reference has no "." separator
func (r OutputRef) Split() (ID, Name, bool) {
	stepID, output, ok := strings.Cut(string(r), ".")
	if !ok || stepID == "" || output == "" {
		return "", "", false
	}
	return ID(stepID), Name(output), true
}
