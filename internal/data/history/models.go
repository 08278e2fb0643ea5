// Package history stores the outcome of check runs so that the number of
// broken references can be followed over time.
package history

import "time"

const SchemaVersion = 1

// Run is one check of a workspace.
type Run struct {
	WorkspaceKey   string    `json:"workspace_key"`
	Timestamp      time.Time `json:"timestamp"`
	SnapshotID     string    `json:"snapshot_id"`
	FileCount      int       `json:"file_count"`
	DeclCount      int       `json:"decl_count"`
	ReferenceCount int       `json:"reference_count"`

	Unresolved         int `json:"unresolved"`
	Ambiguous          int `json:"ambiguous"`
	CyclicAliases      int `json:"cyclic_aliases"`
	MalformedArguments int `json:"malformed_arguments"`
}

// Problems is the number of references the run reported.
func (r Run) Problems() int {
	return r.Unresolved + r.Ambiguous + r.CyclicAliases + r.MalformedArguments
}

type TrendPoint struct {
	Run
	DeltaProblems   int     `json:"delta_problems"`
	DeltaReferences int     `json:"delta_references"`
	DeltaDecls      int     `json:"delta_decls"`
	AvgProblems     float64 `json:"avg_problems"`
}

type TrendReport struct {
	WorkspaceKey string       `json:"workspace_key"`
	Since        time.Time    `json:"since"`
	Until        time.Time    `json:"until"`
	Window       string       `json:"window"`
	RunCount     int          `json:"run_count"`
	Points       []TrendPoint `json:"points"`
}
