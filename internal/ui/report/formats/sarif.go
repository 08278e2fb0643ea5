// Package formats renders diagnostics for external consumers.
package formats

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	coreerrors "pathres/internal/core/errors"
	"pathres/internal/engine/resolver"
)

// SARIF v2.1.0 schema – see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"

	ruleIDUnresolved = "PATH001"
	ruleIDAmbiguous  = "PATH002"
	ruleIDCyclic     = "PATH003"
	ruleIDMalformed  = "PATH004"
)

type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
}

type ruleInfo struct {
	id    string
	name  string
	text  string
	level string
}

var rulesByCode = map[coreerrors.ErrorCode]ruleInfo{
	coreerrors.CodeUnresolved:         {ruleIDUnresolved, "UnresolvedReference", "The path does not resolve to any visible declaration.", "error"},
	coreerrors.CodeAmbiguous:          {ruleIDAmbiguous, "AmbiguousReference", "The path resolves to more than one declaration.", "error"},
	coreerrors.CodeCyclicAlias:        {ruleIDCyclic, "CyclicTypeAlias", "The path names a type alias that expands to itself.", "error"},
	coreerrors.CodeMalformedArguments: {ruleIDMalformed, "MalformedGenericArguments", "The path passes more generic arguments than the declaration has parameters.", "warning"},
}

// GenerateSARIF builds a SARIF v2.1.0 document from unresolved references.
// File URIs are made relative to projectRoot so that reports are safe to
// share.
func GenerateSARIF(projectRoot, toolVersion string, problems []resolver.UnresolvedReference) ([]byte, error) {
	results := make([]sarifResult, 0, len(problems))
	used := make(map[coreerrors.ErrorCode]bool)
	for _, p := range problems {
		rule, ok := rulesByCode[p.Code]
		if !ok {
			return nil, fmt.Errorf("no SARIF rule for diagnostic code %q", p.Code)
		}
		used[p.Code] = true

		result := sarifResult{
			RuleID:  rule.id,
			Level:   rule.level,
			Message: sarifMessage{Text: fmt.Sprintf("%s: `%s`", rule.text, p.Path.Text())},
		}
		if loc := p.Path.Location; loc.File != "" {
			sl := sarifLocation{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{
						URI:       relativeURI(projectRoot, loc.File),
						URIBaseID: "%SRCROOT%",
					},
				},
			}
			if loc.Line > 0 {
				sl.PhysicalLocation.Region = &sarifRegion{StartLine: loc.Line, StartColumn: loc.Column}
			}
			result.Locations = []sarifLocation{sl}
		}
		results = append(results, result)
	}

	report := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    "pathres",
						Version: toolVersion,
						Rules:   buildSARIFRules(used),
					},
				},
				Results: results,
			},
		},
	}
	return json.MarshalIndent(report, "", "  ")
}

// buildSARIFRules returns only the rules that are relevant for the given
// findings, ordered by id.
func buildSARIFRules(used map[coreerrors.ErrorCode]bool) []sarifRule {
	rules := make([]sarifRule, 0, len(used))
	for code := range used {
		info := rulesByCode[code]
		rules = append(rules, sarifRule{
			ID:               info.id,
			Name:             info.name,
			ShortDescription: sarifMessage{Text: info.text},
			DefaultConfig:    sarifRuleDefaultConfig{Level: info.level},
		})
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules
}

// relativeURI converts an absolute file path to a forward-slash relative URI
// anchored at projectRoot. If the path is already relative or projectRoot is
// empty, the original path (with forward slashes) is returned.
func relativeURI(projectRoot, filePath string) string {
	if projectRoot != "" && filepath.IsAbs(filePath) {
		rel, err := filepath.Rel(projectRoot, filePath)
		if err == nil {
			filePath = rel
		}
	}
	return filepath.ToSlash(filePath)
}
