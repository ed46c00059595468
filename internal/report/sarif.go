package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

type sarif struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool      `json:"tool"`
	Results    []sarifResult  `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID string `json:"id"`
}

type sarifResult struct {
	RuleID    string       `json:"ruleId"`
	RuleIndex int          `json:"ruleIndex"`
	Level     string       `json:"level"`
	Message   sarifMessage `json:"message"`
	Locations []sarifLoc   `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt     `json:"artifactLocation"`
	Region           *sarifRegion `json:"region,omitempty"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	ByteOffset int `json:"byteOffset"`
	ByteLength int `json:"byteLength"`
}

// WriteSARIF writes infections as SARIF 2.1.0. Fixable hits carry their byte
// region; unfixable hits cover the whole file.
func WriteSARIF(w io.Writer, r *Report, version string) error {
	names := map[string]bool{}
	for _, f := range r.Fixable {
		names[f.Name] = true
	}
	for _, u := range r.Unfixable {
		names[u.Name] = true
	}
	ids := make([]string, 0, len(names))
	for n := range names {
		ids = append(ids, n)
	}
	sort.Strings(ids)
	index := make(map[string]int, len(ids))
	rules := make([]sarifRule, len(ids))
	for i, id := range ids {
		index[id] = i
		rules[i] = sarifRule{ID: id}
	}

	run := sarifRun{
		Tool:    sarifTool{Driver: sarifDriver{Name: "hexward", Version: version, Rules: rules}},
		Results: []sarifResult{},
		Properties: map[string]any{
			"aborted":      r.Aborted,
			"denied":       len(r.Denied),
			"filesScanned": r.Stats.FilesScanned,
		},
	}
	for _, f := range r.Fixable {
		start, end := f.Range.Bytes()
		run.Results = append(run.Results, sarifResult{
			RuleID:    f.Name,
			RuleIndex: index[f.Name],
			Level:     "error",
			Message:   sarifMessage{Text: fmt.Sprintf("%s detected (excisable)", f.Name)},
			Locations: []sarifLoc{{PhysicalLocation: sarifPhys{
				ArtifactLocation: sarifArt{URI: f.Path},
				Region:           &sarifRegion{ByteOffset: start, ByteLength: end - start},
			}}},
		})
	}
	for _, u := range r.Unfixable {
		run.Results = append(run.Results, sarifResult{
			RuleID:    u.Name,
			RuleIndex: index[u.Name],
			Level:     "error",
			Message:   sarifMessage{Text: fmt.Sprintf("%s detected", u.Name)},
			Locations: []sarifLoc{{PhysicalLocation: sarifPhys{ArtifactLocation: sarifArt{URI: u.Path}}}},
		})
	}
	doc := sarif{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs:    []sarifRun{run},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
