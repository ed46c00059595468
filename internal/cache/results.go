package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/hexward/hexward/internal/report"
)

// ScanResults stores the report and metadata from a scan
type ScanResults struct {
	Report    *report.Report `json:"report"`
	Timestamp time.Time      `json:"timestamp"`
}

// ResultsPath places the last report beside the cache file.
func ResultsPath(cachePath string) string {
	return filepath.Join(filepath.Dir(cachePath), "last_report.json")
}

// SaveResults saves the report of the last scan
func SaveResults(cachePath string, r *report.Report) error {
	return writeJSONAtomic(ResultsPath(cachePath), ScanResults{Report: r, Timestamp: time.Now()})
}

// LoadResults loads the last scan report
func LoadResults(cachePath string) (ScanResults, error) {
	var results ScanResults
	f, err := os.ReadFile(ResultsPath(cachePath))
	if err != nil {
		return results, err
	}
	if err := json.Unmarshal(f, &results); err != nil {
		return results, err
	}
	if results.Report == nil {
		results.Report = report.New("")
	}
	return results, nil
}
