package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hexward/hexward/internal/report"
)

// ScanRecord is one line of the scan history.
type ScanRecord struct {
	Timestamp    time.Time        `json:"timestamp"`
	ScanID       string           `json:"scan_id"`
	Root         string           `json:"root"`
	Fast         bool             `json:"fast"`
	Aborted      bool             `json:"aborted"`
	FilesScanned int              `json:"files_scanned"`
	CacheHits    int              `json:"cache_hits"`
	Fixable      int              `json:"fixable"`
	Unfixable    int              `json:"unfixable"`
	Denied       int              `json:"denied"`
	Duration     string           `json:"duration"`
	TopFindings  []FindingSummary `json:"top_findings,omitempty"`
}

type FindingSummary struct {
	Path    string `json:"path"`
	Malware string `json:"malware"`
	Fixable bool   `json:"fixable"`
}

type AuditLog struct {
	logPath string
}

// HistoryPath places the history file next to the scan cache.
func HistoryPath(cachePath string) string {
	return filepath.Join(filepath.Dir(cachePath), "history.jsonl")
}

func NewAuditLog(logPath string) *AuditLog {
	return &AuditLog{logPath: logPath}
}

// Path returns the file the log appends to.
func (a *AuditLog) Path() string { return a.logPath }

// LoadHistory returns records newest first. Lines that fail to decode are
// skipped.
func (a *AuditLog) LoadHistory() ([]ScanRecord, error) {
	f, err := os.Open(a.logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var records []ScanRecord
	decoder := json.NewDecoder(f)
	for decoder.More() {
		var record ScanRecord
		if err := decoder.Decode(&record); err != nil {
			continue
		}
		records = append(records, record)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func (a *AuditLog) LogScan(record ScanRecord) error {
	if record.ScanID == "" {
		record.ScanID = fmt.Sprintf("scan_%d", record.Timestamp.UnixNano())
	}
	if err := os.MkdirAll(filepath.Dir(a.logPath), 0o755); err != nil {
		return fmt.Errorf("failed to create audit log dir: %w", err)
	}

	// infected paths are sensitive; owner-only
	f, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(record); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// DeleteRecord removes the record at index, counted newest first as
// LoadHistory returns them.
func (a *AuditLog) DeleteRecord(index int) error {
	records, err := a.LoadHistory()
	if err != nil {
		return err
	}

	if index < 0 || index >= len(records) {
		return fmt.Errorf("invalid index: %d", index)
	}

	records = append(records[:index], records[index+1:]...)

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}

	f, err := os.Create(a.logPath)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			return fmt.Errorf("failed to write audit record: %w", err)
		}
	}
	return nil
}

// CreateScanRecord summarizes r. At most ten infected paths are kept,
// unfixable first.
func CreateScanRecord(r *report.Report, fast bool) ScanRecord {
	top := make([]FindingSummary, 0, 10)
	for _, u := range r.Unfixable {
		if len(top) == 10 {
			break
		}
		top = append(top, FindingSummary{Path: u.Path, Malware: u.Name})
	}
	for _, f := range r.Fixable {
		if len(top) == 10 {
			break
		}
		top = append(top, FindingSummary{Path: f.Path, Malware: f.Name, Fixable: true})
	}

	return ScanRecord{
		Timestamp:    time.Now(),
		Root:         r.Root,
		Fast:         fast,
		Aborted:      r.Aborted,
		FilesScanned: r.Stats.FilesScanned,
		CacheHits:    r.Stats.CacheHits,
		Fixable:      len(r.Fixable),
		Unfixable:    len(r.Unfixable),
		Denied:       len(r.Denied),
		Duration:     r.Stats.Duration.String(),
		TopFindings:  top,
	}
}
