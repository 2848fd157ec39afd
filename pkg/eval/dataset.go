// Package eval scores the solver against a labelled dataset and keeps a
// record of each run.
package eval

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
)

// Record is one labelled question.
type Record struct {
	Input  string `json:"input"`
	Output string `json:"output"`
	Domain string `json:"domain"`

	// Index is the 1-based position in the dataset file.
	Index int `json:"-"`
}

// LoadDataset reads a JSON array of records and applies offset and limit.
// A limit <= 0 keeps everything after offset.
func LoadDataset(path string, offset, limit int) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	for i := range records {
		records[i].Index = i + 1
		if strings.TrimSpace(records[i].Domain) == "" {
			records[i].Domain = "unknown"
		}
	}
	return Slice(records, offset, limit), nil
}

// Slice returns records[offset:offset+limit], clamped to the slice bounds.
func Slice(records []Record, offset, limit int) []Record {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(records) {
		return nil
	}
	records = records[offset:]
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records
}
