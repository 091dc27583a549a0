// Package archive persists finished run reports outside the process, either
// as JSON files in a local directory or as objects in MinIO / S3.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/pipeline-go/graph"
)

// ErrNoRunID is returned when a report without a run ID is archived.
var ErrNoRunID = errors.New("run report has no run id")

// Archiver stores a RunReport and returns where it was written.
type Archiver interface {
	Archive(ctx context.Context, report *graph.RunReport) (string, error)
}

// ObjectKey is the name a report is stored under: <prefix>/<runID>.json.
func ObjectKey(prefix, runID string) string {
	name := runID + ".json"
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func encodeReport(report *graph.RunReport) ([]byte, error) {
	if report == nil {
		return nil, errors.New("run report is nil")
	}
	if report.RunID == "" {
		return nil, ErrNoRunID
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode run report: %w", err)
	}
	return data, nil
}

// FileArchiver writes reports as indented JSON under Dir.
type FileArchiver struct {
	Dir string
}

// NewFileArchiver creates a FileArchiver rooted at dir.
func NewFileArchiver(dir string) *FileArchiver {
	return &FileArchiver{Dir: dir}
}

// Archive writes the report to Dir/<runID>.json, creating Dir if needed.
func (f *FileArchiver) Archive(ctx context.Context, report *graph.RunReport) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := encodeReport(report)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}

	path := filepath.Join(f.Dir, ObjectKey("", report.RunID))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write run report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write run report: %w", err)
	}
	return path, nil
}
