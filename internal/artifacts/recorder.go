// Package artifacts names, records and persists the debugging artifacts of a
// run: screenshots taken around risky steps and the JSON run report.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/afero"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrInvalidPath is returned when an artifact name would escape the artifact directory.
var ErrInvalidPath = errors.New("invalid artifact path")

// Category says which step produced an artifact.
type Category string

const (
	CategoryBefore           Category = "before"
	CategoryError            Category = "error"
	CategoryValidationFailed Category = "validation-failed"
	CategoryReport           Category = "report"
)

// Artifact is a file written once during a run.
type Artifact struct {
	Category  Category  `json:"category"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// Screenshotter captures the current page into a file.
type Screenshotter interface {
	Screenshot(ctx context.Context, destinationPath string) error
}

// Recorder hands out unique artifact paths under one directory and keeps the
// list of artifacts that were written.
type Recorder struct {
	fs    afero.Fs
	dir   string
	runID string
	now   func() time.Time

	mu       sync.Mutex
	seq      int
	recorded []Artifact
}

// NewRecorder creates a Recorder rooted at dir for the given run.
func NewRecorder(fs afero.Fs, dir, runID string) (*Recorder, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: artifact directory cannot be empty", ErrInvalidPath)
	}
	dir = filepath.Clean(dir)
	if runID == "" {
		return nil, errors.New("run id cannot be empty")
	}
	return &Recorder{fs: fs, dir: dir, runID: runID, now: time.Now}, nil
}

// Prepare creates the artifact directory.
func (r *Recorder) Prepare() error {
	if err := r.fs.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory '%s': %w", r.dir, err)
	}
	return nil
}

func (r *Recorder) Dir() string { return r.dir }

// Next reserves a unique, timestamped screenshot path for the category.
func (r *Recorder) Next(category Category) (Artifact, error) {
	r.mu.Lock()
	r.seq++
	seq := r.seq
	r.mu.Unlock()

	ts := r.now()
	name := fmt.Sprintf("%s-%s-%s-%02d.png", category, shortID(r.runID), ts.UTC().Format("20060102T150405.000"), seq)
	path, err := r.join(name)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Category: category, Path: path, Timestamp: ts}, nil
}

// Capture asks the screenshotter to write the next artifact of the category.
// The artifact is recorded only when the write succeeded.
func (r *Recorder) Capture(ctx context.Context, s Screenshotter, category Category) (Artifact, error) {
	a, err := r.Next(category)
	if err != nil {
		return Artifact{}, err
	}
	if err := s.Screenshot(ctx, a.Path); err != nil {
		return Artifact{}, fmt.Errorf("failed to capture %s screenshot: %w", category, err)
	}
	r.record(a)
	return a, nil
}

// WriteReport serializes v as indented JSON to run-<id>.json.
func (r *Recorder) WriteReport(v interface{}) (Artifact, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to encode run report: %w", err)
	}
	path, err := r.join(fmt.Sprintf("run-%s.json", r.runID))
	if err != nil {
		return Artifact{}, err
	}
	if err := afero.WriteFile(r.fs, path, data, 0o644); err != nil {
		return Artifact{}, fmt.Errorf("failed to write run report: %w", err)
	}
	a := Artifact{Category: CategoryReport, Path: path, Timestamp: r.now()}
	r.record(a)
	return a, nil
}

// Recorded returns a copy of the artifacts written so far.
func (r *Recorder) Recorded() []Artifact {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Artifact(nil), r.recorded...)
}

func (r *Recorder) record(a Artifact) {
	r.mu.Lock()
	r.recorded = append(r.recorded, a)
	r.mu.Unlock()
}

// join keeps every artifact inside the artifact directory.
func (r *Recorder) join(name string) (string, error) {
	full := filepath.Join(r.dir, filepath.Clean(name))
	rel, err := filepath.Rel(r.dir, full)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, name)
	}
	return full, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
