// Package archive keeps solver traces in a content-addressed directory tree.
package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/zen-systems/solvegate/pkg/solver"
)

// Ref names a stored object by its content hash.
type Ref struct {
	Kind   string `json:"kind"`
	SHA256 string `json:"sha256"`
}

// Store manages the content-addressed archive.
type Store struct {
	BasePath string
}

// NewStore creates a new archive store. An empty basePath uses
// ~/.solvegate/traces.
func NewStore(basePath string) (*Store, error) {
	if basePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		basePath = filepath.Join(home, ".solvegate", "traces")
	}

	dirs := []string{
		filepath.Join(basePath, "objects"),
		filepath.Join(basePath, "runs"),
	}

	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return nil, err
		}
	}

	return &Store{BasePath: basePath}, nil
}

// StoreObject stores a JSON object by its SHA256 content hash in a sharded directory structure.
func (s *Store) StoreObject(obj any, kind string) (Ref, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return Ref{}, err
	}

	hashBytes := sha256.Sum256(data)
	hash := hex.EncodeToString(hashBytes[:])

	// Shard by first 2 chars
	dir := filepath.Join(s.BasePath, "objects", hash[:2])
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Ref{}, err
	}

	path := filepath.Join(dir, hash+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return Ref{}, err
	}

	return Ref{Kind: kind, SHA256: hash}, nil
}

// LoadObject decodes a stored object into v.
func (s *Store) LoadObject(ref Ref, v any) error {
	if len(ref.SHA256) < 2 {
		return fmt.Errorf("invalid object hash %q", ref.SHA256)
	}
	data, err := os.ReadFile(filepath.Join(s.BasePath, "objects", ref.SHA256[:2], ref.SHA256+".json"))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// StoreTrace archives a solver result and indexes it by its run ID. It
// returns the content hash.
func (s *Store) StoreTrace(res *solver.Result) (string, error) {
	if res == nil || res.RunID == "" {
		return "", fmt.Errorf("trace has no run id")
	}
	ref, err := s.StoreObject(res, "trace")
	if err != nil {
		return "", err
	}
	index := filepath.Join(s.BasePath, "runs", res.RunID)
	if err := os.WriteFile(index, []byte(ref.SHA256+"\n"), 0644); err != nil {
		return "", err
	}
	return ref.SHA256, nil
}

// LoadTrace returns the trace stored for a run ID.
func (s *Store) LoadTrace(runID string) (*solver.Result, error) {
	if runID == "" || strings.ContainsAny(runID, `/\`) {
		return nil, fmt.Errorf("invalid run id %q", runID)
	}
	data, err := os.ReadFile(filepath.Join(s.BasePath, "runs", runID))
	if err != nil {
		return nil, fmt.Errorf("trace %s: %w", runID, err)
	}
	var res solver.Result
	if err := s.LoadObject(Ref{Kind: "trace", SHA256: strings.TrimSpace(string(data))}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
