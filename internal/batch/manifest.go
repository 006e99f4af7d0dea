package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Summary counts converted and failed files.
type Summary struct {
	Total     int `json:"total"`
	Converted int `json:"converted"`
	Failed    int `json:"failed"`
	Faces     int `json:"faces"`
}

// Summarize tallies results.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Success() {
			s.Converted++
			s.Faces += r.Faces
		} else {
			s.Failed++
		}
	}
	return s
}

// Manifest is the JSON document written after a batch run.
type Manifest struct {
	Summary Summary  `json:"summary"`
	Files   []Result `json:"files"`
}

// WriteManifest writes manifest.json style output to path.
func WriteManifest(path string, results []Result) error {
	data, err := json.MarshalIndent(Manifest{Summary: Summarize(results), Files: results}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
