package batch

import (
	"encoding/json"
	"os"
)

// ManifestEntry represents one rendered model in the output manifest.
type ManifestEntry struct {
	File    string `json:"file"`
	Image   string `json:"image,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// WriteManifest writes manifest.json to the output directory.
func WriteManifest(path string, results []Result) error {
	entries := make([]ManifestEntry, len(results))
	for i, r := range results {
		entries[i] = ManifestEntry{
			File:    r.File,
			Image:   r.Image,
			Success: r.Success,
			Error:   r.Error,
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
