package batch

import (
	"encoding/json"
	"os"
)

// Manifest describes one generated sequence.
type Manifest struct {
	Frames   int             `json:"frames"`
	Forward  int             `json:"forward"`
	Reversed bool            `json:"reversed"`
	FPS      int             `json:"fps,omitempty"`
	Video    string          `json:"video,omitempty"`
	Entries  []ManifestEntry `json:"entries"`
}

// ManifestEntry represents one still in the output manifest.
type ManifestEntry struct {
	Index    int     `json:"index"`
	Alpha    float64 `json:"alpha"`
	Image    string  `json:"image"`
	Mirrored bool    `json:"mirrored,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// NewManifest builds a manifest from still results.
func NewManifest(results []Result, forward int, fps int, videoFile string) Manifest {
	m := Manifest{
		Frames:   len(results),
		Forward:  forward,
		Reversed: len(results) > forward,
		Video:    videoFile,
		Entries:  make([]ManifestEntry, len(results)),
	}
	if videoFile != "" {
		m.FPS = fps
	}
	for i, r := range results {
		m.Entries[i] = ManifestEntry{
			Index:    r.Index,
			Alpha:    r.Alpha,
			Image:    r.File,
			Mirrored: r.Mirrored,
			Error:    r.Error,
		}
	}
	return m
}

// WriteManifest writes the manifest as indented JSON to path.
func WriteManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
