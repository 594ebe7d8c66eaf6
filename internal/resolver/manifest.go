package resolver

import (
	"fmt"

	json5 "github.com/yosuke-furukawa/json5/encoding/json5"
)

// Library describes one ExtendScript fragment entry in the manifest. Path
// names the embedded asset; Content is populated separately (by
// internal/scriptlib) from that asset's text before the manifest reaches
// a Resolver.
type Library struct {
	Path         string   `json:"path"`
	Dependencies []string `json:"dependencies,omitempty"`
	Exports      []string `json:"exports,omitempty"`
	Content      string   `json:"-"`
}

// Manifest maps library name to its definition.
type Manifest map[string]Library

// LoadManifest parses a JSON5 manifest document (comments and trailing
// commas allowed, matching the config loader's tolerance for hand-edited
// files).
func LoadManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := json5.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse library manifest: %w", err)
	}
	return m, nil
}
