// Package scriptlib embeds the ExtendScript library fragments the resolver
// composes into executor scripts. These are opaque text assets, not Go
// logic — their behavior is exercised indirectly through the pure Go
// packages (internal/geometry, internal/selection, internal/layout,
// internal/presets, internal/assets) that implement the same semantics
// testably.
package scriptlib

import (
	"embed"
	"fmt"

	json5 "github.com/yosuke-furukawa/json5/encoding/json5"

	"github.com/illustrator-mcp-bridge/bridge/internal/resolver"
)

//go:embed manifest.json5 fragments/*.jsx
var assets embed.FS

// Manifest loads the embedded manifest and populates each library's
// Content from its embedded fragment, producing a resolver.Manifest ready
// to construct a *resolver.Resolver.
func Manifest() (resolver.Manifest, error) {
	raw, err := assets.ReadFile("manifest.json5")
	if err != nil {
		return nil, fmt.Errorf("read embedded manifest: %w", err)
	}

	var m resolver.Manifest
	if err := json5.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse embedded manifest: %w", err)
	}

	for name, lib := range m {
		content, err := assets.ReadFile("fragments/" + lib.Path)
		if err != nil {
			return nil, fmt.Errorf("read library fragment %q: %w", name, err)
		}
		lib.Content = string(content)
		m[name] = lib
	}
	return m, nil
}
