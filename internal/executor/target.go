package executor

import (
	"fmt"
	"regexp"
	"strings"
)

// ResolveTarget recursively, purely structurally resolves a Target against
// a document. The global exclude/orderBy of the owning TargetSelector are
// applied exactly once by the caller, after this returns.
func ResolveTarget(doc Document, t Target) ([]Item, error) {
	switch t.Kind {
	case TargetSelection:
		return doc.Selection(), nil

	case TargetAll:
		var out []Item
		for _, layer := range doc.Layers() {
			out = append(out, collectContainer(layer, t.Recursive)...)
		}
		return out, nil

	case TargetLayer:
		if t.Layer == "" {
			return nil, fmt.Errorf("layer target requires layer name")
		}
		layer, ok := doc.LayerByName(t.Layer)
		if !ok {
			return nil, fmt.Errorf("layer %q not found", t.Layer)
		}
		return collectContainer(layer, t.Recursive), nil

	case TargetQuery:
		return resolveQuery(doc, t)

	case TargetCompound:
		var out []Item
		for _, sub := range t.AnyOf {
			resolved, err := ResolveTarget(doc, sub)
			if err != nil {
				return nil, err
			}
			out = append(out, resolved...)
		}
		return ApplyExclude(out, t.Exclude), nil

	default:
		return nil, fmt.Errorf("unrecognized target type %q", t.Kind)
	}
}

func collectContainer(c Container, recursive bool) []Item {
	var out []Item
	for _, it := range c.Children() {
		out = append(out, it)
		if recursive && len(it.Children()) > 0 {
			out = append(out, collectContainer(it, true)...)
		}
	}
	return out
}

func resolveQuery(doc Document, t Target) ([]Item, error) {
	var layers []Layer
	if t.LayerFilter != "" {
		layer, ok := doc.LayerByName(t.LayerFilter)
		if !ok {
			return nil, fmt.Errorf("layer %q not found", t.LayerFilter)
		}
		layers = []Layer{layer}
	} else {
		layers = doc.Layers()
	}

	var pattern *regexp.Regexp
	if t.Pattern != "" {
		var err error
		pattern, err = compileGlobPattern(t.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", t.Pattern, err)
		}
	}

	var out []Item
	for _, layer := range layers {
		candidates := collectContainer(layer, t.Recursive)
		for _, it := range candidates {
			if t.ItemType != "" && it.TypeName() != t.ItemType {
				continue
			}
			if pattern != nil && !pattern.MatchString(it.Name()) {
				continue
			}
			out = append(out, it)
		}
	}
	return out, nil
}

// compileGlobPattern compiles a "*"/"?" glob, anchored at both ends, into a
// regexp: "*" becomes ".*", "?" becomes ".".
func compileGlobPattern(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}
