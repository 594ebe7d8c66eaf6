package executor

import (
	"regexp"
	"strconv"
	"strings"
)

// Locator is the volatile location of an item: a layer path plus a
// positional index path, both computed by linear scan of parent
// collections. Locator is always computable.
type Locator struct {
	LayerPath string `json:"layerPath"`
	IndexPath []int  `json:"indexPath"`
}

// Identity is the stable, marker-derived identity of an item. ItemID is
// present iff the item carries an mcp-id marker or an @mcp:id tag.
type Identity struct {
	ItemID   string `json:"itemId,omitempty"`
	IDSource string `json:"idSource"` // "note", "tag", or "none"
}

// ItemRef describes one Item for external reporting, separating volatile
// location from stable identity from user-controlled tags.
type ItemRef struct {
	Locator  Locator           `json:"locator"`
	Identity Identity          `json:"identity"`
	Tags     map[string]string `json:"tags,omitempty"`
	ItemType string            `json:"itemType"`
	ItemName string            `json:"itemName"`
}

// mcpIDPattern matches the legacy "mcp-id:<token>" marker written into an
// item's note field.
var mcpIDPattern = regexp.MustCompile(`mcp-id:(\S+)`)

// mcpTagPattern matches the namespaced "@mcp:key=value" tag syntax,
// terminated by whitespace or the start of the next tag.
var mcpTagPattern = regexp.MustCompile(`@mcp:([^=\s@]+)=([^\s@]*)`)

// BuildLocator walks up the layer chain and the container chain to compute
// an item's Locator.
func BuildLocator(it Item) Locator {
	return Locator{
		LayerPath: layerPath(it),
		IndexPath: indexPath(it),
	}
}

func layerPath(it Item) string {
	layer := it.Layer()
	if layer == nil {
		return ""
	}
	var parts []string
	var walk func(c Container)
	walk = func(c Container) {
		if l, ok := c.(Layer); ok {
			if parent := l.Parent(); parent != nil {
				walk(parent)
			}
			parts = append(parts, l.Name())
		}
	}
	walk(layer)
	return strings.Join(parts, "/")
}

// indexPath walks up the container chain, at each step determining the
// item's position by linear scan of its parent's child collection, and
// terminating at the document root (a typed nil Container/Layer sentinel,
// per the design notes on bounding graph walks).
func indexPath(it Item) []int {
	var path []int
	cur := it
	for {
		parent := cur.Parent()
		var siblings []Item
		if parent != nil {
			siblings = parent.Children()
		} else if layer := cur.Layer(); layer != nil {
			siblings = layer.Children()
		}
		idx := indexOf(siblings, cur)
		path = append([]int{idx}, path...)
		if parent == nil {
			break
		}
		parentItem, ok := parent.(Item)
		if !ok {
			break
		}
		cur = parentItem
	}
	return path
}

func indexOf(items []Item, target Item) int {
	for i, it := range items {
		if it == target {
			return i
		}
	}
	return -1
}

// BuildIdentity reads the stable identity of an item: an @mcp:id tag takes
// precedence over the legacy mcp-id: note marker.
func BuildIdentity(it Item) Identity {
	tags := ParseTags(it)
	if id, ok := tags["id"]; ok && id != "" {
		return Identity{ItemID: id, IDSource: "tag"}
	}
	if m := mcpIDPattern.FindStringSubmatch(it.Note()); len(m) == 2 {
		return Identity{ItemID: m[1], IDSource: "note"}
	}
	return Identity{IDSource: "none"}
}

// ParseTags extracts @mcp:key=value tokens from both name and note; note
// tokens override name tokens on key collision. Parsing is order
// independent and idempotent under repeated application.
func ParseTags(it Item) map[string]string {
	tags := parseTagString(it.Name())
	for k, v := range parseTagString(it.Note()) {
		tags[k] = v
	}
	return tags
}

func parseTagString(s string) map[string]string {
	out := make(map[string]string)
	for _, m := range mcpTagPattern.FindAllStringSubmatch(s, -1) {
		out[m[1]] = m[2]
	}
	return out
}

// BuildItemRef constructs the full, disposable ItemRef for an item.
func BuildItemRef(it Item) ItemRef {
	return ItemRef{
		Locator:  BuildLocator(it),
		Identity: BuildIdentity(it),
		Tags:     ParseTags(it),
		ItemType: it.TypeName(),
		ItemName: it.Name(),
	}
}

// formatIndexPath renders an index path as a compact string, useful for
// logging and test fixtures.
func formatIndexPath(path []int) string {
	parts := make([]string, len(path))
	for i, v := range path {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ".")
}
