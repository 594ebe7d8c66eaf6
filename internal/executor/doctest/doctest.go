// Package doctest provides an in-memory Document/Item implementation
// standing in for the Illustrator host during tests, the way the teacher's
// no-op and callback executor fixtures stand in for a live agent runtime.
package doctest

import "github.com/illustrator-mcp-bridge/bridge/internal/executor"

// Item is a mutable, in-memory implementation of executor.Item.
type Item struct {
	TypeNameV string
	NameV     string
	NoteV     string
	BoundsV   executor.Rect
	StrokeW   float64 // half added per side when computing visible bounds

	LayerV    *Layer
	ParentV   executor.Container
	ChildrenV []*Item

	LockedV  bool
	HiddenV  bool
	GuideV   bool
	Clipping bool // this item is itself a clipping group
}

var _ executor.Item = (*Item)(nil)

func (i *Item) TypeName() string { return i.TypeNameV }
func (i *Item) Name() string     { return i.NameV }
func (i *Item) Note() string     { return i.NoteV }
func (i *Item) SetNote(n string) { i.NoteV = n }
func (i *Item) Bounds() executor.Rect { return i.BoundsV }

func (i *Item) VisibleBounds(useMaskBounds bool) executor.Rect {
	if i.Clipping && useMaskBounds && len(i.ChildrenV) > 0 {
		return i.ChildrenV[0].BoundsV
	}
	b := i.BoundsV
	half := i.StrokeW / 2
	return executor.Rect{
		Left:   b.Left - half,
		Top:    b.Top + half,
		Right:  b.Right + half,
		Bottom: b.Bottom - half,
	}
}

func (i *Item) Layer() executor.Layer {
	if i.LayerV == nil {
		return nil
	}
	return i.LayerV
}

func (i *Item) Parent() executor.Container {
	return i.ParentV
}

func (i *Item) Children() []executor.Item {
	if i.ChildrenV == nil {
		return nil
	}
	out := make([]executor.Item, len(i.ChildrenV))
	for idx, c := range i.ChildrenV {
		out[idx] = c
	}
	return out
}

func (i *Item) Locked() bool { return i.LockedV }
func (i *Item) Hidden() bool { return i.HiddenV }
func (i *Item) IsGuide() bool { return i.GuideV }
func (i *Item) IsClippingGroup() bool { return i.Clipping }

func (i *Item) ClippedByAncestor() bool {
	parent := i.ParentV
	for parent != nil {
		if parentItem, ok := parent.(*Item); ok {
			if parentItem.Clipping {
				return true
			}
			parent = parentItem.ParentV
			continue
		}
		break
	}
	return false
}

// Layer is an in-memory executor.Layer.
type Layer struct {
	NameV     string
	ParentV   executor.Container
	ChildrenV []*Item
}

var _ executor.Layer = (*Layer)(nil)

func (l *Layer) Name() string              { return l.NameV }
func (l *Layer) Parent() executor.Container { return l.ParentV }

func (l *Layer) Children() []executor.Item {
	out := make([]executor.Item, len(l.ChildrenV))
	for idx, c := range l.ChildrenV {
		c.LayerV = l
		c.ParentV = nil
		out[idx] = c
	}
	return out
}

// Add appends an item to the layer, wiring its back-reference.
func (l *Layer) Add(it *Item) {
	it.LayerV = l
	it.ParentV = nil
	l.ChildrenV = append(l.ChildrenV, it)
}

// Document is an in-memory executor.Document. Active holds its
// active-document flag.
type Document struct {
	Active     bool
	LayersV    []*Layer
	SelectionV []*Item
}

var _ executor.Document = (*Document)(nil)

func New() *Document {
	return &Document{Active: true}
}

func (d *Document) HasActiveDocument() bool { return d.Active }

func (d *Document) Layers() []executor.Layer {
	out := make([]executor.Layer, len(d.LayersV))
	for i, l := range d.LayersV {
		out[i] = l
	}
	return out
}

func (d *Document) LayerByName(name string) (executor.Layer, bool) {
	for _, l := range d.LayersV {
		if l.NameV == name {
			return l, true
		}
	}
	return nil, false
}

func (d *Document) Selection() []executor.Item {
	out := make([]executor.Item, len(d.SelectionV))
	for i, it := range d.SelectionV {
		out[i] = it
	}
	return out
}

// AddLayer creates and appends a named layer.
func (d *Document) AddLayer(name string) *Layer {
	l := &Layer{NameV: name}
	d.LayersV = append(d.LayersV, l)
	return l
}
