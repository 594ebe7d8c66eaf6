package executor

// Item is an opaque handle into the host document. Implementations are
// owned by the host application; the Executor holds only ephemeral
// references valid for the duration of one invocation.
type Item interface {
	TypeName() string
	Name() string
	Note() string
	SetNote(string)
	Bounds() Rect
	VisibleBounds(useMaskBounds bool) Rect

	Layer() Layer
	Parent() Container // nil at the document root
	Children() []Item  // nil for leaf items

	Locked() bool
	Hidden() bool
	IsGuide() bool

	// IsClippingGroup reports whether this item is a group whose first
	// child defines a clipping mask.
	IsClippingGroup() bool
	// ClippedByAncestor reports whether any ancestor group has its
	// clipped flag set (distinct from being the mask itself).
	ClippedByAncestor() bool
}

// Container is the subset of Item behavior needed to walk the index path:
// anything that owns an ordered child collection.
type Container interface {
	Children() []Item
}

// Layer is a named, ordered top-level container of items.
type Layer interface {
	Container
	Name() string
	Parent() Container // nil: layers are direct children of the document root
}

// Document is the root of the item tree and the host's current selection.
type Document interface {
	// HasActiveDocument reports whether a document is currently open and
	// bound in the host. When false the Executor short-circuits with V001.
	HasActiveDocument() bool

	Layers() []Layer
	LayerByName(name string) (Layer, bool)

	// Selection returns the host's current selection snapshot.
	Selection() []Item
}

// Rect is an axis-aligned rectangle in the host's coordinate system, where
// Y increases upward (Top > Bottom), matching Illustrator's artboard space.
type Rect struct {
	Left, Top, Right, Bottom float64
}

// Width returns Right - Left.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns Top - Bottom.
func (r Rect) Height() float64 { return r.Top - r.Bottom }

// Area returns Width * Height.
func (r Rect) Area() float64 { return r.Width() * r.Height() }
