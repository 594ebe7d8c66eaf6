// Package executor implements the four-stage task pipeline that turns a
// declarative payload into a structured report over a document tree.
package executor

import "encoding/json"

// IDPolicy governs whether and how stable item identity is assigned during
// collection.
type IDPolicy string

const (
	IDPolicyNone     IDPolicy = "none"
	IDPolicyPreserve IDPolicy = "preserve"
	IDPolicyOptIn    IDPolicy = "opt_in"
	IDPolicyAlways   IDPolicy = "always"
)

// Idempotency describes whether the apply stage may be safely retried.
type Idempotency string

const (
	IdempotencySafe    Idempotency = "safe"
	IdempotencyUnknown Idempotency = "unknown"
	IdempotencyUnsafe  Idempotency = "unsafe"
)

// OrderBy names a stable ordering mode applied once after collection.
type OrderBy string

const (
	OrderZOrder        OrderBy = "zOrder"
	OrderZOrderReverse OrderBy = "zOrderReverse"
	OrderReading       OrderBy = "reading"
	OrderColumn        OrderBy = "column"
	OrderName          OrderBy = "name"
	OrderPositionX     OrderBy = "positionX"
	OrderPositionY     OrderBy = "positionY"
	OrderArea          OrderBy = "area"
)

// ExcludeFilter flags which predicates remove an item from a resolved set.
// The zero value excludes nothing.
type ExcludeFilter struct {
	Locked  bool `json:"locked,omitempty"`
	Hidden  bool `json:"hidden,omitempty"`
	Guides  bool `json:"guides,omitempty"`
	Clipped bool `json:"clipped,omitempty"`
}

// Any reports whether at least one predicate is active.
func (f ExcludeFilter) Any() bool {
	return f.Locked || f.Hidden || f.Guides || f.Clipped
}

// TargetKind discriminates the Target union.
type TargetKind string

const (
	TargetSelection TargetKind = "selection"
	TargetAll       TargetKind = "all"
	TargetLayer     TargetKind = "layer"
	TargetQuery     TargetKind = "query"
	TargetCompound  TargetKind = "compound"
)

// Target is a discriminated union describing what a task operates on.
// Exactly one set of per-variant fields is meaningful, selected by Kind.
type Target struct {
	Kind TargetKind `json:"type"`

	// all / layer / query
	Recursive bool `json:"recursive,omitempty"`

	// layer
	Layer string `json:"layer,omitempty"`

	// query
	LayerFilter string `json:"layerFilter,omitempty"`
	ItemType    string `json:"itemType,omitempty"`
	Pattern     string `json:"pattern,omitempty"`

	// compound
	AnyOf   []Target      `json:"anyOf,omitempty"`
	Exclude ExcludeFilter `json:"exclude,omitempty"`
}

// TargetSelector wraps a single Target with a global ordering mode and a
// global exclude filter applied exactly once after collection.
type TargetSelector struct {
	Target  Target        `json:"target"`
	OrderBy OrderBy       `json:"orderBy,omitempty"`
	Exclude ExcludeFilter `json:"exclude,omitempty"`
}

// RetryPolicy configures the safe retry wrapper.
type RetryPolicy struct {
	MaxAttempts     int      `json:"maxAttempts,omitempty"`
	RetryableStages []string `json:"retryableStages,omitempty"`
}

// Options carries per-call knobs, defaulted when absent.
type Options struct {
	DryRun   bool         `json:"dryRun,omitempty"`
	Trace    bool         `json:"trace,omitempty"`
	IDPolicy IDPolicy     `json:"idPolicy,omitempty"`
	Timeout  int          `json:"timeout,omitempty"` // seconds
	Retry    *RetryPolicy `json:"retry,omitempty"`

	Idempotency Idempotency `json:"idempotency,omitempty"`

	// UseMaskBoundsForClippedGroups resolves the open question in the
	// design notes: whether visible-bounds reporting for a clipping group
	// uses the mask's geometric bounds (true) or the host's native,
	// content-inclusive bounds (false). Defaults to true.
	UseMaskBoundsForClippedGroups *bool `json:"useMaskBoundsForClippedGroups,omitempty"`
}

// WithDefaults returns a copy of o with zero-value fields defaulted.
func (o Options) WithDefaults() Options {
	if o.IDPolicy == "" {
		o.IDPolicy = IDPolicyNone
	}
	if o.Timeout <= 0 {
		o.Timeout = 30
	}
	if o.Idempotency == "" {
		o.Idempotency = IdempotencyUnknown
	}
	if o.UseMaskBoundsForClippedGroups == nil {
		t := true
		o.UseMaskBoundsForClippedGroups = &t
	}
	return o
}

// MaskBoundsForClippedGroups reports the resolved policy value.
func (o Options) MaskBoundsForClippedGroups() bool {
	if o.UseMaskBoundsForClippedGroups == nil {
		return true
	}
	return *o.UseMaskBoundsForClippedGroups
}

// Payload is the declarative, untyped-at-the-edge request the Executor
// consumes once per invocation.
type Payload struct {
	Task    string          `json:"task"`
	Version string          `json:"version,omitempty"`
	Targets *TargetSelector `json:"targets,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Options Options         `json:"options,omitempty"`
}

// legacySelector is the bare-Target shape accepted for backward
// compatibility; the executor normalizes it into a TargetSelector on entry
// and never re-emits it (design notes: "legacy selector dict vs
// TargetSelector wrapper").
type legacySelector struct {
	Type    TargetKind `json:"type"`
	Layer   string     `json:"layer,omitempty"`
	AnyOf   []Target   `json:"anyOf,omitempty"`
	Pattern string     `json:"pattern,omitempty"`
}

// NormalizeTargets returns p.Targets, synthesizing a TargetSelector from a
// bare legacy target shape found in Params under the "target" key when
// p.Targets itself is absent. Returns nil when neither form is present.
func (p *Payload) NormalizeTargets() *TargetSelector {
	if p.Targets != nil {
		return p.Targets
	}
	if len(p.Params) == 0 {
		return nil
	}
	var probe struct {
		Target *legacySelector `json:"target"`
	}
	if err := json.Unmarshal(p.Params, &probe); err != nil || probe.Target == nil {
		return nil
	}
	sel := &TargetSelector{Target: Target{
		Kind:  probe.Target.Type,
		Layer: probe.Target.Layer,
		AnyOf: probe.Target.AnyOf,
	}}
	return sel
}
