package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/illustrator-mcp-bridge/bridge/internal/observability"
)

// Action is an opaque instruction produced by Compute and consumed by
// Apply. The Executor never inspects its shape.
type Action any

// CollectFn enumerates candidate items for a single, already-unwrapped
// Target. Read-only; may recurse into groups when the Target requests it.
// A nil CollectFn defaults to ResolveTarget.
type CollectFn func(doc Document, target Target) ([]Item, error)

// ComputeFn is pure with respect to the document; it may append warnings to
// report but must not mutate items.
type ComputeFn func(items []Item, params json.RawMessage, report *TaskReport) ([]Action, error)

// ApplyFn is the only stage permitted to mutate the document. It must
// return an error on failure so the Executor can record R003.
type ApplyFn func(actions []Action, report *TaskReport) error

// Executor runs the four-stage pipeline. It owns no persistent state except
// an in-session task history ring buffer.
type Executor struct {
	logger  *observability.Logger
	tracer  *observability.Tracer
	history *History
}

// New constructs an Executor with a task-history ring buffer of the given
// capacity (spec default: 50). tracer is optional; a nil tracer disables
// per-stage span creation.
func New(logger *observability.Logger, tracer *observability.Tracer, historyCapacity int) *Executor {
	if logger == nil {
		logger = observability.NewLogger(observability.LogConfig{})
	}
	return &Executor{logger: logger, tracer: tracer, history: NewHistory(historyCapacity)}
}

// History returns the executor's task history ring buffer.
func (e *Executor) History() *History { return e.history }

// Run executes one payload to completion and records it into history. Every
// log line emitted during the run carries the generated task id and the
// current stage name, extracted automatically via the context.
func (e *Executor) Run(ctx context.Context, doc Document, payload Payload, collect CollectFn, compute ComputeFn, apply ApplyFn) TaskReport {
	ctx = observability.AddTaskID(ctx, uuid.NewString())
	e.logger.Info(ctx, "task run started", "task", payload.Task)

	report := e.run(ctx, doc, payload, collect, compute, apply)

	e.logger.Info(ctx, "task run finished", "task", payload.Task, "ok", report.OK, "total_ms", report.Timing.TotalMS)
	e.history.Append(HistoryEntry{Task: payload.Task, OK: report.OK, Timing: report.Timing})
	return report
}

func (e *Executor) run(ctx context.Context, doc Document, payload Payload, collect CollectFn, compute ComputeFn, apply ApplyFn) TaskReport {
	report := TaskReport{OK: true}
	opts := payload.Options.WithDefaults()
	start := time.Now()

	// Stage 1: validate. On failure, return immediately with zeroed
	// timings for every stage — no timing work is recorded.
	e.stageLog(ctx, &report, opts, "validate", "validating payload")
	if err := validatePayload(payload); err != nil {
		report.addError(*err)
		return report
	}

	// Stage 2: bind document.
	if !doc.HasActiveDocument() {
		report.addError(newTaskError(ErrInvalidTask, "collect", "no active document"))
		return report
	}

	selector := payload.NormalizeTargets()
	if selector == nil {
		selector = &TargetSelector{Target: Target{Kind: TargetSelection}}
	}

	// Stage 3: collect.
	collectCtx, endCollectSpan := e.stageSpan(ctx, "collect")
	e.stageLog(collectCtx, &report, opts, "collect", "resolving target", "kind", selector.Target.Kind)
	collectStart := time.Now()
	items, err := collectTarget(doc, *selector, collect, opts, &report)
	report.Timing.CollectMS = time.Since(collectStart).Milliseconds()
	endCollectSpan()
	if err != nil {
		e.logger.Warn(observability.AddStage(ctx, "collect"), "collect failed", "error", err)
		report.addError(newTaskError(ErrCollectFailed, "collect", err.Error()))
		report.Timing.TotalMS = time.Since(start).Milliseconds()
		return report
	}
	report.Stats.ItemsProcessed = len(items)
	e.stageLog(ctx, &report, opts, "collect", "collected items", "count", len(items))
	if len(items) == 0 {
		report.addWarning("target resolution produced no items; skipping compute/apply")
		report.Timing.TotalMS = time.Since(start).Milliseconds()
		return report
	}

	// Stage 4: compute.
	computeCtx, endComputeSpan := e.stageSpan(ctx, "compute")
	e.stageLog(computeCtx, &report, opts, "compute", "computing actions")
	computeStart := time.Now()
	actions, err := safeCompute(compute, items, payload.Params, &report)
	report.Timing.ComputeMS = time.Since(computeStart).Milliseconds()
	endComputeSpan()
	if err != nil {
		e.logger.Warn(observability.AddStage(ctx, "compute"), "compute failed", "error", err)
		report.addError(newTaskError(ErrComputeFailed, "compute", err.Error()))
		report.Timing.TotalMS = time.Since(start).Milliseconds()
		return report
	}

	// Stage 5: apply.
	if opts.DryRun {
		report.addWarning("dryRun: apply skipped")
		report.Timing.TotalMS = time.Since(start).Milliseconds()
		return report
	}

	applyCtx, endApplySpan := e.stageSpan(ctx, "apply")
	e.stageLog(applyCtx, &report, opts, "apply", "applying actions", "count", len(actions))
	applyStart := time.Now()
	err = safeApply(apply, actions, &report)
	report.Timing.ApplyMS = time.Since(applyStart).Milliseconds()
	endApplySpan()
	if err != nil {
		e.logger.Warn(observability.AddStage(ctx, "apply"), "apply failed", "error", err)
		report.addError(newTaskError(ErrApplyFailed, "apply", err.Error()))
	}
	report.Timing.TotalMS = time.Since(start).Milliseconds()
	return report
}

// stageLog emits a debug log line tagged with the current stage and, when
// the caller requested tracing (Options.Trace), appends the same message to
// the report's Trace so it travels back to the caller without a live log
// sink.
func (e *Executor) stageLog(ctx context.Context, report *TaskReport, opts Options, stage, msg string, args ...any) {
	stageCtx := observability.AddStage(ctx, stage)
	e.logger.Debug(stageCtx, msg, args...)
	if opts.Trace {
		report.trace(fmt.Sprintf("%s: %s", stage, msg))
	}
}

// stageSpan opens a span covering one pipeline stage when a tracer is
// configured. The returned end func is always safe to call.
func (e *Executor) stageSpan(ctx context.Context, stage string) (context.Context, func()) {
	if e.tracer == nil {
		return ctx, func() {}
	}
	spanCtx, span := e.tracer.TraceExecutorStage(ctx, stage)
	return spanCtx, func() { span.End() }
}

func validatePayload(p Payload) *TaskError {
	if p.Task == "" {
		e := newTaskError(ErrInvalidTarget, "validate", "task name must be a non-empty string")
		return &e
	}
	if p.Version != "" && majorVersion(p.Version) != "2" {
		e := newTaskError(ErrInvalidVersion, "validate", fmt.Sprintf("unsupported protocol version %q", p.Version))
		return &e
	}
	if p.Targets != nil {
		if err := validateTargetShape(p.Targets.Target); err != nil {
			e := newTaskError(ErrInvalidTarget, "validate", err.Error())
			return &e
		}
	}
	return nil
}

func majorVersion(v string) string {
	for i, r := range v {
		if r == '.' {
			return v[:i]
		}
	}
	return v
}

func validateTargetShape(t Target) error {
	switch t.Kind {
	case TargetSelection, TargetAll:
		return nil
	case TargetLayer:
		if t.Layer == "" {
			return fmt.Errorf("layer target requires non-empty layer")
		}
		return nil
	case TargetQuery:
		return nil
	case TargetCompound:
		if len(t.AnyOf) == 0 {
			return fmt.Errorf("compound target requires non-empty anyOf")
		}
		for _, sub := range t.AnyOf {
			if err := validateTargetShape(sub); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unrecognized target type %q", t.Kind)
	}
}

func collectTarget(doc Document, selector TargetSelector, collect CollectFn, opts Options, report *TaskReport) ([]Item, error) {
	if collect == nil {
		collect = ResolveTarget
	}
	items, err := collect(doc, selector.Target)
	if err != nil {
		return nil, err
	}

	items = ApplyExclude(items, selector.Exclude)
	items = ApplyOrder(items, selector.OrderBy, opts.MaskBoundsForClippedGroups())

	if opts.IDPolicy != IDPolicyNone {
		for _, it := range items {
			assignment := ApplyIDPolicy(it, opts.IDPolicy)
			if assignment.Assigned {
				report.Stats.ItemsModified++
			}
			if assignment.Conflict {
				report.Stats.IDConflicts++
				ref := BuildItemRef(it)
				report.addWarning(fmt.Sprintf("id policy conflict on %s %q: assigned new id %s", ref.ItemType, ref.ItemName, assignment.ItemID))
			}
		}
	}
	return items, nil
}

// safeCompute recovers from a panic in compute the same way the source
// turns an exception into an R002.
func safeCompute(compute ComputeFn, items []Item, params json.RawMessage, report *TaskReport) (actions []Action, err error) {
	if compute == nil {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in compute: %v", r)
		}
	}()
	return compute(items, params, report)
}

// safeApply recovers from a panic in apply and records it as R003, the same
// shape as a returned error.
func safeApply(apply ApplyFn, actions []Action, report *TaskReport) (err error) {
	if apply == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in apply: %v", r)
		}
	}()
	return apply(actions, report)
}

// SafeExecute runs fn for a single item; a failure is recorded as an R004
// against that item's ItemRef, itemsSkipped is incremented, and the stage
// continues rather than aborting.
func SafeExecute(it Item, report *TaskReport, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			recordItemFailure(it, report, fmt.Sprintf("panic: %v", r))
		}
	}()
	if err := fn(); err != nil {
		recordItemFailure(it, report, err.Error())
	}
}

func recordItemFailure(it Item, report *TaskReport, message string) {
	ref := BuildItemRef(it)
	e := newTaskError(ErrItemFailed, "apply", message)
	e.Item = &ref
	report.addError(e)
	report.Stats.ItemsSkipped++
}
