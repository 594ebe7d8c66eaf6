package executor

import "context"

// ExecuteTaskWithRetrySafe re-invokes the pipeline while the most recent
// report is not ok, at least one reported error is on a stage listed in
// policy.RetryableStages, and the retry limit is not reached. The apply
// stage is excluded from RetryableStages unless opts.Idempotency is
// "safe" — callers asserting unsafe idempotency get apply filtered out
// regardless of what they passed, so applyFn is called at most once per
// outer invocation.
func (e *Executor) ExecuteTaskWithRetrySafe(ctx context.Context, doc Document, payload Payload, collect CollectFn, compute ComputeFn, apply ApplyFn) TaskReport {
	policy := payload.Options.Retry
	if policy == nil || policy.MaxAttempts <= 0 {
		return e.Run(ctx, doc, payload, collect, compute, apply)
	}

	retryable := allowedRetryableStages(policy.RetryableStages, payload.Options.Idempotency)

	var report TaskReport
	var retried []string
	attempts := 0
	for {
		attempts++
		report = e.run(ctx, doc, payload, collect, compute, apply)
		if report.OK || attempts >= policy.MaxAttempts {
			break
		}
		stage := firstRetryableStage(report.Errors, retryable)
		if stage == "" {
			break
		}
		retried = append(retried, stage)
	}

	if attempts > 1 {
		report.RetryInfo = &RetryInfo{Attempts: attempts, RetriedStages: retried}
	}
	e.history.Append(HistoryEntry{Task: payload.Task, OK: report.OK, Timing: report.Timing})
	return report
}

// ExecuteTaskWithRetry is the deprecated unsafe variant retained only for
// source compatibility: it retries every stage including apply, regardless
// of idempotency. New callers should use ExecuteTaskWithRetrySafe.
//
// Deprecated: may double-apply side effects; exists for compatibility.
func (e *Executor) ExecuteTaskWithRetry(ctx context.Context, doc Document, payload Payload, maxAttempts int, collect CollectFn, compute ComputeFn, apply ApplyFn) TaskReport {
	var report TaskReport
	attempts := 0
	for {
		attempts++
		report = e.run(ctx, doc, payload, collect, compute, apply)
		if report.OK || attempts >= maxAttempts {
			break
		}
	}
	e.history.Append(HistoryEntry{Task: payload.Task, OK: report.OK, Timing: report.Timing})
	return report
}

func allowedRetryableStages(requested []string, idempotency Idempotency) []string {
	out := make([]string, 0, len(requested))
	for _, stage := range requested {
		if stage == "apply" && idempotency != IdempotencySafe {
			continue
		}
		out = append(out, stage)
	}
	return out
}

func firstRetryableStage(errs []TaskError, retryable []string) string {
	for _, e := range errs {
		for _, stage := range retryable {
			if e.Stage == stage {
				return stage
			}
		}
	}
	return ""
}
