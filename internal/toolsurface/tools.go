package toolsurface

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/illustrator-mcp-bridge/bridge/internal/broker"
	"github.com/illustrator-mcp-bridge/bridge/internal/observability"
	"github.com/illustrator-mcp-bridge/bridge/internal/resolver"
	"github.com/illustrator-mcp-bridge/bridge/internal/retry"
)

// Bridge is the dependency seam each tool handler closes over: assemble a
// script via the resolver, hand it to the broker, and return the raw
// result. Each tool maps to exactly one broker.Send call (SPEC_FULL.md
// "Tool surface"). Metrics, Tracer, and Logger are optional; a nil value
// disables the corresponding instrumentation. RetryPolicy, if set,
// re-sends on a TIMEOUT response (the panel may simply be slow under
// load); every other broker failure code is treated as permanent since
// retrying it cannot help (no peer connected, or the panel already
// rejected the request).
type Bridge struct {
	Resolver    *resolver.Resolver
	Broker      *broker.Broker
	Timeout     time.Duration
	Metrics     *observability.Metrics
	Tracer      *observability.Tracer
	Logger      *observability.Logger
	RetryPolicy *retry.Config
}

func (b *Bridge) call(ctx context.Context, toolName string, libs []string, body string) ToolCallResult {
	ctx = observability.AddTool(ctx, toolName)
	if b.Tracer != nil {
		var span trace.Span
		ctx, span = b.Tracer.TraceToolCall(ctx, toolName, observability.GetCorrelationID(ctx))
		defer span.End()
	}

	start := time.Now()
	var result ToolCallResult

	err := b.logCall(ctx, toolName, func() error {
		script, err := b.Resolver.Resolve(libs, body)
		if err != nil {
			result = ErrorResult(fmt.Sprintf("resolve script: %v", err))
			return err
		}

		env, err := b.send(ctx, script)
		if err != nil {
			b.recordBrokerFailure(err)
			result = ErrorResult(fmt.Sprintf("send task: %v", err))
			return err
		}

		if len(env.Result) == 0 {
			result = TextResult("{}")
		} else {
			result = TextResult(string(env.Result))
		}
		return nil
	})

	status := "success"
	if err != nil {
		status = "error"
	}
	b.record(toolName, status, start)
	return result
}

// logCall runs fn under Logger.LogToolCall when a Logger is configured, so
// every call's correlation id, task id, stage, and tool name are extracted
// from ctx automatically; with no Logger it just runs fn directly.
func (b *Bridge) logCall(ctx context.Context, toolName string, fn func() error) error {
	if b.Logger == nil {
		return fn()
	}
	return b.Logger.LogToolCall(ctx, toolName, fn)
}

func (b *Bridge) send(ctx context.Context, script string) (broker.Envelope, error) {
	if b.Tracer != nil {
		var span trace.Span
		ctx, span = b.Tracer.TraceBrokerSend(ctx, observability.GetCorrelationID(ctx))
		defer span.End()
	}

	if b.RetryPolicy == nil {
		return b.Broker.Send(ctx, script, nil, b.Timeout)
	}

	env, result := retry.DoWithValue(ctx, *b.RetryPolicy, func() (broker.Envelope, error) {
		env, err := b.Broker.Send(ctx, script, nil, b.Timeout)
		if err != nil {
			var brokerErr *broker.Error
			if !errors.As(err, &brokerErr) || brokerErr.Code != broker.Timeout {
				return env, retry.Permanent(err)
			}
		}
		return env, err
	})
	return env, result.Err
}

func (b *Bridge) recordBrokerFailure(err error) {
	if b.Metrics == nil {
		return
	}
	var brokerErr *broker.Error
	reason := "unknown"
	if errors.As(err, &brokerErr) {
		reason = string(brokerErr.Code)
	}
	b.Metrics.RecordBrokerFailure(reason)
}

func (b *Bridge) record(toolName, status string, start time.Time) {
	if b.Metrics != nil {
		b.Metrics.RecordToolCall(toolName, status, time.Since(start).Seconds())
	}
}

// RegisterAll adds every representative tool to srv.
func (b *Bridge) RegisterAll(srv *Server) {
	srv.AddTool(b.pingTool())
	srv.AddTool(b.collectTool())
	srv.AddTool(b.arrangeGridTool())
	srv.AddTool(b.exportArtboardTool())
}

// document.ping verifies a live panel connection without touching the
// document, mirroring spec.md §8's "ping with no document" scenario.
func (b *Bridge) pingTool() ToolHandler {
	return ToolHandler{
		Definition: ToolDefinition{
			Name:        "document.ping",
			Description: "Check that the Illustrator panel is connected and responsive.",
			InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
		},
		Execute: func(ctx context.Context, _ json.RawMessage) ToolCallResult {
			return b.call(ctx, "document.ping", nil, "JSON.stringify({pong: true})")
		},
	}
}

// document.collect reports the visible bounds of the current selection,
// honoring the open-question mask-bounds policy for clipping groups.
func (b *Bridge) collectTool() ToolHandler {
	return ToolHandler{
		Definition: ToolDefinition{
			Name:        "document.collect",
			Description: "Report the visible bounds of every item currently selected in Illustrator.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"useMaskBoundsForClippedGroups": map[string]any{
						"type":        "boolean",
						"description": "Use the clipping mask's geometric bounds instead of content-inclusive bounds.",
						"default":     true,
					},
				},
			},
		},
		Execute: func(ctx context.Context, args json.RawMessage) ToolCallResult {
			var params struct {
				UseMaskBounds *bool `json:"useMaskBoundsForClippedGroups"`
			}
			if len(args) > 0 {
				if err := json.Unmarshal(args, &params); err != nil {
					return ErrorResult("invalid args: " + err.Error())
				}
			}
			useMask := true
			if params.UseMaskBounds != nil {
				useMask = *params.UseMaskBounds
			}
			body := fmt.Sprintf(`(function(){
  var out = [];
  var sel = activeDocument.selection;
  for (var i = 0; i < sel.length; i++) {
    out.push(mcp_getVisibleBounds(sel[i], %v));
  }
  return JSON.stringify(out);
})()`, useMask)
			return b.call(ctx, "document.collect", []string{"geometry"}, body)
		},
	}
}

// shape.arrangeGrid places the current selection into a row-then-column
// grid starting at (startX, startY).
func (b *Bridge) arrangeGridTool() ToolHandler {
	return ToolHandler{
		Definition: ToolDefinition{
			Name:        "shape.arrangeGrid",
			Description: "Arrange the current selection into a grid, left to right then top to bottom.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"startX":  map[string]any{"type": "number"},
					"startY":  map[string]any{"type": "number"},
					"gapX":    map[string]any{"type": "number", "default": 0},
					"gapY":    map[string]any{"type": "number", "default": 0},
					"columns": map[string]any{"type": "integer", "default": 1},
				},
				"required": []string{"startX", "startY", "columns"},
			},
		},
		Execute: func(ctx context.Context, args json.RawMessage) ToolCallResult {
			var params struct {
				StartX, StartY, GapX, GapY float64
				Columns                    int
			}
			if err := json.Unmarshal(args, &params); err != nil {
				return ErrorResult("invalid args: " + err.Error())
			}
			if params.Columns <= 0 {
				params.Columns = 1
			}
			body := fmt.Sprintf(
				"mcp_placeGrid(activeDocument.selection, %v, %v, %v, %v, %d); JSON.stringify({ok:true})",
				params.StartX, params.StartY, params.GapX, params.GapY, params.Columns,
			)
			return b.call(ctx, "shape.arrangeGrid", []string{"layout"}, body)
		},
	}
}

// export.artboard makes the artboard at artboardIndex (default 0) active
// and exports it to a PNG file at the given path. No script library dependency: it uses Illustrator's
// native export API directly.
func (b *Bridge) exportArtboardTool() ToolHandler {
	return ToolHandler{
		Definition: ToolDefinition{
			Name:        "export.artboard",
			Description: "Export an artboard to a PNG file.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"artboardIndex": map[string]any{"type": "integer", "default": 0},
					"path":          map[string]any{"type": "string"},
					"scale":         map[string]any{"type": "number", "default": 100},
				},
				"required": []string{"path"},
			},
		},
		Execute: func(ctx context.Context, args json.RawMessage) ToolCallResult {
			var params struct {
				ArtboardIndex int
				Path          string
				Scale         float64
			}
			if err := json.Unmarshal(args, &params); err != nil {
				return ErrorResult("invalid args: " + err.Error())
			}
			if params.Scale <= 0 {
				params.Scale = 100
			}
			body := fmt.Sprintf(`(function(){
  activeDocument.artboards.setActiveArtboardIndex(%d);
  var opts = new ExportOptionsPNG24();
  opts.horizontalScale = %v;
  opts.verticalScale = %v;
  opts.artBoardClipping = true;
  activeDocument.exportFile(new File(%q), ExportType.PNG24, opts);
  return JSON.stringify({ok:true, path: %q});
})()`, params.ArtboardIndex, params.Scale, params.Scale, params.Path, params.Path)
			return b.call(ctx, "export.artboard", nil, body)
		},
	}
}
