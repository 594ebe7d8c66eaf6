// Package broker turns "send script, await result" into a single
// awaitable operation, correlating requests submitted from the tool loop
// with responses delivered by the transport loop via a correlation-id
// keyed pending-request registry.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Envelope is the tool-call envelope exchanged with the panel: {id, script,
// command?} outbound, {id, result, command?, duration?} inbound.
type Envelope struct {
	ID       int64           `json:"id"`
	Script   string          `json:"script,omitempty"`
	Command  json.RawMessage `json:"command,omitempty"`
	Result   json.RawMessage `json:"result,omitempty"`
	Duration int64           `json:"duration,omitempty"`
}

// Sender hands a serialized envelope to the transport. Implementations
// return an error immediately (never enqueue) when no peer is connected.
type Sender interface {
	Send(ctx context.Context, env Envelope) error
}

// PendingRequest is one in-flight correlation id awaiting its response.
type PendingRequest struct {
	CorrelationID int64
	TraceID       string
	Deadline      time.Time
	done          chan result
}

type result struct {
	env Envelope
	err error
}

// Broker owns the pending-request registry. The registry is the only
// contested structure; all access is under a single mutex.
type Broker struct {
	mu      sync.Mutex
	pending map[int64]*PendingRequest
	nextID  atomic.Int64
	sender  Sender
	closed  bool
}

// New constructs a Broker that hands outgoing envelopes to sender.
func New(sender Sender) *Broker {
	return &Broker{pending: make(map[int64]*PendingRequest), sender: sender}
}

// Send allocates a correlation id, hands the script to the transport, and
// awaits the matching response, a deadline, context cancellation, or
// broker shutdown — exactly one of resolve/timeout/disconnect occurs, and
// the id is removed from the registry before that observation is released
// to the caller.
func (b *Broker) Send(ctx context.Context, script string, command json.RawMessage, timeout time.Duration) (Envelope, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	id := b.nextID.Add(1)
	traceID := uuid.NewString()
	pr := &PendingRequest{
		CorrelationID: id,
		TraceID:       traceID,
		Deadline:      time.Now().Add(timeout),
		done:          make(chan result, 1),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return Envelope{}, &Error{Code: Disconnected, Message: "broker is shut down"}
	}
	b.pending[id] = pr
	b.mu.Unlock()

	env := Envelope{ID: id, Script: script, Command: command}
	if err := b.sender.Send(ctx, env); err != nil {
		b.remove(id)
		return Envelope{}, &Error{Code: Disconnected, TraceID: traceID, Message: err.Error()}
	}

	select {
	case r := <-pr.done:
		b.remove(id)
		return r.env, r.err
	case <-ctx.Done():
		b.remove(id)
		return Envelope{}, &Error{Code: Disconnected, TraceID: traceID, Message: ctx.Err().Error()}
	case <-time.After(timeout):
		b.remove(id)
		return Envelope{}, &Error{Code: Timeout, TraceID: traceID, Message: fmt.Sprintf("no response within %s", timeout)}
	}
}

// Resolve delivers a response envelope to its matching pending request. A
// response whose id has no matching entry is a PROTOCOL_ERROR: the caller
// should log and drop it rather than treat it as fatal.
func (b *Broker) Resolve(env Envelope) error {
	b.mu.Lock()
	pr, ok := b.pending[env.ID]
	b.mu.Unlock()
	if !ok {
		return &Error{Code: ProtocolError, Message: fmt.Sprintf("no pending request for correlation id %d", env.ID)}
	}

	select {
	case pr.done <- result{env: env}:
	default:
		// Already resolved, timed out, or disconnected: drop silently,
		// matching "at most one completion occurs per id".
	}
	return nil
}

// Disconnect rejects every outstanding request with a disconnect error,
// used both on transport close and on graceful shutdown.
func (b *Broker) Disconnect() {
	b.mu.Lock()
	pending := make([]*PendingRequest, 0, len(b.pending))
	for _, pr := range b.pending {
		pending = append(pending, pr)
	}
	b.mu.Unlock()

	for _, pr := range pending {
		select {
		case pr.done <- result{err: &Error{Code: Disconnected, TraceID: pr.TraceID, Message: "transport disconnected"}}:
		default:
		}
	}
}

// Shutdown marks the broker closed (refusing new Sends) and disconnects
// every outstanding request.
func (b *Broker) Shutdown() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.Disconnect()
}

// Pending returns the number of in-flight correlation ids, for metrics.
func (b *Broker) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

func (b *Broker) remove(id int64) {
	b.mu.Lock()
	delete(b.pending, id)
	b.mu.Unlock()
}
