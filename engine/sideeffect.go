package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// RecordedCall captures one non-deterministic external interaction (an
// advisor planning hint, a side-call price lookup, ...) made by a
// producer during a tick, so replay can return the recorded response
// without re-invoking the external source. Grounded on the teacher's
// RecordedIO (graph/replay.go), generalized from (NodeID, Attempt) keying
// to (SystemID, Tick, Seq) keying, since producers aren't retried the way
// a graph node is — they're driven once per tick and may make several
// calls within that tick.
type RecordedCall struct {
	SystemID uint32
	Tick     Tick
	Seq      uint32
	Request  json.RawMessage
	Response json.RawMessage
	Hash     string
}

// RecordCall serializes request/response and computes a hash of the
// response for replay mismatch detection, matching the teacher's
// recordIO (graph/replay.go).
func RecordCall(systemID uint32, tick Tick, seq uint32, request, response any) (RecordedCall, error) {
	reqJSON, err := json.Marshal(request)
	if err != nil {
		return RecordedCall{}, fmt.Errorf("engine: marshal recorded-call request: %w", err)
	}
	respJSON, err := json.Marshal(response)
	if err != nil {
		return RecordedCall{}, fmt.Errorf("engine: marshal recorded-call response: %w", err)
	}
	sum := sha256.Sum256(respJSON)
	return RecordedCall{
		SystemID: systemID,
		Tick:     tick,
		Seq:      seq,
		Request:  json.RawMessage(reqJSON),
		Response: json.RawMessage(respJSON),
		Hash:     "sha256:" + hex.EncodeToString(sum[:]),
	}, nil
}

// SideEffectLog accumulates RecordedCalls for a single tick, in emission
// order, and supports lookup by (SystemID, Seq) during replay — the
// per-tick counterpart of the teacher's Checkpoint.RecordedIOs.
type SideEffectLog struct {
	calls []RecordedCall
}

// Append records c.
func (l *SideEffectLog) Append(c RecordedCall) { l.calls = append(l.calls, c) }

// Calls returns every recorded call, in emission order. Do not mutate.
func (l *SideEffectLog) Calls() []RecordedCall { return l.calls }

// Reset clears the log, preserving backing capacity, for reuse across ticks.
func (l *SideEffectLog) Reset() { l.calls = l.calls[:0] }

// Lookup finds a previously recorded call by (systemID, seq), for replay.
func (l *SideEffectLog) Lookup(systemID uint32, seq uint32) (RecordedCall, bool) {
	for _, c := range l.calls {
		if c.SystemID == systemID && c.Seq == seq {
			return c, true
		}
	}
	return RecordedCall{}, false
}
