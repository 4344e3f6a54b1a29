// Package advise provides an optional, non-deterministic planning-hint
// capability for producers (currently systems/agent). Grounded on the
// teacher's model.ChatModel interface (graph/model/chat.go): a single
// Chat(ctx, messages, tools) method, generalized to a one-shot "advise"
// call with no tool-calling, since a planning hint never needs to drive
// a tool loop.
package advise

import "context"

// Request is the coarse planning question handed to an Advisor once per
// tick (not once per entity).
type Request struct {
	// Tick is the simulation tick the advice is being requested for.
	Tick uint64
	// Prompt is the free-text planning question.
	Prompt string
}

// Response is an Advisor's answer.
type Response struct {
	Text string
}

// Advisor is a pluggable tick-granularity planning hint source. A
// producer that consults one must record the call and its response on
// the tick's side-effect log and never re-invoke the advisor during
// replay — it replays the recorded text instead (grounded on the
// teacher's SideEffectPolicy.Recordable + RecordedIO discipline in
// graph/replay.go).
type Advisor interface {
	Advise(ctx context.Context, req Request) (Response, error)
}

// NullAdvisor is the default Advisor: it never calls out, keeping
// planning purely deterministic out of the box.
type NullAdvisor struct{}

// Advise returns an empty Response without performing any I/O.
func (NullAdvisor) Advise(_ context.Context, _ Request) (Response, error) {
	return Response{}, nil
}
