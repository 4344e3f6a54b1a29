// Package market implements an order-book-slice engine.Producer.
// Grounded the same way as systems/economy (range-chunked cursor walk),
// with an optional systems/sidecall.Caller consultation for an external
// reference price feed, wrapped in the same record/replay discipline as
// systems/agent's advisor call.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dominoengine/simcore/engine"
	"github.com/dominoengine/simcore/systems/sidecall"
)

// Op identifies the kind of order-book operation a task requests.
type Op string

const (
	// OpMatch runs the matching pass over a book slice.
	OpMatch Op = "match"
)

// allowedOpsMask bit indices, in Op declaration order.
const opBitMatch uint = 0

// PolicyParams is the JSON-encoded PolicyParams payload every market
// task carries.
type PolicyParams struct {
	Op        Op     `json:"op"`
	BookStart uint64 `json:"book_start"`
	BookCount uint64 `json:"book_count"`
}

type referencePrice struct {
	Price float64 `json:"price"`
}

// Producer drives a fixed, sorted set of order-book slices, emitting one
// PH_SIMULATION task per slice walked within [cursor, cursor+budget).
type Producer struct {
	systemID uint32
	slices   []engine.Range // Resource fixed to "order_book", sorted ascending by Start
	nextDue  engine.Tick
	cursor   int
	caller   sidecall.Caller
	priceURL string
	sideLog  *engine.SideEffectLog
	lastTick engine.Tick
	seq      uint32
}

// New returns a Producer with the given systemID, covering the order
// book span [0, bookCount) split into chunkSize-sized slices. caller may
// be nil (sidecall.NullCaller is used and priceURL is ignored).
func New(systemID uint32, bookCount uint64, chunkSize uint64, caller sidecall.Caller, priceURL string, sideLog *engine.SideEffectLog) *Producer {
	if chunkSize == 0 {
		chunkSize = bookCount
	}
	if caller == nil {
		caller = sidecall.NullCaller{}
		priceURL = ""
	}
	var slices []engine.Range
	for start := uint64(0); start < bookCount; start += chunkSize {
		end := start + chunkSize
		if end > bookCount {
			end = bookCount
		}
		slices = append(slices, engine.Range{Resource: "order_book", Start: start, End: end})
	}
	sort.Slice(slices, func(i, j int) bool { return slices[i].Start < slices[j].Start })
	return &Producer{systemID: systemID, slices: slices, caller: caller, priceURL: priceURL, sideLog: sideLog, lastTick: ^engine.Tick(0)}
}

// SystemID implements engine.Producer.
func (p *Producer) SystemID() uint32 { return p.systemID }

// IsSimAffecting implements engine.Producer.
func (p *Producer) IsSimAffecting() bool { return true }

// LawTargets implements engine.Producer.
func (p *Producer) LawTargets() []uint64 { return nil }

// GetNextDueTick implements engine.Producer.
func (p *Producer) GetNextDueTick() engine.Tick { return p.nextDue }

// Degrade implements engine.Producer: a degraded market producer stops
// consulting the reference price feed for the rest of the run.
func (p *Producer) Degrade(_ uint8, _ string) { p.priceURL = "" }

// EmitTasks walks [cursor, cursor+budgetHint) of the order-book slices,
// consulting the reference price feed once per tick if configured.
func (p *Producer) EmitTasks(nowTick, targetTick engine.Tick, budgetHint uint32, allowedOpsMask uint64, builder *engine.TaskGraphBuilder, access *engine.AccessSetBuilder) error {
	if allowedOpsMask&engine.OpBit(opBitMatch) == 0 {
		p.nextDue = targetTick + 1
		return nil
	}

	if p.priceURL != "" && p.lastTick != nowTick {
		if err := p.consultReferencePrice(nowTick); err != nil {
			return err
		}
		p.lastTick = nowTick
	}

	remaining := len(p.slices) - p.cursor
	if remaining <= 0 {
		p.cursor = 0
		p.nextDue = targetTick + 1
		return nil
	}

	n := remaining
	if budgetHint > 0 && uint64(budgetHint) < uint64(n) {
		n = int(budgetHint)
	}

	for i := 0; i < n; i++ {
		idx := p.cursor + i
		r := p.slices[idx]
		params, err := json.Marshal(PolicyParams{Op: OpMatch, BookStart: r.Start, BookCount: r.End - r.Start})
		if err != nil {
			return err
		}

		setID := access.New()
		access.AddWrite(setID, r)

		builder.AddTask(engine.TaskNode{
			TaskID:       engine.TaskID(uint64(p.systemID)<<32 | uint64(idx)+1),
			SystemID:     p.systemID,
			Category:     "market",
			PhaseID:      engine.PhSimulation,
			SubIndex:     uint32(idx),
			AccessSetID:  setID,
			PolicyParams: params,
			NextDueTick:  targetTick + 1,
		})
	}

	p.cursor += n
	if p.cursor >= len(p.slices) {
		p.cursor = 0
		p.nextDue = targetTick + 1
	} else {
		p.nextDue = nowTick
	}
	return nil
}

// consultReferencePrice fetches the external reference price once per
// tick and records the call so replay never re-invokes the side-call,
// per the same discipline systems/agent applies to its advisor.
func (p *Producer) consultReferencePrice(nowTick engine.Tick) error {
	if p.sideLog == nil {
		return fmt.Errorf("market: side-effect log required when a reference price feed is configured")
	}
	if _, found := p.sideLog.Lookup(p.systemID, p.seq); found {
		p.seq++
		return nil
	}

	var resp referencePrice
	if err := p.caller.Call(context.Background(), p.priceURL, &resp); err != nil {
		return err
	}

	call, err := engine.RecordCall(p.systemID, nowTick, p.seq, struct{ URL string }{p.priceURL}, resp)
	if err != nil {
		return err
	}
	p.sideLog.Append(call)
	p.seq++
	return nil
}

// SnapshotCursor implements engine.CursorProducer.
func (p *Producer) SnapshotCursor() []byte {
	data, _ := json.Marshal(struct {
		Cursor int    `json:"cursor"`
		Seq    uint32 `json:"seq"`
	}{p.cursor, p.seq})
	return data
}

// RestoreCursor implements engine.CursorProducer.
func (p *Producer) RestoreCursor(data []byte) error {
	var s struct {
		Cursor int    `json:"cursor"`
		Seq    uint32 `json:"seq"`
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	p.cursor, p.seq = s.Cursor, s.Seq
	return nil
}
