package engine

import "testing"

// fakeProducer is a minimal Producer used to exercise ProducerRegistry
// ordering and due-tick gating without depending on any systems/* package.
type fakeProducer struct {
	id      uint32
	nextDue Tick
	calls   *[]uint32
}

func (p *fakeProducer) SystemID() uint32     { return p.id }
func (p *fakeProducer) IsSimAffecting() bool { return true }
func (p *fakeProducer) LawTargets() []uint64 { return nil }
func (p *fakeProducer) GetNextDueTick() Tick { return p.nextDue }
func (p *fakeProducer) Degrade(uint8, string) {}
func (p *fakeProducer) EmitTasks(nowTick, targetTick Tick, budgetHint uint32, allowedOpsMask uint64, builder *TaskGraphBuilder, access *AccessSetBuilder) error {
	*p.calls = append(*p.calls, p.id)
	return nil
}

func TestProducerRegistryOrdersBySystemID(t *testing.T) {
	r := NewProducerRegistry()
	var calls []uint32
	if err := r.Register(&fakeProducer{id: 30, calls: &calls}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(&fakeProducer{id: 10, calls: &calls}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(&fakeProducer{id: 20, calls: &calls}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	builder := NewTaskGraphBuilder()
	access := NewAccessSetBuilder()
	if err := r.DriveTick(0, 0, 16, 1, builder, access); err != nil {
		t.Fatalf("DriveTick: %v", err)
	}

	want := []uint32{10, 20, 30}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
	}
}

func TestProducerRegistryDuplicateSystemIDRejected(t *testing.T) {
	r := NewProducerRegistry()
	var calls []uint32
	if err := r.Register(&fakeProducer{id: 1, calls: &calls}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(&fakeProducer{id: 1, calls: &calls}); err != ErrDuplicateID {
		t.Fatalf("Register duplicate: got %v, want ErrDuplicateID", err)
	}
}

func TestProducerRegistrySkipsNotYetDue(t *testing.T) {
	r := NewProducerRegistry()
	var calls []uint32
	if err := r.Register(&fakeProducer{id: 1, nextDue: 5, calls: &calls}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	builder := NewTaskGraphBuilder()
	access := NewAccessSetBuilder()
	if err := r.DriveTick(0, 0, 16, 1, builder, access); err != nil {
		t.Fatalf("DriveTick: %v", err)
	}
	if len(calls) != 0 {
		t.Fatalf("calls = %v, want producer not yet due to be skipped", calls)
	}

	if err := r.DriveTick(5, 5, 16, 1, builder, access); err != nil {
		t.Fatalf("DriveTick: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("calls = %v, want producer to run once due", calls)
	}
}

func TestCostModelEstimateClampsToOne(t *testing.T) {
	m := CostModel{ID: 1, EstimatedUnits: 0}
	if got := m.Estimate(); got != 1 {
		t.Fatalf("Estimate() = %d, want 1", got)
	}
	m2 := CostModel{ID: 2, EstimatedUnits: 7}
	if got := m2.Estimate(); got != 7 {
		t.Fatalf("Estimate() = %d, want 7", got)
	}
}
