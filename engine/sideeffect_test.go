package engine

import "testing"

func TestRecordCallHashesResponse(t *testing.T) {
	call, err := RecordCall(1, 5, 0, struct{ Prompt string }{"hello"}, struct{ Text string }{"world"})
	if err != nil {
		t.Fatalf("RecordCall: %v", err)
	}
	if call.SystemID != 1 || call.Tick != 5 || call.Seq != 0 {
		t.Fatalf("RecordCall identity = %+v", call)
	}
	if call.Hash == "" {
		t.Fatal("RecordCall: Hash is empty")
	}

	again, err := RecordCall(1, 5, 0, struct{ Prompt string }{"hello"}, struct{ Text string }{"world"})
	if err != nil {
		t.Fatalf("RecordCall: %v", err)
	}
	if call.Hash != again.Hash {
		t.Fatalf("same response hashed differently: %q vs %q", call.Hash, again.Hash)
	}
}

func TestSideEffectLogAppendAndLookup(t *testing.T) {
	var log SideEffectLog
	call, err := RecordCall(1, 1, 0, "req", "resp")
	if err != nil {
		t.Fatalf("RecordCall: %v", err)
	}
	log.Append(call)

	got, found := log.Lookup(1, 0)
	if !found {
		t.Fatal("Lookup: expected a recorded call, found none")
	}
	if got.Hash != call.Hash {
		t.Fatalf("Lookup returned %+v, want %+v", got, call)
	}

	if _, found := log.Lookup(1, 1); found {
		t.Fatal("Lookup: expected no call for unused seq")
	}
}

func TestSideEffectLogReset(t *testing.T) {
	var log SideEffectLog
	call, _ := RecordCall(1, 1, 0, "req", "resp")
	log.Append(call)
	log.Reset()
	if len(log.Calls()) != 0 {
		t.Fatalf("Calls() after Reset = %d, want 0", len(log.Calls()))
	}
}
