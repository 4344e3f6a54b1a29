package anthropicadvisor

import "testing"

func TestNewDefaultsModelName(t *testing.T) {
	a := New("test-api-key", "")
	if a == nil {
		t.Fatal("expected non-nil Advisor")
	}
	if a.modelName != "claude-sonnet-4-5-20250929" {
		t.Errorf("modelName = %q, want default", a.modelName)
	}
}

func TestNewKeepsExplicitModelName(t *testing.T) {
	a := New("test-api-key", "claude-3-opus-20240229")
	if a.modelName != "claude-3-opus-20240229" {
		t.Errorf("modelName = %q, want claude-3-opus-20240229", a.modelName)
	}
}
