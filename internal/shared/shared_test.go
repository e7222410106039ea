package shared

import (
	"strings"
	"testing"
)

func TestGenerateID(t *testing.T) {
	first := GenerateID()
	second := GenerateID()

	if first == "" || second == "" {
		t.Fatal("expected non-empty IDs")
	}
	if first == second {
		t.Error("expected unique IDs")
	}
	if len(strings.Split(first, "-")) != 5 {
		t.Errorf("expected UUID shape, got %s", first)
	}
}

func TestGenerateState(t *testing.T) {
	first, err := GenerateState()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, err := GenerateState()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(first) != 32 {
		t.Errorf("expected 32 hex characters, got %d", len(first))
	}
	if first == second {
		t.Error("expected unique state tokens")
	}
}

func TestMarshalJSON(t *testing.T) {
	data := map[string]string{"key": "value"}

	t.Run("compact", func(t *testing.T) {
		out, err := MarshalJSON(data, false)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(out) != `{"key":"value"}` {
			t.Errorf("unexpected output %s", out)
		}
	})

	t.Run("pretty", func(t *testing.T) {
		out, err := MarshalJSON(data, true)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(string(out), "\n  \"key\": \"value\"") {
			t.Errorf("expected indented output, got %s", out)
		}
	})
}

func TestUnmarshalJSON(t *testing.T) {
	var decoded map[string]int
	if err := UnmarshalJSON([]byte(`{"n": 7}`), &decoded); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if decoded["n"] != 7 {
		t.Errorf("expected 7, got %d", decoded["n"])
	}

	if err := UnmarshalJSON([]byte(`{`), &decoded); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger(nil)
	if logger == nil {
		t.Fatal("expected logger")
	}

	child := WithLogger(logger, "component", "test")
	if child == nil {
		t.Fatal("expected child logger")
	}
}
