package monitoring

import (
	"fmt"
	"testing"
)

func capture(t *testing.T) *[]string {
	t.Helper()
	original := Logf
	t.Cleanup(func() { Logf = original })
	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	return &lines
}

func TestSetLogger(t *testing.T) {
	lines := capture(t)
	Logf("test message %d", 1)
	if len(*lines) != 1 || (*lines)[0] != "test message 1" {
		t.Errorf("custom logger got %q", *lines)
	}

	// Now set to nil and verify it doesn't call the custom logger.
	SetLogger(nil)
	Logf("test")
	if len(*lines) != 1 {
		t.Error("No-op logger should not have triggered callback")
	}
}

func TestStagefAndWarnf(t *testing.T) {
	lines := capture(t)
	Stagef("Imported %s", "silverstone")
	Warnf("minimiser stopped: %s", "IterationLimit")

	want := []string{"[ Imported silverstone ]", "WARNING: minimiser stopped: IterationLimit"}
	if len(*lines) != len(want) {
		t.Fatalf("got %d lines, want %d", len(*lines), len(want))
	}
	for i := range want {
		if (*lines)[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, (*lines)[i], want[i])
		}
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Error("Logf should not be nil by default")
	}
}
