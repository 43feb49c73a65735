package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"trace", LevelInfo, true},
	}
	for _, tc := range tests {
		got, err := ParseLevel(tc.input)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, err=%v", tc.input, got, err, tc.want, tc.wantErr)
		}
	}
}

func TestInitFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Config{Level: LevelWarn, Format: "text", Output: &buf}); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { defaultLogger = nil })

	Debug("hidden")
	LogPhase("parse")
	Warn("shown", "file", "a.lmd")

	out := buf.String()
	if strings.Contains(out, "hidden") || strings.Contains(out, "phase") {
		t.Errorf("debug output leaked at warn level:\n%s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "file=a.lmd") {
		t.Errorf("warn output missing:\n%s", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Config{Level: LevelDebug, Format: "json", Output: &buf}); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { defaultLogger = nil })

	LogError("parse", "a.lmd", 3, "missing end")
	if out := buf.String(); !strings.Contains(out, `"line":3`) || !strings.Contains(out, `"phase":"parse"`) {
		t.Errorf("unexpected json output: %s", out)
	}
}

func TestPhaseHelpers(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Config{Level: LevelDebug, Format: "text", Output: &buf}); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { defaultLogger = nil })

	LogPhase("parse")
	LogParsing(4)
	LogPhaseComplete("parse")
	Error("run failed", "file", "a.asm")

	out := buf.String()
	for _, want := range []string{"Starting compilation phase", "statements=4", "Completed compilation phase", "level=ERROR", "run failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "file=\"\"") || strings.Contains(out, "file= ") {
		t.Errorf("parsing log carries an empty file attribute:\n%s", out)
	}
}
