package util

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestLevelThreshold(t *testing.T) {
	var buf bytes.Buffer
	orig := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(orig)
	defer SetupLogger("info")

	SetupLogger("warn")
	Info("hidden %d", 1)
	Warn("shown %d", 2)
	Error("shown %d", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info printed at warn level: %q", out)
	}
	if !strings.Contains(out, "[WARN] shown 2") || !strings.Contains(out, "[ERROR] shown 3") {
		t.Fatalf("missing output: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]int32{
		"debug": LevelDebug, "INFO": LevelInfo, " warning ": LevelWarn,
		"error": LevelError, "": LevelInfo, "verbose": LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %d, want %d", in, got, want)
		}
	}
}
