package telemetry

import (
	"bytes"
	"strings"
	"testing"
)

func TestWritesToFileRegardlessOfDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false)
	log.Info("hello")

	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("expected the file sink to contain the message, got %q", buf.String())
	}
}

func TestSetDebugTogglesStderrMirror(t *testing.T) {
	var buf bytes.Buffer
	core := NewCore(&buf, nil)
	if *core.debug {
		t.Fatal("expected debug to start false")
	}
	core.SetDebug(true)
	if !*core.debug {
		t.Fatal("expected SetDebug(true) to arm the mirror")
	}
}
