package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestPreInitLoggerUsesConfiguredHandler(t *testing.T) {
	logger := L("stream")

	var buf bytes.Buffer
	Init("text", "info", &buf)

	logger.Info("pipeline started", "fps", 30)

	out := buf.String()
	if !strings.Contains(out, "msg=\"pipeline started\"") {
		t.Fatalf("expected message, got: %s", out)
	}
	if !strings.Contains(out, "component=stream") {
		t.Fatalf("expected component field, got: %s", out)
	}
	if !strings.Contains(out, "fps=30") {
		t.Fatalf("expected fps field, got: %s", out)
	}
}

func TestPreInitLoggerRespectsConfiguredLevel(t *testing.T) {
	logger := L("stream")

	var buf bytes.Buffer
	Init("text", "warn", &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info log should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("warn log should be emitted: %s", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init("json", "info", &buf)
	defer Init("text", "info", nil)

	L("rpc").Info("request handled")
	if !strings.Contains(buf.String(), `"component":"rpc"`) {
		t.Fatalf("expected JSON output, got: %s", buf.String())
	}
}

func TestWithMethodAddsCorrelation(t *testing.T) {
	var buf bytes.Buffer
	Init("text", "info", &buf)

	WithMethod(L("rpc"), "StartCapture").Info("handled")
	if !strings.Contains(buf.String(), "rpcMethod=StartCapture") {
		t.Fatalf("expected rpcMethod field, got: %s", buf.String())
	}
}

func TestForwardingHandlerShipsWithLoggerAttrs(t *testing.T) {
	var buf bytes.Buffer
	handler := &forwardingHandler{
		local: slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}

	testShipper := &HubShipper{
		buffer:   make(chan HubLogEntry, 1),
		minLevel: slog.LevelDebug,
	}

	shipperMu.Lock()
	prev := shipper
	shipper = testShipper
	shipperMu.Unlock()
	t.Cleanup(func() {
		shipperMu.Lock()
		shipper = prev
		shipperMu.Unlock()
	})

	logger := slog.New(handler).With(
		slog.String(KeyComponent, "inputlock"),
		slog.String("device", "keyboard"),
	)
	logger.Info("detached", slog.String("master", "3"))

	select {
	case entry := <-testShipper.buffer:
		if entry.Component != "inputlock" {
			t.Fatalf("component = %q, want inputlock", entry.Component)
		}
		if got := entry.Fields["device"]; got != "keyboard" {
			t.Fatalf("device field = %#v", got)
		}
		if got := entry.Fields["master"]; got != "3" {
			t.Fatalf("master field = %#v", got)
		}
	default:
		t.Fatal("expected a shipped entry")
	}

	if !strings.Contains(buf.String(), "detached") {
		t.Fatal("record must still reach the local handler")
	}
}

func TestShipperLevelGate(t *testing.T) {
	s := NewHubShipper(HubShipperConfig{HubURL: "http://h", SessionID: "s1"})
	if s.wants(slog.LevelInfo) {
		t.Fatal("default min level should be warn")
	}
	if !s.wants(slog.LevelError) {
		t.Fatal("errors must always ship")
	}
}
