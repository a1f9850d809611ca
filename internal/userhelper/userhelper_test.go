//go:build !windows

package userhelper

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"sync/atomic"
	"testing"
	"time"
)

func startTestServer(t *testing.T, hooks Hooks) string {
	t.Helper()
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	s := NewServer(hooks)
	go func() {
		if err := s.Serve(); err != nil {
			t.Errorf("Serve: %v", err)
		}
	}()
	t.Cleanup(s.Close)

	// Wait for the socket to appear.
	path := socketPath()
	deadline := time.Now().Add(5 * time.Second)
	for {
		if conn, err := net.Dial("unix", path); err == nil {
			conn.Close()
			return path
		}
		if time.Now().After(deadline) {
			t.Fatal("ipc socket never came up")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func roundTrip(t *testing.T, path string, req Request) Response {
	t.Helper()
	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	data, _ := json.Marshal(req)
	if _, err := conn.Write(append(data, '\n')); err != nil {
		t.Fatalf("write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		t.Fatalf("unmarshal %q: %v", line, err)
	}
	return resp
}

func TestEmergencyUnlockViaHelper(t *testing.T) {
	var unlocks atomic.Int32
	path := startTestServer(t, Hooks{
		EmergencyUnlock: func(context.Context) error { unlocks.Add(1); return nil },
		IsLocked:        func() bool { return false },
	})

	resp := roundTrip(t, path, Request{Type: "emergency_unlock"})
	if !resp.OK {
		t.Fatalf("response not ok: %+v", resp)
	}
	if unlocks.Load() != 1 {
		t.Fatalf("unlock invoked %d times, want 1", unlocks.Load())
	}
}

func TestStatusReportsLockState(t *testing.T) {
	locked := atomic.Bool{}
	locked.Store(true)
	path := startTestServer(t, Hooks{
		EmergencyUnlock: func(context.Context) error { return nil },
		IsLocked:        func() bool { return locked.Load() },
	})

	resp := roundTrip(t, path, Request{Type: "status"})
	if !resp.OK || !resp.Locked {
		t.Fatalf("status = %+v, want ok+locked", resp)
	}
}

func TestUnknownRequestType(t *testing.T) {
	path := startTestServer(t, Hooks{
		EmergencyUnlock: func(context.Context) error { return nil },
		IsLocked:        func() bool { return false },
	})
	resp := roundTrip(t, path, Request{Type: "reboot"})
	if resp.OK || resp.Error == "" {
		t.Fatalf("unknown type should error, got %+v", resp)
	}
}
