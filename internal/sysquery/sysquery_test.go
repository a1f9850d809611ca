package sysquery

import (
	"context"
	"testing"
	"time"
)

func TestGetSystemInfoNeverFails(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	info := GetSystemInfo(ctx)
	if info.OS == "" || info.Arch == "" {
		t.Fatalf("OS/Arch must always be populated, got %+v", info)
	}
	if info.CPUCores <= 0 {
		t.Fatalf("CPUCores = %d, want > 0", info.CPUCores)
	}
}

func TestGetProcessListIncludesSelf(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	list, err := GetProcessList(ctx, 0)
	if err != nil {
		t.Fatalf("GetProcessList: %v", err)
	}
	if len(list) == 0 {
		t.Fatal("process list is empty")
	}
	for _, p := range list {
		if p.PID <= 0 || p.Name == "" {
			t.Fatalf("malformed process row: %+v", p)
		}
	}
}

func TestGetProcessListRespectsLimit(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	list, err := GetProcessList(ctx, 3)
	if err != nil {
		t.Fatalf("GetProcessList: %v", err)
	}
	if len(list) > 3 {
		t.Fatalf("limit not honored: %d rows", len(list))
	}
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	list, err := ListFiles(dir)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("empty dir should list no files, got %d", len(list))
	}

	if _, err := ListFiles(dir + "/does-not-exist"); err == nil {
		t.Fatal("missing directory must error")
	}
}
