// Package sysquery answers the read-only desktop state queries the RPC
// surface exposes: system facts, window and process enumeration, browser
// tabs, directory listings, and the clipboard.
package sysquery

import (
	"context"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/kestrelremote/bridge/internal/bridgeerr"
	"github.com/kestrelremote/bridge/internal/logging"
)

var log = logging.L("sysquery")

// SystemInfo is the capability descriptor returned to the controller at
// registration and on demand.
type SystemInfo struct {
	Hostname        string  `json:"hostname"`
	OS              string  `json:"os"`
	Platform        string  `json:"platform"`
	PlatformVersion string  `json:"platform_version"`
	KernelVersion   string  `json:"kernel_version"`
	Arch            string  `json:"arch"`
	CPUModel        string  `json:"cpu_model"`
	CPUCores        int     `json:"cpu_cores"`
	CPUUsagePercent float64 `json:"cpu_usage_percent"`
	MemoryTotalMB   uint64  `json:"memory_total_mb"`
	MemoryUsedMB    uint64  `json:"memory_used_mb"`
	UptimeSeconds   uint64  `json:"uptime_seconds"`
	SessionType     string  `json:"session_type"`
	Display         string  `json:"display"`
}

// GetSystemInfo collects host facts. Individual collector failures degrade
// to zero values rather than failing the whole query.
func GetSystemInfo(ctx context.Context) SystemInfo {
	info := SystemInfo{
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		SessionType: os.Getenv("XDG_SESSION_TYPE"),
		Display:     os.Getenv("DISPLAY"),
	}

	if hi, err := host.InfoWithContext(ctx); err == nil {
		info.Hostname = hi.Hostname
		info.Platform = hi.Platform
		info.PlatformVersion = hi.PlatformVersion
		info.KernelVersion = hi.KernelVersion
		info.UptimeSeconds = hi.Uptime
	} else {
		log.Debug("host info collection failed", "error", err)
	}

	if cpus, err := cpu.InfoWithContext(ctx); err == nil && len(cpus) > 0 {
		info.CPUModel = cpus[0].ModelName
	}
	info.CPUCores = runtime.NumCPU()
	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		info.CPUUsagePercent = percents[0]
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.MemoryTotalMB = vm.Total / 1024 / 1024
		info.MemoryUsedMB = vm.Used / 1024 / 1024
	}

	return info
}

// ProcessInfo is one row of the process list.
type ProcessInfo struct {
	PID        int32   `json:"pid"`
	Name       string  `json:"name"`
	User       string  `json:"user"`
	CPUPercent float64 `json:"cpu_percent"`
	MemoryMB   float64 `json:"memory_mb"`
}

// GetProcessList enumerates running processes, sorted by CPU descending,
// capped at limit (0 means a default of 200).
func GetProcessList(ctx context.Context, limit int) ([]ProcessInfo, error) {
	if limit <= 0 {
		limit = 200
	}
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindTransient, "process enumeration failed", err)
	}

	list := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil || name == "" {
			continue
		}
		info := ProcessInfo{PID: p.Pid, Name: name}
		if user, err := p.UsernameWithContext(ctx); err == nil {
			info.User = user
		}
		if cpuPct, err := p.CPUPercentWithContext(ctx); err == nil {
			info.CPUPercent = cpuPct
		}
		if memInfo, err := p.MemoryInfoWithContext(ctx); err == nil && memInfo != nil {
			info.MemoryMB = float64(memInfo.RSS) / 1024 / 1024
		}
		list = append(list, info)
	}

	sort.Slice(list, func(i, j int) bool { return list[i].CPUPercent > list[j].CPUPercent })
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// FileInfo is one row of a directory listing.
type FileInfo struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	IsDir      bool      `json:"is_dir"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
}

// ListFiles returns the entries of a directory. An empty path defaults to
// the user's home directory.
func ListFiles(path string) ([]FileInfo, error) {
	if path == "" {
		path = os.Getenv("HOME")
		if path == "" {
			path = "/"
		}
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.KindInvalidInput, "cannot list directory", err)
	}
	list := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		fi := FileInfo{Name: e.Name(), Path: path + string(os.PathSeparator) + e.Name(), IsDir: e.IsDir()}
		if info, err := e.Info(); err == nil {
			fi.SizeBytes = info.Size()
			fi.ModifiedAt = info.ModTime()
		}
		list = append(list, fi)
	}
	return list, nil
}
