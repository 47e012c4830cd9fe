// Package doctor runs environment health checks for the agent. Each
// check produces a status the check command renders and the editor can
// show in its diagnostics panel.
package doctor

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/inkdown/inkdown-agent/internal/config"
	"github.com/inkdown/inkdown-agent/internal/ui"
)

// Status of a single check.
type Status string

const (
	StatusOK   Status = "ok"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Result of a single check.
type Result struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// Report collects all check results.
type Report struct {
	Results []Result `json:"results"`
}

// Healthy reports whether no check failed.
func (r Report) Healthy() bool {
	for _, res := range r.Results {
		if res.Status == StatusFail {
			return false
		}
	}
	return true
}

// Thresholds below which disk and memory checks warn.
const (
	minFreeDisk   = 500 * 1024 * 1024 // space for a download plus backup
	minFreeMemory = 128 * 1024 * 1024
)

// Run executes every check against cfg.
func Run(ctx context.Context, cfg *config.Config) Report {
	var rep Report
	rep.Results = append(rep.Results, checkHome(cfg))
	rep.Results = append(rep.Results, checkSettings(cfg))
	rep.Results = append(rep.Results, checkFeed(ctx, cfg))
	rep.Results = append(rep.Results, checkDisk(cfg))
	rep.Results = append(rep.Results, checkMemory())
	return rep
}

func checkHome(cfg *config.Config) Result {
	r := Result{Name: "agent home"}

	info, err := os.Stat(cfg.HomeDir)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(cfg.HomeDir, 0o755); err != nil {
			r.Status = StatusFail
			r.Message = fmt.Sprintf("cannot create %s: %v", cfg.HomeDir, err)
			return r
		}
		r.Status = StatusOK
		r.Message = fmt.Sprintf("created %s", cfg.HomeDir)
		return r
	}
	if err != nil {
		r.Status = StatusFail
		r.Message = err.Error()
		return r
	}
	if !info.IsDir() {
		r.Status = StatusFail
		r.Message = fmt.Sprintf("%s exists but is not a directory", cfg.HomeDir)
		return r
	}

	// Probe writability, settings and cache writes need it.
	probe, err := os.CreateTemp(cfg.HomeDir, ".doctor-*")
	if err != nil {
		r.Status = StatusFail
		r.Message = fmt.Sprintf("%s is not writable: %v", cfg.HomeDir, err)
		return r
	}
	probe.Close()
	os.Remove(probe.Name())

	r.Status = StatusOK
	r.Message = cfg.HomeDir
	return r
}

func checkSettings(cfg *config.Config) Result {
	r := Result{Name: "settings"}

	settings, err := config.LoadSettings(cfg.SettingsPath)
	if err != nil {
		r.Status = StatusWarn
		r.Message = fmt.Sprintf("settings unreadable, using defaults: %v", err)
		return r
	}
	r.Status = StatusOK
	r.Message = fmt.Sprintf("language=%s autoCheck=%t beta=%t",
		settings.Language, settings.AutoCheck, settings.CheckForBeta)
	return r
}

func checkFeed(ctx context.Context, cfg *config.Config) Result {
	r := Result{Name: "release feed"}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.ReleasesURL, nil)
	if err != nil {
		r.Status = StatusFail
		r.Message = err.Error()
		return r
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		r.Status = StatusFail
		r.Message = fmt.Sprintf("unreachable: %v", err)
		return r
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		r.Status = StatusWarn
		r.Message = fmt.Sprintf("feed answered %s", resp.Status)
		return r
	}
	r.Status = StatusOK
	r.Message = fmt.Sprintf("reachable (%s)", resp.Status)
	return r
}

func checkDisk(cfg *config.Config) Result {
	r := Result{Name: "disk space"}

	usage, err := disk.Usage(cfg.HomeDir)
	if err != nil {
		// Fall back to the root mount if the home dir does not exist yet.
		usage, err = disk.Usage("/")
	}
	if err != nil {
		r.Status = StatusWarn
		r.Message = fmt.Sprintf("cannot read disk usage: %v", err)
		return r
	}

	if usage.Free < minFreeDisk {
		r.Status = StatusFail
		r.Message = fmt.Sprintf("only %s free, updates need at least %s",
			ui.FormatBytes(int64(usage.Free)), ui.FormatBytes(minFreeDisk))
		return r
	}
	r.Status = StatusOK
	r.Message = fmt.Sprintf("%s free", ui.FormatBytes(int64(usage.Free)))
	return r
}

func checkMemory() Result {
	r := Result{Name: "memory"}

	vm, err := mem.VirtualMemory()
	if err != nil {
		r.Status = StatusWarn
		r.Message = fmt.Sprintf("cannot read memory stats: %v", err)
		return r
	}
	if vm.Available < minFreeMemory {
		r.Status = StatusWarn
		r.Message = fmt.Sprintf("only %s available", ui.FormatBytes(int64(vm.Available)))
		return r
	}
	r.Status = StatusOK
	r.Message = fmt.Sprintf("%s of %s available",
		ui.FormatBytes(int64(vm.Available)), ui.FormatBytes(int64(vm.Total)))
	return r
}
