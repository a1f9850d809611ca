package config

import (
	"fmt"
	"net/url"
	"strings"
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validQualityPresets = map[string]bool{
	"low":    true,
	"medium": true,
	"high":   true,
	"custom": true,
}

var validAudioSampleRates = map[int]bool{
	8000:  true,
	12000: true,
	16000: true,
	24000: true,
	48000: true,
}

// ValidationResult separates validation problems that must block startup
// (Fatals) from ones that were auto-corrected and merely deserve a logged
// warning (Warnings).
type ValidationResult struct {
	Fatals   []error
	Warnings []error
}

func (r ValidationResult) HasFatals() bool { return len(r.Fatals) > 0 }

// AllErrors returns fatals followed by warnings, for callers that just want
// everything that was wrong.
func (r ValidationResult) AllErrors() []error {
	all := make([]error, 0, len(r.Fatals)+len(r.Warnings))
	all = append(all, r.Fatals...)
	all = append(all, r.Warnings...)
	return all
}

// ValidateTiered checks c for invalid values. Values that would panic or
// misbehave downstream (queue sizes, FPS, ports, sample rates) are clamped
// to a safe range and reported as warnings; values that indicate a genuine
// misconfiguration the operator must fix (a malformed controller URL) are
// reported as fatals and block startup.
func (c *Config) ValidateTiered() ValidationResult {
	var r ValidationResult

	if c.ControllerURL != "" {
		u, err := url.Parse(c.ControllerURL)
		if err != nil {
			r.Fatals = append(r.Fatals, fmt.Errorf("controller_url %q is not a valid URL: %w", c.ControllerURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "grpc" {
			r.Fatals = append(r.Fatals, fmt.Errorf("controller_url scheme must be http, https, or grpc, got %q", u.Scheme))
		}
	}

	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		r.Warnings = append(r.Warnings, fmt.Errorf("grpc_port %d out of range, clamping to 50051", c.GRPCPort))
		c.GRPCPort = 50051
	}
	if c.WSPort < 0 || c.WSPort > 65535 {
		r.Warnings = append(r.Warnings, fmt.Errorf("ws_port %d out of range, clamping to 50052", c.WSPort))
		c.WSPort = 50052
	}

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_level %q is not valid (use debug, info, warn, error)", c.LogLevel))
	}
	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_format %q is not valid (use text or json)", c.LogFormat))
	}

	if c.QualityPreset != "" && !validQualityPresets[strings.ToLower(c.QualityPreset)] {
		r.Warnings = append(r.Warnings, fmt.Errorf("quality_preset %q is not valid, falling back to medium", c.QualityPreset))
		c.QualityPreset = "medium"
	}
	if strings.EqualFold(c.QualityPreset, "custom") && c.CustomBitrateKbps <= 0 {
		r.Fatals = append(r.Fatals, fmt.Errorf("quality_preset custom requires a positive custom_bitrate_kbps"))
	}

	if c.FPS < 1 {
		r.Warnings = append(r.Warnings, fmt.Errorf("fps %d is below minimum 1, clamping", c.FPS))
		c.FPS = 1
	} else if c.FPS > 120 {
		r.Warnings = append(r.Warnings, fmt.Errorf("fps %d exceeds maximum 120, clamping", c.FPS))
		c.FPS = 120
	}

	if c.MaxQueueSize < 1 {
		r.Warnings = append(r.Warnings, fmt.Errorf("max_queue_size %d is below minimum 1, clamping", c.MaxQueueSize))
		c.MaxQueueSize = 1
	} else if c.MaxQueueSize > 1000 {
		r.Warnings = append(r.Warnings, fmt.Errorf("max_queue_size %d exceeds maximum 1000, clamping", c.MaxQueueSize))
		c.MaxQueueSize = 1000
	}

	if c.EnableAudio && !validAudioSampleRates[c.AudioSampleRate] {
		r.Warnings = append(r.Warnings, fmt.Errorf("audio_sample_rate %d is not an Opus-supported rate, falling back to 48000", c.AudioSampleRate))
		c.AudioSampleRate = 48000
	}
	if c.EnableAudio && c.AudioChannels != 1 && c.AudioChannels != 2 {
		r.Warnings = append(r.Warnings, fmt.Errorf("audio_channels %d is not 1 or 2, falling back to 2", c.AudioChannels))
		c.AudioChannels = 2
	}

	if c.InputLockTimeoutSeconds < 1 {
		r.Warnings = append(r.Warnings, fmt.Errorf("input_lock_timeout_seconds %d is below minimum 1, clamping", c.InputLockTimeoutSeconds))
		c.InputLockTimeoutSeconds = 1
	} else if c.InputLockTimeoutSeconds > 3600 {
		r.Warnings = append(r.Warnings, fmt.Errorf("input_lock_timeout_seconds %d exceeds maximum 3600, clamping", c.InputLockTimeoutSeconds))
		c.InputLockTimeoutSeconds = 3600
	}

	if c.CaptureScaleFactor <= 0 || c.CaptureScaleFactor > 1 {
		r.Warnings = append(r.Warnings, fmt.Errorf("capture_scale_factor %v out of (0,1], clamping to 1.0", c.CaptureScaleFactor))
		c.CaptureScaleFactor = 1.0
	}

	return r
}
