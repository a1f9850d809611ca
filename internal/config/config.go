// Package config loads and validates the bridge's runtime configuration:
// the three positional CLI arguments (session id, controller URL, gRPC
// port), capture/quality defaults, and the ambient logging/lock knobs, via
// viper so every field is also settable through a BRIDGE_-prefixed
// environment variable or an optional config file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"

	"github.com/spf13/viper"

	"github.com/kestrelremote/bridge/internal/logging"
)

var log = logging.L("config")

// Config is the full runtime configuration for one bridge process. A
// process owns exactly one session, so there is no multi-tenant shape here.
type Config struct {
	SessionID     string `mapstructure:"session_id"`
	ControllerURL string `mapstructure:"controller_url"`
	GRPCPort      int    `mapstructure:"grpc_port"`
	WSPort        int    `mapstructure:"ws_port"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`

	CaptureDisplayIndex int     `mapstructure:"capture_display_index"`
	CaptureScaleFactor  float64 `mapstructure:"capture_scale_factor"`

	QualityPreset     string `mapstructure:"quality_preset"` // low|medium|high|custom
	CustomBitrateKbps int    `mapstructure:"custom_bitrate_kbps"`
	FPS               int    `mapstructure:"fps"`
	MaxQueueSize      int    `mapstructure:"max_queue_size"`
	AdaptiveBitrate   bool   `mapstructure:"adaptive_bitrate"`

	EnableAudio     bool `mapstructure:"enable_audio"`
	AudioSampleRate int  `mapstructure:"audio_sample_rate"`
	AudioChannels   int  `mapstructure:"audio_channels"`

	InputLockTimeoutSeconds int `mapstructure:"input_lock_timeout_seconds"`

	ScreenshotTempDir string `mapstructure:"screenshot_temp_dir"`
}

// Default returns the configuration used when neither a config file nor an
// environment override supplies a value.
func Default() *Config {
	return &Config{
		GRPCPort: 50051,
		WSPort:   50052,

		LogLevel:  "info",
		LogFormat: "text",

		CaptureDisplayIndex: 0,
		CaptureScaleFactor:  1.0,

		QualityPreset:     "medium",
		CustomBitrateKbps: 0,
		FPS:               30,
		MaxQueueSize:      8,
		AdaptiveBitrate:   true,

		EnableAudio:     true,
		AudioSampleRate: 48000,
		AudioChannels:   2,

		InputLockTimeoutSeconds: 300,

		ScreenshotTempDir: os.TempDir(),
	}
}

// Load builds a Config from, in ascending priority: coded defaults, an
// optional config file, and BRIDGE_-prefixed environment variables. cfgFile
// may be empty, in which case a file named bridge.yaml is searched for in
// configDir() and the working directory.
func Load(cfgFile string) (*Config, error) {
	cfg := Default()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("bridge")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(configDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("BRIDGE")
	// AutomaticEnv only consults the environment for keys viper already
	// knows, so every field's key is bound explicitly.
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		if key := t.Field(i).Tag.Get("mapstructure"); key != "" {
			_ = viper.BindEnv(key)
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	result := cfg.ValidateTiered()
	for _, err := range result.Warnings {
		log.Warn("config validation", "error", err)
	}
	if result.HasFatals() {
		for _, err := range result.Fatals {
			log.Error("config validation fatal", "error", err)
		}
		return nil, fmt.Errorf("config has fatal validation errors: %v", result.Fatals[0])
	}

	return cfg, nil
}

// ApplyPositional overlays the three CLI positional arguments onto cfg,
// matching the `bridge <session-id> [controller-url] [grpc-port]` surface.
func (c *Config) ApplyPositional(sessionID, controllerURL, grpcPort string) error {
	c.SessionID = sessionID
	if controllerURL != "" {
		c.ControllerURL = controllerURL
	}
	if grpcPort != "" {
		var port int
		if _, err := fmt.Sscanf(grpcPort, "%d", &port); err != nil {
			return fmt.Errorf("invalid grpc port %q: %w", grpcPort, err)
		}
		c.GRPCPort = port
	}
	return nil
}

// GetDataDir returns the platform-specific directory for transient bridge
// state (none of it persists across restarts; it is scratch space for the
// duration of one process).
func GetDataDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "Bridge", "data")
	case "darwin":
		return filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Bridge")
	default:
		home := os.Getenv("HOME")
		if home == "" {
			return "/var/lib/bridge"
		}
		return filepath.Join(home, ".local", "share", "bridge")
	}
}

func configDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "Bridge")
	case "darwin":
		return filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Bridge")
	default:
		home := os.Getenv("HOME")
		if home == "" {
			return "/etc/bridge"
		}
		return filepath.Join(home, ".config", "bridge")
	}
}
