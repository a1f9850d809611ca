// Command bridge runs the desktop automation bridge: a single process that
// exposes the workstation to one remote controller over gRPC, streaming
// the screen and audio, injecting input, and handing control back and
// forth with the seated user.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kestrelremote/bridge/internal/audio"
	"github.com/kestrelremote/bridge/internal/avsync"
	"github.com/kestrelremote/bridge/internal/capture"
	"github.com/kestrelremote/bridge/internal/config"
	"github.com/kestrelremote/bridge/internal/input"
	"github.com/kestrelremote/bridge/internal/inputlock"
	"github.com/kestrelremote/bridge/internal/launcher"
	"github.com/kestrelremote/bridge/internal/logging"
	"github.com/kestrelremote/bridge/internal/notify"
	"github.com/kestrelremote/bridge/internal/pairing"
	"github.com/kestrelremote/bridge/internal/rpc"
	"github.com/kestrelremote/bridge/internal/stream"
	"github.com/kestrelremote/bridge/internal/userhelper"
	"github.com/kestrelremote/bridge/internal/video"
	"github.com/kestrelremote/bridge/internal/webrtcbridge"
	"github.com/kestrelremote/bridge/internal/workerpool"
	"github.com/kestrelremote/bridge/internal/wsrelay"
)

var (
	version = "0.1.0"
	cfgFile string
)

var log = logging.L("main")

var rootCmd = &cobra.Command{
	Use:   "bridge <session-id> [controller-url] [grpc-port]",
	Short: "Desktop automation bridge",
	Long: `bridge exposes this workstation to a remote controller: screen and audio
streaming, input injection, input lock handoff, and application control,
all over a single gRPC endpoint.`,
	Args:          cobra.RangeArgs(1, 3),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		controllerURL, grpcPort := "", ""
		if len(args) > 1 {
			controllerURL = args[1]
		}
		if len(args) > 2 {
			grpcPort = args[2]
		}
		if err := cfg.ApplyPositional(args[0], controllerURL, grpcPort); err != nil {
			return err
		}

		var logOut io.Writer = os.Stderr
		if cfg.LogFile != "" {
			sink, err := logging.NewFileSink(cfg.LogFile, 0, 0)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer sink.Close()
			logOut = sink.Tee(os.Stderr)
		}
		logging.Init(cfg.LogFormat, cfg.LogLevel, logOut)

		if cfg.ControllerURL != "" {
			logging.StartShipping(logging.HubShipperConfig{
				HubURL:    cfg.ControllerURL,
				SessionID: cfg.SessionID,
			})
			defer logging.StopShipping()
		}

		return runBridge(cfg)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bridge v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ~/.config/bridge and the working directory)")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runBridge(cfg *config.Config) error {
	code, err := pairing.NewCode()
	if err != nil {
		return err
	}
	// The pairing code goes to stdout for the seated operator, not the log.
	fmt.Printf("Pairing code: %s\n", code)

	capturer := capture.New()
	width, height, err := capturer.Bounds()
	if err != nil {
		log.Warn("could not determine screen bounds, assuming 1920x1080", "error", err)
		width, height = 1920, 1080
	}

	preset := presetFromConfig(cfg)
	encoder, err := video.New(video.EncoderConfig{
		Preset:         preset,
		Width:          width,
		Height:         height,
		FPS:            cfg.FPS,
		Profile:        "baseline",
		RealTime:       true,
		PreferHardware: true,
		AnnexB:         true,
	})
	if err != nil {
		return fmt.Errorf("video encoder init: %w", err)
	}
	defer encoder.Close()

	videoMgr := stream.New(stream.Config{
		Capture:         capture.Config{Mode: capture.ModeDesktop, DisplayIndex: cfg.CaptureDisplayIndex},
		FPS:             cfg.FPS,
		MaxQueueSize:    cfg.MaxQueueSize,
		Preset:          preset,
		AdaptiveBitrate: cfg.AdaptiveBitrate,
		Width:           width,
		Height:          height,
	}, capturer, encoder)

	audioMgr, audioCfg, err := buildAudioPipeline(cfg)
	if err != nil {
		return err
	}

	// One shared clock keeps the two pipelines' wire timestamps on the
	// same base and nudges whichever stream leads back toward the other.
	avClock := avsync.New(50)
	videoMgr.SetSync(avClock)
	audioMgr.SetSync(avClock)

	lock := inputlock.New(inputlock.NewDevice(), time.Duration(cfg.InputLockTimeoutSeconds)*time.Second, notify.Event)
	initCtx, cancelInit := context.WithTimeout(context.Background(), 10*time.Second)
	if err := lock.Init(initCtx); err != nil {
		// A headless or Wayland-only host can still stream and inject; it
		// just cannot lock the seat.
		log.Warn("input lock unavailable on this host", "error", err)
	}
	cancelInit()

	pool := workerpool.New(4, 32)

	svc := rpc.NewService(rpc.Options{
		Video:    videoMgr,
		Audio:    audioMgr,
		AudioCfg: audioCfg,
		Lock:     lock,
		Injector: input.New(width, height),
		Apps:     launcher.NewStore(),
		Grabber:  capturer,
		Pool:     pool,
		NegotiateWebRTC: func(offer string) (string, error) {
			_, answer, err := webrtcbridge.NewSession(offer, videoMgr, audioMgr, cfg.FPS)
			return answer, err
		},
	})

	helper := userhelper.NewServer(userhelper.Hooks{
		EmergencyUnlock: lock.EmergencyUnlock,
		IsLocked:        lock.IsLocked,
	})
	go func() {
		if err := helper.Serve(); err != nil {
			log.Warn("userhelper ipc unavailable", "error", err)
		}
	}()

	var wsServer *http.Server
	if cfg.WSPort > 0 {
		relay := wsrelay.New(videoMgr, audioMgr)
		wsServer = &http.Server{
			Addr:              fmt.Sprintf("0.0.0.0:%d", cfg.WSPort),
			Handler:           relay,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := wsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Warn("websocket relay unavailable", "error", err)
			}
		}()
	}

	server := rpc.NewServer(svc)
	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(cfg.GRPCPort) }()

	log.Info("bridge running",
		"sessionId", cfg.SessionID,
		"controllerUrl", cfg.ControllerURL,
		"grpcPort", cfg.GRPCPort,
		"resolution", fmt.Sprintf("%dx%d", width, height),
		"hardwareEncoder", encoder.IsHardwareAccelerated())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("rpc server: %w", err)
		}
	}

	shutdown(server, wsServer, helper, videoMgr, audioMgr, lock, pool)
	return nil
}

// shutdown tears the bridge down in dependency order, unconditionally
// returning input to the seated user before exiting.
func shutdown(server *rpc.Server, wsServer *http.Server, helper *userhelper.Server, videoMgr *stream.Manager, audioMgr *stream.AudioManager, lock *inputlock.Controller, pool *workerpool.Pool) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := lock.EmergencyUnlock(ctx); err != nil {
		log.Error("emergency unlock on shutdown failed", "error", err)
	}
	if err := videoMgr.Stop(); err != nil {
		log.Warn("video pipeline stop failed", "error", err)
	}
	if err := audioMgr.Stop(); err != nil {
		log.Warn("audio pipeline stop failed", "error", err)
	}
	if wsServer != nil {
		wsServer.Shutdown(ctx)
	}
	helper.Close()
	server.Stop()
	pool.Shutdown(ctx)
}

func presetFromConfig(cfg *config.Config) video.Preset {
	switch cfg.QualityPreset {
	case "low":
		return video.PresetLow()
	case "high":
		return video.PresetHigh()
	case "custom":
		return video.PresetCustom(cfg.CustomBitrateKbps)
	default:
		return video.PresetMedium()
	}
}

// buildAudioPipeline assembles capturer -> ring buffer -> frame reader ->
// Opus encoder. The capturer starts with the process so the ring buffer is
// warm by the time a controller calls StartAudio; the encode loop itself
// only runs between StartAudio and StopAudio.
func buildAudioPipeline(cfg *config.Config) (*stream.AudioManager, audio.EncoderConfig, error) {
	encCfg := audio.EncoderConfig{
		SampleRate: cfg.AudioSampleRate,
		Channels:   cfg.AudioChannels,
		BitrateBps: audio.DefaultEncoderConfig().BitrateBps,
	}

	capturer := audio.New()
	if cfg.EnableAudio {
		if err := capturer.Start(encCfg.SampleRate, encCfg.Channels); err != nil {
			log.Warn("audio capture unavailable, streaming silence", "error", err)
		}
	}
	reader := audio.NewFrameReader(capturer.Ring(), encCfg.SampleRate, encCfg.Channels)

	encoder, err := audio.NewEncoder(encCfg)
	if err != nil {
		return nil, encCfg, fmt.Errorf("opus encoder init: %w", err)
	}

	return stream.NewAudio(reader, encoder), encCfg, nil
}
