package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ihza212325/trashpin/internal/app"
	"github.com/ihza212325/trashpin/internal/auth"
	"github.com/ihza212325/trashpin/internal/camera"
	"github.com/ihza212325/trashpin/internal/config"
	"github.com/ihza212325/trashpin/internal/credstore"
	"github.com/ihza212325/trashpin/internal/device"
	"github.com/ihza212325/trashpin/internal/dispatcher"
	"github.com/ihza212325/trashpin/internal/location"
	"github.com/ihza212325/trashpin/internal/logging"
	"github.com/ihza212325/trashpin/internal/markers"
	"github.com/ihza212325/trashpin/internal/model"
	"github.com/ihza212325/trashpin/internal/notify"
	otelpkg "github.com/ihza212325/trashpin/internal/otel"
	"github.com/ihza212325/trashpin/internal/renderer"
	"github.com/ihza212325/trashpin/internal/store"
	"github.com/ihza212325/trashpin/internal/telemetry"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the app with simulated device adapters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
}

func run() error {
	if err := config.Load(configDir); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	sessionStart := time.Now()
	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	logFile, err := os.OpenFile(
		logging.LogFilePath(logsDir, "trashpin", sessionStart),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644,
	)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	// OTel log export, off unless configured
	var otelLogFile *os.File
	otelCfg := otelpkg.Config{
		Enabled:      config.GetBool("otel.enabled"),
		ServiceName:  "trashpin",
		BatchTimeout: 5 * time.Second,
		Endpoint:     config.GetString("otel.endpoint"),
		Insecure:     config.GetBool("otel.insecure"),
	}
	if otelCfg.Enabled {
		otelLogFile, err = os.OpenFile(
			logging.LogFilePath(logsDir, "trashpin-otel", sessionStart),
			os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644,
		)
		if err != nil {
			return fmt.Errorf("opening otel log file: %w", err)
		}
		defer otelLogFile.Close()
		otelCfg.LogWriter = otelLogFile
	}

	otelProvider, err := otelpkg.New(otelCfg)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	var gelfHandler slog.Handler
	if gl := config.Graylog(); gl.Enabled {
		h, err := logging.NewGelfHandler(gl.Address, slog.LevelInfo)
		if err != nil {
			fmt.Fprintf(os.Stderr, "graylog disabled: %v\n", err)
		} else {
			gelfHandler = h
		}
	}

	slogMgr := logging.NewSlogManager()
	slogMgr.Setup(logFile, config.GetString("logLevel"), otelProvider.LoggerProvider(), gelfHandler)
	logger := slogMgr.Logger()

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	kv := logging.NewKVLogger(zlog)

	// credentials and auth
	creds, err := credstore.New(config.Credentials(), config.DB(), zlog)
	if err != nil {
		return fmt.Errorf("opening credential store: %w", err)
	}
	defer creds.Close()

	session := credstore.NewSession(creds)
	authCfg := config.Auth()
	authClient := auth.New(authCfg.ServerURL, authCfg.ExpiresInMins, session)
	restoreSession(authClient, session, logger)

	// cascade metrics to influx, optional
	var tele *telemetry.Manager
	if influx := config.Influx(); influx.Enabled {
		tele = telemetry.NewManager(zlog, influx)
		if err := tele.Connect(); err != nil {
			logger.Warn("Telemetry disabled", "error", err)
			tele = nil
		} else {
			defer tele.Close()
		}
	}

	// simulated device
	mapCfg := config.Map()
	center := orb.Point{mapCfg.CenterLon, mapCfg.CenterLat}

	perms := &device.SimPermissions{
		Status:        location.PermissionUndetermined,
		RequestAnswer: location.PermissionGranted,
	}
	fixes := &device.SimFixes{
		Enabled: true,
		Latency: 300 * time.Millisecond,
		Live: map[model.AccuracyTier]device.LiveOutcome{
			model.TierBalanced: {Fix: model.LocationFix{
				Coordinates: center,
				Tier:        model.TierBalanced,
			}},
		},
	}
	fixes.SetCached(center, 2*time.Minute)
	photoSim := &device.SimCamera{Granted: true}

	// core wiring
	catalog, err := markers.LoadCatalog()
	if err != nil {
		return fmt.Errorf("loading seed markers: %w", err)
	}
	reports := store.New()

	cam := camera.NewController(camera.Config{
		Default: model.CameraState{Center: center, Zoom: mapCfg.Zoom},
		Match:   reports.MatchNear,
		OpenDetail: func(m model.MarkerRecord) {
			logger.Info("Detail view opened", "id", m.ID, "title", m.Title)
		},
	})

	cascadeCfg := config.Cascade()
	cascade, err := location.NewCascade(perms, fixes, location.Options{
		CachedMaxAge:    cascadeCfg.CachedMaxAge,
		BalancedTimeout: cascadeCfg.BalancedTimeout,
		LowestTimeout:   cascadeCfg.LowestTimeout,
		StaleMaxAge:     cascadeCfg.StaleMaxAge,
	}, kv)
	if err != nil {
		return fmt.Errorf("building location cascade: %w", err)
	}

	toasts := notify.NewCenter()
	toasts.Subscribe(func(t notify.Toast) {
		logger.Info("Toast", "level", t.Level.String(), "message", t.Message)
	})

	svc := app.New(app.Dependencies{
		Store:     reports,
		Catalog:   catalog,
		Camera:    cam,
		Cascade:   cascade,
		Photos:    photoSim,
		Toasts:    toasts,
		Telemetry: tele,
		Logger:    logger,
		LogKV:     kv,
	})
	defer svc.Shutdown()

	disp, err := dispatcher.New(kv)
	if err != nil {
		return fmt.Errorf("building dispatcher: %w", err)
	}
	svc.RegisterHandlers(disp)

	// renderer bridge
	bridge := renderer.NewServer(logger, func(id int) {
		if _, err := disp.Dispatch(dispatcher.Event{
			Name:      "marker:select",
			Payload:   id,
			Timestamp: time.Now(),
		}); err != nil {
			logger.Warn("Renderer select rejected", "id", id, "error", err)
		}
	})
	defer bridge.Close()

	broadcast := func() {
		bridge.Broadcast(renderer.NewFrame(cam.State(), svc.VisibleMarkers()))
	}
	cam.OnChange(func(model.CameraState) { broadcast() })
	reports.Subscribe(broadcast)

	listen := config.Renderer().Listen
	go func() {
		if err := bridge.ListenAndServe(listen); err != nil {
			logger.Error("Renderer bridge failed", "error", err)
		}
	}()
	broadcast()

	logger.Info("trashpin running",
		"renderer", listen,
		"seedMarkers", catalog.Len(),
		"version", version,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("Shutting down")

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := slogMgr.Flush(flushCtx); err != nil {
		logger.Warn("Log flush failed", "error", err)
	}
	if err := otelProvider.Shutdown(flushCtx); err != nil {
		logger.Warn("Telemetry shutdown failed", "error", err)
	}

	return nil
}

// restoreSession greets a returning user when the stored token is still
// fresh, drags the profile cache up to date, and wipes expired sessions.
func restoreSession(client *auth.Client, session *credstore.Session, logger *slog.Logger) {
	access, _, err := session.Tokens()
	if err != nil {
		return
	}

	if !auth.TokenFresh(access, time.Minute) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Refresh(ctx); err != nil {
			logger.Info("Stored session expired", "error", err)
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	user, err := client.CurrentUser(ctx)
	if err != nil {
		logger.Info("Could not restore session", "error", err)
		return
	}
	logger.Info("Signed in", "username", user.Username)
}
