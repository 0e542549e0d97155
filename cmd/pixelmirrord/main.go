// Command pixelmirrord runs one end of a pixelmirror connection, sender
// or receiver depending on the loaded configuration's role.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/e7canasta/pixelmirror/bus"
	"github.com/e7canasta/pixelmirror/codec"
	"github.com/e7canasta/pixelmirror/config"
	"github.com/e7canasta/pixelmirror/control"
	"github.com/e7canasta/pixelmirror/receiver"
	"github.com/e7canasta/pixelmirror/sender"
	"github.com/e7canasta/pixelmirror/telemetry"
	"github.com/e7canasta/pixelmirror/transport"
	"github.com/e7canasta/pixelmirror/transport/wstransport"
	"github.com/e7canasta/pixelmirror/wire"
)

const defaultConfigPath = "config/pixelmirror.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to session configuration")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("pixelmirrord: failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	manager, diagHandler, err := wireRole(ctx, cfg)
	if err != nil {
		slog.Error("pixelmirrord: failed to start", "error", err)
		os.Exit(1)
	}

	var diagSrv *http.Server
	if cfg.DiagnosticsAddr != "" && diagHandler != nil {
		mux := http.NewServeMux()
		mux.Handle("/diagnostics", diagHandler)
		diagSrv = &http.Server{Addr: cfg.DiagnosticsAddr, Handler: mux}
		go func() {
			if err := diagSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("pixelmirrord: diagnostics server failed", "error", err)
			}
		}()
		slog.Info("pixelmirrord: diagnostics listening", "addr", cfg.DiagnosticsAddr)
	}

	emitter := telemetry.NewEmitter(cfg.MQTT)
	if cfg.MQTT.Broker != "" {
		if err := emitter.Connect(); err != nil {
			slog.Warn("pixelmirrord: mqtt connect failed, continuing without telemetry", "error", err)
		} else {
			emitter.AttachStatus(manager)
			emitter.AttachLatency(manager)
			defer emitter.Disconnect()
		}
	}

	metrics := telemetry.NewMetrics(cfg.InstanceID)
	metrics.AttachReconnectCounting(manager)

	slog.Info("pixelmirrord: running", "instance_id", cfg.InstanceID, "role", cfg.Role)

	select {
	case sig := <-sigCh:
		slog.Info("pixelmirrord: received shutdown signal", "signal", sig)
	case <-ctx.Done():
	}

	cancel()
	if err := manager.Stop(); err != nil {
		slog.Warn("pixelmirrord: manager stop", "error", err)
	}
	if diagSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := diagSrv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("pixelmirrord: diagnostics shutdown", "error", err)
		}
	}
	slog.Info("pixelmirrord: stopped")
}

// wireRole builds and starts the transport.Manager for cfg.Role, plus the
// diagnostics handler for that role: a control.Handler for a sender, a
// control.ReceiverHandler for a receiver.
func wireRole(ctx context.Context, cfg *config.Config) (*transport.Manager, http.Handler, error) {
	mgrCfg := transport.Config{
		DelayInitial:      time.Duration(cfg.ReconnectDelayInitialMS) * time.Millisecond,
		DelayMax:          time.Duration(cfg.ReconnectDelayMaxMS) * time.Millisecond,
		ConnectTimeout:    time.Duration(cfg.ConnectTimeoutMS) * time.Millisecond,
		OutboundHighWater: cfg.OutboundHighWater,
	}

	var rawCodec codec.Raw

	switch cfg.Role {
	case "sender":
		manager := transport.New(mgrCfg, wstransport.Dial(cfg.DialURL))
		if err := manager.Start(ctx); err != nil {
			return nil, nil, err
		}

		w, h := cfg.DefaultWidth, cfg.DefaultHeight
		if w == 0 {
			w = 1920
		}
		if h == 0 {
			h = 1080
		}
		source := newSyntheticSource(w, h)

		sessCfg := sender.Config{
			TileSize:          cfg.TileSize,
			FallbackThreshold: cfg.FallbackThreshold,
			CaptureInterval:   time.Duration(cfg.CaptureIntervalMS) * time.Millisecond,
			WorkerPoolSize:    cfg.WorkerPoolSize,
			MonitorID:         cfg.MonitorID,
		}
		sess := sender.New(sessCfg, source, rawCodec, rawCodec, manager)
		go func() {
			if err := sess.Run(ctx); err != nil && ctx.Err() == nil {
				slog.Warn("sender: session run ended", "error", err)
			}
		}()

		manager.OnMessage(func(msg []byte) {
			handleSenderInbound(ctx, sess, msg)
		})

		return manager, control.NewHandler(sess, manager), nil

	case "receiver":
		var accepted = make(chan transport.Conn, 1)
		srv := &http.Server{Addr: cfg.ListenAddr, Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn, err := wstransport.Accept(w, r)
			if err != nil {
				slog.Warn("receiver: accept failed", "error", err)
				return
			}
			select {
			case accepted <- conn:
			default:
				conn.Close()
			}
		})}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("receiver: listen failed", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		manager := transport.New(mgrCfg, func(ctx context.Context) (transport.Conn, error) {
			select {
			case conn := <-accepted:
				return conn, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		})
		if err := manager.Start(ctx); err != nil {
			return nil, nil, err
		}

		w, h := cfg.DefaultWidth, cfg.DefaultHeight
		if w == 0 {
			w = 1920
		}
		if h == 0 {
			h = 1080
		}
		canvas := receiver.New(w, h, cfg.TileSize, rawCodec, rawCodec)
		out := bus.New()
		recvSess := receiver.NewSession(canvas, manager, out)

		return manager, control.NewReceiverHandler(recvSess, manager), nil

	default:
		return nil, nil, fmt.Errorf("pixelmirrord: unknown role %q", cfg.Role)
	}
}

// handleSenderInbound answers a client Resync request on the sender side
// (spec §4.2's supplemented server-answers-Resync-with-keyframe behavior).
func handleSenderInbound(ctx context.Context, sess *sender.Session, msg []byte) {
	if len(msg) == 0 || wire.Kind(msg[0]) != wire.KindResync {
		return
	}
	if err := sess.HandleResync(ctx); err != nil {
		slog.Warn("sender: resync handling failed", "error", err)
	}
}

