// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"ptt/internal/audio"
	"ptt/internal/config"
	"ptt/internal/log"
	"ptt/internal/metrics"
	"ptt/internal/tui"
)

const shutdownTimeout = 5 * time.Second

// run starts the pipeline and blocks in the terminal UI. The metrics server
// and the relay subscriber run alongside it and stop when the UI exits or
// ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, logFile string) error {
	// ==================== STARTUP PHASE (Cold Path) ====================

	level, _ := log.ParseLevel(cfg.LogLevel)
	if cfg.Debug {
		level = log.LevelDebug
	}
	log.SetLevel(level)

	// The UI owns the terminal.
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	log.SetOutput(zapcore.AddSync(f))
	defer func() {
		_ = log.Sync()
		log.SetOutput(zapcore.Lock(os.Stderr))
	}()

	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Enabled {
		if err := serveMetrics(ctx, g, cfg.Metrics.Address); err != nil {
			return err
		}
	}

	backend := audio.NewPortAudioBackend(audio.PortAudioConfig{
		InputDevice:     cfg.Audio.InputDevice,
		OutputDevice:    cfg.Audio.OutputDevice,
		FramesPerBuffer: cfg.Audio.FramesPerBuffer,
		LowLatency:      cfg.Audio.LowLatency,
	})
	p, err := buildPipeline(cfg, backend, metrics.Default())
	if err != nil {
		cancel()
		return multierror.Append(err, g.Wait())
	}
	log.Infof("pipeline running: mode=%s", p.mode)

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	if p.subscriber != nil {
		g.Go(func() error { return p.subscriber.Run(ctx) })
	}

	g.Go(func() error {
		defer cancel()
		opts := []tui.PTTOption{tui.WithMode(p.mode)}
		if p.transcripts != nil {
			opts = append(opts, tui.WithTranscripts(p.transcripts))
		}
		err := tui.RunPTT(ctx, tui.NewPTTModel(p.gate, p.handle, p.counter, opts...))
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	var result *multierror.Error
	if err := g.Wait(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := p.handle.Close(); err != nil {
		log.Errorf("shutdown: %v", err)
		result = multierror.Append(result, err)
	}
	if err := p.handle.Err(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// serveMetrics installs the Prometheus exporter and serves /metrics on addr
// until ctx is done.
func serveMetrics(ctx context.Context, g *errgroup.Group, addr string) error {
	handler, shutdown, err := metrics.Init()
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: shutdownTimeout,
	}

	g.Go(func() error {
		log.Infof("metrics: serving on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return multierror.Append(srv.Shutdown(sctx), shutdown(sctx)).ErrorOrNil()
	})
	return nil
}
