package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/CodeBotMzee/FYP/internal/camera"
	"github.com/CodeBotMzee/FYP/internal/catalog"
	"github.com/CodeBotMzee/FYP/internal/classifier"
	"github.com/CodeBotMzee/FYP/internal/config"
	"github.com/CodeBotMzee/FYP/internal/detect"
	"github.com/CodeBotMzee/FYP/internal/inference"
	"github.com/CodeBotMzee/FYP/internal/lgr"
	"github.com/CodeBotMzee/FYP/internal/metrics"
	"github.com/CodeBotMzee/FYP/internal/preprocess"
	"github.com/CodeBotMzee/FYP/internal/registry"
)

type Options struct {
	CameraIndex int
	Model       string
	FPS         int
}

func main() {
	opts := parseFlags()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", detect.Code(err), err)
		os.Exit(1)
	}
}

func parseFlags() Options {
	opts := Options{}

	flag.IntVar(&opts.CameraIndex, "camera", 0, "Camera device index")
	flag.IntVar(&opts.CameraIndex, "c", 0, "Camera device index (shorthand)")
	flag.StringVar(&opts.Model, "model", catalog.DefaultKey, "Model key")
	flag.StringVar(&opts.Model, "m", catalog.DefaultKey, "Model key (shorthand)")
	flag.IntVar(&opts.FPS, "fps", 5, "Frames per second to classify")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "camera - live deepfake detection from a webcam\n\n")
		fmt.Fprintf(os.Stderr, "Usage: camera [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()
	return opts
}

func run(opts Options) error {
	cfg := config.Load()
	if cfg.LogFile != "" {
		lgr.UseRotatingFile(cfg.LogFile)
	}

	rootCtx := context.Background()
	ctx, cancel := context.WithCancel(rootCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		lgr.Logger.Info("received kill signal", slog.Any("signal", sig))
		cancel()
	}()

	if err := inference.Initialize(cfg.ORTLibraryPath, cfg.UseAcceleration); err != nil {
		return err
	}
	defer inference.Shutdown()

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", m.Handler())
			lgr.Logger.Info("metrics listening", slog.String("addr", cfg.MetricsAddr))
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				lgr.Logger.Error("metrics server stopped", lgr.Err(err))
			}
		}()
	}

	reg := registry.New(func(desc catalog.Descriptor) (classifier.Backend, error) {
		backend, err := classifier.New(desc, filepath.Join(cfg.ModelDir, desc.ModelFile))
		if err != nil {
			return nil, err
		}
		m.ModelLoads.WithLabelValues(desc.Key).Inc()
		return backend, nil
	})
	defer reg.Close()

	var faces *preprocess.FaceEnhancer
	if cfg.FaceStage {
		faces = preprocess.NewFaceEnhancer(cfg.CascadePath)
		defer faces.Close()
	}

	svc := detect.New(detect.Config{
		SampleFPS:  cfg.SampleFPS,
		WindowSize: cfg.WindowSize,
		FaceStage:  faces != nil,
		SessionTTL: cfg.SessionTTL,
	}, reg, faces, m)

	capture, err := camera.NewCapture(opts.CameraIndex)
	if err != nil {
		return err
	}
	defer capture.Close()

	lgr.Logger.Info("camera open",
		slog.Int("device", opts.CameraIndex),
		slog.Int("width", capture.Width()),
		slog.Int("height", capture.Height()),
		slog.String("model", opts.Model),
	)

	interval := time.Second
	if opts.FPS > 1 {
		interval = time.Second / time.Duration(opts.FPS)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sessionID := ""
	defer func() {
		if sessionID != "" {
			svc.EndCameraSession(sessionID)
		}
	}()

	fakeLabel := color.New(color.FgRed, color.Bold)
	realLabel := color.New(color.FgGreen, color.Bold)

	for {
		select {
		case <-ctx.Done():
			lgr.Logger.Info("camera loop stopped")
			return nil
		case <-ticker.C:
		}

		data, err := capture.ReadJPEG()
		if err != nil {
			if errors.Is(err, camera.ErrNoFrame) {
				continue
			}
			return err
		}

		verdict, err := svc.DetectCameraFrame(ctx, data, opts.Model, sessionID)
		if err != nil {
			if detect.ClientError(err) {
				return err
			}
			lgr.Logger.Warn("frame not classified", lgr.Err(err))
			continue
		}
		sessionID = verdict.SessionID

		if verdict.IsFake {
			fakeLabel.Printf("\rFAKE")
		} else {
			realLabel.Printf("\rREAL")
		}
		fmt.Printf("  %.1f%%   ", verdict.Confidence)
	}
}
