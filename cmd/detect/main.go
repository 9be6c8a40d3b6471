package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

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
	Input     string
	MediaType string
	Model     string
	List      bool
	SampleFPS float64
	NoFace    bool
}

var videoExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
}

func main() {
	opts := parseFlags()

	if opts.List {
		listModels()
		return
	}

	if opts.Input == "" {
		fmt.Fprintln(os.Stderr, "Error: --input flag is required")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", detect.Code(err), err)
		os.Exit(1)
	}
}

func parseFlags() Options {
	opts := Options{}

	flag.StringVar(&opts.Input, "input", "", "Image or video file to analyze (required)")
	flag.StringVar(&opts.Input, "i", "", "Image or video file to analyze (shorthand)")
	flag.StringVar(&opts.MediaType, "type", "auto", "Media type: image, video or auto")
	flag.StringVar(&opts.Model, "model", catalog.DefaultKey, "Model key (see --list)")
	flag.StringVar(&opts.Model, "m", catalog.DefaultKey, "Model key (shorthand)")
	flag.BoolVar(&opts.List, "list", false, "List available models and exit")
	flag.Float64Var(&opts.SampleFPS, "sample", 0, "Video sampling rate in frames per second (0 = default)")
	flag.BoolVar(&opts.NoFace, "no-face", false, "Disable the face localization stage")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "detect - deepfake detection for images and videos\n\n")
		fmt.Fprintf(os.Stderr, "Usage: detect [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  detect --list\n")
		fmt.Fprintf(os.Stderr, "  detect --input photo.jpg\n")
		fmt.Fprintf(os.Stderr, "  detect --input clip.mp4 --model open-deepfake --sample 2\n")
	}

	flag.Parse()
	return opts
}

func listModels() {
	bold := color.New(color.Bold)
	for _, m := range catalog.Summaries() {
		bold.Printf("%-15s", m.Key)
		fmt.Printf(" %s - %s\n", m.Name, m.Description)
	}
}

func run(opts Options) error {
	cfg := config.Load()
	if cfg.LogFile != "" {
		lgr.UseRotatingFile(cfg.LogFile)
	}

	data, err := os.ReadFile(opts.Input)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	mediaType := opts.MediaType
	if mediaType == "auto" {
		mediaType = "image"
		if videoExtensions[strings.ToLower(filepath.Ext(opts.Input))] {
			mediaType = "video"
		}
	}
	if mediaType != "image" && mediaType != "video" {
		return fmt.Errorf("invalid media type: %s (use 'image' or 'video')", mediaType)
	}

	if err := inference.Initialize(cfg.ORTLibraryPath, cfg.UseAcceleration); err != nil {
		return err
	}
	defer inference.Shutdown()

	m := metrics.New()
	reg := registry.New(newLoader(cfg.ModelDir, m))
	defer reg.Close()

	var faces *preprocess.FaceEnhancer
	if cfg.FaceStage && !opts.NoFace {
		faces = preprocess.NewFaceEnhancer(cfg.CascadePath)
		defer faces.Close()
	}

	sampleFPS := cfg.SampleFPS
	if opts.SampleFPS > 0 {
		sampleFPS = opts.SampleFPS
	}

	svc := detect.New(detect.Config{
		SampleFPS:  sampleFPS,
		WindowSize: cfg.WindowSize,
		FaceStage:  faces != nil,
		SessionTTL: cfg.SessionTTL,
	}, reg, faces, m)

	ctx := context.Background()
	var verdict detect.Verdict
	if mediaType == "video" {
		verdict, err = svc.DetectVideo(ctx, data, opts.Model)
	} else {
		verdict, err = svc.DetectImage(ctx, data, opts.Model)
	}
	if err != nil {
		return err
	}

	printVerdict(verdict, mediaType)
	return nil
}

// newLoader materializes backends from ONNX files in modelDir.
func newLoader(modelDir string, m *metrics.Metrics) registry.Loader {
	return func(desc catalog.Descriptor) (classifier.Backend, error) {
		path := filepath.Join(modelDir, desc.ModelFile)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("model file %s not found, export %s to ONNX and place it there: %w",
				path, desc.Key, err)
		}
		backend, err := classifier.New(desc, path)
		if err != nil {
			return nil, err
		}
		m.ModelLoads.WithLabelValues(desc.Key).Inc()
		return backend, nil
	}
}

func printVerdict(v detect.Verdict, mediaType string) {
	label := color.New(color.FgGreen, color.Bold)
	text := "REAL"
	if v.IsFake {
		label = color.New(color.FgRed, color.Bold)
		text = "FAKE"
	}

	label.Printf("%s", text)
	fmt.Printf("  confidence=%.1f%%  model=%s", v.Confidence, v.ModelUsed)
	if mediaType == "video" {
		fmt.Printf("  frames=%d (fake=%d real=%d)", v.Frames, v.FakeFrames, v.RealFrames)
	}
	fmt.Println()
}
