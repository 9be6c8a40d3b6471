package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/CodeBotMzee/FYP/internal/lgr"
	"github.com/CodeBotMzee/FYP/internal/verdict"
)

// Config holds the process configuration, populated from environment
// variables with sensible defaults.
type Config struct {
	ModelDir        string
	ORTLibraryPath  string
	UseAcceleration bool
	SampleFPS       float64
	WindowSize      int
	FaceStage       bool
	CascadePath     string
	SessionTTL      time.Duration
	LogFile         string
	MetricsAddr     string
}

// Load reads the configuration. In dev mode (RUN_TIME_ENV unset or
// "dev") a .env file is loaded first if present.
func Load() Config {
	env := os.Getenv("RUN_TIME_ENV")
	if env == "" || env == "dev" {
		if err := godotenv.Load(); err == nil {
			lgr.Logger.Info("loaded env vars from .env file")
		}
	}

	return Config{
		ModelDir:        getEnv("DETECT_MODEL_DIR", "models"),
		ORTLibraryPath:  getEnv("DETECT_ORT_LIB", "lib/libonnxruntime.dylib"),
		UseAcceleration: getEnvBool("DETECT_ACCEL", true),
		SampleFPS:       getEnvFloat("DETECT_SAMPLE_FPS", 1),
		WindowSize:      getEnvInt("DETECT_WINDOW_SIZE", verdict.DefaultWindowSize),
		FaceStage:       getEnvBool("DETECT_FACE_STAGE", true),
		CascadePath:     getEnv("DETECT_CASCADE", "models/haarcascade_frontalface_default.xml"),
		SessionTTL:      getEnvDuration("DETECT_SESSION_TTL", 5*time.Minute),
		LogFile:         getEnv("DETECT_LOG_FILE", ""),
		MetricsAddr:     getEnv("DETECT_METRICS_ADDR", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
