package detect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"gocv.io/x/gocv"

	"github.com/CodeBotMzee/FYP/internal/catalog"
	"github.com/CodeBotMzee/FYP/internal/classifier"
	"github.com/CodeBotMzee/FYP/internal/media"
	"github.com/CodeBotMzee/FYP/internal/registry"
)

// scriptedBackend replays a fixed sequence of results, one per
// Classify call. A nil result slot yields an inference error.
type scriptedBackend struct {
	mu     sync.Mutex
	script []*classifier.Result
	calls  int
	repeat bool
}

func (b *scriptedBackend) Classify(classifier.Input) (classifier.Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := b.calls
	b.calls++
	if b.repeat {
		idx %= len(b.script)
	}
	if idx >= len(b.script) {
		return classifier.Result{}, fmt.Errorf("%w: script exhausted", classifier.ErrInference)
	}
	if b.script[idx] == nil {
		return classifier.Result{}, fmt.Errorf("%w: scripted fault", classifier.ErrInference)
	}
	return *b.script[idx], nil
}

func (b *scriptedBackend) Close() error { return nil }

type fakeResolver struct {
	backend classifier.Backend
	err     error
	calls   int
}

func (r *fakeResolver) Resolve(key string) (classifier.Backend, error) {
	r.calls++
	if _, err := catalog.Get(key); err != nil {
		return nil, err
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.backend, nil
}

func res(label classifier.Label, p float64) *classifier.Result {
	return &classifier.Result{Label: label, Probability: p}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func newTestService(backend classifier.Backend) (*Service, *fakeResolver) {
	resolver := &fakeResolver{backend: backend}
	svc := New(Config{WindowSize: 3}, resolver, nil, nil)
	return svc, resolver
}

func TestListModels(t *testing.T) {
	svc, _ := newTestService(&scriptedBackend{})
	models := svc.ListModels()
	if len(models) != len(catalog.List()) {
		t.Fatalf("got %d models, want %d", len(models), len(catalog.List()))
	}
}

func TestDetectImage(t *testing.T) {
	backend := &scriptedBackend{script: []*classifier.Result{res(classifier.LabelFake, 0.91)}}
	svc, _ := newTestService(backend)

	v, err := svc.DetectImage(context.Background(), pngBytes(t), "dima806")
	if err != nil {
		t.Fatalf("DetectImage: %v", err)
	}
	if !v.IsFake {
		t.Error("expected fake verdict")
	}
	if math.Abs(v.Confidence-91.0) > 1e-9 {
		t.Errorf("confidence = %v, want 91.0", v.Confidence)
	}
	if v.ModelUsed != "Dima806 Deepfake Detector" {
		t.Errorf("model used = %q", v.ModelUsed)
	}
}

func TestDetectImageErrors(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		model    string
		backend  *scriptedBackend
		loadErr  error
		wantCode string
	}{
		{
			name:     "unknown model",
			data:     nil,
			model:    "no-such-model",
			backend:  &scriptedBackend{},
			wantCode: CodeUnknownModel,
		},
		{
			name:     "unsupported media",
			data:     []byte("not an image"),
			model:    "dima806",
			backend:  &scriptedBackend{script: []*classifier.Result{res(classifier.LabelReal, 0.9)}},
			wantCode: CodeUnsupportedMedia,
		},
		{
			name:     "model load failure",
			model:    "dima806",
			backend:  &scriptedBackend{},
			loadErr:  fmt.Errorf("%w: dima806: weights missing", registry.ErrModelLoad),
			wantCode: CodeModelLoad,
		},
		{
			name:     "inference fault",
			model:    "dima806",
			backend:  &scriptedBackend{script: []*classifier.Result{nil}},
			wantCode: CodeInference,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := &fakeResolver{backend: tt.backend, err: tt.loadErr}
			svc := New(Config{}, resolver, nil, nil)

			data := tt.data
			if data == nil && tt.wantCode != CodeUnknownModel {
				data = pngBytes(t)
			}

			v, err := svc.DetectImage(context.Background(), data, tt.model)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := Code(err); got != tt.wantCode {
				t.Errorf("Code(err) = %q, want %q (err: %v)", got, tt.wantCode, err)
			}
			if v != (Verdict{}) {
				t.Errorf("error carried a partial verdict: %+v", v)
			}
		})
	}
}

func TestDetectCameraFrameStabilization(t *testing.T) {
	// Window capacity 3: one noisy fake frame among reals must not
	// flip the stabilized verdict once the majority is real.
	backend := &scriptedBackend{script: []*classifier.Result{
		res(classifier.LabelReal, 0.8),
		res(classifier.LabelFake, 0.95),
		res(classifier.LabelReal, 0.7),
	}}
	svc, _ := newTestService(backend)
	ctx := context.Background()
	frame := pngBytes(t)

	v1, err := svc.DetectCameraFrame(ctx, frame, "dima806", "")
	if err != nil {
		t.Fatalf("first frame: %v", err)
	}
	if v1.SessionID == "" {
		t.Fatal("empty session id was not replaced with a fresh one")
	}
	if v1.IsFake {
		t.Error("single real frame judged fake")
	}

	v2, err := svc.DetectCameraFrame(ctx, frame, "dima806", v1.SessionID)
	if err != nil {
		t.Fatalf("second frame: %v", err)
	}
	if v2.SessionID != v1.SessionID {
		t.Errorf("session id changed: %q vs %q", v2.SessionID, v1.SessionID)
	}

	v3, err := svc.DetectCameraFrame(ctx, frame, "dima806", v1.SessionID)
	if err != nil {
		t.Fatalf("third frame: %v", err)
	}
	if v3.IsFake {
		t.Error("real majority 2:1 did not win the window vote")
	}
	if math.Abs(v3.Confidence-75.0) > 1e-9 {
		t.Errorf("confidence = %v, want 75.0 (mean of 0.8 and 0.7)", v3.Confidence)
	}

	svc.EndCameraSession(v1.SessionID)
	if svc.sessions.count() != 0 {
		t.Error("session survived EndCameraSession")
	}
}

func TestDetectCameraFrameSessionsIsolated(t *testing.T) {
	backend := &scriptedBackend{script: []*classifier.Result{
		res(classifier.LabelFake, 0.9),
		res(classifier.LabelReal, 0.9),
	}}
	svc, _ := newTestService(backend)
	ctx := context.Background()
	frame := pngBytes(t)

	v1, err := svc.DetectCameraFrame(ctx, frame, "dima806", "session-a")
	if err != nil {
		t.Fatalf("session-a: %v", err)
	}
	v2, err := svc.DetectCameraFrame(ctx, frame, "dima806", "session-b")
	if err != nil {
		t.Fatalf("session-b: %v", err)
	}

	// Each session votes over its own single-frame window.
	if !v1.IsFake || v2.IsFake {
		t.Errorf("windows leaked across sessions: a=%+v b=%+v", v1, v2)
	}
}

// videoBytes encodes a short MJPG clip, skipping when no codec exists.
func videoBytes(t *testing.T, frames int, fps float64) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "clip.avi")
	writer, err := gocv.VideoWriterFile(path, "MJPG", fps, 64, 48, true)
	if err != nil {
		t.Skipf("video writer unavailable: %v", err)
	}
	if !writer.IsOpened() {
		writer.Close()
		t.Skip("MJPG codec unavailable")
	}

	mat := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer mat.Close()
	for i := 0; i < frames; i++ {
		mat.SetTo(gocv.NewScalar(float64(40 + i), 80, 160, 0))
		if err := writer.Write(mat); err != nil {
			writer.Close()
			t.Fatalf("writing frame %d: %v", i, err)
		}
	}
	writer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading clip: %v", err)
	}
	return data
}

func TestDetectVideo(t *testing.T) {
	// 90 frames at 30 fps sampled at 1 fps = 3 classified frames.
	clip := videoBytes(t, 90, 30)
	backend := &scriptedBackend{script: []*classifier.Result{
		res(classifier.LabelFake, 0.9),
		res(classifier.LabelFake, 0.8),
		res(classifier.LabelReal, 0.6),
	}}
	svc, _ := newTestService(backend)

	v, err := svc.DetectVideo(context.Background(), clip, "dima806")
	if err != nil {
		t.Fatalf("DetectVideo: %v", err)
	}
	if !v.IsFake {
		t.Error("fake majority did not win")
	}
	if math.Abs(v.Confidence-85.0) > 1e-9 {
		t.Errorf("confidence = %v, want 85.0", v.Confidence)
	}
	if v.Frames != 3 || v.FakeFrames != 2 || v.RealFrames != 1 {
		t.Errorf("counts = %d/%d/%d, want 3/2/1", v.Frames, v.FakeFrames, v.RealFrames)
	}
}

func TestDetectVideoSkipsFailedFrames(t *testing.T) {
	clip := videoBytes(t, 90, 30)
	backend := &scriptedBackend{script: []*classifier.Result{
		res(classifier.LabelReal, 0.9),
		nil, // this frame fails inference and is skipped
		res(classifier.LabelReal, 0.7),
	}}
	svc, _ := newTestService(backend)

	v, err := svc.DetectVideo(context.Background(), clip, "dima806")
	if err != nil {
		t.Fatalf("DetectVideo: %v", err)
	}
	if v.Frames != 2 {
		t.Errorf("frames = %d, want 2 after one skip", v.Frames)
	}
	if v.IsFake {
		t.Error("expected real verdict")
	}
}

func TestDetectVideoAllFramesFailed(t *testing.T) {
	clip := videoBytes(t, 90, 30)
	backend := &scriptedBackend{script: []*classifier.Result{nil}, repeat: true}
	svc, _ := newTestService(backend)

	_, err := svc.DetectVideo(context.Background(), clip, "dima806")
	if !errors.Is(err, media.ErrEmptyMedia) {
		t.Errorf("expected ErrEmptyMedia, got %v", err)
	}
}

func TestDetectVideoCanceled(t *testing.T) {
	clip := videoBytes(t, 90, 30)
	backend := &scriptedBackend{script: []*classifier.Result{res(classifier.LabelReal, 0.9)}, repeat: true}
	svc, _ := newTestService(backend)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.DetectVideo(ctx, clip, "dima806")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if got := Code(err); got != CodeCanceled {
		t.Errorf("Code(err) = %q, want %q", got, CodeCanceled)
	}
}

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"unknown model", catalog.ErrUnknownModel, CodeUnknownModel},
		{"model load", registry.ErrModelLoad, CodeModelLoad},
		{"unsupported media", media.ErrUnsupportedMedia, CodeUnsupportedMedia},
		{"empty media", media.ErrEmptyMedia, CodeEmptyMedia},
		{"inference", classifier.ErrInference, CodeInference},
		{"canceled", context.Canceled, CodeCanceled},
		{"wrapped", fmt.Errorf("outer: %w", media.ErrEmptyMedia), CodeEmptyMedia},
		{"other", errors.New("boom"), CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Code(tt.err); got != tt.want {
				t.Errorf("Code() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientError(t *testing.T) {
	if !ClientError(media.ErrUnsupportedMedia) {
		t.Error("unsupported media should be a client error")
	}
	if ClientError(registry.ErrModelLoad) {
		t.Error("model load failures are server-side")
	}
}
