package detect

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gocv.io/x/gocv"

	"github.com/CodeBotMzee/FYP/internal/catalog"
	"github.com/CodeBotMzee/FYP/internal/classifier"
	"github.com/CodeBotMzee/FYP/internal/lgr"
	"github.com/CodeBotMzee/FYP/internal/media"
	"github.com/CodeBotMzee/FYP/internal/metrics"
	"github.com/CodeBotMzee/FYP/internal/preprocess"
	"github.com/CodeBotMzee/FYP/internal/verdict"
)

// Resolver returns the loaded backend for a model key. Satisfied by
// *registry.Registry; injectable so the service can be exercised with
// fakes.
type Resolver interface {
	Resolve(key string) (classifier.Backend, error)
}

// Config tunes the detection service.
type Config struct {
	SampleFPS  float64       // video sampling rate, frames per second of stream time
	WindowSize int           // stabilization window capacity per camera session
	FaceStage  bool          // run face localization/enhancement before preparing frames
	SessionTTL time.Duration // idle camera sessions are pruned after this
}

// Verdict is the final result returned to the transport layer. The
// numeric fields are only meaningful on success; errors never carry a
// partial verdict.
type Verdict struct {
	IsFake     bool    `json:"is_fake"`
	Confidence float64 `json:"confidence"` // [0,100]
	ModelUsed  string  `json:"model_used"`
	SessionID  string  `json:"session_id,omitempty"` // camera only
	Frames     int     `json:"frames,omitempty"`     // video only: frames scored
	FakeFrames int     `json:"fake_frames,omitempty"`
	RealFrames int     `json:"real_frames,omitempty"`
}

// Service orchestrates the detection pipeline: resolve backend, decode
// media into frames, preprocess, classify, then aggregate or stabilize.
type Service struct {
	cfg      Config
	resolver Resolver
	faces    *preprocess.FaceEnhancer
	sessions *sessionStore
	metrics  *metrics.Metrics
}

// New creates the detection service. faces may be nil to disable the
// face stage regardless of Config.FaceStage; m may be nil to skip
// metrics collection.
func New(cfg Config, resolver Resolver, faces *preprocess.FaceEnhancer, m *metrics.Metrics) *Service {
	if cfg.SampleFPS <= 0 {
		cfg.SampleFPS = media.DefaultSampleFPS
	}
	if cfg.WindowSize < 1 {
		cfg.WindowSize = verdict.DefaultWindowSize
	}
	return &Service{
		cfg:      cfg,
		resolver: resolver,
		faces:    faces,
		sessions: newSessionStore(cfg.WindowSize, cfg.SessionTTL),
		metrics:  m,
	}
}

// ListModels returns the selectable models in stable order.
func (s *Service) ListModels() []catalog.Summary {
	return catalog.Summaries()
}

// DetectImage classifies a single uploaded image.
func (s *Service) DetectImage(ctx context.Context, data []byte, modelKey string) (Verdict, error) {
	desc, backend, err := s.resolve(modelKey)
	if err != nil {
		return Verdict{}, err
	}
	if err := ctx.Err(); err != nil {
		return Verdict{}, err
	}

	frame, err := media.DecodeImage(data)
	if err != nil {
		return Verdict{}, err
	}
	defer frame.Close()

	res, err := s.classifyFrame(frame.Mat, desc, backend)
	if err != nil {
		return Verdict{}, err
	}
	s.countFrame("image")

	v := Verdict{
		IsFake:     res.Label == classifier.LabelFake,
		Confidence: res.Probability * 100,
		ModelUsed:  desc.Name,
	}
	s.recordVerdict(res.Label, desc.Key)
	lgr.Logger.Info("image detection",
		slog.String("model", desc.Key),
		slog.String("label", string(res.Label)),
		slog.Float64("confidence", v.Confidence),
	)
	return v, nil
}

// DetectVideo classifies an uploaded video: frames are sampled at the
// configured rate, classified in ascending time order and reduced by
// majority vote. A frame that cannot be scored is skipped; the job
// degrades to ErrEmptyMedia only when no frame survives. Cancellation
// is honored between frames and surfaces as an error, never a partial
// verdict.
func (s *Service) DetectVideo(ctx context.Context, data []byte, modelKey string) (Verdict, error) {
	desc, backend, err := s.resolve(modelKey)
	if err != nil {
		return Verdict{}, err
	}

	sampler, err := media.NewVideoSampler(data, s.cfg.SampleFPS)
	if err != nil {
		return Verdict{}, err
	}
	defer sampler.Close()

	var results []classifier.Result
	skipped := 0
	for {
		select {
		case <-ctx.Done():
			return Verdict{}, ctx.Err()
		default:
		}

		frame, ok := sampler.Next()
		if !ok {
			break
		}

		res, err := s.classifyFrame(frame.Mat, desc, backend)
		index := frame.Index
		frame.Close()
		if err != nil {
			skipped++
			s.countSkip()
			lgr.Logger.Warn("video frame skipped",
				slog.Int("frame", index),
				slog.String("model", desc.Key),
				lgr.Err(err),
			)
			continue
		}
		s.countFrame("video")
		results = append(results, res)
	}

	if len(results) == 0 {
		return Verdict{}, fmt.Errorf("%w: no scorable frames in video", media.ErrEmptyMedia)
	}

	agg, err := verdict.Aggregate(results)
	if err != nil {
		return Verdict{}, err
	}

	v := Verdict{
		IsFake:     agg.Label == classifier.LabelFake,
		Confidence: agg.Confidence,
		ModelUsed:  desc.Name,
		Frames:     agg.Frames,
		FakeFrames: agg.FakeFrames,
		RealFrames: agg.RealFrames,
	}
	s.recordVerdict(agg.Label, desc.Key)
	lgr.Logger.Info("video detection",
		slog.String("model", desc.Key),
		slog.String("label", string(agg.Label)),
		slog.Float64("confidence", v.Confidence),
		slog.Int("frames", agg.Frames),
		slog.Int("fakeFrames", agg.FakeFrames),
		slog.Int("skipped", skipped),
	)
	return v, nil
}

// DetectCameraFrame classifies one live frame and folds it into the
// session's stabilization window. sessionID selects the window; an
// empty id starts a new session whose id comes back in the verdict.
func (s *Service) DetectCameraFrame(ctx context.Context, data []byte, modelKey, sessionID string) (Verdict, error) {
	desc, backend, err := s.resolve(modelKey)
	if err != nil {
		return Verdict{}, err
	}
	if err := ctx.Err(); err != nil {
		return Verdict{}, err
	}

	frame, err := media.DecodeCameraFrame(data)
	if err != nil {
		return Verdict{}, err
	}
	defer frame.Close()

	res, err := s.classifyFrame(frame.Mat, desc, backend)
	if err != nil {
		return Verdict{}, err
	}
	s.countFrame("camera")

	id, sess := s.sessions.get(sessionID)
	sess.mu.Lock()
	st := sess.window.Push(res)
	sess.mu.Unlock()
	s.gaugeSessions()

	return Verdict{
		IsFake:     st.Label == classifier.LabelFake,
		Confidence: st.Confidence,
		ModelUsed:  desc.Name,
		SessionID:  id,
	}, nil
}

// EndCameraSession destroys the session's stabilization window.
func (s *Service) EndCameraSession(sessionID string) {
	s.sessions.end(sessionID)
	s.gaugeSessions()
}

// resolve looks up the descriptor and its loaded backend.
func (s *Service) resolve(modelKey string) (catalog.Descriptor, classifier.Backend, error) {
	desc, err := catalog.Get(modelKey)
	if err != nil {
		return catalog.Descriptor{}, nil, err
	}
	backend, err := s.resolver.Resolve(modelKey)
	if err != nil {
		return catalog.Descriptor{}, nil, err
	}
	return desc, backend, nil
}

// classifyFrame runs one frame through the optional face stage, the
// preprocessor and the backend.
func (s *Service) classifyFrame(mat gocv.Mat, desc catalog.Descriptor, backend classifier.Backend) (classifier.Result, error) {
	work := mat
	var enhanced gocv.Mat
	if s.cfg.FaceStage && desc.FaceCrop && s.faces != nil {
		enhanced = s.faces.Enhance(mat)
		defer enhanced.Close()
		work = enhanced
	}

	input, err := preprocess.Prepare(work, desc)
	if err != nil {
		return classifier.Result{}, fmt.Errorf("%w: %v", classifier.ErrInference, err)
	}

	start := time.Now()
	res, err := backend.Classify(input)
	if s.metrics != nil {
		s.metrics.InferenceSeconds.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return classifier.Result{}, err
	}
	return res, nil
}

func (s *Service) countFrame(source string) {
	if s.metrics != nil {
		s.metrics.FramesProcessed.WithLabelValues(source).Inc()
	}
}

func (s *Service) countSkip() {
	if s.metrics != nil {
		s.metrics.FramesSkipped.Inc()
	}
}

func (s *Service) recordVerdict(label classifier.Label, modelKey string) {
	if s.metrics != nil {
		s.metrics.Detections.WithLabelValues(string(label), modelKey).Inc()
	}
}

func (s *Service) gaugeSessions() {
	if s.metrics != nil {
		s.metrics.ActiveSessions.Set(float64(s.sessions.count()))
	}
}
