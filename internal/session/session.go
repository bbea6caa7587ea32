// Package session owns the single operator session: the active mode, the
// registration trial, the game and the correlation plot. Every mutating
// call is serialised, including the remote calls it waits on.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/correlation"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/game"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/models"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/registration"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/render"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/results"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/scheduler"
)

var (
	// ErrWrongMode is returned for operations the current mode does not allow.
	ErrWrongMode = errors.New("session: operation not allowed in this mode")
	// ErrNoTransition is returned when a mode change is refused.
	ErrNoTransition = errors.New("session: mode change refused")
	// ErrStaleTrial is returned when ablating a game trial whose reset
	// failed; the trial must be reset first.
	ErrStaleTrial = errors.New("session: trial needs a reset")
)

// Notices shown to the operator.
const (
	NoticeInsufficientData = "Not enough results to plot: at least 4 registrations are needed."
	NoticeDegenerateFits   = "Some correlations could not be computed; their fits are shown as zero."
	NoticeServiceFailure   = "The planning service could not be reached."
	NoticeNoReference      = "Results for this session are not being stored."
	NoticeGameOver         = "Game over."
)

// Planner is every remote operation the session drives.
type Planner interface {
	registration.Planner
	game.Scorer
	correlation.Correlator
}

// Recorder stores references and audit records.
type Recorder interface {
	registration.Recorder
	game.Auditor
	InitSession(ctx context.Context) (string, error)
}

// Options configures a Session.
type Options struct {
	Planner         Planner
	Recorder        Recorder
	Filters         *models.DisplayFilters
	TotalTrials     int
	TargetRadius    float64
	Width           int
	Height          int
	Scale           float64
	OutlineRowMajor bool
	// Rand drives the trial shuffle; nil seeds from the clock.
	Rand *rand.Rand
}

// Session is the one process-wide session.
type Session struct {
	mu  sync.Mutex
	log *zap.Logger

	recorder    Recorder
	filters     *models.DisplayFilters
	totalTrials int
	rng         *rand.Rand

	results *results.Store
	pre     *render.Canvas
	intra   *render.Canvas
	reg     *registration.Workflow
	game    *game.Workflow
	plot    *correlation.View

	mode       Mode
	panel      Mode
	regRef     string
	notice     string
	needsReset bool

	// set while running the effects of a game start
	pendingSeq *scheduler.Sequence
	pendingRef string
}

// New builds a session in interactive mode. Call Start before use.
func New(log *zap.Logger, o Options) *Session {
	log = log.Named("session")
	rng := o.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	filters := o.Filters
	if filters == nil {
		var err error
		if filters, err = models.LoadDisplayFilters(""); err != nil {
			log.Error("Embedded display filters are invalid", zap.Error(err))
		}
	}

	s := &Session{
		log:         log,
		recorder:    o.Recorder,
		filters:     filters,
		totalTrials: o.TotalTrials,
		rng:         rng,
		results:     results.NewStore(),
		pre:         render.NewCanvas(o.Width, o.Height, o.Scale),
		intra:       render.NewCanvas(o.Width, o.Height, o.Scale),
		mode:        Interactive,
		panel:       Interactive,
	}

	var pre, intra render.Surface = s.pre, s.intra
	if o.OutlineRowMajor {
		pre, intra = render.RowMajor{Surface: s.pre}, render.RowMajor{Surface: s.intra}
	}
	s.reg = registration.New(log, registration.Options{
		Planner:      o.Planner,
		Recorder:     o.Recorder,
		Results:      s.results,
		Pre:          pre,
		Intra:        intra,
		TargetRadius: o.TargetRadius,
	})
	s.game = game.New(log, o.Planner, s.reg, o.Recorder, o.TargetRadius)
	s.plot = correlation.NewView(log, o.Planner)

	if err := scheduler.Validate(o.TotalTrials, len(models.TrialConfigs)); err != nil {
		log.Warn("Game trial count is misconfigured; games will be empty", zap.Error(err))
	}
	return s
}

// SetTotalTrials changes the number of trials of the next game.
func (s *Session) SetTotalTrials(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n == s.totalTrials {
		return
	}
	if err := scheduler.Validate(n, len(models.TrialConfigs)); err != nil {
		s.log.Warn("Game trial count is misconfigured; games will be empty", zap.Error(err))
	}
	s.totalTrials = n
}

// Start opens the registration reference and resets the first trial.
// A missing reference only disables record writes.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, err := s.recorder.InitSession(ctx)
	if err != nil {
		s.log.Warn("Could not open a registration reference", zap.Error(err))
		s.notice = NoticeNoReference
	} else {
		s.log.Info("Registration reference opened", zap.String("reference", ref))
	}
	s.regRef = ref
	s.reg.SetReference(ref)

	if err := s.reg.ResetTrial(ctx); err != nil {
		return s.fail("start", err)
	}
	return nil
}

// fail logs a remote failure and shows the service notice.
func (s *Session) fail(op string, err error) error {
	s.log.Error("Operation failed", zap.String("op", op), zap.Error(err))
	s.notice = NoticeServiceFailure
	return err
}

// SetMode requests a switch to mode m.
func (s *Session) SetMode(ctx context.Context, m Mode) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := State{
		Mode:          s.mode,
		SequenceEmpty: s.game.Remaining() == 0,
		GameFinished:  s.game.Finished(),
		Results:       s.results.Len(),
	}
	next, effects := Transition(state, EventFor(m))
	if len(effects) == 0 {
		return s.view(), fmt.Errorf("%w: %s to %s", ErrNoTransition, s.mode, m)
	}

	s.log.Info("Mode change", zap.Stringer("from", s.mode), zap.Stringer("to", next))
	s.mode = next
	s.notice = ""
	for _, e := range effects {
		if err := s.apply(ctx, e); err != nil {
			return s.view(), err
		}
	}
	return s.view(), nil
}

func (s *Session) apply(ctx context.Context, e Effect) error {
	switch e {
	case ResetScores:
		s.game.ResetScores()
	case OpenGameReference:
		ref, err := s.recorder.InitSession(ctx)
		if err != nil {
			s.log.Warn("Could not open a game reference", zap.Error(err))
			s.notice = NoticeNoReference
		}
		s.pendingRef = ref
	case BuildSequence:
		s.pendingSeq = scheduler.Build(models.TrialConfigs, s.totalTrials, s.rng)
		if s.pendingSeq.Len() == 0 {
			s.log.Warn("Game built an empty trial sequence", zap.Int("total_trials", s.totalTrials))
		}
	case PopTrial:
		s.game.Begin(s.pendingSeq, s.pendingRef, s.regRef)
		s.pendingSeq, s.pendingRef = nil, ""
	case ResetTrial:
		if err := s.reg.ResetTrial(ctx); err != nil {
			s.needsReset = true
			return s.fail("reset trial", err)
		}
		s.needsReset = false
	case ShowGameSurfaces:
		s.panel = Game
	case ShowInteractiveSurfaces:
		s.panel = Interactive
	case ShowInsufficientData:
		s.panel = Plot
		// Entering with too few results also drops any earlier plot.
		_, _ = s.plot.Enter(ctx, nil)
		s.notice = NoticeInsufficientData
	case RequestCorrelation:
		s.panel = Plot
		summary, err := s.plot.Enter(ctx, s.results.Snapshot())
		if err != nil {
			return s.fail("correlation", err)
		}
		if !summary.Success {
			s.notice = NoticeDegenerateFits
		}
	default:
		return fmt.Errorf("unknown effect %s", e)
	}
	return nil
}

// ResetTrial starts a new trial. In a game it is only allowed when the
// previous reset failed.
func (s *Session) ResetTrial(ctx context.Context) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.mode == Interactive:
	case s.mode == Game && s.needsReset:
	default:
		return s.view(), fmt.Errorf("%w: reset trial in %s", ErrWrongMode, s.mode)
	}
	s.notice = ""
	if err := s.reg.ResetTrial(ctx); err != nil {
		return s.view(), s.fail("reset trial", err)
	}
	s.needsReset = false
	return s.view(), nil
}

// PlaceFiducial submits a click at (x, y) in surface coordinates.
func (s *Session) PlaceFiducial(ctx context.Context, x, y float64) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == Plot {
		return s.view(), fmt.Errorf("%w: place fiducial in %s", ErrWrongMode, s.mode)
	}
	s.notice = ""
	if _, err := s.reg.PlaceFiducial(ctx, x, y); err != nil {
		if errors.Is(err, registration.ErrNoTrial) {
			return s.view(), err
		}
		return s.view(), s.fail("place fiducial", err)
	}
	return s.view(), nil
}

// Ablate scores an ablation of the given margin in a game.
func (s *Session) Ablate(ctx context.Context, margin float64) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != Game {
		return s.view(), fmt.Errorf("%w: ablate in %s", ErrWrongMode, s.mode)
	}
	if s.needsReset {
		return s.view(), ErrStaleTrial
	}
	s.notice = ""
	res, err := s.game.Ablate(ctx, margin)
	if err != nil {
		if errors.Is(err, game.ErrNotRegistered) || errors.Is(err, game.ErrGameOver) {
			return s.view(), err
		}
		if res.Trial != models.TrialConfigNone {
			// Scored, but the next trial could not be reset.
			s.needsReset = true
		}
		return s.view(), s.fail("ablate", err)
	}
	if res.Finished {
		s.notice = NoticeGameOver
	}
	return s.view(), nil
}

// State returns the current view model.
func (s *Session) State() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

// WriteSurface encodes the pre-operative (intra false) or intra-operative
// surface as WebP.
func (s *Session) WriteSurface(w io.Writer, intra bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if intra {
		return s.intra.EncodeWebP(w)
	}
	return s.pre.EncodeWebP(w)
}

// ExportResults writes every registration result as CSV.
func (s *Session) ExportResults(w io.Writer) error {
	return results.Export(w, s.results.Snapshot())
}

// RenderPlot writes the correlation charts as an HTML page.
func (s *Session) RenderPlot(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.plot.Ready() {
		return correlation.ErrInsufficientData
	}
	return s.plot.Render(w)
}

// PlotOptions returns the correlation chart options as JSON.
func (s *Session) PlotOptions() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.plot.Ready() {
		return nil, correlation.ErrInsufficientData
	}
	return s.plot.OptionsJSON()
}

// Results returns a copy of every registration result so far.
func (s *Session) Results() []models.TrialResult {
	return s.results.Snapshot()
}
