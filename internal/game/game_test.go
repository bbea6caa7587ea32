package game

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/models"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/planning/planningtest"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/scheduler"
)

type stubTrial struct {
	target   models.Point
	last     models.Registration
	resets   int
	resetErr error
}

func (s *stubTrial) Target() models.Point      { return s.target }
func (s *stubTrial) Last() models.Registration { return s.last }

func (s *stubTrial) ResetTrial(context.Context) error {
	if s.resetErr != nil {
		return s.resetErr
	}
	s.resets++
	s.last = models.Registration{}
	return nil
}

func (s *stubTrial) register() {
	s.last = models.Registration{Success: true, TransformedTarget: models.Point{X: s.target.X + 2, Y: s.target.Y}}
}

type auditSpy struct{ audits []models.GameAudit }

func (a *auditSpy) RecordGame(g models.GameAudit) { a.audits = append(a.audits, g) }

func TestClampMargin(t *testing.T) {
	cases := map[float64]float64{
		-3:     0,
		0:      0,
		1:      1,
		1.04:   1,
		1.05:   1.1,
		7.777:  7.8,
		20:     20,
		20.01:  20,
		150:    20,
		1e-300: 0,
	}
	for in, want := range cases {
		require.InDelta(t, want, ClampMargin(in), 1e-9, "margin %v", in)
	}
	require.Equal(t, DefaultMargin, ClampMargin(math.NaN()))
	require.Equal(t, MaxMargin, ClampMargin(math.Inf(1)))
}

func TestScoreLog(t *testing.T) {
	var l ScoreLog
	_, ok := l.Last()
	require.False(t, ok)

	l.Add(10)
	l.Add(32.5)
	require.Equal(t, []float64{10, 32.5}, l.Scores())
	require.Equal(t, 42.5, l.Total())
	last, ok := l.Last()
	require.True(t, ok)
	require.Equal(t, 32.5, last)

	l.Reset()
	require.Zero(t, l.Len())
	require.Zero(t, l.Total())
}

func newGame(t *testing.T, total int) (*Workflow, *stubTrial, *planningtest.Fake, *auditSpy) {
	t.Helper()
	trial := &stubTrial{target: models.Point{X: 40, Y: 40}}
	fake := planningtest.NewFake()
	audit := &auditSpy{}
	w := New(zap.NewNop(), fake, trial, audit, 10)
	seq := scheduler.Build(models.TrialConfigs, total, rand.New(rand.NewSource(7)))
	w.ResetScores()
	w.Begin(seq, "game-ref", "reg-ref")
	return w, trial, fake, audit
}

func TestAblateBeforeStart(t *testing.T) {
	w := New(zap.NewNop(), planningtest.NewFake(), &stubTrial{}, nil, 10)
	_, err := w.Ablate(context.Background(), 1)
	require.ErrorIs(t, err, ErrGameOver)
}

func TestAblateRequiresRegistration(t *testing.T) {
	w, _, fake, audit := newGame(t, 10)
	_, err := w.Ablate(context.Background(), 1)
	require.ErrorIs(t, err, ErrNotRegistered)
	require.Empty(t, fake.ScoreRequests)
	require.Empty(t, audit.audits)
}

func TestFullGame(t *testing.T) {
	w, trial, fake, audit := newGame(t, 10)
	fake.Scores = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	ctx := context.Background()

	var played []models.TrialConfig
	for i := 0; i < 10; i++ {
		require.False(t, w.Finished())
		require.Equal(t, 9-i, w.Remaining())
		played = append(played, w.Active())

		trial.register()
		res, err := w.Ablate(ctx, 2.46)
		require.NoError(t, err)
		require.Equal(t, played[i], res.Trial)
		require.Equal(t, 2.5, res.Margin)
		require.Equal(t, i == 9, res.Finished)
	}

	require.True(t, w.Finished())
	require.Equal(t, models.TrialConfigNone, w.Active())
	require.Equal(t, 550.0, w.Total())
	require.Equal(t, 9, trial.resets)

	// Baseline trials are played last.
	require.Equal(t, models.ActualTRE, played[8])
	require.Equal(t, models.ActualTRE, played[9])
	counts := map[models.TrialConfig]int{}
	for _, c := range played {
		counts[c]++
	}
	for _, c := range models.TrialConfigs {
		require.Equal(t, 2, counts[c])
	}

	require.Len(t, audit.audits, 10)
	for i, a := range audit.audits {
		require.Equal(t, played[i], a.Trial)
		require.Equal(t, "game-ref", a.GameReference)
		require.Equal(t, "reg-ref", a.RegistrationReference)
		require.Equal(t, 2.5, a.Margin)
	}

	req := fake.ScoreRequests[0]
	require.Equal(t, models.Point{X: 40, Y: 40}, req.Target)
	require.Equal(t, models.Point{X: 42, Y: 40}, req.EstimatedTarget)
	require.Equal(t, 10.0, req.TargetRadius)

	trial.register()
	_, err := w.Ablate(ctx, 1)
	require.ErrorIs(t, err, ErrGameOver)
}

func TestScoreFailureKeepsTrial(t *testing.T) {
	w, trial, fake, audit := newGame(t, 5)
	boom := errors.New("unreachable")
	fake.Fail("score", boom)
	trial.register()
	active := w.Active()

	_, err := w.Ablate(context.Background(), 1)
	require.ErrorIs(t, err, boom)
	require.Equal(t, active, w.Active())
	require.Equal(t, 4, w.Remaining())
	require.Zero(t, trial.resets)
	require.Empty(t, audit.audits)
	require.Empty(t, w.Scores())
}

func TestEmptySequenceFinishesImmediately(t *testing.T) {
	w, trial, _, _ := newGame(t, 7)
	require.True(t, w.Finished())
	require.Equal(t, models.TrialConfigNone, w.Active())
	trial.register()
	_, err := w.Ablate(context.Background(), 1)
	require.ErrorIs(t, err, ErrGameOver)
}

func TestBeginResetsFinishedGame(t *testing.T) {
	w, trial, _, _ := newGame(t, 5)
	for i := 0; i < 5; i++ {
		trial.register()
		_, err := w.Ablate(context.Background(), 1)
		require.NoError(t, err)
	}
	require.True(t, w.Finished())

	w.ResetScores()
	w.Begin(scheduler.Build(models.TrialConfigs, 5, nil), "game-2", "reg-ref")
	require.False(t, w.Finished())
	require.Equal(t, 4, w.Remaining())
	require.Zero(t, w.Total())
	require.Equal(t, "game-2", w.Reference())
}
