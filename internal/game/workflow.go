// Package game scores simulated ablations over a sequence of trials, each
// shown with one display configuration.
package game

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/models"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/planning"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/scheduler"
)

var (
	// ErrNotRegistered is returned when ablating before the current trial
	// has a successful registration.
	ErrNotRegistered = errors.New("game: no registration to ablate")
	// ErrGameOver is returned when ablating after the last trial was scored.
	ErrGameOver = errors.New("game: game over")
)

// Scorer scores one ablation.
type Scorer interface {
	Score(ctx context.Context, req planning.ScoreRequest) (float64, error)
}

// Trial is the registration trial being played.
type Trial interface {
	Target() models.Point
	Last() models.Registration
	ResetTrial(ctx context.Context) error
}

// Auditor receives every scored ablation.
type Auditor interface {
	RecordGame(a models.GameAudit)
}

// Result is the outcome of one ablation.
type Result struct {
	Trial    models.TrialConfig
	Margin   float64
	Score    float64
	Total    float64
	Finished bool
}

// Workflow is one game. It is not safe for concurrent use.
type Workflow struct {
	log          *zap.Logger
	scorer       Scorer
	trial        Trial
	auditor      Auditor
	targetRadius float64

	seq      *scheduler.Sequence
	active   models.TrialConfig
	scores   ScoreLog
	started  bool
	finished bool
	gameRef  string
	regRef   string
}

func New(log *zap.Logger, scorer Scorer, trial Trial, auditor Auditor, targetRadius float64) *Workflow {
	return &Workflow{
		log:          log.Named("game"),
		scorer:       scorer,
		trial:        trial,
		auditor:      auditor,
		targetRadius: targetRadius,
		seq:          &scheduler.Sequence{},
	}
}

// ResetScores clears the score log.
func (w *Workflow) ResetScores() { w.scores.Reset() }

// Begin installs a fresh sequence and references and pops the first
// configuration. An empty sequence leaves the game already finished.
func (w *Workflow) Begin(seq *scheduler.Sequence, gameRef, regRef string) {
	if seq == nil {
		seq = &scheduler.Sequence{}
	}
	w.seq = seq
	w.gameRef = gameRef
	w.regRef = regRef
	w.started = true
	w.finished = false

	cfg, ok := w.seq.Pop()
	if !ok {
		w.log.Warn("Game started with an empty trial sequence")
		w.active = models.TrialConfigNone
		w.finished = true
		return
	}
	w.active = cfg
}

// Ablate scores an ablation around the latest registered target estimate
// and moves on to the next trial, or ends the game if none are left.
func (w *Workflow) Ablate(ctx context.Context, margin float64) (Result, error) {
	if !w.started || w.finished {
		return Result{}, ErrGameOver
	}
	reg := w.trial.Last()
	if !reg.Success {
		return Result{}, ErrNotRegistered
	}

	margin = ClampMargin(margin)
	score, err := w.scorer.Score(ctx, planning.ScoreRequest{
		Target:          w.trial.Target(),
		EstimatedTarget: reg.TransformedTarget,
		TargetRadius:    w.targetRadius,
		Margin:          margin,
	})
	if err != nil {
		return Result{}, fmt.Errorf("score ablation: %w", err)
	}

	played := w.active
	w.scores.Add(score)
	if w.auditor != nil {
		w.auditor.RecordGame(models.GameAudit{
			Trial:                 played,
			Score:                 score,
			Margin:                margin,
			GameReference:         w.gameRef,
			RegistrationReference: w.regRef,
		})
	}
	w.log.Info("Ablation scored",
		zap.String("trial", played.String()),
		zap.Float64("margin", margin),
		zap.Float64("score", score),
		zap.Float64("total", w.scores.Total()),
	)

	res := Result{Trial: played, Margin: margin, Score: score, Total: w.scores.Total()}

	next, ok := w.seq.Pop()
	if !ok {
		w.finished = true
		w.active = models.TrialConfigNone
		res.Finished = true
		w.log.Info("Game over", zap.Int("trials", w.scores.Len()), zap.Float64("total", w.scores.Total()))
		return res, nil
	}
	w.active = next
	if err := w.trial.ResetTrial(ctx); err != nil {
		return res, fmt.Errorf("next trial: %w", err)
	}
	return res, nil
}

// Active is the display configuration of the trial being played.
func (w *Workflow) Active() models.TrialConfig { return w.active }

// Remaining counts the trials still to be played after the current one.
func (w *Workflow) Remaining() int { return w.seq.Len() }

// Finished reports whether the last trial of the game has been scored.
func (w *Workflow) Finished() bool { return w.finished }

// Started reports whether a game has ever begun.
func (w *Workflow) Started() bool { return w.started }

func (w *Workflow) Scores() []float64 { return w.scores.Scores() }

func (w *Workflow) Total() float64 { return w.scores.Total() }

func (w *Workflow) LastScore() (float64, bool) { return w.scores.Last() }

func (w *Workflow) Reference() string { return w.gameRef }
