// Package registration runs one registration trial: a target, a set of
// clicked fiducial pairs and the registration computed from all of them.
package registration

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/models"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/planning"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/render"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/results"
)

// ErrNoTrial is returned when fiducials are placed before any trial has
// been reset.
var ErrNoTrial = errors.New("registration: no active trial")

// Planner is the part of the planning service a trial needs.
type Planner interface {
	DefaultOutline(ctx context.Context) (models.Outline, error)
	NewTarget(ctx context.Context, outline models.Outline) (models.Point, error)
	TrialFLE(ctx context.Context) (models.FLEParameters, error)
	PlaceFiducial(ctx context.Context, req planning.PlacementRequest) (planning.Placement, error)
	Register(ctx context.Context, req planning.RegisterRequest) (models.Registration, error)
}

// Recorder receives every successful registration result.
type Recorder interface {
	RecordTrial(reference string, r models.TrialResult)
}

// Outcome describes what a click did.
type Outcome struct {
	Accepted     bool
	Registration models.Registration
}

// Workflow holds the current trial. It is not safe for concurrent use.
type Workflow struct {
	log          *zap.Logger
	planner      Planner
	recorder     Recorder
	results      *results.Store
	pre          render.Surface
	intra        render.Surface
	targetRadius float64
	reference    string

	active  bool
	outline models.Outline
	target  models.Point
	fle     models.FLEParameters
	pairs   []models.FiducialPair
	clicks  []models.Point
	last    models.Registration
}

// Options configures a Workflow.
type Options struct {
	Planner      Planner
	Recorder     Recorder
	Results      *results.Store
	Pre          render.Surface
	Intra        render.Surface
	TargetRadius float64
}

func New(log *zap.Logger, o Options) *Workflow {
	return &Workflow{
		log:          log.Named("registration"),
		planner:      o.Planner,
		recorder:     o.Recorder,
		results:      o.Results,
		pre:          o.Pre,
		intra:        o.Intra,
		targetRadius: o.TargetRadius,
	}
}

// SetReference sets the reference trial records are filed under.
func (w *Workflow) SetReference(ref string) { w.reference = ref }

// ResetTrial starts a new trial. The outline is fetched once and reused; the
// FLE parameters and target are fetched every time. Nothing changes when a
// fetch fails.
func (w *Workflow) ResetTrial(ctx context.Context) error {
	outline := w.outline
	var fle models.FLEParameters

	g, gctx := errgroup.WithContext(ctx)
	if len(outline) == 0 {
		g.Go(func() error {
			o, err := w.planner.DefaultOutline(gctx)
			if err != nil {
				return fmt.Errorf("fetch outline: %w", err)
			}
			outline = o
			return nil
		})
	}
	g.Go(func() error {
		f, err := w.planner.TrialFLE(gctx)
		if err != nil {
			return fmt.Errorf("fetch fle: %w", err)
		}
		fle = f
		return nil
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("reset trial: %w", err)
	}
	// Cache the outline even if the target fetch below fails.
	w.outline = outline

	target, err := w.planner.NewTarget(ctx, outline)
	if err != nil {
		return fmt.Errorf("reset trial: fetch target: %w", err)
	}

	w.active = true
	w.target = target
	w.fle = fle
	w.pairs = nil
	w.clicks = nil
	w.last = models.Registration{}
	w.redraw()

	w.log.Debug("Trial reset",
		zap.Float64("target_x", target.X),
		zap.Float64("target_y", target.Y),
		zap.Float64("fixed_fle_eav", fle.FixedEAV),
	)
	return nil
}

// PlaceFiducial submits a click and, when the service accepts it, registers
// with every fiducial collected so far. A rejected click changes nothing.
func (w *Workflow) PlaceFiducial(ctx context.Context, x, y float64) (Outcome, error) {
	if !w.active {
		return Outcome{}, ErrNoTrial
	}
	p, err := w.planner.PlaceFiducial(ctx, planning.PlacementRequest{X: x, Y: y, FLE: w.fle})
	if err != nil {
		return Outcome{}, fmt.Errorf("place fiducial: %w", err)
	}
	if !p.Accepted {
		return Outcome{}, nil
	}

	w.pairs = append(w.pairs, models.FiducialPair{Moving: p.Moving, Fixed: p.Fixed})
	w.clicks = append(w.clicks, models.Point{X: x, Y: y})
	w.redraw()

	reg, err := w.Register(ctx)
	return Outcome{Accepted: true, Registration: reg}, err
}

// Register registers with the full set of fiducials. An unsuccessful
// registration is returned without error and leaves the trial unchanged.
func (w *Workflow) Register(ctx context.Context) (models.Registration, error) {
	if !w.active {
		return models.Registration{}, ErrNoTrial
	}
	req := planning.RegisterRequest{
		Target:    w.target,
		MovingEAV: w.fle.MovingEAV,
		FixedEAV:  w.fle.FixedEAV,
		Moving:    make([]models.Point, len(w.pairs)),
		Fixed:     make([]models.Point, len(w.pairs)),
	}
	for i, p := range w.pairs {
		req.Moving[i] = p.Moving
		req.Fixed[i] = p.Fixed
	}

	reg, err := w.planner.Register(ctx, req)
	if err != nil {
		return models.Registration{}, fmt.Errorf("register: %w", err)
	}
	if !reg.Success {
		return reg, nil
	}

	w.last = reg
	w.redraw()
	w.results.Append(reg.Result)
	if w.recorder != nil {
		w.recorder.RecordTrial(w.reference, reg.Result)
	}
	return reg, nil
}

func (w *Workflow) redraw() {
	w.pre.Clear()
	w.pre.DrawOutline(w.outline, render.OutlineColor)
	w.pre.DrawTarget(w.target, w.targetRadius, render.TargetColor)

	w.intra.Clear()
	w.intra.DrawOutline(w.outline, render.OutlineColor)

	for i, p := range w.pairs {
		w.pre.DrawMarker(p.Moving, render.MovingColor)
		w.pre.DrawCross(w.clicks[i], render.ClickColor)
		w.intra.DrawMarker(p.Fixed, render.FixedColor)
		w.intra.DrawCross(w.clicks[i], render.ClickColor)
	}

	if w.last.Success {
		w.intra.DrawTarget(w.last.TransformedTarget, w.targetRadius, render.EstimateColor)
		w.intra.DrawCross(w.target, render.TargetColor)
	}
}

// Active reports whether a trial has been reset at least once.
func (w *Workflow) Active() bool { return w.active }

func (w *Workflow) Target() models.Point { return w.target }

func (w *Workflow) Outline() models.Outline { return w.outline }

func (w *Workflow) FLE() models.FLEParameters { return w.fle }

// Fiducials returns a copy of the accepted pairs.
func (w *Workflow) Fiducials() []models.FiducialPair {
	return append([]models.FiducialPair(nil), w.pairs...)
}

// Last returns the latest successful registration of this trial, if any.
func (w *Workflow) Last() models.Registration { return w.last }
