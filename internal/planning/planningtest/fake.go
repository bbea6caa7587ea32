// Package planningtest provides a scripted in-memory planning service for
// tests of the packages that drive it.
package planningtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/models"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/planning"
)

// Fake answers every planning call from its fields and records what it was
// asked. The zero value accepts every click and registers successfully.
type Fake struct {
	mu sync.Mutex

	Outline models.Outline
	Target  models.Point
	FLE     models.FLEParameters

	// Reject returns true for clicks the service should refuse.
	Reject func(x, y float64) bool
	// MinFiducials is the count below which Register reports failure.
	MinFiducials int
	Scores       []float64
	Summary      models.CorrelationSummary

	// Errs maps an operation name ("outline", "target", "fle", "place",
	// "register", "score", "correlate", "init", "write", "audit") to the
	// error that operation returns.
	Errs map[string]error

	OutlineCalls   int
	TargetCalls    int
	FLECalls       int
	InitCalls      int
	Placements     []planning.PlacementRequest
	Registrations  []planning.RegisterRequest
	ScoreRequests  []planning.ScoreRequest
	Correlations   [][]models.TrialResult
	TrialWrites    []models.TrialResult
	TrialRefs      []string
	Audits         []models.GameAudit
	nextScore      int
	nextReferences int
}

// NewFake returns a fake with a square outline and target at its centre.
func NewFake() *Fake {
	return &Fake{
		Outline: models.Outline{{X: 10, Y: 10}, {X: 90, Y: 10}, {X: 90, Y: 90}, {X: 10, Y: 90}},
		Target:  models.Point{X: 50, Y: 50},
		FLE: models.FLEParameters{
			FixedSD:  models.Vector3{2, 2, 2},
			FixedEAV: 3.2,
		},
	}
}

func (f *Fake) err(op string) error {
	if f.Errs == nil {
		return nil
	}
	return f.Errs[op]
}

// Fail makes op return err until cleared with a nil err.
func (f *Fake) Fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Errs == nil {
		f.Errs = map[string]error{}
	}
	if err == nil {
		delete(f.Errs, op)
		return
	}
	f.Errs[op] = err
}

func (f *Fake) DefaultOutline(context.Context) (models.Outline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.OutlineCalls++
	if err := f.err("outline"); err != nil {
		return nil, err
	}
	return append(models.Outline(nil), f.Outline...), nil
}

func (f *Fake) NewTarget(context.Context, models.Outline) (models.Point, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TargetCalls++
	if err := f.err("target"); err != nil {
		return models.Point{}, err
	}
	return f.Target, nil
}

func (f *Fake) TrialFLE(context.Context) (models.FLEParameters, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FLECalls++
	if err := f.err("fle"); err != nil {
		return models.FLEParameters{}, err
	}
	return f.FLE, nil
}

// PlaceFiducial accepts the click unless Reject says otherwise. The fixed
// point is offset by half a pixel so moving and fixed differ.
func (f *Fake) PlaceFiducial(_ context.Context, req planning.PlacementRequest) (planning.Placement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Placements = append(f.Placements, req)
	if err := f.err("place"); err != nil {
		return planning.Placement{}, err
	}
	if f.Reject != nil && f.Reject(req.X, req.Y) {
		return planning.Placement{}, nil
	}
	return planning.Placement{
		Accepted: true,
		Moving:   models.Point{X: req.X, Y: req.Y},
		Fixed:    models.Point{X: req.X + 0.5, Y: req.Y - 0.5},
	}, nil
}

// Register succeeds once MinFiducials pairs are present and reports the
// fiducial count it was given.
func (f *Fake) Register(_ context.Context, req planning.RegisterRequest) (models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Registrations = append(f.Registrations, req)
	if err := f.err("register"); err != nil {
		return models.Registration{}, err
	}
	n := len(req.Moving)
	if n < f.MinFiducials {
		return models.Registration{}, nil
	}
	return models.Registration{
		Success:           true,
		TransformedTarget: models.Point{X: req.Target.X + 1, Y: req.Target.Y + 1},
		Result: models.TrialResult{
			ActualTRE:     1.0 / float64(n),
			FRE:           0.5,
			ExpectedTRE:   2.0 / float64(n),
			ExpectedFRE:   0.75,
			MeanFLE:       req.FixedEAV,
			FiducialCount: n,
		},
	}, nil
}

// Score returns Scores in order, then zero.
func (f *Fake) Score(_ context.Context, req planning.ScoreRequest) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ScoreRequests = append(f.ScoreRequests, req)
	if err := f.err("score"); err != nil {
		return 0, err
	}
	if f.nextScore >= len(f.Scores) {
		return 0, nil
	}
	s := f.Scores[f.nextScore]
	f.nextScore++
	return s, nil
}

func (f *Fake) Correlate(_ context.Context, snapshot []models.TrialResult) (models.CorrelationSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Correlations = append(f.Correlations, append([]models.TrialResult(nil), snapshot...))
	if err := f.err("correlate"); err != nil {
		return models.CorrelationSummary{}, err
	}
	return f.Summary, nil
}

// InitSession hands out references "ref-1", "ref-2", ...
func (f *Fake) InitSession(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.InitCalls++
	if err := f.err("init"); err != nil {
		return "", err
	}
	f.nextReferences++
	return fmt.Sprintf("ref-%d", f.nextReferences), nil
}

func (f *Fake) WriteTrialResult(_ context.Context, reference string, r models.TrialResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("write"); err != nil {
		return err
	}
	f.TrialRefs = append(f.TrialRefs, reference)
	f.TrialWrites = append(f.TrialWrites, r)
	return nil
}

func (f *Fake) WriteGameAudit(_ context.Context, a models.GameAudit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err("audit"); err != nil {
		return err
	}
	f.Audits = append(f.Audits, a)
	return nil
}

// Snapshot returns copies of the recorded writes under the lock.
func (f *Fake) Snapshot() (writes []models.TrialResult, audits []models.GameAudit) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.TrialResult(nil), f.TrialWrites...), append([]models.GameAudit(nil), f.Audits...)
}
