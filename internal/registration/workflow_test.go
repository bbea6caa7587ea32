package registration

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/models"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/planning/planningtest"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/render"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/results"
)

type trialSpy struct {
	refs    []string
	results []models.TrialResult
}

func (s *trialSpy) RecordTrial(ref string, r models.TrialResult) {
	s.refs = append(s.refs, ref)
	s.results = append(s.results, r)
}

type fixture struct {
	fake  *planningtest.Fake
	spy   *trialSpy
	store *results.Store
	pre   *render.Recorder
	intra *render.Recorder
	wf    *Workflow
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		fake:  planningtest.NewFake(),
		spy:   &trialSpy{},
		store: results.NewStore(),
		pre:   &render.Recorder{},
		intra: &render.Recorder{},
	}
	f.wf = New(zap.NewNop(), Options{
		Planner:      f.fake,
		Recorder:     f.spy,
		Results:      f.store,
		Pre:          f.pre,
		Intra:        f.intra,
		TargetRadius: 10,
	})
	f.wf.SetReference("ref-reg")
	return f
}

func TestPlaceBeforeReset(t *testing.T) {
	f := newFixture(t)
	_, err := f.wf.PlaceFiducial(context.Background(), 1, 1)
	require.ErrorIs(t, err, ErrNoTrial)
	require.Empty(t, f.fake.Placements)
}

func TestResetTrialFetchesOutlineOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.wf.ResetTrial(ctx))
	require.NoError(t, f.wf.ResetTrial(ctx))

	require.Equal(t, 1, f.fake.OutlineCalls)
	require.Equal(t, 2, f.fake.FLECalls)
	require.Equal(t, 2, f.fake.TargetCalls)
	require.True(t, f.wf.Active())
	require.Equal(t, f.fake.Target, f.wf.Target())
	require.Equal(t, f.fake.FLE, f.wf.FLE())

	require.Equal(t, 1, f.pre.Count("outline"))
	require.Equal(t, 1, f.pre.Count("target"))
	require.Equal(t, 1, f.intra.Count("outline"))
	require.Zero(t, f.intra.Count("target"))
}

func TestResetTrialFailureKeepsPreviousTrial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.wf.ResetTrial(ctx))
	_, err := f.wf.PlaceFiducial(ctx, 20, 20)
	require.NoError(t, err)

	boom := errors.New("service down")
	f.fake.Fail("fle", boom)
	require.ErrorIs(t, f.wf.ResetTrial(ctx), boom)
	require.Len(t, f.wf.Fiducials(), 1)
	require.True(t, f.wf.Last().Success)
}

func TestRejectedPlacementChangesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fake.Reject = func(x, y float64) bool { return x > 95 }
	require.NoError(t, f.wf.ResetTrial(ctx))
	opsBefore := len(f.pre.Ops)

	out, err := f.wf.PlaceFiducial(ctx, 99, 50)
	require.NoError(t, err)
	require.False(t, out.Accepted)
	require.Empty(t, f.wf.Fiducials())
	require.Empty(t, f.fake.Registrations)
	require.Zero(t, f.store.Len())
	require.Len(t, f.pre.Ops, opsBefore)
}

func TestRegisterSendsCumulativeFiducials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.wf.ResetTrial(ctx))

	const n = 5
	for i := 0; i < n; i++ {
		out, err := f.wf.PlaceFiducial(ctx, float64(20+i), float64(30+i))
		require.NoError(t, err)
		require.True(t, out.Accepted)
	}

	require.Len(t, f.fake.Registrations, n)
	for i, req := range f.fake.Registrations {
		require.Len(t, req.Moving, i+1)
		require.Len(t, req.Fixed, i+1)
		require.Equal(t, f.fake.Target, req.Target)
		require.Equal(t, f.fake.FLE.FixedEAV, req.FixedEAV)
	}
	last := f.fake.Registrations[n-1]
	require.Equal(t, models.Point{X: 20, Y: 30}, last.Moving[0])
	require.Equal(t, models.Point{X: 20.5, Y: 29.5}, last.Fixed[0])
}

func TestSuccessfulRegistrationsAppendInOrder(t *testing.T) {
	f := newFixture(t)
	f.fake.MinFiducials = 3
	ctx := context.Background()
	require.NoError(t, f.wf.ResetTrial(ctx))

	var successes int
	for i := 0; i < 5; i++ {
		out, err := f.wf.PlaceFiducial(ctx, float64(20+10*i), 40)
		require.NoError(t, err)
		if i < 2 {
			require.False(t, out.Registration.Success)
			require.Zero(t, f.store.Len())
			require.False(t, f.wf.Last().Success)
			continue
		}
		successes++
		require.True(t, out.Registration.Success)
		require.Equal(t, successes, f.store.Len())
	}

	snapshot := f.store.Snapshot()
	require.Equal(t, []int{3, 4, 5}, []int{snapshot[0].FiducialCount, snapshot[1].FiducialCount, snapshot[2].FiducialCount})
	require.Equal(t, snapshot, f.spy.results)
	require.Equal(t, []string{"ref-reg", "ref-reg", "ref-reg"}, f.spy.refs)
}

func TestSurfacesAfterRegistration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.wf.ResetTrial(ctx))
	_, err := f.wf.PlaceFiducial(ctx, 20, 20)
	require.NoError(t, err)
	_, err = f.wf.PlaceFiducial(ctx, 60, 20)
	require.NoError(t, err)

	require.Equal(t, 2, f.pre.Count("marker"))
	require.Equal(t, 2, f.pre.Count("cross"))
	require.Equal(t, 1, f.pre.Count("target"))

	require.Equal(t, 2, f.intra.Count("marker"))
	// Two click crosses plus the true target cross.
	require.Equal(t, 3, f.intra.Count("cross"))
	require.Equal(t, 1, f.intra.Count("target"))

	est := f.wf.Last().TransformedTarget
	var found bool
	for _, op := range f.intra.Ops {
		if op.Kind == "target" {
			found = true
			require.Equal(t, est, op.Points[0])
			require.Equal(t, 10.0, op.Radius)
		}
	}
	require.True(t, found)
}

func TestRegisterFailureKeepsAcceptedFiducial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.wf.ResetTrial(ctx))

	boom := errors.New("timeout")
	f.fake.Fail("register", boom)
	out, err := f.wf.PlaceFiducial(ctx, 20, 20)
	require.ErrorIs(t, err, boom)
	require.True(t, out.Accepted)
	require.Len(t, f.wf.Fiducials(), 1)
	require.Zero(t, f.store.Len())

	f.fake.Fail("register", nil)
	reg, err := f.wf.Register(ctx)
	require.NoError(t, err)
	require.True(t, reg.Success)
	require.Equal(t, 1, f.store.Len())
}

func TestResetClearsTrial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.wf.ResetTrial(ctx))
	_, err := f.wf.PlaceFiducial(ctx, 20, 20)
	require.NoError(t, err)
	require.True(t, f.wf.Last().Success)

	require.NoError(t, f.wf.ResetTrial(ctx))
	require.Empty(t, f.wf.Fiducials())
	require.False(t, f.wf.Last().Success)
	require.Zero(t, f.intra.Count("marker"))
	require.Equal(t, 1, f.store.Len())
}
