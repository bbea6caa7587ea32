package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/models"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/planning/planningtest"
)

func TestRecorderWritesInBackground(t *testing.T) {
	fake := planningtest.NewFake()
	rec := NewRecorder(zap.NewNop(), fake, time.Second)

	ref, err := rec.InitSession(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ref-1", ref)

	rec.RecordTrial(ref, models.TrialResult{ActualTRE: 1, FiducialCount: 3})
	rec.RecordTrial(ref, models.TrialResult{ActualTRE: 2, FiducialCount: 4})
	rec.RecordGame(models.GameAudit{Trial: models.ActualFRE, Score: 50, Margin: 1, GameReference: "game-1"})
	rec.RecordGame(models.GameAudit{Trial: models.ActualTRE})
	require.NoError(t, rec.Close(context.Background()))

	writes, audits := fake.Snapshot()
	require.Len(t, writes, 2)
	require.ElementsMatch(t, []int{3, 4}, []int{writes[0].FiducialCount, writes[1].FiducialCount})
	require.Len(t, audits, 1)
	require.Equal(t, models.ActualFRE, audits[0].Trial)
}

func TestRecorderSwallowsFailures(t *testing.T) {
	fake := planningtest.NewFake()
	fake.Fail("write", errors.New("boom"))
	rec := NewRecorder(zap.NewNop(), fake, 0)

	rec.RecordTrial("ref", models.TrialResult{})
	require.NoError(t, rec.Close(context.Background()))

	writes, _ := fake.Snapshot()
	require.Empty(t, writes)
}

func TestRecorderDropsAfterClose(t *testing.T) {
	fake := planningtest.NewFake()
	rec := NewRecorder(zap.NewNop(), fake, 0)
	require.NoError(t, rec.Close(context.Background()))

	rec.RecordGame(models.GameAudit{GameReference: "game-1"})
	require.NoError(t, rec.Close(context.Background()))

	_, audits := fake.Snapshot()
	require.Empty(t, audits)
}

func TestRecorderSkipsMissingReference(t *testing.T) {
	fake := planningtest.NewFake()
	rec := NewRecorder(zap.NewNop(), fake, 0)
	rec.RecordTrial("", models.TrialResult{ActualTRE: 1})
	require.NoError(t, rec.Close(context.Background()))

	writes, _ := fake.Snapshot()
	require.Empty(t, writes)
}

func TestDiscard(t *testing.T) {
	_, err := Discard{}.InitSession(context.Background())
	require.ErrorIs(t, err, ErrNoStore)
	require.NoError(t, Discard{}.WriteTrialResult(context.Background(), "", models.TrialResult{}))
}
