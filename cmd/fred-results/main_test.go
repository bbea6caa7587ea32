package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/models"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/repository"
)

func TestWriteGames(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	games := []repository.GameSummary{{
		Reference: "g-1",
		Version:   "0.1.0",
		StartedAt: start,
		Records: []models.GameRecord{
			{State: "Lowest FLE", Score: 40, Margin: 1, CreatedAt: start.Add(time.Minute)},
			{State: "Baseline", Score: 12.5, Margin: 2.5, CreatedAt: start.Add(2 * time.Minute)},
		},
	}}

	var buf bytes.Buffer
	require.NoError(t, writeGames(&buf, games))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, []string{"time", "fred", "version", "state", "score", "margin"}, strings.Fields(lines[0]))
	require.Equal(t, []string{"2024-03-01T09:31:00Z", "0.1.0", "Lowest", "FLE", "40", "1"}, strings.Fields(lines[1]))
	require.Equal(t, []string{"2024-03-01T09:30:00Z", "0.1.0", "total", "52.5"}, strings.Fields(lines[3]))
}

func TestWriteGamesEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeGames(&buf, nil))
	require.Len(t, strings.Split(strings.TrimSpace(buf.String()), "\n"), 1)
}
