package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/models"
)

// GameSummary is one played game and its scored ablations.
type GameSummary struct {
	Reference string
	Version   string
	StartedAt time.Time
	Records   []models.GameRecord
}

// Total sums the scores of the game.
func (g GameSummary) Total() float64 {
	var total float64
	for _, r := range g.Records {
		total += r.Score
	}
	return total
}

// ListGames returns every game with at least one scored ablation, oldest
// first. since filters out games started before it when non-zero.
func (s *Store) ListGames(ctx context.Context, since time.Time) ([]GameSummary, error) {
	q := s.db.WithContext(ctx).Preload("Session").Order("created_at, id")
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	var recs []models.GameRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list game records: %w", err)
	}

	var games []GameSummary
	index := map[string]int{}
	for _, r := range recs {
		i, ok := index[r.SessionID]
		if !ok {
			i = len(games)
			index[r.SessionID] = i
			games = append(games, GameSummary{
				Reference: r.SessionID,
				Version:   r.Session.Version,
				StartedAt: r.Session.CreatedAt,
			})
		}
		games[i].Records = append(games[i].Records, r)
	}
	return games, nil
}
