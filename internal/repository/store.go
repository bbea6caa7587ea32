package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/models"
)

// Store keeps session references, trial results and game audits in the
// database.
type Store struct {
	db      *gorm.DB
	version string
}

// NewStore wraps db. version is stamped on every new session.
func NewStore(db *gorm.DB, version string) *Store {
	return &Store{db: db, version: version}
}

// InitSession creates a session row and returns its id as the reference.
func (s *Store) InitSession(ctx context.Context) (string, error) {
	rec := models.SessionRecord{
		ID:      uuid.NewString(),
		Kind:    "fred",
		Version: s.version,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return rec.ID, nil
}

func (s *Store) WriteTrialResult(ctx context.Context, reference string, r models.TrialResult) error {
	rec := models.TrialRecord{
		SessionID:    reference,
		ActualTRE:    r.ActualTRE,
		FRE:          r.FRE,
		ExpectedTRE:  r.ExpectedTRE,
		ExpectedFRE:  r.ExpectedFRE,
		MeanFLE:      r.MeanFLE,
		NumberOfFids: r.FiducialCount,
	}
	if err := s.db.WithContext(ctx).Omit("Session").Create(&rec).Error; err != nil {
		return fmt.Errorf("write trial result: %w", err)
	}
	return nil
}

func (s *Store) WriteGameAudit(ctx context.Context, a models.GameAudit) error {
	rec := models.GameRecord{
		SessionID:             a.GameReference,
		RegistrationSessionID: a.RegistrationReference,
		State:                 a.Trial.String(),
		Score:                 a.Score,
		Margin:                a.Margin,
	}
	if err := s.db.WithContext(ctx).Omit("Session").Create(&rec).Error; err != nil {
		return fmt.Errorf("write game audit: %w", err)
	}
	return nil
}

// TrialResults returns the results filed under reference in write order.
func (s *Store) TrialResults(ctx context.Context, reference string) ([]models.TrialResult, error) {
	var recs []models.TrialRecord
	err := s.db.WithContext(ctx).
		Where("session_id = ?", reference).
		Order("id").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list trial results: %w", err)
	}
	out := make([]models.TrialResult, len(recs))
	for i, r := range recs {
		out[i] = models.TrialResult{
			ActualTRE:     r.ActualTRE,
			FRE:           r.FRE,
			ExpectedTRE:   r.ExpectedTRE,
			ExpectedFRE:   r.ExpectedFRE,
			MeanFLE:       r.MeanFLE,
			FiducialCount: r.NumberOfFids,
		}
	}
	return out, nil
}
