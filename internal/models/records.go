package models

import "time"

// SessionRecord is one registration or game session in the audit store.
type SessionRecord struct {
	ID        string `gorm:"primaryKey;size:36"`
	Kind      string `gorm:"size:16"`
	Version   string
	CreatedAt time.Time
}

// TrialRecord persists a TrialResult against its registration session.
type TrialRecord struct {
	ID           uint          `gorm:"primaryKey"`
	SessionID    string        `gorm:"index;size:36"`
	Session      SessionRecord `gorm:"foreignKey:SessionID"`
	ActualTRE    float64
	FRE          float64
	ExpectedTRE  float64
	ExpectedFRE  float64
	MeanFLE      float64
	NumberOfFids int
	CreatedAt    time.Time
}

// GameRecord is the audit entry written after every scored ablation.
type GameRecord struct {
	ID                    uint          `gorm:"primaryKey"`
	SessionID             string        `gorm:"index;size:36"`
	Session               SessionRecord `gorm:"foreignKey:SessionID"`
	RegistrationSessionID string        `gorm:"size:36"`
	State                 string
	Score                 float64
	Margin                float64
	CreatedAt             time.Time
}

// GameAudit is what the scoring workflow reports after each ablation.
type GameAudit struct {
	Trial                 TrialConfig
	Score                 float64
	Margin                float64
	GameReference         string
	RegistrationReference string
}
