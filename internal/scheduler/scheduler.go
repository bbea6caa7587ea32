package scheduler

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/models"
)

// ErrNotMultiple reports a trial count that cannot be split into whole blocks.
var ErrNotMultiple = errors.New("scheduler: total trials is not a multiple of the label count")

// Validate checks that total trials divide evenly across labelCount labels.
func Validate(total, labelCount int) error {
	if labelCount <= 0 || total <= 0 {
		return fmt.Errorf("scheduler: need positive totals, got %d trials over %d labels", total, labelCount)
	}
	if total%labelCount != 0 {
		return fmt.Errorf("%w: %d trials over %d labels", ErrNotMultiple, total, labelCount)
	}
	return nil
}

// Sequence is a consumed-once trial order. Trials are only ever removed, one
// at a time, and never revisited.
type Sequence struct {
	// stack holds the remaining trials with the next one on top (last index).
	stack []models.TrialConfig
}

// Len returns how many trials are left.
func (s *Sequence) Len() int {
	if s == nil {
		return 0
	}
	return len(s.stack)
}

// Pop removes and returns the next trial. ok is false once the sequence is
// drained.
func (s *Sequence) Pop() (models.TrialConfig, bool) {
	if s.Len() == 0 {
		return models.TrialConfigNone, false
	}
	last := len(s.stack) - 1
	next := s.stack[last]
	s.stack = s.stack[:last]
	return next, true
}

// Items returns the remaining trials in the order they will be played.
func (s *Sequence) Items() []models.TrialConfig {
	out := make([]models.TrialConfig, 0, s.Len())
	for i := s.Len() - 1; i >= 0; i-- {
		out = append(out, s.stack[i])
	}
	return out
}

// Build lays out total trials over labels, whose first entry is the
// baseline. Each block contributes one of every label; the non-baseline
// trials of all blocks are shuffled together and played first, then the
// baseline trials in block order. A total that is not a multiple of
// len(labels) yields an empty sequence.
func Build(labels []models.TrialConfig, total int, rng *rand.Rand) *Sequence {
	if Validate(total, len(labels)) != nil {
		return &Sequence{}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	blocks := total / len(labels)
	baseline := make([]models.TrialConfig, 0, blocks)
	random := make([]models.TrialConfig, 0, total-blocks)
	for b := 0; b < blocks; b++ {
		baseline = append(baseline, labels[0])
		random = append(random, labels[1:]...)
	}
	Shuffle(random, rng)

	order := append(random, baseline...)
	stack := make([]models.TrialConfig, len(order))
	for i, c := range order {
		stack[len(order)-1-i] = c
	}
	return &Sequence{stack: stack}
}

// Shuffle permutes items in place with the Durstenfeld variant of
// Fisher-Yates: walking down from the last index, each element is swapped
// with a uniformly chosen one at or below it.
func Shuffle[T any](items []T, rng *rand.Rand) {
	for i := len(items) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
