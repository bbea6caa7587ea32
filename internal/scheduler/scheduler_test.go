package scheduler

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/models"
)

func drain(s *Sequence) []models.TrialConfig {
	var out []models.TrialConfig
	for {
		c, ok := s.Pop()
		if !ok {
			return out
		}
		out = append(out, c)
	}
}

func TestBuildTenTrialsOverFiveLabels(t *testing.T) {
	seq := Build(models.TrialConfigs, 10, rand.New(rand.NewSource(1)))
	require.Equal(t, 10, seq.Len())

	played := drain(seq)
	require.Len(t, played, 10)

	counts := map[models.TrialConfig]int{}
	for _, c := range played {
		counts[c]++
	}
	for _, c := range models.TrialConfigs {
		require.Equal(t, 2, counts[c], "label %s", c)
	}
	require.Equal(t, models.ActualTRE, played[8])
	require.Equal(t, models.ActualTRE, played[9])
	for _, c := range played[:8] {
		require.NotEqual(t, models.ActualTRE, c)
	}
	require.Equal(t, 0, seq.Len())
}

func TestBuildBalancedForManyShapes(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for k := 1; k <= len(models.TrialConfigs); k++ {
		labels := models.TrialConfigs[:k]
		for blocks := 1; blocks <= 6; blocks++ {
			total := k * blocks
			seq := Build(labels, total, rng)
			require.Equal(t, total, seq.Len())
			require.Equal(t, seq.Items(), drainCopy(seq))

			played := drain(seq)
			counts := map[models.TrialConfig]int{}
			for _, c := range played {
				counts[c]++
			}
			for _, c := range labels {
				require.Equal(t, blocks, counts[c])
			}
			for _, c := range played[total-blocks:] {
				require.Equal(t, labels[0], c, "baseline trials are played last")
			}
		}
	}
}

func drainCopy(s *Sequence) []models.TrialConfig {
	cp := &Sequence{stack: append([]models.TrialConfig(nil), s.stack...)}
	return drain(cp)
}

func TestBuildRejectsUnevenTotals(t *testing.T) {
	for _, total := range []int{1, 3, 7, 11, 0, -5} {
		seq := Build(models.TrialConfigs, total, nil)
		require.Equal(t, 0, seq.Len(), "total %d", total)
		_, ok := seq.Pop()
		require.False(t, ok)
	}
	require.Equal(t, 0, Build(nil, 10, nil).Len())
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(10, 5))
	require.ErrorIs(t, Validate(12, 5), ErrNotMultiple)
	require.Error(t, Validate(10, 0))
}

func TestShuffleIsUniform(t *testing.T) {
	const rounds = 60000
	rng := rand.New(rand.NewSource(42))
	counts := map[string]int{}
	for i := 0; i < rounds; i++ {
		items := []string{"a", "b", "c"}
		Shuffle(items, rng)
		counts[strings.Join(items, "")]++
	}
	require.Len(t, counts, 6)

	expected := float64(rounds) / 6
	chi := 0.0
	for _, n := range counts {
		d := float64(n) - expected
		chi += d * d / expected
	}
	// 5 degrees of freedom; 20.5 is the 0.999 quantile.
	require.Less(t, chi, 20.5, "counts %v", counts)
}

func TestShuffleKeepsElements(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}
	Shuffle(items, rand.New(rand.NewSource(3)))
	require.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7}, items)

	var empty []int
	Shuffle(empty, rand.New(rand.NewSource(3)))
	require.Empty(t, empty)
}
