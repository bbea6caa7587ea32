package game

// ScoreLog is the ordered list of scores of one game and their total.
type ScoreLog struct {
	scores []float64
	total  float64
}

func (l *ScoreLog) Reset() {
	l.scores = nil
	l.total = 0
}

func (l *ScoreLog) Add(score float64) {
	l.scores = append(l.scores, score)
	l.total += score
}

func (l *ScoreLog) Len() int { return len(l.scores) }

func (l *ScoreLog) Total() float64 { return l.total }

// Scores returns a copy of the scores in the order they were earned.
func (l *ScoreLog) Scores() []float64 {
	return append([]float64(nil), l.scores...)
}

// Last returns the most recent score.
func (l *ScoreLog) Last() (float64, bool) {
	if len(l.scores) == 0 {
		return 0, false
	}
	return l.scores[len(l.scores)-1], true
}
