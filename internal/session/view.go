package session

import "github.com/SciKit-Surgery/scikit-surgeryfred/internal/models"

// View is the session state as shown to the operator.
type View struct {
	Mode    string             `json:"mode"`
	Panel   string             `json:"panel"`
	Notice  string             `json:"notice,omitempty"`
	Results int                `json:"results"`
	Trial   TrialView          `json:"trial"`
	Metrics map[string]float64 `json:"metrics"`
	Game    *GameView          `json:"game,omitempty"`
	Plot    *PlotView          `json:"plot,omitempty"`
}

// TrialView summarises the current registration trial.
type TrialView struct {
	Active     bool    `json:"active"`
	Fiducials  int     `json:"fiducials"`
	Registered bool    `json:"registered"`
	NeedsReset bool    `json:"needs_reset,omitempty"`
	FixedFLE   float64 `json:"fixed_fle_eav"`
}

// GameView carries the game statistics.
type GameView struct {
	Config    string    `json:"config"`
	Remaining int       `json:"remaining"`
	LastScore float64   `json:"last_score"`
	Total     float64   `json:"total_score"`
	Scores    []float64 `json:"scores"`
	Finished  bool      `json:"finished"`
	CanAblate bool      `json:"can_ablate"`
}

// PlotView carries the coefficients of the latest correlation summary.
type PlotView struct {
	Ready        bool               `json:"ready"`
	Success      bool               `json:"success"`
	Coefficients map[string]float64 `json:"coefficients,omitempty"`
}

func (s *Session) view() View {
	last := s.reg.Last()
	v := View{
		Mode:    s.mode.String(),
		Panel:   s.panel.String(),
		Notice:  s.notice,
		Results: s.results.Len(),
		Trial: TrialView{
			Active:     s.reg.Active(),
			Fiducials:  len(s.reg.Fiducials()),
			Registered: last.Success,
			NeedsReset: s.needsReset,
			FixedFLE:   s.reg.FLE().FixedEAV,
		},
		Metrics: map[string]float64{},
	}

	config := models.TrialConfigNone
	if s.mode == Game {
		config = s.game.Active()
	}
	if last.Success {
		for _, f := range s.visibleFields(config) {
			v.Metrics[string(f)] = f.Value(last.Result)
		}
	}

	if s.mode == Game {
		lastScore, _ := s.game.LastScore()
		v.Game = &GameView{
			Config:    config.String(),
			Remaining: s.game.Remaining(),
			LastScore: lastScore,
			Total:     s.game.Total(),
			Scores:    s.game.Scores(),
			Finished:  s.game.Finished(),
			CanAblate: last.Success && !s.game.Finished() && !s.needsReset,
		}
	}

	if s.mode == Plot {
		p := &PlotView{Ready: s.plot.Ready()}
		if p.Ready {
			summary := s.plot.Summary()
			p.Success = summary.Success
			p.Coefficients = map[string]float64{}
			for i, c := range summary.Coefficients {
				if i < len(models.CorrelationMetrics) {
					p.Coefficients[models.CorrelationMetrics[i].Key] = c
				}
			}
		}
		v.Plot = p
	}
	return v
}

// visibleFields applies the display filters. Interactive mode and a
// finished game show every field.
func (s *Session) visibleFields(c models.TrialConfig) []models.MetricField {
	return s.filters.Visible(c)
}
