package session

import "fmt"

// Mode is the top-level activity of the session.
type Mode int

const (
	Interactive Mode = iota
	Game
	Plot
)

var modeNames = map[Mode]string{
	Interactive: "interactive",
	Game:        "game",
	Plot:        "plot",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode maps a mode name back to its Mode.
func ParseMode(name string) (Mode, error) {
	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", name)
}

// Event is an operator request to switch mode.
type Event int

const (
	ToInteractive Event = iota
	ToGame
	ToPlot
)

// EventFor returns the event that requests mode m.
func EventFor(m Mode) Event {
	switch m {
	case Game:
		return ToGame
	case Plot:
		return ToPlot
	default:
		return ToInteractive
	}
}

// Effect is one side effect of a transition. Effects run in the order
// Transition returns them.
type Effect int

const (
	ResetScores Effect = iota + 1
	OpenGameReference
	BuildSequence
	PopTrial
	ResetTrial
	ShowGameSurfaces
	ShowInteractiveSurfaces
	RequestCorrelation
	ShowInsufficientData
)

var effectNames = map[Effect]string{
	ResetScores:             "reset_scores",
	OpenGameReference:       "open_game_reference",
	BuildSequence:           "build_sequence",
	PopTrial:                "pop_trial",
	ResetTrial:              "reset_trial",
	ShowGameSurfaces:        "show_game_surfaces",
	ShowInteractiveSurfaces: "show_interactive_surfaces",
	RequestCorrelation:      "request_correlation",
	ShowInsufficientData:    "show_insufficient_data",
}

func (e Effect) String() string {
	if name, ok := effectNames[e]; ok {
		return name
	}
	return fmt.Sprintf("Effect(%d)", int(e))
}

// State is what Transition needs to know about the session.
type State struct {
	Mode          Mode
	SequenceEmpty bool
	GameFinished  bool
	Results       int
}

// minPlotResults is the smallest results count that gets a correlation
// request.
const minPlotResults = 4

// Transition returns the mode after e and the effects to run. A refused or
// pointless request returns the current mode and no effects.
func Transition(s State, e Event) (Mode, []Effect) {
	switch s.Mode {
	case Interactive:
		switch e {
		case ToGame:
			return Game, []Effect{ResetScores, OpenGameReference, BuildSequence, PopTrial, ResetTrial, ShowGameSurfaces}
		case ToPlot:
			if s.Results >= minPlotResults {
				return Plot, []Effect{RequestCorrelation}
			}
			return Plot, []Effect{ShowInsufficientData}
		}
	case Game:
		if e == ToInteractive && s.SequenceEmpty && s.GameFinished {
			return Interactive, []Effect{ShowInteractiveSurfaces}
		}
	case Plot:
		if e == ToInteractive {
			return Interactive, []Effect{ShowInteractiveSurfaces}
		}
	}
	return s.Mode, nil
}
