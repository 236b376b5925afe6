package audio

import (
	"time"

	"github.com/lixenwraith/chaoswave/event"
	"github.com/lixenwraith/chaoswave/parameter"
)

// Cue identifies one synthesized notification sound
type Cue int

const (
	CueWaveStart Cue = iota
	CueWaveComplete
	CueMajorChaos
	CueThreshold
	CueBattle

	cueCount
)

var cueNames = [cueCount]string{"wave-start", "wave-complete", "major-chaos", "threshold", "battle"}

func (c Cue) String() string {
	if c < 0 || c >= cueCount {
		return "unknown"
	}
	return cueNames[c]
}

// Waveform types
const (
	waveSine = iota
	waveSquare
	waveSaw
)

type shape struct {
	wave     int
	freq     float64
	duration time.Duration
}

var shapes = [cueCount]shape{
	CueWaveStart:    {waveSine, parameter.WaveStartCueFreq, parameter.WaveStartCueDuration},
	CueWaveComplete: {waveSine, parameter.WaveCompleteCueFreq, parameter.WaveCompleteCueDuration},
	CueMajorChaos:   {waveSquare, parameter.MajorChaosCueFreq, parameter.MajorChaosCueDuration},
	CueThreshold:    {waveSaw, parameter.ThresholdCueFreq, parameter.ThresholdCueDuration},
	CueBattle:       {waveSquare, parameter.BattleCueFreq, parameter.BattleCueDuration},
}

// CueFor maps an event type to its cue; false for silent events
func CueFor(t event.Type) (Cue, bool) {
	switch t {
	case event.WaveStart:
		return CueWaveStart, true
	case event.WaveCompleted, event.Victory:
		return CueWaveComplete, true
	case event.MajorChaos:
		return CueMajorChaos, true
	case event.ThresholdChaos:
		return CueThreshold, true
	case event.BattleStart:
		return CueBattle, true
	}
	return 0, false
}
