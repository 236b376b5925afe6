package parameter

import "time"

// Audio Hardware Settings
const (
	AudioSampleRate = 44100
	AudioVolume     = -1.0 // Base-2 volume offset, beep effects.Volume
)

// Cue Timing
const (
	// CueMinGap drops cues arriving faster than this after the previous one
	CueMinGap = 80 * time.Millisecond

	CueQueueSize = 16
)

// Cue Shapes
const (
	WaveStartCueFreq     = 440.0
	WaveStartCueDuration = 180 * time.Millisecond

	WaveCompleteCueFreq     = 660.0
	WaveCompleteCueDuration = 260 * time.Millisecond

	MajorChaosCueFreq     = 110.0
	MajorChaosCueDuration = 600 * time.Millisecond

	ThresholdCueFreq     = 220.0
	ThresholdCueDuration = 120 * time.Millisecond

	BattleCueFreq     = 330.0
	BattleCueDuration = 150 * time.Millisecond

	CueAttack  = 5 * time.Millisecond
	CueRelease = 40 * time.Millisecond
)
