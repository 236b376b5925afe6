package audio

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
)

// Player mixes a streamer into the output device
type Player interface {
	Play(s beep.Streamer)
}

// PlayerFunc adapts a function to Player
type PlayerFunc func(s beep.Streamer)

func (f PlayerFunc) Play(s beep.Streamer) {
	f(s)
}

type speakerPlayer struct{}

func (speakerPlayer) Play(s beep.Streamer) {
	speaker.Play(s)
}

// OpenSpeaker initializes the speaker at cfg's sample rate; close releases the device
func OpenSpeaker(cfg Config) (p Player, closeFn func(), err error) {
	rate := beep.SampleRate(cfg.SampleRate)
	if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
		return nil, nil, err
	}
	return speakerPlayer{}, speaker.Close, nil
}

// withVolume applies the base-2 volume offset, 0 passes through untouched
func withVolume(s beep.Streamer, volume float64) beep.Streamer {
	if volume == 0 {
		return s
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: volume}
}
