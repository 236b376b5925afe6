package audio

import (
	"math"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/chaoswave/parameter"
)

// floatBuffer is mono float64 samples at unity gain
type floatBuffer []float64

// oscillator generates raw waveform samples
func oscillator(waveType int, freq float64, rate beep.SampleRate, samples int) floatBuffer {
	buf := make(floatBuffer, samples)
	phase := 0.0
	phaseInc := freq / float64(rate)

	for i := 0; i < samples; i++ {
		switch waveType {
		case waveSine:
			buf[i] = math.Sin(2 * math.Pi * phase)
		case waveSquare:
			if phase < 0.5 {
				buf[i] = 1.0
			} else {
				buf[i] = -1.0
			}
		case waveSaw:
			buf[i] = 2.0 * (phase - 0.5)
		}

		phase += phaseInc
		if phase >= 1.0 {
			phase -= 1.0
		}
	}
	return buf
}

// applyEnvelope applies attack/release envelope in place
func applyEnvelope(buf floatBuffer, attack, release int) {
	total := len(buf)
	releaseStart := max(total-release, attack)

	for i := 0; i < total; i++ {
		vol := 1.0
		if i < attack && attack > 0 {
			vol = float64(i) / float64(attack)
		} else if i >= releaseStart && release > 0 {
			vol = float64(total-i) / float64(release)
		}
		buf[i] *= vol
	}
}

// synthesize renders cue c at rate
func synthesize(c Cue, rate beep.SampleRate) floatBuffer {
	s := shapes[c]
	buf := oscillator(s.wave, s.freq, rate, rate.N(s.duration))
	applyEnvelope(buf, rate.N(parameter.CueAttack), rate.N(parameter.CueRelease))
	return buf
}

// bufferStreamer plays a mono buffer on both channels
type bufferStreamer struct {
	buf floatBuffer
	pos int
}

func newStreamer(buf floatBuffer) *bufferStreamer {
	return &bufferStreamer{buf: buf}
}

func (s *bufferStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.pos >= len(s.buf) {
		return 0, false
	}
	n := copy2(samples, s.buf[s.pos:])
	s.pos += n
	return n, true
}

func (s *bufferStreamer) Err() error {
	return nil
}

func copy2(dst [][2]float64, src floatBuffer) int {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i][0] = src[i]
		dst[i][1] = src[i]
	}
	return n
}
