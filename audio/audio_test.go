package audio

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/chaoswave/event"
	"github.com/lixenwraith/chaoswave/parameter"
)

func drain(s beep.Streamer) [][2]float64 {
	var out [][2]float64
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		out = append(out, buf[:n]...)
		if !ok {
			return out
		}
	}
}

func TestSynthesizeLengthAndEnvelope(t *testing.T) {
	rate := beep.SampleRate(8000)
	for cue := Cue(0); cue < cueCount; cue++ {
		t.Run(cue.String(), func(t *testing.T) {
			buf := synthesize(cue, rate)
			if want := rate.N(shapes[cue].duration); len(buf) != want {
				t.Fatalf("len = %d, want %d", len(buf), want)
			}
			if buf[0] != 0 {
				t.Errorf("first sample = %f, want 0 from attack", buf[0])
			}
			for i, v := range buf {
				if math.Abs(v) > 1 {
					t.Fatalf("sample %d = %f exceeds unity", i, v)
				}
			}
			if last := buf[len(buf)-1]; math.Abs(last) > 1.0/float64(rate.N(parameter.CueRelease))+1e-9 {
				t.Errorf("last sample = %f, want release tail", last)
			}
		})
	}
}

func TestStreamerStereoAndExhaustion(t *testing.T) {
	s := newStreamer(floatBuffer{0.1, 0.2, 0.3})
	out := drain(s)
	if len(out) != 3 {
		t.Fatalf("streamed %d samples, want 3", len(out))
	}
	for i, v := range out {
		if v[0] != v[1] {
			t.Errorf("sample %d channels differ: %v", i, v)
		}
	}
	if n, ok := s.Stream(make([][2]float64, 4)); n != 0 || ok {
		t.Errorf("exhausted Stream = (%d, %v), want (0, false)", n, ok)
	}
}

func TestVolumeAttenuates(t *testing.T) {
	out := drain(withVolume(newStreamer(floatBuffer{1, 1}), -1))
	if math.Abs(out[0][0]-0.5) > 1e-9 {
		t.Errorf("volume -1 sample = %f, want 0.5", out[0][0])
	}
}

func TestCueFor(t *testing.T) {
	tests := []struct {
		typ  event.Type
		want Cue
		ok   bool
	}{
		{event.WaveStart, CueWaveStart, true},
		{event.Victory, CueWaveComplete, true},
		{event.MajorChaos, CueMajorChaos, true},
		{event.BattleStart, CueBattle, true},
		{event.ChaosChanged, 0, false},
	}
	for _, tt := range tests {
		got, ok := CueFor(tt.typ)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("CueFor(%s) = (%v, %v), want (%v, %v)", tt.typ, got, ok, tt.want, tt.ok)
		}
	}
}

type recordPlayer struct {
	mu      sync.Mutex
	samples int
	plays   int
	played  chan struct{}
}

func (p *recordPlayer) Play(s beep.Streamer) {
	n := len(drain(s))
	p.mu.Lock()
	p.plays++
	p.samples += n
	p.mu.Unlock()
	p.played <- struct{}{}
}

func TestCuesPlayAndGap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.SampleRate = 8000
	cfg.CueMinGap = time.Second
	p := &recordPlayer{played: make(chan struct{}, 8)}
	c := NewCues(cfg, p, nil, nil)

	clock := time.Unix(0, 0)
	var mu sync.Mutex
	c.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return clock
	}

	if err := c.Start(t.Context()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Stop()

	c.Publish(event.Event{Type: event.ChaosChanged}) // Silent
	c.Publish(event.Event{Type: event.WaveStart})
	<-p.played

	c.Publish(event.Event{Type: event.MajorChaos}) // Inside the gap
	deadline := time.After(2 * time.Second)
	for c.Dropped() == 0 {
		select {
		case <-deadline:
			t.Fatal("cue inside gap was not dropped")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	mu.Lock()
	clock = clock.Add(2 * time.Second)
	mu.Unlock()
	c.Publish(event.Event{Type: event.MajorChaos})
	<-p.played

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if c.Played() != 2 {
		t.Errorf("Played() = %d, want 2", c.Played())
	}
	want := beep.SampleRate(8000).N(parameter.WaveStartCueDuration) + beep.SampleRate(8000).N(parameter.MajorChaosCueDuration)
	if p.samples != want {
		t.Errorf("streamed %d samples, want %d", p.samples, want)
	}
}

func TestCuesDropWhenFull(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QueueSize = 1
	c := NewCues(cfg, PlayerFunc(func(beep.Streamer) {}), nil, nil)
	for i := 0; i < 3; i++ {
		c.Publish(event.Event{Type: event.WaveStart})
	}
	if c.Dropped() != 2 {
		t.Errorf("Dropped() = %d, want 2", c.Dropped())
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default: %v", err)
	}
	cfg.Enabled = true
	cfg.SampleRate = 100
	cfg.QueueSize = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for bad sample rate and queue")
	}
}
