package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lixenwraith/chaoswave/core"
	"github.com/lixenwraith/chaoswave/event"
	"github.com/lixenwraith/chaoswave/journal"
	"github.com/lixenwraith/chaoswave/session"
	"github.com/lixenwraith/chaoswave/status"
	"github.com/lixenwraith/chaoswave/wave"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeSource struct {
	mu       sync.Mutex
	snap     *session.Snapshot
	commands []session.Command
	err      error
}

func (f *fakeSource) Snapshot() *session.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeSource) Submit(cmd session.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.commands = append(f.commands, cmd)
	return nil
}

func testSnapshot() *session.Snapshot {
	return &session.Snapshot{
		RunID: "run-1",
		Tick:  7,
		Time:  epoch,
		Wave:  wave.Wave{Number: 3, State: wave.StateActive, ActiveEnemies: 12},
		Chaos: session.ChaosView{Value: 42, Percentage: 71, Polarity: 1, Dominant: core.FactionB},
		Factions: []session.FactionView{
			{ID: core.FactionA, Weight: 60, Multipliers: core.IdentityMultipliers, Mood: "calm"},
			{ID: core.FactionB, Weight: 40, Multipliers: core.IdentityMultipliers, Mood: "calm"},
		},
	}
}

func do(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestSnapshotEndpoint(t *testing.T) {
	src := &fakeSource{}
	s := New(DefaultConfig(), src, nil, nil, nil, nil)

	if rec := do(t, s, http.MethodGet, "/api/v1/snapshot"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("no snapshot: status %d", rec.Code)
	}

	src.snap = testSnapshot()
	rec := do(t, s, http.MethodGet, "/api/v1/snapshot")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var body struct {
		RunID string `json:"run_id"`
		Wave  struct {
			Number int    `json:"number"`
			State  string `json:"state"`
		} `json:"wave"`
		Chaos struct {
			Value    float64 `json:"value"`
			Dominant string  `json:"dominant"`
		} `json:"chaos"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.RunID != "run-1" || body.Wave.Number != 3 || body.Wave.State != "active" || body.Chaos.Dominant != "B" {
		t.Errorf("body = %+v", body)
	}
}

func TestCommandEndpoints(t *testing.T) {
	src := &fakeSource{snap: testSnapshot()}
	s := New(DefaultConfig(), src, nil, nil, nil, nil)

	for _, path := range []string{"/api/v1/wave/next", "/api/v1/restart", "/api/v1/pause", "/api/v1/resume"} {
		if rec := do(t, s, http.MethodPost, path); rec.Code != http.StatusAccepted {
			t.Errorf("POST %s: status %d", path, rec.Code)
		}
	}
	want := []session.Command{session.CommandNextWave, session.CommandRestart, session.CommandPause, session.CommandResume}
	if len(src.commands) != len(want) {
		t.Fatalf("commands = %v", src.commands)
	}
	for i := range want {
		if src.commands[i] != want[i] {
			t.Errorf("command %d = %v, want %v", i, src.commands[i], want[i])
		}
	}

	src.err = session.ErrCommandQueueFull
	if rec := do(t, s, http.MethodPost, "/api/v1/restart"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("full queue: status %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/v1/restart"); rec.Code != http.StatusNotFound && rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET on command route: status %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := status.NewRegistry()
	reg.Ints.Get("wave.number").Store(4)
	s := New(DefaultConfig(), &fakeSource{}, nil, nil, reg, nil)

	rec := do(t, s, http.MethodGet, "/api/v1/metrics")
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["wave.number"] != float64(4) {
		t.Errorf("wave.number = %v", body["wave.number"])
	}
}

func TestRunEndpoints(t *testing.T) {
	s := New(DefaultConfig(), &fakeSource{}, nil, nil, nil, nil)
	if rec := do(t, s, http.MethodGet, "/api/v1/runs"); rec.Code != http.StatusNotFound {
		t.Errorf("journal disabled: status %d", rec.Code)
	}

	store, err := journal.Open(filepath.Join(t.TempDir(), "j.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	store.BeginRun(journal.RunRecord{ID: "r1", Seed: 1, StartedAt: 1})
	rec1, _ := journal.RecordOf("r1", event.New(epoch, event.WaveStartPayload{Wave: 1}))
	rec2, _ := journal.RecordOf("r1", event.New(epoch, event.VictoryPayload{Waves: 1}))
	store.SaveEvents([]journal.EventRecord{rec1, rec2})

	s = New(DefaultConfig(), &fakeSource{}, nil, store, nil, nil)
	rec := do(t, s, http.MethodGet, "/api/v1/runs")
	var runs []journal.RunRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &runs); err != nil || len(runs) != 1 || runs[0].ID != "r1" {
		t.Fatalf("runs = %+v, %v", runs, err)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/runs/r1/events?type=victory")
	var events []journal.EventRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil || len(events) != 1 || events[0].Type != "victory" {
		t.Errorf("events = %+v, %v", events, err)
	}
}

func TestBuildFramesChunksEvents(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxEventsFrame = 2
	q := event.NewQueue()
	for i := 1; i <= 3; i++ {
		q.Push(event.New(epoch, event.WaveStartPayload{Wave: i}))
	}
	s := New(cfg, &fakeSource{snap: testSnapshot()}, q, nil, nil, nil)

	frames := s.buildFrames()
	if len(frames) != 3 {
		t.Fatalf("frames = %d, want 3", len(frames))
	}
	if frames[0].Type != FrameEvent || len(frames[0].Events) != 2 || len(frames[1].Events) != 1 || frames[2].Type != FrameSnapshot {
		t.Errorf("frame layout wrong: %s/%d %s/%d %s", frames[0].Type, len(frames[0].Events),
			frames[1].Type, len(frames[1].Events), frames[2].Type)
	}

	data, err := EncodeFrame(frames[0])
	if err != nil {
		t.Fatal(err)
	}
	m, err := DecodeFrame(data)
	if err != nil {
		t.Fatal(err)
	}
	if m["type"] != FrameEvent {
		t.Errorf("decoded type = %v", m["type"])
	}
	events, ok := m["events"].([]any)
	if !ok || len(events) != 2 {
		t.Fatalf("decoded events = %#v", m["events"])
	}
	first := events[0].(map[string]any)
	if first["type"] != "wave-start" {
		t.Errorf("decoded event type = %v", first["type"])
	}

	if again := s.buildFrames(); len(again) != 1 {
		t.Errorf("queue not drained: %d frames", len(again))
	}
}

func TestWebsocketFeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Addr = "127.0.0.1:0"
	cfg.FrameInterval = 20 * time.Millisecond
	q := event.NewQueue()
	s := New(cfg, &fakeSource{snap: testSnapshot()}, q, nil, nil, nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+s.Addr()+"/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	msgType, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if msgType != websocket.BinaryMessage {
		t.Errorf("message type = %d, want binary", msgType)
	}
	m, err := DecodeFrame(data)
	if err != nil || m["type"] != FrameSnapshot {
		t.Fatalf("first frame = %v, %v", m["type"], err)
	}

	q.Push(event.New(epoch, event.BattleStartPayload{BattleID: "b1", CountA: 4, CountB: 4}))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("no event frame: %v", err)
		}
		m, err := DecodeFrame(data)
		if err != nil {
			t.Fatal(err)
		}
		if m["type"] == FrameEvent {
			ev := m["events"].([]any)[0].(map[string]any)
			if !strings.EqualFold(ev["type"].(string), string(event.BattleStart)) {
				t.Errorf("event = %v", ev["type"])
			}
			break
		}
	}

	if err := s.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("connection still open after Stop")
	}
}
