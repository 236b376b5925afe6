// Package server exposes the simulation over HTTP: JSON snapshot and control endpoints
// and a websocket feed of msgpack frames
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/lixenwraith/chaoswave/core"
	"github.com/lixenwraith/chaoswave/event"
	"github.com/lixenwraith/chaoswave/journal"
	"github.com/lixenwraith/chaoswave/session"
	"github.com/lixenwraith/chaoswave/status"
)

// Source is the simulation surface the server reads and commands
type Source interface {
	Snapshot() *session.Snapshot
	Submit(cmd session.Command) error
}

// RunSource serves journaled runs; optional
type RunSource interface {
	Runs(limit int) ([]journal.RunRecord, error)
	Events(runID string, typ event.Type, limit int) ([]journal.EventRecord, error)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Server struct {
	cfg    Config
	src    Source
	runs   RunSource
	queue  *event.Queue
	reg    *status.Registry
	hub    *Hub
	router *gin.Engine
	http   *http.Server
	log    *slog.Logger

	addr     string
	mu       sync.Mutex
	stopOnce sync.Once
	stopped  chan struct{}
	wg       sync.WaitGroup
	lastLost uint64

	mFrames *atomic.Int64
}

// New builds the router; queue and runs may be nil
func New(cfg Config, src Source, queue *event.Queue, runs RunSource, reg *status.Registry, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	reg = status.OrNew(reg)
	log = log.With("component", "server")
	s := &Server{
		cfg:     cfg,
		src:     src,
		runs:    runs,
		queue:   queue,
		reg:     reg,
		hub:     NewHub(cfg.ClientBuffer, cfg.WriteTimeout, log, reg),
		log:     log,
		stopped: make(chan struct{}),
		mFrames: reg.Ints.Get("server.frames"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	api := r.Group("/api/v1")
	api.GET("/snapshot", s.handleSnapshot)
	api.GET("/metrics", s.handleMetrics)
	api.POST("/wave/next", s.command(session.CommandNextWave))
	api.POST("/restart", s.command(session.CommandRestart))
	api.POST("/pause", s.command(session.CommandPause))
	api.POST("/resume", s.command(session.CommandResume))
	api.GET("/runs", s.handleRuns)
	api.GET("/runs/:id/events", s.handleRunEvents)

	r.GET("/ws", s.handleWebsocket)
	return r
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request", "method", c.Request.Method, "path", c.FullPath(),
			"status", c.Writer.Status(), "elapsed", time.Since(start))
	}
}

// Handler exposes the router for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Name() string {
	return "server"
}

// Addr returns the bound listen address once started
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Start binds the listener and launches the HTTP, hub and frame goroutines
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.http = &http.Server{Handler: s.router, ReadHeaderTimeout: 5 * time.Second}
	s.mu.Unlock()

	onPanic := func(err error) { s.log.Error("server goroutine crashed", "error", err) }
	s.wg.Add(3)
	core.Go(func() {
		defer s.wg.Done()
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http serve failed", "error", err)
		}
	}, onPanic)
	core.Go(func() {
		defer s.wg.Done()
		s.hub.Run()
	}, onPanic)
	core.Go(func() {
		defer s.wg.Done()
		s.frames(ctx)
	}, onPanic)

	s.log.Info("server listening", "addr", s.addr)
	return nil
}

// Stop shuts the listener down within the grace period and closes websocket clients
func (s *Server) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.stopped)
		s.mu.Lock()
		srv := s.http
		s.mu.Unlock()
		if srv == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownGrace)
		defer cancel()
		err = srv.Shutdown(ctx)
		s.hub.Stop()
		s.wg.Wait()
	})
	return err
}

// frames pushes event and snapshot frames to the hub at a fixed cadence
func (s *Server) frames(ctx context.Context) {
	interval := s.cfg.FrameInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopped:
			return
		case <-ticker.C:
			s.pushFrames()
		}
	}
}

// pushFrames broadcasts pending events in bounded chunks, then the latest snapshot
func (s *Server) pushFrames() {
	for _, f := range s.buildFrames() {
		data, err := EncodeFrame(f)
		if err != nil {
			s.log.Warn("frame encode failed", "type", f.Type, "error", err)
			continue
		}
		if s.hub.Broadcast(data) {
			s.mFrames.Add(1)
		}
	}
}

func (s *Server) buildFrames() []*Frame {
	var frames []*Frame
	if s.queue != nil {
		events := s.queue.Drain()
		lost := s.queue.Overwritten()
		dropped := lost - s.lastLost
		s.lastLost = lost
		chunk := max(s.cfg.MaxEventsFrame, 1)
		for start := 0; start < len(events); start += chunk {
			end := min(start+chunk, len(events))
			f := &Frame{Type: FrameEvent, Events: make([]session.EventView, 0, end-start)}
			for _, e := range events[start:end] {
				f.Events = append(f.Events, session.ViewOf(e))
			}
			frames = append(frames, f)
		}
		if dropped > 0 && len(frames) > 0 {
			frames[0].Dropped = dropped
		}
	}
	if snap := s.src.Snapshot(); snap != nil {
		frames = append(frames, &Frame{Type: FrameSnapshot, Snapshot: snap})
	}
	return frames
}

func (s *Server) handleSnapshot(c *gin.Context) {
	snap := s.src.Snapshot()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no snapshot yet"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.reg.Snapshot())
}

func (s *Server) command(cmd session.Command) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.src.Submit(cmd); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"command": cmd.String()})
	}
}

func queryLimit(c *gin.Context, def int) int {
	n, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || n <= 0 {
		return def
	}
	return min(n, 1000)
}

func (s *Server) handleRuns(c *gin.Context) {
	if s.runs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "journal disabled"})
		return
	}
	runs, err := s.runs.Runs(queryLimit(c, 20))
	if err != nil {
		s.log.Warn("runs query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (s *Server) handleRunEvents(c *gin.Context) {
	if s.runs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "journal disabled"})
		return
	}
	events, err := s.runs.Events(c.Param("id"), event.Type(c.Query("type")), queryLimit(c, 200))
	if err != nil {
		s.log.Warn("events query failed", "run", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, events)
}

func (s *Server) handleWebsocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", "error", err)
		return
	}
	var first []byte
	if snap := s.src.Snapshot(); snap != nil {
		if first, err = EncodeFrame(&Frame{Type: FrameSnapshot, Snapshot: snap}); err != nil {
			s.log.Warn("frame encode failed", "error", err)
		}
	}
	s.hub.Serve(conn, first)
}

// Clients returns the connected websocket client count
func (s *Server) Clients() int {
	return s.hub.Clients()
}
