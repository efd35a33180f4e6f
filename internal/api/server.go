// Package api exposes a running world over HTTP for dashboards and
// scripted control. All mutation goes through the server's lock; the
// world itself is not safe for concurrent stepping.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/railkit/railsim/internal/config"
	"github.com/railkit/railsim/internal/events"
	"github.com/railkit/railsim/internal/train"
	"github.com/railkit/railsim/internal/world"
)

const maxRecentEvents = 256

type Server struct {
	mu       sync.RWMutex
	scenario *config.Scenario
	world    *world.World
	events   <-chan events.Event
	recent   []events.Event
	paused   bool
}

// New builds the scenario's world and wraps it. The caller drives time
// with Tick, typically from a ticker goroutine, while handlers read and
// mutate under the same lock.
func New(scenario *config.Scenario) (*Server, error) {
	s := &Server{scenario: scenario}
	if err := s.rebuild(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) rebuild() error {
	w, err := s.scenario.Build()
	if err != nil {
		return err
	}
	if s.world != nil {
		s.world.Close()
	}
	s.world = w
	s.events = w.Events(maxRecentEvents)
	s.recent = nil
	return nil
}

// Tick advances the world by elapsed seconds unless paused.
func (s *Server) Tick(elapsed float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused {
		return
	}
	s.world.Step(elapsed)
	s.drainEvents()
}

func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.world.Close()
}

// drainEvents moves whatever the bus has queued into the recent ring.
// Callers hold the write lock.
func (s *Server) drainEvents() {
	for {
		select {
		case e, ok := <-s.events:
			if !ok {
				return
			}
			s.recent = append(s.recent, e)
			if len(s.recent) > maxRecentEvents {
				s.recent = s.recent[len(s.recent)-maxRecentEvents:]
			}
		default:
			return
		}
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/state", s.handleState)
	r.Get("/track", s.handleTrack)
	r.Get("/trains", s.handleTrains)
	r.Get("/trains/{index}", s.handleTrain)
	r.Get("/events", s.handleEvents)
	r.Post("/step", s.handleStep)
	r.Post("/pause", s.handlePause)
	r.Post("/resume", s.handleResume)
	r.Post("/reset", s.handleReset)
	r.Post("/trains/{index}/handles", s.handleSetHandles)

	return r
}

type TrainSnapshot struct {
	Index        int     `json:"index"`
	Name         string  `json:"name"`
	State        string  `json:"state"`
	Player       bool    `json:"player"`
	Position     float64 `json:"position"`
	Speed        float64 `json:"speed"`
	Cars         int     `json:"cars"`
	DerailedCars int     `json:"derailed_cars"`
}

type CarSnapshot struct {
	Position       float64 `json:"position"`
	Speed          float64 `json:"speed"`
	PerceivedSpeed float64 `json:"perceived_speed"`
	Acceleration   float64 `json:"acceleration"`
	Roll           float64 `json:"roll"`
	Status         string  `json:"status"`
	Motor          bool    `json:"motor"`
}

type TrainDetail struct {
	Index   int           `json:"index"`
	Name    string        `json:"name"`
	State   string        `json:"state"`
	Player  bool          `json:"player"`
	Handles HandlesUpdate `json:"handles"`
	Cars    []CarSnapshot `json:"cars"`
}

type HandlesUpdate struct {
	Reverser       int  `json:"reverser"`
	PowerNotch     int  `json:"power_notch"`
	BrakeNotch     int  `json:"brake_notch"`
	HoldBrake      bool `json:"hold_brake"`
	EmergencyBrake bool `json:"emergency_brake"`
}

type StateSnapshot struct {
	Scenario string          `json:"scenario"`
	Time     float64         `json:"time"`
	Paused   bool            `json:"paused"`
	Trains   []TrainSnapshot `json:"trains"`
}

type EventView struct {
	Kind     string  `json:"kind"`
	Train    string  `json:"train"`
	Car      int     `json:"car"`
	Severity float64 `json:"severity"`
	Time     float64 `json:"time"`
}

func snapshotTrain(i int, t *train.Train) TrainSnapshot {
	derailed := 0
	for _, c := range t.Cars {
		if c.Derailed {
			derailed++
		}
	}
	return TrainSnapshot{
		Index:        i,
		Name:         t.Name,
		State:        t.State.String(),
		Player:       t.IsPlayer,
		Position:     t.Cars[0].CenterPosition(),
		Speed:        t.Cars[0].Specs.CurrentSpeed,
		Cars:         len(t.Cars),
		DerailedCars: derailed,
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drainEvents()

	snap := StateSnapshot{
		Scenario: s.scenario.Name,
		Time:     s.world.Now(),
		Paused:   s.paused,
		Trains:   make([]TrainSnapshot, 0, len(s.world.Trains)),
	}
	for i, t := range s.world.Trains {
		snap.Trains = append(snap.Trains, snapshotTrain(i, t))
	}
	writeJSON(w, snap)
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	layout := s.world.Layout
	writeJSON(w, map[string]interface{}{
		"gauge":    layout.Gauge(),
		"length":   layout.Length(),
		"segments": len(s.scenario.Track.Segments),
		"buffers":  layout.Buffers(),
	})
}

func (s *Server) handleTrains(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]TrainSnapshot, 0, len(s.world.Trains))
	for i, t := range s.world.Trains {
		out = append(out, snapshotTrain(i, t))
	}
	writeJSON(w, out)
}

func (s *Server) trainByParam(r *http.Request) (int, *train.Train, error) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return 0, nil, fmt.Errorf("bad train index")
	}
	if idx < 0 || idx >= len(s.world.Trains) {
		return 0, nil, fmt.Errorf("no train %d", idx)
	}
	return idx, s.world.Trains[idx], nil
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, t, err := s.trainByParam(r)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}

	detail := TrainDetail{
		Index:  idx,
		Name:   t.Name,
		State:  t.State.String(),
		Player: t.IsPlayer,
		Handles: HandlesUpdate{
			Reverser:       t.Handles.Reverser,
			PowerNotch:     t.Handles.PowerNotch,
			BrakeNotch:     t.Handles.BrakeNotch,
			HoldBrake:      t.Handles.HoldBrake,
			EmergencyBrake: t.Handles.EmergencyBrake,
		},
		Cars: make([]CarSnapshot, 0, len(t.Cars)),
	}
	for _, c := range t.Cars {
		detail.Cars = append(detail.Cars, CarSnapshot{
			Position:       c.CenterPosition(),
			Speed:          c.Specs.CurrentSpeed,
			PerceivedSpeed: c.Specs.CurrentPerceivedSpeed,
			Acceleration:   c.Specs.CurrentAcceleration,
			Roll:           c.TotalRollAngle(),
			Status:         c.Status().String(),
			Motor:          c.Specs.IsMotorCar,
		})
	}
	writeJSON(w, detail)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drainEvents()

	out := make([]EventView, 0, len(s.recent))
	for _, e := range s.recent {
		out = append(out, EventView{
			Kind:     e.Kind.String(),
			Train:    e.Train,
			Car:      e.Car,
			Severity: e.Severity,
			Time:     e.Time,
		})
	}
	writeJSON(w, out)
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Elapsed float64 `json:"elapsed"`
		Count   int     `json:"count"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Elapsed <= 0 {
		req.Elapsed = s.scenario.Dt
	}
	if req.Count < 1 {
		req.Count = 1
	}
	if req.Count > 100000 {
		writeJSONError(w, http.StatusBadRequest, "step count too large")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < req.Count; i++ {
		s.world.Step(req.Elapsed)
	}
	s.drainEvents()
	writeJSON(w, map[string]float64{"time": s.world.Now()})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
	writeJSON(w, map[string]bool{"paused": true})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	writeJSON(w, map[string]bool{"paused": false})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.rebuild(); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]float64{"time": s.world.Now()})
}

func (s *Server) handleSetHandles(w http.ResponseWriter, r *http.Request) {
	var req HandlesUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "bad request")
		return
	}
	if req.Reverser < -1 || req.Reverser > 1 {
		writeJSONError(w, http.StatusBadRequest, "reverser must be -1, 0 or 1")
		return
	}
	if req.PowerNotch < 0 || req.BrakeNotch < 0 {
		writeJSONError(w, http.StatusBadRequest, "notches must be non-negative")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, t, err := s.trainByParam(r)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	t.Handles = train.Handles{
		Reverser:       req.Reverser,
		PowerNotch:     req.PowerNotch,
		BrakeNotch:     req.BrakeNotch,
		HoldBrake:      req.HoldBrake,
		EmergencyBrake: req.EmergencyBrake,
	}
	writeJSON(w, req)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	if msg == "" {
		msg = http.StatusText(status)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
