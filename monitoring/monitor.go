// Package monitoring serves a running simulation over HTTP, so that an
// operator can watch the stations and change their settings while the
// engine runs.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"runtime"
	"runtime/pprof"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/llrf/monitoring/web"
	"github.com/sarchlab/llrf/sim"
	"github.com/sarchlab/llrf/station"
	"github.com/sarchlab/llrf/tracing"
)

// A Station is a station component that can be observed and operated.
type Station interface {
	sim.Named

	Snapshot() station.Snapshot
	SetSetPoint(setPoint complex128)
	SetOpenLoop(openLoop bool)
	SetDisturbance(disturbance complex128)
}

// Monitor exposes an engine and its stations through a REST API and a
// dashboard.
type Monitor struct {
	engine          sim.Engine
	portNumber      int
	profileDuration time.Duration
	server          *http.Server

	stationsLock sync.RWMutex
	stations     map[string]Station

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a monitor without engine or stations.
func NewMonitor() *Monitor {
	return &Monitor{
		profileDuration: time.Second,
		stations:        make(map[string]Station),
	}
}

// WithPortNumber fixes the port of the server. Privileged ports are
// refused in favour of a random free port.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1024 {
		slog.Warn("monitor port not allowed, using a random port",
			"port", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterEngine sets the engine that pause and continue act on.
func (m *Monitor) RegisterEngine(e sim.Engine) {
	m.engine = e
}

// RegisterStation makes a station visible under its name. It panics on a
// duplicate name.
func (m *Monitor) RegisterStation(s Station) {
	m.stationsLock.Lock()
	defer m.stationsLock.Unlock()

	if _, found := m.stations[s.Name()]; found {
		panic("station " + s.Name() + " is already monitored")
	}

	m.stations[s.Name()] = s
}

// CreateProgressBar adds a bar to the progress report.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        sim.UniqueID(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	m.progressBars = append(m.progressBars, bar)
	m.progressBarsLock.Unlock()

	return bar
}

// CompleteProgressBar removes a bar from the progress report.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	kept := m.progressBars[:0]
	for _, b := range m.progressBars {
		if b != pb {
			kept = append(kept, b)
		}
	}

	m.progressBars = kept
}

// Router returns the HTTP routes of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/pause", m.pauseEngine)
	api.HandleFunc("/continue", m.continueEngine)
	api.HandleFunc("/now", m.now)
	api.HandleFunc("/list_stations", m.listStations)
	api.HandleFunc("/station/{name}", m.stationDetails)
	api.HandleFunc("/snapshot/{name}", m.stationSnapshot)
	api.HandleFunc("/setpoint/{name}", m.setSetPoint).Methods(http.MethodPost)
	api.HandleFunc("/openloop/{name}", m.setOpenLoop).Methods(http.MethodPost)
	api.HandleFunc("/disturbance/{name}", m.setDisturbance).
		Methods(http.MethodPost)
	api.HandleFunc("/progress", m.listProgressBars)
	api.HandleFunc("/resource", m.listResources)
	api.HandleFunc("/profile", m.collectProfile)

	r.PathPrefix("/").Handler(http.FileServer(web.Assets()))

	return r
}

// StartServer serves the monitor in the background and returns its URL.
func (m *Monitor) StartServer() string {
	addr := ":" + strconv.Itoa(m.portNumber)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		panic(fmt.Errorf("monitor cannot listen on %s: %w", addr, err))
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	slog.Info("monitoring simulation", "url", url)

	m.server = &http.Server{
		Handler:           m.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("monitor stopped", "err", err)
		}
	}()

	return url
}

// StopServer shuts the server down, waiting for open requests until ctx
// ends.
func (m *Monitor) StopServer(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

type engineStateRsp struct {
	Paused bool `json:"paused"`
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Pause()
	writeJSON(w, engineStateRsp{Paused: true})
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Continue()
	writeJSON(w, engineStateRsp{Paused: false})
}

type nowRsp struct {
	Now float64 `json:"now"`
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, nowRsp{Now: float64(m.engine.CurrentTime())})
}

func (m *Monitor) listStations(w http.ResponseWriter, _ *http.Request) {
	m.stationsLock.RLock()
	names := make([]string, 0, len(m.stations))
	for name := range m.stations {
		names = append(names, name)
	}
	m.stationsLock.RUnlock()

	sort.Strings(names)
	writeJSON(w, names)
}

func (m *Monitor) stationDetails(w http.ResponseWriter, r *http.Request) {
	s := m.findStationOr404(w, r)
	if s == nil {
		return
	}

	entry := tracing.MakeStepEntry(s.Name(), s.Snapshot())

	serializer := goseth.NewSerializer()
	serializer.SetRoot(&entry)
	serializer.SetMaxDepth(1)

	var buf bytes.Buffer
	if err := serializer.Serialize(&buf); err != nil {
		internalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf.Bytes())
}

type phasor struct {
	Re float64 `json:"re"`
	Im float64 `json:"im"`
}

func makePhasor(v complex128) phasor {
	return phasor{Re: real(v), Im: imag(v)}
}

func (p phasor) complex() complex128 {
	return complex(p.Re, p.Im)
}

type snapshotRsp struct {
	Step        uint64  `json:"Step"`
	Time        float64 `json:"Time"`
	OpenLoop    bool    `json:"OpenLoop"`
	SetPoint    phasor  `json:"SetPoint"`
	Disturbance phasor  `json:"Disturbance"`
	Error       phasor  `json:"Error"`
	Drive       phasor  `json:"Drive"`
	Integrator  phasor  `json:"Integrator"`
	AmpOutput   phasor  `json:"AmpOutput"`
	Probe       phasor  `json:"Probe"`
	Reverse     phasor  `json:"Reverse"`
	Forward     phasor  `json:"Forward"`
	Voltage     phasor  `json:"Voltage"`
}

func (m *Monitor) stationSnapshot(w http.ResponseWriter, r *http.Request) {
	s := m.findStationOr404(w, r)
	if s == nil {
		return
	}

	snap := s.Snapshot()
	writeJSON(w, snapshotRsp{
		Step:        snap.Step,
		Time:        snap.Time,
		OpenLoop:    snap.OpenLoop,
		SetPoint:    makePhasor(snap.SetPoint),
		Disturbance: makePhasor(snap.Disturbance),
		Error:       makePhasor(snap.Error),
		Drive:       makePhasor(snap.Drive),
		Integrator:  makePhasor(snap.Integrator),
		AmpOutput:   makePhasor(snap.AmpOutput),
		Probe:       makePhasor(snap.Probe),
		Reverse:     makePhasor(snap.Reverse),
		Forward:     makePhasor(snap.Forward),
		Voltage:     makePhasor(snap.Voltage),
	})
}

func (m *Monitor) setSetPoint(w http.ResponseWriter, r *http.Request) {
	s := m.findStationOr404(w, r)
	if s == nil {
		return
	}

	var req phasor
	if !decodeOr400(w, r, &req) {
		return
	}

	slog.Info("set point changed from monitor",
		"station", s.Name(), "re", req.Re, "im", req.Im)
	s.SetSetPoint(req.complex())
}

func (m *Monitor) setDisturbance(w http.ResponseWriter, r *http.Request) {
	s := m.findStationOr404(w, r)
	if s == nil {
		return
	}

	var req phasor
	if !decodeOr400(w, r, &req) {
		return
	}

	slog.Info("disturbance changed from monitor",
		"station", s.Name(), "re", req.Re, "im", req.Im)
	s.SetDisturbance(req.complex())
}

type openLoopReq struct {
	OpenLoop bool `json:"open_loop"`
}

func (m *Monitor) setOpenLoop(w http.ResponseWriter, r *http.Request) {
	s := m.findStationOr404(w, r)
	if s == nil {
		return
	}

	var req openLoopReq
	if !decodeOr400(w, r, &req) {
		return
	}

	slog.Info("loop mode changed from monitor",
		"station", s.Name(), "open_loop", req.OpenLoop)
	s.SetOpenLoop(req.OpenLoop)
}

func decodeOr400(w http.ResponseWriter, r *http.Request, req any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}

	return true
}

func (m *Monitor) findStationOr404(
	w http.ResponseWriter,
	r *http.Request,
) Station {
	name := mux.Vars(r)["name"]

	m.stationsLock.RLock()
	s, found := m.stations[name]
	m.stationsLock.RUnlock()

	if !found {
		http.Error(w, "station "+name+" not found", http.StatusNotFound)
		return nil
	}

	return s
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.Copy())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
	Goroutines int     `json:"goroutines"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		internalError(w, err)
		return
	}

	cpu, err := proc.CPUPercent()
	if err != nil {
		internalError(w, err)
		return
	}

	mem, err := proc.MemoryInfo()
	if err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, resourceRsp{
		CPUPercent: cpu,
		MemorySize: mem.RSS,
		Goroutines: runtime.NumGoroutine(),
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer

	if err := pprof.StartCPUProfile(&buf); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(m.profileDuration)
	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		internalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func internalError(w http.ResponseWriter, err error) {
	slog.Error("monitor request failed", "err", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
