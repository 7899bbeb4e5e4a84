// Package devicesim simulates a device's WiFi configuration API.
//
// The simulator answers the /api/wifi namespace the way the device firmware
// does: the saved list stays sorted by name descending, adding a saved name
// again is a conflict, and stopping the soft-AP switches the device to
// station mode on the strongest saved network in range. Anything outside the
// namespace is served as a static file, "/" being gui.html.
package devicesim

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net"
	"net/http"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/muurk/wifipanel/internal/discovery"
	"github.com/muurk/wifipanel/internal/logging"
	"github.com/muurk/wifipanel/internal/wifiapi"
)

//go:embed static/*
var staticFS embed.FS

// Modes reported in the status snapshot.
const (
	ModeSoftAP  = "softap"
	ModeStation = "station"
)

// DefaultHostname names the simulated device.
const DefaultHostname = "wifipanel-sim"

// DefaultScanMaxAge is how long a scan result is served from cache.
const DefaultScanMaxAge = 30 * time.Second

// SoftAPAddress is the device address while it runs its own access point.
const SoftAPAddress = "192.168.4.1"

// Option configures a Simulator
type Option func(*Simulator)

// WithStore sets where saved networks are kept (default in memory)
func WithStore(s Store) Option {
	return func(sim *Simulator) {
		sim.store = s
	}
}

// WithScanner sets the source of scan results (default DefaultNetworks)
func WithScanner(s Scanner) Option {
	return func(sim *Simulator) {
		sim.scan.scanner = s
	}
}

// WithScanMaxAge sets how long a scan result is reused
func WithScanMaxAge(d time.Duration) Option {
	return func(sim *Simulator) {
		sim.scan.maxAge = d
	}
}

// WithClock sets the clock used for scan ageing
func WithClock(c clock.PassiveClock) Option {
	return func(sim *Simulator) {
		sim.scan.clock = c
	}
}

// WithHostname sets the device hostname
func WithHostname(name string) Option {
	return func(sim *Simulator) {
		sim.hostname = name
	}
}

// WithStaticFS replaces the embedded static files
func WithStaticFS(fsys fs.FS) Option {
	return func(sim *Simulator) {
		sim.static = fsys
	}
}

// WithSoftAPStopHook sets a function called after the soft-AP was stopped
func WithSoftAPStopHook(fn func()) Option {
	return func(sim *Simulator) {
		sim.onStop = fn
	}
}

// Simulator is a fake device
type Simulator struct {
	store    Store
	scan     *scanCache
	hostname string
	static   fs.FS
	onStop   func()

	mu     sync.Mutex
	softAP bool

	mux *http.ServeMux
}

// New creates a simulator running its soft-AP.
func New(opts ...Option) *Simulator {
	sim := &Simulator{
		hostname: DefaultHostname,
		softAP:   true,
		scan: &scanCache{
			scanner: StaticScanner(DefaultNetworks()),
			clock:   clock.RealClock{},
			maxAge:  DefaultScanMaxAge,
		},
	}
	for _, opt := range opts {
		opt(sim)
	}
	if sim.store == nil {
		sim.store = NewMemoryStore()
	}
	if sim.static == nil {
		sub, _ := fs.Sub(staticFS, "static")
		sim.static = sub
	}

	sim.mux = http.NewServeMux()
	sim.setupRoutes()
	return sim
}

func (s *Simulator) setupRoutes() {
	api := wifiapi.Endpoint

	s.mux.HandleFunc("GET "+api+"/configlist", s.handleConfigList)
	s.mux.HandleFunc("GET "+api+"/scan", s.handleScan)
	s.mux.HandleFunc("GET "+api+"/status", s.handleStatus)
	s.mux.HandleFunc("POST "+api+"/add", s.handleAdd)
	s.mux.HandleFunc("POST "+api+"/id", s.handleDeleteByID)
	s.mux.HandleFunc("POST "+api+"/apName", s.handleDeleteByAPName)
	// the firmware accepts DELETE here as well
	s.mux.HandleFunc("DELETE "+api+"/apName", s.handleDeleteByAPName)
	s.mux.HandleFunc("POST "+api+"/softAp/stop", s.handleStop)

	s.mux.HandleFunc("GET /", s.handleStatic)
}

// ServeHTTP implements http.Handler
func (s *Simulator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	logging.LogHTTPResponse(r.RemoteAddr, r.Method, r.URL.Path, rec.status, time.Since(start))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// SoftAP reports whether the soft-AP is still running.
func (s *Simulator) SoftAP() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.softAP
}

// Scans returns how many scans were actually performed.
func (s *Simulator) Scans() int {
	return s.scan.count()
}

// Store returns the saved network store.
func (s *Simulator) Store() Store {
	return s.store
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", wifiapi.ContentType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("Failed to write response", zap.Error(err))
	}
}

func writeMessage(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, wifiapi.Message{Message: fmt.Sprintf(format, args...)})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body: %v", err)
		return false
	}
	return true
}

func (s *Simulator) handleConfigList(w http.ResponseWriter, r *http.Request) {
	saved, err := s.store.List(r.Context())
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Simulator) handleScan(w http.ResponseWriter, r *http.Request) {
	scanned, err := s.scan.get(r.Context())
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "scan failed: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, scanned)
}

func (s *Simulator) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.Status(r.Context())
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Status builds the device's status snapshot.
func (s *Simulator) Status(ctx context.Context) (wifiapi.Status, error) {
	saved, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	if s.SoftAP() {
		return wifiapi.StatusOf(
			"mode", ModeSoftAP,
			"hostname", s.hostname,
			"ssid", s.hostname,
			"ip", SoftAPAddress,
			"connected", false,
			"saved", len(saved),
		)
	}

	scanned, err := s.scan.get(ctx)
	if err != nil {
		return nil, err
	}

	best, ok := selectBest(saved, scanned)
	if !ok {
		return wifiapi.StatusOf(
			"mode", ModeStation,
			"hostname", s.hostname,
			"ssid", "",
			"ip", "",
			"connected", false,
			"saved", len(saved),
		)
	}
	return wifiapi.StatusOf(
		"mode", ModeStation,
		"hostname", s.hostname,
		"ssid", best.SSID,
		"ip", "192.168.1."+strconv.Itoa(100+best.Channel),
		"rssi", best.RSSI,
		"channel", best.Channel,
		"connected", true,
		"saved", len(saved),
	)
}

func (s *Simulator) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req wifiapi.AddRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := wifiapi.ValidateCredentials(req.APName, req.APPass); err != nil {
		writeMessage(w, http.StatusBadRequest, "%v", err)
		return
	}

	n, err := s.store.Add(r.Context(), req.APName, req.APPass)
	switch {
	case errors.Is(err, ErrDuplicate):
		writeMessage(w, http.StatusConflict, "%s is already saved", req.APName)
		return
	case err != nil:
		writeMessage(w, http.StatusInternalServerError, "%v", err)
		return
	}

	logging.Info("Saved network added", zap.String("ap_name", n.APName), zap.Int("id", n.ID))
	writeMessage(w, http.StatusOK, "%s added", n.APName)
}

func (s *Simulator) handleDeleteByID(w http.ResponseWriter, r *http.Request) {
	var req wifiapi.DeleteByIDRequest
	if !decodeBody(w, r, &req) {
		return
	}
	n, err := s.store.DeleteByID(r.Context(), req.ID)
	s.writeDeleted(w, n, err, strconv.Itoa(req.ID))
}

func (s *Simulator) handleDeleteByAPName(w http.ResponseWriter, r *http.Request) {
	var req wifiapi.DeleteByAPNameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	n, err := s.store.DeleteByAPName(r.Context(), req.APName)
	s.writeDeleted(w, n, err, req.APName)
}

func (s *Simulator) writeDeleted(w http.ResponseWriter, n wifiapi.SavedNetwork, err error, key string) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeMessage(w, http.StatusNotFound, "%s is not saved", key)
		return
	case err != nil:
		writeMessage(w, http.StatusInternalServerError, "%v", err)
		return
	}

	logging.Info("Saved network removed", zap.String("ap_name", n.APName), zap.Int("id", n.ID))
	writeMessage(w, http.StatusOK, "%s removed", n.APName)
}

func (s *Simulator) handleStop(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	wasRunning := s.softAP
	s.softAP = false
	s.mu.Unlock()

	if !wasRunning {
		writeMessage(w, http.StatusOK, "soft-AP already stopped")
		return
	}

	logging.Info("Soft-AP stopped")
	writeMessage(w, http.StatusOK, "soft-AP stopped")

	if s.onStop != nil {
		s.onStop()
	}
}

func (s *Simulator) handleStatic(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	if name == "" {
		name = "gui.html"
	}

	data, err := fs.ReadFile(s.static, name)
	if err != nil {
		http.Error(w, "404 not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType(name))
	w.Write(data)
}

// contentType follows the firmware: .js is text/javascript, everything else
// defaults to text/html unless the extension is well known.
func contentType(name string) string {
	ext := path.Ext(name)
	switch ext {
	case ".js":
		return "text/javascript"
	case "", ".html", ".htm":
		return "text/html"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "text/html"
}

// Serve runs the simulator on addr until ctx is done. With advertise set the
// simulator registers itself over mDNS.
func (s *Simulator) Serve(ctx context.Context, addr string, advertise bool) error {
	ln, err := Listen(addr)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, ln, advertise)
}

// Listen binds addr. Clients may connect as soon as it returns; their requests
// are answered once ServeListener runs.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return ln, nil
}

// ServeListener serves on ln until ctx is done and closes it.
func (s *Simulator) ServeListener(ctx context.Context, ln net.Listener, advertise bool) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if advertise {
		port := ln.Addr().(*net.TCPAddr).Port
		adv, err := discovery.Advertise(s.hostname, port, discovery.ModeKey+"="+ModeSoftAP)
		if err != nil {
			logging.Warn("mDNS advertisement failed", zap.Error(err))
		} else {
			defer adv.Shutdown()
			prev := s.onStop
			s.onStop = func() {
				adv.SetText(discovery.ModeKey + "=" + ModeStation)
				if prev != nil {
					prev()
				}
			}
		}
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("Device simulator listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("simulator shutdown: %w", err)
	}
	return nil
}
