package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/muurk/wifipanel/internal/logging"
	"github.com/muurk/wifipanel/internal/view"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/", s.handleIndex)
	r.Get("/fragments/{region}", s.handleFragment)
	r.Post("/actions/{name}", s.handleAction)

	r.Route("/saved", func(sr chi.Router) {
		sr.Post("/remove", s.handleRemove)
	})
	r.Route("/available", func(ar chi.Router) {
		ar.Get("/add", s.handleAddPrompt)
		ar.Post("/add", s.handleAdd)
	})

	r.Get("/ws", s.handleWebSocket)
	r.Get("/static/panel.js", handlePanelScript)
	r.Get("/healthz", s.handleHealth)
	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	// a failed load is already shown as the panel message
	_ = s.panel.EnsureLoaded(r.Context())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.WritePage(w, s.panel.State()); err != nil {
		logging.Error("Failed to render page", zap.Error(err))
	}
}

func (s *Server) handleFragment(w http.ResponseWriter, r *http.Request) {
	html, err := view.Fragment(s.panel.State(), chi.URLParam(r, "region"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	err := s.panel.Trigger(r.Context(), chi.URLParam(r, "name"))
	respond(w, r, err)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	form, err := decodeRow(r)
	if err != nil {
		badRequest(w, r, err)
		return
	}
	respond(w, r, s.panel.Remove(r.Context(), form.Key))
}

func (s *Server) handleAddPrompt(w http.ResponseWriter, r *http.Request) {
	form, err := decodeRow(r)
	if err != nil {
		badRequest(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.WriteAddPrompt(w, form.Key, ""); err != nil {
		logging.Error("Failed to render add prompt", zap.Error(err))
	}
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	form, err := decodeRow(r)
	if err != nil {
		badRequest(w, r, err)
		return
	}

	err = s.panel.Add(r.Context(), form.Key, form.Password)
	if err != nil && !isFetch(r) && errorStatus(err) == http.StatusBadRequest {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusBadRequest)
		if err := view.WriteAddPrompt(w, form.Key, err.Error()); err != nil {
			logging.Error("Failed to render add prompt", zap.Error(err))
		}
		return
	}
	respond(w, r, err)
}

type healthResponse struct {
	Status  string   `json:"status"`
	Loaded  bool     `json:"loaded"`
	Pending []string `json:"pending"`
	Clients int      `json:"clients"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Loaded:  s.panel.State().Loaded,
		Pending: s.panel.Pending(),
		Clients: s.GetActiveConnections(),
	})
}
