package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/schema"
	"go.uber.org/zap"

	"github.com/muurk/wifipanel/internal/logging"
	"github.com/muurk/wifipanel/internal/panel"
	"github.com/muurk/wifipanel/internal/wifiapi"
)

// FetchHeader marks requests sent by panel.js.
const FetchHeader = "X-Panel-Fetch"

// rowForm is the body of a row action form.
type rowForm struct {
	Key      string `schema:"key,required"`
	Command  string `schema:"command"`
	Password string `schema:"password"`
}

var formDecoder = newFormDecoder()

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// decodeRow parses the form (or query for GET) into a rowForm.
func decodeRow(r *http.Request) (rowForm, error) {
	var form rowForm
	if err := r.ParseForm(); err != nil {
		return form, err
	}
	src := r.PostForm
	if r.Method == http.MethodGet {
		src = r.Form
	}
	if err := formDecoder.Decode(&form, src); err != nil {
		return form, err
	}
	if form.Key == "" {
		return form, errors.New("key is required")
	}
	return form, nil
}

func isFetch(r *http.Request) bool {
	return r.Header.Get(FetchHeader) != ""
}

// errorStatus maps a controller error to the status returned to fetch callers.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, panel.ErrUnknownAction):
		return http.StatusNotFound
	case errors.Is(err, wifiapi.ErrInvalidCredentials):
		return http.StatusBadRequest
	case wifiapi.IsHTTPError(err) && wifiapi.StatusCode(err) < http.StatusInternalServerError:
		return wifiapi.StatusCode(err)
	}
	return http.StatusBadGateway
}

// respond finishes a form submission. The controller already turned err into
// the panel message, so browsers are simply sent back to the page.
func respond(w http.ResponseWriter, r *http.Request, err error) {
	if !isFetch(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		writeJSON(w, errorStatus(err), map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func badRequest(w http.ResponseWriter, r *http.Request, err error) {
	if isFetch(r) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("Failed to write JSON response", zap.Error(err))
	}
}

// requestLogger logs every request and its outcome.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		logging.LogHTTPResponse(r.RemoteAddr, r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}
