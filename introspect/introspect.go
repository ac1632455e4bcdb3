// Package introspect serves a read-only HTTP view of the frameworks known to
// an MCA base: what was discovered, what was selected and in which order.
package introspect

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GoCodeAlone/mca"
)

// ModulesResponse is the body of GET /frameworks/{name}/modules.
type ModulesResponse struct {
	Framework string `json:"framework"`
	Modules   string `json:"modules"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handler struct {
	base *mca.Base
}

// NewRouter returns the introspection routes for base. When gatherer is not
// nil its metrics are served at /metrics.
func NewRouter(base *mca.Base, gatherer prometheus.Gatherer) chi.Router {
	h := &handler{base: base}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/frameworks", h.listFrameworks)
	r.Get("/frameworks/{name}", h.getFramework)
	r.Get("/frameworks/{name}/modules", h.getModules)
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (h *handler) listFrameworks(w http.ResponseWriter, _ *http.Request) {
	frameworks := h.base.Frameworks()
	snaps := make([]mca.FrameworkSnapshot, 0, len(frameworks))
	for _, fw := range frameworks {
		snaps = append(snaps, fw.Snapshot())
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (h *handler) getFramework(w http.ResponseWriter, r *http.Request) {
	fw, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, fw.Snapshot())
}

func (h *handler) getModules(w http.ResponseWriter, r *http.Request) {
	fw, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ModulesResponse{
		Framework: fw.Name(),
		Modules:   h.base.AvailableModules(fw),
	})
}

func (h *handler) lookup(w http.ResponseWriter, r *http.Request) (*mca.Framework, bool) {
	name := chi.URLParam(r, "name")
	fw, ok := h.base.Framework(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "framework " + name + " not found"})
		return nil, false
	}
	return fw, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
