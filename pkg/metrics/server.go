// HTTP handler for the Prometheus metrics endpoint
//
// Serves the generator metrics in the text exposition format, optionally
// behind basic authentication. The API server mounts it at /metrics.
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"crypto/subtle"
	"net/http"
	"strconv"
)

// ContentType is the Prometheus text exposition content type.
const ContentType = "text/plain; version=0.0.4; charset=utf-8"

// HandlerConfig holds optional basic auth credentials.
type HandlerConfig struct {
	Username string
	Password string
}

// Handler serves Prometheus metrics over HTTP.
type Handler struct {
	gm       *GeneratorMetrics
	username string
	password string
}

// NewHandler returns a metrics handler for gm.
func NewHandler(gm *GeneratorMetrics, config HandlerConfig) *Handler {
	return &Handler{
		gm:       gm,
		username: config.Username,
		password: config.Password,
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.checkAuth(w, r) {
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", ContentType)
	output := h.gm.Gather()
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Length", strconv.Itoa(len(output)))
		return
	}
	_, _ = w.Write([]byte(output))
}

// checkAuth verifies basic auth if configured
func (h *Handler) checkAuth(w http.ResponseWriter, r *http.Request) bool {
	if h.username == "" && h.password == "" {
		return true
	}

	username, password, ok := r.BasicAuth()
	if ok {
		userMatch := subtle.ConstantTimeCompare([]byte(username), []byte(h.username)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(password), []byte(h.password)) == 1
		if userMatch && passMatch {
			return true
		}
	}

	w.Header().Set("WWW-Authenticate", `Basic realm="macrogen metrics"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
	return false
}
