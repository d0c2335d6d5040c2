package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/roelfdiedericks/notionvox/internal/gateway"
	. "github.com/roelfdiedericks/notionvox/internal/logging"
	"github.com/roelfdiedericks/notionvox/internal/metrics"
)

// handleWebhook handles POST /webhook. The update is processed to completion
// before responding, even if Telegram hangs up first.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		L_warn("http: webhook - failed to read body", "error", err)
		writeEnvelope(w, gateway.Error(err))
		return
	}

	ctx := context.WithoutCancel(r.Context())
	writeEnvelope(w, s.webhook.HandleWebhook(ctx, body))
}

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(w, s.webhook.Health())
}

// handleMetricsAPI handles GET /api/metrics - returns metrics as JSON
func handleMetricsAPI(w http.ResponseWriter, r *http.Request) {
	m := metrics.GetInstance()
	resp := struct {
		UptimeSeconds int64                     `json:"uptime_seconds"`
		Timestamp     time.Time                 `json:"timestamp"`
		Metrics       []*metrics.MetricSnapshot `json:"metrics"`
	}{
		UptimeSeconds: int64(m.Uptime().Seconds()),
		Timestamp:     time.Now(),
		Metrics:       m.GetSnapshot(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		L_error("http: metrics encode failed", "error", err)
	}
}

func writeEnvelope(w http.ResponseWriter, env gateway.Envelope) {
	for k, v := range env.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(env.StatusCode)
	if _, err := io.WriteString(w, env.Body); err != nil {
		L_debug("http: failed to write response", "error", err)
	}
}
