package transport

import (
	"encoding/json"
	"net/http"
)

// HealthHandler returns a /healthz handler reporting whether a panel peer
// is currently connected. It is served on a port distinct from the
// WebSocket listener, per the transport configuration contract.
func (s *Server) HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK
		if !s.Connected() {
			status = "no_peer"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":    status,
			"connected": s.Connected(),
		})
	})
}
