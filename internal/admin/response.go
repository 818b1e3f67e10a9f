package admin

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/naskel/hdds/internal/logger"
)

// Response wraps every admin API payload with a status and timestamp.
type Response struct {
	Status    string      `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// writeJSON encodes to a buffer first so a marshal failure never leaves a
// half-written response on the wire.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		logger.Error("admin API failed to encode response", logger.Err(err))
		http.Error(w, `{"status":"error","error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func ok(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, Response{Status: "ok", Timestamp: time.Now().UTC(), Data: data})
}

func notFound(w http.ResponseWriter, what string) {
	writeJSON(w, http.StatusNotFound, Response{Status: "error", Timestamp: time.Now().UTC(), Error: what + " not found"})
}
