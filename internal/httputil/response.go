package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/banshee-data/navgraph/internal/monitoring"
)

// WriteJSON writes data as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		monitoring.Logf("failed to encode json response: %v", err)
	}
}

// WriteJSONOK writes a 200 JSON response.
func WriteJSONOK(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteJSONError writes {"error": msg} with the given status code.
func WriteJSONError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}

func BadRequest(w http.ResponseWriter, msg string)          { WriteJSONError(w, http.StatusBadRequest, msg) }
func NotFound(w http.ResponseWriter, msg string)            { WriteJSONError(w, http.StatusNotFound, msg) }
func Conflict(w http.ResponseWriter, msg string)            { WriteJSONError(w, http.StatusConflict, msg) }
func BadGateway(w http.ResponseWriter, msg string)          { WriteJSONError(w, http.StatusBadGateway, msg) }
func InternalServerError(w http.ResponseWriter, msg string) { WriteJSONError(w, http.StatusInternalServerError, msg) }
