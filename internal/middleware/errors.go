package middleware

import (
	"encoding/json"
	"net/http"
)

// writeJSONError writes a {"error":{"type":...,"message":...}} body,
// matching the shape the teacher's timeout/auth middleware use.
func writeJSONError(w http.ResponseWriter, status int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"type":    errType,
			"message": message,
		},
	})
}
