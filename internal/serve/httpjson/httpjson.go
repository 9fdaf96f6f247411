// Package httpjson renders JSON responses.
package httpjson

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

func RenderStatus(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("rendering JSON response: %v", err)
	}
}

func Render(w http.ResponseWriter, body any) {
	RenderStatus(w, http.StatusOK, body)
}
