package ports

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func MakeHealthHandler(nowFunc func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, http.StatusOK, healthResponse{
			Status:    "ok",
			Timestamp: nowFunc().UTC(),
		})
	}
}
