package ports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Amund211/fragstat/internal/domain"
	"github.com/Amund211/fragstat/internal/reporting"
)

// Request bodies larger than this are rejected
const maxBodyBytes = 1 << 20

type successResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Total   *int   `json:"total,omitempty"`
	Page    *int   `json:"page,omitempty"`
	Message string `json:"message,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		reporting.Report(ctx, fmt.Errorf("failed to marshal response: %w", err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(data)
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, statusCode int, response successResponse) {
	response.Success = true
	writeJSON(ctx, w, statusCode, response)
}

func writeData(ctx context.Context, w http.ResponseWriter, statusCode int, data any) {
	writeSuccess(ctx, w, statusCode, successResponse{Data: data})
}

func writeError(ctx context.Context, w http.ResponseWriter, statusCode int, cause string) {
	writeJSON(ctx, w, statusCode, errorResponse{Success: false, Error: cause})
}

// writeDomainError maps the domain sentinel errors to a status code and a client facing cause.
// Unexpected errors are assumed to already be reported.
func writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAggregation):
		writeError(ctx, w, http.StatusInternalServerError, "match was stored but player aggregation failed")
	case errors.Is(err, domain.ErrValidation):
		writeError(ctx, w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrDuplicateName):
		writeError(ctx, w, http.StatusConflict, "player name already exists")
	case errors.Is(err, domain.ErrPlayerNotFound):
		writeError(ctx, w, http.StatusNotFound, "player not found")
	case errors.Is(err, domain.ErrMatchNotFound):
		writeError(ctx, w, http.StatusNotFound, "match not found")
	default:
		writeError(ctx, w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %w", domain.ErrValidation, err)
	}
	return nil
}
