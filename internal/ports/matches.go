package ports

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Amund211/fragstat/internal/app"
	"github.com/Amund211/fragstat/internal/domain"
	"github.com/Amund211/fragstat/internal/logging"
	"github.com/Amund211/fragstat/internal/reporting"
)

func withMatchID(r *http.Request) *http.Request {
	matchID := r.PathValue("id")
	ctx := logging.AddMetaToContext(r.Context(), slog.String("matchID", matchID))
	ctx = reporting.AddExtrasToContext(ctx, map[string]string{"matchID": matchID})
	return r.WithContext(ctx)
}

// queryInt returns 0 for missing or malformed values, leaving the defaults to the app layer
func queryInt(r *http.Request, key string) int {
	value, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return value
}

func MakeListMatchesHandler(
	listMatches app.ListMatches,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildEndpointMiddleware("list_matches", readRateLimit, allowedOrigins, rootLogger, sentryMiddleware)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		page, err := listMatches(ctx, queryInt(r, "page"), queryInt(r, "limit"))
		if err != nil {
			// NOTE: ListMatches implementations handle their own error reporting
			writeDomainError(ctx, w, err)
			return
		}

		data := make([]matchResponse, 0, len(page.Matches))
		for _, match := range page.Matches {
			data = append(data, resolvedMatchToResponse(match))
		}

		writeSuccess(ctx, w, http.StatusOK, successResponse{
			Data:  data,
			Total: &page.Total,
			Page:  &page.Page,
		})
	}

	return middleware(handler)
}

func MakeGetMatchHandler(
	getMatch app.GetMatch,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildEndpointMiddleware("get_match", readRateLimit, allowedOrigins, rootLogger, sentryMiddleware)

	handler := func(w http.ResponseWriter, r *http.Request) {
		r = withMatchID(r)
		ctx := r.Context()

		match, err := getMatch(ctx, r.PathValue("id"))
		if err != nil {
			// NOTE: GetMatch implementations handle their own error reporting
			writeDomainError(ctx, w, err)
			return
		}

		writeData(ctx, w, http.StatusOK, resolvedMatchToResponse(match))
	}

	return middleware(handler)
}

func MakeCreateMatchHandler(
	createMatch app.CreateMatch,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildEndpointMiddleware("create_match", writeRateLimit, allowedOrigins, rootLogger, sentryMiddleware)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var request matchRequest
		if err := decodeBody(w, r, &request); err != nil {
			writeDomainError(ctx, w, err)
			return
		}

		match, err := createMatch(ctx, request.toDraft())
		if errors.Is(err, domain.ErrAggregation) {
			logging.FromContext(ctx).WarnContext(ctx, "Stored match but failed to update player aggregates", "matchID", match.ID)
			writeDomainError(ctx, w, err)
			return
		}
		if err != nil {
			// NOTE: CreateMatch implementations handle their own error reporting
			writeDomainError(ctx, w, err)
			return
		}

		logging.FromContext(ctx).InfoContext(ctx, "Created match", "matchID", match.ID, "lines", len(match.PlayerStats))
		writeData(ctx, w, http.StatusCreated, matchToResponse(match))
	}

	return middleware(handler)
}

func MakeDeleteMatchHandler(
	deleteMatch app.DeleteMatch,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildEndpointMiddleware("delete_match", writeRateLimit, allowedOrigins, rootLogger, sentryMiddleware)

	handler := func(w http.ResponseWriter, r *http.Request) {
		r = withMatchID(r)
		ctx := r.Context()

		err := deleteMatch(ctx, r.PathValue("id"))
		if err != nil {
			// NOTE: DeleteMatch implementations handle their own error reporting
			writeDomainError(ctx, w, err)
			return
		}

		logging.FromContext(ctx).InfoContext(ctx, "Deleted match")
		writeSuccess(ctx, w, http.StatusOK, successResponse{Message: "Match deleted"})
	}

	return middleware(handler)
}
