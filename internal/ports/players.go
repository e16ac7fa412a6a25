package ports

import (
	"log/slog"
	"net/http"

	"github.com/Amund211/fragstat/internal/app"
	"github.com/Amund211/fragstat/internal/domain"
	"github.com/Amund211/fragstat/internal/logging"
	"github.com/Amund211/fragstat/internal/reporting"
)

func withPlayerID(r *http.Request) *http.Request {
	playerID := r.PathValue("id")
	ctx := logging.AddMetaToContext(r.Context(), slog.String("playerID", playerID))
	ctx = reporting.AddExtrasToContext(ctx, map[string]string{"playerID": playerID})
	return r.WithContext(ctx)
}

func MakeListPlayersHandler(
	listPlayers app.ListPlayers,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildEndpointMiddleware("list_players", readRateLimit, allowedOrigins, rootLogger, sentryMiddleware)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		params := r.URL.Query()

		query := domain.NewPlayerQuery(
			params.Get("sort"),
			params.Get("order"),
			params.Get("tier"),
			params.Get("role"),
			params.Get("team"),
		)

		players, err := listPlayers(ctx, query)
		if err != nil {
			// NOTE: ListPlayers implementations handle their own error reporting
			writeDomainError(ctx, w, err)
			return
		}

		data := make([]playerResponse, 0, len(players))
		for _, player := range players {
			data = append(data, playerToResponse(player))
		}
		count := len(data)

		writeSuccess(ctx, w, http.StatusOK, successResponse{Data: data, Count: &count})
	}

	return middleware(handler)
}

func MakeGetPlayerHandler(
	getPlayerWithHistory app.GetPlayerWithHistory,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildEndpointMiddleware("get_player", readRateLimit, allowedOrigins, rootLogger, sentryMiddleware)

	handler := func(w http.ResponseWriter, r *http.Request) {
		r = withPlayerID(r)
		ctx := r.Context()

		player, history, err := getPlayerWithHistory(ctx, r.PathValue("id"))
		if err != nil {
			// NOTE: GetPlayerWithHistory implementations handle their own error reporting
			writeDomainError(ctx, w, err)
			return
		}

		writeData(ctx, w, http.StatusOK, playerDetailToResponse(player, history))
	}

	return middleware(handler)
}

func MakeCreatePlayerHandler(
	createPlayer app.CreatePlayer,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildEndpointMiddleware("create_player", writeRateLimit, allowedOrigins, rootLogger, sentryMiddleware)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var request playerRequest
		if err := decodeBody(w, r, &request); err != nil {
			writeDomainError(ctx, w, err)
			return
		}

		profile, err := request.toProfile()
		if err != nil {
			writeDomainError(ctx, w, err)
			return
		}

		player, err := createPlayer(ctx, profile)
		if err != nil {
			// NOTE: CreatePlayer implementations handle their own error reporting
			writeDomainError(ctx, w, err)
			return
		}

		logging.FromContext(ctx).InfoContext(ctx, "Created player", "playerID", player.ID)
		writeData(ctx, w, http.StatusCreated, playerToResponse(player))
	}

	return middleware(handler)
}

func MakeUpdatePlayerHandler(
	updatePlayer app.UpdatePlayer,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildEndpointMiddleware("update_player", writeRateLimit, allowedOrigins, rootLogger, sentryMiddleware)

	handler := func(w http.ResponseWriter, r *http.Request) {
		r = withPlayerID(r)
		ctx := r.Context()

		var request playerRequest
		if err := decodeBody(w, r, &request); err != nil {
			writeDomainError(ctx, w, err)
			return
		}

		player, err := updatePlayer(ctx, r.PathValue("id"), request.toUpdate())
		if err != nil {
			// NOTE: UpdatePlayer implementations handle their own error reporting
			writeDomainError(ctx, w, err)
			return
		}

		writeData(ctx, w, http.StatusOK, playerToResponse(player))
	}

	return middleware(handler)
}

func MakeDeletePlayerHandler(
	deletePlayer app.DeletePlayer,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildEndpointMiddleware("delete_player", writeRateLimit, allowedOrigins, rootLogger, sentryMiddleware)

	handler := func(w http.ResponseWriter, r *http.Request) {
		r = withPlayerID(r)
		ctx := r.Context()

		err := deletePlayer(ctx, r.PathValue("id"))
		if err != nil {
			// NOTE: DeletePlayer implementations handle their own error reporting
			writeDomainError(ctx, w, err)
			return
		}

		logging.FromContext(ctx).InfoContext(ctx, "Deleted player")
		writeSuccess(ctx, w, http.StatusOK, successResponse{Message: "Player deleted"})
	}

	return middleware(handler)
}

func MakeRecomputePlayerHandler(
	recomputePlayer app.RecomputePlayer,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildEndpointMiddleware("recompute_player", writeRateLimit, allowedOrigins, rootLogger, sentryMiddleware)

	handler := func(w http.ResponseWriter, r *http.Request) {
		r = withPlayerID(r)
		ctx := r.Context()

		player, err := recomputePlayer(ctx, r.PathValue("id"))
		if err != nil {
			// NOTE: RecomputePlayer implementations handle their own error reporting
			writeDomainError(ctx, w, err)
			return
		}

		writeData(ctx, w, http.StatusOK, playerToResponse(player))
	}

	return middleware(handler)
}
