package matchrepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Amund211/fragstat/internal/domain"
	"github.com/Amund211/fragstat/internal/logging"
	"github.com/Amund211/fragstat/internal/reporting"
	"github.com/Amund211/fragstat/internal/strutils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type Postgres struct {
	db     *sqlx.DB
	schema string

	nowFunc func() time.Time

	tracer trace.Tracer
}

func NewPostgres(db *sqlx.DB, schema string) *Postgres {
	tracer := otel.Tracer("fragstat/matchrepository/postgres")

	return &Postgres{
		db:     db,
		schema: schema,

		nowFunc: time.Now,

		tracer: tracer,
	}
}

const matchColumns = `id, title, map, played_at, team_a, team_b, score_a, score_b, total_rounds, notes, created_at, updated_at`

const lineColumns = `match_id, position, player_id,
	kills, deaths, assists, headshots, damage, kast, rounds, won,
	rating, kpr, dpr, apr, hsr, adr`

type dbMatch struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Map         string    `db:"map"`
	PlayedAt    time.Time `db:"played_at"`
	TeamA       string    `db:"team_a"`
	TeamB       string    `db:"team_b"`
	ScoreA      int       `db:"score_a"`
	ScoreB      int       `db:"score_b"`
	TotalRounds int       `db:"total_rounds"`
	Notes       string    `db:"notes"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (m dbMatch) toDomain(lines []domain.StatLine) domain.Match {
	return domain.Match{
		ID:          m.ID,
		Title:       m.Title,
		Map:         m.Map,
		Date:        m.PlayedAt,
		TeamA:       m.TeamA,
		TeamB:       m.TeamB,
		ScoreA:      m.ScoreA,
		ScoreB:      m.ScoreB,
		TotalRounds: m.TotalRounds,
		Notes:       m.Notes,
		PlayerStats: lines,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type dbStatLine struct {
	MatchID   string  `db:"match_id"`
	Position  int     `db:"position"`
	PlayerID  string  `db:"player_id"`
	Kills     int     `db:"kills"`
	Deaths    int     `db:"deaths"`
	Assists   int     `db:"assists"`
	Headshots int     `db:"headshots"`
	Damage    int     `db:"damage"`
	Kast      float64 `db:"kast"`
	Rounds    int     `db:"rounds"`
	Won       bool    `db:"won"`

	Rating float64 `db:"rating"`
	KPR    float64 `db:"kpr"`
	DPR    float64 `db:"dpr"`
	APR    float64 `db:"apr"`
	HSR    float64 `db:"hsr"`
	ADR    float64 `db:"adr"`
}

func (l dbStatLine) toDomain() domain.StatLine {
	return domain.StatLine{
		PlayerID:  l.PlayerID,
		Kills:     l.Kills,
		Deaths:    l.Deaths,
		Assists:   l.Assists,
		Headshots: l.Headshots,
		Damage:    l.Damage,
		Kast:      l.Kast,
		Rounds:    l.Rounds,
		Won:       l.Won,
		Rating:    l.Rating,
		KPR:       l.KPR,
		DPR:       l.DPR,
		APR:       l.APR,
		HSR:       l.HSR,
		ADR:       l.ADR,
	}
}

type dbPlayerMatch struct {
	dbStatLine
	Title       string    `db:"title"`
	Map         string    `db:"map"`
	PlayedAt    time.Time `db:"played_at"`
	TeamA       string    `db:"team_a"`
	TeamB       string    `db:"team_b"`
	ScoreA      int       `db:"score_a"`
	ScoreB      int       `db:"score_b"`
	TotalRounds int       `db:"total_rounds"`
}

type querier interface {
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// selectLines returns the stat lines of the given matches grouped by match, in submission order
func selectLines(ctx context.Context, q querier, matchIDs []string) (map[string][]domain.StatLine, error) {
	linesByMatch := make(map[string][]domain.StatLine, len(matchIDs))
	if len(matchIDs) == 0 {
		return linesByMatch, nil
	}

	var entries []dbStatLine
	err := q.SelectContext(
		ctx,
		&entries,
		`SELECT `+lineColumns+` FROM match_stats
		WHERE match_id = ANY($1::uuid[])
		ORDER BY match_id, position`,
		pq.Array(matchIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to select stat lines: %w", err)
	}

	for _, entry := range entries {
		linesByMatch[entry.MatchID] = append(linesByMatch[entry.MatchID], entry.toDomain())
	}
	return linesByMatch, nil
}

func (p *Postgres) beginTx(ctx context.Context) (*sqlx.Tx, error) {
	txx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		err := fmt.Errorf("failed to start transaction: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	_, err = txx.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", pq.QuoteIdentifier(p.schema)))
	if err != nil {
		_ = txx.Rollback()
		err := fmt.Errorf("failed to set search path: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"schema": p.schema,
		})
		return nil, err
	}

	return txx, nil
}

// StoreMatch assigns an ID to the match and stores it with all its stat lines
func (p *Postgres) StoreMatch(ctx context.Context, match domain.Match) (domain.Match, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.StoreMatch")
	defer span.End()

	for _, line := range match.PlayerStats {
		if !strutils.UUIDIsNormalized(line.PlayerID) {
			err := fmt.Errorf("uuid is not normalized")
			reporting.Report(ctx, err, map[string]string{
				"playerID": line.PlayerID,
			})
			return domain.Match{}, err
		}
	}

	dbID, err := uuid.NewV7()
	if err != nil {
		err := fmt.Errorf("failed to generate db id: %w", err)
		reporting.Report(ctx, err)
		return domain.Match{}, err
	}

	now := p.nowFunc()
	match.ID = dbID.String()
	match.CreatedAt = now
	match.UpdatedAt = now

	txx, err := p.beginTx(ctx)
	if err != nil {
		return domain.Match{}, err
	}
	defer txx.Rollback()

	var entry dbMatch
	err = txx.GetContext(
		ctx,
		&entry,
		`INSERT INTO matches
		(id, title, map, played_at, team_a, team_b, score_a, score_b, total_rounds, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING `+matchColumns,
		match.ID,
		match.Title,
		match.Map,
		match.Date,
		match.TeamA,
		match.TeamB,
		match.ScoreA,
		match.ScoreB,
		match.TotalRounds,
		match.Notes,
		now,
	)
	if err != nil {
		err := fmt.Errorf("failed to insert match: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"title": match.Title,
		})
		return domain.Match{}, err
	}

	for position, line := range match.PlayerStats {
		_, err = txx.ExecContext(
			ctx,
			`INSERT INTO match_stats
			(`+lineColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
			match.ID,
			position,
			line.PlayerID,
			line.Kills,
			line.Deaths,
			line.Assists,
			line.Headshots,
			line.Damage,
			line.Kast,
			line.Rounds,
			line.Won,
			line.Rating,
			line.KPR,
			line.DPR,
			line.APR,
			line.HSR,
			line.ADR,
		)
		if err != nil {
			err := fmt.Errorf("failed to insert stat line: %w", err)
			reporting.Report(ctx, err, map[string]string{
				"matchID":  match.ID,
				"playerID": line.PlayerID,
				"position": fmt.Sprintf("%d", position),
			})
			return domain.Match{}, err
		}
	}

	err = txx.Commit()
	if err != nil {
		err := fmt.Errorf("failed to commit transaction: %w", err)
		reporting.Report(ctx, err)
		return domain.Match{}, err
	}

	logging.FromContext(ctx).InfoContext(ctx, "Stored match", "matchID", match.ID, "lines", len(match.PlayerStats))

	return entry.toDomain(match.PlayerStats), nil
}

func (p *Postgres) GetMatch(ctx context.Context, matchID string) (domain.Match, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.GetMatch")
	defer span.End()

	if !strutils.UUIDIsNormalized(matchID) {
		err := fmt.Errorf("uuid is not normalized")
		reporting.Report(ctx, err, map[string]string{
			"matchID": matchID,
		})
		return domain.Match{}, err
	}

	txx, err := p.beginTx(ctx)
	if err != nil {
		return domain.Match{}, err
	}
	defer txx.Rollback()

	var entry dbMatch
	err = txx.GetContext(ctx, &entry, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, matchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Match{}, domain.ErrMatchNotFound
		}
		err := fmt.Errorf("failed to select match: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"matchID": matchID,
		})
		return domain.Match{}, err
	}

	linesByMatch, err := selectLines(ctx, txx, []string{matchID})
	if err != nil {
		reporting.Report(ctx, err, map[string]string{
			"matchID": matchID,
		})
		return domain.Match{}, err
	}

	return entry.toDomain(linesByMatch[matchID]), nil
}

// DeleteMatch removes the match and its stat lines, returning the match as it was
func (p *Postgres) DeleteMatch(ctx context.Context, matchID string) (domain.Match, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.DeleteMatch")
	defer span.End()

	if !strutils.UUIDIsNormalized(matchID) {
		err := fmt.Errorf("uuid is not normalized")
		reporting.Report(ctx, err, map[string]string{
			"matchID": matchID,
		})
		return domain.Match{}, err
	}

	txx, err := p.beginTx(ctx)
	if err != nil {
		return domain.Match{}, err
	}
	defer txx.Rollback()

	var entry dbMatch
	err = txx.GetContext(ctx, &entry, `SELECT `+matchColumns+` FROM matches WHERE id = $1 FOR UPDATE`, matchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Match{}, domain.ErrMatchNotFound
		}
		err := fmt.Errorf("failed to select match for deletion: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"matchID": matchID,
		})
		return domain.Match{}, err
	}

	linesByMatch, err := selectLines(ctx, txx, []string{matchID})
	if err != nil {
		reporting.Report(ctx, err, map[string]string{
			"matchID": matchID,
		})
		return domain.Match{}, err
	}

	// Stat lines cascade
	_, err = txx.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, matchID)
	if err != nil {
		err := fmt.Errorf("failed to delete match: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"matchID": matchID,
		})
		return domain.Match{}, err
	}

	err = txx.Commit()
	if err != nil {
		err := fmt.Errorf("failed to commit transaction: %w", err)
		reporting.Report(ctx, err)
		return domain.Match{}, err
	}

	logging.FromContext(ctx).InfoContext(ctx, "Deleted match", "matchID", matchID)

	return entry.toDomain(linesByMatch[matchID]), nil
}

// ListMatches returns one page of matches, newest first, and the total number of matches
func (p *Postgres) ListMatches(ctx context.Context, offset, limit int) ([]domain.Match, int, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.ListMatches")
	defer span.End()

	if offset < 0 || limit < 1 || limit > 100 {
		err := fmt.Errorf("invalid offset or limit")
		reporting.Report(ctx, err, map[string]string{
			"offset": fmt.Sprintf("%d", offset),
			"limit":  fmt.Sprintf("%d", limit),
		})
		return nil, 0, err
	}

	txx, err := p.beginTx(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer txx.Rollback()

	var total int
	err = txx.GetContext(ctx, &total, `SELECT COUNT(*) FROM matches`)
	if err != nil {
		err := fmt.Errorf("failed to count matches: %w", err)
		reporting.Report(ctx, err)
		return nil, 0, err
	}

	var entries []dbMatch
	err = txx.SelectContext(
		ctx,
		&entries,
		`SELECT `+matchColumns+` FROM matches
		ORDER BY played_at DESC, id DESC
		OFFSET $1 LIMIT $2`,
		offset,
		limit,
	)
	if err != nil {
		err := fmt.Errorf("failed to select matches: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"offset": fmt.Sprintf("%d", offset),
			"limit":  fmt.Sprintf("%d", limit),
		})
		return nil, 0, err
	}

	matchIDs := make([]string, 0, len(entries))
	for _, entry := range entries {
		matchIDs = append(matchIDs, entry.ID)
	}

	linesByMatch, err := selectLines(ctx, txx, matchIDs)
	if err != nil {
		reporting.Report(ctx, err)
		return nil, 0, err
	}

	matches := make([]domain.Match, 0, len(entries))
	for _, entry := range entries {
		matches = append(matches, entry.toDomain(linesByMatch[entry.ID]))
	}

	return matches, total, nil
}

// GetPlayerHistory returns the most recent matches of a player, newest first.
// Only the first line of the player in each match is included.
func (p *Postgres) GetPlayerHistory(ctx context.Context, playerID string, limit int) ([]domain.PlayerMatch, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.GetPlayerHistory")
	defer span.End()

	if !strutils.UUIDIsNormalized(playerID) {
		err := fmt.Errorf("uuid is not normalized")
		reporting.Report(ctx, err, map[string]string{
			"playerID": playerID,
		})
		return nil, err
	}

	if limit < 1 || limit > 1000 {
		err := fmt.Errorf("invalid limit")
		reporting.Report(ctx, err, map[string]string{
			"playerID": playerID,
			"limit":    fmt.Sprintf("%d", limit),
		})
		return nil, err
	}

	var entries []dbPlayerMatch
	err := p.db.SelectContext(ctx, &entries, fmt.Sprintf(
		`WITH first_lines AS (
			SELECT DISTINCT ON (match_id) %s
			FROM %s.match_stats
			WHERE player_id = $1
			ORDER BY match_id, position
		)
		SELECT
			l.match_id, l.position, l.player_id,
			l.kills, l.deaths, l.assists, l.headshots, l.damage, l.kast, l.rounds, l.won,
			l.rating, l.kpr, l.dpr, l.apr, l.hsr, l.adr,
			m.title, m.map, m.played_at, m.team_a, m.team_b, m.score_a, m.score_b, m.total_rounds
		FROM first_lines l
		JOIN %s.matches m ON m.id = l.match_id
		ORDER BY m.played_at DESC, m.id DESC
		LIMIT $2`,
		lineColumns,
		pq.QuoteIdentifier(p.schema),
		pq.QuoteIdentifier(p.schema),
	),
		playerID,
		limit,
	)
	if err != nil {
		err := fmt.Errorf("failed to select player history: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"playerID": playerID,
			"limit":    fmt.Sprintf("%d", limit),
		})
		return nil, err
	}

	history := make([]domain.PlayerMatch, 0, len(entries))
	for _, entry := range entries {
		history = append(history, domain.PlayerMatch{
			MatchID:     entry.MatchID,
			Title:       entry.Title,
			Map:         entry.Map,
			Date:        entry.PlayedAt,
			TeamA:       entry.TeamA,
			TeamB:       entry.TeamB,
			ScoreA:      entry.ScoreA,
			ScoreB:      entry.ScoreB,
			TotalRounds: entry.TotalRounds,
			Line:        entry.dbStatLine.toDomain(),
		})
	}

	return history, nil
}
