package playerrepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
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

const uniqueViolation = pq.ErrorCode("23505")

type Postgres struct {
	db     *sqlx.DB
	schema string

	nowFunc func() time.Time

	tracer trace.Tracer
}

func NewPostgres(db *sqlx.DB, schema string) *Postgres {
	tracer := otel.Tracer("fragstat/playerrepository/postgres")

	return &Postgres{
		db:     db,
		schema: schema,

		nowFunc: time.Now,

		tracer: tracer,
	}
}

const playerColumns = `id, name, team, country, avatar,
	total_kills, total_deaths, total_assists, total_headshots, total_damage, total_rounds, total_kast,
	matches_played, wins, losses,
	rating, tier, role,
	created_at, updated_at`

type dbPlayer struct {
	ID      string         `db:"id"`
	Name    string         `db:"name"`
	Team    string         `db:"team"`
	Country string         `db:"country"`
	Avatar  sql.NullString `db:"avatar"`

	TotalKills     int     `db:"total_kills"`
	TotalDeaths    int     `db:"total_deaths"`
	TotalAssists   int     `db:"total_assists"`
	TotalHeadshots int     `db:"total_headshots"`
	TotalDamage    int     `db:"total_damage"`
	TotalRounds    int     `db:"total_rounds"`
	TotalKast      float64 `db:"total_kast"`

	MatchesPlayed int `db:"matches_played"`
	Wins          int `db:"wins"`
	Losses        int `db:"losses"`

	Rating float64 `db:"rating"`
	Tier   string  `db:"tier"`
	Role   string  `db:"role"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (p dbPlayer) toDomain() domain.Player {
	var avatar *string
	if p.Avatar.Valid {
		avatar = &p.Avatar.String
	}

	return domain.Player{
		ID:      p.ID,
		Name:    p.Name,
		Team:    p.Team,
		Country: p.Country,
		Avatar:  avatar,
		PlayerAggregate: domain.PlayerAggregate{
			TotalRounds:    p.TotalRounds,
			TotalKills:     p.TotalKills,
			TotalDeaths:    p.TotalDeaths,
			TotalAssists:   p.TotalAssists,
			TotalHeadshots: p.TotalHeadshots,
			TotalDamage:    p.TotalDamage,
			TotalKast:      p.TotalKast,
			MatchesPlayed:  p.MatchesPlayed,
			Wins:           p.Wins,
			Losses:         p.Losses,
			Rating:         p.Rating,
			Tier:           domain.Tier(p.Tier),
			Role:           domain.Role(p.Role),
		},
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type dbStatLine struct {
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

func avatarToDB(avatar *string) sql.NullString {
	if avatar == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *avatar, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
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

func (p *Postgres) CreatePlayer(ctx context.Context, profile domain.PlayerProfile) (domain.Player, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.CreatePlayer")
	defer span.End()

	dbID, err := uuid.NewV7()
	if err != nil {
		err := fmt.Errorf("failed to generate db id: %w", err)
		reporting.Report(ctx, err)
		return domain.Player{}, err
	}

	now := p.nowFunc()
	aggregate := domain.EmptyAggregate()

	txx, err := p.beginTx(ctx)
	if err != nil {
		return domain.Player{}, err
	}
	defer txx.Rollback()

	var entry dbPlayer
	err = txx.GetContext(
		ctx,
		&entry,
		`INSERT INTO players
		(id, name, team, country, avatar, tier, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING `+playerColumns,
		dbID.String(),
		profile.Name,
		profile.Team,
		profile.Country,
		avatarToDB(profile.Avatar),
		string(aggregate.Tier),
		string(aggregate.Role),
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Player{}, fmt.Errorf("%w: %s", domain.ErrDuplicateName, profile.Name)
		}
		err := fmt.Errorf("failed to insert player: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"name": profile.Name,
		})
		return domain.Player{}, err
	}

	err = txx.Commit()
	if err != nil {
		err := fmt.Errorf("failed to commit transaction: %w", err)
		reporting.Report(ctx, err)
		return domain.Player{}, err
	}

	logging.FromContext(ctx).InfoContext(ctx, "Created player", "playerID", entry.ID)

	return entry.toDomain(), nil
}

func (p *Postgres) GetPlayer(ctx context.Context, playerID string) (domain.Player, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.GetPlayer")
	defer span.End()

	if !strutils.UUIDIsNormalized(playerID) {
		err := fmt.Errorf("uuid is not normalized")
		reporting.Report(ctx, err, map[string]string{
			"playerID": playerID,
		})
		return domain.Player{}, err
	}

	var entry dbPlayer
	err := p.db.GetContext(ctx, &entry, fmt.Sprintf(
		`SELECT %s FROM %s.players WHERE id = $1`,
		playerColumns,
		pq.QuoteIdentifier(p.schema),
	),
		playerID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Player{}, domain.ErrPlayerNotFound
		}
		err := fmt.Errorf("failed to select player: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"playerID": playerID,
		})
		return domain.Player{}, err
	}

	return entry.toDomain(), nil
}

// GetPlayers returns the existing players among the given IDs, in no particular order
func (p *Postgres) GetPlayers(ctx context.Context, playerIDs []string) ([]domain.Player, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.GetPlayers")
	defer span.End()

	if len(playerIDs) == 0 {
		return []domain.Player{}, nil
	}

	for _, playerID := range playerIDs {
		if !strutils.UUIDIsNormalized(playerID) {
			err := fmt.Errorf("uuid is not normalized")
			reporting.Report(ctx, err, map[string]string{
				"playerID": playerID,
			})
			return nil, err
		}
	}

	var entries []dbPlayer
	err := p.db.SelectContext(ctx, &entries, fmt.Sprintf(
		`SELECT %s FROM %s.players WHERE id = ANY($1::uuid[])`,
		playerColumns,
		pq.QuoteIdentifier(p.schema),
	),
		pq.Array(playerIDs),
	)
	if err != nil {
		err := fmt.Errorf("failed to select players: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"count": fmt.Sprintf("%d", len(playerIDs)),
		})
		return nil, err
	}

	players := make([]domain.Player, 0, len(entries))
	for _, entry := range entries {
		players = append(players, entry.toDomain())
	}

	return players, nil
}

func (p *Postgres) UpdatePlayer(ctx context.Context, playerID string, update domain.PlayerUpdate) (domain.Player, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.UpdatePlayer")
	defer span.End()

	if !strutils.UUIDIsNormalized(playerID) {
		err := fmt.Errorf("uuid is not normalized")
		reporting.Report(ctx, err, map[string]string{
			"playerID": playerID,
		})
		return domain.Player{}, err
	}

	txx, err := p.beginTx(ctx)
	if err != nil {
		return domain.Player{}, err
	}
	defer txx.Rollback()

	var current dbPlayer
	err = txx.GetContext(ctx, &current, `SELECT `+playerColumns+` FROM players WHERE id = $1 FOR UPDATE`, playerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Player{}, domain.ErrPlayerNotFound
		}
		err := fmt.Errorf("failed to select player for update: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"playerID": playerID,
		})
		return domain.Player{}, err
	}

	currentPlayer := current.toDomain()
	profile, err := update.Apply(currentPlayer.Profile())
	if err != nil {
		// Validation error
		return domain.Player{}, err
	}

	var entry dbPlayer
	err = txx.GetContext(
		ctx,
		&entry,
		`UPDATE players SET
			name = $2,
			team = $3,
			country = $4,
			avatar = $5,
			updated_at = $6
		WHERE id = $1
		RETURNING `+playerColumns,
		playerID,
		profile.Name,
		profile.Team,
		profile.Country,
		avatarToDB(profile.Avatar),
		p.nowFunc(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Player{}, fmt.Errorf("%w: %s", domain.ErrDuplicateName, profile.Name)
		}
		err := fmt.Errorf("failed to update player: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"playerID": playerID,
		})
		return domain.Player{}, err
	}

	err = txx.Commit()
	if err != nil {
		err := fmt.Errorf("failed to commit transaction: %w", err)
		reporting.Report(ctx, err)
		return domain.Player{}, err
	}

	return entry.toDomain(), nil
}

// DeletePlayer removes the player row. Their stat lines stay in the matches they played.
func (p *Postgres) DeletePlayer(ctx context.Context, playerID string) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.DeletePlayer")
	defer span.End()

	if !strutils.UUIDIsNormalized(playerID) {
		err := fmt.Errorf("uuid is not normalized")
		reporting.Report(ctx, err, map[string]string{
			"playerID": playerID,
		})
		return err
	}

	result, err := p.db.ExecContext(ctx, fmt.Sprintf(
		`DELETE FROM %s.players WHERE id = $1`,
		pq.QuoteIdentifier(p.schema),
	),
		playerID,
	)
	if err != nil {
		err := fmt.Errorf("failed to delete player: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"playerID": playerID,
		})
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		err := fmt.Errorf("failed to get affected rows: %w", err)
		reporting.Report(ctx, err)
		return err
	}
	if affected == 0 {
		return domain.ErrPlayerNotFound
	}

	return nil
}

var sortColumns = map[domain.PlayerSortField]string{
	domain.SortByRating:        "rating",
	domain.SortByTotalKills:    "total_kills",
	domain.SortByMatchesPlayed: "matches_played",
	domain.SortByWins:          "wins",
	domain.SortByName:          "name",
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (p *Postgres) ListPlayers(ctx context.Context, query domain.PlayerQuery) ([]domain.Player, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.ListPlayers")
	defer span.End()

	column, ok := sortColumns[query.Sort]
	if !ok {
		column = sortColumns[domain.SortByRating]
	}
	direction := "DESC"
	if query.Ascending {
		direction = "ASC"
	}

	conditions := []string{}
	args := []any{}
	if query.Tier != "" {
		args = append(args, string(query.Tier))
		conditions = append(conditions, fmt.Sprintf("tier = $%d", len(args)))
	}
	if query.Role != "" {
		args = append(args, string(query.Role))
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)))
	}
	if query.Team != "" {
		args = append(args, "%"+escapeLike(query.Team)+"%")
		conditions = append(conditions, fmt.Sprintf(`team ILIKE $%d ESCAPE '\'`, len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var entries []dbPlayer
	err := p.db.SelectContext(ctx, &entries, fmt.Sprintf(
		`SELECT %s FROM %s.players %s ORDER BY %s %s, name ASC, id ASC`,
		playerColumns,
		pq.QuoteIdentifier(p.schema),
		where,
		column,
		direction,
	),
		args...,
	)
	if err != nil {
		err := fmt.Errorf("failed to list players: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"sort": string(query.Sort),
			"tier": string(query.Tier),
			"role": string(query.Role),
			"team": query.Team,
		})
		return nil, err
	}

	players := make([]domain.Player, 0, len(entries))
	for _, entry := range entries {
		players = append(players, entry.toDomain())
	}

	return players, nil
}

func (p *Postgres) ListPlayerIDs(ctx context.Context) ([]string, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.ListPlayerIDs")
	defer span.End()

	var ids []string
	err := p.db.SelectContext(ctx, &ids, fmt.Sprintf(
		`SELECT id FROM %s.players ORDER BY id`,
		pq.QuoteIdentifier(p.schema),
	))
	if err != nil {
		err := fmt.Errorf("failed to list player ids: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	return ids, nil
}

// UpdateAggregate recomputes the stored aggregate of a player from the stat lines
// currently recorded for them. Only the first line of the player in each match counts.
//
// The player row is locked for the duration so concurrent recomputations apply in order.
func (p *Postgres) UpdateAggregate(ctx context.Context, playerID string, compute func([]domain.StatLine) domain.PlayerAggregate) (domain.Player, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.UpdateAggregate")
	defer span.End()

	if !strutils.UUIDIsNormalized(playerID) {
		err := fmt.Errorf("uuid is not normalized")
		reporting.Report(ctx, err, map[string]string{
			"playerID": playerID,
		})
		return domain.Player{}, err
	}

	txx, err := p.beginTx(ctx)
	if err != nil {
		return domain.Player{}, err
	}
	defer txx.Rollback()

	var lockedID string
	err = txx.GetContext(ctx, &lockedID, `SELECT id FROM players WHERE id = $1 FOR UPDATE`, playerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Player{}, domain.ErrPlayerNotFound
		}
		err := fmt.Errorf("failed to lock player: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"playerID": playerID,
		})
		return domain.Player{}, err
	}

	var lineEntries []dbStatLine
	err = txx.SelectContext(
		ctx,
		&lineEntries,
		`SELECT DISTINCT ON (match_id)
			player_id, kills, deaths, assists, headshots, damage, kast, rounds, won,
			rating, kpr, dpr, apr, hsr, adr
		FROM match_stats
		WHERE player_id = $1
		ORDER BY match_id, position`,
		playerID,
	)
	if err != nil {
		err := fmt.Errorf("failed to select stat lines: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"playerID": playerID,
		})
		return domain.Player{}, err
	}

	lines := make([]domain.StatLine, 0, len(lineEntries))
	for _, entry := range lineEntries {
		lines = append(lines, entry.toDomain())
	}

	aggregate := compute(lines)

	var entry dbPlayer
	err = txx.GetContext(
		ctx,
		&entry,
		`UPDATE players SET
			total_kills = $2,
			total_deaths = $3,
			total_assists = $4,
			total_headshots = $5,
			total_damage = $6,
			total_rounds = $7,
			total_kast = $8,
			matches_played = $9,
			wins = $10,
			losses = $11,
			rating = $12,
			tier = $13,
			role = $14,
			updated_at = $15
		WHERE id = $1
		RETURNING `+playerColumns,
		playerID,
		aggregate.TotalKills,
		aggregate.TotalDeaths,
		aggregate.TotalAssists,
		aggregate.TotalHeadshots,
		aggregate.TotalDamage,
		aggregate.TotalRounds,
		aggregate.TotalKast,
		aggregate.MatchesPlayed,
		aggregate.Wins,
		aggregate.Losses,
		aggregate.Rating,
		string(aggregate.Tier),
		string(aggregate.Role),
		p.nowFunc(),
	)
	if err != nil {
		err := fmt.Errorf("failed to update aggregate: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"playerID":      playerID,
			"matchesPlayed": fmt.Sprintf("%d", aggregate.MatchesPlayed),
		})
		return domain.Player{}, err
	}

	err = txx.Commit()
	if err != nil {
		err := fmt.Errorf("failed to commit transaction: %w", err)
		reporting.Report(ctx, err)
		return domain.Player{}, err
	}

	logging.FromContext(ctx).InfoContext(ctx, "Recomputed player aggregate",
		"playerID", playerID,
		"matchesPlayed", aggregate.MatchesPlayed,
		"rating", aggregate.Rating,
	)

	return entry.toDomain(), nil
}
