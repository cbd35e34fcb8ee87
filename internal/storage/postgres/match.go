package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/covenfall/covenfall/internal/game/eventlog"
)

// ErrMatchNotFound is returned when a match lookup yields no results.
var ErrMatchNotFound = errors.New("match not found")

// ErrMatchExists is returned when starting a match whose id is already recorded.
var ErrMatchExists = errors.New("match already exists")

// ErrRoundNotFound is returned when a round archive lookup yields no results.
var ErrRoundNotFound = errors.New("round not found")

// Match is one archived match record. Winner is empty and FinishedAt nil
// while the match is still in progress.
type Match struct {
	ID         string
	MonsterID  string
	Winner     string
	Rounds     int
	StartedAt  time.Time
	FinishedAt *time.Time
}

// RoundArchive is the stored event log of one resolved round.
type RoundArchive struct {
	Round   int
	Events  []eventlog.Entry
	SavedAt time.Time
}

// MatchRepository archives matches and their per-round event logs.
// It satisfies the room layer's Recorder interface.
type MatchRepository struct {
	db *pgxpool.Pool
}

// NewMatchRepository creates a MatchRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewMatchRepository(db *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: db}
}

// StartMatch records the beginning of a match.
//
// Precondition: roomID must be a UUID string; monsterID must be non-empty.
// Postcondition: A row exists in matches, or ErrMatchExists on duplicate id.
func (r *MatchRepository) StartMatch(ctx context.Context, roomID, monsterID string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO matches (id, monster_id) VALUES ($1, $2)`,
		roomID, monsterID,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrMatchExists
		}
		return fmt.Errorf("inserting match: %w", err)
	}
	return nil
}

// SaveRound archives the event log of one resolved round as JSONB.
// Re-saving the same round replaces the previous archive, so a retried
// write after a transient failure converges on the final log.
//
// Precondition: the match must have been started.
// Postcondition: The round's events are stored, or ErrMatchNotFound when
// roomID references no recorded match.
func (r *MatchRepository) SaveRound(ctx context.Context, roomID string, roundNum int, events []eventlog.Entry) error {
	payload, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encoding round events: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO match_rounds (match_id, round, events)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (match_id, round) DO UPDATE SET events = EXCLUDED.events`,
		roomID, roundNum, payload,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return ErrMatchNotFound
		}
		return fmt.Errorf("inserting round archive: %w", err)
	}
	return nil
}

// FinishMatch records the winning faction and final round count.
//
// Precondition: winner must be non-empty.
// Postcondition: The match row carries winner, rounds, and finished_at,
// or ErrMatchNotFound when no row was updated.
func (r *MatchRepository) FinishMatch(ctx context.Context, roomID, winner string, rounds int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE matches SET winner = $2, rounds = $3, finished_at = NOW() WHERE id = $1`,
		roomID, winner, rounds,
	)
	if err != nil {
		return fmt.Errorf("finishing match: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMatchNotFound
	}
	return nil
}

// GetMatch retrieves one match record by id.
//
// Postcondition: Returns the Match or ErrMatchNotFound.
func (r *MatchRepository) GetMatch(ctx context.Context, id string) (Match, error) {
	var (
		m      Match
		winner *string
	)
	err := r.db.QueryRow(ctx,
		`SELECT id, monster_id, winner, rounds, started_at, finished_at
		 FROM matches WHERE id = $1`,
		id,
	).Scan(&m.ID, &m.MonsterID, &winner, &m.Rounds, &m.StartedAt, &m.FinishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Match{}, ErrMatchNotFound
		}
		return Match{}, fmt.Errorf("querying match: %w", err)
	}
	if winner != nil {
		m.Winner = *winner
	}
	return m, nil
}

// ListRecent returns up to limit matches, most recently started first.
//
// Precondition: limit must be > 0.
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *MatchRepository) ListRecent(ctx context.Context, limit int) ([]Match, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, monster_id, winner, rounds, started_at, finished_at
		 FROM matches ORDER BY started_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing matches: %w", err)
	}
	defer rows.Close()

	matches := make([]Match, 0)
	for rows.Next() {
		var (
			m      Match
			winner *string
		)
		if err := rows.Scan(&m.ID, &m.MonsterID, &winner, &m.Rounds, &m.StartedAt, &m.FinishedAt); err != nil {
			return nil, fmt.Errorf("scanning match row: %w", err)
		}
		if winner != nil {
			m.Winner = *winner
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// RoundEvents retrieves the archived event log of one round.
//
// Postcondition: Returns the entries in resolution order, or ErrRoundNotFound.
func (r *MatchRepository) RoundEvents(ctx context.Context, matchID string, roundNum int) ([]eventlog.Entry, error) {
	var payload []byte
	err := r.db.QueryRow(ctx,
		`SELECT events FROM match_rounds WHERE match_id = $1 AND round = $2`,
		matchID, roundNum,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("querying round archive: %w", err)
	}

	var events []eventlog.Entry
	if err := json.Unmarshal(payload, &events); err != nil {
		return nil, fmt.Errorf("decoding round events: %w", err)
	}
	return events, nil
}

// ListRounds retrieves every archived round of a match in round order.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *MatchRepository) ListRounds(ctx context.Context, matchID string) ([]RoundArchive, error) {
	rows, err := r.db.Query(ctx,
		`SELECT round, events, created_at
		 FROM match_rounds WHERE match_id = $1 ORDER BY round ASC`,
		matchID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing round archives: %w", err)
	}
	defer rows.Close()

	archives := make([]RoundArchive, 0)
	for rows.Next() {
		var (
			a       RoundArchive
			payload []byte
		)
		if err := rows.Scan(&a.Round, &payload, &a.SavedAt); err != nil {
			return nil, fmt.Errorf("scanning round archive row: %w", err)
		}
		if err := json.Unmarshal(payload, &a.Events); err != nil {
			return nil, fmt.Errorf("decoding round events: %w", err)
		}
		archives = append(archives, a)
	}
	return archives, rows.Err()
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}

// isForeignKeyError checks if a pgx error is a foreign key violation.
func isForeignKeyError(err error) bool {
	// SQLSTATE 23503 (foreign_key_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23503"
	}
	return false
}
