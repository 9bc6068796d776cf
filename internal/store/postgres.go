package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/briefops/briefer/internal/brief"
)

// PostgresStore keeps brief history in a briefs table, one row per
// brief. Inserts are append-only by construction.
type PostgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("postgres connection failed: %w", err)
	}
	return &PostgresStore{DB: db}, nil
}

func (p *PostgresStore) LoadHistory(ctx context.Context, userID string) ([]brief.FinalBrief, error) {
	rows, err := p.DB.QueryContext(ctx,
		`SELECT payload FROM briefs WHERE user_id=$1 ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var briefs []brief.FinalBrief
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var b brief.FinalBrief
		if err := json.Unmarshal(payload, &b); err != nil {
			return nil, fmt.Errorf("decoding stored brief: %w", err)
		}
		briefs = append(briefs, b)
	}
	return briefs, rows.Err()
}

func (p *PostgresStore) AppendBrief(ctx context.Context, userID string, b brief.FinalBrief) error {
	if b.Timestamp.IsZero() {
		b.Timestamp = time.Now()
	}
	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshaling brief: %w", err)
	}
	_, err = p.DB.ExecContext(ctx,
		`INSERT INTO briefs (id, user_id, payload, created_at) VALUES ($1, $2, $3, $4)`,
		uuid.New().String(), userID, payload, b.Timestamp)
	return err
}
