package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"spechub/pkg/models"
)

// Miss is one recorded registry lookup failure, aggregated per
// (category, name) with a hit counter.
type Miss struct {
	ID          string          `json:"id"`
	Category    models.Category `json:"category"`
	Name        string          `json:"name"`
	Hits        int             `json:"hits"`
	LastContext string          `json:"last_context,omitempty"`
	FirstSeen   time.Time       `json:"first_seen"`
	LastSeen    time.Time       `json:"last_seen"`
}

// Repo stores lookup misses so the gap resolver has a frequency-ranked
// triage list of names the registry does not know yet.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// RecordMiss upserts one miss, bumping the hit counter on repeats.
// Implements registry.MissRecorder.
func (r *Repo) RecordMiss(ctx context.Context, category models.Category, name, usage string) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO lookup_misses (id, category, name, hits, last_context, first_seen, last_seen)
		VALUES (?, ?, ?, 1, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(category, name) DO UPDATE SET
		  hits = hits + 1,
		  last_context = excluded.last_context,
		  last_seen = CURRENT_TIMESTAMP
	`, uuid.NewString(), string(category), name, usage)
	if err != nil {
		return fmt.Errorf("record miss: %w", err)
	}
	return nil
}

// List returns misses for one category (or all when category is empty),
// most frequent first.
func (r *Repo) List(ctx context.Context, category models.Category, limit int) ([]Miss, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT id, category, name, hits, last_context, first_seen, last_seen
		FROM lookup_misses
	`
	args := []any{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, string(category))
	}
	query += ` ORDER BY hits DESC, name ASC LIMIT ?`
	args = append(args, limit)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list misses: %w", err)
	}
	defer rows.Close()

	var out []Miss
	for rows.Next() {
		var (
			m     Miss
			cat   string
			usage sql.NullString
		)
		if err := rows.Scan(&m.ID, &cat, &m.Name, &m.Hits, &usage, &m.FirstSeen, &m.LastSeen); err != nil {
			return nil, fmt.Errorf("scan miss: %w", err)
		}
		m.Category = models.Category(cat)
		m.LastContext = usage.String
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// Clear removes the ledger rows for names that got resolved.
func (r *Repo) Clear(ctx context.Context, category models.Category, names []string) error {
	for _, name := range names {
		if _, err := r.DB.ExecContext(ctx, `
			DELETE FROM lookup_misses WHERE category = ? AND name = ?
		`, string(category), name); err != nil {
			return fmt.Errorf("clear miss %s/%s: %w", category, name, err)
		}
	}
	return nil
}
