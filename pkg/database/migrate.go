package database

import (
	"database/sql"
	"fmt"
)

// schema is inlined: the ledger is a single table and shipping a
// separate .sql file made the binary depend on its working directory.
const schema = `
CREATE TABLE IF NOT EXISTS lookup_misses (
	id           TEXT PRIMARY KEY,
	category     TEXT NOT NULL,
	name         TEXT NOT NULL,
	hits         INTEGER NOT NULL DEFAULT 1,
	last_context TEXT,
	first_seen   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	last_seen    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (category, name)
);
`

func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
