package history

import "database/sql"

const schema = `
CREATE TABLE IF NOT EXISTS lookups (
  id TEXT PRIMARY KEY,
  op TEXT NOT NULL,
  word TEXT NOT NULL,
  file TEXT NOT NULL,
  outcome TEXT NOT NULL,
  duration_ms INTEGER NOT NULL DEFAULT 0,
  ts_utc TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_lookups_ts ON lookups(ts_utc);
CREATE INDEX IF NOT EXISTS idx_lookups_op ON lookups(op);
`

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
