package store

func (s *Store) runMigrations() error {
	migrations := []string{
		// Sketch presets; config holds the JSON-encoded preset record.
		`CREATE TABLE IF NOT EXISTS presets (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			config TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Saved points along a latent walk.
		`CREATE TABLE IF NOT EXISTS latent_bookmarks (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			seed INTEGER NOT NULL,
			t REAL NOT NULL CHECK(t >= 0 AND t <= 1),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_latent_bookmarks_seed ON latent_bookmarks(seed)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}
