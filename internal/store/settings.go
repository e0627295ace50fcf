package store

import (
	"database/sql"
	"errors"
)

// Setting keys.
const (
	SettingActivePreset = "active_preset"
)

type SettingsRepository struct {
	db *sql.DB
}

func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

func (r *SettingsRepository) Get(key string) (string, error) {
	var v string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return v, err
}

func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

func (r *SettingsRepository) Delete(key string) error {
	res, err := r.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	if err != nil {
		return err
	}
	return affectedOne(res)
}
