package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/teamfinger/internal/sketch"
)

// Preset is a stored sketch configuration. Config.Name mirrors Name.
type Preset struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Config    sketch.Preset `json:"config"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type PresetRepository struct {
	db *sql.DB
}

func (s *Store) Presets() *PresetRepository {
	return &PresetRepository{db: s.db}
}

// Create validates and inserts p, assigning an ID when empty.
func (r *PresetRepository) Create(p *Preset) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.Config.Name = p.Name
	if err := p.Config.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(p.Config)
	if err != nil {
		return fmt.Errorf("encode preset: %w", err)
	}

	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err = r.db.Exec(
		`INSERT INTO presets (id, name, config, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, string(data), p.CreatedAt, p.UpdatedAt,
	)
	return uniqueViolation(err, "preset "+p.Name)
}

func (r *PresetRepository) GetByID(id string) (*Preset, error) {
	return r.get(`WHERE id = ?`, id)
}

func (r *PresetRepository) GetByName(name string) (*Preset, error) {
	return r.get(`WHERE name = ?`, name)
}

func (r *PresetRepository) get(where string, arg any) (*Preset, error) {
	row := r.db.QueryRow(`SELECT id, name, config, created_at, updated_at FROM presets `+where, arg)
	p, err := scanPreset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// List returns presets by name.
func (r *PresetRepository) List() ([]*Preset, error) {
	rows, err := r.db.Query(`SELECT id, name, config, created_at, updated_at FROM presets ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Preset
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PresetRepository) Update(p *Preset) error {
	p.Config.Name = p.Name
	if err := p.Config.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(p.Config)
	if err != nil {
		return fmt.Errorf("encode preset: %w", err)
	}

	p.UpdatedAt = time.Now().UTC()
	res, err := r.db.Exec(
		`UPDATE presets SET name = ?, config = ?, updated_at = ? WHERE id = ?`,
		p.Name, string(data), p.UpdatedAt, p.ID,
	)
	if err != nil {
		return uniqueViolation(err, "preset "+p.Name)
	}
	return affectedOne(res)
}

func (r *PresetRepository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM presets WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPreset(s scanner) (*Preset, error) {
	p := &Preset{}
	var config string
	if err := s.Scan(&p.ID, &p.Name, &config, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(config), &p.Config); err != nil {
		return nil, fmt.Errorf("decode preset %s: %w", p.ID, err)
	}
	return p, nil
}
