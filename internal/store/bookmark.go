package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Bookmark is a saved slider position on the latent walk for Seed.
type Bookmark struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Seed      uint64    `json:"seed"`
	T         float64   `json:"t"`
	CreatedAt time.Time `json:"created_at"`
}

type BookmarkRepository struct {
	db *sql.DB
}

func (s *Store) Bookmarks() *BookmarkRepository {
	return &BookmarkRepository{db: s.db}
}

func (r *BookmarkRepository) Create(b *Bookmark) error {
	if !(b.T >= 0 && b.T <= 1) {
		return fmt.Errorf("bookmark t %v outside [0, 1]", b.T)
	}
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	b.CreatedAt = time.Now().UTC()
	_, err := r.db.Exec(
		`INSERT INTO latent_bookmarks (id, name, seed, t, created_at) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.Name, int64(b.Seed), b.T, b.CreatedAt,
	)
	return err
}

func (r *BookmarkRepository) GetByID(id string) (*Bookmark, error) {
	b, err := scanBookmark(r.db.QueryRow(
		`SELECT id, name, seed, t, created_at FROM latent_bookmarks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// List returns bookmarks oldest first.
func (r *BookmarkRepository) List() ([]*Bookmark, error) {
	rows, err := r.db.Query(`SELECT id, name, seed, t, created_at FROM latent_bookmarks ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Bookmark
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *BookmarkRepository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM latent_bookmarks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

func scanBookmark(s scanner) (*Bookmark, error) {
	b := &Bookmark{}
	var seed int64
	if err := s.Scan(&b.ID, &b.Name, &seed, &b.T, &b.CreatedAt); err != nil {
		return nil, err
	}
	b.Seed = uint64(seed)
	return b, nil
}
