package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Put(ctx context.Context, d Definition) error {
	if err := Validate(d); err != nil {
		return err
	}
	qj, err := json.Marshal(d.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO quizzes (id,title,kind,questions_json,created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, kind=EXCLUDED.kind, questions_json=EXCLUDED.questions_json`,
		d.ID, d.Title, string(d.Kind), string(qj), time.Now().Unix())
	return err
}

func (s *SQLStore) Get(ctx context.Context, id string) (Definition, error) {
	d, err := s.GetFull(ctx, id)
	if err != nil {
		return Definition{}, err
	}
	return StudentView(d), nil
}

func (s *SQLStore) GetFull(ctx context.Context, id string) (Definition, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,kind,questions_json,created_at FROM quizzes WHERE id=$1`, id)
	var d Definition
	var kind, qjson string
	if err := row.Scan(&d.ID, &d.Title, &kind, &qjson, &d.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Definition{}, ErrNotFound
		}
		return Definition{}, err
	}
	d.Kind = Kind(kind)
	if err := json.Unmarshal([]byte(qjson), &d.Questions); err != nil {
		return Definition{}, err
	}
	return d, nil
}
