package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Put(ctx context.Context, sess Session) error {
	stateJSON, err := json.Marshal(sess.State)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO sessions
		(id,quiz_id,user_id,activity_id,module_id,phase,score,state_json,started_at,completed_at,delivery_status,delivery_error)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO UPDATE SET
			phase=EXCLUDED.phase, score=EXCLUDED.score, state_json=EXCLUDED.state_json,
			completed_at=EXCLUDED.completed_at`,
		sess.ID, sess.QuizID, sess.UserID, sess.ActivityID, sess.ModuleID,
		string(sess.State.Phase), sess.State.Score, string(stateJSON),
		sess.State.StartedAt.Unix(), sess.CompletedAt, sess.DeliveryStatus, sess.DeliveryError)
	return err
}

func (s *SQLStore) Get(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,quiz_id,user_id,activity_id,module_id,state_json,completed_at,delivery_status,delivery_error
		FROM sessions WHERE id=$1`, id)
	var sess Session
	var stateJSON string
	if err := row.Scan(&sess.ID, &sess.QuizID, &sess.UserID, &sess.ActivityID, &sess.ModuleID,
		&stateJSON, &sess.CompletedAt, &sess.DeliveryStatus, &sess.DeliveryError); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	if err := json.Unmarshal([]byte(stateJSON), &sess.State); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *SQLStore) MarkDeliveryPending(ctx context.Context, id string) error {
	return s.setDelivery(ctx, id, DeliveryPending, "")
}

func (s *SQLStore) MarkDeliveryOK(ctx context.Context, id string) error {
	return s.setDelivery(ctx, id, DeliveryOK, "")
}

func (s *SQLStore) MarkDeliveryFailed(ctx context.Context, id string, cause string) error {
	return s.setDelivery(ctx, id, DeliveryFailed, cause)
}

func (s *SQLStore) setDelivery(ctx context.Context, id, status, cause string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET delivery_status=$1, delivery_error=$2 WHERE id=$3`,
		status, cause, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
