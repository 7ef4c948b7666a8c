package dreams

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"goalflow-backend/internal/organizer"
)

var ErrDreamNotFound = errors.New("dream not found")

// Store is the durable per-user dream collection. Task lists are
// written wholesale: ReplaceTasks is the only task-level write, and it
// is last-writer-wins by design.
type Store interface {
	CreateDream(ctx context.Context, userID int, goal string, tasks []organizer.Task) (Dream, error)
	ListDreams(ctx context.Context, userID int) ([]Dream, error)
	GetDream(ctx context.Context, userID, dreamID int) (Dream, error)
	ReplaceTasks(ctx context.Context, userID, dreamID int, tasks []organizer.Task) error
	DeleteDream(ctx context.Context, userID, dreamID int) error
}

// PostgresStore keeps each dream as one row with the task list in a
// jsonb column, mirroring the document-per-goal model.
type PostgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

func marshalTasks(tasks []organizer.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []organizer.Task{}
	}
	return json.Marshal(tasks)
}

func (s *PostgresStore) CreateDream(ctx context.Context, userID int, goal string, tasks []organizer.Task) (Dream, error) {
	blob, err := marshalTasks(tasks)
	if err != nil {
		return Dream{}, fmt.Errorf("marshal tasks: %w", err)
	}

	d := Dream{Goal: goal, Tasks: tasks}
	err = s.DB.QueryRowContext(ctx, `
		INSERT INTO dreams (user_id, goal, tasks)
		VALUES ($1, $2, $3::jsonb)
		RETURNING id, created_at
	`, userID, goal, string(blob)).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return Dream{}, fmt.Errorf("insert dream: %w", err)
	}
	if d.Tasks == nil {
		d.Tasks = []organizer.Task{}
	}
	return d, nil
}

func (s *PostgresStore) ListDreams(ctx context.Context, userID int) ([]Dream, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, goal, tasks, created_at
		FROM dreams
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query dreams: %w", err)
	}
	defer rows.Close()

	out := []Dream{}
	for rows.Next() {
		var d Dream
		var blob []byte
		if err := rows.Scan(&d.ID, &d.Goal, &blob, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan dream: %w", err)
		}
		if err := json.Unmarshal(blob, &d.Tasks); err != nil {
			return nil, fmt.Errorf("decode tasks for dream %d: %w", d.ID, err)
		}
		if d.Tasks == nil {
			d.Tasks = []organizer.Task{}
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetDream(ctx context.Context, userID, dreamID int) (Dream, error) {
	var d Dream
	var blob []byte
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, goal, tasks, created_at
		FROM dreams
		WHERE user_id = $1 AND id = $2
	`, userID, dreamID).Scan(&d.ID, &d.Goal, &blob, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Dream{}, ErrDreamNotFound
	}
	if err != nil {
		return Dream{}, fmt.Errorf("query dream: %w", err)
	}
	if err := json.Unmarshal(blob, &d.Tasks); err != nil {
		return Dream{}, fmt.Errorf("decode tasks for dream %d: %w", d.ID, err)
	}
	if d.Tasks == nil {
		d.Tasks = []organizer.Task{}
	}
	return d, nil
}

func (s *PostgresStore) ReplaceTasks(ctx context.Context, userID, dreamID int, tasks []organizer.Task) error {
	blob, err := marshalTasks(tasks)
	if err != nil {
		return fmt.Errorf("marshal tasks: %w", err)
	}

	res, err := s.DB.ExecContext(ctx, `
		UPDATE dreams
		SET tasks = $1::jsonb
		WHERE user_id = $2 AND id = $3
	`, string(blob), userID, dreamID)
	if err != nil {
		return fmt.Errorf("replace tasks: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrDreamNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteDream(ctx context.Context, userID, dreamID int) error {
	res, err := s.DB.ExecContext(ctx, `
		DELETE FROM dreams
		WHERE user_id = $1 AND id = $2
	`, userID, dreamID)
	if err != nil {
		return fmt.Errorf("delete dream: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrDreamNotFound
	}
	return nil
}
