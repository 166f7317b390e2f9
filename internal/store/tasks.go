package store

import (
	"context"
	"fmt"
)

func (s *Store) CreateTask(ctx context.Context, t Task) (Task, error) {
	err := s.db.QueryRow(ctx, `
		INSERT INTO tasks (project_id, title, description, status, assignee_id, due_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, t.ProjectID, t.Title, t.Description, t.Status, t.AssigneeID, t.DueDate, t.CreatedBy).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return Task{}, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

func (s *Store) GetTask(ctx context.Context, id int32) (Task, error) {
	var t Task
	err := s.db.QueryRow(ctx, `
		SELECT id, project_id, title, description, status, assignee_id, due_date, created_by, created_at
		FROM tasks WHERE id = $1
	`, id).Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.AssigneeID, &t.DueDate, &t.CreatedBy, &t.CreatedAt)
	if err != nil {
		return Task{}, notFound(err)
	}
	return t, nil
}

func (s *Store) ListTasks(ctx context.Context, projectID, assigneeID int32, status string, limit, offset int) ([]Task, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, project_id, title, description, status, assignee_id, due_date, created_by, created_at
		FROM tasks
		WHERE ($1 = 0 OR project_id = $1)
		  AND ($2 = 0 OR assignee_id = $2)
		  AND ($3 = '' OR status = $3)
		ORDER BY due_date NULLS LAST, id
		LIMIT $4 OFFSET $5
	`, projectID, assigneeID, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.AssigneeID, &t.DueDate, &t.CreatedBy, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *Store) UpdateTask(ctx context.Context, t Task) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE tasks
		SET title = $2, description = $3, status = $4, assignee_id = $5, due_date = $6
		WHERE id = $1
	`, t.ID, t.Title, t.Description, t.Status, t.AssigneeID, t.DueDate)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetTaskStatus(ctx context.Context, id int32, status string) error {
	tag, err := s.db.Exec(ctx, `UPDATE tasks SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("set task status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
