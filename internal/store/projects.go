package store

import (
	"context"
	"fmt"
)

func (s *Store) CreateProject(ctx context.Context, p Project) (Project, error) {
	err := s.db.QueryRow(ctx, `
		INSERT INTO projects (name, code, customer_id, location, status, start_date, end_date, budget)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, p.Name, p.Code, p.CustomerID, p.Location, p.Status, p.StartDate, p.EndDate, p.Budget).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return Project{}, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

func (s *Store) GetProject(ctx context.Context, id int32) (Project, error) {
	var p Project
	err := s.db.QueryRow(ctx, `
		SELECT id, name, code, customer_id, location, status, start_date, end_date, budget, created_at
		FROM projects WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Code, &p.CustomerID, &p.Location, &p.Status, &p.StartDate, &p.EndDate, &p.Budget, &p.CreatedAt)
	if err != nil {
		return Project{}, notFound(err)
	}
	return p, nil
}

func (s *Store) GetProjectByCode(ctx context.Context, code string) (Project, error) {
	var p Project
	err := s.db.QueryRow(ctx, `
		SELECT id, name, code, customer_id, location, status, start_date, end_date, budget, created_at
		FROM projects WHERE code = $1
	`, code).Scan(&p.ID, &p.Name, &p.Code, &p.CustomerID, &p.Location, &p.Status, &p.StartDate, &p.EndDate, &p.Budget, &p.CreatedAt)
	if err != nil {
		return Project{}, notFound(err)
	}
	return p, nil
}

func (s *Store) ListProjects(ctx context.Context, status string, limit, offset int) ([]Project, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, code, customer_id, location, status, start_date, end_date, budget, created_at
		FROM projects
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Code, &p.CustomerID, &p.Location, &p.Status, &p.StartDate, &p.EndDate, &p.Budget, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *Store) UpdateProject(ctx context.Context, p Project) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE projects
		SET name = $2, customer_id = $3, location = $4, status = $5,
		    start_date = $6, end_date = $7, budget = $8
		WHERE id = $1
	`, p.ID, p.Name, p.CustomerID, p.Location, p.Status, p.StartDate, p.EndDate, p.Budget)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
