package store

import (
	"context"
	"fmt"
)

// Material and godown masters.

func (s *Store) CreateMaterial(ctx context.Context, m Material) (Material, error) {
	err := s.db.QueryRow(ctx, `
		INSERT INTO materials (name, code, unit, category)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, m.Name, m.Code, m.Unit, m.Category).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return Material{}, fmt.Errorf("create material: %w", err)
	}
	return m, nil
}

func (s *Store) GetMaterial(ctx context.Context, id int32) (Material, error) {
	var m Material
	err := s.db.QueryRow(ctx, `
		SELECT id, name, code, unit, category, created_at
		FROM materials WHERE id = $1
	`, id).Scan(&m.ID, &m.Name, &m.Code, &m.Unit, &m.Category, &m.CreatedAt)
	if err != nil {
		return Material{}, notFound(err)
	}
	return m, nil
}

func (s *Store) GetMaterialByCode(ctx context.Context, code string) (Material, error) {
	var m Material
	err := s.db.QueryRow(ctx, `
		SELECT id, name, code, unit, category, created_at
		FROM materials WHERE code = $1
	`, code).Scan(&m.ID, &m.Name, &m.Code, &m.Unit, &m.Category, &m.CreatedAt)
	if err != nil {
		return Material{}, notFound(err)
	}
	return m, nil
}

func (s *Store) ListMaterials(ctx context.Context, search string, limit, offset int) ([]Material, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, code, unit, category, created_at
		FROM materials
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR code ILIKE '%' || $1 || '%')
		ORDER BY name
		LIMIT $2 OFFSET $3
	`, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()

	var materials []Material
	for rows.Next() {
		var m Material
		if err := rows.Scan(&m.ID, &m.Name, &m.Code, &m.Unit, &m.Category, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

func (s *Store) UpdateMaterial(ctx context.Context, m Material) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE materials SET name = $2, unit = $3, category = $4
		WHERE id = $1
	`, m.ID, m.Name, m.Unit, m.Category)
	if err != nil {
		return fmt.Errorf("update material: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MaterialStockSummary is the per-godown breakdown for one material.
type MaterialStockSummary struct {
	GodownID   int32  `json:"godown_id"`
	GodownName string `json:"godown_name"`
	Quantity   string `json:"quantity"`
}

// GetMaterialStockSummary reports where a material is currently held.
func (s *Store) GetMaterialStockSummary(ctx context.Context, materialID int32) ([]MaterialStockSummary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT gs.godown_id, g.name, gs.quantity::text
		FROM godown_stocks gs
		JOIN godowns g ON g.id = gs.godown_id
		WHERE gs.material_id = $1
		ORDER BY g.name
	`, materialID)
	if err != nil {
		return nil, fmt.Errorf("get material stock summary: %w", err)
	}
	defer rows.Close()

	var summary []MaterialStockSummary
	for rows.Next() {
		var row MaterialStockSummary
		if err := rows.Scan(&row.GodownID, &row.GodownName, &row.Quantity); err != nil {
			return nil, fmt.Errorf("scan material stock summary: %w", err)
		}
		summary = append(summary, row)
	}
	return summary, rows.Err()
}

func (s *Store) CreateGodown(ctx context.Context, g Godown) (Godown, error) {
	err := s.db.QueryRow(ctx, `
		INSERT INTO godowns (name, code, location)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, g.Name, g.Code, g.Location).Scan(&g.ID, &g.CreatedAt)
	if err != nil {
		return Godown{}, fmt.Errorf("create godown: %w", err)
	}
	return g, nil
}

func (s *Store) GetGodown(ctx context.Context, id int32) (Godown, error) {
	var g Godown
	err := s.db.QueryRow(ctx, `
		SELECT id, name, code, location, created_at
		FROM godowns WHERE id = $1
	`, id).Scan(&g.ID, &g.Name, &g.Code, &g.Location, &g.CreatedAt)
	if err != nil {
		return Godown{}, notFound(err)
	}
	return g, nil
}

func (s *Store) GetGodownByCode(ctx context.Context, code string) (Godown, error) {
	var g Godown
	err := s.db.QueryRow(ctx, `
		SELECT id, name, code, location, created_at
		FROM godowns WHERE code = $1
	`, code).Scan(&g.ID, &g.Name, &g.Code, &g.Location, &g.CreatedAt)
	if err != nil {
		return Godown{}, notFound(err)
	}
	return g, nil
}

func (s *Store) ListGodowns(ctx context.Context) ([]Godown, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, code, location, created_at
		FROM godowns ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list godowns: %w", err)
	}
	defer rows.Close()

	var godowns []Godown
	for rows.Next() {
		var g Godown
		if err := rows.Scan(&g.ID, &g.Name, &g.Code, &g.Location, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan godown: %w", err)
		}
		godowns = append(godowns, g)
	}
	return godowns, rows.Err()
}

func (s *Store) UpdateGodown(ctx context.Context, g Godown) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE godowns SET name = $2, location = $3
		WHERE id = $1
	`, g.ID, g.Name, g.Location)
	if err != nil {
		return fmt.Errorf("update godown: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
