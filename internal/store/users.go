package store

import (
	"context"
	"fmt"
)

func (s *Store) CreateUser(ctx context.Context, u User) (User, error) {
	err := s.db.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, role, full_name, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, u.Username, u.Email, u.PasswordHash, u.Role, u.FullName, u.Active).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id int32) (User, error) {
	var u User
	err := s.db.QueryRow(ctx, `
		SELECT id, username, email, password_hash, role, full_name, active, created_at
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.FullName, &u.Active, &u.CreatedAt)
	if err != nil {
		return User{}, notFound(err)
	}
	return u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := s.db.QueryRow(ctx, `
		SELECT id, username, email, password_hash, role, full_name, active, created_at
		FROM users WHERE lower(username) = lower($1)
	`, username).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.FullName, &u.Active, &u.CreatedAt)
	if err != nil {
		return User{}, notFound(err)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.db.QueryRow(ctx, `
		SELECT id, username, email, password_hash, role, full_name, active, created_at
		FROM users WHERE lower(email) = lower($1)
	`, email).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.FullName, &u.Active, &u.CreatedAt)
	if err != nil {
		return User{}, notFound(err)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context, role string, limit, offset int) ([]User, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, username, email, password_hash, role, full_name, active, created_at
		FROM users
		WHERE ($1 = '' OR role = $1)
		ORDER BY username
		LIMIT $2 OFFSET $3
	`, role, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.FullName, &u.Active, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUser(ctx context.Context, u User) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE users SET username = $2, email = $3, role = $4, full_name = $5, active = $6
		WHERE id = $1
	`, u.ID, u.Username, u.Email, u.Role, u.FullName, u.Active)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, id int32, passwordHash string) error {
	tag, err := s.db.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUsersByRole reports how many active users hold a role. Used by the
// admin bootstrap command to avoid seeding a second admin.
func (s *Store) CountUsersByRole(ctx context.Context, role string) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM users WHERE role = $1 AND active`, role).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count users by role: %w", err)
	}
	return n, nil
}
