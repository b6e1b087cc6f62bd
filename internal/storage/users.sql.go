package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"budget/internal/core"
)

const createUser = `INSERT INTO users (email) VALUES (?) RETURNING id, email`

func (q *Queries) CreateUser(ctx context.Context, email string) (core.User, error) {
	var u core.User
	err := q.db.QueryRowContext(ctx, createUser, email).Scan(&u.ID, &u.Email)
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

const getUser = `SELECT id, email FROM users WHERE id = ?`

func (q *Queries) GetUser(ctx context.Context, id int64) (core.User, error) {
	var u core.User
	err := q.db.QueryRowContext(ctx, getUser, id).Scan(&u.ID, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("user %d: %w", id, core.ErrUserNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

const getUserByEmail = `SELECT id, email FROM users WHERE email = ?`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	var u core.User
	err := q.db.QueryRowContext(ctx, getUserByEmail, email).Scan(&u.ID, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("user %q: %w", email, core.ErrUserNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

const listUserIDs = `SELECT id FROM users ORDER BY id`

func (q *Queries) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, listUserIDs)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
