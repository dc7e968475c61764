package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type SeedUser struct {
	Username string
	Email    string
	Password string
	Role     string
}

// EnsureSeedUsers inserts the given users unless their email is already taken.
// It returns how many were created.
func EnsureSeedUsers(ctx context.Context, pool *pgxpool.Pool, timeout time.Duration, seeds []SeedUser) (int, error) {
	created := 0
	for _, seed := range seeds {
		exists, err := userExists(ctx, pool, timeout, seed.Email)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
		if err != nil {
			return created, fmt.Errorf("hash seed password: %w", err)
		}

		role := seed.Role
		if role == "" {
			role = "user"
		}

		ctxInsert, cancel := context.WithTimeout(ctx, timeout)
		_, err = pool.Exec(ctxInsert, `
			INSERT INTO users (id, username, email, password_hash, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		`, uuid.NewString(), seed.Username, seed.Email, string(hash), role)
		cancel()
		if err != nil {
			return created, fmt.Errorf("insert seed user %s: %w", seed.Email, err)
		}
		created++
	}

	return created, nil
}

func userExists(ctx context.Context, pool *pgxpool.Pool, timeout time.Duration, email string) (bool, error) {
	ctxCheck, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	row := pool.QueryRow(ctxCheck, "SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))", email)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}
