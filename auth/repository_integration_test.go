package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TestPGRepository_Integration connects to a real PostgreSQL via DATABASE_URL
// and verifies account persistence, the unique-email constraint and lookups.
func TestPGRepository_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL is empty; set it to a live PostgreSQL to run integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pool: %v", err)
	}
	defer pool.Close()

	var exists bool
	if err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'accounts')`,
	).Scan(&exists); err != nil || !exists {
		t.Skip("accounts table missing; apply migrations first")
	}

	repo := NewRepository(pool)
	email := fmt.Sprintf("itest+%d@example.com", time.Now().UnixNano())
	id := fmt.Sprintf("itest-%d", time.Now().UnixNano())

	t.Cleanup(func() {
		ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel2()
		pool.Exec(ctx2, `DELETE FROM accounts WHERE email = $1`, email)
	})

	free, err := repo.EmailExists(ctx, email)
	if err != nil {
		t.Fatalf("email exists: %v", err)
	}
	if free {
		t.Fatalf("expected %s to be unregistered", email)
	}

	created, err := repo.CreateAccount(ctx, CreateAccountParams{
		ID:           id,
		Email:        email,
		Username:     "itest",
		PasswordHash: "$2a$10$itesthashitesthashitest",
		Role:         RoleUser,
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if created.ID != id || created.Role != RoleUser {
		t.Fatalf("unexpected created account: %+v", created)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatal("expected database-assigned timestamps")
	}

	// Same email, different id: the unique index must reject it.
	_, err = repo.CreateAccount(ctx, CreateAccountParams{
		ID:           id + "-dup",
		Email:        email,
		Username:     "itest-dup",
		PasswordHash: "$2a$10$itesthashitesthashitest",
		Role:         RoleUser,
	})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	found, err := repo.GetAccountByEmail(ctx, email)
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if found.ID != id || found.PasswordHash == "" {
		t.Fatalf("unexpected account from lookup: %+v", found)
	}

	if _, err := repo.GetAccountByEmail(ctx, "nobody+"+email); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	taken, err := repo.EmailExists(ctx, email)
	if err != nil {
		t.Fatalf("email exists after create: %v", err)
	}
	if !taken {
		t.Fatal("expected email to be reported as taken")
	}

	listed, err := repo.ListAccounts(ctx, 100)
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	var seen bool
	for _, account := range listed {
		if account.ID == id {
			seen = true
			break
		}
	}
	if !seen {
		t.Fatalf("expected listing to include %s", id)
	}
}
