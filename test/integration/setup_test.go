package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caremarket/caremarket/internal/domain/account"
	"github.com/caremarket/caremarket/internal/domain/catalog"
	"github.com/caremarket/caremarket/internal/platform/db"
)

// globalPool is the package-level test database, initialized once in TestMain.
var globalPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	connStr, cleanup, err := startPostgres(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres container: %v\n", err)
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		cleanup()
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}

	migrator := db.NewMigrator(pool, findMigrationsDir())
	if _, err := migrator.Up(ctx); err != nil {
		pool.Close()
		cleanup()
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		os.Exit(1)
	}

	globalPool = pool
	code := m.Run()
	pool.Close()
	cleanup()
	os.Exit(code)
}

// findMigrationsDir locates the migrations directory relative to this file.
func findMigrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	return filepath.Join(dir, "..", "..", "migrations")
}

func uniqueEmail(prefix string) string {
	short := strings.ReplaceAll(uuid.New().String()[:8], "-", "")
	return fmt.Sprintf("%s-%s@example.com", prefix, short)
}

// createTestUser inserts a user directly through the repository.
func createTestUser(t *testing.T, ctx context.Context, role string) *account.User {
	t.Helper()
	repo := account.NewRepoPG(globalPool)
	u := &account.User{
		Email:        uniqueEmail(role),
		PasswordHash: "x",
		Role:         role,
		Name:         "Test " + role,
	}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("create test %s: %v", role, err)
	}
	return u
}

// createTestProduct inserts an active product owned by the given seller.
func createTestProduct(t *testing.T, ctx context.Context, ownerID uuid.UUID, price float64, stock int) *catalog.Product {
	t.Helper()
	repo := catalog.NewProductRepoPG(globalPool)
	short := strings.ReplaceAll(uuid.New().String()[:8], "-", "")
	p := &catalog.Product{
		SKU:     "SKU-" + short,
		OwnerID: ownerID,
		Name:    "Product " + short,
		Price:   price,
		Stock:   stock,
		Active:  true,
	}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("create test product: %v", err)
	}
	return p
}
