package adminusers

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/uptrace/bun"

	"gpdash/infrastructure/appdb"
	"gpdash/infrastructure/argon"
)

func openAdminUsersTestDB(t *testing.T) *appdb.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "admin-users-test.db")
	db, err := appdb.OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	migrationsDir := filepath.Join(filepath.Dir(file), "..", "..", "infrastructure", "appdb", "migrations")
	if err := appdb.ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

func TestCreateUser_HappyPathStoresHashAndRole(t *testing.T) {
	db := openAdminUsersTestDB(t)

	if err := CreateUser(context.Background(), db, "sales2", "sales2@example.com", "Sales Two", "Sales123!Strong", "sales", "MAIN"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	var role string
	var defaultSite string
	var passwordHash string
	err := db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT role, default_site, password_hash FROM users WHERE username = ?`, "sales2").Scan(ctx, &role, &defaultSite, &passwordHash)
	})
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	if role != "sales" {
		t.Fatalf("expected role=sales, got %s", role)
	}
	if defaultSite != "MAIN" {
		t.Fatalf("expected default_site=MAIN, got %s", defaultSite)
	}
	if passwordHash == "Sales123!Strong" {
		t.Fatalf("expected password to be hashed")
	}
	ok, err := argon.ComparePasswordAndHash("Sales123!Strong", passwordHash)
	if err != nil {
		t.Fatalf("verify hash: %v", err)
	}
	if !ok {
		t.Fatalf("expected stored hash to match password")
	}
}

func TestCreateUser_DuplicateUsernameRejectedCaseInsensitive(t *testing.T) {
	db := openAdminUsersTestDB(t)

	if err := CreateUser(context.Background(), db, "CaseUser", "", "", "Case123!Password", "sales", ""); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	err := CreateUser(context.Background(), db, "caseuser", "", "", "Case456!Password", "admin", "")
	if !errors.Is(err, ErrUsernameExists) {
		t.Fatalf("expected ErrUsernameExists, got %v", err)
	}
}

func TestCreateUser_InvalidRoleRejected(t *testing.T) {
	db := openAdminUsersTestDB(t)

	err := CreateUser(context.Background(), db, "ops", "", "", "Ops123!Password", "operator", "")
	if !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestCreateUser_PasswordPolicyEnforced(t *testing.T) {
	db := openAdminUsersTestDB(t)

	err := CreateUser(context.Background(), db, "weakuser", "", "", "abcd", "sales", "")
	if err == nil {
		t.Fatalf("expected password policy error")
	}
	if !strings.Contains(err.Error(), "password must") {
		t.Fatalf("expected password policy message, got %v", err)
	}
}

func TestSetUserRole_UpdatesAndValidates(t *testing.T) {
	db := openAdminUsersTestDB(t)

	if err := CreateUser(context.Background(), db, "promote", "", "", "Promote123!Pass", "sales", ""); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	var userID int64
	if err := db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT id FROM users WHERE username = ?`, "promote").Scan(ctx, &userID)
	}); err != nil {
		t.Fatalf("load id: %v", err)
	}

	if err := SetUserRole(context.Background(), db, userID, "admin"); err != nil {
		t.Fatalf("set role: %v", err)
	}
	data, err := LoadUsersPageData(context.Background(), db)
	if err != nil {
		t.Fatalf("load page data: %v", err)
	}
	if len(data.Users) != 1 || data.Users[0].Role != "admin" {
		t.Fatalf("expected promoted admin, got %+v", data.Users)
	}

	if err := SetUserRole(context.Background(), db, userID, "operator"); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if err := SetUserRole(context.Background(), db, 9999, "admin"); err == nil {
		t.Fatalf("expected missing-user error")
	}
}
