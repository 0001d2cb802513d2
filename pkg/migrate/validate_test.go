package migrate_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rmoralesp/giftshop-backend/pkg/migrate"
)

func TestValidateDirAcceptsRepoMigrations(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("repo migrations failed validation: %v", err)
	}
}

func TestValidateDirRejectsBadFilename(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "001_bad_version.sql")
	if err := os.WriteFile(bad, []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := migrate.ValidateDir(dir); err == nil {
		t.Fatalf("expected filename validation error")
	}
}

func TestValidateDirRejectsMissingDirectives(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "20260601100000_missing_down.sql")
	if err := os.WriteFile(bad, []byte("-- +goose Up\nCREATE TABLE t (id INT);\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := migrate.ValidateDir(dir); err == nil {
		t.Fatalf("expected missing directive error")
	}
}
