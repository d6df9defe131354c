package migrate

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/MatheusAFD/mono-repo-auth/internal/db"
)

func TestRun_EmptyDSN(t *testing.T) {
	for _, dsn := range []string{"", "   "} {
		err := Run(dsn, Up)
		if !errors.Is(err, ErrMissingDSN) {
			t.Errorf("Run(%q) error = %v, want ErrMissingDSN", dsn, err)
		}
	}
}

func TestParseDirection(t *testing.T) {
	for _, in := range []string{"up", "down"} {
		d, err := ParseDirection(in)
		if err != nil {
			t.Errorf("ParseDirection(%q): %v", in, err)
		}
		if string(d) != in {
			t.Errorf("ParseDirection(%q) = %q", in, d)
		}
	}
	for _, in := range []string{"", "UP", "Up", "sideways"} {
		if _, err := ParseDirection(in); err == nil {
			t.Errorf("ParseDirection(%q) should fail", in)
		}
	}
}

func TestRun_InvalidDirection(t *testing.T) {
	if err := Run("postgres://localhost/test", Direction("left")); err == nil {
		t.Fatal("Run with invalid direction should return error")
	}
}

func TestRun_InvalidDSN(t *testing.T) {
	for _, dsn := range []string{"invalid-dsn", "://localhost/test", "postgres://localhost with spaces/test"} {
		if err := Run(dsn, Up); err == nil {
			t.Errorf("Run with invalid DSN %q should return error", dsn)
		}
	}
}

func TestStatus_EmptyDSN(t *testing.T) {
	if _, _, err := Status(""); !errors.Is(err, ErrMissingDSN) {
		t.Errorf("Status(\"\") error = %v, want ErrMissingDSN", err)
	}
}

func TestEmbeddedMigrations_Ordered(t *testing.T) {
	src, err := iofs.New(db.MigrationFS, "migrations")
	if err != nil {
		t.Fatalf("iofs.New: %v", err)
	}
	defer src.Close()

	first, err := src.First()
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if first != 1 {
		t.Errorf("first migration = %d, want 1", first)
	}
	next, err := src.Next(first)
	if err != nil {
		t.Fatalf("Next(%d): %v", first, err)
	}
	if next != 2 {
		t.Errorf("second migration = %d, want 2", next)
	}
}
