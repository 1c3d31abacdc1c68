package platform

import (
	"io/fs"
	"path"
	"strings"
	"testing"
)

func TestMigrationsArePaired(t *testing.T) {
	names, err := Migrations()
	if err != nil {
		t.Fatalf("Migrations: %v", err)
	}
	if len(names) == 0 {
		t.Fatal("no embedded migrations")
	}

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, n := range names {
		base := path.Base(n)
		switch {
		case strings.HasSuffix(base, ".up.sql"):
			ups[strings.TrimSuffix(base, ".up.sql")] = true
		case strings.HasSuffix(base, ".down.sql"):
			downs[strings.TrimSuffix(base, ".down.sql")] = true
		default:
			t.Errorf("migration %s is neither up nor down", base)
		}
	}
	for v := range ups {
		if !downs[v] {
			t.Errorf("migration %s has no down file", v)
		}
	}
}

func TestInitMigrationCreatesRegistryTables(t *testing.T) {
	data, err := fs.ReadFile(migrationsFS, "migrations/000001_init.up.sql")
	if err != nil {
		t.Fatalf("read init migration: %v", err)
	}
	sql := string(data)
	for _, table := range []string{"repositories", "evaluations"} {
		if !strings.Contains(sql, "CREATE TABLE IF NOT EXISTS "+table) {
			t.Errorf("init migration does not create %s", table)
		}
	}
}
