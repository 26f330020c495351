package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/devicehub-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
	if err := migrate.ValidateEmbedded(); err != nil {
		t.Fatalf("validate embedded migrations: %v", err)
	}
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "create_orders")
	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CONSTRAINT ux_orders_idempotency_key UNIQUE (idempotency_key)",
		"CHECK (status IN ('pending', 'in_progress', 'completed'))",
		"items jsonb",
		"total_price numeric(12,2)",
		"DROP TABLE IF EXISTS orders",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrderIdempotencyKeyScopedToSession(t *testing.T) {
	content := readMigration(t, "scope_order_idempotency")
	for _, sub := range []string{
		"ADD COLUMN IF NOT EXISTS session_id text",
		"DROP CONSTRAINT IF EXISTS ux_orders_idempotency_key",
		"UNIQUE (session_id, idempotency_key)",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestPromotionsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "create_promotions")
	checks := []string{
		"CONSTRAINT ux_promotions_code UNIQUE (code)",
		"CHECK (code = upper(code))",
		"FOREIGN KEY (promotion_id) REFERENCES promotions(id) ON DELETE CASCADE",
		"profit_percentage numeric(5,2)",
		"DROP TABLE IF EXISTS promotion_brand_discounts",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCatalogMigrationCreatesBothCatalogs(t *testing.T) {
	content := readMigration(t, "create_catalog")
	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS products",
		"CREATE TABLE IF NOT EXISTS bundle_offers",
		"brand_id uuid",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCreateSQLMigrationWritesGooseTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Order Notes!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_order_notes.sql") {
		t.Fatalf("unexpected filename %q", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("validate created migration: %v", err)
	}
}
