package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mesaflow/mesaflow-backend/pkg/migrate"
)

const migrationsDir = "../../migrations"

func TestMigrationFilenamesValidate(t *testing.T) {
	if err := migrate.ValidateDir(migrationsDir); err != nil {
		t.Fatalf("migration dir failed validation: %v", err)
	}
}

func TestConversationsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_conversations.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS conversations",
		"version BIGINT NOT NULL DEFAULT 0",
		"CONSTRAINT ux_conversations_customer UNIQUE (customer_id)",
		"FOREIGN KEY (customer_id) REFERENCES customers(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS conversations",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_orders.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CHECK (order_type IN ('dine_in', 'pickup', 'delivery'))",
		"CHECK (quantity > 0)",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS order_items",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCustomersMigrationEnforcesTenantScopedIdentity(t *testing.T) {
	content := readMigration(t, "*_create_customers.sql")

	if !strings.Contains(content, "CONSTRAINT ux_customers_restaurant_wa UNIQUE (restaurant_id, wa_id)") {
		t.Errorf("customers table must be unique per restaurant and wa id")
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(migrationsDir, pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
