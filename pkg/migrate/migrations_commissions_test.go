package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nexusfashion/nexus-backend/pkg/migrate"
)

func TestCommissionsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_commissions_payouts.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no commissions migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS commissions",
		"CONSTRAINT ux_commissions_order_item UNIQUE (order_item_id)",
		"CHECK (commission_rate >= 0 AND commission_rate <= 1)",
		"payout_id uuid REFERENCES payouts(id) ON DELETE SET NULL",
		"DROP TABLE IF EXISTS commissions",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrdersMigrationEnforcesTotals(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_orders.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no orders migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CONSTRAINT ux_orders_order_number UNIQUE (order_number)",
		"CHECK (total_cents = subtotal_cents + tax_cents + shipping_cents - discount_cents)",
		"CHECK (total_cents = unit_price_cents * qty)",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationDirValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
