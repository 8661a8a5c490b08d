package migrations

import (
	"regexp"
	"strings"
	"testing"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
)

func schema(t *testing.T) string {
	t.Helper()
	migs, err := db.NewMigrator(nil, FS).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations: %v", err)
	}
	if len(migs) == 0 {
		t.Fatal("no embedded migrations")
	}
	var all []string
	for _, m := range migs {
		all = append(all, m.SQL)
	}
	return strings.Join(strings.Fields(strings.Join(all, "\n")), " ")
}

// tableDef returns the CREATE TABLE body for name.
func tableDef(t *testing.T, sql, name string) string {
	t.Helper()
	re := regexp.MustCompile(`CREATE TABLE IF NOT EXISTS ` + name + ` \((.*?)\);`)
	m := re.FindStringSubmatch(sql)
	if m == nil {
		t.Fatalf("table %s not found", name)
	}
	return m[1]
}

func TestInvoiceNumbersUniquePerClinic(t *testing.T) {
	def := tableDef(t, schema(t), "invoices")
	if !strings.Contains(def, "UNIQUE (clinic_id, invoice_number)") {
		t.Errorf("expected invoice numbers unique per clinic, got %s", def)
	}
	if strings.Contains(def, "invoice_number VARCHAR(32) NOT NULL UNIQUE") {
		t.Error("invoice numbers must not be unique across clinics")
	}
}

func TestAppointmentTokensUniquePerQueue(t *testing.T) {
	def := tableDef(t, schema(t), "appointments")
	if !strings.Contains(def, "UNIQUE (clinic_id, doctor_id, appointment_date, token_number)") {
		t.Errorf("expected token uniqueness per clinic, doctor and date, got %s", def)
	}
}
