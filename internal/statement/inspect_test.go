package statement

import (
	"reflect"
	"testing"

	"github.com/clinicops/medagent/internal/domain"
)

func TestInspectOpKind(t *testing.T) {
	tests := []struct {
		sql  string
		want domain.OpKind
	}{
		{"SELECT * FROM patients", domain.OpSelect},
		{"select name from patients", domain.OpSelect},
		{"INSERT INTO patients (name) VALUES ('Bob')", domain.OpInsert},
		{"UPDATE billing SET status = 'paid' WHERE id = 2", domain.OpUpdate},
		{"DELETE FROM visits WHERE id = 3", domain.OpDelete},
		{"DROP TABLE patients", domain.OpOther},
		{"PRAGMA journal_mode", domain.OpOther},
	}

	for _, tt := range tests {
		stmt, err := Inspect(tt.sql)
		if err != nil {
			t.Fatalf("Inspect(%q): %v", tt.sql, err)
		}
		if stmt.Op != tt.want {
			t.Errorf("Inspect(%q).Op = %s, want %s", tt.sql, stmt.Op, tt.want)
		}
	}
}

func TestInspectTables(t *testing.T) {
	tests := []struct {
		sql  string
		want []string
	}{
		{"SELECT * FROM patients", []string{"patients"}},
		{"SELECT * FROM Patients", []string{"patients"}},
		{"INSERT INTO billing (amount) VALUES (10)", []string{"billing"}},
		{"UPDATE visits SET doctor = 'Dr. Wu' WHERE id = 1", []string{"visits"}},
		{"SELECT * FROM visits JOIN patients ON visits.patient_id = patients.id", []string{"visits", "patients"}},
	}

	for _, tt := range tests {
		stmt, err := Inspect(tt.sql)
		if err != nil {
			t.Fatalf("Inspect(%q): %v", tt.sql, err)
		}
		if !reflect.DeepEqual(stmt.Tables, tt.want) {
			t.Errorf("Inspect(%q).Tables = %v, want %v", tt.sql, stmt.Tables, tt.want)
		}
	}
}

func TestInspectWhere(t *testing.T) {
	stmt, err := Inspect("UPDATE billing SET status = 'paid' WHERE id = 2")
	if err != nil {
		t.Fatal(err)
	}
	if stmt.Where != "id = 2" {
		t.Errorf("Where = %q, want %q", stmt.Where, "id = 2")
	}

	stmt, err = Inspect("DELETE FROM patients")
	if err != nil {
		t.Fatal(err)
	}
	if stmt.Where != "" {
		t.Errorf("Where = %q, want empty", stmt.Where)
	}
}

func TestInspectMultiStatement(t *testing.T) {
	tests := []struct {
		sql  string
		want bool
	}{
		{"SELECT * FROM patients", false},
		{"SELECT * FROM patients;", false},
		{"SELECT * FROM patients; DELETE FROM patients", true},
		// A semicolon inside a string literal is data, not a separator.
		{"UPDATE patients SET notes = 'a;b' WHERE id = 1", false},
	}

	for _, tt := range tests {
		stmt, err := Inspect(tt.sql)
		if err != nil {
			t.Fatalf("Inspect(%q): %v", tt.sql, err)
		}
		if stmt.MultiStatement != tt.want {
			t.Errorf("Inspect(%q).MultiStatement = %v, want %v", tt.sql, stmt.MultiStatement, tt.want)
		}
	}
}

func TestInspectDestructive(t *testing.T) {
	tests := []struct {
		sql  string
		want bool
	}{
		{"DROP TABLE patients", true},
		{"ALTER TABLE patients ADD COLUMN x TEXT", true},
		{"TRUNCATE TABLE patients", true},
		{"SELECT * FROM patients; DROP TABLE patients", true},
		{"SELECT * FROM patients", false},
		// "drop" inside a literal is not a destructive keyword.
		{"UPDATE patients SET notes = 'drop by tomorrow' WHERE id = 1", false},
	}

	for _, tt := range tests {
		stmt, err := Inspect(tt.sql)
		if err != nil {
			t.Fatalf("Inspect(%q): %v", tt.sql, err)
		}
		if stmt.Destructive != tt.want {
			t.Errorf("Inspect(%q).Destructive = %v, want %v", tt.sql, stmt.Destructive, tt.want)
		}
	}
}

func TestInspectColumns(t *testing.T) {
	tests := []struct {
		sql  string
		want []string
	}{
		{"SELECT name, age FROM patients WHERE age > 40", []string{"name", "age"}},
		{"SELECT * FROM patients", nil},
		{"SELECT COUNT(*) FROM patients", nil},
		{"INSERT INTO patients (name, age) VALUES ('Bob', 30)", []string{"name", "age"}},
		{"UPDATE billing SET status = 'paid' WHERE id = 2", []string{"status", "id"}},
		{"DELETE FROM visits WHERE patient_id = 5", []string{"patient_id"}},
		// Qualified references keep only the column part.
		{"SELECT p.name FROM patients p WHERE p.age > 50", []string{"name", "age"}},
		// Function names are not columns, their arguments are.
		{"SELECT * FROM patients WHERE LOWER(name) = 'bob'", []string{"name"}},
	}

	for _, tt := range tests {
		stmt, err := Inspect(tt.sql)
		if err != nil {
			t.Fatalf("Inspect(%q): %v", tt.sql, err)
		}
		if !reflect.DeepEqual(stmt.Columns, tt.want) {
			t.Errorf("Inspect(%q).Columns = %v, want %v", tt.sql, stmt.Columns, tt.want)
		}
	}
}

func TestInspectTrimsTerminator(t *testing.T) {
	stmt, err := Inspect("SELECT * FROM patients;\n")
	if err != nil {
		t.Fatal(err)
	}
	if stmt.SQL != "SELECT * FROM patients" {
		t.Errorf("SQL = %q, want trailing semicolon stripped", stmt.SQL)
	}
}

func TestInspectEmpty(t *testing.T) {
	for _, sql := range []string{"", "   ", ";"} {
		if _, err := Inspect(sql); err == nil {
			t.Errorf("Inspect(%q) = nil error, want error", sql)
		}
	}
}
