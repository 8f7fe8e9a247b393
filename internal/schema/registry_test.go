package schema

import (
	"reflect"
	"strings"
	"testing"
)

func TestDefaultRegistry(t *testing.T) {
	r := Default()

	want := []string{"patients", "visits", "prescriptions", "billing"}
	if got := r.TableNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("TableNames = %v, want %v", got, want)
	}

	if !r.Has("patients") || !r.Has("PATIENTS") {
		t.Error("table lookup is not case-insensitive")
	}
	if r.Has("invoices") {
		t.Error("Has reports an undeclared table")
	}
}

func TestHasColumn(t *testing.T) {
	r := Default()
	tbl, ok := r.Table("billing")
	if !ok {
		t.Fatal("billing not declared")
	}

	if !tbl.HasColumn("status") || !tbl.HasColumn("STATUS") {
		t.Error("column lookup is not case-insensitive")
	}
	if tbl.HasColumn("currency") {
		t.Error("HasColumn reports an undeclared column")
	}
}

func TestDescribe(t *testing.T) {
	text := Default().Describe()

	for _, want := range []string{"- patients (", "- billing (", "status TEXT", "amount REAL"} {
		if !strings.Contains(text, want) {
			t.Errorf("Describe missing %q:\n%s", want, text)
		}
	}
}

func TestColumnsSorted(t *testing.T) {
	cols := Default().Columns("prescriptions")
	want := []string{"dosage", "id", "medication", "visit_id"}
	if !reflect.DeepEqual(cols, want) {
		t.Errorf("Columns = %v, want %v", cols, want)
	}

	if got := Default().Columns("nope"); got != nil {
		t.Errorf("Columns for unknown table = %v, want nil", got)
	}
}
