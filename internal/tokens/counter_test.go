package tokens

import "testing"

func TestCount(t *testing.T) {
	c, err := NewCounter()
	if err != nil {
		t.Fatalf("NewCounter: %v", err)
	}

	if got := c.Count(""); got != 0 {
		t.Errorf("Count(\"\") = %d, want 0", got)
	}

	short := c.Count("show all patients")
	if short == 0 {
		t.Error("Count returned 0 for non-empty text")
	}

	long := c.Count("show all patients with their visits, prescriptions and outstanding bills")
	if long <= short {
		t.Errorf("longer text counted %d tokens, shorter counted %d", long, short)
	}
}
