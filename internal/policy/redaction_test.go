package policy

import (
	"strings"
	"testing"
)

func TestRedactPII(t *testing.T) {
	input := "Email me at sam@campus.edu or +1 (555) 123-9876 and use 4242 4242 4242 4242."
	out, changed := RedactPII(input)
	if !changed {
		t.Fatalf("changed = false, want true")
	}
	for _, marker := range []string{"[REDACTED_EMAIL]", "[REDACTED_PHONE]", "[REDACTED_CARD]"} {
		if !strings.Contains(out, marker) {
			t.Fatalf("output missing marker %q: %q", marker, out)
		}
	}
}

func TestRedactPIIStudentID(t *testing.T) {
	out, changed := RedactPII("My student id is S1234567, please check my enrollment.")
	if !changed {
		t.Fatalf("changed = false, want true")
	}
	if !strings.Contains(out, "[REDACTED_STUDENT_ID]") {
		t.Fatalf("output missing student id marker: %q", out)
	}
	if strings.Contains(out, "S1234567") {
		t.Fatalf("student id leaked: %q", out)
	}
}

func TestRedactPIINoChange(t *testing.T) {
	input := "What courses am I enrolled in this semester?"
	out, changed := RedactPII(input)
	if changed {
		t.Fatalf("changed = true, want false")
	}
	if out != input {
		t.Fatalf("out = %q, want input unchanged", out)
	}
}
