package logger

import "testing"

func TestMaskPhone(t *testing.T) {
	got := MaskPhone("+15551230042")
	want := "****0042"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestMaskPhoneShort(t *testing.T) {
	got := MaskPhone("42")
	want := "****42"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestMaskJSON(t *testing.T) {
	input := map[string]any{
		"phone": "+15551230042",
		"token": "abc12345",
		"nested": map[string]any{
			"customer_email": "debtor@example.com",
		},
	}
	masked := MaskJSON(input)
	if masked["phone"] != "****0042" {
		t.Fatalf("expected masked phone, got %v", masked["phone"])
	}
	if masked["token"] != "****2345" {
		t.Fatalf("expected masked token, got %v", masked["token"])
	}
	nested, ok := masked["nested"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested map")
	}
	if nested["customer_email"] != "****.com" {
		t.Fatalf("expected masked email, got %v", nested["customer_email"])
	}
}
