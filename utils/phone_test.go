package utils

import "testing"

func TestNormalizePhone(t *testing.T) {
	got, err := NormalizePhone("2125551234", "US")
	if err != nil {
		t.Fatalf("NormalizePhone: %v", err)
	}
	if got != "+12125551234" {
		t.Errorf("normalized = %q, want +12125551234", got)
	}

	if _, err := NormalizePhone("12345", "US"); err == nil {
		t.Error("short number accepted")
	}
	if _, err := NormalizePhone("not-a-phone", ""); err == nil {
		t.Error("garbage accepted")
	}
}
