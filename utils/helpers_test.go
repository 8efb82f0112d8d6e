package utils

import "testing"

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "$0"},
		{25000, "$25,000"},
		{200000, "$200,000"},
		{1234567, "$1,234,567"},
		{-500, "-$500"},
	}
	for _, tc := range tests {
		if got := FormatMoney(tc.in); got != tc.want {
			t.Fatalf("FormatMoney(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFileNamePart(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Ana Rojas", "Ana_Rojas"},
		{"  José   Pérez  ", "José_Pérez"},
		{"../etc/passwd", "..etcpasswd"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := FileNamePart(tc.in); got != tc.want {
			t.Fatalf("FileNamePart(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("Valentina Fernández", 12); got != "Valentina Fe" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := Truncate("Ana", 12); got != "Ana" {
		t.Fatalf("short strings must be untouched, got %q", got)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("jaque-mate")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CheckPassword("jaque-mate", hash); err != nil {
		t.Fatalf("expected password to match: %v", err)
	}
	if err := CheckPassword("tablas", hash); err == nil {
		t.Fatalf("expected mismatch for wrong password")
	}
}
