package forms

import "testing"

func TestDigits(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"12", "12"},
		{"1st", "1"},
		{"  07 ", "07"},
		{"5mg", "5"},
		{"twenty", ""},
		{"2024-01-15", "20240115"},
	}
	for _, tc := range cases {
		if got := Digits(tc.in); got != tc.want {
			t.Errorf("Digits(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestClean(t *testing.T) {
	if got := Clean("  Jane Doe "); got != "Jane Doe" {
		t.Errorf("Clean trimmed to %q", got)
	}
}
