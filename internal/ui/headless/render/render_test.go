package render

import "testing"

func TestTruncateDisplayWidth(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{in: "short", width: 10, want: "short"},
		{in: "printwatch", width: 5, want: "prin…"},
		{in: "abc", width: 1, want: "…"},
		{in: "abc", width: 0, want: ""},
	}
	for _, tt := range tests {
		if got := TruncateDisplayWidth(tt.in, tt.width); got != tt.want {
			t.Fatalf("TruncateDisplayWidth(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestTruncateLeft(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{in: "/in/a", width: 10, want: "/in/a"},
		{in: "/srv/scans/incoming", width: 9, want: "…incoming"},
		{in: "abc", width: 1, want: "…"},
	}
	for _, tt := range tests {
		if got := TruncateLeft(tt.in, tt.width); got != tt.want {
			t.Fatalf("TruncateLeft(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
