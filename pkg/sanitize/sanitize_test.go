package sanitize

import "testing"

func TestString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "alice", "alice"},
		{"trims", "  quiz night \n", "quiz night"},
		{"strips tags", "<b>bold</b> move", "bold move"},
		{"drops script", "<script>alert(1)</script>hi", "hi"},
		{"keeps ampersand", "Q&A", "Q&A"},
		{"markup only", "<i></i>", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := String(tt.in); got != tt.want {
				t.Errorf("String(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
