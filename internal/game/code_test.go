package game

import "testing"

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"abcd", "ABCD", false},
		{" xy12z9 ", "XY12Z9", false},
		{"ABCDEFGHIJ", "ABCDEFGHIJ", false},
		{"abc", "", true},
		{"ABCDEFGHIJK", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeCode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeCode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGenerateCode(t *testing.T) {
	for _, length := range []int{MinCodeLength, 6, MaxCodeLength} {
		code, err := GenerateCode(length)
		if err != nil {
			t.Fatalf("GenerateCode(%d) error = %v", length, err)
		}
		if len(code) != length {
			t.Errorf("GenerateCode(%d) = %q", length, code)
		}
		if _, err := NormalizeCode(code); err != nil {
			t.Errorf("generated code %q rejected: %v", code, err)
		}
		for _, c := range code {
			if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
				t.Errorf("generated code %q has character %q", code, c)
			}
		}
	}
}
