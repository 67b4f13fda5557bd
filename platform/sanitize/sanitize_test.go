package sanitize

import "testing"

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text untouched", "replace 3 windows", "replace 3 windows"},
		{"tags stripped", "<script>alert(1)</script>hello", "alert(1)hello"},
		{"encoded tag stripped", "&lt;img src=x onerror=alert(1)&gt;note", "note"},
		{"entities decoded", "a &amp; b", "a & b"},
		{"whitespace trimmed", "  padded  ", "padded"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.input); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
