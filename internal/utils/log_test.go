package utils

import "testing"

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{name: "non-positive limit", input: `{"gender": "male"}`, limit: 0, expect: ""},
		{name: "fits", input: `{"a": 1}`, limit: 10, expect: `{"a": 1}`},
		{name: "cut with ellipsis", input: `{"preferred_height_min": 170}`, limit: 10, expect: `{"preferre...`},
		{name: "multi-line snapshot", input: "{\n  \"a\": 1,\n\t\"b\": 2\n}", limit: 40, expect: `{ "a": 1, "b": 2 }`},
		{name: "runes are not split", input: "키 180 이상", limit: 1, expect: "키..."},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
