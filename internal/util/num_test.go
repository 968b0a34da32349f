package util

import "testing"

func TestParseLooseNumber(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{name: "plain", input: "5", want: 5, ok: true},
		{name: "decimal comma", input: "1,5", want: 1.5, ok: true},
		{name: "decimal dot", input: "1.5", want: 1.5, ok: true},
		{name: "dot thousands", input: "58.000", want: 58000, ok: true},
		{name: "comma thousands", input: "1,000", want: 1000, ok: true},
		{name: "embedded space", input: "1 000", want: 1000, ok: true},
		{name: "empty", input: "  ", ok: false},
		{name: "not a number", input: "năm", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseLooseNumber(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok=%v want %v", ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}
