package util

import "testing"

func TestFoldName(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "diacritics", input: "Lốc", want: "loc"},
		{name: "d bar", input: "Đường", want: "duong"},
		{name: "spaces collapsed", input: "  Bia   Tiger  ", want: "bia tiger"},
		{name: "composite unit", input: "Thùng 24 lon", want: "thung 24 lon"},
		{name: "already plain", input: "tiger", want: "tiger"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FoldName(tc.input); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("Bia Tiger Lốc 6")
	want := []string{"bia", "tiger", "loc"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestDiceCoefficient(t *testing.T) {
	if got := DiceCoefficient("bia tiger", "bia tiger"); got != 1 {
		t.Fatalf("identical strings: got %v", got)
	}
	if got := DiceCoefficient("", "bia"); got != 0 {
		t.Fatalf("empty string: got %v", got)
	}
	close := DiceCoefficient("bia tiger", "bia tiger lon")
	far := DiceCoefficient("bia tiger", "nuoc mam")
	if close <= far {
		t.Fatalf("expected %v > %v", close, far)
	}
}
