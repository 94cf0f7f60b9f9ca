package util

import (
	"reflect"
	"testing"
)

func TestNameKey(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercases", input: "Sattu Powder", want: "sattu powder"},
		{name: "strips punctuation", input: "Chana-Sattu (Roasted)", want: "chana sattu roasted"},
		{name: "collapses spaces", input: "  makhana    raw ", want: "makhana raw"},
		{name: "keeps digits", input: "Atta 2", want: "atta 2"},
		{name: "pipe splits", input: "sattu|1kg", want: "sattu 1kg"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NameKey(tc.input); got != tc.want {
				t.Fatalf("NameKey(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestKeywordsDropStopwordsAndShortWords(t *testing.T) {
	got := Keywords("Bihari Mithila Foods High Protein Sattu Mix 2")
	want := []string{"sattu", "mix"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Keywords = %v, want %v", got, want)
	}
}

func TestWordsKeepStopwords(t *testing.T) {
	got := Words("Desi Chana Sattu")
	want := []string{"desi", "chana", "sattu"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Words = %v, want %v", got, want)
	}
}

func TestIsEmptyCell(t *testing.T) {
	for _, s := range []string{"", "  ", "nan", "NaN", "None", "null", "N/A"} {
		if !IsEmptyCell(s) {
			t.Fatalf("IsEmptyCell(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"0", "sattu", "-"} {
		if IsEmptyCell(s) {
			t.Fatalf("IsEmptyCell(%q) = true, want false", s)
		}
	}
}

func TestTruncateName(t *testing.T) {
	if got := TruncateName("short", 40); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := TruncateName("abcdefghij", 8); got != "abcde..." {
		t.Fatalf("got %q", got)
	}
}
