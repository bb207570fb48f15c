package tokenize

import (
	"reflect"
	"testing"
)

func newTokenizer(t *testing.T, opts ...Option) *Tokenizer {
	t.Helper()
	tok, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tok
}

func TestSentences(t *testing.T) {
	tok := newTokenizer(t)
	got, err := tok.Sentences("The cat sat on the mat. Dogs bark loudly at night. Birds sing in the morning.")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"The cat sat on the mat.",
		"Dogs bark loudly at night.",
		"Birds sing in the morning.",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sentences() = %q, want %q", got, want)
	}
}

func TestSentences_Empty(t *testing.T) {
	tok := newTokenizer(t)
	for _, in := range []string{"", "  ", "\n\n\t"} {
		got, err := tok.Sentences(in)
		if err != nil {
			t.Fatalf("Sentences(%q): %v", in, err)
		}
		if len(got) != 0 {
			t.Errorf("Sentences(%q) = %q, want none", in, got)
		}
	}
}

func TestWords(t *testing.T) {
	tests := []struct {
		name string
		fold bool
		in   string
		want []string
	}{
		{"folds case and drops punctuation", true, "Dogs bark, loudly!", []string{"dogs", "bark", "loudly"}},
		{"keeps case when disabled", false, "Dogs bark", []string{"Dogs", "bark"}},
		{"numbers are words", true, "Chapter 12 ends", []string{"chapter", "12", "ends"}},
		{"punctuation only", true, "...", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := newTokenizer(t, WithCaseFolding(tt.fold))
			got, err := tok.Words(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Words(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
