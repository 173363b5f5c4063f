package textvec

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"Red Shoe", []string{"red", "shoe"}},
		{"red, shoe!", []string{"red", "shoe"}},
		{"a I x", nil},                          // single-rune runs are dropped
		{"v2_pro max", []string{"v2_pro", "max"}}, // digits and underscores join runs
		{"CAFÉ au lait", []string{"café", "au", "lait"}},
		{"", nil},
		{"!!!", nil},
		{"4k tv", []string{"4k", "tv"}},
	}

	for _, tt := range tests {
		got := Tokenize(tt.input)
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestNGrams_UnigramsOnly(t *testing.T) {
	tokens := []string{"red", "shoe"}
	got := NGrams(tokens, 1, 1)
	if !reflect.DeepEqual(got, tokens) {
		t.Errorf("NGrams(1,1) = %v, want %v", got, tokens)
	}
}

func TestNGrams_UnigramsAndBigrams(t *testing.T) {
	got := NGrams([]string{"red", "leather", "shoe"}, 1, 2)
	want := []string{"red", "leather", "shoe", "red leather", "leather shoe"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NGrams(1,2) = %v, want %v", got, want)
	}
}

func TestNGrams_ShortInput(t *testing.T) {
	// A single token cannot form a bigram
	got := NGrams([]string{"shoe"}, 1, 2)
	want := []string{"shoe"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NGrams = %v, want %v", got, want)
	}

	if got := NGrams(nil, 1, 2); len(got) != 0 {
		t.Errorf("NGrams(nil) = %v, want empty", got)
	}
}

func TestNGrams_DegenerateRange(t *testing.T) {
	// maxN below minN collapses to minN
	got := NGrams([]string{"red", "shoe"}, 2, 1)
	want := []string{"red shoe"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NGrams(2,1) = %v, want %v", got, want)
	}
}
