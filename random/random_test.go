package random

import (
	"strings"
	"testing"
)

func TestStringSecure(t *testing.T) {
	a, err := StringSecure(32)
	if err != nil {
		t.Fatal(err)
	}
	b, err := StringSecure(32)
	if err != nil {
		t.Fatal(err)
	}

	if len(a) != 32 {
		t.Fatalf("expected length 32, got %d", len(a))
	}
	if a == b {
		t.Fatalf("expected two draws to differ, both were %s", a)
	}
	for _, c := range a {
		if !strings.ContainsRune(charset, c) {
			t.Fatalf("unexpected character %q", c)
		}
	}
}
