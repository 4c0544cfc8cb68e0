package util

import (
	"reflect"
	"testing"
)

func TestNormalizeTicker(t *testing.T) {
	cases := map[string]string{
		" bbca ":  "BBCA.JK",
		"tlkm.jk": "TLKM.JK",
		"ASII.JK": "ASII.JK",
		"  ":      "",
	}
	for in, want := range cases {
		if got := NormalizeTicker(in); got != want {
			t.Fatalf("NormalizeTicker(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeTickersDedup(t *testing.T) {
	got := NormalizeTickers([]string{"bbca", "BBCA.JK", "", "tlkm"})
	want := []string{"BBCA.JK", "TLKM.JK"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" a, b ,,c ")
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected %v", got)
	}
	if SplitList("") != nil {
		t.Fatalf("expected nil")
	}
}

func TestParseIntDefault(t *testing.T) {
	if ParseIntDefault("x", 7) != 7 || ParseIntDefault("", 3) != 3 || ParseIntDefault("12", 0) != 12 {
		t.Fatalf("unexpected parse")
	}
}
