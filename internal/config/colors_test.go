package config

import "testing"

func TestLookupColor(t *testing.T) {
	tests := []struct {
		spec  string
		want  uint32
		found bool
	}{
		{"sienna", 0xa0522d, true},
		{"SlateGray", 0x708090, true},
		{"#D2B48C", 0xd2b48c, true},
		{"#fff", 0xffffff, true},
		{"#1a2", 0x11aa22, true},
		{"#12345", 0, false},
		{"d2b48c", 0, false},
		{"#gggggg", 0, false},
		{"chartreuse", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := LookupColor(tt.spec)
		if ok != tt.found || got != tt.want {
			t.Errorf("LookupColor(%q) = (0x%06x, %v), want (0x%06x, %v)", tt.spec, got, ok, tt.want, tt.found)
		}
	}
}

func TestResolveColor_Fallback(t *testing.T) {
	if got := ResolveColor("nonsense", FallbackActiveBorder); got != FallbackActiveBorder {
		t.Fatalf("expected fallback, got 0x%06x", got)
	}
	if got := ResolveColor("black", FallbackInactiveBorder); got != 0 {
		t.Fatalf("expected black, got 0x%06x", got)
	}
}
