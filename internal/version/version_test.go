package version

import "testing"

func TestParseRejectsBadVersions(t *testing.T) {
	for _, bad := range []string{"", "   ", "1.a", "1..2", "1.-2", "v1.2", "1.2 beta", "+1.0"} {
		if _, err := Parse(bad); err == nil {
			t.Errorf("Parse(%q) should fail", bad)
		}
	}
}

func TestParseKeepsRawString(t *testing.T) {
	v, err := Parse("1.02.3")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v.String() != "1.02.3" {
		t.Errorf("String() = %q, want original input", v.String())
	}
}

func TestCompare(t *testing.T) {
	cases := []struct {
		a, b string
		want Result
	}{
		{"1.0", "1.0", Same},
		{"1.2", "1.10", Older},   // numeric, not lexical
		{"1.10", "1.2", Newer},
		{"1.2", "1.2.0", Same},   // zero padding
		{"1.2.0.0", "1.2", Same},
		{"2.0", "1.9.9", Newer},
		{"0.9", "1.0", Older},
		{"1.2.10", "1.2.9", Newer},
		{"1.02", "1.2", Same}, // differing zero-padding of a segment
	}
	for _, tc := range cases {
		a, b := MustParse(tc.a), MustParse(tc.b)
		if got := a.Compare(b); got != tc.want {
			t.Errorf("Compare(%s, %s) = %s, want %s", tc.a, tc.b, got, tc.want)
		}
		if got := b.Compare(a); got != -tc.want {
			t.Errorf("Compare(%s, %s) = %s, not the inverse of %s", tc.b, tc.a, got, tc.want)
		}
	}
}

func TestCompareReflexive(t *testing.T) {
	for _, s := range []string{"0", "1.2.3", "10.0.0.1"} {
		v := MustParse(s)
		if v.Compare(v) != Same {
			t.Errorf("Compare(%s, %s) should be Same", s, s)
		}
	}
}

func TestNewerThan(t *testing.T) {
	if !MustParse("1.10").NewerThan(MustParse("1.2")) {
		t.Error("1.10 should be newer than 1.2")
	}
	if MustParse("1.2").NewerThan(MustParse("1.2.0")) {
		t.Error("1.2 should not be newer than 1.2.0")
	}
}
