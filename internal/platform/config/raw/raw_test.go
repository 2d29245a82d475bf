package raw

import "testing"

func TestGetPrefixAndDefault(t *testing.T) {
	t.Setenv("LOG_SERVICE", " warden ")
	c := New().Prefix("LOG_")
	if got := c.Get("SERVICE", "x"); got != "warden" {
		t.Fatalf("Get = %q", got)
	}
	if got := c.Get("MISSING", "dflt"); got != "dflt" {
		t.Fatalf("Get default = %q", got)
	}
}

func TestGetBool(t *testing.T) {
	c := New().Prefix("B_")
	cases := []struct {
		val  string
		def  bool
		want bool
	}{
		{"", true, true},
		{"", false, false},
		{"YES", false, true},
		{"on", false, true},
		{"1", false, true},
		{"nope", true, false},
	}
	for _, tc := range cases {
		t.Setenv("B_FLAG", tc.val)
		if got := c.GetBool("FLAG", tc.def); got != tc.want {
			t.Fatalf("GetBool(%q, def=%v) = %v, want %v", tc.val, tc.def, got, tc.want)
		}
	}
}

func TestGetInt(t *testing.T) {
	c := New()
	t.Setenv("N", "42")
	if got := c.GetInt("N", 1); got != 42 {
		t.Fatalf("GetInt = %d", got)
	}
	t.Setenv("N", "-3")
	if got := c.GetInt("N", 1); got != 1 {
		t.Fatalf("negative should default, got %d", got)
	}
	t.Setenv("N", "4x")
	if got := c.GetInt("N", 7); got != 7 {
		t.Fatalf("garbage should default, got %d", got)
	}
}
