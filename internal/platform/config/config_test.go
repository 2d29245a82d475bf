package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	kit "warden/internal/platform/testkit"
)

func TestPrefixAndKey(t *testing.T) {
	ev := New().Prefix("EVICTION_")
	if got := ev.key("CAP"); got != "EVICTION_CAP" {
		t.Fatalf("key() = %q, want %q", got, "EVICTION_CAP")
	}
	nested := ev.Prefix("SCHED_")
	if got := nested.key("TICK"); got != "EVICTION_SCHED_TICK" {
		t.Fatalf("nested key() = %q", got)
	}
}

func TestMustString(t *testing.T) {
	c := New().Prefix("W_")
	t.Setenv("W_NAME", "  warden ")
	if got := c.MustString("NAME"); got != "warden" {
		t.Fatalf("MustString = %q, want warden", got)
	}
	kit.MustPanic(t, func() { _ = c.MustString("MISSING") })
}

func TestStringOrFile(t *testing.T) {
	c := New().Prefix("W_")

	t.Setenv("W_TOKEN", "from-env")
	if got := c.StringOrFile("TOKEN", "TOKEN_FILE", "nope.key"); got != "from-env" {
		t.Fatalf("env value not preferred, got %q", got)
	}

	t.Setenv("W_TOKEN", "")
	path := filepath.Join(t.TempDir(), "token.key")
	if err := os.WriteFile(path, []byte(" from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("W_TOKEN_FILE", path)
	if got := c.StringOrFile("TOKEN", "TOKEN_FILE", "nope.key"); got != "from-file" {
		t.Fatalf("file fallback = %q", got)
	}

	t.Setenv("W_TOKEN_FILE", filepath.Join(t.TempDir(), "missing.key"))
	kit.MustPanic(t, func() { _ = c.StringOrFile("TOKEN", "TOKEN_FILE", "nope.key") })
}

func TestMayDefaultsAndInvalid(t *testing.T) {
	c := New().Prefix("M_")

	if got := c.MayString("S", "def"); got != "def" {
		t.Fatalf("MayString default = %q", got)
	}
	t.Setenv("M_I", "12")
	if got := c.MayInt("I", 3); got != 12 {
		t.Fatalf("MayInt = %d", got)
	}
	t.Setenv("M_I", "twelve")
	if got := c.MayInt("I", 3); got != 3 {
		t.Fatalf("MayInt invalid should default, got %d", got)
	}
	t.Setenv("M_B", "yes-ish")
	if got := c.MayBool("B", true); !got {
		t.Fatalf("MayBool invalid should default to true")
	}
	t.Setenv("M_D", "90s")
	if got := c.MayDuration("D", time.Second); got != 90*time.Second {
		t.Fatalf("MayDuration = %v", got)
	}
	t.Setenv("M_D", "soon")
	if got := c.MayDuration("D", time.Second); got != time.Second {
		t.Fatalf("MayDuration invalid = %v", got)
	}
}

func TestMayEnum(t *testing.T) {
	c := New().Prefix("E_")
	if got := c.MayEnum("FMT", "console", "console", "json"); got != "console" {
		t.Fatalf("MayEnum default = %q", got)
	}
	t.Setenv("E_FMT", "JSON")
	if got := c.MayEnum("FMT", "console", "console", "json"); got != "json" {
		t.Fatalf("MayEnum case-insensitive = %q", got)
	}
	t.Setenv("E_FMT", "xml")
	kit.MustPanic(t, func() { _ = c.MayEnum("FMT", "console", "console", "json") })
}
