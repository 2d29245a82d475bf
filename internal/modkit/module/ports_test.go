package module

import (
	"strings"
	"testing"

	phttp "warden/internal/platform/net/http"
)

type sweeper interface{ Sweep() int }

type sweeperImpl struct{ n int }

func (s sweeperImpl) Sweep() int { return s.n }

type fakeModule struct {
	name  string
	ports any
}

func (m fakeModule) Name() string             { return m.name }
func (m fakeModule) Ports() any               { return m.ports }
func (m fakeModule) MountRoutes(phttp.Router) {}

func TestPortsOf(t *testing.T) {
	t.Parallel()

	type bundle struct {
		Sweeper sweeper
		hidden  sweeper
	}

	cases := []struct {
		name  string
		ports any
		want  int
		ok    bool
	}{
		{"nil", nil, 0, false},
		{"direct", sweeper(sweeperImpl{n: 1}), 1, true},
		{"struct field", bundle{Sweeper: sweeperImpl{n: 2}}, 2, true},
		{"pointer bundle", &bundle{Sweeper: sweeperImpl{n: 3}}, 3, true},
		{"unexported ignored", bundle{hidden: sweeperImpl{n: 4}}, 0, false},
		{"scalar", 12, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := PortsOf[sweeper](fakeModule{name: tc.name, ports: tc.ports})
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if ok && got.Sweep() != tc.want {
				t.Fatalf("Sweep = %d, want %d", got.Sweep(), tc.want)
			}
		})
	}
}

func TestMustPortsOf_Panics(t *testing.T) {
	t.Parallel()
	defer func() {
		msg, _ := recover().(string)
		if !strings.Contains(msg, "eviction") {
			t.Fatalf("panic should name module, got %q", msg)
		}
	}()
	_ = MustPortsOf[sweeper](fakeModule{name: "eviction"})
}

func TestRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register("roles", sweeperImpl{n: 9})
	got, ok := PortsAs[sweeperImpl]("roles")
	if !ok || got.n != 9 {
		t.Fatalf("PortsAs = %+v %v", got, ok)
	}
	if _, ok := PortsAs[int]("roles"); ok {
		t.Fatalf("wrong type should miss")
	}
	if _, ok := PortsAs[sweeperImpl]("missing"); ok {
		t.Fatalf("missing name should miss")
	}
}
