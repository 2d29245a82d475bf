package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCodeMapping(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrorCodeNotFound, http.StatusNotFound},
		{ErrorCodeConflict, http.StatusConflict},
		{ErrorCodeValidation, http.StatusBadRequest},
		{ErrorCodeJSON, http.StatusBadRequest},
		{ErrorCodeTooManyRequests, http.StatusTooManyRequests},
		{ErrorCodeUnavailable, http.StatusServiceUnavailable},
		{ErrorCodePersistence, http.StatusInternalServerError},
		{ErrorCodeUnknown, http.StatusInternalServerError},
		{9999, http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatusCode(c.code); got != c.want {
			t.Fatalf("HTTPStatusCode(%v) = %d, want %d", c.code, got, c.want)
		}
	}
}

func TestErrorTypeAndMethods(t *testing.T) {
	var e *Error
	if e.Error() != "<nil>" {
		t.Fatalf("nil *Error render = %q", e.Error())
	}

	src := stderrs.New("socket closed")
	w := Wrapf(src, ErrorCodeUnavailable, "fetch audit page %d", 3)
	if w.Error() != "fetch audit page 3: socket closed" {
		t.Fatalf("Wrapf render = %q", w.Error())
	}
	if !stderrs.Is(w, src) {
		t.Fatalf("wrapped cause lost")
	}

	outer := fmt.Errorf("sweep: %w", w)
	if CodeOf(outer) != ErrorCodeUnavailable {
		t.Fatalf("CodeOf through fmt wrap = %v", CodeOf(outer))
	}
	if !Transient(outer) {
		t.Fatalf("unavailable should be transient")
	}
	if Transient(Validationf("bad")) {
		t.Fatalf("validation should not be transient")
	}
	if CodeOf(stderrs.New("plain")) != ErrorCodeUnknown {
		t.Fatalf("foreign error should be unknown")
	}
	if WrapIf(nil, ErrorCodeJSON, "x") != nil {
		t.Fatalf("WrapIf(nil) should be nil")
	}
}

func TestMutatorsCopyOnWrite(t *testing.T) {
	base := New(ErrorCodeValidation, "bad config")
	f := WithField(base, "MembershipRoleId")
	o := WithOp(f, "configs.replace")

	be, _ := As(base)
	fe, _ := As(f)
	oe, _ := As(o)
	if be.Field() != "" {
		t.Fatalf("base mutated")
	}
	if fe.Field() != "MembershipRoleId" || oe.Op() != "configs.replace" || oe.Field() != "MembershipRoleId" {
		t.Fatalf("mutators did not apply: %q %q", fe.Field(), oe.Op())
	}

	plain := stderrs.New("x")
	if WithField(plain, "f") != plain || WithOp(plain, "o") != plain {
		t.Fatalf("foreign errors must pass through")
	}
}

func TestHTTPAndWire(t *testing.T) {
	status, wire := HTTP(nil)
	if status != http.StatusOK || wire != (Wire{}) {
		t.Fatalf("HTTP(nil) = %d %+v", status, wire)
	}
	status, wire = HTTP(WithField(Conflictf("community %d already configured", 7), "id"))
	if status != http.StatusConflict || wire.Code != ErrorCodeConflict || wire.Field != "id" {
		t.Fatalf("HTTP(conflict) = %d %+v", status, wire)
	}
	if w := WireFrom(stderrs.New("boom")); w.Code != ErrorCodeUnknown || w.Message != "boom" {
		t.Fatalf("WireFrom foreign = %+v", w)
	}
	if ErrorCodePersistence.String() != "persistence" || ErrorCode(77).String() != "unknown" {
		t.Fatalf("String mapping broken")
	}
}
