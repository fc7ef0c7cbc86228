package failfast

import (
	"testing"
)

func expectPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic")
		}
	}()
	fn()
}

func TestIf(t *testing.T) {
	If(true, "should not panic")
	expectPanic(t, func() { If(false, "invariant %d violated", 1) })
}

func TestNotNil(t *testing.T) {
	NotNil("value", "value")
	NotNil(t, "t")

	expectPanic(t, func() { NotNil(nil, "untyped nil") })

	var p *int
	expectPanic(t, func() { NotNil(p, "typed nil pointer") })

	var fn func()
	expectPanic(t, func() { NotNil(fn, "nil func") })
}
