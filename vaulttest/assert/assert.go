/*
Package assert provides the small set of assertions shared by the package
tests. Every helper stops the test on the first failed expectation.
*/
package assert

import (
	"bytes"
	"reflect"
)

// Tester is the part of testing.TB the assertions rely on.
type Tester interface {
	Helper()
	Fatal(...interface{})
	Fatalf(string, ...interface{})
}

// Nil fails the test unless value is nil or a nil pointer, map, slice,
// channel, function or interface.
func Nil(t Tester, value interface{}) {
	t.Helper()
	if value == nil {
		return
	}
	switch v := reflect.ValueOf(value); v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
		if v.IsNil() {
			return
		}
	}
	// %+v prints the stack trace of errors created by the errors package.
	t.Fatalf("want nil, got %+v", value)
}

// Equal fails the test unless both values are deeply equal.
func Equal(t Tester, want, got interface{}) {
	t.Helper()
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("values differ\nwant %T %+v\n got %T %+v", want, want, got, got)
	}
}

// Panics fails the test unless fn panics.
func Panics(t Tester, fn func()) {
	t.Helper()
	panicked := func() (ok bool) {
		defer func() { ok = recover() != nil }()
		fn()
		return false
	}()
	if !panicked {
		t.Fatal("panic expected")
	}
}

// IsErr fails the test unless got is want or has want as its root cause.
func IsErr(t Tester, want, got error) {
	t.Helper()
	if want == got {
		return
	}
	if w, ok := want.(interface{ Is(error) bool }); ok && w.Is(got) {
		return
	}
	t.Fatalf("want %q error, got %+v", want, got)
}

// Unchanged fails the test if any of the storage snapshots differ. Snapshots
// are compared position by position.
func Unchanged(t Tester, before, after [][]byte) {
	t.Helper()
	if len(before) != len(after) {
		t.Fatalf("want %d snapshots, got %d", len(before), len(after))
	}
	for i := range before {
		if !bytes.Equal(before[i], after[i]) {
			t.Fatalf("snapshot %d modified\nwant %x\n got %x", i, before[i], after[i])
		}
	}
}
