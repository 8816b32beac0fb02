package assert

import (
	"testing"

	"github.com/iov-one/guardvault/errors"
)

func TestIsErr(t *testing.T) {
	cases := map[string]struct {
		ErrWant  error
		ErrGot   error
		WantFail bool
	}{
		"same error": {
			ErrWant:  errors.ErrEmpty,
			ErrGot:   errors.ErrEmpty,
			WantFail: false,
		},
		"compared to nil": {
			ErrWant:  nil,
			ErrGot:   errors.ErrEmpty,
			WantFail: true,
		},
		"both nil": {
			ErrWant:  nil,
			ErrGot:   nil,
			WantFail: false,
		},
		"wrapped": {
			ErrWant:  errors.ErrEmpty,
			ErrGot:   errors.Wrap(errors.ErrEmpty, "test"),
			WantFail: false,
		},
		"different root": {
			ErrWant:  errors.ErrEmpty,
			ErrGot:   errors.Wrap(errors.ErrState, "test"),
			WantFail: true,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			mock := &tmock{TB: t}
			IsErr(mock, tc.ErrWant, tc.ErrGot)
			failed := mock.failcalls > 0
			if tc.WantFail != failed {
				t.Fatalf("unlexpected failed call state: %d failures", mock.failcalls)
			}
		})
	}
}

func TestEqualAndNil(t *testing.T) {
	mock := &tmock{TB: t}
	Equal(mock, []int{1, 2}, []int{1, 2})
	Nil(mock, nil)
	var p *int
	Nil(mock, p)
	if mock.failcalls != 0 {
		t.Fatalf("unexpected failures: %d", mock.failcalls)
	}

	Equal(mock, 1, 2)
	Nil(mock, 42)
	Panics(mock, func() {})
	if mock.failcalls != 3 {
		t.Fatalf("want 3 failures, got %d", mock.failcalls)
	}
}

func TestUnchanged(t *testing.T) {
	cases := map[string]struct {
		before   [][]byte
		after    [][]byte
		wantFail bool
	}{
		"same":          {before: [][]byte{{1}, nil}, after: [][]byte{{1}, nil}},
		"modified":      {before: [][]byte{{1}, {2}}, after: [][]byte{{1}, {3}}, wantFail: true},
		"created":       {before: [][]byte{nil}, after: [][]byte{{0}}, wantFail: true},
		"length change": {before: [][]byte{{1}}, after: [][]byte{{1}, {1}}, wantFail: true},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			mock := &tmock{TB: t}
			Unchanged(mock, tc.before, tc.after)
			if failed := mock.failcalls > 0; failed != tc.wantFail {
				t.Fatalf("unexpected failed call state: %d failures", mock.failcalls)
			}
		})
	}
}

// tmock mocks testing.TB and only counts failure calls. It ignores all other
// input.
type tmock struct {
	testing.TB
	failcalls int
}

func (t *tmock) Error(args ...interface{}) {
	t.TB.Log(args...)
	t.failcalls++
}

func (t *tmock) Errorf(s string, args ...interface{}) {
	t.TB.Logf(s, args...)
	t.failcalls++
}

func (t *tmock) Fatal(args ...interface{}) {
	t.TB.Log(args...)
	t.failcalls++
}

func (t *tmock) Fatalf(s string, args ...interface{}) {
	t.TB.Logf(s, args...)
	t.failcalls++
}
