// Package require re-exports github.com/stretchr/testify/require under
// the import path the rest of this module's tests use, and adds a
// handful of helpers testify doesn't provide: capturing a panic as an
// error value, and asserting on syscall errno compatibility.
package require

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	Equal        = require.Equal
	EqualValues  = require.EqualValues
	NotEqual     = require.NotEqual
	NoError      = require.NoError
	Error        = require.Error
	ErrorIs      = require.ErrorIs
	ErrorAs      = require.ErrorAs
	EqualError   = require.EqualError
	True         = require.True
	False        = require.False
	Nil          = require.Nil
	NotNil       = require.NotNil
	NotSame      = require.NotSame
	Same         = require.Same
	Len          = require.Len
	Contains     = require.Contains
	NotContains  = require.NotContains
	Empty        = require.Empty
	NotEmpty     = require.NotEmpty
	NotZero      = require.NotZero
	Zero         = require.Zero
	Greater      = require.Greater
	Lessf        = require.Lessf
	Panics       = require.Panics
)

// CapturePanic runs fn and returns the recovered panic value as an
// error, or nil if fn didn't panic. A panic value that is already an
// error is returned as-is; anything else is wrapped with fmt.Errorf.
func CapturePanic(fn func()) (recovered error) {
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				recovered = err
			} else {
				recovered = fmt.Errorf("%v", r)
			}
		}
	}()
	fn()
	return
}

// PanicsWithErrorPrefix asserts that fn panics with an error whose
// message starts with prefix.
func PanicsWithErrorPrefix(t *testing.T, prefix string, fn func()) {
	t.Helper()
	err := CapturePanic(fn)
	if err == nil {
		t.Fatalf("expected panic with error prefix %q, but fn did not panic", prefix)
		return
	}
	msg := err.Error()
	if len(msg) < len(prefix) || msg[:len(prefix)] != prefix {
		t.Fatalf("expected panic error to start with %q, got %q", prefix, msg)
	}
}

// EqualErrno asserts that err wraps the given syscall.Errno.
func EqualErrno(t *testing.T, expected syscall.Errno, err error) {
	t.Helper()
	var actual syscall.Errno
	if !errors.As(err, &actual) {
		t.Fatalf("expected a syscall.Errno, but got %v (%T)", err, err)
		return
	}
	if actual != expected {
		t.Fatalf("expected errno %v, got %v", expected, actual)
	}
}
