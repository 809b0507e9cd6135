package util

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type named string

func (n named) String() string { return string(n) }

func TestSafeOperation(t *testing.T) {
	boom := errors.New("boom")
	require.Equal(t, boom, SafeOperation(named("map#1"), func() error { return boom }))
	require.Nil(t, SafeOperation(named("map#1"), func() error { return nil }))

	err := SafeOperation(named("map#1"), func() error { panic(boom) })
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "map#1")

	err = SafeOperation(named("map#2"), func() error { panic("not an error") })
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "not an error")
}

func TestFormatMultiError(t *testing.T) {
	msg := FormatMultiError([]error{fmt.Errorf("a"), fmt.Errorf("b")})
	require.Equal(t, "a\nb\n", msg)
}

func TestGetTrace(t *testing.T) {
	trace := func() string { return GetTrace() }()
	require.Contains(t, trace, "TestGetTrace")
	require.NotContains(t, trace, "runtime.goexit")
}
