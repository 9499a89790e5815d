package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/substratelabs/hsi/internal/types"
)

func TestProviderErrorWrapsUnderlying(t *testing.T) {
	underlying := errors.New("segment missing")
	err := NewProviderError("direct children", underlying).WithNode(types.NodeID(42))

	assert.Equal(t, ErrorTypeProvider, err.Type)
	assert.Equal(t, types.NodeID(42), err.Node)
	assert.Contains(t, err.Error(), "direct children")
	assert.Contains(t, err.Error(), "node 42")
	assert.ErrorIs(t, err, underlying)
	assert.False(t, err.Timestamp.IsZero())
}

func TestProviderErrorAsTargetThroughWrapping(t *testing.T) {
	inner := NewProviderError("scan", errors.New("boom"))
	wrapped := error(inner)

	var perr *ProviderError
	require.ErrorAs(t, wrapped, &perr)
	assert.Equal(t, "scan", perr.Operation)
}

func TestScanErrorWithFile(t *testing.T) {
	err := NewScanError("parse", errors.New("bad syntax")).
		WithFile(types.FileID(7), "/src/Broken.java")

	assert.Equal(t, types.FileID(7), err.FileID)
	assert.Contains(t, err.Error(), "/src/Broken.java")
	assert.Contains(t, err.Error(), "bad syntax")
}

func TestConfigErrorMessage(t *testing.T) {
	err := NewConfigError("search.match_mode", "regex", errors.New("unknown mode"))
	assert.Contains(t, err.Error(), "search.match_mode")
	assert.Contains(t, err.Error(), "regex")
	assert.ErrorIs(t, err, err.Underlying)
}

func TestMultiErrorDropsNils(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")
	err := NewMultiError([]error{first, nil, second})

	assert.Len(t, err.Errors, 2)
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
}

func TestMultiErrorMessages(t *testing.T) {
	assert.Equal(t, "no errors", NewMultiError(nil).Error())

	single := NewMultiError([]error{errors.New("only one")})
	assert.Equal(t, "only one", single.Error())

	double := NewMultiError([]error{errors.New("a"), errors.New("b")})
	assert.Contains(t, double.Error(), "2 errors")
}
