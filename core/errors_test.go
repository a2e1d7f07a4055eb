package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	err := Errorf(KindNotFound, "conversation %s not found", "c1")
	assert.True(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(err, KindStorage))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Contains(t, err.Error(), "conversation c1 not found")
}

func TestWrapErrPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapErr(KindStorage, cause, "persist collection")

	assert.True(t, IsKind(err, KindStorage))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "persist collection")
	assert.Contains(t, err.Error(), "disk full")
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := Errorf(KindPermissionDenied, "tool denied")
	outer := fmt.Errorf("executing tool: %w", inner)

	assert.True(t, IsKind(outer, KindPermissionDenied))
	assert.Equal(t, KindPermissionDenied, KindOf(outer))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.False(t, IsKind(nil, KindNotFound))
}

func TestKindString(t *testing.T) {
	require.Equal(t, "not_found", KindNotFound.String())
	require.Equal(t, "permission_denied", KindPermissionDenied.String())
	require.Equal(t, "validation_error", KindValidation.String())
	require.Equal(t, "provider_error", KindProvider.String())
	require.Equal(t, "storage_error", KindStorage.String())
}
