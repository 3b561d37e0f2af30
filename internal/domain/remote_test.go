package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDuration(t *testing.T) {
	for _, v := range []string{"", "300s", "5m", "1h"} {
		assert.NoError(t, ValidateDuration("timeout", v), v)
	}
	for _, v := range []string{"300", "5 m", "1H", "m5", "-1s"} {
		err := ValidateDuration("timeout", v)
		require.Error(t, err, v)
		assert.True(t, IsValidation(err))
	}
}

func TestValidateMemory(t *testing.T) {
	for _, v := range []string{"", "512Mi", "2Gi"} {
		assert.NoError(t, ValidateMemory("memory", v), v)
	}
	for _, v := range []string{"512mb", "512", "2GB", "1.5Gi"} {
		require.Error(t, ValidateMemory("memory", v), v)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := ValidateDuration("timeout", "300")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--timeout")
	assert.Contains(t, err.Error(), "300s")
}

func TestRemoteDeployOptionsValidate(t *testing.T) {
	opts := &RemoteDeployOptions{Timeout: "5m", Memory: "512mb"}
	err := opts.Validate()
	var v *ValidationError
	require.True(t, errors.As(err, &v))
	assert.Equal(t, "memory", v.Flag)
}

func TestExitErrorUnwrap(t *testing.T) {
	err := &ExitError{Tool: "tsc", Code: 2, Kind: ErrCompileFailed}
	assert.ErrorIs(t, err, ErrCompileFailed)
	assert.Contains(t, err.Error(), "2")
}

func TestFirstProvider(t *testing.T) {
	cfg := &ProjectConfig{ProviderOrder: []string{"cloudrun", "local"}}
	assert.Equal(t, "cloudrun", cfg.FirstProvider())
	assert.Equal(t, "", (&ProjectConfig{}).FirstProvider())
}
