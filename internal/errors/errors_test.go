package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	codes := []ErrorCode{
		CodeUnknown,
		CodeValidation,
		CodeConfiguration,
		CodeTimeout,
		CodeCanceled,
		CodeTargetInvalid,
		CodeResolution,
		CodeScanFailed,
		CodeFileNotFound,
		CodeFilePermission,
		CodeDirectoryCreate,
	}

	seen := make(map[ErrorCode]bool)
	for _, code := range codes {
		assert.NotEmpty(t, string(code))
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}

func TestScanError(t *testing.T) {
	t.Run("basic error creation", func(t *testing.T) {
		err := NewScanError(CodeScanFailed, "scan failed")
		assert.Equal(t, CodeScanFailed, err.Code)
		assert.Equal(t, "scan failed", err.Message)
		assert.NotNil(t, err.Context)
		assert.Equal(t, "[SCAN_FAILED] scan failed", err.Error())
	})

	t.Run("error with target", func(t *testing.T) {
		err := NewScanErrorWithTarget(CodeResolution, "lookup failed", "example.invalid")
		assert.Equal(t, "[RESOLUTION_FAILED] lookup failed (target: example.invalid)", err.Error())
	})

	t.Run("wrapped error", func(t *testing.T) {
		cause := fmt.Errorf("no such host")
		err := WrapScanErrorWithTarget(CodeResolution, "lookup failed", "nope", cause)
		assert.Equal(t, cause, err.Unwrap())
		assert.True(t, errors.Is(err, cause))
		assert.Contains(t, err.Error(), "no such host")
	})

	t.Run("with context", func(t *testing.T) {
		err := &ScanError{Code: CodeScanFailed, Message: "x"}
		err.WithContext("port", 80).WithContext("attempt", 1)
		assert.Equal(t, 80, err.Context["port"])
		assert.Equal(t, 1, err.Context["attempt"])
	})
}

func TestConfigError(t *testing.T) {
	t.Run("field error", func(t *testing.T) {
		err := NewConfigFieldError(CodeValidation, "start port out of range", "range.start", 0)
		assert.Equal(t, "[VALIDATION] start port out of range (field: range.start)", err.Error())
		assert.Equal(t, 0, err.Value)
	})

	t.Run("wrapped", func(t *testing.T) {
		cause := errors.New("yaml: line 3")
		err := WrapConfigError(CodeConfiguration, "failed to parse config", cause)
		assert.True(t, errors.Is(err, cause))
		assert.Equal(t, "[CONFIGURATION] failed to parse config: yaml: line 3", err.Error())
	})

	t.Run("helpers", func(t *testing.T) {
		assert.Equal(t, CodeConfiguration, ErrConfigMissing("scanning.timeout").Code)
	})
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, CodeUnknown},
		{"plain error", errors.New("boom"), CodeUnknown},
		{"scan error", NewScanError(CodeResolution, "x"), CodeResolution},
		{"config error", NewConfigError(CodeValidation, "x"), CodeValidation},
		{"wrapped scan error", fmt.Errorf("outer: %w", NewScanError(CodeCanceled, "x")), CodeCanceled},
		{"wrapped config error", fmt.Errorf("outer: %w", ErrConfigMissing("f")), CodeConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetCode(tt.err))
			if tt.err != nil {
				assert.True(t, IsCode(tt.err, tt.want))
			}
		})
	}

	assert.False(t, IsCode(nil, CodeUnknown))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(NewConfigError(CodeValidation, "x")))
	assert.True(t, IsFatal(NewConfigError(CodeConfiguration, "x")))
	assert.True(t, IsFatal(NewConfigFieldError(CodeTargetInvalid, "bad target", "target", "::::")))
	assert.False(t, IsFatal(ErrResolution("host", errors.New("timeout"))))
	assert.False(t, IsFatal(errors.New("plain")))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, ExitOK},
		{"validation", NewConfigFieldError(CodeValidation, "bad", "range", "5-1"), ExitConfig},
		{"wrapped validation", fmt.Errorf("scan: %w", NewConfigFieldError(CodeValidation, "bad timeout", "timeout", 0)), ExitConfig},
		{"resolution", ErrResolution("nope.invalid", errors.New("no such host")), ExitScanFailure},
		{"canceled", NewScanError(CodeCanceled, "interrupted"), ExitInterrupted},
		{"unknown", errors.New("boom"), ExitScanFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
