package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidation(t *testing.T) {
	err := Validation("url", "url is required")

	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "url is required", err.Error())
	assert.Equal(t, "url", err.Field)
}

func TestNotFound(t *testing.T) {
	err := NotFound("pin", "abc-123")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "pin not found with id abc-123", err.Error())
}

func TestWrap_PreservesSentinelAndCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrRender, "failed to render page", cause)

	assert.True(t, errors.Is(err, ErrRender))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "failed to render page", err.Error())
}

func TestWrap_SurvivesFurtherWrapping(t *testing.T) {
	err := fmt.Errorf("pipeline: %w", Wrap(ErrEnrichment, "analysis failed", errors.New("timeout")))

	assert.True(t, errors.Is(err, ErrEnrichment))

	var appErr *AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "analysis failed", appErr.Message)
}

func TestSentinelsAreDistinct(t *testing.T) {
	err := Wrap(ErrFetch, "fetch failed", errors.New("dns"))

	assert.False(t, errors.Is(err, ErrRender))
	assert.False(t, errors.Is(err, ErrNotFound))
}
