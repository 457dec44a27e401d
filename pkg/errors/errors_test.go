package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := &Error{Type: ErrorTypeTransfer, Op: "competition", Message: "download failed", Code: 503}
	assert.Equal(t, "competition transfer error: download failed (code 503)", err.Error())

	bare := New(ErrorTypeConfiguration, "", "kaggle.json not found")
	assert.Equal(t, "configuration error: kaggle.json not found", bare.Error())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("zip: not a valid zip file")
	err := Wrap(ErrorTypeExtraction, "dataset", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, ErrorTypeExtraction, TypeOf(err))
	assert.Nil(t, Wrap(ErrorTypeExtraction, "dataset", nil))
}

func TestHasTypeWalksChain(t *testing.T) {
	inner := FromStatus("download", 503, "server error")
	outer := Wrap(ErrorTypeTransfer, "competition", inner)
	wrapped := fmt.Errorf("context: %w", outer)

	assert.Equal(t, ErrorTypeTransfer, TypeOf(wrapped))
	assert.True(t, HasType(wrapped, ErrorTypeServerError))
	assert.True(t, HasType(wrapped, ErrorTypeTransfer))
	assert.False(t, HasType(wrapped, ErrorTypeExtraction))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(errors.New("plain")))
}

func TestFromStatus(t *testing.T) {
	tests := []struct {
		code int
		want ErrorType
	}{
		{401, ErrorTypeAuthentication},
		{403, ErrorTypeAuthentication},
		{404, ErrorTypeNotFound},
		{429, ErrorTypeRateLimit},
		{500, ErrorTypeServerError},
		{503, ErrorTypeServerError},
		{418, ErrorTypeUnknown},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d", tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, FromStatus("op", tt.code, "").Type)
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrorTypeNetwork))
	assert.True(t, IsRetryable(ErrorTypeRateLimit))
	assert.True(t, IsRetryable(ErrorTypeServerError))
	assert.False(t, IsRetryable(ErrorTypeAuthentication))
	assert.False(t, IsRetryable(ErrorTypeExtraction))

	assert.True(t, IsRetryableStatusCode(0))
	assert.True(t, IsRetryableStatusCode(429))
	assert.True(t, IsRetryableStatusCode(502))
	assert.False(t, IsRetryableStatusCode(404))
	assert.False(t, IsRetryableStatusCode(200))
}
