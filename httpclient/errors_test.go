package httpclient

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		code int
		want Kind
	}{
		{404, KindNotFound},
		{400, KindClient},
		{429, KindClient},
		{500, KindServer},
		{503, KindServer},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, kindForStatus(tt.code))
		})
	}
}

func TestKindRetryable(t *testing.T) {
	assert.True(t, KindTimeout.Retryable())
	assert.True(t, KindServer.Retryable())
	assert.False(t, KindNotFound.Retryable())
	assert.False(t, KindClient.Retryable())
	assert.False(t, KindCancelled.Retryable())
	assert.False(t, KindOffline.Retryable())
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("loading page: %w", &Error{Kind: KindNotFound, URL: "u", StatusCode: 404})

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, KindCancelled, KindOf(context.Canceled))
	assert.True(t, IsCancelled(fmt.Errorf("x: %w", context.Canceled)))
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.True(t, IsOffline(&Error{Kind: KindOffline}))
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Kind: KindServer, URL: "http://x/pokemon/1", StatusCode: 502}
	assert.Equal(t, "request http://x/pokemon/1 failed: server_error: status 502", err.Error())

	err = &Error{Kind: KindOffline, URL: "http://x"}
	assert.Equal(t, "request http://x failed: offline", err.Error())

	inner := errors.New("dial tcp: refused")
	err = &Error{Kind: KindOffline, URL: "http://x", Err: inner}
	assert.ErrorIs(t, err, inner)
}
