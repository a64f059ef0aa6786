package llm

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorFromStatusCode(t *testing.T) {
	tests := []struct {
		status    int
		wantType  string
		retryable bool
	}{
		{400, "*llm.InvalidRequestError", false},
		{401, "*llm.AuthenticationError", false},
		{403, "*llm.AccessDeniedError", false},
		{404, "*llm.NotFoundError", false},
		{408, "*llm.RequestTimeoutError", true},
		{413, "*llm.ContextLengthError", false},
		{422, "*llm.InvalidRequestError", false},
		{429, "*llm.RateLimitError", true},
		{500, "*llm.ServerError", true},
		{502, "*llm.ServerError", true},
		{503, "*llm.ServerError", true},
		{504, "*llm.ServerError", true},
		{599, "*llm.ProviderError", true},
	}

	for _, tt := range tests {
		err := ErrorFromStatusCode(tt.status, "test message", "openai", nil)
		if err == nil {
			t.Errorf("status %d: expected error, got nil", tt.status)
			continue
		}
		if typeName := errTypeName(err); typeName != tt.wantType {
			t.Errorf("status %d: expected %s, got %s", tt.status, tt.wantType, typeName)
		}
		if got := IsRetryable(err); got != tt.retryable {
			t.Errorf("status %d: expected retryable=%v, got %v", tt.status, tt.retryable, got)
		}
	}
}

func errTypeName(err error) string {
	switch err.(type) {
	case *InvalidRequestError:
		return "*llm.InvalidRequestError"
	case *AuthenticationError:
		return "*llm.AuthenticationError"
	case *AccessDeniedError:
		return "*llm.AccessDeniedError"
	case *NotFoundError:
		return "*llm.NotFoundError"
	case *RequestTimeoutError:
		return "*llm.RequestTimeoutError"
	case *ContextLengthError:
		return "*llm.ContextLengthError"
	case *RateLimitError:
		return "*llm.RateLimitError"
	case *ServerError:
		return "*llm.ServerError"
	case *ProviderError:
		return "*llm.ProviderError"
	default:
		return "unknown"
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("nil error should not be retryable")
	}
	if IsRetryable(&ConfigurationError{ClientError: ClientError{Message: "no provider"}}) {
		t.Error("configuration errors should not be retryable")
	}
	if IsRetryable(&AbortError{ClientError: ClientError{Message: "cancelled"}}) {
		t.Error("abort errors should not be retryable")
	}
	if !IsRetryable(&NetworkError{ClientError: ClientError{Message: "connection refused"}}) {
		t.Error("network errors should be retryable")
	}
	if !IsRetryable(errors.New("mystery failure")) {
		t.Error("unknown errors should default to retryable")
	}
}

func TestClientErrorUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := &ClientError{Message: "wrapper", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if got := err.Error(); got != "wrapper: underlying" {
		t.Errorf("expected %q, got %q", "wrapper: underlying", got)
	}
}

func TestProviderErrorMessage(t *testing.T) {
	err := ErrorFromStatusCode(429, "too many requests", "anthropic", nil)
	msg := err.Error()
	if !strings.Contains(msg, "anthropic") {
		t.Errorf("expected provider in message, got %q", msg)
	}
	if !strings.Contains(msg, "429") {
		t.Errorf("expected status code in message, got %q", msg)
	}
}
