package connector

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/job-scanner/internal/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantType   types.ErrorType
		wantStatus int
	}{
		{
			name:       "429 maps to rate limited",
			err:        errors.New("HTTP 429: Too Many Requests"),
			wantType:   types.ErrorRateLimited,
			wantStatus: 429,
		},
		{
			name:       "403 maps to blocked",
			err:        errors.New("HTTP 403: Forbidden"),
			wantType:   types.ErrorBlocked,
			wantStatus: 403,
		},
		{
			name:       "401 maps to blocked",
			err:        errors.New("HTTP 401: Unauthorized"),
			wantType:   types.ErrorBlocked,
			wantStatus: 401,
		},
		{
			name:       "other status maps to http error with code",
			err:        errors.New("HTTP 500: Internal Server Error"),
			wantType:   types.ErrorHTTP,
			wantStatus: 500,
		},
		{
			name:       "404 maps to http error",
			err:        errors.New("HTTP 404: Not Found"),
			wantType:   types.ErrorHTTP,
			wantStatus: 404,
		},
		{
			name:       "rate limit phrasing without the HTTP prefix",
			err:        errors.New("provider said: too many requests, slow down"),
			wantType:   types.ErrorRateLimited,
			wantStatus: 429,
		},
		{
			name:       "port number in a dial error is not a status code",
			err:        errors.New(`dial tcp 127.0.0.1:44291: connect: connection refused`),
			wantType:   types.ErrorNetwork,
			wantStatus: 0,
		},
		{
			name:     "timeout",
			err:      errors.New("context deadline exceeded"),
			wantType: types.ErrorTimeout,
		},
		{
			name:     "timeout wins over parse wording",
			err:      errors.New("json decode timed out"),
			wantType: types.ErrorTimeout,
		},
		{
			name:     "parse failure",
			err:      errors.New("json unmarshal: unexpected end of JSON input"),
			wantType: types.ErrorParse,
		},
		{
			name:     "xml failure",
			err:      errors.New("xml unmarshal sitemap: syntax error"),
			wantType: types.ErrorParse,
		},
		{
			name:     "network failure",
			err:      errors.New("dial tcp: no such host"),
			wantType: types.ErrorNetwork,
		},
		{
			name:     "unknown fallback",
			err:      errors.New("something odd happened"),
			wantType: types.ErrorUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := Classify(tt.err)
			require.NotNil(t, fe)
			assert.Equal(t, tt.wantType, fe.Type)
			assert.Equal(t, tt.wantStatus, fe.HTTPStatus)
		})
	}
}

func TestClassifyNil(t *testing.T) {
	assert.Nil(t, Classify(nil))
}

func TestClassifyPassesThroughFetchError(t *testing.T) {
	fe := &FetchError{Type: types.ErrorParse, Message: "bad payload"}
	assert.Same(t, fe, Classify(fe))
}

func TestFetchErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	fe := &FetchError{Type: types.ErrorUnknown, Message: "wrapped", Cause: cause}
	assert.ErrorIs(t, fe, cause)
	assert.Contains(t, fe.Error(), "root cause")
}

func TestClassifyWrappedHTTPError(t *testing.T) {
	err := fmt.Errorf("page 2: %w", errors.New("HTTP 500: Internal Server Error"))
	fe := Classify(err)
	assert.Equal(t, types.ErrorHTTP, fe.Type)
	assert.Equal(t, 500, fe.HTTPStatus)
}
