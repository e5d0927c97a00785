package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONClientRejectsRelativeURL(t *testing.T) {
	_, err := NewJSONClient("/just/a/path", nil)
	assert.Error(t, err)

	c, err := NewJSONClient("http://example.com/base/", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/base/tiles/s3y?x=1", c.URL("/tiles/s3y", url.Values{"x": {"1"}}))
}

func TestGetJSONDecodesBody(t *testing.T) {
	mock := NewMockDoer().Respond(http.StatusOK, `{"n": 3}`)
	c, err := NewJSONClient("http://example.com", mock)
	require.NoError(t, err)

	var out struct{ N int }
	require.NoError(t, c.GetJSON(context.Background(), "v1/count", nil, &out))
	assert.Equal(t, 3, out.N)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/v1/count", reqs[0].URL.Path)
	assert.Equal(t, "application/json", reqs[0].Header.Get("Accept"))
}

func TestGetJSONStatusError(t *testing.T) {
	mock := NewMockDoer().Respond(http.StatusServiceUnavailable, "busy\n")
	c, err := NewJSONClient("http://example.com", mock)
	require.NoError(t, err)

	var out map[string]interface{}
	err = c.GetJSON(context.Background(), "x", nil, &out)
	require.ErrorIs(t, err, ErrStatus)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.Status)
	assert.Equal(t, "busy", se.Body)
}

func TestGetJSONTransportAndDecodeErrors(t *testing.T) {
	boom := errors.New("connection refused")
	mock := NewMockDoer().Fail(boom).Respond(http.StatusOK, "not json")
	c, err := NewJSONClient("http://example.com", mock)
	require.NoError(t, err)

	var out map[string]interface{}
	assert.ErrorIs(t, c.GetJSON(context.Background(), "a", nil, &out), boom)
	assert.Error(t, c.GetJSON(context.Background(), "b", nil, &out))
	// Unscripted requests fall back to an empty object.
	assert.NoError(t, c.GetJSON(context.Background(), "c", nil, &out))
	assert.Len(t, mock.Requests(), 3)
}

func TestGetJSONAgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteJSONOK(w, map[string]string{"key": r.URL.Query().Get("key")})
	}))
	defer srv.Close()

	c, err := NewJSONClient(srv.URL, srv.Client())
	require.NoError(t, err)
	var out map[string]string
	require.NoError(t, c.GetJSON(context.Background(), "echo", url.Values{"key": {"img-1"}}, &out))
	assert.Equal(t, "img-1", out["key"])
}
