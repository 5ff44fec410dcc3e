package speech

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesize_Success(t *testing.T) {
	audio := []byte("ID3\x03fake-mpeg-frames")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/text-to-speech/"+DefaultVoiceID, r.URL.Path)
		assert.Equal(t, "el-key", r.Header.Get("xi-api-key"))

		var req synthesisRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Hola, ¿qué tal?", req.Text)
		assert.Equal(t, "eleven_multilingual_v2", req.ModelID)
		assert.Equal(t, 0.5, req.VoiceSettings.Stability)
		assert.Equal(t, 0.75, req.VoiceSettings.SimilarityBoost)

		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(audio)
	}))
	defer server.Close()

	c := NewClient("el-key", server.URL, "")
	rc, err := c.Synthesize(context.Background(), "Hola, ¿qué tal?")
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, audio, got)
}

func TestSynthesize_EmptyTextMakesNoUpstreamCall(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	c := NewClient("el-key", server.URL, "")
	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := c.Synthesize(context.Background(), text)
		assert.ErrorIs(t, err, ErrEmptyText)
	}
	assert.Zero(t, calls.Load())
}

func TestSynthesize_MissingCredential(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	c := NewClient("", server.URL, "")
	_, err := c.Synthesize(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Zero(t, calls.Load())
}

func TestSynthesize_UpstreamStatusPassedThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"invalid api key"}`))
	}))
	defer server.Close()

	c := NewClient("bad", server.URL, "voice-x")
	_, err := c.Synthesize(context.Background(), "hello")

	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusUnauthorized, upErr.StatusCode)
	assert.Contains(t, upErr.Body, "invalid api key")
}

func TestSynthesize_EmptySuccessBodyIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient("el-key", server.URL, "")
	rc, err := c.Synthesize(context.Background(), "hello")
	assert.Nil(t, rc)

	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusBadGateway, upErr.StatusCode)
}

func TestSynthesize_CustomVoice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/text-to-speech/voice-x", r.URL.Path)
		w.Write([]byte("a"))
	}))
	defer server.Close()

	c := NewClient("el-key", server.URL+"/", "voice-x")
	rc, err := c.Synthesize(context.Background(), "hi")
	require.NoError(t, err)
	rc.Close()
}
