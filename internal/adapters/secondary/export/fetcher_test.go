package export

import (
	"context"
	"encoding/base64"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDataURI(t *testing.T) {
	t.Run("base64", func(t *testing.T) {
		payload := base64.StdEncoding.EncodeToString([]byte("hello"))
		data, mime, err := decodeDataURI("data:image/jpeg;base64," + payload)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))
		assert.Equal(t, "image/jpeg", mime)
	})

	t.Run("percent encoded with default type", func(t *testing.T) {
		data, mime, err := decodeDataURI("data:,a%20b")
		require.NoError(t, err)
		assert.Equal(t, "a b", string(data))
		assert.Equal(t, "image/png", mime)
	})

	t.Run("malformed", func(t *testing.T) {
		_, _, err := decodeDataURI("data:image/png;base64")
		assert.Error(t, err)

		_, _, err = decodeDataURI("data:image/png;base64,!!!")
		assert.Error(t, err)
	})
}

func TestHTTPImageFetcher_Fetch(t *testing.T) {
	pngBytes := tinyPNG(t, 2, 2, color.Black)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/typed.png":
			w.Header().Set("Content-Type", "image/png; charset=binary")
			_, _ = w.Write(pngBytes)
		case "/untyped":
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write(pngBytes)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	fetcher := NewHTTPImageFetcher(server.Client())
	ctx := context.Background()

	data, mime, err := fetcher.Fetch(ctx, server.URL+"/typed.png")
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
	assert.Equal(t, "image/png", mime)

	_, mime, err = fetcher.Fetch(ctx, server.URL+"/untyped")
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime, "type is sniffed when the server does not name an image type")

	_, _, err = fetcher.Fetch(ctx, server.URL+"/missing")
	assert.ErrorContains(t, err, "status 404")

	_, _, err = fetcher.Fetch(ctx, "file:///etc/passwd")
	assert.ErrorContains(t, err, "unsupported image url")

	data, _, err = fetcher.Fetch(ctx, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(pngBytes))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
}
