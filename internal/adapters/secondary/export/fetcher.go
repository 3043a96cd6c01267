package export

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/fredcamaral/slidecraft/internal/domain/ports"
)

const maxImageBytes = 15 << 20

// HTTPImageFetcher loads slide images over HTTP. data: URIs are decoded
// without a request.
type HTTPImageFetcher struct {
	client ports.HTTPClient
}

// NewHTTPImageFetcher creates a fetcher that sends requests through client.
func NewHTTPImageFetcher(client ports.HTTPClient) *HTTPImageFetcher {
	return &HTTPImageFetcher{client: client}
}

// Fetch returns the image bytes and their MIME type.
func (f *HTTPImageFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	if strings.HasPrefix(rawURL, "data:") {
		return decodeDataURI(rawURL)
	}

	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, "", fmt.Errorf("unsupported image url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("building image request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetching image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading image: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, "", fmt.Errorf("image larger than %d bytes", maxImageBytes)
	}

	mimeType := resp.Header.Get("Content-Type")
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}

// decodeDataURI decodes data:[<mime>][;base64],<payload>.
func decodeDataURI(uri string) ([]byte, string, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, "", fmt.Errorf("malformed data uri")
	}

	mimeType := "image/png"
	params := strings.Split(header, ";")
	if params[0] != "" {
		mimeType = params[0]
	}

	if params[len(params)-1] == "base64" {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", fmt.Errorf("decoding data uri: %w", err)
		}
		return data, mimeType, nil
	}

	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decoding data uri: %w", err)
	}
	return []byte(data), mimeType, nil
}

var _ ports.ImageFetcher = (*HTTPImageFetcher)(nil)
