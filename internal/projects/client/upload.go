package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"

	"github.com/designstudio/portfolio-backend/internal/media"
	"github.com/designstudio/portfolio-backend/internal/projects/domain"
)

type uploadResp struct {
	URL  string     `json:"url"`
	Kind media.Kind `json:"kind"`
}

// Store uploads a file to the API, making the client usable as the media
// store of an upload coordinator. Anything other than an authorization or
// media type rejection is reported as domain.ErrUploadFailed.
func (c *Client) Store(ctx context.Context, r io.Reader, size int64, mimeType, originalName string) (media.Ref, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(originalName)))
		if mimeType != "" {
			hdr.Set("Content-Type", mimeType)
		}
		part, err := mw.CreatePart(hdr)
		if err == nil {
			_, err = io.Copy(part, r)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/v1/uploads"), pr)
	if err != nil {
		pr.Close()
		return media.Ref{}, fmt.Errorf("%w: create request: %v", domain.ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.uploadClient.Do(req)
	if err != nil {
		pr.Close()
		return media.Ref{}, fmt.Errorf("%w: %w", domain.ErrUploadFailed, transportError(ctx, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return media.Ref{}, fmt.Errorf("%w: read response: %v", domain.ErrUploadFailed, err)
	}
	if resp.StatusCode >= 400 {
		err := statusError(resp.StatusCode, data)
		if errors.Is(err, domain.ErrUnauthorized) || errors.Is(err, domain.ErrUnsupportedMediaType) || errors.Is(err, domain.ErrUploadFailed) {
			return media.Ref{}, err
		}
		return media.Ref{}, fmt.Errorf("%w: %w", domain.ErrUploadFailed, err)
	}

	var out uploadResp
	if err := json.Unmarshal(data, &out); err != nil || out.URL == "" {
		return media.Ref{}, fmt.Errorf("%w: malformed upload response", domain.ErrUploadFailed)
	}
	return media.Ref{URL: out.URL, Kind: out.Kind}, nil
}
