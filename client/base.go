package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/getsocialkit/socialkit/cache"
	"github.com/getsocialkit/socialkit/internal/fileutil"
	"github.com/getsocialkit/socialkit/logger"
)

// Observed per-call timeouts: uploads get a longer budget than plain
// API calls.
const (
	apiTimeout    = 30 * time.Second
	uploadTimeout = 35 * time.Second
)

// Base carries the plumbing every adapter shares: the correlation cache,
// the log sink, the scratch directory for downloads and the HTTP
// clients. Adapters embed it.
type Base struct {
	name    string
	Cache   cache.Cache
	Log     logger.Logger
	tempDir string

	HTTP       *http.Client
	UploadHTTP *http.Client
}

func NewBase(name string, store cache.Cache, log logger.Logger, tempDir string) *Base {
	return &Base{
		name:       name,
		Cache:      store,
		Log:        log,
		tempDir:    strings.TrimRight(tempDir, "/"),
		HTTP:       &http.Client{Timeout: apiTimeout},
		UploadHTTP: &http.Client{Timeout: uploadTimeout},
	}
}

// Platform is the adapter name, e.g. "Facebook".
func (b *Base) Platform() string { return b.name }

// WriteLog tags the entry with "{platform}/{operation}".
func (b *Base) WriteLog(level, msg, op string) {
	b.Log.WriteLog(level, msg, b.name+"/"+op)
}

// WithDownload fetches remote media into this platform's scratch
// subdirectory, runs fn on the local path and removes the file on both
// the success and the error path.
func (b *Base) WithDownload(fileURL string, fn func(localPath string) error) error {
	dir := fileutil.PlatformDir(b.tempDir, b.name)
	return fileutil.WithDownload(b.HTTP, fileURL, dir, fn)
}

// GetJSON performs an authorized GET and decodes the JSON body into out.
// Non-2xx responses come back as *APIError with the body preserved.
func (b *Base) GetJSON(ctx context.Context, rawURL, bearer string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return b.doJSON(b.HTTP, req, out)
}

// PostForm performs a form-encoded POST and decodes the JSON body.
func (b *Base) PostForm(ctx context.Context, rawURL, bearer string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return b.doJSON(b.HTTP, req, out)
}

// PostJSON performs a JSON POST and decodes the JSON body.
func (b *Base) PostJSON(ctx context.Context, rawURL, bearer string, payload, out any) error {
	return b.sendJSON(ctx, http.MethodPost, rawURL, bearer, payload, out)
}

// PatchJSON performs a JSON PATCH and decodes the JSON body.
func (b *Base) PatchJSON(ctx context.Context, rawURL, bearer string, payload, out any) error {
	return b.sendJSON(ctx, http.MethodPatch, rawURL, bearer, payload, out)
}

func (b *Base) sendJSON(ctx context.Context, method, rawURL, bearer string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return b.doJSON(b.HTTP, req, out)
}

// Do executes req with the given client (adapters with signed clients
// pass their own) and decodes the JSON body into out.
func (b *Base) Do(httpClient *http.Client, req *http.Request, out any) error {
	return b.doJSON(httpClient, req, out)
}

func (b *Base) doJSON(httpClient *http.Client, req *http.Request, out any) error {
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", b.name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return b.apiError(resp.StatusCode, body)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", b.name, err)
	}
	return nil
}

// UploadFile streams localPath as one part of a multipart POST, with
// fields as the accompanying form values. Uploads use the longer
// timeout budget.
func (b *Base) UploadFile(ctx context.Context, rawURL, fieldName, localPath string, fields map[string]string, out any) error {
	file, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return err
		}
	}
	part, err := writer.CreateFormFile(fieldName, filepath.Base(localPath))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return b.doJSON(b.UploadHTTP, req, out)
}

// SendFile sends localPath as the raw request body, for tus-style and
// direct binary upload endpoints.
func (b *Base) SendFile(ctx context.Context, method, rawURL, localPath, bearer string, headers map[string]string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer file.Close()

	req, err := http.NewRequestWithContext(ctx, method, rawURL, file)
	if err != nil {
		return err
	}
	if info, err := file.Stat(); err == nil {
		req.ContentLength = info.Size()
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	return b.doJSON(b.UploadHTTP, req, nil)
}

// apiError extracts the common vendor envelope shapes for status and
// sub-code; the raw body rides along for diagnostics.
func (b *Base) apiError(status int, body []byte) *APIError {
	apiErr := &APIError{Platform: b.name, Status: status, Body: string(body)}

	// "error" is an object on some platforms and a bare string on
	// others, so it is decoded in a second step.
	var envelope struct {
		Error            json.RawMessage `json:"error"`
		ErrorStr         string          `json:"error_description"`
		Message          string          `json:"message"`
		ErrorCode        int             `json:"error_code"`
		DeveloperMessage string          `json:"developer_message"`
	}
	if json.Unmarshal(body, &envelope) == nil {
		var nested struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		}
		var plain string
		switch {
		case json.Unmarshal(envelope.Error, &nested) == nil && nested.Message != "":
			apiErr.Msg = nested.Message
			apiErr.Code = nested.Code
		case envelope.DeveloperMessage != "":
			apiErr.Msg = envelope.DeveloperMessage
			apiErr.Code = envelope.ErrorCode
		case envelope.Message != "":
			apiErr.Msg = envelope.Message
			apiErr.Code = envelope.ErrorCode
		case envelope.ErrorStr != "":
			apiErr.Msg = envelope.ErrorStr
		case json.Unmarshal(envelope.Error, &plain) == nil && plain != "":
			apiErr.Msg = plain
			apiErr.Code = envelope.ErrorCode
		}
	}
	if apiErr.Msg == "" {
		apiErr.Msg = http.StatusText(status)
	}
	return apiErr
}
