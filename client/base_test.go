package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/getsocialkit/socialkit/cache"
	"github.com/getsocialkit/socialkit/logger"
)

func newTestBase(t *testing.T) *Base {
	t.Helper()
	return NewBase("Testplatform", cache.NewMemory(), logger.Nop{}, t.TempDir())
}

func TestGetJSONSendsBearer(t *testing.T) {
	base := newTestBase(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization: %q", got)
		}
		w.Write([]byte(`{"id":"42"}`))
	}))
	defer srv.Close()

	var out struct {
		ID string `json:"id"`
	}
	if err := base.GetJSON(context.Background(), srv.URL, "tok", &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out.ID != "42" {
		t.Fatalf("decoded %+v", out)
	}
}

func TestAPIErrorEnvelopes(t *testing.T) {
	base := newTestBase(t)

	cases := []struct {
		name     string
		status   int
		body     string
		wantMsg  string
		wantCode int
	}{
		{"nested object", 400, `{"error":{"message":"bad token","code":190}}`, "bad token", 190},
		{"developer message", 401, `{"developer_message":"expired","error_code":8003}`, "expired", 8003},
		{"flat message", 403, `{"message":"forbidden"}`, "forbidden", 0},
		{"oauth description", 400, `{"error":"invalid_grant","error_description":"code used"}`, "code used", 0},
		{"bare string error", 401, `{"error":"token revoked","error_code":8003}`, "token revoked", 8003},
		{"no envelope", 502, `<html>gateway</html>`, "Bad Gateway", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			err := base.GetJSON(context.Background(), srv.URL, "", nil)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("want APIError, got %v", err)
			}
			if apiErr.Msg != tc.wantMsg || apiErr.Code != tc.wantCode {
				t.Fatalf("got msg %q code %d", apiErr.Msg, apiErr.Code)
			}
			if apiErr.Status != tc.status || apiErr.Body != tc.body {
				t.Fatalf("status/body not preserved: %+v", apiErr)
			}
		})
	}
}

func TestAPIErrorUnauthorized(t *testing.T) {
	cases := []struct {
		err  APIError
		want bool
	}{
		{APIError{Status: 401}, true},
		{APIError{Status: 400, Code: 190}, true},
		{APIError{Status: 403, Code: 89}, true},
		{APIError{Status: 400, Code: 8003}, true},
		{APIError{Status: 400, Code: 100}, false},
		{APIError{Status: 500}, false},
	}
	for _, tc := range cases {
		if got := tc.err.Unauthorized(); got != tc.want {
			t.Errorf("Unauthorized() for status %d code %d: %v", tc.err.Status, tc.err.Code, got)
		}
	}
}

func TestUploadFile(t *testing.T) {
	base := newTestBase(t)

	localPath := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(localPath, []byte("frames"), 0o644); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("title"); got != "demo" {
			t.Errorf("field title: %q", got)
		}
		file, header, err := r.FormFile("video_file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "clip.mp4" {
			t.Errorf("filename: %q", header.Filename)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	err := base.UploadFile(context.Background(), srv.URL, "video_file", localPath, map[string]string{"title": "demo"}, &out)
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if !out.OK {
		t.Fatalf("decoded %+v", out)
	}
}

func TestSendFileSetsHeadersAndLength(t *testing.T) {
	base := newTestBase(t)

	localPath := filepath.Join(t.TempDir(), "thumb.jpg")
	if err := os.WriteFile(localPath, []byte("jpegdata"), 0o644); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method: %s", r.Method)
		}
		if r.ContentLength != int64(len("jpegdata")) {
			t.Errorf("content length: %d", r.ContentLength)
		}
		if got := r.Header.Get("Content-Type"); got != "image/jpeg" {
			t.Errorf("content type: %q", got)
		}
	}))
	defer srv.Close()

	err := base.SendFile(context.Background(), http.MethodPut, srv.URL, localPath, "tok", map[string]string{"Content-Type": "image/jpeg"})
	if err != nil {
		t.Fatalf("SendFile: %v", err)
	}
}
