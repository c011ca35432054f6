package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
)

// uploadedFileHeader builds the *multipart.FileHeader the controller hands to
// Upload, the same way gin produces it from a submitted form.
func uploadedFileHeader(t *testing.T, filename, contentType, body string) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="%s"`, filename))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart() error = %v", err)
	}
	if _, err := part.Write([]byte(body)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("ParseMultipartForm() error = %v", err)
	}
	return req.MultipartForm.File["images"][0]
}

func uploaderEnv(t *testing.T, endpoint string) {
	t.Helper()
	t.Setenv("S3_BUCKET", "briddhi-media")
	t.Setenv("S3_REGION", "ap-south-1")
	t.Setenv("S3_ACCESS_KEY_ID", "test-key")
	t.Setenv("S3_SECRET_ACCESS_KEY", "test-secret")
	t.Setenv("S3_ENDPOINT", endpoint)
	t.Setenv("S3_PUBLIC_URL", "https://cdn.example.com")
}

func TestUploadPutsObjectAndReturnsPublicURL(t *testing.T) {
	var gotMethod, gotPath, gotContentType string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("ETag", `"0f343b0931126a20f133d67c2b018a3b"`)
	}))
	defer server.Close()

	uploaderEnv(t, server.URL)
	u, err := NewS3Uploader()
	if err != nil {
		t.Fatalf("NewS3Uploader() error = %v", err)
	}

	file := uploadedFileHeader(t, "Pothole PHOTO.JPG", "image/jpeg", "jpeg-bytes")
	url, err := u.Upload(context.Background(), file)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if gotMethod != http.MethodPut {
		t.Fatalf("expected PUT, got %s", gotMethod)
	}
	if !strings.HasPrefix(gotPath, "/briddhi-media/issues/") {
		t.Fatalf("expected path-style bucket key, got %q", gotPath)
	}
	if !strings.HasSuffix(gotPath, ".jpg") {
		t.Fatalf("expected lowercased extension in key, got %q", gotPath)
	}
	if gotContentType != "image/jpeg" {
		t.Fatalf("expected image/jpeg, got %q", gotContentType)
	}
	if string(gotBody) != "jpeg-bytes" {
		t.Fatalf("unexpected object body %q", gotBody)
	}

	key := strings.TrimPrefix(gotPath, "/briddhi-media/")
	if url != "https://cdn.example.com/"+key {
		t.Fatalf("expected public URL for key %q, got %q", key, url)
	}
}

func TestUploadDefaultsContentType(t *testing.T) {
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
	}))
	defer server.Close()

	uploaderEnv(t, server.URL)
	u, err := NewS3Uploader()
	if err != nil {
		t.Fatalf("NewS3Uploader() error = %v", err)
	}

	file := uploadedFileHeader(t, "snapshot", "", "raw-bytes")
	if _, err := u.Upload(context.Background(), file); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if gotContentType != "application/octet-stream" {
		t.Fatalf("expected default content type, got %q", gotContentType)
	}
}

func TestUploadErrorWhenStoreRejects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `<?xml version="1.0"?><Error><Code>AccessDenied</Code><Message>denied</Message></Error>`)
	}))
	defer server.Close()

	uploaderEnv(t, server.URL)
	u, err := NewS3Uploader()
	if err != nil {
		t.Fatalf("NewS3Uploader() error = %v", err)
	}

	file := uploadedFileHeader(t, "a.jpg", "image/jpeg", "jpeg-bytes")
	if _, err := u.Upload(context.Background(), file); err == nil {
		t.Fatal("expected error when the store rejects the object")
	}
}

func TestObjectKeyKeepsExtension(t *testing.T) {
	key := ObjectKey("Pothole PHOTO.JPG")
	if !strings.HasPrefix(key, "issues/") {
		t.Fatalf("expected issues/ prefix, got %q", key)
	}
	if !strings.HasSuffix(key, ".jpg") {
		t.Fatalf("expected lowercased extension, got %q", key)
	}
}

func TestObjectKeyIsUnique(t *testing.T) {
	a := ObjectKey("same.jpg")
	b := ObjectKey("same.jpg")
	if a == b {
		t.Fatal("expected distinct keys for identical file names")
	}
}

func TestObjectKeyNoExtension(t *testing.T) {
	key := ObjectKey("snapshot")
	if strings.Contains(strings.TrimPrefix(key, "issues/"), ".") {
		t.Fatalf("expected no extension, got %q", key)
	}
}
