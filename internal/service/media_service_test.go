package service

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ieltsprep/ielts-backend/internal/storage"
	"github.com/rs/zerolog"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func multipartFile(t *testing.T, name, contentType string, body []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(body)
	w.Close()

	req, _ := http.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	file, header, err := req.FormFile("file")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { file.Close() })
	return file, header
}

func TestSaveUpload(t *testing.T) {
	dir := t.TempDir()
	svc := NewMediaService(storage.NewLocalStore(dir), 1<<20, zerolog.Nop())
	ctx := context.Background()

	file, header := multipartFile(t, "map.png", "image/png", pngHeader)
	url, err := svc.SaveUpload(ctx, file, header)
	if err != nil {
		t.Fatalf("SaveUpload() error: %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/") || !strings.HasSuffix(url, ".png") {
		t.Errorf("url = %q", url)
	}
	stored, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/uploads/")))
	if err != nil || !bytes.Equal(stored, pngHeader) {
		t.Errorf("stored bytes = %q, %v", stored, err)
	}

	file, header = multipartFile(t, "part1.mp3", "audio/mp3", []byte("ID3\x03"))
	if url, err := svc.SaveUpload(ctx, file, header); err != nil || !strings.HasSuffix(url, ".mp3") {
		t.Errorf("audio upload = %q, %v", url, err)
	}
}

func TestSaveUploadRejects(t *testing.T) {
	svc := NewMediaService(storage.NewLocalStore(t.TempDir()), 8, zerolog.Nop())
	ctx := context.Background()

	tests := []struct {
		name        string
		contentType string
		body        []byte
		want        error
	}{
		{"script", "application/javascript", []byte("alert(1)"), ErrUnsupportedFileType},
		{"disguised image", "image/png", []byte("<html>"), ErrUnsupportedFileType},
		{"too large", "image/png", pngHeader, ErrFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, header := multipartFile(t, "f", tt.contentType, tt.body)
			if _, err := svc.SaveUpload(ctx, file, header); !errors.Is(err, tt.want) {
				t.Errorf("SaveUpload() error = %v, want %v", err, tt.want)
			}
		})
	}
}
