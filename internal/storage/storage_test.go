package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ieltsprep/ielts-backend/internal/config"
)

func TestLocalStorePutAndDelete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	s := NewLocalStore(dir)
	ctx := context.Background()

	url, err := s.Put(ctx, "clip.mp3", strings.NewReader("ID3"), 3, "audio/mpeg")
	if err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if url != "/uploads/clip.mp3" {
		t.Errorf("Put() url = %q", url)
	}

	data, err := os.ReadFile(filepath.Join(dir, "clip.mp3"))
	if err != nil || string(data) != "ID3" {
		t.Fatalf("stored content = %q, %v", data, err)
	}

	if err := s.Delete(ctx, "clip.mp3"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if err := s.Delete(ctx, "clip.mp3"); err != nil {
		t.Errorf("second Delete() error: %v", err)
	}
}

func TestLocalStoreStripsDirectories(t *testing.T) {
	s := NewLocalStore(t.TempDir())
	if got := s.URL("../../etc/passwd"); got != "/uploads/passwd" {
		t.Errorf("URL() = %q", got)
	}
}

func TestMinioStoreURL(t *testing.T) {
	s := &MinioStore{opts: MinioOptions{Endpoint: "minio:9000", Bucket: "media"}}
	if got := s.URL("a.png"); got != "http://minio:9000/media/a.png" {
		t.Errorf("URL() = %q", got)
	}

	s.opts.PublicURL = "https://cdn.example.com/"
	if got := s.URL("a.png"); got != "https://cdn.example.com/a.png" {
		t.Errorf("URL() with public base = %q", got)
	}
}

func TestNewUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), &config.Config{StorageDriver: "ftp"})
	if err == nil {
		t.Fatal("New() with unknown driver should fail")
	}
}
