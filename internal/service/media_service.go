package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/ieltsprep/ielts-backend/internal/storage"
	"github.com/rs/zerolog"
)

// Sentinel errors for media uploads.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
)

// Listening audio and diagram/map images.
var allowedMIMETypes = map[string]string{
	"audio/mpeg": ".mp3",
	"audio/mp4":  ".m4a",
	"audio/ogg":  ".ogg",
	"audio/wav":  ".wav",
	"audio/webm": ".weba",
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// MediaService validates uploads and writes them to blob storage.
type MediaService struct {
	store    storage.BlobStore
	maxBytes int64
	log      zerolog.Logger
}

// NewMediaService creates a new MediaService.
func NewMediaService(store storage.BlobStore, maxBytes int64, log zerolog.Logger) *MediaService {
	return &MediaService{
		store:    store,
		maxBytes: maxBytes,
		log:      log.With().Str("component", "media_service").Logger(),
	}
}

// SaveUpload stores an uploaded file under a UUID name and returns its URL.
// The declared Content-Type must match the sniffed one for images.
func (s *MediaService) SaveUpload(ctx context.Context, file multipart.File, header *multipart.FileHeader) (string, error) {
	contentType := normalizeMIME(header.Header.Get("Content-Type"))
	ext, ok := allowedMIMETypes[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s (allowed: %s)",
			ErrUnsupportedFileType, contentType, strings.Join(allowedTypes(), ", "))
	}

	if header.Size > s.maxBytes {
		return "", fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, header.Size, s.maxBytes)
	}

	if strings.HasPrefix(contentType, "image/") {
		head := make([]byte, 512)
		n, err := io.ReadFull(file, head)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read file: %w", err)
		}
		if sniffed := normalizeMIME(http.DetectContentType(head[:n])); sniffed != contentType {
			return "", fmt.Errorf("%w: declared %s, content is %s", ErrUnsupportedFileType, contentType, sniffed)
		}
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return "", fmt.Errorf("rewind file: %w", err)
		}
	}

	name := uuid.New().String() + ext
	url, err := s.store.Put(ctx, name, io.LimitReader(file, s.maxBytes), header.Size, contentType)
	if err != nil {
		return "", fmt.Errorf("store file: %w", err)
	}

	s.log.Info().Str("name", name).Str("content_type", contentType).Int64("size", header.Size).Msg("Media uploaded")
	return url, nil
}

func normalizeMIME(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	ct = strings.ToLower(strings.TrimSpace(ct))
	switch ct {
	case "audio/mp3":
		return "audio/mpeg"
	case "audio/x-wav", "audio/wave":
		return "audio/wav"
	}
	return ct
}

func allowedTypes() []string {
	types := make([]string, 0, len(allowedMIMETypes))
	for t := range allowedMIMETypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
