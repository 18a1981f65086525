package service

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/caliper-hq/caliper-api/internal/dto"
	"github.com/caliper-hq/caliper-api/internal/models"
	"github.com/caliper-hq/caliper-api/internal/observability"
	"github.com/caliper-hq/caliper-api/internal/repository"
)

var (
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the MIME type is not permitted.
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
	// ErrUploadScanFailed indicates validation of the file failed.
	ErrUploadScanFailed = errors.New("file scanning failed")
	// ErrUploadUnavailable indicates no object store is configured.
	ErrUploadUnavailable = errors.New("upload storage not configured")
)

// FileStore abstracts the blob store attachments land in.
type FileStore interface {
	Put(ctx context.Context, data []byte, key, contentType string) (string, error)
}

// UploadService validates candidate attachments (screenshots, workbooks,
// exports) and stores them with an audit record.
type UploadService interface {
	Upload(ctx context.Context, file *multipart.FileHeader) (dto.UploadResponse, error)
}

type uploadService struct {
	storage FileStore
	repo    repository.UploadRepository
	logger  zerolog.Logger
	maxSize int64
	tracer  trace.Tracer
}

// NewUploadService constructs an upload service. The store may be nil, in
// which case every upload fails with ErrUploadUnavailable.
func NewUploadService(storage FileStore, repo repository.UploadRepository, maxSizeMB int, logger zerolog.Logger) UploadService {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &uploadService{
		storage: storage,
		repo:    repo,
		logger:  logger.With().Str("component", "upload_service").Logger(),
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		tracer:  otel.Tracer("github.com/caliper-hq/caliper-api/internal/service/upload"),
	}
}

func (s *uploadService) Upload(ctx context.Context, file *multipart.FileHeader) (dto.UploadResponse, error) {
	ctx, span := s.tracer.Start(ctx, "upload.store")
	defer span.End()

	span.SetAttributes(attribute.Int64("upload.max_bytes", s.maxSize))
	if file != nil {
		span.SetAttributes(
			attribute.String("upload.original_name", strings.TrimSpace(file.Filename)),
			attribute.Int64("upload.request_size", file.Size),
		)
	} else {
		span.SetAttributes(attribute.Bool("upload.file_present", false))
	}

	start := time.Now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	if s.storage == nil {
		span.RecordError(ErrUploadUnavailable)
		span.SetStatus(codes.Error, "storage unavailable")
		return dto.UploadResponse{}, ErrUploadUnavailable
	}

	if file == nil {
		err := errors.New("file is required")
		span.RecordError(err)
		span.SetStatus(codes.Error, "missing file")
		return dto.UploadResponse{}, err
	}

	if file.Size > s.maxSize {
		observability.UploadRejected().WithLabelValues("size").Inc()
		span.RecordError(ErrUploadTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return dto.UploadResponse{}, ErrUploadTooLarge
	}

	payload, err := s.readBounded(file)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrUploadTooLarge) {
			observability.UploadRejected().WithLabelValues("size").Inc()
			span.SetStatus(codes.Error, "payload too large")
		} else {
			span.SetStatus(codes.Error, "read failed")
		}
		return dto.UploadResponse{}, err
	}

	detected := mimetype.Detect(payload)
	category := mimeCategory(detected.String())
	span.SetAttributes(attribute.String("upload.detected_mime", category))
	if !allowedCategories[category] {
		observability.UploadRejected().WithLabelValues("type").Inc()
		span.RecordError(ErrUploadTypeNotAllowed)
		span.SetStatus(codes.Error, "type not allowed")
		return dto.UploadResponse{}, ErrUploadTypeNotAllowed
	}

	if err := s.inspectArchive(payload, detected.String()); err != nil {
		observability.UploadRejected().WithLabelValues("scan").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "scan failed")
		return dto.UploadResponse{}, err
	}

	digest := sha256.Sum256(payload)
	safeName := safeFileName(file.Filename)
	objectKey := fmt.Sprintf("uploads/%s-%s", uuid.NewString()[:8], safeName)
	span.SetAttributes(
		attribute.String("upload.object_key", objectKey),
		attribute.Int64("upload.size_bytes", int64(len(payload))),
	)

	url, err := s.storage.Put(ctx, payload, objectKey, detected.String())
	if err != nil {
		observability.UploadRejected().WithLabelValues("storage").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		return dto.UploadResponse{}, err
	}

	record := models.UploadRecord{
		FileName:  safeName,
		ObjectKey: objectKey,
		URL:       url,
		MimeType:  category,
		SizeBytes: int64(len(payload)),
		Checksum:  hex.EncodeToString(digest[:]),
	}

	if err := s.repo.Create(ctx, &record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.UploadResponse{}, err
	}

	observability.UploadRequests().WithLabelValues(category).Inc()
	span.SetStatus(codes.Ok, "stored")

	return dto.UploadResponse{
		FileURL:   url,
		ObjectKey: record.ObjectKey,
		FileName:  record.FileName,
		MimeType:  record.MimeType,
		SizeBytes: record.SizeBytes,
		Checksum:  record.Checksum,
	}, nil
}

// readBounded buffers the whole upload, capped one byte past the limit so
// a multipart header that lied about the size still gets caught.
func (s *uploadService) readBounded(file *multipart.FileHeader) ([]byte, error) {
	handle, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer handle.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		return nil, err
	}
	if int64(buf.Len()) > s.maxSize {
		return nil, ErrUploadTooLarge
	}
	return buf.Bytes(), nil
}

// inspectArchive rejects zip containers that would not open or whose
// declared uncompressed size looks like a decompression bomb.
func (s *uploadService) inspectArchive(payload []byte, detected string) error {
	if !strings.Contains(detected, "zip") {
		return nil
	}

	reader, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return ErrUploadScanFailed
	}

	var declared uint64
	for _, entry := range reader.File {
		declared += entry.UncompressedSize64
		if declared > uint64(s.maxSize*20) {
			return fmt.Errorf("zip archive uncompressed size too large: %w", ErrUploadScanFailed)
		}
	}
	return nil
}

// allowedCategories is the attachment allow-list: screenshots, PDFs,
// archives and the spreadsheet formats candidates actually hand in.
var allowedCategories = map[string]bool{
	"image":           true,
	"application/pdf": true,
	"application/zip": true,
	"spreadsheet":     true,
	"text/csv":        true,
}

// mimeCategory collapses a detected MIME type to the label stored on the
// upload record. Image subtypes fold into one bucket; spreadsheet formats
// (xlsx, ods, legacy xls) fold into another.
func mimeCategory(detected string) string {
	lower := strings.ToLower(strings.TrimSpace(detected))
	// mimetype appends parameters such as "; charset=utf-8" to text types.
	if base, _, found := strings.Cut(lower, ";"); found {
		lower = strings.TrimSpace(base)
	}
	switch {
	case strings.HasPrefix(lower, "image/"):
		return "image"
	case strings.Contains(lower, "spreadsheetml"),
		lower == "application/vnd.ms-excel",
		lower == "application/vnd.oasis.opendocument.spreadsheet":
		return "spreadsheet"
	case lower == "application/x-zip-compressed":
		return "application/zip"
	default:
		return lower
	}
}

// safeFileName lowercases the base name, replaces anything outside
// [a-z0-9-_] with a dash and restores a lowercased extension. Names that
// sanitize to nothing fall back to a timestamped placeholder.
func safeFileName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".bin"
	}

	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name))) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}

	base := strings.Trim(b.String(), "-")
	if base == "" {
		base = fmt.Sprintf("upload-%d", time.Now().Unix())
	}
	return base + ext
}
