package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/credit-ledger-api/internal/dto"
	"github.com/noah-isme/credit-ledger-api/internal/observability"
)

// ErrEvidenceTooLarge indicates the payload exceeded the configured limit.
var ErrEvidenceTooLarge = errors.New("evidence file exceeds maximum allowed size")

var allowedEvidenceTypes = []string{
	"application/pdf",
	"image/jpeg",
	"image/png",
	"image/webp",
	"text/plain",
	"application/zip",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// FileStorage abstracts the object store that keeps evidence files.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// EvidenceService validates proof documents and hands back an opaque reference for submissions.
type EvidenceService interface {
	Upload(ctx context.Context, actor Actor, file *multipart.FileHeader) (dto.EvidenceUploadResponse, error)
}

type evidenceService struct {
	storage FileStorage
	audit   AuditRecorder
	logger  zerolog.Logger
	maxSize int64
	tracer  trace.Tracer
}

// NewEvidenceService constructs the evidence upload port.
func NewEvidenceService(storage FileStorage, audit AuditRecorder, maxSizeMB int, logger zerolog.Logger) EvidenceService {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &evidenceService{
		storage: storage,
		audit:   audit,
		logger:  logger.With().Str("component", "evidence_service").Logger(),
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		tracer:  otel.Tracer("github.com/noah-isme/credit-ledger-api/internal/service/evidence"),
	}
}

func (s *evidenceService) Upload(ctx context.Context, actor Actor, file *multipart.FileHeader) (dto.EvidenceUploadResponse, error) {
	ctx, span := s.tracer.Start(ctx, "evidence.store")
	defer span.End()

	start := time.Now()
	defer func() {
		observability.EvidenceUploadLatency().Observe(time.Since(start).Seconds())
	}()

	if file == nil {
		err := validationErrorf("file is required")
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.EvidenceUploadResponse{}, err
	}
	span.SetAttributes(
		attribute.String("evidence.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("evidence.request_size", file.Size),
	)

	if file.Size > s.maxSize {
		return dto.EvidenceUploadResponse{}, s.reject(span, "size", ErrEvidenceTooLarge)
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return dto.EvidenceUploadResponse{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return dto.EvidenceUploadResponse{}, err
	}
	if int64(buf.Len()) > s.maxSize {
		return dto.EvidenceUploadResponse{}, s.reject(span, "size", ErrEvidenceTooLarge)
	}

	detected := mimetype.Detect(buf.Bytes())
	span.SetAttributes(attribute.String("evidence.detected_mime", detected.String()))
	if !isAllowedEvidence(detected) {
		return dto.EvidenceUploadResponse{}, s.reject(span, "type", ErrUnsupportedEvidence)
	}

	if err := s.scan(buf.Bytes(), detected); err != nil {
		return dto.EvidenceUploadResponse{}, s.reject(span, "scan", err)
	}

	name := sanitizeFileName(file.Filename, detected.Extension())
	reference, err := s.storage.Upload(ctx, name, bytes.NewReader(buf.Bytes()))
	if err != nil {
		observability.EvidenceUploads().WithLabelValues("storage_error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		return dto.EvidenceUploadResponse{}, err
	}

	observability.EvidenceUploads().WithLabelValues("stored").Inc()
	span.SetStatus(codes.Ok, "stored")
	s.logger.Info().Uint("practitioner_id", actor.ID).Str("name", name).Msg("evidence stored")

	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		Actor:      actor,
		Action:     "evidence.uploaded",
		EntityType: "evidence",
		Metadata: map[string]interface{}{
			"name":       name,
			"mime":       detected.String(),
			"size_bytes": buf.Len(),
		},
	})

	return dto.EvidenceUploadResponse{
		EvidenceReference: reference,
		EvidenceName:      name,
		ContentType:       detected.String(),
	}, nil
}

func (s *evidenceService) reject(span trace.Span, reason string, err error) error {
	observability.EvidenceUploads().WithLabelValues("rejected_" + reason).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	return err
}

func (s *evidenceService) scan(payload []byte, detected *mimetype.MIME) error {
	if !isZipContainer(detected) {
		return nil
	}

	reader, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return fmt.Errorf("%w: unreadable archive", ErrUnsupportedEvidence)
	}
	var totalUncompressed uint64
	for _, f := range reader.File {
		totalUncompressed += f.UncompressedSize64
		if totalUncompressed > uint64(s.maxSize*20) {
			return fmt.Errorf("%w: archive uncompressed size too large", ErrUnsupportedEvidence)
		}
	}
	return nil
}

// isZipContainer matches plain archives and zip-based formats such as DOCX.
func isZipContainer(detected *mimetype.MIME) bool {
	for mtype := detected; mtype != nil; mtype = mtype.Parent() {
		if mtype.Is("application/zip") {
			return true
		}
	}
	return false
}

func isAllowedEvidence(detected *mimetype.MIME) bool {
	for _, allowed := range allowedEvidenceTypes {
		if detected.Is(allowed) {
			return true
		}
	}
	return false
}

func sanitizeFileName(name, detectedExt string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = fmt.Sprintf("evidence-%d", time.Now().Unix())
	}

	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = detectedExt
	}
	if ext == "" {
		ext = ".bin"
	}
	return base + ext
}
