package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/TonyCasey/public-prep-sub002/internal/extract"
	"github.com/TonyCasey/public-prep-sub002/internal/models"
	pgrepo "github.com/TonyCasey/public-prep-sub002/internal/repositories/postgres"
	"github.com/TonyCasey/public-prep-sub002/internal/storage"
	"github.com/TonyCasey/public-prep-sub002/internal/utils"
)

// AnalysisQueue hands an uploaded document off to the background analysis
// workers.
type AnalysisQueue interface {
	Enqueue(ctx context.Context, documentID string) error
}

type UploadDocumentInput struct {
	Kind     models.DocumentKind
	FileName string
	Data     []byte
}

type DocumentService interface {
	// Upload validates, extracts text from and stores a CV or job spec,
	// replacing any previous document of the same kind, then enqueues it
	// for background analysis.
	Upload(ctx context.Context, ownerID string, in UploadDocumentInput) (*models.Document, error)
	Get(ctx context.Context, ownerID string, kind models.DocumentKind) (*models.Document, error)
	// DownloadURL returns a short-lived signed URL for the stored original.
	DownloadURL(ctx context.Context, ownerID string, kind models.DocumentKind) (string, error)
}

type documentService struct {
	documents pgrepo.DocumentRepository
	uploader  storage.Uploader
	signer    storage.Signer
	queue     AnalysisQueue
	maxBytes  int64
}

func NewDocumentService(
	documents pgrepo.DocumentRepository,
	uploader storage.Uploader,
	signer storage.Signer,
	queue AnalysisQueue,
	maxBytes int64,
) DocumentService {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &documentService{
		documents: documents,
		uploader:  uploader,
		signer:    signer,
		queue:     queue,
		maxBytes:  maxBytes,
	}
}

func (s *documentService) Upload(ctx context.Context, ownerID string, in UploadDocumentInput) (*models.Document, error) {
	const op = "DocumentService.Upload"

	if ownerID == "" || in.FileName == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "owner_id and file_name are required", nil)
	}
	if in.Kind != models.DocumentCV && in.Kind != models.DocumentJobSpec {
		return nil, utils.E(utils.CodeInvalidArgument, op, "kind must be cv or job_spec", nil)
	}
	if int64(len(in.Data)) > s.maxBytes {
		return nil, utils.E(utils.CodeInvalidArgument, op,
			fmt.Sprintf("file exceeds the %d byte limit", s.maxBytes), nil)
	}
	if len(in.Data) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "file is empty", nil)
	}

	text, err := extract.Text(in.Data, in.FileName)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedType) {
			return nil, utils.E(utils.CodeInvalidArgument, op, "only .pdf, .docx and .txt files are supported", err)
		}
		return nil, utils.E(utils.CodeInvalidArgument, op, "file could not be read", err)
	}
	if text == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "no text could be extracted from the file", nil)
	}

	ext := strings.ToLower(filepath.Ext(in.FileName))
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	objectName := fmt.Sprintf("documents/%s/%s/%s%s", ownerID, in.Kind, uuid.NewString(), ext)
	storedPath, err := s.uploader.Upload(ctx, objectName, contentType, bytes.NewReader(in.Data))
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store file", err)
	}

	doc := &models.Document{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		Kind:           in.Kind,
		FileName:       filepath.Base(in.FileName),
		FilePath:       storedPath,
		FileSize:       len(in.Data),
		MimeType:       contentType,
		RawText:        text,
		AnalysisStatus: models.AnalysisPending,
		UploadedAt:     time.Now().UTC(),
	}
	if err := s.documents.Replace(ctx, doc); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save document", err)
	}

	// Analysis runs out of band. A full queue or broker outage leaves the
	// document pending; the client sees analysis_status and may re-upload.
	if s.queue != nil {
		if err := s.queue.Enqueue(ctx, doc.ID); err != nil {
			_ = s.documents.SetAnalysisStatus(ctx, doc.ID, models.AnalysisFailed)
		}
	}

	return doc, nil
}

func (s *documentService) Get(ctx context.Context, ownerID string, kind models.DocumentKind) (*models.Document, error) {
	const op = "DocumentService.Get"

	doc, err := s.documents.LatestByOwnerAndKind(ctx, ownerID, kind)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "document not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load document", err)
	}
	return doc, nil
}

func (s *documentService) DownloadURL(ctx context.Context, ownerID string, kind models.DocumentKind) (string, error) {
	const op = "DocumentService.DownloadURL"

	doc, err := s.documents.LatestByOwnerAndKind(ctx, ownerID, kind)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return "", utils.E(utils.CodeNotFound, op, "document not found", err)
		}
		return "", utils.E(utils.CodeInternal, op, "failed to load document", err)
	}

	url, err := s.signer.SignedGetURL(ctx, doc.FilePath, 15*time.Minute)
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to sign download url", err)
	}
	return url, nil
}
