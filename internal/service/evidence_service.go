package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/servicedesk/ticket-service/internal/domain"
	"github.com/servicedesk/ticket-service/internal/events"
	"github.com/servicedesk/ticket-service/internal/observability"
	"github.com/servicedesk/ticket-service/internal/repository"
	"github.com/servicedesk/ticket-service/internal/storage"
	"github.com/servicedesk/ticket-service/pkg/util"
)

const (
	defaultContentType = "application/octet-stream"
	sniffLength        = 3072
)

// EvidenceService stores files attached to tickets. Metadata lives in the
// store and bytes in the blob store.
type EvidenceService struct {
	store  repository.Store
	blobs  storage.BlobStore
	audit  ActivityWriter
	events publisher
	logger *zap.Logger
	clock  clock
}

// EvidenceDependencies bundles collaborators for the evidence service.
type EvidenceDependencies struct {
	Store      repository.Store
	Blobs      storage.BlobStore
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Now        func() time.Time
}

// NewEvidenceService constructs the service.
func NewEvidenceService(deps EvidenceDependencies) *EvidenceService {
	return &EvidenceService{
		store:  deps.Store,
		blobs:  deps.Blobs,
		events: publisher{dispatcher: deps.Dispatcher, metrics: deps.Metrics, logger: deps.Logger},
		logger: deps.Logger,
		clock:  deps.Now,
	}
}

// UploadFile is one file of a multi-file upload.
type UploadFile struct {
	FileName    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// UploadFailure names a file that could not be stored.
type UploadFailure struct {
	FileName string
	Reason   string
}

// UploadResult reports the outcome of each non-empty file.
type UploadResult struct {
	Uploaded []domain.TicketEvidence
	Failed   []UploadFailure
}

// Upload stores each non-empty file independently. A failed file does not
// undo the files stored before it.
func (s *EvidenceService) Upload(ctx context.Context, ticketID, actor string, files []UploadFile, comment *string) (*UploadResult, error) {
	if !validID(ticketID) {
		return nil, notFound("ticket", ticketID)
	}
	actor = domain.ResolveActor(actor)
	comment = util.CleanOptional(comment)
	if comment != nil && utf8.RuneCountInString(*comment) > domain.MaxEvidenceCommentLength {
		return nil, fieldError("comment", fieldTooLong(domain.MaxEvidenceCommentLength))
	}
	var nonEmpty []UploadFile
	for _, f := range files {
		if f.Size > 0 {
			nonEmpty = append(nonEmpty, f)
		}
	}
	if len(nonEmpty) == 0 {
		return nil, fieldError("files", "at least one non-empty file is required")
	}

	repos := s.store.Repos()
	if _, err := repos.Tickets().GetByID(ctx, ticketID, false); err != nil {
		return nil, storeError(err, "ticket")
	}
	order, err := repos.Evidence().CountByTicket(ctx, ticketID)
	if err != nil {
		return nil, storeError(err, "evidence")
	}

	result := &UploadResult{Uploaded: []domain.TicketEvidence{}}
	for _, f := range nonEmpty {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		order++
		ev, err := s.storeOne(ctx, ticketID, actor, f, comment, order)
		if err != nil {
			s.logger.Warn("evidence upload failed",
				zap.String("ticket_id", ticketID),
				zap.String("file_name", f.FileName),
				zap.Error(err))
			result.Failed = append(result.Failed, UploadFailure{FileName: f.FileName, Reason: util.ToDomainError(err).Message})
			continue
		}
		result.Uploaded = append(result.Uploaded, *ev)
	}
	if len(result.Uploaded) == 0 {
		return result, util.NewStorageError("no evidence file could be stored", nil)
	}
	return result, nil
}

func (s *EvidenceService) storeOne(ctx context.Context, ticketID, actor string, f UploadFile, comment *string, order int) (*domain.TicketEvidence, error) {
	name := safeFileName(f.FileName)
	evidenceID := uuid.New()
	key := blobKey(ticketID, evidenceID, name)

	rc, err := f.Open()
	if err != nil {
		return nil, util.NewStorageError("unable to read upload", err)
	}
	defer rc.Close()

	contentType := strings.TrimSpace(f.ContentType)
	var body io.Reader = rc
	if contentType == "" || contentType == defaultContentType {
		head := make([]byte, sniffLength)
		n, err := io.ReadFull(rc, head)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return nil, util.NewStorageError("unable to read upload", err)
		}
		contentType = mimetype.Detect(head[:n]).String()
		body = io.MultiReader(bytes.NewReader(head[:n]), rc)
	}

	size, err := s.blobs.Put(ctx, key, body)
	if err != nil {
		return nil, util.NewStorageError("unable to store evidence file", err)
	}

	ev := &domain.TicketEvidence{
		ID:          evidenceID.String(),
		TicketID:    ticketID,
		FileName:    name,
		ContentType: contentType,
		SizeBytes:   size,
		StoragePath: key,
		UploadedBy:  util.Truncate(actor, domain.MaxActorLength),
		Comment:     comment,
		SortOrder:   order,
	}
	var written []domain.TicketEvent
	err = s.store.WithTx(ctx, func(uow repository.UnitOfWork) error {
		t, err := uow.Tickets().GetByID(ctx, ticketID, false)
		if err != nil {
			return err
		}
		at := s.clock.after(t.UpdatedAt)
		ev.UploadedAt = at
		if err := uow.Evidence().Create(ctx, ev); err != nil {
			return err
		}
		written, err = s.audit.Record(ctx, uow, ticketID, actor, at, evidenceUploadedChange(ev, actor))
		if err != nil {
			return err
		}
		return uow.Tickets().Touch(ctx, ticketID, at)
	})
	if err != nil {
		if delErr := s.blobs.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.logger.Warn("orphaned evidence blob", zap.String("key", key), zap.Error(delErr))
		}
		return nil, storeError(err, "evidence")
	}
	s.events.publish(ctx, written)
	return ev, nil
}

// List returns a ticket's evidence, newest first. Evidence of deleted
// tickets stays listable.
func (s *EvidenceService) List(ctx context.Context, ticketID string) ([]domain.TicketEvidence, error) {
	if !validID(ticketID) {
		return nil, notFound("ticket", ticketID)
	}
	repos := s.store.Repos()
	if _, err := repos.Tickets().GetByID(ctx, ticketID, true); err != nil {
		return nil, storeError(err, "ticket")
	}
	items, err := repos.Evidence().ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, storeError(err, "evidence")
	}
	if items == nil {
		items = []domain.TicketEvidence{}
	}
	return items, nil
}

// Download opens the evidence bytes. A missing row and a missing blob are
// both reported as not found.
func (s *EvidenceService) Download(ctx context.Context, evidenceID string) (*domain.TicketEvidence, io.ReadCloser, error) {
	ev, err := s.get(ctx, evidenceID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Get(ctx, ev.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			return nil, nil, util.NewNotFound("evidence file", map[string]any{"id": evidenceID})
		}
		return nil, nil, util.NewStorageError("unable to read evidence file", err)
	}
	return ev, rc, nil
}

// Delete removes the blob and then the metadata row without auditing. A
// blob failure leaves the row in place.
func (s *EvidenceService) Delete(ctx context.Context, evidenceID string) error {
	ev, err := s.get(ctx, evidenceID)
	if err != nil {
		return err
	}
	if err := s.removeBlob(ctx, ev); err != nil {
		return err
	}
	if err := s.store.Repos().Evidence().Delete(ctx, ev.ID); err != nil {
		return storeError(err, "evidence")
	}
	return nil
}

// DeleteTraceable removes the evidence like Delete and records who removed
// it and why.
func (s *EvidenceService) DeleteTraceable(ctx context.Context, ticketID, evidenceID, actor, reason string) error {
	bad := problems{}
	actor = util.CleanText(actor)
	if actor == "" {
		bad.add("by", "by is required")
	}
	bad.check("by", actor, domain.MaxActorLength)
	reason = util.CleanText(reason)
	if reason == "" {
		bad.add("reason", "reason is required")
	}
	bad.check("reason", reason, domain.MaxDeleteReasonLength)
	if err := bad.err("invalid evidence delete request"); err != nil {
		return err
	}
	if !validID(ticketID) {
		return notFound("ticket", ticketID)
	}
	ev, err := s.get(ctx, evidenceID)
	if err != nil {
		return err
	}
	if ev.TicketID != ticketID {
		return notFound("evidence", evidenceID)
	}
	if err := s.removeBlob(ctx, ev); err != nil {
		return err
	}

	var written []domain.TicketEvent
	err = s.store.WithTx(ctx, func(uow repository.UnitOfWork) error {
		t, err := uow.Tickets().GetByID(ctx, ticketID, true)
		if err != nil {
			return err
		}
		at := s.clock.after(t.UpdatedAt)
		if err := uow.Evidence().Delete(ctx, ev.ID); err != nil {
			return err
		}
		written, err = s.audit.Record(ctx, uow, ticketID, actor, at, evidenceDeletedChange(ev, actor, reason))
		if err != nil {
			return err
		}
		return uow.Tickets().Touch(ctx, ticketID, at)
	})
	if err != nil {
		s.logger.Error("evidence metadata delete failed after blob removal",
			zap.String("evidence_id", ev.ID), zap.Error(err))
		return storeError(err, "evidence")
	}
	s.events.publish(ctx, written)
	return nil
}

// SweepReport summarises a reconciliation pass.
type SweepReport struct {
	RemovedBlobs     []string
	MissingBlobs     []string
	SkippedYoungBlob int
}

// Reconcile deletes blobs older than grace that no row references and
// reports rows whose blob is gone. Rows are never deleted.
func (s *EvidenceService) Reconcile(ctx context.Context, grace time.Duration) (*SweepReport, error) {
	report := &SweepReport{}
	repos := s.store.Repos()

	blobs, err := s.blobs.List(ctx)
	if err != nil {
		return nil, util.NewStorageError("unable to list evidence files", err)
	}
	cutoff := s.clock.now().Add(-grace)
	for _, b := range blobs {
		if b.ModifiedAt.After(cutoff) {
			report.SkippedYoungBlob++
			continue
		}
		referenced, err := repos.Evidence().ExistsByStoragePath(ctx, b.Key)
		if err != nil {
			return nil, storeError(err, "evidence")
		}
		if referenced {
			continue
		}
		if err := s.blobs.Delete(ctx, b.Key); err != nil {
			s.logger.Warn("unable to remove orphaned blob", zap.String("key", b.Key), zap.Error(err))
			continue
		}
		report.RemovedBlobs = append(report.RemovedBlobs, b.Key)
	}

	rows, err := repos.Evidence().ListAll(ctx)
	if err != nil {
		return nil, storeError(err, "evidence")
	}
	for _, row := range rows {
		ok, err := s.blobs.Exists(ctx, row.StoragePath)
		if err != nil {
			return nil, util.NewStorageError("unable to stat evidence file", err)
		}
		if !ok {
			s.logger.Warn("evidence row without blob needs manual reconciliation",
				zap.String("evidence_id", row.ID),
				zap.String("ticket_id", row.TicketID))
			report.MissingBlobs = append(report.MissingBlobs, row.ID)
		}
	}
	return report, nil
}

func (s *EvidenceService) get(ctx context.Context, evidenceID string) (*domain.TicketEvidence, error) {
	if !validID(evidenceID) {
		return nil, notFound("evidence", evidenceID)
	}
	ev, err := s.store.Repos().Evidence().GetByID(ctx, evidenceID)
	if err != nil {
		return nil, storeError(err, "evidence")
	}
	return ev, nil
}

func (s *EvidenceService) removeBlob(ctx context.Context, ev *domain.TicketEvidence) error {
	if err := s.blobs.Delete(ctx, ev.StoragePath); err != nil {
		s.logger.Error("evidence blob delete failed", zap.String("evidence_id", ev.ID), zap.Error(err))
		return util.NewStorageError("failed to delete evidence file", err)
	}
	return nil
}

// blobKey derives "{ticket}_{evidence}{ext}" with hyphen-free ids.
func blobKey(ticketID string, evidenceID uuid.UUID, fileName string) string {
	compact := strings.ReplaceAll(ticketID, "-", "")
	ext := strings.ToLower(filepath.Ext(fileName))
	if len(ext) > 16 || strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	return fmt.Sprintf("%s_%s%s", compact, strings.ReplaceAll(evidenceID.String(), "-", ""), ext)
}

func safeFileName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = util.CleanText(filepath.Base(name))
	if name == "" || name == "." || name == "/" {
		name = "file"
	}
	return util.Truncate(name, domain.MaxFileNameLength)
}
