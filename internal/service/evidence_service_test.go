package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/servicedesk/ticket-service/internal/domain"
	"github.com/servicedesk/ticket-service/internal/storage"
	"github.com/servicedesk/ticket-service/pkg/util"
)

type evidenceFixture struct {
	*ticketFixture
	fs       afero.Fs
	evidence *EvidenceService
}

func newEvidenceFixture(t *testing.T, wrap func(storage.BlobStore) storage.BlobStore) *evidenceFixture {
	t.Helper()
	f := newTicketFixture(t, nil)
	fs := afero.NewMemMapFs()
	var blobs storage.BlobStore = storage.NewFSBlobStore(fs)
	if wrap != nil {
		blobs = wrap(blobs)
	}
	return &evidenceFixture{
		ticketFixture: f,
		fs:            fs,
		evidence:      f.evidenceService(blobs, func() time.Time { return fixedNow }),
	}
}

func (f *ticketFixture) evidenceService(blobs storage.BlobStore, now func() time.Time) *EvidenceService {
	return NewEvidenceService(EvidenceDependencies{
		Store:  f.store,
		Blobs:  blobs,
		Logger: zap.NewNop(),
		Now:    now,
	})
}

func textFile(name, contentType, body string) UploadFile {
	return UploadFile{
		FileName:    name,
		ContentType: contentType,
		Size:        int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

// flakyBlobs fails the Nth Put.
type flakyBlobs struct {
	storage.BlobStore
	mu     sync.Mutex
	calls  int
	failOn int
}

func (b *flakyBlobs) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	b.mu.Lock()
	b.calls++
	fail := b.calls == b.failOn
	b.mu.Unlock()
	if fail {
		return 0, errors.New("disk full")
	}
	return b.BlobStore.Put(ctx, key, r)
}

func TestUploadStoresFilesAndAudits(t *testing.T) {
	ctx := context.Background()
	f := newEvidenceFixture(t, nil)
	ticket := f.create(t, CreateTicketInput{})

	res, err := f.evidence.Upload(ctx, ticket.ID, "bob", []UploadFile{
		textFile("../../Photo.PNG", "image/png", "fake-png-bytes"),
		textFile("empty.txt", "text/plain", ""),
		textFile("notes.txt", "text/plain", "line one"),
	}, ptr("from the floor"))
	require.NoError(t, err)
	assert.Empty(t, res.Failed)
	require.Len(t, res.Uploaded, 2)

	photo := res.Uploaded[0]
	assert.Equal(t, "Photo.PNG", photo.FileName)
	assert.Equal(t, int64(len("fake-png-bytes")), photo.SizeBytes)
	assert.Equal(t, 1, photo.SortOrder)
	assert.Equal(t, 2, res.Uploaded[1].SortOrder)
	assert.True(t, strings.HasSuffix(photo.StoragePath, ".png"))
	assert.Equal(t, strings.ReplaceAll(ticket.ID, "-", "")+"_"+strings.ReplaceAll(photo.ID, "-", "")+".png", photo.StoragePath)

	evs := f.events(t, ticket.ID)
	require.Len(t, evs, 3)
	assert.Equal(t, domain.EventEvidenceUploaded, evs[0].Type)
	assert.Equal(t, "Uploaded: notes.txt | Comment: from the floor", evs[0].Message)
	assert.Len(t, f.activities(t, ticket.ID), 3)

	stored, err := f.tickets.Get(ctx, ticket.ID)
	require.NoError(t, err)
	assert.True(t, stored.UpdatedAt.After(ticket.UpdatedAt))

	listed, err := f.evidence.List(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	meta, rc, err := f.evidence.Download(ctx, photo.ID)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "fake-png-bytes", string(body))
	assert.Equal(t, "image/png", meta.ContentType)
}

func TestUploadRequiresNonEmptyFile(t *testing.T) {
	f := newEvidenceFixture(t, nil)
	ticket := f.create(t, CreateTicketInput{})

	_, err := f.evidence.Upload(context.Background(), ticket.ID, "bob", []UploadFile{textFile("a.txt", "text/plain", "")}, nil)
	assert.True(t, util.IsCode(err, "VALIDATION_FAILED"))
}

func TestUploadRejectsDeletedTicket(t *testing.T) {
	ctx := context.Background()
	f := newEvidenceFixture(t, nil)
	ticket := f.create(t, CreateTicketInput{})
	_, err := f.tickets.SoftDelete(ctx, ticket.ID, "admin", "spam")
	require.NoError(t, err)

	_, err = f.evidence.Upload(ctx, ticket.ID, "bob", []UploadFile{textFile("a.txt", "text/plain", "x")}, nil)
	assert.True(t, util.IsCode(err, "NOT_FOUND"))

	listed, err := f.evidence.List(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestUploadKeepsEarlierFilesWhenOneFails(t *testing.T) {
	ctx := context.Background()
	flaky := &flakyBlobs{failOn: 2}
	f := newEvidenceFixture(t, func(b storage.BlobStore) storage.BlobStore {
		flaky.BlobStore = b
		return flaky
	})
	ticket := f.create(t, CreateTicketInput{})

	res, err := f.evidence.Upload(ctx, ticket.ID, "bob", []UploadFile{
		textFile("one.txt", "text/plain", "1"),
		textFile("two.txt", "text/plain", "2"),
		textFile("three.txt", "text/plain", "3"),
	}, nil)
	require.NoError(t, err)
	require.Len(t, res.Uploaded, 2)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "two.txt", res.Failed[0].FileName)

	listed, err := f.evidence.List(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	keys, err := afero.ReadDir(f.fs, "/")
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestUploadAllFailingIsStorageError(t *testing.T) {
	flaky := &flakyBlobs{failOn: 1}
	f := newEvidenceFixture(t, func(b storage.BlobStore) storage.BlobStore {
		flaky.BlobStore = b
		return flaky
	})
	ticket := f.create(t, CreateTicketInput{})

	res, err := f.evidence.Upload(context.Background(), ticket.ID, "bob", []UploadFile{textFile("one.txt", "", "1")}, nil)
	assert.True(t, util.IsCode(err, "STORAGE_ERROR"))
	require.NotNil(t, res)
	assert.Len(t, res.Failed, 1)
	assert.Len(t, f.events(t, ticket.ID), 1)
}

func TestUploadSniffsMissingContentType(t *testing.T) {
	f := newEvidenceFixture(t, nil)
	ticket := f.create(t, CreateTicketInput{})
	pdf := "%PDF-1.7\n" + strings.Repeat("0", 5000)

	res, err := f.evidence.Upload(context.Background(), ticket.ID, "bob", []UploadFile{
		textFile("report", "application/octet-stream", pdf),
	}, nil)
	require.NoError(t, err)
	require.Len(t, res.Uploaded, 1)
	assert.Equal(t, "application/pdf", res.Uploaded[0].ContentType)
	assert.Equal(t, int64(len(pdf)), res.Uploaded[0].SizeBytes)
}

func TestDownloadMissingBlobIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newEvidenceFixture(t, nil)
	ticket := f.create(t, CreateTicketInput{})
	res, err := f.evidence.Upload(ctx, ticket.ID, "bob", []UploadFile{textFile("a.txt", "text/plain", "abc")}, nil)
	require.NoError(t, err)
	require.NoError(t, f.fs.Remove(res.Uploaded[0].StoragePath))

	_, _, err = f.evidence.Download(ctx, res.Uploaded[0].ID)
	assert.True(t, util.IsCode(err, "NOT_FOUND"))

	_, _, err = f.evidence.Download(ctx, "nope")
	assert.True(t, util.IsCode(err, "NOT_FOUND"))
}

func TestDeleteKeepsRowWhenBlobRemovalFails(t *testing.T) {
	ctx := context.Background()
	f := newEvidenceFixture(t, nil)
	ticket := f.create(t, CreateTicketInput{})
	res, err := f.evidence.Upload(ctx, ticket.ID, "bob", []UploadFile{textFile("a.txt", "text/plain", "abc")}, nil)
	require.NoError(t, err)
	id := res.Uploaded[0].ID

	readOnly := f.evidenceService(storage.NewFSBlobStore(afero.NewReadOnlyFs(f.fs)), func() time.Time { return fixedNow })
	err = readOnly.Delete(ctx, id)
	assert.True(t, util.IsCode(err, "STORAGE_ERROR"))
	err = readOnly.DeleteTraceable(ctx, ticket.ID, id, "admin", "wrong file")
	assert.True(t, util.IsCode(err, "STORAGE_ERROR"))

	listed, err := f.evidence.List(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	require.NoError(t, f.evidence.Delete(ctx, id))
	listed, err = f.evidence.List(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)
	exists, err := afero.Exists(f.fs, res.Uploaded[0].StoragePath)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDeleteTraceableAudits(t *testing.T) {
	ctx := context.Background()
	f := newEvidenceFixture(t, nil)
	ticket := f.create(t, CreateTicketInput{})
	other := f.create(t, CreateTicketInput{})
	res, err := f.evidence.Upload(ctx, ticket.ID, "bob", []UploadFile{textFile("a.txt", "text/plain", "abc")}, nil)
	require.NoError(t, err)
	ev := res.Uploaded[0]

	err = f.evidence.DeleteTraceable(ctx, ticket.ID, ev.ID, "admin", "")
	assert.True(t, util.IsCode(err, "VALIDATION_FAILED"))
	err = f.evidence.DeleteTraceable(ctx, other.ID, ev.ID, "admin", "wrong ticket")
	assert.True(t, util.IsCode(err, "NOT_FOUND"))

	require.NoError(t, f.evidence.DeleteTraceable(ctx, ticket.ID, ev.ID, "admin", "wrong file"))
	evs := f.events(t, ticket.ID)
	require.Len(t, evs, 3)
	assert.Equal(t, domain.EventEvidenceDeleted, evs[0].Type)
	assert.Equal(t, "Evidence "+ev.ID+" deleted. Reason: wrong file", evs[0].Message)
	assert.Equal(t, "admin", evs[0].By)

	err = f.evidence.DeleteTraceable(ctx, ticket.ID, ev.ID, "admin", "again")
	assert.True(t, util.IsCode(err, "NOT_FOUND"))
}

func TestReconcileRemovesOrphansAndReportsMissingBlobs(t *testing.T) {
	ctx := context.Background()
	f := newEvidenceFixture(t, nil)
	ticket := f.create(t, CreateTicketInput{})
	res, err := f.evidence.Upload(ctx, ticket.ID, "bob", []UploadFile{
		textFile("keep.txt", "text/plain", "keep"),
		textFile("lost.txt", "text/plain", "lost"),
	}, nil)
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(f.fs, "orphan.bin", []byte("x"), 0o600))
	require.NoError(t, f.fs.Remove(res.Uploaded[1].StoragePath))

	young := f.evidenceService(storage.NewFSBlobStore(f.fs), time.Now)
	report, err := young.Reconcile(ctx, time.Hour)
	require.NoError(t, err)
	assert.Empty(t, report.RemovedBlobs)
	assert.Equal(t, 2, report.SkippedYoungBlob)

	later := f.evidenceService(storage.NewFSBlobStore(f.fs), func() time.Time { return time.Now().Add(2 * time.Hour) })
	report, err = later.Reconcile(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"orphan.bin"}, report.RemovedBlobs)
	assert.Equal(t, []string{res.Uploaded[1].ID}, report.MissingBlobs)

	exists, err := afero.Exists(f.fs, res.Uploaded[0].StoragePath)
	require.NoError(t, err)
	assert.True(t, exists)
	listed, err := f.evidence.List(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestBlobKeyAndFileName(t *testing.T) {
	id := uuid.New()
	compact := strings.ReplaceAll(id.String(), "-", "")
	assert.Equal(t, "abc_"+compact+".jpeg", blobKey("a-b-c", id, "Shot.JPEG"))
	assert.Equal(t, "abc_"+compact, blobKey("a-b-c", id, "README"))
	assert.Equal(t, "evil.sh", safeFileName(`..\..\evil.sh`))
	assert.Equal(t, "file", safeFileName(""))
}
