package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizforge/quizforge-core/internal/core/domain"
	"github.com/quizforge/quizforge-core/internal/core/ports/driven"
	"github.com/quizforge/quizforge-core/internal/core/ports/driven/mocks"
	"github.com/quizforge/quizforge-core/internal/parsers"
)

type fileTestEnv struct {
	files    *mocks.MockFileStore
	contents *mocks.MockParsedContentStore
	cache    *mocks.MockContentCache
	selector *parsers.Selector
	svc      *fileService
}

func newFileTestEnv(t *testing.T) *fileTestEnv {
	t.Helper()
	env := &fileTestEnv{
		files:    mocks.NewMockFileStore(),
		contents: mocks.NewMockParsedContentStore(),
		cache:    mocks.NewMockContentCache(),
		selector: parsers.DefaultSelector(nil, nil),
	}
	env.svc = NewFileService(FileServiceConfig{
		FileStore:      env.files,
		ContentStore:   env.contents,
		Cache:          env.cache,
		Selector:       env.selector,
		MaxUploadBytes: 1024,
		ParseTimeout:   time.Second,
	}).(*fileService)
	return env
}

var (
	ownerAuth  = &domain.AuthContext{UserID: "user-1", Role: domain.RoleMember}
	otherAuth  = &domain.AuthContext{UserID: "user-2", Role: domain.RoleMember}
	adminAuth  = &domain.AuthContext{UserID: "admin-1", Role: domain.RoleAdmin}
	viewerAuth = &domain.AuthContext{UserID: "viewer-1", Role: domain.RoleViewer}
)

func uploadText(t *testing.T, env *fileTestEnv, auth *domain.AuthContext, name, body string) *domain.UploadResult {
	t.Helper()
	res, err := env.svc.Upload(context.Background(), auth, domain.UploadRequest{
		Filename: name,
		MimeType: "text/plain",
		Data:     []byte(body),
	})
	require.NoError(t, err)
	return res
}

func TestFileService_Upload_ParsesAndCaches(t *testing.T) {
	env := newFileTestEnv(t)

	res := uploadText(t, env, ownerAuth, "notes.txt", "INTRODUCTION\nSome body text.\nMETHODS\nMore text.")

	require.NotNil(t, res.Parsed)
	assert.Equal(t, domain.ParseStatusParsed, res.File.ParseStatus)
	assert.Equal(t, domain.FormatText, res.File.Format)
	assert.Equal(t, "user-1", res.File.OwnerID)
	assert.NotEmpty(t, res.File.Checksum)
	assert.Nil(t, res.File.Data)
	assert.Len(t, res.Parsed.Sections, 2)

	stored, err := env.files.Get(context.Background(), res.File.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ParseStatusParsed, stored.ParseStatus)

	assert.True(t, env.cache.Has(res.File.ID))
	_, err = env.contents.GetByFile(context.Background(), res.File.ID)
	assert.NoError(t, err)
}

func TestFileService_Upload_Validation(t *testing.T) {
	env := newFileTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Upload(ctx, ownerAuth, domain.UploadRequest{Filename: "a.txt"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = env.svc.Upload(ctx, ownerAuth, domain.UploadRequest{Data: []byte("x")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	big := make([]byte, 2048)
	_, err = env.svc.Upload(ctx, ownerAuth, domain.UploadRequest{Filename: "big.txt", Data: big})
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)

	_, err = env.svc.Upload(ctx, viewerAuth, domain.UploadRequest{Filename: "a.txt", Data: []byte("x")})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = env.svc.Upload(ctx, nil, domain.UploadRequest{Filename: "a.txt", Data: []byte("x")})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestFileService_Upload_Unsupported(t *testing.T) {
	env := newFileTestEnv(t)

	res, err := env.svc.Upload(context.Background(), ownerAuth, domain.UploadRequest{
		Filename: "photo.png",
		MimeType: "image/png",
		Data:     []byte{0x89, 'P', 'N', 'G'},
	})
	require.NoError(t, err)
	assert.Nil(t, res.Parsed)
	assert.Equal(t, domain.ParseStatusUnsupported, res.File.ParseStatus)
	assert.False(t, env.cache.Has(res.File.ID))
}

func TestFileService_Upload_ParseFailureKeepsFile(t *testing.T) {
	env := newFileTestEnv(t)

	res, err := env.svc.Upload(context.Background(), ownerAuth, domain.UploadRequest{
		Filename: "broken.xml",
		MimeType: "application/xml",
		Data:     []byte("<root><a></b></root>"),
	})
	require.NoError(t, err)
	assert.Nil(t, res.Parsed)
	assert.Equal(t, domain.ParseStatusFailed, res.File.ParseStatus)
	assert.Contains(t, res.File.ParseError, "structural parse error")

	stored, err := env.files.Get(context.Background(), res.File.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ParseStatusFailed, stored.ParseStatus)
	assert.Equal(t, domain.FormatXML, stored.Format)
}

// slowParser blocks until released, or panics when asked to.
type slowParser struct {
	release chan struct{}
	panics  bool
}

var _ driven.Parser = (*slowParser)(nil)

func (p *slowParser) Parse(in domain.ParseInput) (*domain.ParserResult, error) {
	if p.panics {
		panic("boom")
	}
	<-p.release
	return &domain.ParserResult{Content: "late", Sections: []domain.Section{{Title: "Content", Content: "late", Level: 1}}}, nil
}

func (p *slowParser) FullText(in domain.ParseInput) (string, error) {
	res, err := p.Parse(in)
	if err != nil {
		return "", err
	}
	return res.Content, nil
}

func (p *slowParser) Sections(in domain.ParseInput) ([]domain.Section, error) {
	res, err := p.Parse(in)
	if err != nil {
		return nil, err
	}
	return res.Sections, nil
}

func (p *slowParser) Format() domain.Format { return domain.FormatText }

func TestFileService_Upload_ParseTimeout(t *testing.T) {
	env := newFileTestEnv(t)
	slow := &slowParser{release: make(chan struct{})}
	defer close(slow.release)
	env.selector.Register(slow)
	env.svc.parseTimeout = 20 * time.Millisecond

	res := uploadText(t, env, ownerAuth, "slow.txt", "anything")

	assert.Nil(t, res.Parsed)
	assert.Equal(t, domain.ParseStatusFailed, res.File.ParseStatus)
	assert.Contains(t, res.File.ParseError, "parse timeout")
}

func TestRunWithTimeout_Panic(t *testing.T) {
	_, err := runWithTimeout(context.Background(), time.Second, domain.FormatText, func() (string, error) {
		return (&slowParser{panics: true}).FullText(domain.ParseInput{})
	})

	assert.ErrorIs(t, err, domain.ErrStructuralParse)
	kind, ok := domain.ParseErrorKind(err)
	assert.True(t, ok)
	assert.Equal(t, domain.ErrStructuralParse, kind)
}

func TestFileService_Ownership(t *testing.T) {
	env := newFileTestEnv(t)
	ctx := context.Background()
	res := uploadText(t, env, ownerAuth, "mine.txt", "hello")
	id := res.File.ID

	_, err := env.svc.Get(ctx, otherAuth, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = env.svc.Download(ctx, otherAuth, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = env.svc.GetParsed(ctx, otherAuth, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, env.svc.Delete(ctx, otherAuth, id), domain.ErrNotFound)

	file, err := env.svc.Get(ctx, adminAuth, id)
	require.NoError(t, err)
	assert.Equal(t, "mine.txt", file.Filename)
}

func TestFileService_List(t *testing.T) {
	env := newFileTestEnv(t)
	ctx := context.Background()
	uploadText(t, env, ownerAuth, "a.txt", "a")
	uploadText(t, env, ownerAuth, "b.txt", "b")
	uploadText(t, env, otherAuth, "c.txt", "c")

	files, total, err := env.svc.List(ctx, ownerAuth, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, files, 2)

	files, total, err = env.svc.List(ctx, adminAuth, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, files, 1)

	_, _, err = env.svc.List(ctx, nil, 10, 0)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestFileService_Download(t *testing.T) {
	env := newFileTestEnv(t)
	res := uploadText(t, env, ownerAuth, "dl.txt", "raw bytes")

	file, err := env.svc.Download(context.Background(), ownerAuth, res.File.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("raw bytes"), file.Data)

	stored, err := env.files.Get(context.Background(), res.File.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastAccessedAt)
}

func TestFileService_GetParsed_CacheThenStore(t *testing.T) {
	env := newFileTestEnv(t)
	ctx := context.Background()
	res := uploadText(t, env, ownerAuth, "c.txt", "cached content")
	id := res.File.ID

	content, err := env.svc.GetParsed(ctx, ownerAuth, id)
	require.NoError(t, err)
	assert.Equal(t, "cached content", content.Content)
	assert.Equal(t, 1, env.cache.Hits)

	require.NoError(t, env.cache.Delete(ctx, id))
	content, err = env.svc.GetParsed(ctx, ownerAuth, id)
	require.NoError(t, err)
	assert.Equal(t, "cached content", content.Content)
	assert.Equal(t, 1, env.cache.Misses)
	assert.True(t, env.cache.Has(id), "store read should refill the cache")
}

func TestFileService_GetParsed_NoCache(t *testing.T) {
	env := newFileTestEnv(t)
	env.svc.cache = nil
	res := uploadText(t, env, ownerAuth, "n.txt", "no cache")

	content, err := env.svc.GetParsed(context.Background(), ownerAuth, res.File.ID)
	require.NoError(t, err)
	assert.Equal(t, "no cache", content.Content)
}

func TestFileService_Preview(t *testing.T) {
	env := newFileTestEnv(t)
	res, err := env.svc.Upload(context.Background(), ownerAuth, domain.UploadRequest{
		Filename: "data.json",
		MimeType: "application/json",
		Data:     []byte(`{"name": "Ada"}`),
	})
	require.NoError(t, err)

	preview, err := env.svc.Preview(context.Background(), ownerAuth, res.File.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FormatJSON, preview.Format)
	assert.Contains(t, preview.Content, "Ada")
}

func TestFileService_Preview_Unsupported(t *testing.T) {
	env := newFileTestEnv(t)
	res, err := env.svc.Upload(context.Background(), ownerAuth, domain.UploadRequest{
		Filename: "image.png",
		MimeType: "image/png",
		Data:     []byte{1, 2, 3},
	})
	require.NoError(t, err)

	_, err = env.svc.Preview(context.Background(), ownerAuth, res.File.ID)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestFileService_Reparse(t *testing.T) {
	env := newFileTestEnv(t)
	ctx := context.Background()
	res, err := env.svc.Upload(ctx, ownerAuth, domain.UploadRequest{
		Filename: "doc.pdf",
		MimeType: "application/pdf",
		Data:     []byte("not a pdf"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ParseStatusFailed, res.File.ParseStatus)

	require.NoError(t, env.files.Save(ctx, &domain.File{
		ID:          res.File.ID,
		OwnerID:     ownerAuth.UserID,
		Filename:    "doc.txt",
		ContentType: "text/plain",
		Data:        []byte("now text"),
		UploadedAt:  res.File.UploadedAt,
	}))

	again, err := env.svc.Reparse(ctx, ownerAuth, res.File.ID)
	require.NoError(t, err)
	require.NotNil(t, again.Parsed)
	assert.Equal(t, domain.ParseStatusParsed, again.File.ParseStatus)
	assert.Empty(t, again.File.ParseError)
	assert.Equal(t, "now text", again.Parsed.Content)

	_, err = env.svc.Reparse(ctx, otherAuth, res.File.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFileService_Reparse_FailureDropsStaleContent(t *testing.T) {
	env := newFileTestEnv(t)
	ctx := context.Background()
	res := uploadText(t, env, ownerAuth, "notes.txt", "first version")
	require.True(t, env.cache.Has(res.File.ID))

	require.NoError(t, env.files.Save(ctx, &domain.File{
		ID:          res.File.ID,
		OwnerID:     ownerAuth.UserID,
		Filename:    "notes.xml",
		ContentType: "application/xml",
		Data:        []byte("<root><a></b></root>"),
		UploadedAt:  res.File.UploadedAt,
	}))

	again, err := env.svc.Reparse(ctx, ownerAuth, res.File.ID)
	require.NoError(t, err)
	assert.Nil(t, again.Parsed)
	assert.Equal(t, domain.ParseStatusFailed, again.File.ParseStatus)

	assert.False(t, env.cache.Has(res.File.ID))
	_, err = env.contents.GetByFile(ctx, res.File.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = env.svc.GetParsed(ctx, ownerAuth, res.File.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFileService_Update(t *testing.T) {
	env := newFileTestEnv(t)
	res := uploadText(t, env, ownerAuth, "u.txt", "body")
	title := "  Lecture 1  "

	file, err := env.svc.Update(context.Background(), ownerAuth, res.File.ID, domain.UpdateFileRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Lecture 1", file.Title)

	stored, err := env.files.GetWithData(context.Background(), res.File.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lecture 1", stored.Title)
	assert.Equal(t, []byte("body"), stored.Data, "update must keep the raw bytes")
}

func TestFileService_Delete(t *testing.T) {
	env := newFileTestEnv(t)
	ctx := context.Background()
	res := uploadText(t, env, ownerAuth, "d.txt", "bye")
	id := res.File.ID

	require.NoError(t, env.svc.Delete(ctx, ownerAuth, id))

	_, err := env.files.Get(ctx, id)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = env.contents.GetByFile(ctx, id)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.False(t, env.cache.Has(id))
}

func TestFileService_Formats(t *testing.T) {
	env := newFileTestEnv(t)

	formats := env.svc.Formats()
	require.Len(t, formats, 6)
	assert.Equal(t, domain.FormatText, formats[0].Format)
	for _, f := range formats {
		assert.True(t, f.Available, "format %s", f.Format)
	}
}

func TestFileService_Reparse_Locked(t *testing.T) {
	env := newFileTestEnv(t)
	lock := mocks.NewMockDistributedLock()
	env.svc.lock = lock
	res := uploadText(t, env, ownerAuth, "l.txt", "locked")
	assert.False(t, lock.IsHeld("parse:"+res.File.ID), "lock must be released after parsing")

	lock.SetLockHeld("parse:"+res.File.ID, time.Minute)
	_, err := env.svc.Reparse(context.Background(), ownerAuth, res.File.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestFileService_LockBackendDown(t *testing.T) {
	env := newFileTestEnv(t)
	lock := mocks.NewMockDistributedLock()
	lock.AcquireFn = func(string, time.Duration) (bool, error) {
		return false, errors.New("redis down")
	}
	env.svc.lock = lock

	res := uploadText(t, env, ownerAuth, "l.txt", "still parsed")
	assert.Equal(t, domain.ParseStatusParsed, res.File.ParseStatus)
}
