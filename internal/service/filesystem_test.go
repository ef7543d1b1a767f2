package service

import (
	"context"
	"errors"
	"syscall"
	"testing"

	"github.com/S1riyS/vaultfs/internal/models"
	"github.com/S1riyS/vaultfs/internal/tree"
	"github.com/S1riyS/vaultfs/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStore struct {
	lists map[string][]string
	data  map[string][]models.KeyValue
}

func (s *mapStore) List(_ context.Context, path string) ([]string, error) {
	return s.lists[path], nil
}

func (s *mapStore) GroupMetadata(_ context.Context, _ string) (*models.GroupMetadata, error) {
	return &models.GroupMetadata{CreatedTime: "2024-01-01T00:00:00Z", UpdatedTime: "2024-06-01T00:00:00Z"}, nil
}

func (s *mapStore) GroupData(_ context.Context, path string) ([]models.KeyValue, error) {
	return s.data[path], nil
}

// Inodes: 1 "/", 2 "app", 3 "web", 4 "token", 5 "db", 6 "user", 7 "pass"
func newTestService(t *testing.T) (FileSystemService, context.Context) {
	t.Helper()
	ctx := logging.MakeContextWithDiscardLogger(context.Background())

	store := &mapStore{
		lists: map[string][]string{
			"/":     {"app/", "db"},
			"/app/": {"web"},
		},
		data: map[string][]models.KeyValue{
			"/app/web": {{Key: "token", Value: "abc"}},
			"/db":      {{Key: "user", Value: "alice"}, {Key: "pass", Value: "s3cr3t"}},
		},
	}

	tr, partial, err := tree.Build(ctx, store)
	require.NoError(t, err)
	require.Empty(t, partial)

	return NewFileSystemService(tr), ctx
}

func requireErrno(t *testing.T, err error, want syscall.Errno) {
	t.Helper()
	require.Error(t, err)
	var serviceErr *ServiceError
	require.True(t, errors.As(err, &serviceErr), "got %T", err)
	assert.Equal(t, want, serviceErr.Code)
	assert.Equal(t, want, ErrnoOf(err))
}

func TestGetAttr(t *testing.T) {
	svc, ctx := newTestService(t)

	root, err := svc.GetAttr(ctx, tree.RootIno)
	require.NoError(t, err)
	assert.Equal(t, models.NodeTypeDir, root.Type)
	assert.Equal(t, "/", root.Name)

	pass, err := svc.GetAttr(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "pass", pass.Name)
	assert.Equal(t, models.NodeTypeFile, pass.Type)
	assert.Equal(t, uint64(6), pass.Size)
	assert.Equal(t, uint64(5), pass.ParentIno)
}

func TestGetAttrNotFound(t *testing.T) {
	svc, ctx := newTestService(t)

	_, err := svc.GetAttr(ctx, 0)
	requireErrno(t, err, syscall.ENOENT)

	_, err = svc.GetAttr(ctx, 42)
	requireErrno(t, err, syscall.ENOENT)
}

func TestLookup(t *testing.T) {
	svc, ctx := newTestService(t)

	db, err := svc.Lookup(ctx, tree.RootIno, "db")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), db.Ino)
	assert.Equal(t, models.NodeTypeDir, db.Type)

	_, err = svc.Lookup(ctx, tree.RootIno, "d")
	requireErrno(t, err, syscall.ENOENT)

	_, err = svc.Lookup(ctx, 42, "db")
	requireErrno(t, err, syscall.ENOENT)

	_, err = svc.Lookup(ctx, 7, "anything")
	requireErrno(t, err, syscall.ENOTDIR)
}

func TestReadDirDotEntries(t *testing.T) {
	svc, ctx := newTestService(t)

	entries, err := svc.ReadDir(ctx, tree.RootIno, 0)
	require.NoError(t, err)
	assert.Equal(t, []models.Dirent{
		{Name: ".", Ino: 1, Type: models.NodeTypeDir},
		{Name: "..", Ino: 1, Type: models.NodeTypeDir},
		{Name: "app", Ino: 2, Type: models.NodeTypeDir},
		{Name: "db", Ino: 5, Type: models.NodeTypeDir},
	}, entries)

	entries, err = svc.ReadDir(ctx, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, []models.Dirent{
		{Name: ".", Ino: 3, Type: models.NodeTypeDir},
		{Name: "..", Ino: 2, Type: models.NodeTypeDir},
		{Name: "token", Ino: 4, Type: models.NodeTypeFile},
	}, entries)
}

func TestReadDirOffset(t *testing.T) {
	svc, ctx := newTestService(t)

	entries, err := svc.ReadDir(ctx, 5, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "user", entries[0].Name)
	assert.Equal(t, "pass", entries[1].Name)

	entries, err = svc.ReadDir(ctx, 5, 4)
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = svc.ReadDir(ctx, 5, 100)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReadDirErrors(t *testing.T) {
	svc, ctx := newTestService(t)

	_, err := svc.ReadDir(ctx, 42, 0)
	requireErrno(t, err, syscall.ENOENT)

	_, err = svc.ReadDir(ctx, 7, 0)
	requireErrno(t, err, syscall.ENOTDIR)
}

func TestRead(t *testing.T) {
	svc, ctx := newTestService(t)

	data, err := svc.Read(ctx, 7, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", string(data))

	data, err = svc.Read(ctx, 7, 6, 100)
	require.NoError(t, err)
	assert.Empty(t, data)

	_, err = svc.Read(ctx, 5, 0, 100)
	requireErrno(t, err, syscall.EISDIR)

	_, err = svc.Read(ctx, 7, -1, 100)
	requireErrno(t, err, syscall.EINVAL)

	_, err = svc.Read(ctx, 42, 0, 100)
	requireErrno(t, err, syscall.ENOENT)
}

func TestErrnoOfUnknownError(t *testing.T) {
	assert.Equal(t, syscall.Errno(0), ErrnoOf(nil))
	assert.Equal(t, syscall.EIO, ErrnoOf(errors.New("other")))
}
