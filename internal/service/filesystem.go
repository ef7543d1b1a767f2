package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/S1riyS/vaultfs/internal/models"
	"github.com/S1riyS/vaultfs/internal/pkg/kerrors"
	"github.com/S1riyS/vaultfs/internal/tree"
	"github.com/S1riyS/vaultfs/pkg/logging"
)

// FileSystemService answers driver callbacks from a built tree. All methods
// are safe for concurrent use; nothing is mutated after construction.
type FileSystemService interface {
	GetAttr(ctx context.Context, ino uint64) (*models.NodeMeta, error)
	Lookup(ctx context.Context, parentIno uint64, name string) (*models.NodeMeta, error)
	ReadDir(ctx context.Context, ino uint64, offset uint64) ([]models.Dirent, error)
	Read(ctx context.Context, ino uint64, offset int64, size int64) ([]byte, error)
}

type fileSystemService struct {
	tree *tree.Tree
}

func NewFileSystemService(t *tree.Tree) FileSystemService {
	return &fileSystemService{tree: t}
}

func (s *fileSystemService) GetAttr(ctx context.Context, ino uint64) (*models.NodeMeta, error) {
	const op = "service.fileSystemService.GetAttr"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("GetAttr", slog.Uint64("ino", ino))

	node, ok := s.tree.FindByIno(ino)
	if !ok {
		logger.Debug("Inode not found", slog.Uint64("ino", ino))
		return nil, &ServiceError{Code: kerrors.ENOENT, Message: "inode not found"}
	}

	return s.meta(node), nil
}

func (s *fileSystemService) Lookup(ctx context.Context, parentIno uint64, name string) (*models.NodeMeta, error) {
	const op = "service.fileSystemService.Lookup"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("Lookup",
		slog.Uint64("parent_ino", parentIno),
		slog.String("name", name),
	)

	parent, ok := s.tree.FindByIno(parentIno)
	if !ok {
		logger.Debug("Parent not found", slog.Uint64("parent_ino", parentIno))
		return nil, &ServiceError{Code: kerrors.ENOENT, Message: "parent not found"}
	}
	if !parent.Kind.IsContainer() {
		logger.Debug("Parent is not a directory", slog.Uint64("parent_ino", parentIno))
		return nil, &ServiceError{Code: kerrors.ENOTDIR, Message: "parent is not a directory"}
	}

	node, ok := s.tree.FindByInoAndName(parentIno, name)
	if !ok {
		logger.Debug("Entry not found", slog.Uint64("parent_ino", parentIno), slog.String("name", name))
		return nil, &ServiceError{Code: kerrors.ENOENT, Message: "file not found"}
	}

	meta := s.meta(node)

	logger.Debug("Lookup successful",
		slog.String("name", name),
		slog.Uint64("ino", meta.Ino),
		slog.Int("type", int(meta.Type)),
		slog.Uint64("size", meta.Size),
	)

	return meta, nil
}

// ReadDir lists ino with "." and ".." first, skipping offset entries. ".."
// of the root is the root itself.
func (s *fileSystemService) ReadDir(ctx context.Context, ino uint64, offset uint64) ([]models.Dirent, error) {
	const op = "service.fileSystemService.ReadDir"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("ReadDir", slog.Uint64("ino", ino), slog.Uint64("offset", offset))

	node, ok := s.tree.FindByIno(ino)
	if !ok {
		logger.Debug("Inode not found", slog.Uint64("ino", ino))
		return nil, &ServiceError{Code: kerrors.ENOENT, Message: "inode not found"}
	}

	children, err := s.tree.ListChildren(node)
	if err != nil {
		logger.Debug("Not a directory", slog.Uint64("ino", ino))
		return nil, &ServiceError{Code: kerrors.ENOTDIR, Message: "not a directory"}
	}

	entries := make([]models.Dirent, 0, len(children)+2)
	entries = append(entries,
		models.Dirent{Name: ".", Ino: node.Ino, Type: models.NodeTypeDir},
		models.Dirent{Name: "..", Ino: node.ParentIno, Type: models.NodeTypeDir},
	)
	entries = append(entries, children...)

	if offset >= uint64(len(entries)) {
		return []models.Dirent{}, nil
	}

	return entries[offset:], nil
}

func (s *fileSystemService) Read(ctx context.Context, ino uint64, offset int64, size int64) ([]byte, error) {
	const op = "service.fileSystemService.Read"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("Read",
		slog.Uint64("ino", ino),
		slog.Int64("offset", offset),
		slog.Int64("size", size),
	)

	node, ok := s.tree.FindByIno(ino)
	if !ok {
		logger.Debug("File not found", slog.Uint64("ino", ino))
		return nil, &ServiceError{Code: kerrors.ENOENT, Message: "file not found"}
	}

	data, err := tree.ReadContent(node, offset, size)
	if err != nil {
		if errors.Is(err, tree.ErrIsDirectory) {
			logger.Debug("Is a directory", slog.Uint64("ino", ino))
			return nil, &ServiceError{Code: kerrors.EISDIR, Message: "is a directory"}
		}
		logger.Debug("Invalid offset", slog.Int64("offset", offset), slog.Int64("size", size))
		return nil, &ServiceError{Code: kerrors.EINVAL, Message: "invalid offset"}
	}

	logger.Debug("Read successful", slog.Uint64("ino", ino), slog.Int("bytes", len(data)))

	return data, nil
}

func (s *fileSystemService) meta(node *models.Node) *models.NodeMeta {
	return &models.NodeMeta{
		Attr:      s.tree.AttributesOf(node),
		ParentIno: node.ParentIno,
		Name:      node.Name,
	}
}
