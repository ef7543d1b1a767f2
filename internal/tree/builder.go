package tree

import (
	"context"
	"log/slog"
	"strings"

	"github.com/S1riyS/vaultfs/internal/models"
	"github.com/S1riyS/vaultfs/pkg/logging"
	"github.com/S1riyS/vaultfs/pkg/logging/slogext"
)

const rootPath = "/"

// Store is the subset of the KV client the builder walks.
type Store interface {
	List(ctx context.Context, path string) ([]string, error)
	GroupMetadata(ctx context.Context, path string) (*models.GroupMetadata, error)
	GroupData(ctx context.Context, path string) ([]models.KeyValue, error)
}

type builder struct {
	store   Store
	nodes   []*models.Node
	nextIno uint64
	partial []*PartialBuildError
}

func newBuilder(store Store) *builder {
	b := &builder{store: store, nextIno: RootIno}
	root := &models.Node{
		Ino:       b.allocate(),
		ParentIno: RootIno,
		Kind:      models.NodeKindDirectory,
		Name:      RootName,
	}
	b.nodes = append(b.nodes, root)
	return b
}

// Build walks the store depth-first from "/" and returns the resulting tree.
// Store failures below the root leave the affected subtree empty and are
// returned as partial errors; a failure to list the root is returned as a
// *FatalStartupError with a nil tree.
func Build(ctx context.Context, store Store) (*Tree, []*PartialBuildError, error) {
	const op = "tree.Build"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("Building tree")

	b := newBuilder(store)
	if err := b.buildDirectory(ctx, b.nodes[0], rootPath); err != nil {
		logger.Error("Failed to list root", slogext.Err(err))
		return nil, nil, &FatalStartupError{Path: rootPath, Err: err}
	}

	t := &Tree{nodes: b.nodes}
	stats := t.Stats()

	logger.Info("Tree built",
		slog.Int("nodes", t.Len()),
		slog.Int("directories", stats.Directories),
		slog.Int("secret_groups", stats.SecretGroups),
		slog.Int("secrets", stats.Secrets),
		slog.Int("partial_errors", len(b.partial)),
	)

	return t, b.partial, nil
}

func (b *builder) allocate() uint64 {
	ino := b.nextIno
	b.nextIno++
	return ino
}

// add allocates an inode for a new child of parent. Allocation and append
// happen together so nodes stays indexed by inode.
func (b *builder) add(parent *models.Node, kind models.NodeKind, name string) *models.Node {
	n := &models.Node{
		Ino:       b.allocate(),
		ParentIno: parent.Ino,
		Kind:      kind,
		Name:      name,
	}
	b.nodes = append(b.nodes, n)
	parent.Children = append(parent.Children, n.Ino)
	return n
}

// buildDirectory returns only the error of its own listing; failures deeper
// down are recorded as partial errors.
func (b *builder) buildDirectory(ctx context.Context, dir *models.Node, path string) error {
	const op = "tree.builder.buildDirectory"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)

	names, err := b.store.List(ctx, path)
	if err != nil {
		return err
	}

	logger.Debug("Listed directory", slog.String("path", path), slog.Int("entries", len(names)))

	for _, name := range names {
		if dirName, isDir := strings.CutSuffix(name, "/"); isDir {
			if !validName(dirName) {
				logger.Warn("Skipping invalid directory name", slog.String("path", path), slog.String("name", name))
				continue
			}

			child := b.add(dir, models.NodeKindDirectory, dirName)
			childPath := path + name
			if err := b.buildDirectory(ctx, child, childPath); err != nil {
				b.recordPartial(ctx, childPath, BuildOpList, err)
			}
			continue
		}

		if !validName(name) {
			logger.Warn("Skipping invalid secret group name", slog.String("path", path), slog.String("name", name))
			continue
		}

		child := b.add(dir, models.NodeKindSecretGroup, name)
		b.buildGroup(ctx, child, path+name)
	}

	return nil
}

// Metadata is fetched once per group and stamped on every secret in it.
func (b *builder) buildGroup(ctx context.Context, group *models.Node, path string) {
	const op = "tree.builder.buildGroup"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)

	meta, err := b.store.GroupMetadata(ctx, path)
	if err != nil {
		b.recordPartial(ctx, path, BuildOpGroupMetadata, err)
		return
	}
	if meta == nil {
		meta = &models.GroupMetadata{}
	}

	pairs, err := b.store.GroupData(ctx, path)
	if err != nil {
		b.recordPartial(ctx, path, BuildOpGroupData, err)
		return
	}

	for _, kv := range pairs {
		if !validName(kv.Key) {
			logger.Warn("Skipping invalid secret key", slog.String("path", path), slog.String("key", kv.Key))
			continue
		}

		secret := b.add(group, models.NodeKindSecret, kv.Key)
		secret.Content = kv.Value
		secret.CreatedTime = meta.CreatedTime
		secret.UpdatedTime = meta.UpdatedTime
	}
}

// validName rejects names the kernel cannot carry as a directory entry and
// names that would shadow the synthesized . and .. entries.
func validName(name string) bool {
	switch name {
	case "", ".", "..":
		return false
	}
	return !strings.ContainsAny(name, "/\x00")
}

func (b *builder) recordPartial(ctx context.Context, path string, buildOp BuildOp, err error) {
	const op = "tree.builder.recordPartial"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Warn("Subtree left empty",
		slog.String("path", path),
		slog.String("build_op", string(buildOp)),
		slogext.Err(err),
	)

	b.partial = append(b.partial, &PartialBuildError{Path: path, Op: buildOp, Err: err})
}
