package fuse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/S1riyS/vaultfs/internal/config"
	"github.com/S1riyS/vaultfs/internal/metrics"
	"github.com/S1riyS/vaultfs/internal/models"
	"github.com/S1riyS/vaultfs/internal/service"
	"github.com/S1riyS/vaultfs/internal/tree"
	"github.com/S1riyS/vaultfs/pkg/logging"
	"github.com/S1riyS/vaultfs/pkg/logging/slogext"
	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// Options configures the FUSE mount.
type Options struct {
	// Mountpoint is the directory where the filesystem is mounted. It is
	// created if missing.
	Mountpoint string

	// Service answers every callback.
	Service service.FileSystemService

	// Mount carries the fs name, timeouts and allow_other.
	Mount config.MountConfig

	// Debug turns on go-fuse request tracing.
	Debug bool

	// Metrics is optional.
	Metrics *metrics.Metrics

	// Logger receives diagnostic messages. If nil, errors go to stderr.
	Logger *slog.Logger
}

// Mount mounts the tree read-only at the configured mountpoint. The caller
// must call Unmount on the returned server when done.
func Mount(options Options) (*fuse.Server, error) {
	if options.Mountpoint == "" {
		return nil, errors.New("mountpoint is required")
	}
	if options.Service == nil {
		return nil, errors.New("service is required")
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}

	if err := os.MkdirAll(options.Mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("creating mountpoint %s: %w", options.Mountpoint, err)
	}

	fsys := newFileSystem(options)
	root := &node{fs: fsys, ino: tree.RootIno}

	entryTimeout := durationOr(options.Mount.EntryTimeout, time.Second)
	attrTimeout := durationOr(options.Mount.AttrTimeout, time.Second)
	fsName := options.Mount.FsName
	if fsName == "" {
		fsName = "vaultfs"
	}

	server, err := gofuse.Mount(options.Mountpoint, root, &gofuse.Options{
		EntryTimeout: &entryTimeout,
		AttrTimeout:  &attrTimeout,
		UID:          fsys.uid,
		GID:          fsys.gid,
		MountOptions: fuse.MountOptions{
			FsName:     fsName,
			Name:       "vaultfs",
			AllowOther: options.Mount.AllowOther,
			Debug:      options.Debug,
			Options:    []string{"ro"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mounting FUSE filesystem at %s: %w", options.Mountpoint, err)
	}

	options.Logger.Info("Secret tree mounted", slog.String("mountpoint", options.Mountpoint))
	return server, nil
}

// fileSystem is the state shared by all nodes of one mount.
type fileSystem struct {
	service      service.FileSystemService
	metrics      *metrics.Metrics
	logger       *slog.Logger
	uid          uint32
	gid          uint32
	entryTimeout time.Duration
	attrTimeout  time.Duration
}

func newFileSystem(options Options) *fileSystem {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &fileSystem{
		service:      options.Service,
		metrics:      options.Metrics,
		logger:       logger,
		uid:          uint32(os.Getuid()),
		gid:          uint32(os.Getgid()),
		entryTimeout: durationOr(options.Mount.EntryTimeout, time.Second),
		attrTimeout:  durationOr(options.Mount.AttrTimeout, time.Second),
	}
}

func (f *fileSystem) requestContext(ctx context.Context) context.Context {
	ctx = logging.MakeContextWithLogger(ctx, f.logger)
	return logging.MakeContextWithNewRequestID(ctx)
}

// finish counts the callback and maps err to the errno replied to the
// kernel.
func (f *fileSystem) finish(ctx context.Context, op string, err error) syscall.Errno {
	errno := service.ErrnoOf(err)
	f.metrics.ObserveOp(op, errno)

	if errno == syscall.EIO {
		logger := logging.GetLoggerFromContextWithOp(ctx, "fuse."+op)
		logger.Error("Callback failed", slogext.Err(err))
	}

	return errno
}

func (f *fileSystem) fillAttr(out *fuse.Attr, attr *models.Attr) {
	out.Ino = attr.Ino
	out.Mode = attr.Mode
	out.Size = attr.Size
	out.Blocks = (attr.Size + 511) / 512
	out.Blksize = 4096
	out.Nlink = attr.Nlink
	out.Owner = fuse.Owner{Uid: f.uid, Gid: f.gid}

	atime := attr.Mtime
	out.SetTimes(&atime, &attr.Mtime, &attr.Ctime)
}

func stableMode(t models.NodeType) uint32 {
	if t == models.NodeTypeFile {
		return syscall.S_IFREG
	}
	return syscall.S_IFDIR
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
