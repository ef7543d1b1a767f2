package tree

import (
	"time"

	"github.com/S1riyS/vaultfs/internal/models"
)

const (
	S_IFDIR = 0o040000 // Directory
	S_IFREG = 0o100000 // Regular file

	DirPerm  = 0o555
	FilePerm = 0o444
)

// FixedTime is reported for containers, which have no timestamps of their
// own, and for secrets whose store timestamps do not parse.
var FixedTime = time.Unix(0, 0).UTC()

// AttributesOf describes n for getattr and lookup replies.
func (t *Tree) AttributesOf(n *models.Node) models.Attr {
	if n.Kind == models.NodeKindSecret {
		return models.Attr{
			Ino:   n.Ino,
			Type:  models.NodeTypeFile,
			Mode:  S_IFREG | FilePerm,
			Size:  uint64(len(n.Content)),
			Nlink: 1,
			Ctime: parseTime(n.CreatedTime),
			Mtime: parseTime(n.UpdatedTime),
		}
	}

	// "." and the entry in the parent, plus ".." of every subdirectory
	nlink := uint32(2)
	for _, ino := range n.Children {
		if t.nodes[ino-1].Kind.IsContainer() {
			nlink++
		}
	}

	return models.Attr{
		Ino:   n.Ino,
		Type:  models.NodeTypeDir,
		Mode:  S_IFDIR | DirPerm,
		Size:  0,
		Nlink: nlink,
		Ctime: FixedTime,
		Mtime: FixedTime,
	}
}

// ListChildren returns the children of a container in store order.
func (t *Tree) ListChildren(n *models.Node) ([]models.Dirent, error) {
	if !n.Kind.IsContainer() {
		return nil, ErrNotDirectory
	}

	entries := make([]models.Dirent, 0, len(n.Children))
	for _, ino := range n.Children {
		child := t.nodes[ino-1]
		entries = append(entries, models.Dirent{
			Name: child.Name,
			Ino:  child.Ino,
			Type: child.Type(),
		})
	}

	return entries, nil
}

// ReadContent returns at most maxLength bytes of a secret starting at offset.
// Reading at or past the end yields an empty slice.
func ReadContent(n *models.Node, offset, maxLength int64) ([]byte, error) {
	if n.Kind != models.NodeKindSecret {
		return nil, ErrIsDirectory
	}
	if offset < 0 || maxLength < 0 {
		return nil, ErrInvalidOffset
	}

	size := int64(len(n.Content))
	if offset >= size {
		return []byte{}, nil
	}

	end := size
	if maxLength < size-offset {
		end = offset + maxLength
	}

	return []byte(n.Content[offset:end]), nil
}

func parseTime(value string) time.Time {
	if value == "" {
		return FixedTime
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return FixedTime
	}
	return ts
}
