package models

import "time"

type NodeKind int16

const (
	NodeKindDirectory   NodeKind = 0 // namespace level, listed with LIST
	NodeKindSecretGroup NodeKind = 1 // key-value group, read with metadata + data
	NodeKindSecret      NodeKind = 2 // one key of a group
)

func (k NodeKind) String() string {
	switch k {
	case NodeKindDirectory:
		return "directory"
	case NodeKindSecretGroup:
		return "secret_group"
	case NodeKindSecret:
		return "secret"
	default:
		return "unknown"
	}
}

// IsContainer reports whether nodes of this kind have children.
func (k NodeKind) IsContainer() bool {
	return k == NodeKindDirectory || k == NodeKindSecretGroup
}

type NodeType int16

const (
	NodeTypeDir  NodeType = 0
	NodeTypeFile NodeType = 1
)

// Node is one entry of the built tree. Containers reference their children
// by inode; secrets carry their content.
type Node struct {
	Ino       uint64
	ParentIno uint64
	Kind      NodeKind
	Name      string
	Children  []uint64

	Content     string
	CreatedTime string
	UpdatedTime string
}

func (n *Node) Type() NodeType {
	if n.Kind == NodeKindSecret {
		return NodeTypeFile
	}
	return NodeTypeDir
}

type Attr struct {
	Ino   uint64
	Type  NodeType
	Mode  uint32
	Size  uint64
	Nlink uint32
	Ctime time.Time
	Mtime time.Time
}

type NodeMeta struct {
	Attr
	ParentIno uint64
	Name      string
}

type Dirent struct {
	Name string   `json:"name"`
	Ino  uint64   `json:"ino"`
	Type NodeType `json:"type"`
}

type GroupMetadata struct {
	CreatedTime string `json:"created_time"`
	UpdatedTime string `json:"updated_time"`
}

type KeyValue struct {
	Key   string
	Value string
}
