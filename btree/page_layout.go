package btree

// PageSize is the size of a single page in bytes. Each page holds exactly
// one encoded node (or the superblock at offset 0).
const PageSize = 4096

// ptrSize is the on-disk width of a page offset.
const ptrSize = 8

// Common node header layout (ten bytes in total):
// byte 0 is the root flag, byte 1 the node type tag, bytes [2,10) the
// parent offset. A parent offset of 0 means "no parent" -- offset 0 is
// the superblock and can never address a node.
const (
	isRootOffset        = 0
	nodeTypeOffset      = 1
	parentPointerOffset = 2
	commonHeaderSize    = 1 + 1 + ptrSize
)

// Node type tags stored at nodeTypeOffset.
const (
	nodeTypeInternal byte = 0
	nodeTypeLeaf     byte = 1
)

// Leaf node header: the common header followed by a uint16 pair count.
// Cells of KeySize+ValueSize bytes follow the header back to back.
const (
	leafNumPairsOffset = commonHeaderSize
	leafHeaderSize     = commonHeaderSize + 2
)

// Internal node header: the common header followed by a uint16 child count.
// numChildren offsets are stored in one contiguous run, then the
// numChildren-1 separator keys in a second run.
const (
	internalNumChildrenOffset = commonHeaderSize
	internalHeaderSize        = commonHeaderSize + 2
)

// KeySize and ValueSize are the fixed cell widths. Keys and values are
// null-padded to these lengths on disk; shorter is fine, longer is an error.
const (
	KeySize   = 64
	ValueSize = 128
)

// Capacity bounds implied by the page size and the fixed cell widths. These
// cap the b parameter a tree can be built with.
const (
	maxLeafPairs        = (PageSize - leafHeaderSize) / (KeySize + ValueSize)
	maxInternalChildren = (PageSize - internalHeaderSize + KeySize) / (ptrSize + KeySize)
)
