package wave

import "fmt"

// ChunkInfo identifies one chunk encountered while scanning a container:
// its four byte tag, declared payload size, and the absolute byte offset
// of the payload.
type ChunkInfo struct {
	ID     [4]byte
	Size   uint32
	Offset int64
}

// Tag returns the chunk identifier as text.
func (c ChunkInfo) Tag() string {
	return string(c.ID[:])
}

// String implements the Stringer interface.
func (c ChunkInfo) String() string {
	return fmt.Sprintf("%q %d bytes at offset %d", c.Tag(), c.Size, c.Offset)
}
