package firmware

import (
	"github.com/moffa90/go-sbp/protocol"
)

// Image is a raw firmware image to be transferred to the bootloader.
// The byte slice is treated as read-only once the image is created.
type Image struct {
	// Path is the file the image was loaded from (empty for in-memory images)
	Path string

	data     []byte
	checksum uint32
}

// New wraps an in-memory image. The slice is not copied.
func New(data []byte) (*Image, error) {
	if err := validate(len(data)); err != nil {
		return nil, err
	}
	return &Image{
		data:     data,
		checksum: protocol.Checksum(data),
	}, nil
}

// Data returns the image bytes. Callers must not modify them.
func (img *Image) Data() []byte {
	return img.data
}

// Size returns the image size in bytes.
func (img *Image) Size() int {
	return len(img.data)
}

// Checksum returns the CRC-32/MPEG-2 of the whole image.
func (img *Image) Checksum() uint32 {
	return img.checksum
}

// NumChunks returns how many DATA packets the image needs.
func (img *Image) NumChunks() int {
	return (len(img.data) + ChunkSize - 1) / ChunkSize
}

// Chunk returns the i-th ChunkSize window of the image.
// The last window may be shorter. It panics if i is out of range.
func (img *Image) Chunk(i int) []byte {
	start := i * ChunkSize
	end := start + ChunkSize
	if end > len(img.data) {
		end = len(img.data)
	}
	return img.data[start:end:end]
}

// Chunks returns every window in transfer order.
func (img *Image) Chunks() [][]byte {
	chunks := make([][]byte, 0, img.NumChunks())
	for i := 0; i < img.NumChunks(); i++ {
		chunks = append(chunks, img.Chunk(i))
	}
	return chunks
}
