package firmware

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/moffa90/go-sbp/protocol"
)

// Constants for image handling.
const (
	// ChunkSize is the window size used to split the image into DATA packets
	ChunkSize = protocol.MaxChunkSize

	// MaxImageSize is the largest image the CONF size field can describe
	MaxImageSize = math.MaxUint32
)

var (
	// ErrEmptyImage is returned for images with no bytes
	ErrEmptyImage = errors.New("firmware image is empty")

	// ErrImageTooLarge is returned for images the CONF packet cannot describe
	ErrImageTooLarge = protocol.ErrImageTooLarge
)

// Load reads a raw binary image from the given file path.
//
// Example:
//
//	img, err := firmware.Load("app.bin")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("size=%d crc=0x%08X\n", img.Size(), img.Checksum())
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	img, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	img.Path = path

	return img, nil
}

// Read reads a raw binary image from any io.Reader.
// The checksum is computed while reading.
//
// Example:
//
//	img, err := firmware.Read(bytes.NewReader(data))
func Read(r io.Reader) (*Image, error) {
	h := protocol.NewHash()
	data, err := io.ReadAll(io.TeeReader(r, h))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	if err := validate(len(data)); err != nil {
		return nil, err
	}

	return &Image{
		data:     data,
		checksum: h.Sum32(),
	}, nil
}

func validate(size int) error {
	if size == 0 {
		return ErrEmptyImage
	}
	if uint64(size) > MaxImageSize {
		return fmt.Errorf("%w: %d bytes", ErrImageTooLarge, size)
	}
	return nil
}
