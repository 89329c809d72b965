// Package memimage holds a binary file in memory as an addressable image.
package memimage

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// Image is an immutable, fully resident copy of a binary file. Byte i of the
// image lives at address Origin()+i.
type Image struct {
	origin uint16
	buf    []byte
}

// New wraps data without copying it. The caller must not modify data
// afterwards.
func New(data []byte, origin uint16) *Image {
	return &Image{
		origin: origin,
		buf:    data,
	}
}

// Load reads the whole file at path into memory. A file that yields fewer
// bytes than its reported size is an error.
func Load(path string, origin uint16) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat")
	}
	if fi.IsDir() {
		return nil, errors.Errorf("%s is a directory", path)
	}

	buf := make([]byte, fi.Size())
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, errors.Wrapf(err, "short read (expected %d bytes)", fi.Size())
	}

	return New(buf, origin), nil
}

// Origin is the load address of the first byte.
func (m *Image) Origin() uint16 {
	return m.origin
}

func (m *Image) Size() int64 {
	return int64(len(m.buf))
}

func (m *Image) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.Errorf("negative offset %d", off)
	}
	if off >= int64(len(m.buf)) {
		return 0, io.EOF
	}

	n := copy(p, m.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Reader returns a reader over the whole image.
func (m *Image) Reader() io.Reader {
	return io.NewSectionReader(m, 0, m.Size())
}

var _ io.ReaderAt = (*Image)(nil)
