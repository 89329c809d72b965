package intelhex

import (
	"bufio"
	"fmt"
	"io"
	"iter"

	"github.com/pkg/errors"
)

const (
	DefaultRecordSize = 32
	MaxRecordSize     = 0xFF

	addressSpace = 1 << 16
)

// OverflowPolicy decides what happens when the image runs past 0xFFFF.
type OverflowPolicy int

const (
	// OverflowWrap truncates record addresses to 16 bits.
	OverflowWrap OverflowPolicy = iota
	// OverflowReject fails before any record is produced.
	OverflowReject
)

func (p OverflowPolicy) String() string {
	switch p {
	case OverflowWrap:
		return "wrap"
	case OverflowReject:
		return "reject"
	default:
		return fmt.Sprintf("OverflowPolicy(%d)", int(p))
	}
}

func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch s {
	case "wrap":
		return OverflowWrap, nil
	case "reject":
		return OverflowReject, nil
	}
	return 0, errors.Errorf("unknown address overflow policy %q (want wrap or reject)", s)
}

type EncoderOptions struct {
	origin     uint16
	recordSize int
	upper      bool
	lineEnding string
	overflow   OverflowPolicy
	observer   func(Record)
}

type EncoderOption func(*EncoderOptions)

// WithOrigin sets the address of the first image byte.
func WithOrigin(origin uint16) EncoderOption {
	return func(o *EncoderOptions) {
		o.origin = origin
	}
}

func WithRecordSize(n int) EncoderOption {
	return func(o *EncoderOptions) {
		o.recordSize = n
	}
}

func WithUppercase() EncoderOption {
	return func(o *EncoderOptions) {
		o.upper = true
	}
}

func WithLineEnding(s string) EncoderOption {
	return func(o *EncoderOptions) {
		o.lineEnding = s
	}
}

func WithAddressOverflow(p OverflowPolicy) EncoderOption {
	return func(o *EncoderOptions) {
		o.overflow = p
	}
}

// WithObserver registers fn to be called for every record once its line has
// been written. The record body must not be retained after fn returns.
func WithObserver(fn func(Record)) EncoderOption {
	return func(o *EncoderOptions) {
		o.observer = fn
	}
}

// Encoder renders the first size bytes of r as Intel HEX data records
// followed by an end-of-file record.
type Encoder struct {
	r    io.ReaderAt
	w    io.Writer
	size int64

	opts EncoderOptions
}

func NewEncoder(r io.ReaderAt, w io.Writer, size int64, opts ...EncoderOption) *Encoder {
	eo := EncoderOptions{
		recordSize: DefaultRecordSize,
		lineEnding: "\n",
	}
	for _, opt := range opts {
		opt(&eo)
	}
	return &Encoder{
		r:    r,
		w:    w,
		size: size,
		opts: eo,
	}
}

func (e *Encoder) validate() error {
	if e.opts.recordSize < 1 || e.opts.recordSize > MaxRecordSize {
		return errors.WithMessagef(ErrInvalidRecordSize, "got %d", e.opts.recordSize)
	}
	if e.size < 0 {
		return errors.Errorf("negative image size %d", e.size)
	}
	if e.opts.overflow == OverflowReject && int64(e.opts.origin)+e.size > addressSpace {
		return errors.WithMessagef(ErrAddressOverflow, "origin %#04x with %d bytes", e.opts.origin, e.size)
	}
	return nil
}

// Records yields every record in output order. Each call starts over from
// the beginning of the image. After an error no further records are yielded.
func (e *Encoder) Records() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		if err := e.validate(); err != nil {
			yield(Record{}, err)
			return
		}

		recordSize := int64(e.opts.recordSize)
		blocks := (e.size + recordSize - 1) / recordSize
		for block := int64(0); block < blocks; block++ {
			start := block * recordSize
			end := min(start+recordSize, e.size)

			body := make([]byte, end-start)
			n, err := e.r.ReadAt(body, start)
			if n < len(body) {
				if err == nil || err == io.EOF {
					err = io.ErrUnexpectedEOF
				}
				yield(Record{}, errors.Wrapf(err, "read %d bytes at offset %d", len(body), start))
				return
			}

			addr := uint16(int64(e.opts.origin) + start)
			if !yield(NewDataRecord(addr, body, start), nil) {
				return
			}
		}

		yield(NewEOFRecord(), nil)
	}
}

func (e *Encoder) EncodeRecords() error {
	bw := bufio.NewWriter(e.w)
	for record, err := range e.Records() {
		if err != nil {
			return err
		}
		if err := e.encodeRecord(bw, record); err != nil {
			return err
		}
	}

	return errors.Wrap(bw.Flush(), "flush records")
}

func (e *Encoder) encodeRecord(w *bufio.Writer, r Record) error {
	line, _ := r.Render(e.opts.upper)
	if _, err := w.WriteString(line); err != nil {
		return errors.Wrap(err, "write record")
	}
	if _, err := w.WriteString(e.opts.lineEnding); err != nil {
		return errors.Wrap(err, "write record")
	}

	if e.opts.observer != nil {
		e.opts.observer(r)
	}
	return nil
}
