package intelhex

import "github.com/pkg/errors"

var (
	// ErrAddressOverflow is returned under OverflowReject when the image does
	// not fit below 0x10000.
	ErrAddressOverflow = errors.New("image extends past 16-bit address space")

	ErrInvalidRecordSize = errors.New("record size must be between 1 and 255")
)
