// Package convert runs binary to Intel HEX conversions between files.
//
// A run reads the whole input into memory, renders every record into a
// buffer, and only then replaces the output file, so a failed run never
// leaves a truncated HEX file behind.
package convert

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/anupcshan/bin2hex/intelhex"
	"github.com/anupcshan/bin2hex/memimage"
)

type Job struct {
	Input  string
	Output string
	// Manifest is where the records manifest is written. Empty disables it.
	Manifest string
}

type Options struct {
	Origin     uint16
	RecordSize int
	Uppercase  bool
	LineEnding string
	Overflow   intelhex.OverflowPolicy

	ManifestFormat ManifestFormat

	Logger  *slog.Logger
	Metrics *Metrics
}

func (o Options) validate() error {
	if o.RecordSize != 0 && (o.RecordSize < 1 || o.RecordSize > intelhex.MaxRecordSize) {
		return Usagef("record size %d out of range 1..%d", o.RecordSize, intelhex.MaxRecordSize)
	}
	switch o.ManifestFormat {
	case "", ManifestJSON, ManifestCBOR:
	default:
		return Usagef("unknown manifest format %q", o.ManifestFormat)
	}
	return nil
}

func (o Options) recordSize() int {
	if o.RecordSize == 0 {
		return intelhex.DefaultRecordSize
	}
	return o.RecordSize
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o Options) encoderOptions() []intelhex.EncoderOption {
	opts := []intelhex.EncoderOption{
		intelhex.WithRecordSize(o.recordSize()),
		intelhex.WithAddressOverflow(o.Overflow),
	}
	if o.Uppercase {
		opts = append(opts, intelhex.WithUppercase())
	}
	if o.LineEnding != "" {
		opts = append(opts, intelhex.WithLineEnding(o.LineEnding))
	}
	return opts
}

type Result struct {
	RunID  string
	Input  string
	Output string
	Origin uint16

	Bytes       int64
	DataRecords int
	// AliasedBytes counts bytes whose 16-bit address had already been
	// written earlier in the same file.
	AliasedBytes  int
	AddressesUsed uint

	Duration time.Duration
}

// Run converts job.Input into job.Output.
func Run(ctx context.Context, job Job, opts Options) (res *Result, err error) {
	start := time.Now()
	res = &Result{
		RunID:  uuid.NewString(),
		Input:  job.Input,
		Output: job.Output,
		Origin: opts.Origin,
	}
	logger := opts.logger().With("run", res.RunID, "input", job.Input, "output", job.Output)

	defer func() {
		res.Duration = time.Since(start)
		opts.Metrics.observeRun(res, err)
		if err != nil {
			logger.Debug("conversion failed", "err", err)
		}
	}()

	if job.Input == "" || job.Output == "" {
		return res, Usagef("both an input and an output path are required")
	}
	if err := opts.validate(); err != nil {
		return res, err
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	img, err := memimage.Load(job.Input, opts.Origin)
	if err != nil {
		return res, &IOError{Op: "read", Path: job.Input, Err: err}
	}
	res.Bytes = img.Size()
	logger.Debug("loaded image", "bytes", res.Bytes, "origin", opts.Origin)

	var manifest *Manifest
	if job.Manifest != "" {
		manifest = &Manifest{
			RunID:      res.RunID,
			Input:      job.Input,
			Origin:     opts.Origin,
			RecordSize: opts.recordSize(),
		}
	}

	cov := newCoverage()
	observe := func(r intelhex.Record) {
		if r.RecType == intelhex.RecordData {
			res.DataRecords++
			res.AliasedBytes += cov.mark(r.Offset, int(r.Length))
		}
		if manifest != nil {
			manifest.add(r)
		}
	}

	var out bytes.Buffer
	encOpts := append(opts.encoderOptions(), intelhex.WithOrigin(img.Origin()), intelhex.WithObserver(observe))
	enc := intelhex.NewEncoder(img, &out, img.Size(), encOpts...)
	if err := enc.EncodeRecords(); err != nil {
		if errors.Is(err, intelhex.ErrAddressOverflow) || errors.Is(err, intelhex.ErrInvalidRecordSize) {
			return res, err
		}
		return res, &IOError{Op: "read", Path: job.Input, Err: err}
	}
	res.AddressesUsed = cov.used()

	if err := ctx.Err(); err != nil {
		return res, err
	}

	if err := replaceFile(job.Output, out.Bytes(), 0644); err != nil {
		return res, &IOError{Op: "write", Path: job.Output, Err: err}
	}

	if manifest != nil {
		if err := manifest.hashInput(img.Reader()); err != nil {
			return res, &IOError{Op: "read", Path: job.Input, Err: err}
		}
		if err := writeManifest(job.Manifest, manifest, opts.ManifestFormat); err != nil {
			return res, &IOError{Op: "write", Path: job.Manifest, Err: err}
		}
	}

	if res.AliasedBytes > 0 {
		logger.Warn("image wraps past address 0xFFFF; records overlap",
			"aliased_bytes", res.AliasedBytes,
			"addresses_used", res.AddressesUsed,
		)
	}
	logger.Info("converted",
		"bytes", res.Bytes,
		"records", res.DataRecords,
		"elapsed", time.Since(start),
	)
	return res, nil
}
