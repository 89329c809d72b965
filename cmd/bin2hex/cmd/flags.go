package cmd

import (
	"log/slog"
	"runtime"

	"github.com/spf13/pflag"

	"github.com/anupcshan/bin2hex/convert"
	"github.com/anupcshan/bin2hex/intelhex"
)

// convertFlags are the encoding options shared by the root and batch commands.
type convertFlags struct {
	start          uint16
	recordSize     int
	upper          bool
	lineEnding     string
	overflow       string
	manifestFormat string
}

func (f *convertFlags) register(fs *pflag.FlagSet) {
	fs.Uint16Var(&f.start, "start", 0, "Load address of the first input byte")
	fs.IntVar(&f.recordSize, "record-size", intelhex.DefaultRecordSize, "Maximum data bytes per record (1-255)")
	fs.BoolVar(&f.upper, "upper", false, "Use uppercase hex digits in data records")
	fs.StringVar(&f.lineEnding, "line-ending", "native", "Line terminator: native, lf or crlf")
	fs.StringVar(&f.overflow, "address-overflow", "wrap", "Images past 0xFFFF: wrap (truncate addresses) or reject")
	fs.StringVar(&f.manifestFormat, "manifest-format", string(convert.ManifestJSON), "Records manifest encoding: json or cbor")
}

func (f *convertFlags) options(logger *slog.Logger) (convert.Options, error) {
	if f.recordSize < 1 || f.recordSize > intelhex.MaxRecordSize {
		return convert.Options{}, convert.Usagef("--record-size must be between 1 and %d, got %d", intelhex.MaxRecordSize, f.recordSize)
	}

	lineEnding, err := parseLineEnding(f.lineEnding)
	if err != nil {
		return convert.Options{}, err
	}

	overflow, err := intelhex.ParseOverflowPolicy(f.overflow)
	if err != nil {
		return convert.Options{}, convert.Usagef("--address-overflow: %s", err)
	}

	format, err := convert.ParseManifestFormat(f.manifestFormat)
	if err != nil {
		return convert.Options{}, err
	}

	return convert.Options{
		Origin:         f.start,
		RecordSize:     f.recordSize,
		Uppercase:      f.upper,
		LineEnding:     lineEnding,
		Overflow:       overflow,
		ManifestFormat: format,
		Logger:         logger,
	}, nil
}

func parseLineEnding(s string) (string, error) {
	switch s {
	case "native":
		if runtime.GOOS == "windows" {
			return "\r\n", nil
		}
		return "\n", nil
	case "lf":
		return "\n", nil
	case "crlf":
		return "\r\n", nil
	}
	return "", convert.Usagef("--line-ending must be native, lf or crlf, got %q", s)
}
