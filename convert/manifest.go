package convert

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/anupcshan/bin2hex/intelhex"
)

type ManifestFormat string

const (
	ManifestJSON ManifestFormat = "json"
	ManifestCBOR ManifestFormat = "cbor"
)

func ParseManifestFormat(s string) (ManifestFormat, error) {
	switch ManifestFormat(s) {
	case ManifestJSON, ManifestCBOR:
		return ManifestFormat(s), nil
	}
	return "", Usagef("unknown manifest format %q (want json or cbor)", s)
}

// Manifest describes where every record of a conversion came from. Payload
// bytes are not included; ReadOffset points back into the input file.
type Manifest struct {
	RunID       string           `json:"run_id" cbor:"run_id"`
	Input       string           `json:"input" cbor:"input"`
	InputSHA256 string           `json:"input_sha256" cbor:"input_sha256"`
	Origin      uint16           `json:"origin" cbor:"origin"`
	RecordSize  int              `json:"record_size" cbor:"record_size"`
	Records     []ManifestRecord `json:"records" cbor:"records"`
}

type ManifestRecord struct {
	Length     uint8               `json:"length" cbor:"length"`
	Offset     uint16              `json:"offset" cbor:"offset"`
	Type       intelhex.RecordType `json:"type" cbor:"type"`
	ReadOffset int64               `json:"read_offset" cbor:"read_offset"`
	Checksum   uint8               `json:"checksum" cbor:"checksum"`
}

func (m *Manifest) add(r intelhex.Record) {
	m.Records = append(m.Records, ManifestRecord{
		Length:     r.Length,
		Offset:     r.Offset,
		Type:       r.RecType,
		ReadOffset: r.ReadOffset,
		Checksum:   r.Checksum(),
	})
}

func (m *Manifest) hashInput(r io.Reader) error {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return errors.Wrap(err, "hash input")
	}
	m.InputSHA256 = hex.EncodeToString(h.Sum(nil))
	return nil
}

func EncodeManifest(w io.Writer, m *Manifest, format ManifestFormat) error {
	switch format {
	case ManifestJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(m), "encode json manifest")
	case ManifestCBOR:
		return errors.Wrap(cbor.NewEncoder(w).Encode(m), "encode cbor manifest")
	}
	return Usagef("unknown manifest format %q", format)
}

func DecodeManifest(r io.Reader, format ManifestFormat) (*Manifest, error) {
	var m Manifest
	switch format {
	case ManifestJSON, "":
		if err := json.NewDecoder(r).Decode(&m); err != nil {
			return nil, errors.Wrap(err, "decode json manifest")
		}
	case ManifestCBOR:
		if err := cbor.NewDecoder(r).Decode(&m); err != nil {
			return nil, errors.Wrap(err, "decode cbor manifest")
		}
	default:
		return nil, Usagef("unknown manifest format %q", format)
	}
	return &m, nil
}

func writeManifest(path string, m *Manifest, format ManifestFormat) error {
	var buf bytes.Buffer
	if err := EncodeManifest(&buf, m, format); err != nil {
		return err
	}
	return replaceFile(path, buf.Bytes(), 0644)
}
