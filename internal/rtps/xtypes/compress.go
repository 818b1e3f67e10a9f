package xtypes

import (
	"bytes"
	"compress/zlib"
	"io"

	"github.com/naskel/hdds/internal/herrors"
)

// CompressTypeObject deflates a serialized TypeObject for the RTI-style
// PID_TYPE_OBJECT_LB parameter. The encoder is expected to compare the
// deflated length against the original and only use the compressed form
// when it is strictly smaller (§4.2 rule 4).
func CompressTypeObject(raw []byte) []byte {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, _ = zw.Write(raw)
	_ = zw.Close()
	return buf.Bytes()
}

// DecompressTypeObject inflates a PID_TYPE_OBJECT_LB payload. On failure
// the caller should fall back to name-based type matching rather than
// treating the peer as incompatible (an explicit, conservative decision —
// see the Open Question resolution in the project's design notes).
func DecompressTypeObject(compressed []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, herrors.Wrap(herrors.CodeSerialization, "xtypes.DecompressTypeObject", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, herrors.Wrap(herrors.CodeSerialization, "xtypes.DecompressTypeObject", err)
	}
	return out, nil
}

// ChooseEncoding returns the bytes to place on the wire for a TypeObject,
// preferring the compressed form only when it is strictly smaller.
func ChooseEncoding(raw []byte) (payload []byte, compressed bool) {
	c := CompressTypeObject(raw)
	if len(c) < len(raw) {
		return c, true
	}
	return raw, false
}
