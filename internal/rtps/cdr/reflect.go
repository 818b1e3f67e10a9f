package cdr

import (
	"bytes"

	goxdr "github.com/rasky/go-xdr/xdr2"

	"github.com/naskel/hdds/internal/herrors"
)

// MarshalReflect encodes v using reflection-based XDR marshaling, for
// structures where hand-written Codec implementations aren't worth the
// ceremony. No package in this module calls it; the sample path always
// goes through the hand-written Writer/Reader pair.
func MarshalReflect(v any) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := goxdr.Marshal(&buf, v); err != nil {
		return nil, herrors.Wrap(herrors.CodeSerialization, "cdr.MarshalReflect", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalReflect decodes data into v using reflection-based XDR
// unmarshaling, mirroring MarshalReflect.
func UnmarshalReflect(data []byte, v any) error {
	if _, err := goxdr.Unmarshal(bytes.NewReader(data), v); err != nil {
		return herrors.Wrap(herrors.CodeSerialization, "cdr.UnmarshalReflect", err)
	}
	return nil
}
