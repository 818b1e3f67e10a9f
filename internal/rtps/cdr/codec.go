package cdr

// Codec is implemented by sample types that know how to encode and decode
// themselves against a CDR Writer/Reader pair. Since there is no IDL
// compiler in this repository, topic types implement Codec by hand
// (mirroring how a generated binding would).
type Codec interface {
	EncodeCDR(w *Writer) error
	DecodeCDR(r *Reader) error
}

// Encode runs c's encoder and returns the complete wire payload (header +
// body) for the given scheme.
func Encode(scheme Scheme, c Codec) ([]byte, error) {
	w := NewWriter(scheme, 256)
	if err := c.EncodeCDR(w); err != nil {
		return nil, err
	}
	return w.FinishWithBody(), nil
}

// Decode parses the encapsulation header from buf and runs c's decoder
// over the remaining body.
func Decode(buf []byte, c Codec) error {
	scheme, _, body, err := ReadHeader(buf)
	if err != nil {
		return err
	}
	r := NewReader(scheme, body)
	return c.DecodeCDR(r)
}
