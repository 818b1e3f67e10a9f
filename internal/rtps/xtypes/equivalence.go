package xtypes

import "crypto/md5"

// EquivalenceHash is the 14-byte MD5-truncated fingerprint of a
// CDR2-serialized TypeObject (DDS-XTypes v1.3 §7.3.4.8).
type EquivalenceHash [14]byte

// Compute hashes cdr2Data (the CDR2 serialization of a TypeObject) with
// MD5 and truncates the 16-byte digest to 14 bytes, per the XTypes spec.
func Compute(cdr2Data []byte) EquivalenceHash {
	sum := md5.Sum(cdr2Data)
	var h EquivalenceHash
	copy(h[:], sum[:14])
	return h
}

// IsZero reports whether h is the unset placeholder.
func (h EquivalenceHash) IsZero() bool {
	return h == EquivalenceHash{}
}
