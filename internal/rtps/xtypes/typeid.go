// Package xtypes implements the subset of OMG DDS-XTypes needed for
// type-safe endpoint matching: TypeIdentifier, TypeObject (Minimal and
// Complete), EquivalenceHash, and extensibility-aware assignability.
package xtypes

import "fmt"

// PrimitiveKind enumerates the TK_* primitive type identifiers.
type PrimitiveKind byte

const (
	TKBoolean PrimitiveKind = iota + 1
	TKByte
	TKInt16
	TKInt32
	TKInt64
	TKUint16
	TKUint32
	TKUint64
	TKFloat32
	TKFloat64
	TKChar8
	TKString8
)

// IdentifierKind discriminates the TypeIdentifier union.
type IdentifierKind byte

const (
	IdentifierPrimitive IdentifierKind = iota
	IdentifierBoundedString
	IdentifierEquivalenceHash
)

// TypeIdentifier is either a primitive-kind value, a bounded-string
// marker, or an EquivalenceHash-indexed reference to a TypeObject.
type TypeIdentifier struct {
	Kind      IdentifierKind
	Primitive PrimitiveKind
	Bound     uint32 // bounded string max length, when Kind == IdentifierBoundedString
	Hash      EquivalenceHash
}

// NewPrimitiveIdentifier builds a primitive TypeIdentifier.
func NewPrimitiveIdentifier(p PrimitiveKind) TypeIdentifier {
	return TypeIdentifier{Kind: IdentifierPrimitive, Primitive: p}
}

// NewBoundedStringIdentifier builds a bounded-string TypeIdentifier.
func NewBoundedStringIdentifier(bound uint32) TypeIdentifier {
	return TypeIdentifier{Kind: IdentifierBoundedString, Bound: bound}
}

// NewHashIdentifier builds a TypeIdentifier referencing a TypeObject by
// its EquivalenceHash.
func NewHashIdentifier(h EquivalenceHash) TypeIdentifier {
	return TypeIdentifier{Kind: IdentifierEquivalenceHash, Hash: h}
}

// Equal reports whether two TypeIdentifiers denote the same type.
func (t TypeIdentifier) Equal(o TypeIdentifier) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case IdentifierPrimitive:
		return t.Primitive == o.Primitive
	case IdentifierBoundedString:
		return t.Bound == o.Bound
	case IdentifierEquivalenceHash:
		return t.Hash == o.Hash
	default:
		return false
	}
}

func (t TypeIdentifier) String() string {
	switch t.Kind {
	case IdentifierPrimitive:
		return fmt.Sprintf("primitive(%d)", t.Primitive)
	case IdentifierBoundedString:
		return fmt.Sprintf("bounded_string(%d)", t.Bound)
	case IdentifierEquivalenceHash:
		return fmt.Sprintf("hash(%x)", t.Hash)
	default:
		return "invalid"
	}
}
