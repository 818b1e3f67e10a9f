package xtypes

// TypeDescriptor is what a remote endpoint advertises about its type over
// SEDP: a name, and optionally a TypeObject (Minimal or Complete tier).
type TypeDescriptor struct {
	Name   string
	Object *TypeObject // nil if the peer didn't advertise one
}

// Compatible implements §4.2 rules 1-3. When both sides carry TypeObjects,
// equal equivalence hashes match and otherwise the assignability check
// decides; names are not compared. When either side lacks a TypeObject,
// the names must match exactly.
func Compatible(writer, reader TypeDescriptor) bool {
	if writer.Object != nil && reader.Object != nil {
		if writer.Object.EquivalenceHash() == reader.Object.EquivalenceHash() {
			return true
		}
		return IsAssignable(writer.Object, reader.Object)
	}
	return writer.Name == reader.Name
}
