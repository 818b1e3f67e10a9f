package xtypes

// IsAssignable implements §4.2 rule 3: whether a sample written with
// writer's TypeObject can be read by a reader expecting reader's
// TypeObject.
func IsAssignable(writer, reader *TypeObject) bool {
	if writer.Extensibility != reader.Extensibility {
		return false // mixed extensibility: incompatible
	}
	switch writer.Extensibility {
	case ExtensibilityFinal:
		return finalAssignable(writer, reader)
	case ExtensibilityAppendable:
		return appendableAssignable(writer, reader)
	case ExtensibilityMutable:
		return mutableAssignable(writer, reader)
	default:
		return false
	}
}

// finalAssignable requires identical members: same order, same IDs, same
// types.
func finalAssignable(writer, reader *TypeObject) bool {
	if len(writer.Members) != len(reader.Members) {
		return false
	}
	for i, wm := range writer.Members {
		rm := reader.Members[i]
		if wm.ID != rm.ID || !wm.Type.Equal(rm.Type) || wm.Optional != rm.Optional {
			return false
		}
	}
	return true
}

// appendableAssignable allows the writer to have appended extra trailing
// members; every reader member (by position) must still match.
func appendableAssignable(writer, reader *TypeObject) bool {
	if len(writer.Members) < len(reader.Members) {
		return false
	}
	for i, rm := range reader.Members {
		wm := writer.Members[i]
		if wm.ID != rm.ID || !wm.Type.Equal(rm.Type) {
			return false
		}
	}
	return true
}

// mutableAssignable matches members by ID; every reader member that is
// not Optional must exist in writer's set with a compatible type. The
// writer may carry extra members the reader ignores.
func mutableAssignable(writer, reader *TypeObject) bool {
	for _, rm := range reader.Members {
		wm, ok := writer.MemberByID(rm.ID)
		if !ok {
			if rm.Optional {
				continue
			}
			return false
		}
		if !wm.Type.Equal(rm.Type) {
			return false
		}
	}
	return true
}
