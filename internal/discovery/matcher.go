package discovery

import (
	"github.com/naskel/hdds/internal/logger"
	"github.com/naskel/hdds/internal/qos"
	"github.com/naskel/hdds/internal/rtps/xtypes"
)

// MatchResult is the outcome of evaluating a candidate writer/reader pair
// discovered via SEDP (§3, §4.2).
type MatchResult struct {
	Compatible bool
	Mismatches []qos.Mismatch
	TypeReason string // why the type check passed/failed, for diagnostics
}

// TypeCompatible implements §4.2 rule 4 with the constraints payload.go's
// TypeObjectRaw documents: when both sides carry a raw structural
// serialization, the two are compared only by equivalence hash (MD5 of
// the Minimal-tier CDR2 bytes), since HDDS does not parse a peer's raw
// TypeObject back into a structural tree it could run IsAssignable
// against; when either side lacks one, the type names must match
// exactly. Two peers announcing the identical type under different names
// (renamed but structurally identical) still match on hash; two peers
// with the same name but a raw mismatch are rejected rather than risk
// silently misinterpreting the wire shape.
func TypeCompatible(writerName string, writerRaw []byte, readerName string, readerRaw []byte) (bool, string) {
	if len(writerRaw) > 0 && len(readerRaw) > 0 {
		if xtypes.Compute(writerRaw) == xtypes.Compute(readerRaw) {
			return true, "type_object_hash_match"
		}
		return false, "type_object_hash_mismatch"
	}
	if writerName == readerName {
		return true, "name_match"
	}
	return false, "name_mismatch"
}

// Match evaluates whether the discovered writer endpoint and reader
// endpoint should be bound together: topic name, type compatibility, and
// QoS compatibility must all agree (§3).
func Match(writer, reader EndpointProxy) MatchResult {
	if writer.TopicName != reader.TopicName {
		result := MatchResult{Compatible: false, TypeReason: "topic_mismatch"}
		logMatch(writer, reader, result)
		return result
	}
	typeOK, reason := TypeCompatible(writer.TypeName, writer.TypeObjectRaw, reader.TypeName, reader.TypeObjectRaw)
	if !typeOK {
		result := MatchResult{Compatible: false, TypeReason: reason}
		logMatch(writer, reader, result)
		return result
	}
	mismatches := qos.Compatible(writer.Policies, reader.Policies)
	result := MatchResult{Compatible: len(mismatches) == 0, Mismatches: mismatches, TypeReason: reason}
	logMatch(writer, reader, result)
	return result
}

// logMatch emits a single structured line describing a match decision, in
// the participant/endpoint logging vocabulary shared across the runtime.
func logMatch(writer, reader EndpointProxy, result MatchResult) {
	if result.Compatible {
		logger.Debug("endpoints matched",
			logger.Topic(writer.TopicName),
			logger.TypeName(writer.TypeName),
			logger.WriterGUID(guidBytes(writer.GUID)),
			logger.ReaderGUID(guidBytes(reader.GUID)),
		)
		return
	}
	logger.Debug("endpoints incompatible",
		logger.Topic(writer.TopicName),
		logger.WriterGUID(guidBytes(writer.GUID)),
		logger.ReaderGUID(guidBytes(reader.GUID)),
		logger.QoSPolicy(result.TypeReason),
	)
}
