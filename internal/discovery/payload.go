// Package discovery implements SPDP participant discovery and SEDP
// endpoint discovery (§4), including a lease-tracking participant
// database, reliable SEDP publication/subscription exchange built on
// internal/reliability, QoS/type matching, and vendor dialect detection.
package discovery

import (
	"time"

	"github.com/naskel/hdds/internal/herrors"
	"github.com/naskel/hdds/internal/qos"
	"github.com/naskel/hdds/internal/rtps/cdr"
	"github.com/naskel/hdds/internal/rtps/guid"
	"github.com/naskel/hdds/internal/rtps/xtypes"
)

// ParticipantProxy is the decoded content of an SPDP announcement: enough
// about a remote participant to address its builtin endpoints and track
// its lease (§4.1).
type ParticipantProxy struct {
	GUID                         guid.GUID
	ProtocolVersionMajor         byte
	ProtocolVersionMinor         byte
	VendorID                     [2]byte
	MetatrafficUnicastLocators   []guid.Locator
	MetatrafficMulticastLocators []guid.Locator
	DefaultUnicastLocators       []guid.Locator
	DefaultMulticastLocators     []guid.Locator
	LeaseDuration                time.Duration
	ParticipantName              string
	BuiltinEndpoints             uint32
}

// EndpointProxy is the decoded content of an SEDP publication or
// subscription announcement (§4.2).
type EndpointProxy struct {
	GUID             guid.GUID
	TopicName        string
	TypeName         string
	Policies         qos.Policies
	UnicastLocators  []guid.Locator
	MulticastLocators []guid.Locator

	// TypeObjectRaw is the peer's Minimal-tier CDR2 structural
	// serialization (TypeObject.SerializeCDR2's output), carried
	// opaquely: HDDS has no general CDR2 TypeObject parser, so a
	// remote TypeObject is only usable for equivalence-hash comparison
	// against a locally-registered type's own serialization, never for
	// structural assignability against an unknown shape (§4.2 rule 4;
	// see the matcher's fallback-to-name-match path).
	TypeObjectRaw []byte
}

func encodeLocator(w *cdr.Writer, l guid.Locator) {
	w.WriteInt32(int32(l.Kind))
	w.WriteUint32(l.Port)
	w.WriteBytes(l.Address[:])
}

func decodeLocator(value []byte) (guid.Locator, error) {
	r := cdr.NewReader(cdr.SchemeCDR_BE, value)
	kind, err := r.ReadInt32()
	if err != nil {
		return guid.Locator{}, err
	}
	port, err := r.ReadUint32()
	if err != nil {
		return guid.Locator{}, err
	}
	addr, err := r.ReadBytes(16)
	if err != nil {
		return guid.Locator{}, err
	}
	// Some vendors write kind and port little-endian. Every valid kind and
	// port fits in 16 bits, so a wider big-endian reading is byte-swapped.
	swap := func(v uint32) uint32 {
		return v>>24 | (v>>8)&0xFF00 | (v<<8)&0xFF0000 | v<<24
	}
	if kind > 0xFFFF || kind < -1 {
		kind = int32(swap(uint32(kind)))
	}
	if port > 0xFFFF {
		port = swap(port)
	}
	var l guid.Locator
	l.Kind = guid.LocatorKind(kind)
	l.Port = port
	copy(l.Address[:], addr)
	return l, nil
}

func encodeLocatorParam(pw *cdr.ParameterListWriter, id cdr.PID, l guid.Locator) {
	w := cdr.NewWriter(cdr.SchemeCDR_BE, 24)
	encodeLocator(w, l)
	pw.WriteParam(id, w.Bytes())
}

func encodeDuration(w *cdr.Writer, d time.Duration) {
	if d < 0 {
		w.WriteInt32(-1)
		w.WriteUint32(0xFFFFFFFF)
		return
	}
	secs := int32(d / time.Second)
	nsec := d % time.Second
	frac := uint32((int64(nsec) << 32) / int64(time.Second))
	w.WriteInt32(secs)
	w.WriteUint32(frac)
}

func decodeDuration(value []byte) (time.Duration, error) {
	r := cdr.NewReader(cdr.SchemeCDR_LE, value)
	secs, err := r.ReadInt32()
	if err != nil {
		return 0, err
	}
	frac, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	if secs == -1 && frac == 0xFFFFFFFF {
		return -1, nil // DURATION_INFINITE
	}
	ns := (int64(frac) * int64(time.Second)) >> 32
	return time.Duration(secs)*time.Second + time.Duration(ns), nil
}

// EncodeSPDP serializes p as a PL_CDR_LE parameter list, the wire form
// carried in a builtin SPDP DATA submessage's serialized payload.
func EncodeSPDP(p ParticipantProxy) []byte {
	w := cdr.NewWriter(cdr.SchemePL_CDR_LE, 256)
	pw := cdr.NewParameterListWriter(w)

	pw.WriteParam(cdr.PIDProtocolVersion, []byte{p.ProtocolVersionMajor, p.ProtocolVersionMinor})
	pw.WriteParam(cdr.PIDVendorID, p.VendorID[:])
	pw.WriteParam(cdr.PIDParticipantGUID, guidBytes(p.GUID))
	if p.ParticipantName != "" {
		sw := cdr.NewWriter(cdr.SchemeCDR_LE, len(p.ParticipantName)+8)
		sw.WriteString(p.ParticipantName)
		pw.WriteParam(cdr.PIDEntityName, sw.Bytes())
	}
	for _, l := range p.MetatrafficUnicastLocators {
		encodeLocatorParam(pw, cdr.PIDMetatrafficUnicast, l)
	}
	for _, l := range p.MetatrafficMulticastLocators {
		encodeLocatorParam(pw, cdr.PIDMetatrafficMulticast, l)
	}
	for _, l := range p.DefaultUnicastLocators {
		encodeLocatorParam(pw, cdr.PIDDefaultUnicast, l)
	}
	for _, l := range p.DefaultMulticastLocators {
		encodeLocatorParam(pw, cdr.PIDDefaultMulticast, l)
	}
	dw := cdr.NewWriter(cdr.SchemeCDR_LE, 8)
	encodeDuration(dw, p.LeaseDuration)
	pw.WriteParam(cdr.PIDParticipantLease, dw.Bytes())

	bw := cdr.NewWriter(cdr.SchemeCDR_LE, 4)
	bw.WriteUint32(p.BuiltinEndpoints)
	pw.WriteParam(cdr.PIDBuiltinEndpointSet, bw.Bytes())

	pw.WriteSentinel()
	return w.FinishWithBody()
}

// DecodeSPDP parses an SPDP serialized payload (header included) into a
// ParticipantProxy, skipping any PID it doesn't recognize (§4.1 forward
// compatibility).
func DecodeSPDP(payload []byte) (ParticipantProxy, error) {
	scheme, _, body, err := cdr.ReadHeader(payload)
	if err != nil {
		return ParticipantProxy{}, err
	}
	if !scheme.IsPL() {
		return ParticipantProxy{}, herrors.New(herrors.CodeProtocolError, "discovery.DecodeSPDP", "SPDP payload is not PL_CDR encoded")
	}
	r := cdr.NewReader(scheme, body)
	pr := cdr.NewParameterListReader(r)
	params, err := pr.ReadAll()
	if err != nil {
		return ParticipantProxy{}, herrors.Wrap(herrors.CodeProtocolError, "discovery.DecodeSPDP", err)
	}

	var p ParticipantProxy
	p.LeaseDuration = 100 * time.Second // fallback if peer omits it
	for _, param := range params {
		switch param.ID {
		case cdr.PIDProtocolVersion:
			if len(param.Value) >= 2 {
				p.ProtocolVersionMajor, p.ProtocolVersionMinor = param.Value[0], param.Value[1]
			}
		case cdr.PIDVendorID:
			if len(param.Value) >= 2 {
				copy(p.VendorID[:], param.Value)
			}
		case cdr.PIDParticipantGUID:
			if len(param.Value) >= 16 {
				p.GUID = guid.FromBytes(param.Value[:16])
			}
		case cdr.PIDEntityName:
			sr := cdr.NewReader(cdr.SchemeCDR_LE, param.Value)
			if s, err := sr.ReadString(); err == nil {
				p.ParticipantName = s
			}
		case cdr.PIDMetatrafficUnicast:
			if l, err := decodeLocator(param.Value); err == nil {
				p.MetatrafficUnicastLocators = append(p.MetatrafficUnicastLocators, l)
			}
		case cdr.PIDMetatrafficMulticast:
			if l, err := decodeLocator(param.Value); err == nil {
				p.MetatrafficMulticastLocators = append(p.MetatrafficMulticastLocators, l)
			}
		case cdr.PIDDefaultUnicast:
			if l, err := decodeLocator(param.Value); err == nil {
				p.DefaultUnicastLocators = append(p.DefaultUnicastLocators, l)
			}
		case cdr.PIDDefaultMulticast:
			if l, err := decodeLocator(param.Value); err == nil {
				p.DefaultMulticastLocators = append(p.DefaultMulticastLocators, l)
			}
		case cdr.PIDParticipantLease:
			if d, err := decodeDuration(param.Value); err == nil {
				p.LeaseDuration = d
			}
		case cdr.PIDBuiltinEndpointSet:
			br := cdr.NewReader(cdr.SchemeCDR_LE, param.Value)
			if v, err := br.ReadUint32(); err == nil {
				p.BuiltinEndpoints = v
			}
		}
	}
	if p.GUID.IsZero() {
		return p, herrors.New(herrors.CodeProtocolError, "discovery.DecodeSPDP", "missing PID_PARTICIPANT_GUID")
	}
	return p, nil
}

func guidBytes(g guid.GUID) []byte {
	b := g.Bytes()
	return b[:]
}

// reliabilityParam/durabilityParam encode the subset of QoS relevant to
// matching (§3) into their RTPS PID wire shapes: kind as a leading
// uint32, rest zeroed/omitted since HDDS doesn't need max_blocking_time
// or service_cleanup_delay round-tripped for matching decisions.
func encodeReliabilityParam(pw *cdr.ParameterListWriter, k qos.ReliabilityKind) {
	w := cdr.NewWriter(cdr.SchemeCDR_LE, 4)
	if k == qos.Reliable {
		w.WriteUint32(2)
	} else {
		w.WriteUint32(1)
	}
	pw.WriteParam(cdr.PIDReliability, w.Bytes())
}

func decodeReliabilityParam(value []byte) qos.ReliabilityKind {
	r := cdr.NewReader(cdr.SchemeCDR_LE, value)
	v, err := r.ReadUint32()
	if err != nil || v != 2 {
		return qos.BestEffort
	}
	return qos.Reliable
}

func encodeDurabilityParam(pw *cdr.ParameterListWriter, k qos.DurabilityKind) {
	w := cdr.NewWriter(cdr.SchemeCDR_LE, 4)
	w.WriteUint32(uint32(k))
	pw.WriteParam(cdr.PIDDurability, w.Bytes())
}

func decodeDurabilityParam(value []byte) qos.DurabilityKind {
	r := cdr.NewReader(cdr.SchemeCDR_LE, value)
	v, err := r.ReadUint32()
	if err != nil {
		return qos.Volatile
	}
	return qos.DurabilityKind(v)
}

// EncodeSEDP serializes e as a PL_CDR_LE parameter list for a builtin
// SEDP publication or subscription DATA submessage.
func EncodeSEDP(e EndpointProxy) []byte {
	w := cdr.NewWriter(cdr.SchemePL_CDR_LE, 256)
	pw := cdr.NewParameterListWriter(w)

	pw.WriteParam(cdr.PIDEndpointGUID, guidBytes(e.GUID))

	tw := cdr.NewWriter(cdr.SchemeCDR_LE, len(e.TopicName)+8)
	tw.WriteString(e.TopicName)
	pw.WriteParam(cdr.PIDTopicName, tw.Bytes())

	yw := cdr.NewWriter(cdr.SchemeCDR_LE, len(e.TypeName)+8)
	yw.WriteString(e.TypeName)
	pw.WriteParam(cdr.PIDTypeName, yw.Bytes())

	encodeReliabilityParam(pw, e.Policies.Reliability)
	encodeDurabilityParam(pw, e.Policies.Durability)

	if len(e.Policies.Partitions) > 0 {
		pbuf := cdr.NewWriter(cdr.SchemeCDR_LE, 16)
		pbuf.WriteSequenceLen(len(e.Policies.Partitions))
		for _, part := range e.Policies.Partitions {
			pbuf.WriteString(part)
		}
		pw.WriteParam(cdr.PIDPartition, pbuf.Bytes())
	}

	for _, l := range e.UnicastLocators {
		encodeLocatorParam(pw, cdr.PIDUnicastLocator, l)
	}
	for _, l := range e.MulticastLocators {
		encodeLocatorParam(pw, cdr.PIDMulticastLocator, l)
	}

	if len(e.TypeObjectRaw) > 0 {
		payload, compressed := xtypes.ChooseEncoding(e.TypeObjectRaw)
		if compressed {
			pw.WriteParam(cdr.PIDTypeObjectLB, payload)
		} else {
			pw.WriteParam(cdr.PIDTypeInformation, payload)
		}
	}

	pw.WriteSentinel()
	return w.FinishWithBody()
}

// DecodeSEDP parses an SEDP serialized payload (header included) into an
// EndpointProxy. A TypeObject present in the wire payload is kept as raw
// bytes in TypeObjectRaw (inflated first when it arrives as
// PID_TYPE_OBJECT_LB) and is not parsed further; one that fails to
// inflate leaves TypeObjectRaw empty.
func DecodeSEDP(payload []byte) (EndpointProxy, error) {
	scheme, _, body, err := cdr.ReadHeader(payload)
	if err != nil {
		return EndpointProxy{}, err
	}
	if !scheme.IsPL() {
		return EndpointProxy{}, herrors.New(herrors.CodeProtocolError, "discovery.DecodeSEDP", "SEDP payload is not PL_CDR encoded")
	}
	r := cdr.NewReader(scheme, body)
	pr := cdr.NewParameterListReader(r)
	params, err := pr.ReadAll()
	if err != nil {
		return EndpointProxy{}, herrors.Wrap(herrors.CodeProtocolError, "discovery.DecodeSEDP", err)
	}

	var e EndpointProxy
	e.Policies = qos.Default()
	for _, param := range params {
		switch param.ID {
		case cdr.PIDEndpointGUID:
			if len(param.Value) >= 16 {
				e.GUID = guid.FromBytes(param.Value[:16])
			}
		case cdr.PIDTopicName:
			sr := cdr.NewReader(cdr.SchemeCDR_LE, param.Value)
			if s, err := sr.ReadString(); err == nil {
				e.TopicName = s
			}
		case cdr.PIDTypeName:
			sr := cdr.NewReader(cdr.SchemeCDR_LE, param.Value)
			if s, err := sr.ReadString(); err == nil {
				e.TypeName = s
			}
		case cdr.PIDReliability:
			e.Policies.Reliability = decodeReliabilityParam(param.Value)
		case cdr.PIDDurability:
			e.Policies.Durability = decodeDurabilityParam(param.Value)
		case cdr.PIDPartition:
			pr := cdr.NewReader(cdr.SchemeCDR_LE, param.Value)
			if n, err := pr.ReadSequenceLen(); err == nil {
				for i := 0; i < n; i++ {
					if s, err := pr.ReadString(); err == nil {
						e.Policies.Partitions = append(e.Policies.Partitions, s)
					}
				}
			}
		case cdr.PIDUnicastLocator:
			if l, err := decodeLocator(param.Value); err == nil {
				e.UnicastLocators = append(e.UnicastLocators, l)
			}
		case cdr.PIDMulticastLocator:
			if l, err := decodeLocator(param.Value); err == nil {
				e.MulticastLocators = append(e.MulticastLocators, l)
			}
		case cdr.PIDTypeObjectLB:
			if raw, err := xtypes.DecompressTypeObject(param.Value); err == nil {
				e.TypeObjectRaw = raw
			}
		case cdr.PIDTypeInformation:
			e.TypeObjectRaw = param.Value
		}
	}
	if e.GUID.IsZero() {
		return e, herrors.New(herrors.CodeProtocolError, "discovery.DecodeSEDP", "missing PID_ENDPOINT_GUID")
	}
	return e, nil
}
