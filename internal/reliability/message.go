package reliability

import "github.com/naskel/hdds/internal/herrors"

// RawSubmessage is one decoded submessage still in wire form, handed to
// the appropriate Decode* function by the caller once it knows which
// kind it expects (discovery vs. user-data dispatch differ only in which
// EntityID ranges they route to).
type RawSubmessage struct {
	Header SubmessageHeader
	Body   []byte
}

// EncodedSubmessage is a submessage ready to append to a Message: the
// kind/flags plus its pre-serialized body.
type EncodedSubmessage struct {
	ID    SubmsgKind
	Flags byte
	Body  []byte
}

// BuildMessage assembles a full RTPS message: the 20-byte header followed
// by each submessage's own 4-byte header and body.
func BuildMessage(header MessageHeader, submessages ...EncodedSubmessage) []byte {
	size := MessageHeaderLen
	for _, s := range submessages {
		size += SubmessageHeaderLen + len(s.Body)
	}
	buf := make([]byte, 0, size)
	buf = header.Encode(buf)
	for _, s := range submessages {
		sh := SubmessageHeader{ID: s.ID, Flags: s.Flags, OctetsToNextHeader: uint16(len(s.Body))}
		buf = sh.Encode(buf)
		buf = append(buf, s.Body...)
	}
	return buf
}

// DecodeMessage splits buf into its header and the sequence of raw
// submessages it carries. Submessage bodies are not interpreted here;
// callers re-dispatch on Header.ID.
func DecodeMessage(buf []byte) (MessageHeader, []RawSubmessage, error) {
	header, rest, err := DecodeMessageHeader(buf)
	if err != nil {
		return MessageHeader{}, nil, err
	}
	var out []RawSubmessage
	for len(rest) > 0 {
		sh, tail, err := DecodeSubmessageHeader(rest)
		if err != nil {
			return header, out, err
		}
		if sh.ID == SubmsgPad && sh.OctetsToNextHeader == 0 {
			break
		}
		if int(sh.OctetsToNextHeader) > len(tail) {
			return header, out, herrors.New(herrors.CodeProtocolError, "reliability.DecodeMessage", "submessage length exceeds remaining buffer")
		}
		body := tail[:sh.OctetsToNextHeader]
		out = append(out, RawSubmessage{Header: sh, Body: body})
		rest = tail[sh.OctetsToNextHeader:]
	}
	return header, out, nil
}
