package discovery

import (
	"context"
	"time"

	"github.com/naskel/hdds/internal/logger"
	"github.com/naskel/hdds/internal/qos"
	"github.com/naskel/hdds/internal/reliability"
	"github.com/naskel/hdds/internal/rtps/guid"
	"github.com/naskel/hdds/internal/transport"
	"github.com/naskel/hdds/pkg/metrics"
)

// sedpPolicies is the fixed QoS every SEDP builtin endpoint uses,
// regardless of what any user endpoint requests: reliable delivery so no
// announcement is silently lost, TRANSIENT_LOCAL so a participant that
// joins after its peers still receives their existing endpoint
// announcements on first match (§4.2, "Dispositions signal endpoint
// removal" implies durable history, not just live broadcast).
func sedpPolicies() qos.Policies {
	p := qos.Default()
	p.Reliability = qos.Reliable
	p.Durability = qos.TransientLocal
	p.History = qos.KeepAll
	return p
}

// SEDP owns the four builtin reliable endpoints that exchange publication
// and subscription announcements between matched participants (§4.2).
type SEDP struct {
	pubW *reliability.StatefulWriter
	pubR *reliability.StatefulReader
	subW *reliability.StatefulWriter
	subR *reliability.StatefulReader

	tp      transport.Transport
	metrics metrics.DiscoveryMetrics

	onPublication  func(EndpointProxy)
	onSubscription func(EndpointProxy)
}

// NewSEDP constructs the builtin SEDP endpoint set for a participant.
// onPublication/onSubscription are invoked whenever a remote publication
// or subscription announcement is decoded, letting the caller drive
// matcher.Match against its own local endpoints.
func NewSEDP(guidPrefix guid.GUIDPrefix, vendorID [2]byte, tp transport.Transport, m metrics.DiscoveryMetrics, onPublication, onSubscription func(EndpointProxy)) *SEDP {
	histCfg := reliability.HistoryCacheConfig{History: qos.KeepAll}

	pubW := reliability.NewStatefulWriter(reliability.StatefulWriterConfig{
		WriterGUID: guid.New(guidPrefix, guid.EntityIDSEDPPubW),
		Policies:   sedpPolicies(),
		History:    histCfg,
	}, guidPrefix, vendorID)

	pubR := reliability.NewStatefulReader(reliability.StatefulReaderConfig{
		ReaderGUID: guid.New(guidPrefix, guid.EntityIDSEDPPubR),
		History:    histCfg,
	}, guidPrefix, vendorID)

	subW := reliability.NewStatefulWriter(reliability.StatefulWriterConfig{
		WriterGUID: guid.New(guidPrefix, guid.EntityIDSEDPSubW),
		Policies:   sedpPolicies(),
		History:    histCfg,
	}, guidPrefix, vendorID)

	subR := reliability.NewStatefulReader(reliability.StatefulReaderConfig{
		ReaderGUID: guid.New(guidPrefix, guid.EntityIDSEDPSubR),
		History:    histCfg,
	}, guidPrefix, vendorID)

	return &SEDP{
		pubW: pubW, pubR: pubR, subW: subW, subR: subR,
		tp: tp, metrics: m,
		onPublication: onPublication, onSubscription: onSubscription,
	}
}

// MatchParticipant binds this participant's SEDP endpoints to a newly
// discovered peer's, using its SPDP-advertised metatraffic unicast
// locators as the SEDP transport address (§4.2: "over unicast locators
// discovered via SPDP").
func (s *SEDP) MatchParticipant(peer ParticipantProxy) {
	locs := peer.MetatrafficUnicastLocators

	s.pubW.MatchReader(guid.New(peer.GUID.Prefix, guid.EntityIDSEDPPubR), locs)
	s.pubR.MatchWriter(guid.New(peer.GUID.Prefix, guid.EntityIDSEDPPubW), locs)
	s.subW.MatchReader(guid.New(peer.GUID.Prefix, guid.EntityIDSEDPSubR), locs)
	s.subR.MatchWriter(guid.New(peer.GUID.Prefix, guid.EntityIDSEDPSubW), locs)
}

// UnmatchParticipant severs SEDP bindings to a peer whose lease expired
// or who sent an explicit SPDP dispose.
func (s *SEDP) UnmatchParticipant(peer guid.GUID) {
	s.pubW.UnmatchReader(guid.New(peer.Prefix, guid.EntityIDSEDPPubR))
	s.pubR.UnmatchWriter(guid.New(peer.Prefix, guid.EntityIDSEDPPubW))
	s.subW.UnmatchReader(guid.New(peer.Prefix, guid.EntityIDSEDPSubR))
	s.subR.UnmatchWriter(guid.New(peer.Prefix, guid.EntityIDSEDPSubW))
}

// AnnouncePublication broadcasts a local DataWriter's endpoint proxy to
// every matched peer's SEDP publications reader.
func (s *SEDP) AnnouncePublication(ctx context.Context, e EndpointProxy) error {
	_, err := s.pubW.Write(ctx, s.tp, EncodeSEDP(e))
	if err == nil && s.metrics != nil {
		s.metrics.RecordSEDPAnnounce("writer")
	}
	return err
}

// AnnounceSubscription broadcasts a local DataReader's endpoint proxy to
// every matched peer's SEDP subscriptions reader.
func (s *SEDP) AnnounceSubscription(ctx context.Context, e EndpointProxy) error {
	_, err := s.subW.Write(ctx, s.tp, EncodeSEDP(e))
	if err == nil && s.metrics != nil {
		s.metrics.RecordSEDPAnnounce("reader")
	}
	return err
}

// UnannouncePublication writes an unregistered disposition for a local
// DataWriter being torn down, so matched peers drop their ReaderProxy
// for it instead of waiting out its lease.
func (s *SEDP) UnannouncePublication(ctx context.Context, e EndpointProxy) error {
	_, err := s.pubW.WriteDisposition(ctx, s.tp, EncodeSEDP(e), false, true)
	return err
}

// UnannounceSubscription writes an unregistered disposition for a local
// DataReader being torn down.
func (s *SEDP) UnannounceSubscription(ctx context.Context, e EndpointProxy) error {
	_, err := s.subW.WriteDisposition(ctx, s.tp, EncodeSEDP(e), false, true)
	return err
}

// RunReliability starts the HEARTBEAT timers for both local SEDP writers;
// stops when ctx is cancelled (§5, "SEDP reliability (HEARTBEAT + GAP)").
func (s *SEDP) RunReliability(ctx context.Context) {
	go s.pubW.RunHeartbeats(ctx, s.tp)
	go s.subW.RunHeartbeats(ctx, s.tp)
}

// HandleMessage dispatches a raw RTPS message addressed to one of the
// four SEDP builtin entities, decoding DATA/DATA_FRAG into the matching
// reader and ACKNACK/HEARTBEAT/GAP into the matching writer or reader
// proxy as appropriate.
func (s *SEDP) HandleMessage(ctx context.Context, from guid.GUID, raw []byte) error {
	_, subs, err := reliability.DecodeMessage(raw)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		switch sub.Header.ID {
		case reliability.SubmsgData:
			s.dispatchData(from, sub)
		case reliability.SubmsgDataFrag:
			s.dispatchDataFrag(from, sub)
		case reliability.SubmsgHeartbeat:
			s.dispatchHeartbeat(ctx, from, sub)
		case reliability.SubmsgAckNack:
			s.dispatchAckNack(ctx, from, sub)
		case reliability.SubmsgGap:
			s.dispatchGap(from, sub)
		}
	}
	return nil
}

func (s *SEDP) dispatchData(from guid.GUID, sub reliability.RawSubmessage) {
	d, err := reliability.DecodeData(sub.Header.Flags&0x2 != 0, sub.Header.Flags&0x4 != 0, sub.Body)
	if err != nil || len(d.SerializedPayload) == 0 {
		return
	}
	switch d.ReaderID {
	case guid.EntityIDSEDPPubR:
		s.pubR.OnData(guid.New(from.Prefix, guid.EntityIDSEDPPubW), d)
		s.deliverPublication(d.SerializedPayload)
	case guid.EntityIDSEDPSubR:
		s.subR.OnData(guid.New(from.Prefix, guid.EntityIDSEDPSubW), d)
		s.deliverSubscription(d.SerializedPayload)
	}
}

func (s *SEDP) dispatchDataFrag(from guid.GUID, sub reliability.RawSubmessage) {
	df, err := reliability.DecodeDataFrag(sub.Body)
	if err != nil {
		return
	}
	switch df.ReaderID {
	case guid.EntityIDSEDPPubR:
		s.pubR.OnDataFrag(guid.New(from.Prefix, guid.EntityIDSEDPPubW), df)
	case guid.EntityIDSEDPSubR:
		s.subR.OnDataFrag(guid.New(from.Prefix, guid.EntityIDSEDPSubW), df)
	}
}

func (s *SEDP) dispatchHeartbeat(ctx context.Context, from guid.GUID, sub reliability.RawSubmessage) {
	hb, err := reliability.DecodeHeartbeat(sub.Header.Flags, sub.Body)
	if err != nil {
		return
	}
	switch hb.WriterID {
	case guid.EntityIDSEDPPubW:
		s.pubR.OnHeartbeat(ctx, s.tp, guid.New(from.Prefix, guid.EntityIDSEDPPubW), hb)
	case guid.EntityIDSEDPSubW:
		s.subR.OnHeartbeat(ctx, s.tp, guid.New(from.Prefix, guid.EntityIDSEDPSubW), hb)
	}
}

func (s *SEDP) dispatchAckNack(ctx context.Context, from guid.GUID, sub reliability.RawSubmessage) {
	an, err := reliability.DecodeAckNack(sub.Header.Flags, sub.Body)
	if err != nil {
		return
	}
	switch an.WriterID {
	case guid.EntityIDSEDPPubW:
		s.pubW.OnAckNack(ctx, s.tp, guid.New(from.Prefix, guid.EntityIDSEDPPubR), an)
	case guid.EntityIDSEDPSubW:
		s.subW.OnAckNack(ctx, s.tp, guid.New(from.Prefix, guid.EntityIDSEDPSubR), an)
	}
}

func (s *SEDP) dispatchGap(from guid.GUID, sub reliability.RawSubmessage) {
	g, err := reliability.DecodeGap(sub.Body)
	if err != nil {
		return
	}
	switch g.WriterID {
	case guid.EntityIDSEDPPubW:
		s.pubR.OnGap(guid.New(from.Prefix, guid.EntityIDSEDPPubW), g)
	case guid.EntityIDSEDPSubW:
		s.subR.OnGap(guid.New(from.Prefix, guid.EntityIDSEDPSubW), g)
	}
}

func (s *SEDP) deliverPublication(payload []byte) {
	e, err := DecodeSEDP(payload)
	if err != nil {
		logger.Debug("SEDP publication decode failed", logger.Err(err))
		return
	}
	if s.metrics != nil {
		s.metrics.RecordSEDPReceive("writer")
	}
	if s.onPublication != nil {
		s.onPublication(e)
	}
}

func (s *SEDP) deliverSubscription(payload []byte) {
	e, err := DecodeSEDP(payload)
	if err != nil {
		logger.Debug("SEDP subscription decode failed", logger.Err(err))
		return
	}
	if s.metrics != nil {
		s.metrics.RecordSEDPReceive("reader")
	}
	if s.onSubscription != nil {
		s.onSubscription(e)
	}
}

// SweepFragments sweeps both SEDP readers' fragment reassemblers, meant
// to be called from the participant's shared cleanup tick.
func (s *SEDP) SweepFragments(now time.Time) int {
	return s.pubR.SweepFragments(now) + s.subR.SweepFragments(now)
}
