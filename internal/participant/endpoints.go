package participant

import (
	"context"
	"time"

	"github.com/naskel/hdds/internal/discovery"
	"github.com/naskel/hdds/internal/discovery/dialect"
	"github.com/naskel/hdds/internal/endpoint"
	"github.com/naskel/hdds/internal/herrors"
	"github.com/naskel/hdds/internal/qos"
	"github.com/naskel/hdds/internal/reliability"
	"github.com/naskel/hdds/internal/rtps/guid"
)

// dispatchUserData routes an already-decoded message's submessages to the
// locally owned writer/reader their ReaderID/WriterID address, mirroring
// SEDP's own dispatch* methods but generalized over every
// participant-created endpoint instead of four fixed builtin ones.
func (p *Participant) dispatchUserData(ctx context.Context, header reliability.MessageHeader, subs []reliability.RawSubmessage) {
	from := header.GuidPrefix
	for _, sub := range subs {
		switch sub.Header.ID {
		case reliability.SubmsgData:
			d, err := reliability.DecodeData(sub.Header.Flags&0x2 != 0, sub.Header.Flags&0x4 != 0, sub.Body)
			if err != nil {
				continue
			}
			if lr, ok := p.registry.reader(d.ReaderID); ok {
				lr.rr.OnData(guid.New(from, d.WriterID), d)
			}
		case reliability.SubmsgDataFrag:
			df, err := reliability.DecodeDataFrag(sub.Body)
			if err != nil {
				continue
			}
			if lr, ok := p.registry.reader(df.ReaderID); ok {
				lr.rr.OnDataFrag(guid.New(from, df.WriterID), df)
			}
		case reliability.SubmsgHeartbeat:
			hb, err := reliability.DecodeHeartbeat(sub.Header.Flags, sub.Body)
			if err != nil {
				continue
			}
			if lr, ok := p.registry.reader(hb.ReaderID); ok {
				lr.rr.OnHeartbeat(ctx, p.dataTP, guid.New(from, hb.WriterID), hb)
			}
		case reliability.SubmsgAckNack:
			an, err := reliability.DecodeAckNack(sub.Header.Flags, sub.Body)
			if err != nil {
				continue
			}
			if lw, ok := p.registry.writer(an.WriterID); ok {
				lw.rw.OnAckNack(ctx, p.dataTP, guid.New(from, an.ReaderID), an)
			}
		case reliability.SubmsgGap:
			g, err := reliability.DecodeGap(sub.Body)
			if err != nil {
				continue
			}
			if lr, ok := p.registry.reader(g.ReaderID); ok {
				lr.rr.OnGap(guid.New(from, g.WriterID), g)
			}
		}
	}
}

// defaultEndpointCleanupDelay is SERVICE_CLEANUP_DELAY for writers whose
// durability retains disposed/unregistered history past ordinary
// delivery, absent a per-topic override.
const defaultEndpointCleanupDelay = 30 * time.Second

// CreateDataWriter allocates a new writer entity, registers it with the
// local endpoint registry, and announces it over SEDP so matched readers
// on already-discovered peers bind immediately (§4.7 step 5).
func CreateDataWriter[T any, PT interface {
	*T
	endpoint.Sample
}](p *Participant, topic, typeName string, policies qos.Policies) (*endpoint.DataWriter[T, PT], error) {
	entityID := p.nextEntityID(guid.KindUserWriter)
	writerGUID := guid.New(p.guidPrefix, entityID)

	rw := reliability.NewStatefulWriter(reliability.StatefulWriterConfig{
		WriterGUID: writerGUID,
		Policies:   policies,
		History:    reliability.HistoryCacheConfig{History: policies.History, Depth: policies.HistoryDepth},
		Metrics:    p.reliabilityMetrics,
	}, p.guidPrefix, dialect.VendorIDHDDS)

	if policies.Durability == qos.TransientLocal || policies.Durability == qos.Transient || policies.Durability == qos.Persistent {
		ct := reliability.NewCleanupTimer(rw.History(), policies.Durability, defaultEndpointCleanupDelay)
		p.cleanupMu.Lock()
		p.cleanups = append(p.cleanups, ct)
		p.cleanupMu.Unlock()
		go ct.Run(context.Background())
	}
	go rw.RunHeartbeats(context.Background(), p.dataTP)

	proxy := discovery.EndpointProxy{
		GUID:            writerGUID,
		TopicName:       topic,
		TypeName:        typeName,
		Policies:        policies,
		UnicastLocators: p.dataTP.LocalLocators(),
	}
	lw := &localWriter{rw: rw, topic: topic, typeName: typeName, proxy: proxy}
	p.registry.addWriter(entityID, lw)
	p.attachSHMWriter(context.Background(), lw)

	if err := p.sedp.AnnouncePublication(context.Background(), proxy); err != nil {
		return nil, herrors.Wrap(herrors.CodeTransport, "participant.CreateDataWriter", err)
	}

	dw := endpoint.NewDataWriter[T, PT](topic, typeName, policies, schemeFor(policies.DataRepresentation), rw, p.dataTP)
	go dw.RunDeadlineWatchdog(context.Background())
	go dw.RunLivelinessWatchdog(context.Background())
	return dw, nil
}

// CreateDataReader allocates a new reader entity, registers it with the
// local endpoint registry, and announces it over SEDP.
func CreateDataReader[T any, PT interface {
	*T
	endpoint.Sample
}](p *Participant, topic, typeName string, policies qos.Policies) (*endpoint.DataReader[T, PT], error) {
	entityID := p.nextEntityID(guid.KindUserReader)
	readerGUID := guid.New(p.guidPrefix, entityID)

	rr := reliability.NewStatefulReader(reliability.StatefulReaderConfig{
		ReaderGUID: readerGUID,
		History:    reliability.HistoryCacheConfig{History: policies.History, Depth: policies.HistoryDepth},
		Metrics:    p.reliabilityMetrics,
	}, p.guidPrefix, dialect.VendorIDHDDS)

	proxy := discovery.EndpointProxy{
		GUID:            readerGUID,
		TopicName:       topic,
		TypeName:        typeName,
		Policies:        policies,
		UnicastLocators: p.dataTP.LocalLocators(),
	}
	p.registry.addReader(entityID, &localReader{rr: rr, topic: topic, typeName: typeName, proxy: proxy})

	if err := p.sedp.AnnounceSubscription(context.Background(), proxy); err != nil {
		return nil, herrors.Wrap(herrors.CodeTransport, "participant.CreateDataReader", err)
	}

	dr := endpoint.NewDataReader[T, PT](topic, typeName, policies, schemeFor(policies.DataRepresentation), rr)
	if policies.Ownership == qos.Exclusive {
		for _, lw := range p.registry.writersSnapshot() {
			if lw.proxy.TopicName == topic && lw.proxy.Policies.OwnershipStrength != 0 {
				dr.SetWriterStrength(lw.proxy.GUID, lw.proxy.Policies.OwnershipStrength)
			}
		}
	}
	go dr.RunDeadlineWatchdog(context.Background())
	return dr, nil
}
