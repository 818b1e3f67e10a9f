package participant

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-uuid"

	"github.com/naskel/hdds/internal/discovery"
	"github.com/naskel/hdds/internal/discovery/dialect"
	"github.com/naskel/hdds/internal/endpoint"
	"github.com/naskel/hdds/internal/herrors"
	"github.com/naskel/hdds/internal/logger"
	"github.com/naskel/hdds/internal/qos"
	"github.com/naskel/hdds/internal/reliability"
	"github.com/naskel/hdds/internal/rtps/cdr"
	"github.com/naskel/hdds/internal/rtps/guid"
	"github.com/naskel/hdds/internal/transport"
	"github.com/naskel/hdds/pkg/metrics"
)

// Participant is one running DDS domain participant: bound metatraffic
// and user-data transports, the SPDP/SEDP discovery machinery, the
// locally owned reliable endpoints, and the control threads that keep
// all of it alive (§4.7).
type Participant struct {
	cfg        Config
	guidPrefix guid.GUIDPrefix
	ports      PortMapping

	metaTP transport.Transport
	dataTP transport.Transport

	db       *discovery.ParticipantDB
	sedp     *discovery.SEDP
	announcer *discovery.Announcer
	receiver *discovery.Receiver
	gossip   *discovery.GossipTable
	probes   *dialect.ProbeTable
	hotswap  *dialect.Hotswap

	registry *LocalEndpointRegistry

	discoveryMetrics   metrics.DiscoveryMetrics
	reliabilityMetrics metrics.ReliabilityMetrics

	relayLocators []guid.Locator

	nextEntityKey uint32

	cleanupMu sync.Mutex
	cleanups  []*reliability.CleanupTimer

	cancel context.CancelFunc
	wg     sync.WaitGroup

	closed atomic.Bool
}

// Build computes the port mapping, binds the required sockets (probing
// successive participant indices when a port pair is already in use),
// constructs the discovery and local-endpoint state, and returns a
// Participant ready for Run. It does not start any goroutines itself
// (§4.7 step 1-3).
func Build(cfg Config) (*Participant, error) {
	cfg.applyDefaults()

	prefix, err := newGUIDPrefix()
	if err != nil {
		return nil, herrors.Wrap(herrors.CodeFatal, "participant.Build", err)
	}

	var metaTP, dataTP transport.Transport
	var ports PortMapping
	var bindErr error

	for idx := uint32(0); idx < maxParticipantIndexProbe; idx++ {
		ports = ComputePortMapping(cfg.Domain, idx)
		metaTP, dataTP, bindErr = bindTransports(cfg, ports)
		if bindErr == nil {
			break
		}
		logger.Debug("participant index probe failed, trying next offset",
			logger.Attempt(int(idx)), logger.Err(bindErr))
	}
	if bindErr != nil {
		return nil, herrors.Wrap(herrors.CodeConfiguration, "participant.Build", bindErr)
	}

	discoveryMetrics := metrics.NewDiscoveryMetrics()
	reliabilityMetrics := metrics.NewReliabilityMetrics()

	p := &Participant{
		cfg:                cfg,
		guidPrefix:         prefix,
		ports:              ports,
		metaTP:             metaTP,
		dataTP:             dataTP,
		db:                 discovery.NewParticipantDB(discoveryMetrics),
		gossip:             discovery.NewGossipTable(),
		probes:             dialect.NewProbeTable(cfg.DialectProbeWindow, cfg.DialectProbeTimeout),
		hotswap:            dialect.NewHotswap(),
		registry:           NewLocalEndpointRegistry(),
		discoveryMetrics:   discoveryMetrics,
		reliabilityMetrics: reliabilityMetrics,
	}

	for _, srv := range cfg.DiscoveryServers {
		if loc, ok := parseDiscoveryServerLocator(srv); ok {
			p.relayLocators = append(p.relayLocators, loc)
		}
	}

	p.sedp = discovery.NewSEDP(p.guidPrefix, dialect.VendorIDHDDS, p.metaTP, discoveryMetrics, p.onRemotePublication, p.onRemoteSubscription)
	p.receiver = discovery.NewReceiver(p.db, p.guidPrefix, discoveryMetrics, p.onParticipantDiscovered)
	p.announcer = discovery.NewAnnouncer(p.metaTP, p.guidPrefix, dialect.VendorIDHDDS, p.announceLocators(), cfg.AnnouncePeriod, p.spdpSnapshot, discoveryMetrics)

	return p, nil
}

// newGUIDPrefix draws 12 random bytes for this process's participant-
// scoped GUID prefix.
func newGUIDPrefix() (guid.GUIDPrefix, error) {
	var prefix guid.GUIDPrefix
	raw, err := uuid.GenerateRandomBytes(len(prefix))
	if err != nil {
		return prefix, err
	}
	copy(prefix[:], raw)
	return prefix, nil
}

func bindTransports(cfg Config, ports PortMapping) (meta, data transport.Transport, err error) {
	switch cfg.TransportKind {
	case transport.KindTCP:
		meta, err = transport.NewTCP(transport.TCPConfig{ListenAddr: fmt.Sprintf(":%d", ports.MetatrafficUnicast)})
		if err != nil {
			return nil, nil, err
		}
		data, err = transport.NewTCP(transport.TCPConfig{ListenAddr: fmt.Sprintf(":%d", ports.UserDataUnicast)})
		if err != nil {
			meta.Close()
			return nil, nil, err
		}
		return meta, data, nil
	case transport.KindQUIC:
		meta, err = transport.NewQUIC(transport.QUICConfig{ListenAddr: fmt.Sprintf(":%d", ports.MetatrafficUnicast)})
		if err != nil {
			return nil, nil, err
		}
		data, err = transport.NewQUIC(transport.QUICConfig{ListenAddr: fmt.Sprintf(":%d", ports.UserDataUnicast)})
		if err != nil {
			meta.Close()
			return nil, nil, err
		}
		return meta, data, nil
	default:
		meta, err = transport.NewUDP(transport.UDPConfig{
			UnicastPort:   ports.MetatrafficUnicast,
			MulticastAddr: cfg.MulticastAddr,
			MulticastPort: ports.MetatrafficMulticast,
			TTL:           cfg.MulticastTTL,
			Interfaces:    cfg.Interfaces,
		})
		if err != nil {
			return nil, nil, err
		}
		data, err = transport.NewUDP(transport.UDPConfig{
			UnicastPort:   ports.UserDataUnicast,
			MulticastAddr: cfg.MulticastAddr,
			MulticastPort: ports.UserDataMulticast,
			TTL:           cfg.MulticastTTL,
			Interfaces:    cfg.Interfaces,
		})
		if err != nil {
			meta.Close()
			return nil, nil, err
		}
		return meta, data, nil
	}
}

func (p *Participant) announceLocators() []guid.Locator {
	locators := []guid.Locator{guid.NewUDPv4Locator(multicastIP(p.cfg.MulticastAddr), p.ports.MetatrafficMulticast)}
	return append(locators, p.relayLocators...)
}

// fromRelay reports whether src matches a configured discovery-server
// locator, meaning the packet may be a relayed re-announcement the
// gossip table should de-duplicate (§4.1 discovery-server anti-loop
// guard).
func (p *Participant) fromRelay(src guid.Locator) bool {
	for _, loc := range p.relayLocators {
		if loc.Equal(src) {
			return true
		}
	}
	return false
}

func (p *Participant) spdpSnapshot() discovery.ParticipantProxy {
	return discovery.ParticipantProxy{
		GUID:                         guid.New(p.guidPrefix, guid.EntityIDParticipant),
		ProtocolVersionMajor:         2,
		ProtocolVersionMinor:         5,
		VendorID:                    dialect.VendorIDHDDS,
		MetatrafficUnicastLocators:   p.metaTP.LocalLocators(),
		MetatrafficMulticastLocators: []guid.Locator{guid.NewUDPv4Locator(multicastIP(p.cfg.MulticastAddr), p.ports.MetatrafficMulticast)},
		DefaultUnicastLocators:       p.dataTP.LocalLocators(),
		DefaultMulticastLocators:     []guid.Locator{guid.NewUDPv4Locator(multicastIP(p.cfg.MulticastAddr), p.ports.UserDataMulticast)},
		LeaseDuration:                p.cfg.LeaseDuration,
		ParticipantName:              p.cfg.Name,
	}
}

// Run spawns the listener and control threads and blocks until ctx is
// cancelled, at which point it tears everything down gracefully
// (§4.7 steps 3-4 and shutdown).
func (p *Participant) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go func() { defer p.wg.Done(); p.listen(ctx, p.metaTP) }()
	p.wg.Add(1)
	go func() { defer p.wg.Done(); p.listen(ctx, p.dataTP) }()

	p.wg.Add(1)
	go func() { defer p.wg.Done(); p.announcer.Run(ctx) }()
	p.wg.Add(1)
	go func() { defer p.wg.Done(); p.sedp.RunReliability(ctx) }()
	p.wg.Add(1)
	go func() { defer p.wg.Done(); p.db.RunLeaseSweeper(ctx.Done()) }()
	p.wg.Add(1)
	go func() { defer p.wg.Done(); p.runGossipSweeper(ctx) }()
	p.wg.Add(1)
	go func() { defer p.wg.Done(); p.runFragmentSweeper(ctx) }()

	<-ctx.Done()
	p.shutdown()
}

func (p *Participant) runGossipSweeper(ctx context.Context) {
	ticker := time.NewTicker(gossipSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			p.gossip.Sweep(now)
		}
	}
}

func (p *Participant) runFragmentSweeper(ctx context.Context) {
	ticker := time.NewTicker(fragmentSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			p.sedp.SweepFragments(now)
			for _, r := range p.registry.Readers() {
				r.SweepFragments(now)
			}
		}
	}
}

const (
	gossipSweepInterval   = time.Minute
	fragmentSweepInterval = time.Second
)

// listen runs one transport's receive loop, dispatching every inbound
// message to the SPDP receiver, the SEDP endpoint set, and this
// participant's own reliable endpoints. Every handler inspects the
// message's reader/writer IDs and ignores submessages not addressed to
// it, so passing every packet through every handler is safe and mirrors
// how SEDP itself dispatches across its four builtin endpoints.
func (p *Participant) listen(ctx context.Context, tp transport.Transport) {
	for {
		pkt, err := tp.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.WarnCtx(ctx, "transport receive failed", logger.Err(err))
			continue
		}
		p.dispatch(ctx, pkt)
	}
}

func (p *Participant) dispatch(ctx context.Context, pkt transport.Packet) {
	header, subs, err := reliability.DecodeMessage(pkt.Data)
	if err != nil {
		logger.Debug("malformed RTPS message dropped", logger.Err(err))
		return
	}
	if header.GuidPrefix == p.guidPrefix {
		return // loopback of our own multicast send
	}
	from := guid.GUID{Prefix: header.GuidPrefix}

	if p.fromRelay(pkt.Source) && !p.admitRelayed(from, subs) {
		return // already relayed once within the gossip TTL window
	}

	now := time.Now()
	p.probes.Observe(from, header.VendorID, now)
	if variant := p.probes.Variant(from); variant != dialect.VariantHybrid {
		p.db.SetDialect(from, string(variant))
		if p.hotswap.Active(from) != variant {
			p.hotswap.Consider(from, variant, now)
			if p.discoveryMetrics != nil {
				p.discoveryMetrics.RecordDialectDetected(string(variant))
			}
		} else {
			p.hotswap.ObserveDuringOverlap(from, variant, now)
		}
	}

	if err := p.receiver.HandleMessage(pkt.Data); err != nil {
		logger.Debug("SPDP dispatch failed", logger.Err(err))
	}
	if err := p.sedp.HandleMessage(ctx, from, pkt.Data); err != nil {
		logger.Debug("SEDP dispatch failed", logger.Err(err))
	}
	p.dispatchUserData(ctx, header, subs)
}

// admitRelayed applies the gossip anti-loop guard to a message that
// arrived via a configured discovery-server relay, keyed on the first
// DATA submessage's (origin, sequence) pair.
func (p *Participant) admitRelayed(origin guid.GUID, subs []reliability.RawSubmessage) bool {
	for _, sub := range subs {
		if sub.Header.ID != reliability.SubmsgData {
			continue
		}
		d, err := reliability.DecodeData(sub.Header.Flags&0x2 != 0, sub.Header.Flags&0x4 != 0, sub.Body)
		if err != nil {
			continue
		}
		return p.gossip.Admit(origin, d.WriterSN, time.Now())
	}
	return true
}

func (p *Participant) onParticipantDiscovered(peer discovery.ParticipantProxy, isNew bool) {
	if !isNew {
		return
	}
	p.sedp.MatchParticipant(peer)
	for _, proxy := range p.registry.WriterProxies() {
		_ = p.sedp.AnnouncePublication(context.Background(), proxy)
	}
	for _, proxy := range p.registry.ReaderProxies() {
		_ = p.sedp.AnnounceSubscription(context.Background(), proxy)
	}
}

func (p *Participant) onRemotePublication(ep discovery.EndpointProxy) {
	for _, lr := range p.registry.readersSnapshot() {
		if result := discovery.Match(ep, lr.proxy); result.Compatible {
			lr.rr.MatchWriter(ep.GUID, ep.UnicastLocators)
			p.attachSHMReader(context.Background(), lr, ep.GUID)
		}
	}
}

func (p *Participant) onRemoteSubscription(ep discovery.EndpointProxy) {
	for _, lw := range p.registry.writersSnapshot() {
		if result := discovery.Match(lw.proxy, ep); result.Compatible {
			lw.rw.MatchReader(ep.GUID, ep.UnicastLocators)
		}
	}
}

// shutdown stops every control thread, disposes every local endpoint over
// SEDP, and closes both transports (§4.7 shutdown).
func (p *Participant) shutdown() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	p.cleanupMu.Lock()
	for _, c := range p.cleanups {
		c.Stop()
	}
	p.cleanupMu.Unlock()

	disposeCtx, disposeCancel := context.WithTimeout(context.Background(), 2*time.Second)
	for _, proxy := range p.registry.WriterProxies() {
		if err := p.sedp.UnannouncePublication(disposeCtx, proxy); err != nil {
			logger.Debug("SEDP writer disposal failed", logger.Err(err))
		}
	}
	for _, proxy := range p.registry.ReaderProxies() {
		if err := p.sedp.UnannounceSubscription(disposeCtx, proxy); err != nil {
			logger.Debug("SEDP reader disposal failed", logger.Err(err))
		}
	}
	disposeCancel()

	p.wg.Wait()
	_ = p.metaTP.Close()
	_ = p.dataTP.Close()
}

// Close cancels the participant's context, for callers driving Run in a
// background goroutine; Run then performs the shutdown and returns. Close
// itself returns without waiting for that shutdown to finish.
func (p *Participant) Close() {
	if p.cancel != nil {
		p.cancel()
	}
}

// GUID returns this participant's own GUID.
func (p *Participant) GUID() guid.GUID { return guid.New(p.guidPrefix, guid.EntityIDParticipant) }

// Discovery exposes the participant's discovered-peer database, for
// read-only inspection by the admin snapshot API.
func (p *Participant) Discovery() *discovery.ParticipantDB { return p.db }

// Registry exposes the participant's local endpoint registry, for
// read-only inspection by the admin snapshot API.
func (p *Participant) Registry() *LocalEndpointRegistry { return p.registry }

// Domain returns the configured domain ID.
func (p *Participant) Domain() uint32 { return p.cfg.Domain }

// HotswapCounters reports dialect hotswap overlap counters for peer,
// for the admin snapshot API's participant detail view.
func (p *Participant) HotswapCounters(peer guid.GUID) dialect.OverlapCounters {
	return p.hotswap.Counters(peer)
}

func (p *Participant) nextEntityID(kind guid.EntityKind) guid.EntityID {
	key := atomic.AddUint32(&p.nextEntityKey, 1)
	return guid.EntityID{byte(key >> 16), byte(key >> 8), byte(key), byte(kind)}
}

func schemeFor(rep qos.DataRepresentation) cdr.Scheme {
	if rep == qos.XCDR2 {
		return cdr.SchemeCDR2_LE
	}
	return cdr.SchemeCDR_LE
}

