package discovery

import (
	"context"
	"time"

	"github.com/naskel/hdds/internal/logger"
	"github.com/naskel/hdds/internal/reliability"
	"github.com/naskel/hdds/internal/rtps/guid"
	"github.com/naskel/hdds/internal/transport"
	"github.com/naskel/hdds/pkg/metrics"
)

// Announcer periodically broadcasts this participant's SPDP proxy over
// the metatraffic transport. SPDP is always best-effort (§4.1): no
// HEARTBEAT/ACKNACK machinery, just an unacknowledged DATA submessage
// repeated on a timer, cheap enough that lost announcements are simply
// caught by the next tick.
type Announcer struct {
	tp         transport.Transport
	guidPrefix guid.GUIDPrefix
	vendorID   [2]byte
	period     time.Duration
	locators   []guid.Locator
	snapshot   func() ParticipantProxy
	metrics    metrics.DiscoveryMetrics
	seq        guid.SequenceNumber
}

// NewAnnouncer creates an Announcer sending to locators (typically the
// domain's metatraffic multicast group plus any configured discovery
// servers) every period. snapshot supplies the current ParticipantProxy
// content on each tick, since lease/locators may evolve as the
// participant's endpoints change.
func NewAnnouncer(tp transport.Transport, guidPrefix guid.GUIDPrefix, vendorID [2]byte, locators []guid.Locator, period time.Duration, snapshot func() ParticipantProxy, m metrics.DiscoveryMetrics) *Announcer {
	return &Announcer{
		tp:         tp,
		guidPrefix: guidPrefix,
		vendorID:   vendorID,
		period:     period,
		locators:   locators,
		snapshot:   snapshot,
		metrics:    m,
	}
}

// Run loops until ctx is cancelled, sending one SPDP announcement per
// tick and once immediately on entry so peers don't wait a full period
// to learn about a freshly started participant.
func (a *Announcer) Run(ctx context.Context) {
	a.announceOnce(ctx)
	ticker := time.NewTicker(a.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.announceOnce(ctx)
		}
	}
}

func (a *Announcer) announceOnce(ctx context.Context) {
	a.seq++
	payload := EncodeSPDP(a.snapshot())
	header := reliability.MessageHeader{VersionMajor: 2, VersionMinor: 5, VendorID: a.vendorID, GuidPrefix: a.guidPrefix}
	d := reliability.Data{
		ReaderID:          guid.EntityIDUnknown,
		WriterID:          guid.EntityIDSPDPWriter,
		WriterSN:          a.seq,
		SerializedPayload: payload,
	}
	msg := reliability.BuildMessage(header,
		reliability.EncodedSubmessage{ID: reliability.SubmsgData, Flags: reliability.DataFlags(d), Body: reliability.EncodeData(d)},
	)
	for _, loc := range a.locators {
		if err := a.tp.Send(ctx, loc, msg); err != nil {
			logger.WarnCtx(ctx, "SPDP announce send failed", logger.Locator(loc.String()), logger.Err(err))
			continue
		}
	}
	if a.metrics != nil {
		a.metrics.RecordSPDPAnnounce()
	}
}

// Receiver decodes inbound SPDP DATA submessages and feeds discovered
// proxies into a ParticipantDB, skipping announcements from the local
// participant itself.
type Receiver struct {
	db           *ParticipantDB
	localPrefix  guid.GUIDPrefix
	metrics      metrics.DiscoveryMetrics
	onDiscovered func(ParticipantProxy, bool)
}

// NewReceiver creates a Receiver. onDiscovered, if non-nil, is invoked
// after every successful Upsert with the proxy and whether it was newly
// seen, giving the participant runtime a hook to kick off SEDP matching
// for a new peer.
func NewReceiver(db *ParticipantDB, localPrefix guid.GUIDPrefix, m metrics.DiscoveryMetrics, onDiscovered func(ParticipantProxy, bool)) *Receiver {
	return &Receiver{db: db, localPrefix: localPrefix, metrics: m, onDiscovered: onDiscovered}
}

// HandleMessage parses a raw RTPS message addressed to the SPDP builtin
// reader and upserts any participant proxies found in its DATA
// submessages. Malformed submessages are logged and skipped rather than
// failing the whole message, matching SPDP's best-effort nature.
func (r *Receiver) HandleMessage(raw []byte) error {
	header, subs, err := reliability.DecodeMessage(raw)
	if err != nil {
		return err
	}
	if header.GuidPrefix == r.localPrefix {
		return nil // loopback of our own multicast announcement
	}
	for _, sub := range subs {
		if sub.Header.ID != reliability.SubmsgData {
			continue
		}
		d, err := reliability.DecodeData(sub.Header.Flags&0x2 != 0, sub.Header.Flags&0x4 != 0, sub.Body)
		if err != nil {
			logger.Debug("SPDP DATA decode failed", logger.Err(err))
			continue
		}
		if len(d.SerializedPayload) == 0 {
			continue
		}
		proxy, err := DecodeSPDP(d.SerializedPayload)
		if err != nil {
			logger.Debug("SPDP payload decode failed", logger.Err(err))
			continue
		}
		if r.metrics != nil {
			r.metrics.RecordSPDPReceive()
		}
		isNew := r.db.Upsert(proxy)
		if r.onDiscovered != nil {
			r.onDiscovered(proxy, isNew)
		}
	}
	return nil
}
