package transport

import (
	"context"
	"net"
	"sync"
	"time"

	"golang.org/x/net/ipv4"

	"github.com/naskel/hdds/internal/herrors"
	"github.com/naskel/hdds/internal/logger"
	"github.com/naskel/hdds/internal/rtps/guid"
)

// readDeadlinePoll bounds each blocking read so the listener can notice
// cancellation promptly, mirroring the teacher's portmapper UDP loop.
const readDeadlinePoll = 200 * time.Millisecond

// UDPConfig configures a UDP transport instance.
type UDPConfig struct {
	UnicastPort   uint32
	MulticastAddr string // e.g. "239.255.0.1"
	MulticastPort uint32
	TTL           int // multicast TTL, default 1
	Interfaces    InterfaceFilter
}

// UDP implements Transport over a unicast socket plus, optionally, a
// multicast group joined across every allowed interface.
type UDP struct {
	cfg UDPConfig

	uconn  *net.UDPConn
	mconn  *ipv4.PacketConn
	mraw   *net.UDPConn
	maddr  *net.UDPAddr

	locators []guid.Locator

	closeOnce sync.Once
	closed    chan struct{}
}

// NewUDP binds the unicast socket and, if MulticastAddr is set, joins the
// multicast group on every interface the filter allows — tolerating
// EADDRINUSE and individual interface failures (§4.3).
func NewUDP(cfg UDPConfig) (*UDP, error) {
	u := &UDP{cfg: cfg, closed: make(chan struct{})}

	uaddr := &net.UDPAddr{Port: int(cfg.UnicastPort)}
	uconn, err := net.ListenUDP("udp4", uaddr)
	if err != nil {
		return nil, herrors.Wrap(herrors.CodeTransport, "transport.NewUDP", err)
	}
	u.uconn = uconn
	u.locators = append(u.locators, guid.NewUDPv4Locator(localIP(), uint32(uconn.LocalAddr().(*net.UDPAddr).Port)))

	if cfg.MulticastAddr != "" {
		if err := u.joinMulticast(); err != nil {
			logger.Warn("multicast join failed, continuing unicast-only", logger.Err(err))
		}
	}

	return u, nil
}

func (u *UDP) joinMulticast() error {
	maddr := &net.UDPAddr{IP: net.ParseIP(u.cfg.MulticastAddr), Port: int(u.cfg.MulticastPort)}
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: int(u.cfg.MulticastPort)})
	if err != nil {
		return herrors.Wrap(herrors.CodeTransport, "transport.joinMulticast", err)
	}
	pc := ipv4.NewPacketConn(conn)

	ifaces, _ := net.Interfaces()
	joined := 0
	for _, iface := range ifaces {
		if !u.cfg.Interfaces.Allows(iface.Name) {
			continue
		}
		if iface.Flags&net.FlagMulticast == 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		if err := pc.JoinGroup(&iface, maddr); err != nil {
			// EADDRINUSE (already joined) is idempotent; any other
			// per-interface failure is logged and skipped, never fatal.
			logger.Debug("multicast join on interface failed", logger.Iface(iface.Name), logger.Err(err))
			continue
		}
		joined++
	}
	ttl := u.cfg.TTL
	if ttl <= 0 {
		ttl = 1
	}
	_ = pc.SetMulticastTTL(ttl)
	_ = pc.SetMulticastLoopback(true)

	u.mconn = pc
	u.mraw = conn
	u.maddr = maddr
	u.locators = append(u.locators, guid.NewUDPv4Locator(maddr.IP, uint32(maddr.Port)))

	if joined == 0 {
		return herrors.New(herrors.CodeTransport, "transport.joinMulticast", "no interface accepted the multicast group")
	}
	return nil
}

func localIP() net.IP {
	conn, err := net.Dial("udp4", "8.8.8.8:80")
	if err != nil {
		return net.IPv4(127, 0, 0, 1)
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP
}

// Send writes data to dst's address.
func (u *UDP) Send(ctx context.Context, dst guid.Locator, data []byte) error {
	addr := &net.UDPAddr{IP: dst.IP(), Port: int(dst.Port)}
	_, err := u.uconn.WriteToUDP(data, addr)
	if err != nil {
		return herrors.Wrap(herrors.CodeTransport, "transport.UDP.Send", err)
	}
	return nil
}

// Recv reads from both the unicast and (if joined) multicast sockets,
// whichever yields a packet first.
func (u *UDP) Recv(ctx context.Context) (Packet, error) {
	ch := make(chan result, 2)

	go u.recvFrom(ctx, u.uconn, ch)
	if u.mraw != nil {
		go u.recvFrom(ctx, u.mraw, ch)
	}

	select {
	case <-ctx.Done():
		return Packet{}, herrors.Wrap(herrors.CodeInterrupted, "transport.UDP.Recv", ctx.Err())
	case r := <-ch:
		return r.pkt, r.err
	}
}

func (u *UDP) recvFrom(ctx context.Context, conn *net.UDPConn, ch chan<- result) {
	buf := make([]byte, 65535)
	for {
		select {
		case <-ctx.Done():
			return
		case <-u.closed:
			return
		default:
		}
		_ = conn.SetReadDeadline(time.Now().Add(readDeadlinePoll))
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case ch <- result{err: herrors.Wrap(herrors.CodeTransport, "transport.UDP.Recv", err)}:
			case <-ctx.Done():
			}
			return
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		pkt := Packet{Data: data, Source: guid.NewUDPv4Locator(addr.IP, uint32(addr.Port))}
		select {
		case ch <- result{pkt: pkt}:
		case <-ctx.Done():
			return
		}
	}
}

type result struct {
	pkt Packet
	err error
}

// LocalLocators returns the unicast locator and, if joined, the multicast
// group locator.
func (u *UDP) LocalLocators() []guid.Locator { return u.locators }

// SupportsMulticast reports whether a multicast group was successfully joined.
func (u *UDP) SupportsMulticast() bool { return u.mconn != nil }

// Close releases both sockets.
func (u *UDP) Close() error {
	u.closeOnce.Do(func() {
		close(u.closed)
		if u.uconn != nil {
			_ = u.uconn.Close()
		}
		if u.mraw != nil {
			_ = u.mraw.Close()
		}
	})
	return nil
}
