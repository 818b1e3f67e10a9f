package transport

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"strconv"
	"sync"

	"github.com/naskel/hdds/internal/herrors"
	"github.com/naskel/hdds/internal/logger"
	"github.com/naskel/hdds/internal/rtps/guid"
)

// maxTCPFrameSize bounds a single length-prefixed frame, large enough for
// any realistic RTPS message while rejecting corrupt length fields outright.
const maxTCPFrameSize = 16 << 20

// TCPConfig configures a TCP transport instance.
type TCPConfig struct {
	ListenAddr string // "host:port"; host empty binds all interfaces
}

// TCP implements Transport over length-prefixed TCP streams: each message is
// a 4-byte big-endian length followed by that many bytes of RTPS message,
// generalizing the record-marking framing the teacher uses for its RPC
// transport.
type TCP struct {
	ln       net.Listener
	locator  guid.Locator
	incoming chan Packet
	errs     chan error

	mu    sync.Mutex
	conns map[string]net.Conn

	closeOnce sync.Once
	closed    chan struct{}
}

// NewTCP starts listening on cfg.ListenAddr and accepting connections.
func NewTCP(cfg TCPConfig) (*TCP, error) {
	ln, err := net.Listen("tcp4", cfg.ListenAddr)
	if err != nil {
		return nil, herrors.Wrap(herrors.CodeTransport, "transport.NewTCP", err)
	}
	addr := ln.Addr().(*net.TCPAddr)
	t := &TCP{
		ln:       ln,
		locator:  guid.NewUDPv4Locator(addr.IP, uint32(addr.Port)),
		incoming: make(chan Packet, 64),
		errs:     make(chan error, 1),
		conns:    make(map[string]net.Conn),
		closed:   make(chan struct{}),
	}
	t.locator.Kind = guid.LocatorKindTCPv4
	go t.acceptLoop()
	return t, nil
}

func (t *TCP) acceptLoop() {
	for {
		conn, err := t.ln.Accept()
		if err != nil {
			select {
			case <-t.closed:
				return
			default:
			}
			logger.Warn("tcp accept failed", logger.Err(err))
			return
		}
		go t.readLoop(conn)
	}
}

func (t *TCP) readLoop(conn net.Conn) {
	remote := conn.RemoteAddr().String()
	t.mu.Lock()
	t.conns[remote] = conn
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		delete(t.conns, remote)
		t.mu.Unlock()
		_ = conn.Close()
	}()

	var lenBuf [4]byte
	for {
		if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
			return
		}
		n := binary.BigEndian.Uint32(lenBuf[:])
		if n > maxTCPFrameSize {
			logger.Warn("tcp frame exceeds maximum, dropping connection", logger.Bytes(int(n)))
			return
		}
		data := make([]byte, n)
		if _, err := io.ReadFull(conn, data); err != nil {
			return
		}
		tcpAddr, _ := net.ResolveTCPAddr("tcp4", remote)
		var src guid.Locator
		if tcpAddr != nil {
			src = guid.NewUDPv4Locator(tcpAddr.IP, uint32(tcpAddr.Port))
			src.Kind = guid.LocatorKindTCPv4
		}
		pkt := Packet{Data: data, Source: src}
		select {
		case t.incoming <- pkt:
		case <-t.closed:
			return
		}
	}
}

// Send dials (or reuses) a connection to dst and writes one length-prefixed
// frame.
func (t *TCP) Send(ctx context.Context, dst guid.Locator, data []byte) error {
	addr := net.JoinHostPort(dst.IP().String(), strconv.Itoa(int(dst.Port)))

	t.mu.Lock()
	conn, ok := t.conns[addr]
	t.mu.Unlock()
	if !ok {
		var d net.Dialer
		c, err := d.DialContext(ctx, "tcp4", addr)
		if err != nil {
			return herrors.Wrap(herrors.CodeTransport, "transport.TCP.Send", err)
		}
		conn = c
		t.mu.Lock()
		t.conns[addr] = conn
		t.mu.Unlock()
		go t.readLoop(conn)
	}

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := conn.Write(lenBuf[:]); err != nil {
		return herrors.Wrap(herrors.CodeTransport, "transport.TCP.Send", err)
	}
	if _, err := conn.Write(data); err != nil {
		return herrors.Wrap(herrors.CodeTransport, "transport.TCP.Send", err)
	}
	return nil
}

// Recv returns the next reassembled message from any peer connection.
func (t *TCP) Recv(ctx context.Context) (Packet, error) {
	select {
	case <-ctx.Done():
		return Packet{}, herrors.Wrap(herrors.CodeInterrupted, "transport.TCP.Recv", ctx.Err())
	case pkt := <-t.incoming:
		return pkt, nil
	case err := <-t.errs:
		return Packet{}, err
	}
}

// LocalLocators returns the listener's bound locator.
func (t *TCP) LocalLocators() []guid.Locator { return []guid.Locator{t.locator} }

// SupportsMulticast is always false for TCP.
func (t *TCP) SupportsMulticast() bool { return false }

// Close stops accepting connections and closes every open peer connection.
func (t *TCP) Close() error {
	t.closeOnce.Do(func() {
		close(t.closed)
		_ = t.ln.Close()
		t.mu.Lock()
		for _, c := range t.conns {
			_ = c.Close()
		}
		t.mu.Unlock()
	})
	return nil
}
