package transport

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/binary"
	"io"
	"math/big"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/naskel/hdds/internal/herrors"
	"github.com/naskel/hdds/internal/logger"
	"github.com/naskel/hdds/internal/rtps/guid"
)

// QUICConfig configures the optional QUIC transport (§4.3 Design Notes:
// "optional QUIC transport for NAT-unfriendly deployments").
type QUICConfig struct {
	ListenAddr string
}

// QUIC implements Transport over one QUIC listener: each send opens a
// stream carrying a single length-prefixed RTPS message in one direction,
// mirroring the stream-per-exchange pattern of the reference QUIC resolver
// this is grounded on, simplified from request/response to fire-and-forget
// datagram delivery.
type QUIC struct {
	ln       *quic.Listener
	locator  guid.Locator
	incoming chan Packet

	mu    sync.Mutex
	conns map[string]*quic.Conn

	closeOnce sync.Once
	closed    chan struct{}
}

// NewQUIC starts a QUIC listener with a self-signed certificate (RTPS has
// no external PKI requirement at the transport layer; DDS-Security, if
// enabled, operates above this).
func NewQUIC(cfg QUICConfig) (*QUIC, error) {
	tlsConf, err := selfSignedTLSConfig()
	if err != nil {
		return nil, herrors.Wrap(herrors.CodeTransport, "transport.NewQUIC", err)
	}

	ln, err := quic.ListenAddr(cfg.ListenAddr, tlsConf, &quic.Config{
		MaxIdleTimeout:  30 * time.Second,
		KeepAlivePeriod: 10 * time.Second,
	})
	if err != nil {
		return nil, herrors.Wrap(herrors.CodeTransport, "transport.NewQUIC", err)
	}

	udpAddr := ln.Addr().(*net.UDPAddr)
	q := &QUIC{
		ln:       ln,
		locator:  guid.NewUDPv4Locator(udpAddr.IP, uint32(udpAddr.Port)),
		incoming: make(chan Packet, 64),
		conns:    make(map[string]*quic.Conn),
		closed:   make(chan struct{}),
	}
	go q.acceptLoop()
	return q, nil
}

func (q *QUIC) acceptLoop() {
	ctx := context.Background()
	for {
		conn, err := q.ln.Accept(ctx)
		if err != nil {
			select {
			case <-q.closed:
				return
			default:
			}
			logger.Warn("quic accept failed", logger.Err(err))
			return
		}
		go q.streamLoop(conn)
	}
}

func (q *QUIC) streamLoop(conn *quic.Conn) {
	for {
		stream, err := conn.AcceptStream(context.Background())
		if err != nil {
			return
		}
		go q.readStream(conn, stream)
	}
}

func (q *QUIC) readStream(conn *quic.Conn, stream *quic.Stream) {
	defer stream.Close()
	var lenBuf [4]byte
	if _, err := io.ReadFull(stream, lenBuf[:]); err != nil {
		return
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxTCPFrameSize {
		return
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(stream, data); err != nil {
		return
	}
	remote := conn.RemoteAddr().(*net.UDPAddr)
	src := guid.NewUDPv4Locator(remote.IP, uint32(remote.Port))

	select {
	case q.incoming <- Packet{Data: data, Source: src}:
	case <-q.closed:
	}
}

// Send opens (or reuses) a QUIC connection to dst, opens a new stream on
// it and writes one length-prefixed message; nothing is read back.
func (q *QUIC) Send(ctx context.Context, dst guid.Locator, data []byte) error {
	addr := net.JoinHostPort(dst.IP().String(), strconv.Itoa(int(dst.Port)))

	q.mu.Lock()
	conn, ok := q.conns[addr]
	q.mu.Unlock()
	if !ok {
		c, err := quic.DialAddr(ctx, addr, insecureClientTLSConfig(), nil)
		if err != nil {
			return herrors.Wrap(herrors.CodeTransport, "transport.QUIC.Send", err)
		}
		conn = c
		q.mu.Lock()
		q.conns[addr] = conn
		q.mu.Unlock()
	}

	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		return herrors.Wrap(herrors.CodeTransport, "transport.QUIC.Send", err)
	}
	defer stream.Close()

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := stream.Write(lenBuf[:]); err != nil {
		return herrors.Wrap(herrors.CodeTransport, "transport.QUIC.Send", err)
	}
	if _, err := stream.Write(data); err != nil {
		return herrors.Wrap(herrors.CodeTransport, "transport.QUIC.Send", err)
	}
	return nil
}

// Recv returns the next reassembled message from any peer stream.
func (q *QUIC) Recv(ctx context.Context) (Packet, error) {
	select {
	case <-ctx.Done():
		return Packet{}, herrors.Wrap(herrors.CodeInterrupted, "transport.QUIC.Recv", ctx.Err())
	case pkt := <-q.incoming:
		return pkt, nil
	}
}

// LocalLocators returns the listener's bound locator.
func (q *QUIC) LocalLocators() []guid.Locator { return []guid.Locator{q.locator} }

// SupportsMulticast is always false for QUIC.
func (q *QUIC) SupportsMulticast() bool { return false }

// Close shuts down the listener and every open peer connection.
func (q *QUIC) Close() error {
	q.closeOnce.Do(func() {
		close(q.closed)
		q.mu.Lock()
		for _, c := range q.conns {
			_ = c.CloseWithError(0, "")
		}
		q.mu.Unlock()
		_ = q.ln.Close()
	})
	return nil
}

func selfSignedTLSConfig() (*tls.Config, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	template := x509.Certificate{SerialNumber: big.NewInt(1)}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, err
	}
	cert := tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{"hdds-rtps"},
	}, nil
}

func insecureClientTLSConfig() *tls.Config {
	return &tls.Config{
		InsecureSkipVerify: true,
		NextProtos:         []string{"hdds-rtps"},
	}
}
