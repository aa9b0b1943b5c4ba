// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 The Noisy Sockets Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package dnsclient

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/netip"
	"strconv"
	"sync"
	"time"

	"golang.org/x/net/idna"
	"golang.org/x/net/ipv4"

	"github.com/noisysockets/dnsclient/internal/util"
	"github.com/noisysockets/dnsclient/wire"
)

// DialContextFunc is used to establish a connection to a DNS server.
type DialContextFunc func(ctx context.Context, network, address string) (net.Conn, error)

// mDNS is always link-local on the same group and port.
var (
	mdnsGroup = netip.MustParseAddr("224.0.0.251")
	mdnsPort  = uint16(5353)
)

// ConnConfig is the configuration shared by the connection constructors.
type ConnConfig struct {
	// Timeout is the default per-query timeout.
	Timeout *time.Duration
	// DialContext is used to establish stream connections.
	DialContext DialContextFunc
	// TLSConfig is the client configuration for DNS over TLS. The server
	// name is optional; it defaults to the dialed host.
	TLSConfig *tls.Config
	// Logger receives diagnostics for conditions that cannot be
	// attributed to any query, eg. undecodable datagrams.
	Logger *slog.Logger
}

func connConfigWithDefaults(conf *ConnConfig) (*ConnConfig, error) {
	return util.ConfigWithDefaults(conf, &ConnConfig{
		Timeout:     util.PointerTo(30 * time.Second),
		DialContext: (&net.Dialer{}).DialContext,
		Logger:      slog.Default(),
	})
}

// A Conn multiplexes DNS queries over a single opened transport channel.
// It owns the 16-bit transaction ID counter and the in-flight query table;
// both are guarded by one mutex, so allocating an ID and registering the
// query is atomic with respect to response dispatch.
type Conn struct {
	transport Transport
	timeout   time.Duration
	multicast bool
	logger    *slog.Logger

	mu       sync.Mutex
	nextID   uint16
	inflight map[uint16]*sentQuery
	closed   bool
	fatal    error
}

// sentQuery tracks one transmitted query until its single completion.
type sentQuery struct {
	msg    *wire.Message
	result chan queryResult
	timer  *time.Timer
}

type queryResult struct {
	msg *wire.Message
	err error
}

func newConn(transport Transport, conf *ConnConfig, multicast bool) (*Conn, error) {
	conf, err := connConfigWithDefaults(conf)
	if err != nil {
		return nil, err
	}

	c := &Conn{
		transport: transport,
		timeout:   *conf.Timeout,
		multicast: multicast,
		logger:    conf.Logger,
		inflight:  make(map[uint16]*sentQuery),
	}

	go c.readLoop()

	return c, nil
}

// DialUDP opens a datagram channel to the preferred nameserver: the first
// IPv4 entry, or failing that the first entry. The local socket is a
// wildcard bind of the matching family with SO_REUSEADDR and SO_REUSEPORT
// set.
func DialUDP(ctx context.Context, servers []netip.AddrPort, conf *ConnConfig) (*Conn, error) {
	server, err := preferredNameserver(servers)
	if err != nil {
		return nil, err
	}

	network, local := "udp4", "0.0.0.0:0"
	if !server.Addr().Unmap().Is4() {
		network, local = "udp6", "[::]:0"
	}

	lc := net.ListenConfig{Control: reuseAddrPort}
	pc, err := lc.ListenPacket(ctx, network, local)
	if err != nil {
		return nil, err
	}

	return newConn(&packetTransport{
		conn:   pc,
		remote: net.UDPAddrFromAddrPort(server),
	}, conf, false)
}

// ListenMulticast opens an mDNS channel: a reusable bind on the mDNS port
// joined to the 224.0.0.251 link-local group. Queries sent on the returned
// connection have recursion-desired cleared.
func ListenMulticast(ctx context.Context, conf *ConnConfig) (*Conn, error) {
	lc := net.ListenConfig{Control: reuseAddrPort}
	pc, err := lc.ListenPacket(ctx, "udp4", net.JoinHostPort("0.0.0.0", strconv.Itoa(int(mdnsPort))))
	if err != nil {
		return nil, err
	}

	group := &net.UDPAddr{IP: mdnsGroup.AsSlice()}
	if err := ipv4.NewPacketConn(pc).JoinGroup(nil, group); err != nil {
		_ = pc.Close()
		return nil, err
	}

	return newConn(&packetTransport{
		conn:   pc,
		remote: net.UDPAddrFromAddrPort(netip.AddrPortFrom(mdnsGroup, mdnsPort)),
	}, conf, true)
}

// DialTCP opens a framed stream channel to the given nameserver.
func DialTCP(ctx context.Context, server netip.AddrPort, conf *ConnConfig) (*Conn, error) {
	withDefaults, err := connConfigWithDefaults(conf)
	if err != nil {
		return nil, err
	}

	if server.Port() == 0 {
		server = netip.AddrPortFrom(server.Addr(), 53)
	}

	nc, err := withDefaults.DialContext(ctx, "tcp", server.String())
	if err != nil {
		return nil, err
	}

	return newConn(newStreamTransport(nc), conf, false)
}

// DialTLS opens a DNS over TLS channel: the host is resolved and connected
// on port 853, the connection is wrapped in a TLS 1.2+ client handshake,
// and the usual stream framer sits on top.
func DialTLS(ctx context.Context, host string, conf *ConnConfig) (*Conn, error) {
	withDefaults, err := connConfigWithDefaults(conf)
	if err != nil {
		return nil, err
	}

	nc, err := withDefaults.DialContext(ctx, "tcp", net.JoinHostPort(host, "853"))
	if err != nil {
		return nil, err
	}

	tlsConfig := &tls.Config{}
	if withDefaults.TLSConfig != nil {
		tlsConfig = withDefaults.TLSConfig.Clone()
	}
	if tlsConfig.ServerName == "" {
		tlsConfig.ServerName = host
	}
	if tlsConfig.MinVersion == 0 {
		tlsConfig.MinVersion = tls.VersionTLS12
	}

	tc := tls.Client(nc, tlsConfig)
	if err := tc.HandshakeContext(ctx); err != nil {
		_ = nc.Close()
		return nil, err
	}

	return newConn(newStreamTransport(tc), conf, false)
}

// preferredNameserver picks the server all sends are routed to: the first
// IPv4 entry, else the first entry. Failover across servers is layered
// above the connection.
func preferredNameserver(servers []netip.AddrPort) (netip.AddrPort, error) {
	if len(servers) == 0 {
		return netip.AddrPort{}, ErrMissingNameservers
	}

	server := servers[0]
	for _, s := range servers {
		if s.Addr().Unmap().Is4() {
			server = s
			break
		}
	}

	if server.Port() == 0 {
		server = netip.AddrPortFrom(server.Addr(), 53)
	}

	return server, nil
}

// Query sends a single question for the given name and type and waits for
// the matching response. The name is split on dots into labels (a trailing
// dot is dropped); non-ASCII names are IDNA mapped first. Recursion is
// requested unless the connection is multicast, and extraFlags are OR'd
// into the header flags.
//
// The query is registered in the in-flight table before the transport
// write, so a response arriving synchronously still finds it. The wait
// ends with the response, the per-query timeout, CancelAll, a transport
// failure, or ctx, whichever fires first.
func (c *Conn) Query(ctx context.Context, name string, qType wire.Type, extraFlags wire.Flags) (*wire.Message, error) {
	if !isASCII(name) {
		var err error
		if name, err = idna.Lookup.ToASCII(name); err != nil {
			return nil, err
		}
	}

	qName, err := wire.ParseName(name)
	if err != nil {
		return nil, err
	}

	flags := wire.StandardQuery | extraFlags
	if !c.multicast {
		flags |= wire.FlagRecursionDesired
	}

	msg := &wire.Message{
		Flags: flags,
		Questions: []wire.Question{{
			Name:  qName,
			Type:  qType,
			Class: wire.ClassIN,
		}},
	}

	sq := &sentQuery{
		msg:    msg,
		result: make(chan queryResult, 1),
	}

	c.mu.Lock()
	if c.closed {
		err := c.fatal
		c.mu.Unlock()
		if err == nil {
			err = ErrClosed
		}
		return nil, err
	}
	if len(c.inflight) == 1<<16 {
		c.mu.Unlock()
		return nil, ErrTooManyQueries
	}

	id := c.nextID
	for {
		if _, busy := c.inflight[id]; !busy {
			break
		}
		id++
	}
	c.nextID = id + 1

	msg.ID = id
	c.inflight[id] = sq
	sq.timer = time.AfterFunc(c.timeout, func() {
		c.complete(id, nil, ErrTimeout)
	})
	c.mu.Unlock()

	raw, err := msg.Pack()
	if err != nil {
		c.complete(id, nil, err)
	} else if err := c.transport.WriteMessage(raw); err != nil {
		c.complete(id, nil, err)
	}

	select {
	case res := <-sq.result:
		return res.msg, res.err
	case <-ctx.Done():
		c.complete(id, nil, ctx.Err())
		return nil, ctx.Err()
	}
}

// CancelAll fails every in-flight query with ErrCanceled and empties the
// in-flight table. The transport stays open; this is best-effort with
// respect to bytes already on the wire.
func (c *Conn) CancelAll() {
	c.failPending(ErrCanceled, false)
}

// Close closes the transport. In-flight queries fail with the resulting
// read error and subsequent calls to Query fail with ErrClosed.
func (c *Conn) Close() error {
	c.mu.Lock()
	c.closed = true
	if c.fatal == nil {
		c.fatal = ErrClosed
	}
	c.mu.Unlock()

	return c.transport.Close()
}

// complete resolves the query with the given ID exactly once: whichever of
// response, timeout, cancellation, or transport failure gets here first
// removes the entry, and later events find nothing.
func (c *Conn) complete(id uint16, msg *wire.Message, err error) {
	c.mu.Lock()
	sq, ok := c.inflight[id]
	if ok {
		delete(c.inflight, id)
	}
	c.mu.Unlock()

	if !ok {
		return
	}

	sq.timer.Stop()
	sq.result <- queryResult{msg: msg, err: err}
}

// failPending resolves every in-flight query with err. When fatal is set
// the connection is additionally marked closed.
func (c *Conn) failPending(err error, fatal bool) {
	c.mu.Lock()
	pending := c.inflight
	c.inflight = make(map[uint16]*sentQuery)
	if fatal {
		c.closed = true
		if c.fatal == nil {
			c.fatal = err
		}
	}
	c.mu.Unlock()

	for _, sq := range pending {
		sq.timer.Stop()
		sq.result <- queryResult{err: err}
	}
}

// readLoop is the receive path: it owns the transport reads and dispatches
// decoded responses to their in-flight entries.
func (c *Conn) readLoop() {
	for {
		raw, err := c.transport.ReadMessage()
		if err != nil {
			// A broken channel is fatal to every in-flight query.
			c.failPending(err, true)
			return
		}

		msg, err := wire.Unpack(raw)
		if err != nil {
			var msgErr *wire.MessageError
			if errors.As(err, &msgErr) {
				// The header survived, so fail the matching query
				// and leave its siblings alone.
				c.complete(msgErr.Header.ID, nil, msgErr.Err)
			} else {
				c.logger.Debug("Dropping undecodable message", slog.Any("error", err))
			}
			continue
		}

		// We are a client: queries from other speakers (eg. on the
		// multicast group) are not for us.
		if !msg.Flags.Response() {
			continue
		}

		// Unknown IDs are late or unsolicited replies.
		c.complete(msg.ID, msg, nil)
	}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
