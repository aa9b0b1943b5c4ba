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
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/miekg/dns"
	"github.com/noisysockets/netutil/addrselect"
	"golang.org/x/sync/errgroup"

	"github.com/noisysockets/dnsclient/internal/util"
)

var _ Resolver = (*dnsResolver)(nil)

// DNSTransport is the transport protocol used for DNS resolution.
type DNSTransport string

const (
	// DNSTransportUDP is DNS over UDP as defined in RFC 1035.
	DNSTransportUDP DNSTransport = "udp"
	// DNSTransportTCP is DNS over TCP as defined in RFC 1035.
	DNSTransportTCP DNSTransport = "tcp"
	// DNSTransportTLS is DNS over TLS as defined in RFC 7858.
	DNSTransportTLS DNSTransport = "tcp-tls"
)

// DNSResolverConfig is the configuration for a DNS resolver.
type DNSResolverConfig struct {
	// Server is the DNS server to query.
	Server netip.AddrPort
	// Transport is the optional transport protocol used for DNS resolution.
	// By default, plain DNS over UDP is used.
	Transport *DNSTransport
	// Timeout is the maximum duration to wait for a query to complete.
	Timeout *time.Duration
	// DialContext is used to establish a connection to a DNS server.
	DialContext DialContextFunc
	// TLSConfig is the configuration for the TLS client used for DNS over TLS.
	TLSConfig *tls.Config
	// SingleRequest is used to query A and AAAA records sequentially.
	// This is mostly useful for avoiding conntrack race issues with DNS
	// over UDP. If you feel the need to enable this, you should probably
	// just use DNS over TCP instead.
	SingleRequest *bool
}

// dnsResolver is a DNS resolver.
type dnsResolver struct {
	server        netip.AddrPort
	transport     DNSTransport
	timeout       time.Duration
	dialContext   DialContextFunc
	tlsConfig     *tls.Config
	singleRequest bool
}

// DNS creates a new DNS resolver.
func DNS(conf DNSResolverConfig) *dnsResolver {
	// Make sure the server port is set.
	server := conf.Server
	if server.Port() == 0 {
		if conf.Transport != nil && *conf.Transport == DNSTransportTLS {
			server = netip.AddrPortFrom(server.Addr(), 853)
		} else {
			server = netip.AddrPortFrom(server.Addr(), 53)
		}
	}

	withDefaults, err := util.ConfigWithDefaults(&conf, &DNSResolverConfig{
		Transport:     util.PointerTo(DNSTransportUDP),
		Timeout:       util.PointerTo(5 * time.Second),
		DialContext:   (&net.Dialer{}).DialContext,
		SingleRequest: util.PointerTo(false),
	})
	if err != nil {
		// Should never happen.
		panic(err)
	}
	conf = *withDefaults

	return &dnsResolver{
		server:        server,
		transport:     *conf.Transport,
		timeout:       *conf.Timeout,
		dialContext:   conf.DialContext,
		tlsConfig:     conf.TLSConfig,
		singleRequest: *conf.SingleRequest,
	}
}

func (r *dnsResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	addrs, err := r.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return nil, err
	}

	return util.Strings(addrs), nil
}

func (r *dnsResolver) LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error) {
	dnsErr := &net.DNSError{
		Name:   host,
		Server: r.server.String(),
	}

	// If the host is not a valid domain name, return an error.
	if _, ok := dns.IsDomainName(host); !ok {
		return nil, extendDNSError(dnsErr, net.DNSError{
			Err:        ErrNoSuchHost.Error(),
			IsNotFound: true,
		})
	}

	name := dns.Fqdn(host)

	var qTypes []uint16
	switch network {
	case "ip":
		qTypes = []uint16{dns.TypeA, dns.TypeAAAA}
	case "ip4":
		qTypes = []uint16{dns.TypeA}
	case "ip6":
		qTypes = []uint16{dns.TypeAAAA}
	default:
		return nil, extendDNSError(dnsErr, net.DNSError{
			Err: ErrUnsupportedNetwork.Error(),
		})
	}

	if r.timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	conn, err := r.dial(ctx)
	if err != nil {
		return nil, extendDNSError(dnsErr, net.DNSError{
			Err:         err.Error(),
			IsTimeout:   isTimeout(err),
			IsTemporary: true,
		})
	}
	defer conn.Close()

	var addrsMu sync.Mutex
	var addrs []netip.Addr

	// All the queries are multiplexed over the single connection; the
	// transaction IDs keep the interleaved replies apart.
	queryOneType := func(ctx context.Context, qType uint16) error {
		qErr := &net.DNSError{
			Name:   host,
			Server: r.server.String(),
		}

		var found []netip.Addr
		var err error

		switch qType {
		case dns.TypeA:
			found, err = conn.QueryA(ctx, name)
		case dns.TypeAAAA:
			found, err = conn.QueryAAAA(ctx, name)
		}
		if err != nil {
			switch {
			case errors.Is(err, ErrNoSuchHost):
				return extendDNSError(qErr, net.DNSError{
					Err:        ErrNoSuchHost.Error(),
					IsNotFound: true,
				})
			case errors.Is(err, ErrServerMisbehaving):
				return extendDNSError(qErr, net.DNSError{
					Err:         err.Error(),
					IsTemporary: true,
				})
			default:
				return extendDNSError(qErr, net.DNSError{
					Err:         err.Error(),
					IsTimeout:   isTimeout(err),
					IsTemporary: true,
				})
			}
		}

		addrsMu.Lock()
		addrs = append(addrs, found...)
		addrsMu.Unlock()

		return nil
	}

	if r.singleRequest {
		for _, qType := range qTypes {
			if err := queryOneType(ctx, qType); err != nil {
				return nil, err
			}
		}
	} else {
		g, gCtx := errgroup.WithContext(ctx)

		for _, qType := range qTypes {
			qType := qType
			g.Go(func() error {
				return queryOneType(gCtx, qType)
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	if len(addrs) > 0 {
		if network != "ip4" {
			dial := func(network, address string) (net.Conn, error) {
				return r.dialContext(ctx, network, address)
			}

			addrselect.SortByRFC6724(dial, addrs)
		}

		return addrs, nil
	}

	return nil, extendDNSError(dnsErr, net.DNSError{
		Err:        ErrNoSuchHost.Error(),
		IsNotFound: true,
	})
}

// dial opens the multiplexed channel for one lookup.
func (r *dnsResolver) dial(ctx context.Context) (*Conn, error) {
	connConf := &ConnConfig{
		Timeout:     &r.timeout,
		DialContext: r.dialContext,
		TLSConfig:   r.tlsConfig,
	}

	switch r.transport {
	case DNSTransportUDP:
		return DialUDP(ctx, []netip.AddrPort{r.server}, connConf)
	case DNSTransportTCP:
		return DialTCP(ctx, r.server, connConf)
	case DNSTransportTLS:
		return DialTLS(ctx, r.server.Addr().String(), connConf)
	default:
		return nil, ErrUnsupportedProtocol
	}
}
