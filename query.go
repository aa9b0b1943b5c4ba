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
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/noisysockets/dnsclient/wire"
)

// The typed queries below map through Query and surface the parsed record
// bodies from the answer section. Answers of other types (eg. CNAMEs on
// the way to an address) are skipped, matching recursive server behavior.

// QueryA returns the IPv4 addresses for name.
func (c *Conn) QueryA(ctx context.Context, name string) ([]netip.Addr, error) {
	reply, err := c.query(ctx, name, wire.TypeA)
	if err != nil {
		return nil, err
	}

	var addrs []netip.Addr
	for _, r := range reply.Answers {
		if body, ok := r.Body.(wire.A); ok {
			addrs = append(addrs, body.Addr)
		}
	}
	return addrs, nil
}

// QueryAAAA returns the IPv6 addresses for name.
func (c *Conn) QueryAAAA(ctx context.Context, name string) ([]netip.Addr, error) {
	reply, err := c.query(ctx, name, wire.TypeAAAA)
	if err != nil {
		return nil, err
	}

	var addrs []netip.Addr
	for _, r := range reply.Answers {
		if body, ok := r.Body.(wire.AAAA); ok {
			addrs = append(addrs, body.Addr)
		}
	}
	return addrs, nil
}

// QuerySRV returns the service records for name.
func (c *Conn) QuerySRV(ctx context.Context, name string) ([]wire.SRV, error) {
	reply, err := c.query(ctx, name, wire.TypeSRV)
	if err != nil {
		return nil, err
	}

	var records []wire.SRV
	for _, r := range reply.Answers {
		if body, ok := r.Body.(wire.SRV); ok {
			records = append(records, body)
		}
	}
	return records, nil
}

// QueryMX returns the mail exchange records for name.
func (c *Conn) QueryMX(ctx context.Context, name string) ([]wire.MX, error) {
	reply, err := c.query(ctx, name, wire.TypeMX)
	if err != nil {
		return nil, err
	}

	var records []wire.MX
	for _, r := range reply.Answers {
		if body, ok := r.Body.(wire.MX); ok {
			records = append(records, body)
		}
	}
	return records, nil
}

// QueryTXT returns the text records for name, one string per record with
// the record's character strings concatenated.
func (c *Conn) QueryTXT(ctx context.Context, name string) ([]string, error) {
	reply, err := c.query(ctx, name, wire.TypeTXT)
	if err != nil {
		return nil, err
	}

	var texts []string
	for _, r := range reply.Answers {
		if body, ok := r.Body.(wire.TXT); ok {
			texts = append(texts, strings.Join(body.Strings, ""))
		}
	}
	return texts, nil
}

// QueryCNAME returns the canonical name for name.
func (c *Conn) QueryCNAME(ctx context.Context, name string) (wire.Name, error) {
	reply, err := c.query(ctx, name, wire.TypeCNAME)
	if err != nil {
		return nil, err
	}

	for _, r := range reply.Answers {
		if body, ok := r.Body.(wire.CNAME); ok {
			return body.Target, nil
		}
	}
	return nil, ErrNoSuchHost
}

// QueryNS returns the authoritative nameserver names for name.
func (c *Conn) QueryNS(ctx context.Context, name string) ([]wire.Name, error) {
	reply, err := c.query(ctx, name, wire.TypeNS)
	if err != nil {
		return nil, err
	}

	var hosts []wire.Name
	for _, r := range reply.Answers {
		if body, ok := r.Body.(wire.NS); ok {
			hosts = append(hosts, body.Host)
		}
	}
	return hosts, nil
}

// QueryPTR performs a reverse lookup for addr and returns the names
// mapping to it.
func (c *Conn) QueryPTR(ctx context.Context, addr netip.Addr) ([]wire.Name, error) {
	reply, err := c.query(ctx, reverseName(addr), wire.TypePTR)
	if err != nil {
		return nil, err
	}

	var hosts []wire.Name
	for _, r := range reply.Answers {
		if body, ok := r.Body.(wire.PTR); ok {
			hosts = append(hosts, body.Host)
		}
	}
	return hosts, nil
}

func (c *Conn) query(ctx context.Context, name string, qType wire.Type) (*wire.Message, error) {
	reply, err := c.Query(ctx, name, qType, wire.StandardQuery)
	if err != nil {
		return nil, err
	}

	switch rc := reply.Flags.RCode(); rc {
	case wire.RCodeNoError:
		return reply, nil
	case wire.RCodeNameError:
		return nil, ErrNoSuchHost
	default:
		return nil, fmt.Errorf("unexpected return code %d: %w", rc, ErrServerMisbehaving)
	}
}

// reverseName builds the in-addr.arpa (IPv4) or ip6.arpa (IPv6) name for
// an address.
func reverseName(addr netip.Addr) string {
	var sb strings.Builder

	if addr.Unmap().Is4() {
		octets := addr.Unmap().As4()
		for i := len(octets) - 1; i >= 0; i-- {
			sb.WriteString(strconv.Itoa(int(octets[i])))
			sb.WriteByte('.')
		}
		sb.WriteString("in-addr.arpa")
		return sb.String()
	}

	const hexDigit = "0123456789abcdef"
	bytes := addr.As16()
	for i := len(bytes) - 1; i >= 0; i-- {
		sb.WriteByte(hexDigit[bytes[i]&0xf])
		sb.WriteByte('.')
		sb.WriteByte(hexDigit[bytes[i]>>4])
		sb.WriteByte('.')
	}
	sb.WriteString("ip6.arpa")
	return sb.String()
}
