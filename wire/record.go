// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 The Noisy Sockets Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package wire

import (
	"net/netip"
)

// A RecordBody is the type-specific payload of a resource record.
type RecordBody interface {
	// Type returns the record type code carried in the resource envelope.
	Type() Type

	// pack appends the rdata (without the rdlength prefix) to msg. The
	// buffer is the whole message so far, so compression pointers emitted
	// inside rdata reference message offsets.
	pack(msg []byte, c *compressor) ([]byte, error)
}

// Resource is a resource record: the common envelope plus a typed body.
// The rdlength field is implicit; it is computed on encode and consumed on
// decode.
type Resource struct {
	Name  Name
	Class Class
	TTL   uint32
	Body  RecordBody
}

// An A record holds an IPv4 host address.
type A struct {
	Addr netip.Addr
}

func (A) Type() Type { return TypeA }

func (a A) pack(msg []byte, c *compressor) ([]byte, error) {
	if !a.Addr.Is4() {
		return nil, ErrBadRData
	}
	b := a.Addr.As4()
	return append(msg, b[:]...), nil
}

// An AAAA record holds an IPv6 host address.
type AAAA struct {
	Addr netip.Addr
}

func (AAAA) Type() Type { return TypeAAAA }

func (a AAAA) pack(msg []byte, c *compressor) ([]byte, error) {
	if !a.Addr.Is6() || a.Addr.Is4() {
		return nil, ErrBadRData
	}
	b := a.Addr.As16()
	return append(msg, b[:]...), nil
}

// A CNAME record aliases its owner name to a canonical name.
type CNAME struct {
	Target Name
}

func (CNAME) Type() Type { return TypeCNAME }

func (r CNAME) pack(msg []byte, c *compressor) ([]byte, error) {
	return c.appendName(msg, r.Target)
}

// An NS record names an authoritative nameserver for the zone.
type NS struct {
	Host Name
}

func (NS) Type() Type { return TypeNS }

func (r NS) pack(msg []byte, c *compressor) ([]byte, error) {
	return c.appendName(msg, r.Host)
}

// A PTR record maps an address back to a name.
type PTR struct {
	Host Name
}

func (PTR) Type() Type { return TypePTR }

func (r PTR) pack(msg []byte, c *compressor) ([]byte, error) {
	return c.appendName(msg, r.Host)
}

// An MX record names a mail exchange and its preference.
type MX struct {
	Preference uint16
	Exchange   Name
}

func (MX) Type() Type { return TypeMX }

func (r MX) pack(msg []byte, c *compressor) ([]byte, error) {
	msg = appendUint16(msg, r.Preference)
	return c.appendName(msg, r.Exchange)
}

// An SRV record locates a service instance.
type SRV struct {
	Priority uint16
	Weight   uint16
	Port     uint16
	Target   Name
}

func (SRV) Type() Type { return TypeSRV }

func (r SRV) pack(msg []byte, c *compressor) ([]byte, error) {
	msg = appendUint16(msg, r.Priority)
	msg = appendUint16(msg, r.Weight)
	msg = appendUint16(msg, r.Port)
	return c.appendName(msg, r.Target)
}

// A TXT record carries free-form text as a sequence of strings, each at
// most 255 bytes on the wire.
type TXT struct {
	Strings []string
}

func (TXT) Type() Type { return TypeTXT }

func (r TXT) pack(msg []byte, c *compressor) ([]byte, error) {
	for _, s := range r.Strings {
		if len(s) > 255 {
			return nil, ErrBadRData
		}
		msg = append(msg, byte(len(s)))
		msg = append(msg, s...)
	}
	return msg, nil
}

// An Unknown record preserves the opaque rdata of an unsupported type.
type Unknown struct {
	RType Type
	Data  []byte
}

func (r Unknown) Type() Type { return r.RType }

func (r Unknown) pack(msg []byte, c *compressor) ([]byte, error) {
	return append(msg, r.Data...), nil
}
