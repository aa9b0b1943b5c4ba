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
	"encoding/binary"
	"net/netip"
)

// Message is a complete DNS message: header fields plus the four record
// sections. The header count fields are implicit; they are derived from the
// section lengths on encode and validated against them on decode.
type Message struct {
	ID    uint16
	Flags Flags

	Questions   []Question
	Answers     []Resource
	Authorities []Resource
	Additionals []Resource
}

// Header returns the wire header corresponding to the message.
func (m *Message) Header() Header {
	return Header{
		ID:      m.ID,
		Flags:   m.Flags,
		QDCount: uint16(len(m.Questions)),
		ANCount: uint16(len(m.Answers)),
		NSCount: uint16(len(m.Authorities)),
		ARCount: uint16(len(m.Additionals)),
	}
}

// Pack encodes the message into RFC 1035 wire format, compressing names
// against earlier occurrences in the same message.
func (m *Message) Pack() ([]byte, error) {
	return m.AppendPack(make([]byte, 0, 512))
}

// AppendPack is like Pack but appends to b. The message must start at the
// beginning of b: compression offsets are relative to the start of the
// buffer.
func (m *Message) AppendPack(b []byte) ([]byte, error) {
	h := m.Header()

	msg := appendUint16(b, h.ID)
	msg = appendUint16(msg, uint16(h.Flags))
	msg = appendUint16(msg, h.QDCount)
	msg = appendUint16(msg, h.ANCount)
	msg = appendUint16(msg, h.NSCount)
	msg = appendUint16(msg, h.ARCount)

	c := newCompressor()

	var err error
	for _, q := range m.Questions {
		if msg, err = c.appendName(msg, q.Name); err != nil {
			return nil, err
		}
		msg = appendUint16(msg, uint16(q.Type))
		msg = appendUint16(msg, uint16(q.Class))
	}

	for _, section := range [][]Resource{m.Answers, m.Authorities, m.Additionals} {
		for _, r := range section {
			if msg, err = c.appendResource(msg, r); err != nil {
				return nil, err
			}
		}
	}

	return msg, nil
}

// Unpack decodes a single DNS message. Failures that occur after the header
// has been read are wrapped in a *MessageError carrying that header, so the
// caller can fail the matching in-flight query.
func Unpack(msg []byte) (*Message, error) {
	if len(msg) < headerLen {
		return nil, ErrShortMessage
	}

	d := &decoder{msg: msg}

	h := Header{
		ID:      d.uint16(),
		Flags:   Flags(d.uint16()),
		QDCount: d.uint16(),
		ANCount: d.uint16(),
		NSCount: d.uint16(),
		ARCount: d.uint16(),
	}

	m := &Message{
		ID:    h.ID,
		Flags: h.Flags,
	}

	var err error
	if m.Questions, err = d.questions(h.QDCount); err != nil {
		return nil, &MessageError{Header: h, Err: err}
	}
	if m.Answers, err = d.resources(h.ANCount); err != nil {
		return nil, &MessageError{Header: h, Err: err}
	}
	if m.Authorities, err = d.resources(h.NSCount); err != nil {
		return nil, &MessageError{Header: h, Err: err}
	}
	if m.Additionals, err = d.resources(h.ARCount); err != nil {
		return nil, &MessageError{Header: h, Err: err}
	}

	return m, nil
}

func appendUint16(b []byte, v uint16) []byte {
	return append(b, byte(v>>8), byte(v))
}

func appendUint32(b []byte, v uint32) []byte {
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// compressor tracks, for one message being encoded, the offset at which
// each name suffix was first emitted. It is discarded after the encode.
type compressor struct {
	offsets map[string]int
}

func newCompressor() *compressor {
	return &compressor{offsets: make(map[string]int)}
}

// appendName emits a name, replacing the longest known suffix with a
// 2-byte back-pointer when one has already been emitted at a pointer-
// reachable offset.
func (c *compressor) appendName(msg []byte, name Name) ([]byte, error) {
	for i := 0; i < len(name); i++ {
		suffix := name[i:]
		if off, ok := c.offsets[suffix.key()]; ok && off < 1<<14 {
			return appendUint16(msg, 0xc000|uint16(off)), nil
		}

		label := name[i]
		if label == "" {
			return nil, ErrEmptyLabel
		}
		if len(label) > maxLabelLen {
			return nil, ErrLabelTooLong
		}

		if off := len(msg); off < 1<<14 {
			c.offsets[suffix.key()] = off
		}
		msg = append(msg, byte(len(label)))
		msg = append(msg, label...)
	}

	return append(msg, 0), nil
}

// appendResource emits the envelope and rdata of one resource record. The
// rdlength is backfilled after the body is serialized, so name-bearing
// bodies may compress against the message emitted so far.
func (c *compressor) appendResource(msg []byte, r Resource) ([]byte, error) {
	if r.Body == nil {
		return nil, ErrBadRData
	}

	msg, err := c.appendName(msg, r.Name)
	if err != nil {
		return nil, err
	}
	msg = appendUint16(msg, uint16(r.Body.Type()))
	msg = appendUint16(msg, uint16(r.Class))
	msg = appendUint32(msg, r.TTL)

	lenOff := len(msg)
	msg = appendUint16(msg, 0)

	msg, err = r.Body.pack(msg, c)
	if err != nil {
		return nil, err
	}

	rdLen := len(msg) - lenOff - 2
	if rdLen > 0xffff {
		return nil, ErrMessageTooLong
	}
	binary.BigEndian.PutUint16(msg[lenOff:], uint16(rdLen))

	return msg, nil
}

// decoder walks a message buffer. It keeps the whole buffer in scope for
// the entire parse: compression pointers inside rdata reference message
// offsets, not rdata offsets.
type decoder struct {
	msg []byte
	off int
}

// The fixed-width readers assume the caller has verified the bytes are
// present (need or an explicit length check).

func (d *decoder) uint8() uint8 {
	v := d.msg[d.off]
	d.off++
	return v
}

func (d *decoder) uint16() uint16 {
	v := binary.BigEndian.Uint16(d.msg[d.off:])
	d.off += 2
	return v
}

func (d *decoder) uint32() uint32 {
	v := binary.BigEndian.Uint32(d.msg[d.off:])
	d.off += 4
	return v
}

func (d *decoder) need(n int) error {
	if d.off+n > len(d.msg) {
		return ErrShortMessage
	}
	return nil
}

// name reads a possibly-compressed name starting at the current offset.
// The cursor advances past the bytes consumed in place; once the first
// pointer is followed it stops advancing and, when the name is complete,
// resumes two bytes past that pointer.
func (d *decoder) name() (Name, error) {
	var name Name
	nameLen := 0

	off := d.off
	resume := -1
	visited := make(map[int]bool)

	for {
		if off >= len(d.msg) {
			return nil, ErrShortMessage
		}
		if visited[off] {
			return nil, ErrPointerLoop
		}
		visited[off] = true

		l := int(d.msg[off])
		switch {
		case l == 0:
			if resume == -1 {
				resume = off + 1
			}
			d.off = resume
			return name, nil

		case l&0xc0 == 0xc0:
			if off+2 > len(d.msg) {
				return nil, ErrShortMessage
			}
			ptr := int(binary.BigEndian.Uint16(d.msg[off:]) & 0x3fff)
			if ptr < headerLen || ptr >= off {
				return nil, ErrBadPointer
			}
			if resume == -1 {
				resume = off + 2
			}
			off = ptr

		case l&0xc0 != 0:
			return nil, ErrReservedLabelBits

		default:
			if off+1+l > len(d.msg) {
				return nil, ErrShortMessage
			}
			nameLen += 1 + l
			// The terminating zero byte counts towards the limit.
			if nameLen+1 > maxNameLen {
				return nil, ErrNameTooLong
			}
			name = append(name, string(d.msg[off+1:off+1+l]))
			off += 1 + l
		}
	}
}

func (d *decoder) questions(count uint16) ([]Question, error) {
	if count == 0 {
		return nil, nil
	}

	qs := make([]Question, 0, count)
	for i := 0; i < int(count); i++ {
		name, err := d.name()
		if err != nil {
			return nil, err
		}
		if err := d.need(4); err != nil {
			return nil, err
		}
		qs = append(qs, Question{
			Name:  name,
			Type:  Type(d.uint16()),
			Class: Class(d.uint16()),
		})
	}
	return qs, nil
}

func (d *decoder) resources(count uint16) ([]Resource, error) {
	if count == 0 {
		return nil, nil
	}

	rs := make([]Resource, 0, count)
	for i := 0; i < int(count); i++ {
		r, err := d.resource()
		if err != nil {
			return nil, err
		}
		rs = append(rs, r)
	}
	return rs, nil
}

func (d *decoder) resource() (Resource, error) {
	var r Resource

	name, err := d.name()
	if err != nil {
		return r, err
	}
	if err := d.need(10); err != nil {
		return r, err
	}

	r.Name = name
	rType := Type(d.uint16())
	r.Class = Class(d.uint16())
	r.TTL = d.uint32()
	rdLen := int(d.uint16())

	if err := d.need(rdLen); err != nil {
		return r, err
	}
	rdEnd := d.off + rdLen

	if r.Body, err = d.recordBody(rType, rdLen); err != nil {
		return r, err
	}
	if d.off != rdEnd {
		return r, ErrBadRData
	}

	return r, nil
}

func (d *decoder) recordBody(rType Type, rdLen int) (RecordBody, error) {
	switch rType {
	case TypeA:
		if rdLen != 4 {
			return nil, ErrBadRData
		}
		var b [4]byte
		copy(b[:], d.msg[d.off:])
		d.off += 4
		return A{Addr: netip.AddrFrom4(b)}, nil

	case TypeAAAA:
		if rdLen != 16 {
			return nil, ErrBadRData
		}
		var b [16]byte
		copy(b[:], d.msg[d.off:])
		d.off += 16
		return AAAA{Addr: netip.AddrFrom16(b)}, nil

	case TypeCNAME:
		target, err := d.name()
		if err != nil {
			return nil, err
		}
		return CNAME{Target: target}, nil

	case TypeNS:
		host, err := d.name()
		if err != nil {
			return nil, err
		}
		return NS{Host: host}, nil

	case TypePTR:
		host, err := d.name()
		if err != nil {
			return nil, err
		}
		return PTR{Host: host}, nil

	case TypeMX:
		if rdLen < 3 {
			return nil, ErrBadRData
		}
		pref := d.uint16()
		exchange, err := d.name()
		if err != nil {
			return nil, err
		}
		return MX{Preference: pref, Exchange: exchange}, nil

	case TypeSRV:
		if rdLen < 7 {
			return nil, ErrBadRData
		}
		priority := d.uint16()
		weight := d.uint16()
		port := d.uint16()
		target, err := d.name()
		if err != nil {
			return nil, err
		}
		return SRV{Priority: priority, Weight: weight, Port: port, Target: target}, nil

	case TypeTXT:
		end := d.off + rdLen
		var strs []string
		for d.off < end {
			l := int(d.uint8())
			if d.off+l > end {
				return nil, ErrBadRData
			}
			strs = append(strs, string(d.msg[d.off:d.off+l]))
			d.off += l
		}
		return TXT{Strings: strs}, nil

	default:
		data := make([]byte, rdLen)
		copy(data, d.msg[d.off:])
		d.off += rdLen
		return Unknown{RType: rType, Data: data}, nil
	}
}
