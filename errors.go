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
	"errors"
	"net"

	"dario.cat/mergo"
)

var (
	ErrNoSuchHost          = errors.New("no such host")
	ErrServerMisbehaving   = errors.New("server misbehaving")
	ErrUnsupportedNetwork  = errors.New("unsupported network")
	ErrUnsupportedProtocol = errors.New("unsupported protocol")

	// ErrCanceled is the error pending queries are failed with by CancelAll.
	ErrCanceled = errors.New("query canceled")
	// ErrClosed is returned by Query once the connection is closed.
	ErrClosed = errors.New("connection closed")
	// ErrTooManyQueries is returned when all 65536 transaction IDs are
	// outstanding on one connection.
	ErrTooManyQueries = errors.New("too many outstanding queries")
	// ErrMissingNameservers is returned when no usable nameserver is
	// configured.
	ErrMissingNameservers = errors.New("no nameservers configured")
)

// ErrTimeout is the error pending queries are failed with when their
// deadline expires. It satisfies net.Error.
var ErrTimeout error = &timeoutError{}

type timeoutError struct{}

func (e *timeoutError) Error() string   { return "query timed out" }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isTemporary(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr) && dnsErr.IsTemporary
}

func extendDNSError(dst *net.DNSError, src net.DNSError) *net.DNSError {
	if err := mergo.Merge(dst, src); err != nil {
		panic(err)
	}
	return dst
}
