// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 The Noisy Sockets Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package dnsclient is a client-side DNS resolver library. It speaks the
// RFC 1035 wire format directly (see the wire subpackage), multiplexes
// concurrent queries over a single UDP, TCP, or TLS channel, and supports
// multicast DNS on the link-local group.
//
// The Conn type is the low-level surface: one opened channel to one
// nameserver, with per-query timeouts and typed convenience queries. The
// Resolver implementations layer host lookup semantics on top: IP
// literals, the hosts file, failover and retry across nameservers, and
// composition from the system's resolv.conf.
package dnsclient
