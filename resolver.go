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
	"net/netip"
)

// Resolver looks up names and numbers (it's a very minimal reimplementation
// of net.Resolver, with the OS specific parts removed).
type Resolver interface {
	// LookupHost looks up the given host. It returns a slice of that
	// host's addresses.
	LookupHost(ctx context.Context, host string) ([]string, error)
	// LookupNetIP looks up host. It returns a slice of that host's IP
	// addresses of the type specified by network. The network must be one
	// of "ip", "ip4" or "ip6".
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}
