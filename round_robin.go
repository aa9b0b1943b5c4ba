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

	"github.com/noisysockets/dnsclient/internal/util"
)

var _ Resolver = (*roundRobinResolver)(nil)

// roundRobinResolver is a Resolver that load balances between multiple
// resolvers by trying them, with failover, in a freshly shuffled order on
// every lookup.
type roundRobinResolver struct {
	resolvers []Resolver
}

// RoundRobin returns a Resolver that load balances between multiple
// resolvers by trying them, with failover, in a freshly shuffled order on
// every lookup.
func RoundRobin(resolvers ...Resolver) *roundRobinResolver {
	return &roundRobinResolver{
		resolvers: resolvers,
	}
}

func (r *roundRobinResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	return Sequential(util.Shuffle(r.resolvers)...).LookupHost(ctx, host)
}

func (r *roundRobinResolver) LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error) {
	return Sequential(util.Shuffle(r.resolvers)...).LookupNetIP(ctx, network, host)
}
