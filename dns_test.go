// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 The Noisy Sockets Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package dnsclient_test

import (
	"context"
	"net"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noisysockets/dnsclient"
)

func TestDNSResolver(t *testing.T) {
	server := startUDPServer(t, false)

	res := dnsclient.DNS(dnsclient.DNSResolverConfig{
		Server: server,
	})

	ctx := context.Background()

	t.Run("LookupNetIP", func(t *testing.T) {
		t.Run("IPv4", func(t *testing.T) {
			addrs, err := res.LookupNetIP(ctx, "ip4", "test.example.com")
			require.NoError(t, err)
			require.Equal(t, []netip.Addr{netip.MustParseAddr("192.0.2.10")}, addrs)
		})

		t.Run("All", func(t *testing.T) {
			addrs, err := res.LookupNetIP(ctx, "ip", "test.example.com")
			require.NoError(t, err)
			require.ElementsMatch(t, []netip.Addr{
				netip.MustParseAddr("192.0.2.10"),
				netip.MustParseAddr("2001:db8::10"),
			}, addrs)
		})

		t.Run("NotFound", func(t *testing.T) {
			_, err := res.LookupNetIP(ctx, "ip4", "missing.example.com")
			require.Error(t, err)

			var dnsErr *net.DNSError
			require.ErrorAs(t, err, &dnsErr)
			require.True(t, dnsErr.IsNotFound)
		})

		t.Run("UnsupportedNetwork", func(t *testing.T) {
			_, err := res.LookupNetIP(ctx, "tcp", "test.example.com")
			require.Error(t, err)
		})
	})

	t.Run("LookupHost", func(t *testing.T) {
		addrs, err := res.LookupHost(ctx, "test.example.com")
		require.NoError(t, err)
		require.NotEmpty(t, addrs)
	})
}

func TestDNSResolverSingleRequest(t *testing.T) {
	server := startUDPServer(t, false)

	singleRequest := true
	res := dnsclient.DNS(dnsclient.DNSResolverConfig{
		Server:        server,
		SingleRequest: &singleRequest,
	})

	addrs, err := res.LookupNetIP(context.Background(), "ip", "test.example.com")
	require.NoError(t, err)
	require.Len(t, addrs, 2)
}

func TestDNSResolverTCP(t *testing.T) {
	server := startTCPServer(t)

	transport := dnsclient.DNSTransportTCP
	res := dnsclient.DNS(dnsclient.DNSResolverConfig{
		Server:    server,
		Transport: &transport,
	})

	addrs, err := res.LookupNetIP(context.Background(), "ip4", "test.example.com")
	require.NoError(t, err)
	require.Equal(t, []netip.Addr{netip.MustParseAddr("192.0.2.10")}, addrs)
}
