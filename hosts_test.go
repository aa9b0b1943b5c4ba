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
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noisysockets/dnsclient"
)

const hostsFileContents = `127.0.0.1       localhost
::1             localhost

192.0.2.1       gateway.internal gw
2001:db8::1     gateway.internal
`

func TestHostsResolver(t *testing.T) {
	res, err := dnsclient.Hosts(&dnsclient.HostsResolverConfig{
		HostsFileReader: strings.NewReader(hostsFileContents),
	})
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("LookupNetIP", func(t *testing.T) {
		t.Run("IPv4", func(t *testing.T) {
			addrs, err := res.LookupNetIP(ctx, "ip4", "gateway.internal")
			require.NoError(t, err)
			require.Equal(t, []netip.Addr{netip.MustParseAddr("192.0.2.1")}, addrs)
		})

		t.Run("IPv6", func(t *testing.T) {
			addrs, err := res.LookupNetIP(ctx, "ip6", "gateway.internal")
			require.NoError(t, err)
			require.Equal(t, []netip.Addr{netip.MustParseAddr("2001:db8::1")}, addrs)
		})

		t.Run("Alias", func(t *testing.T) {
			addrs, err := res.LookupNetIP(ctx, "ip", "gw")
			require.NoError(t, err)
			require.NotEmpty(t, addrs)
		})

		t.Run("NotFound", func(t *testing.T) {
			_, err := res.LookupNetIP(ctx, "ip", "missing.internal")
			require.Error(t, err)

			var dnsErr *net.DNSError
			require.ErrorAs(t, err, &dnsErr)
			require.True(t, dnsErr.IsNotFound)
		})
	})

	t.Run("LookupHost", func(t *testing.T) {
		addrs, err := res.LookupHost(ctx, "localhost")
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"127.0.0.1", "::1"}, addrs)
	})
}
