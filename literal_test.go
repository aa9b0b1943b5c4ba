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
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noisysockets/dnsclient"
)

func TestLiteralResolver(t *testing.T) {
	res := dnsclient.Literal()

	ctx := context.Background()

	t.Run("IPv4Literal", func(t *testing.T) {
		addrs, err := res.LookupNetIP(ctx, "ip", "192.0.2.1")
		require.NoError(t, err)
		require.Equal(t, []netip.Addr{netip.MustParseAddr("192.0.2.1")}, addrs)
	})

	t.Run("IPv6Literal", func(t *testing.T) {
		addrs, err := res.LookupNetIP(ctx, "ip6", "2001:db8::1")
		require.NoError(t, err)
		require.Equal(t, []netip.Addr{netip.MustParseAddr("2001:db8::1")}, addrs)
	})

	t.Run("WrongFamily", func(t *testing.T) {
		_, err := res.LookupNetIP(ctx, "ip6", "192.0.2.1")
		require.Error(t, err)
	})

	t.Run("Localhost", func(t *testing.T) {
		addrs, err := res.LookupHost(ctx, "localhost")
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"::1", "127.0.0.1"}, addrs)
	})

	t.Run("NotALiteral", func(t *testing.T) {
		_, err := res.LookupNetIP(ctx, "ip", "example.com")
		require.Error(t, err)
	})
}
