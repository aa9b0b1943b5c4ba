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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noisysockets/dnsclient"
)

func TestSystemResolver(t *testing.T) {
	resolvConfPath := filepath.Join(t.TempDir(), "resolv.conf")
	require.NoError(t, os.WriteFile(resolvConfPath,
		[]byte("nameserver 127.0.0.1\n"), 0o644))

	res, err := dnsclient.System(&dnsclient.SystemResolverConfig{
		ResolvConfPath:  resolvConfPath,
		HostsFileReader: strings.NewReader(hostsFileContents),
	})
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("Literal", func(t *testing.T) {
		addrs, err := res.LookupNetIP(ctx, "ip", "192.0.2.99")
		require.NoError(t, err)
		require.Equal(t, []netip.Addr{netip.MustParseAddr("192.0.2.99")}, addrs)
	})

	t.Run("HostsFile", func(t *testing.T) {
		addrs, err := res.LookupNetIP(ctx, "ip4", "gateway.internal")
		require.NoError(t, err)
		require.Equal(t, []netip.Addr{netip.MustParseAddr("192.0.2.1")}, addrs)
	})

	t.Run("NoNameservers", func(t *testing.T) {
		emptyPath := filepath.Join(t.TempDir(), "resolv.conf")
		require.NoError(t, os.WriteFile(emptyPath, []byte("# empty\n"), 0o644))

		_, err := dnsclient.System(&dnsclient.SystemResolverConfig{
			ResolvConfPath: emptyPath,
		})
		require.ErrorIs(t, err, dnsclient.ErrMissingNameservers)
	})
}
