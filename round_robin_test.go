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
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/noisysockets/dnsclient"
	"github.com/noisysockets/dnsclient/testutil"
)

func TestRoundRobinResolver(t *testing.T) {
	res1 := new(testutil.MockResolver)
	res1.On("LookupHost", mock.Anything, "example.com").Return([]string{"192.0.2.1"}, nil)

	res2 := new(testutil.MockResolver)
	res2.On("LookupHost", mock.Anything, "example.com").Return([]string{"192.0.2.2"}, nil)

	res := dnsclient.RoundRobin(res1, res2)

	// Over enough lookups both resolvers should get traffic.
	for i := 0; i < 32; i++ {
		addrs, err := res.LookupHost(context.Background(), "example.com")
		require.NoError(t, err)
		require.Len(t, addrs, 1)
	}

	require.NotZero(t, len(res1.Calls))
	require.NotZero(t, len(res2.Calls))
}
