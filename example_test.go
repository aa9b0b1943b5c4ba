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
	"fmt"
	"net/netip"

	"github.com/bassosimone/runtimex"

	"github.com/noisysockets/dnsclient"
	"github.com/noisysockets/dnsclient/wire"
)

// Querying a public resolver over UDP.
func ExampleDialUDP() {
	ctx := context.Background()

	conn := runtimex.PanicOnError1(dnsclient.DialUDP(ctx, []netip.AddrPort{
		netip.MustParseAddrPort("8.8.8.8:53"),
	}, nil))
	defer conn.Close()

	addrs := runtimex.PanicOnError1(conn.QueryA(ctx, "www.example.com"))

	fmt.Println(addrs)
}

// Querying a public resolver over DNS over TLS.
func ExampleDialTLS() {
	ctx := context.Background()

	conn := runtimex.PanicOnError1(dnsclient.DialTLS(ctx, "dns.google", nil))
	defer conn.Close()

	reply := runtimex.PanicOnError1(conn.Query(ctx, "www.example.com",
		wire.TypeAAAA, wire.StandardQuery))

	for _, answer := range reply.Answers {
		fmt.Println(answer.Name, answer.Body)
	}
}

// Discovering link-local services over multicast DNS.
func ExampleListenMulticast() {
	ctx := context.Background()

	conn := runtimex.PanicOnError1(dnsclient.ListenMulticast(ctx, nil))
	defer conn.Close()

	records := runtimex.PanicOnError1(conn.QuerySRV(ctx, "_ipp._tcp.local"))

	for _, srv := range records {
		fmt.Println(srv.Target, srv.Port)
	}
}

// Resolving a host the way the operating system would.
func ExampleSystem() {
	res := runtimex.PanicOnError1(dnsclient.System(nil))

	addrs := runtimex.PanicOnError1(res.LookupHost(context.Background(), "www.example.com"))

	fmt.Println(addrs)
}
