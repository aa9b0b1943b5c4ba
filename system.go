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
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"

	"github.com/noisysockets/dnsclient/internal/resolvconf"
	"github.com/noisysockets/dnsclient/internal/util"
)

// SystemResolverConfig is the configuration for a system resolver.
type SystemResolverConfig struct {
	// ResolvConfPath is the optional path to the resolver configuration.
	// By default, /etc/resolv.conf is used.
	ResolvConfPath string
	// HostsFileReader is an optional reader used as the source of the
	// hosts file. By default, the OS's hosts file is used.
	HostsFileReader io.Reader
	// DialContext is used to establish connections to the DNS servers.
	DialContext DialContextFunc
}

// System returns a Resolver that uses the system's default DNS
// configuration: IP literals and the hosts file first, then the configured
// nameservers in resolv.conf order (shuffled when the rotate option is
// set), with the configured number of attempts.
func System(conf *SystemResolverConfig) (Resolver, error) {
	conf, err := util.ConfigWithDefaults(conf, &SystemResolverConfig{
		ResolvConfPath: resolvconf.Location,
		DialContext:    (&net.Dialer{}).DialContext,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply defaults to system resolver config: %w", err)
	}

	systemConf, err := resolvconf.Read(conf.ResolvConfPath)
	if err != nil {
		if errors.Is(err, resolvconf.ErrNoNameservers) {
			return nil, fmt.Errorf("%w: %w", ErrMissingNameservers, err)
		}
		return nil, fmt.Errorf("failed to read system DNS configuration: %w", err)
	}

	transport := DNSTransportUDP
	if systemConf.UseTCP {
		transport = DNSTransportTCP
	}

	var resolvers []Resolver
	for _, server := range systemConf.Servers {
		resolvers = append(resolvers, DNS(DNSResolverConfig{
			Server:        netip.AddrPortFrom(server, 53),
			Transport:     &transport,
			Timeout:       &systemConf.Timeout,
			DialContext:   conf.DialContext,
			SingleRequest: &systemConf.SingleRequest,
		}))
	}

	var upstream Resolver
	if systemConf.Rotate {
		upstream = RoundRobin(resolvers...)
	} else {
		upstream = Sequential(resolvers...)
	}

	if systemConf.Attempts > 0 {
		upstream = Retry(upstream, &RetryResolverConfig{
			Attempts: &systemConf.Attempts,
		})
	}

	chain := []Resolver{Literal()}

	// The hosts file is best-effort; some systems don't have one.
	if hosts, err := Hosts(&HostsResolverConfig{
		HostsFileReader: conf.HostsFileReader,
	}); err == nil {
		chain = append(chain, hosts)
	}

	return Sequential(append(chain, upstream)...), nil
}
