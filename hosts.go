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
	"fmt"
	"io"
	"net"
	"net/netip"
	"os"

	hostsfile "github.com/kevinburke/hostsfile/lib"
	"github.com/miekg/dns"

	"github.com/noisysockets/dnsclient/internal/util"
)

var _ Resolver = (*hostsResolver)(nil)

// HostsResolverConfig is the configuration for a hosts file resolver.
type HostsResolverConfig struct {
	// HostsFileReader is an optional reader that will be used as the source
	// of the hosts file. If not provided, the OS's default hosts file is
	// used.
	HostsFileReader io.Reader
}

// hostsResolver is a resolver that answers from a parsed hosts file.
type hostsResolver struct {
	addrsByName map[string][]netip.Addr
}

// Hosts returns a resolver that answers from the hosts file.
func Hosts(conf *HostsResolverConfig) (*hostsResolver, error) {
	if conf == nil {
		conf = &HostsResolverConfig{}
	}

	// Don't incur the cost of opening the hosts file if a reader is
	// already provided.
	if conf.HostsFileReader == nil {
		f, err := os.Open(hostsfile.Location)
		if err != nil {
			return nil, fmt.Errorf("failed to open hosts file: %w", err)
		}
		defer f.Close()

		conf.HostsFileReader = f
	}

	h, err := hostsfile.Decode(conf.HostsFileReader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse hosts file: %w", err)
	}

	addrsByName := make(map[string][]netip.Addr)
	for _, record := range h.Records() {
		for name := range record.Hostnames {
			name = dns.Fqdn(name)

			addr, err := netip.ParseAddr(record.IpAddress.String())
			if err != nil {
				return nil, fmt.Errorf("failed to parse IP address: %w", err)
			}

			addrsByName[name] = append(addrsByName[name], addr)
		}
	}

	return &hostsResolver{
		addrsByName: addrsByName,
	}, nil
}

func (r *hostsResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	addrs, err := r.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return nil, err
	}

	return util.Strings(addrs), nil
}

func (r *hostsResolver) LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error) {
	allAddrs, ok := r.addrsByName[dns.Fqdn(host)]
	if !ok {
		return nil, &net.DNSError{
			Err:        ErrNoSuchHost.Error(),
			Name:       host,
			IsNotFound: true,
		}
	}

	addrs := util.FilterAddresses(allAddrs, network)
	if len(addrs) == 0 {
		return nil, &net.DNSError{
			Err:        ErrNoSuchHost.Error(),
			Name:       host,
			IsNotFound: true,
		}
	}

	return addrs, nil
}
