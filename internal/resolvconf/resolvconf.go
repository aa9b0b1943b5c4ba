// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 The Noisy Sockets Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 *
 * Portions of this file are based on code originally from the Go project,
 *
 * Copyright (c) 2024 The Go Authors. All rights reserved.
 *
 * Redistribution and use in source and binary forms, with or without
 * modification, are permitted provided that the following conditions are
 * met:
 *
 *   * Redistributions of source code must retain the above copyright
 *     notice, this list of conditions and the following disclaimer.
 *   * Redistributions in binary form must reproduce the above
 *     copyright notice, this list of conditions and the following disclaimer
 *     in the documentation and/or other materials provided with the
 *     distribution.
 *   * Neither the name of Google Inc. nor the names of its
 *     contributors may be used to endorse or promote products derived from
 *     this software without specific prior written permission.
 *
 * THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS
 * "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT
 * LIMITED TO, THE IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR
 * A PARTICULAR PURPOSE ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT
 * OWNER OR CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
 * SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT
 * LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR SERVICES; LOSS OF USE,
 * DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER CAUSED AND ON ANY
 * THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT
 * (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
 * OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.
 */

// Package resolvconf reads nameserver configuration in resolv.conf(5)
// format.
package resolvconf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

// Location is the path of the system resolver configuration.
const Location = "/etc/resolv.conf"

// ErrNoNameservers is returned when the file yields no usable nameserver
// entries.
var ErrNoNameservers = errors.New("no nameservers in configuration")

// Config is the parsed resolver configuration.
type Config struct {
	// Servers are the nameserver addresses, in file order.
	Servers []netip.Addr
	// Search are rooted suffixes to append to a local name.
	Search []string
	// NDots is the number of dots in a name to trigger absolute lookup.
	NDots int
	// Timeout is the wait before giving up on a query.
	Timeout time.Duration
	// Attempts is the number of tries against a server before giving up.
	Attempts int
	// Rotate enables round robin selection among servers.
	Rotate bool
	// UseTCP forces DNS resolution over TCP.
	UseTCP bool
	// SingleRequest makes A and AAAA queries sequential instead of parallel.
	SingleRequest bool
}

// Read parses the file at the given path.
func Read(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads resolv.conf(5) directives: nameserver, domain, search, and
// the options the resolver honors. Lines starting with '#' or ';' are
// comments. At least one nameserver line with an IP literal is required.
func Parse(r io.Reader) (*Config, error) {
	conf := &Config{
		NDots:    1,
		Timeout:  5 * time.Second,
		Attempts: 2,
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}

		f := strings.Fields(line)
		switch f[0] {
		case "nameserver":
			// The entry must be an IP literal, otherwise we would
			// need DNS to look it up.
			if len(f) > 1 {
				if addr, err := netip.ParseAddr(f[1]); err == nil {
					conf.Servers = append(conf.Servers, addr)
				}
			}

		case "domain": // set search path to just this domain
			if len(f) > 1 {
				conf.Search = []string{ensureRooted(f[1])}
			}

		case "search":
			conf.Search = make([]string, 0, len(f)-1)
			for _, name := range f[1:] {
				name = ensureRooted(name)
				if name == "." {
					continue
				}
				conf.Search = append(conf.Search, name)
			}

		case "options":
			for _, s := range f[1:] {
				switch {
				case strings.HasPrefix(s, "ndots:"):
					n, _ := strconv.Atoi(s[len("ndots:"):])
					if n < 0 {
						n = 0
					} else if n > 15 {
						n = 15
					}
					conf.NDots = n
				case strings.HasPrefix(s, "timeout:"):
					n, _ := strconv.Atoi(s[len("timeout:"):])
					if n < 1 {
						n = 1
					}
					conf.Timeout = time.Duration(n) * time.Second
				case strings.HasPrefix(s, "attempts:"):
					n, _ := strconv.Atoi(s[len("attempts:"):])
					if n < 1 {
						n = 1
					}
					conf.Attempts = n
				case s == "rotate":
					conf.Rotate = true
				case s == "single-request" || s == "single-request-reopen":
					conf.SingleRequest = true
				case s == "use-vc" || s == "usevc" || s == "tcp":
					// Linux (use-vc), FreeBSD (usevc) and OpenBSD (tcp)
					// spelling of the same option.
					conf.UseTCP = true
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	if len(conf.Servers) == 0 {
		return nil, ErrNoNameservers
	}

	return conf, nil
}

func ensureRooted(s string) string {
	if strings.HasSuffix(s, ".") {
		return s
	}
	return s + "."
}
