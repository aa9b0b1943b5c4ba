// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 The Noisy Sockets Authors.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package util

import (
	"math/rand"
	"net/netip"

	"dario.cat/mergo"
)

// PointerTo returns a pointer to the given value.
func PointerTo[T any](v T) *T {
	return &v
}

// ConfigWithDefaults fills the zero-valued fields of conf from defaults.
// A nil conf is treated as empty.
func ConfigWithDefaults[T any](conf, defaults *T) (*T, error) {
	if conf == nil {
		conf = new(T)
	} else {
		confCopy := *conf
		conf = &confCopy
	}

	if err := mergo.Merge(conf, defaults); err != nil {
		return nil, err
	}

	return conf, nil
}

// Shuffle returns a randomly permuted copy of the given slice.
func Shuffle[T any](s []T) []T {
	shuffled := make([]T, len(s))
	copy(shuffled, s)

	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	return shuffled
}

// Strings converts a slice of stringers to their string forms.
func Strings[T interface{ String() string }](values []T) []string {
	strs := make([]string, len(values))
	for i, v := range values {
		strs[i] = v.String()
	}
	return strs
}

// FilterAddresses filters out addresses that are not of the requested family.
func FilterAddresses(allAddrs []netip.Addr, network string) []netip.Addr {
	var addrs []netip.Addr
	for _, addr := range allAddrs {
		switch network {
		case "ip":
			addrs = append(addrs, addr)
		case "ip4":
			if addr.Unmap().Is4() {
				addrs = append(addrs, addr.Unmap())
			}
		case "ip6":
			if addr.Is6() && !addr.Is4In6() {
				addrs = append(addrs, addr)
			}
		}
	}
	return addrs
}
