// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package sessionmodel

// Cas is a compare-and-set token: a monotonically increasing counter
// returned by every successful write to a CAS-family store.
type Cas uint64

// CasInitial is the CAS value assigned to a newly created record.
const CasInitial Cas = 1

// CasNone is the sentinel CAS value meaning "not present".
const CasNone Cas = 0

// Next returns the next CAS value. Wrapping is tolerated but not
// expected in practice.
func (c Cas) Next() Cas {
	return c + 1
}
