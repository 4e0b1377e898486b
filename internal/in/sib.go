// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package in

import (
	"gate.computer/emit/reg"
)

type Scale byte
type Index byte
type Base byte

const (
	Scale0 = Scale(0 << 6) // factor 1
	Scale1 = Scale(1 << 6) // factor 2
	Scale2 = Scale(2 << 6) // factor 4
	Scale3 = Scale(3 << 6) // factor 8
)

func regIndex(r reg.R) Index { return Index((r & 7) << 3) }
func regBase(r reg.R) Base   { return Base(r & 7) }
