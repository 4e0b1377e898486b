// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package in

import (
	"gate.computer/emit/reg"
)

type Mod byte
type ModRO byte
type ModRM byte

const (
	ModMem       = Mod(0)
	ModMemDisp8  = Mod(64)
	ModMemDisp32 = Mod(128)
	ModReg       = Mod(192)
)

func regRO(r reg.R) ModRO { return ModRO((r & 7) << 3) }
func regRM(r reg.R) ModRM { return ModRM(r & 7) }

func xmmRO(x reg.X) ModRO { return regRO(reg.R(x)) }
func xmmRM(x reg.X) ModRM { return regRM(reg.R(x)) }
