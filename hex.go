// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package emit

const hexDigits = "0123456789ABCDEF"

// HexString formats bytes as uppercase two-digit hex pairs separated by
// single spaces, preserving byte order.
func HexString(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	b := make([]byte, 0, len(data)*3-1)
	for i, x := range data {
		if i > 0 {
			b = append(b, ' ')
		}
		b = append(b, hexDigits[x>>4], hexDigits[x&15])
	}
	return string(b)
}
