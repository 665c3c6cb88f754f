/*
Copyright (c) 2019-2021 Andreas T Jonsson

This software is provided 'as-is', without any express or implied
warranty. In no event will the authors be held liable for any damages
arising from the use of this software.

Permission is granted to anyone to use this software for any purpose,
including commercial applications, and to alter it and redistribute it
freely, subject to the following restrictions:

1. The origin of this software must not be misrepresented; you must not
   claim that you wrote the original software. If you use this software
   in a product, an acknowledgment in the product documentation would be
   appreciated but is not required.
2. Altered source versions must be plainly marked as such, and must not be
   misrepresented as being the original software.
3. This notice may not be removed or altered from any source distribution.
*/

package platform

import (
	"testing"

	"golang.org/x/text/encoding/charmap"
)

func TestCodePage(t *testing.T) {
	t.Run("ASCII", func(t *testing.T) {
		for i := 32; i < 127; i++ {
			if r := charmap.CodePage437.DecodeByte(byte(i)); r != rune(i) {
				t.Errorf("codepage 437 maps %d to %q", i, r)
			}
		}
		if s := DecodeCP437([]byte("HI\r\n")); s != "HI\r\n" {
			t.Errorf("unexpected transcription %q", s)
		}
	})

	t.Run("Duplicates", func(t *testing.T) {
		seen := make(map[rune]int)
		for i := 0; i < 256; i++ {
			r := charmap.CodePage437.DecodeByte(byte(i))
			if j, ok := seen[r]; ok {
				t.Errorf("codepage 437 maps both %d and %d to %q", i, j, r)
			}
			seen[r] = i
		}
	})

	t.Run("Graphics", func(t *testing.T) {
		if s := DecodeCP437([]byte{0xC9, 0xCD, 0xBB}); s != "╔═╗" {
			t.Errorf("unexpected transcription %q", s)
		}
	})
}
