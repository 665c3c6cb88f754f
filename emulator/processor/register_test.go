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

package processor

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRegisterHalves(t *testing.T) {
	var r Registers
	for _, v := range []uint16{0, 1, 0x00FF, 0xFF00, 0x1234, 0x8001, 0xFFFF} {
		for reg := AX; reg <= BX; reg++ {
			r.Set(reg, v)
			lo, hi := r.Get8(Reg8(reg)), r.Get8(Reg8(reg)+4)
			if got := uint16(hi)<<8 | uint16(lo); got != v {
				t.Errorf("%v: halves give 0x%X, wrote 0x%X", reg, got, v)
			}
		}
	}

	r.SetAX(0x1234)
	r.SetAL(0xCD)
	if r.AX() != 0x12CD {
		t.Errorf("SetAL: AX = 0x%X", r.AX())
	}
	r.SetAH(0xAB)
	if r.AX() != 0xABCD {
		t.Errorf("SetAH: AX = 0x%X", r.AX())
	}
	r.Set8(BH, 0x7F)
	if r.BX() != 0x7F00|uint16(r.Get8(BL)) {
		t.Errorf("Set8(BH): BX = 0x%X", r.BX())
	}
}

func TestRegisterIndependence(t *testing.T) {
	var r Registers
	for reg := AX; reg <= DI; reg++ {
		r.Set(reg, uint16(reg)+0x100)
	}
	for seg := ES; seg <= DS; seg++ {
		r.SetSeg(seg, uint16(seg)+0x200)
	}
	expected := [12]uint16{0x100, 0x101, 0x102, 0x103, 0x104, 0x105, 0x106, 0x107, 0x200, 0x201, 0x202, 0x203}
	if diff := cmp.Diff(expected, r.GetValues()); diff != "" {
		t.Error(diff)
	}
}

func TestRegisterNames(t *testing.T) {
	if AX.String() != "ax" || DI.String() != "di" || AH.String() != "ah" || DS.String() != "ds" {
		t.Error("unexpected register names")
	}
	if _, err := SegFromIndex(4); !errors.Is(err, ErrUnknownRegister) {
		t.Error("expected ErrUnknownRegister")
	}
	if r, err := SegFromIndex(3); err != nil || r != DS {
		t.Errorf("SegFromIndex(3) = %v, %v", r, err)
	}
}

func TestFlagsRoundTrip(t *testing.T) {
	for v := 0; v <= 0xFFFF; v++ {
		var f Flags
		f.Store(uint16(v))
		if got, want := f.Load(), uint16(v)&uint16(AllFlags); got != want {
			t.Fatalf("Store(0x%X).Load() = 0x%X, expected 0x%X", v, got, want)
		}
	}

	var f Flags
	f.SetBool(Zero, true)
	f.SetBool(Carry, true)
	f.SetIOPL(3)
	if f.Load() != 0x3041 {
		t.Errorf("Load() = 0x%X", f.Load())
	}
	if f.IOPL() != 3 {
		t.Errorf("IOPL() = %d", f.IOPL())
	}
	f.Clear(Zero)
	if f.GetBool(Zero) || !f.GetBool(Carry) {
		t.Error("Clear touched the wrong bit")
	}
	if s := f.String(); s != "--------C" {
		t.Errorf("String() = %q", s)
	}
}

func TestStack(t *testing.T) {
	var s Stack
	if _, err := s.Pop(); !errors.Is(err, ErrStackUnderflow) {
		t.Fatalf("expected underflow, got %v", err)
	}

	s.Push(1)
	depth := s.Len()
	s.Push(0x1234)
	if v, err := s.Pop(); err != nil || v != 0x1234 {
		t.Errorf("Pop() = 0x%X, %v", v, err)
	}
	if s.Len() != depth {
		t.Errorf("depth %d, expected %d", s.Len(), depth)
	}
	if v, ok := s.Peek(); !ok || v != 1 {
		t.Errorf("Peek() = %d, %v", v, ok)
	}
}

func TestContextClone(t *testing.T) {
	var c Context
	c.SetAX(5)
	c.Stack.Push(7)

	n := c.Clone()
	n.SetAX(6)
	n.Stack.Push(8)

	if c.AX() != 5 || c.Stack.Len() != 1 {
		t.Error("clone aliases the original")
	}
	if diff := cmp.Diff([]uint16{7, 8}, n.Stack.Values()); diff != "" {
		t.Error(diff)
	}
}

func TestRegistersString(t *testing.T) {
	var r Registers
	r.SetAX(0x1234)
	r.SetDS(0xB800)
	r.IP = 0x100
	r.Flags.Set(Zero)

	expected := "AX=1234 CX=0000 DX=0000 BX=0000 SP=0000 BP=0000 SI=0000 DI=0000 ES=0000 CS=0000 SS=0000 DS=B800 IP=0100 FLAGS=-----Z---"
	if s := fmt.Sprint(r); s != expected {
		t.Errorf("got %q", s)
	}
	if s := fmt.Sprint(&Context{Registers: r}); s != expected {
		t.Errorf("context prints %q", s)
	}
}
