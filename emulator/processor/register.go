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
	"fmt"
	"strings"
)

const (
	Carry           Flags = 0x0001
	Parity          Flags = 0x0004
	Adjust          Flags = 0x0010
	Zero            Flags = 0x0040
	Sign            Flags = 0x0080
	Trap            Flags = 0x0100
	InterruptEnable Flags = 0x0200
	Direction       Flags = 0x0400
	Overflow        Flags = 0x0800
	IOPrivilege     Flags = 0x3000
	NestedTask      Flags = 0x4000
)

const AllFlags = Carry | Parity | Adjust | Zero | Sign | Trap | InterruptEnable | Direction | Overflow | IOPrivilege | NestedTask

type Flags uint16

func (r *Flags) Get(f Flags) Flags {
	return *r & f
}

func (r *Flags) GetBool(f Flags) bool {
	return r.Get(f) != 0
}

func (r *Flags) Set(f Flags) {
	*r |= f
}

func (r *Flags) SetBool(f Flags, b bool) {
	if b {
		r.Set(f)
		return
	}
	r.Clear(f)
}

func (r *Flags) Clear(f Flags) {
	*r &= ^f
}

// Store unpacks a FLAGS word. Reserved bits are dropped.
func (r *Flags) Store(f uint16) {
	*r = Flags(f) & AllFlags
}

// Load packs the defined flags into a FLAGS word.
func (r *Flags) Load() uint16 {
	return uint16(*r & AllFlags)
}

func (r *Flags) IOPL() byte {
	return byte(r.Get(IOPrivilege) >> 12)
}

func (r *Flags) SetIOPL(v byte) {
	*r = (*r &^ IOPrivilege) | Flags(v&3)<<12
}

func (r Flags) String() string {
	var s [9]byte
	for i, f := range [...]struct {
		flag Flags
		name byte
	}{{Overflow, 'O'}, {Direction, 'D'}, {InterruptEnable, 'I'}, {Trap, 'T'}, {Sign, 'S'}, {Zero, 'Z'}, {Adjust, 'A'}, {Parity, 'P'}, {Carry, 'C'}} {
		if r&f.flag != 0 {
			s[i] = f.name
		} else {
			s[i] = '-'
		}
	}
	return string(s[:])
}

// Reg names a 16-bit general register in ModRM encoding order.
type Reg byte

const (
	AX Reg = iota
	CX
	DX
	BX
	SP
	BP
	SI
	DI
)

var regNames = [8]string{"ax", "cx", "dx", "bx", "sp", "bp", "si", "di"}

func (r Reg) String() string {
	if int(r) < len(regNames) {
		return regNames[r]
	}
	return fmt.Sprintf("reg(%d)", byte(r))
}

// Reg8 names an 8-bit register half in ModRM encoding order.
type Reg8 byte

const (
	AL Reg8 = iota
	CL
	DL
	BL
	AH
	CH
	DH
	BH
)

var reg8Names = [8]string{"al", "cl", "dl", "bl", "ah", "ch", "dh", "bh"}

func (r Reg8) String() string {
	if int(r) < len(reg8Names) {
		return reg8Names[r]
	}
	return fmt.Sprintf("reg8(%d)", byte(r))
}

// SegReg names a segment register in ModRM encoding order.
type SegReg byte

const (
	ES SegReg = iota
	CS
	SS
	DS
)

var segNames = [4]string{"es", "cs", "ss", "ds"}

func (r SegReg) String() string {
	if int(r) < len(segNames) {
		return segNames[r]
	}
	return fmt.Sprintf("sreg(%d)", byte(r))
}

func SegFromIndex(i byte) (SegReg, error) {
	if i > 3 {
		return 0, fmt.Errorf("%w: segment register %d", ErrUnknownRegister, i)
	}
	return SegReg(i), nil
}

// Registers is the register file. The 8-bit halves are views on the 16-bit
// values and are never stored on their own.
type Registers struct {
	gp  [8]uint16
	seg [4]uint16

	Flags
	IP uint16
}

func (r *Registers) Reset() {
	*r = Registers{}
}

func (r *Registers) Get(reg Reg) uint16 {
	return r.gp[reg&7]
}

func (r *Registers) Set(reg Reg, v uint16) {
	r.gp[reg&7] = v
}

// Get8 reads AL..BH. Indices 0-3 are the low halves of AX..BX, 4-7 the high ones.
func (r *Registers) Get8(reg Reg8) byte {
	v := r.gp[reg&3]
	if reg&4 != 0 {
		return byte(v >> 8)
	}
	return byte(v & 0xFF)
}

func (r *Registers) Set8(reg Reg8, v byte) {
	p := &r.gp[reg&3]
	if reg&4 != 0 {
		*p = *p&0xFF | uint16(v)<<8
		return
	}
	*p = *p&0xFF00 | uint16(v)
}

func (r *Registers) Seg(reg SegReg) uint16 {
	return r.seg[reg&3]
}

func (r *Registers) SetSeg(reg SegReg, v uint16) {
	r.seg[reg&3] = v
}

func (r *Registers) AL() byte { return r.Get8(AL) }
func (r *Registers) AH() byte { return r.Get8(AH) }
func (r *Registers) AX() uint16 { return r.Get(AX) }
func (r *Registers) SetAL(v byte) { r.Set8(AL, v) }
func (r *Registers) SetAH(v byte) { r.Set8(AH, v) }
func (r *Registers) SetAX(v uint16) { r.Set(AX, v) }
func (r *Registers) CL() byte { return r.Get8(CL) }
func (r *Registers) CX() uint16 { return r.Get(CX) }
func (r *Registers) SetCX(v uint16) { r.Set(CX, v) }
func (r *Registers) DL() byte { return r.Get8(DL) }
func (r *Registers) DX() uint16 { return r.Get(DX) }
func (r *Registers) SetDX(v uint16) { r.Set(DX, v) }
func (r *Registers) BX() uint16 { return r.Get(BX) }
func (r *Registers) SetBX(v uint16) { r.Set(BX, v) }
func (r *Registers) SP() uint16 { return r.Get(SP) }
func (r *Registers) SetSP(v uint16) { r.Set(SP, v) }
func (r *Registers) BP() uint16 { return r.Get(BP) }
func (r *Registers) SetBP(v uint16) { r.Set(BP, v) }
func (r *Registers) SI() uint16 { return r.Get(SI) }
func (r *Registers) SetSI(v uint16) { r.Set(SI, v) }
func (r *Registers) DI() uint16 { return r.Get(DI) }
func (r *Registers) SetDI(v uint16) { r.Set(DI, v) }
func (r *Registers) ES() uint16 { return r.Seg(ES) }
func (r *Registers) SetES(v uint16) { r.SetSeg(ES, v) }
func (r *Registers) CS() uint16 { return r.Seg(CS) }
func (r *Registers) SetCS(v uint16) { r.SetSeg(CS, v) }
func (r *Registers) SS() uint16 { return r.Seg(SS) }
func (r *Registers) SetSS(v uint16) { r.SetSeg(SS, v) }
func (r *Registers) DS() uint16 { return r.Seg(DS) }
func (r *Registers) SetDS(v uint16) { r.SetSeg(DS, v) }

func (r *Registers) GetValues() [12]uint16 {
	return [12]uint16{
		r.AX(), r.CX(), r.DX(), r.BX(),
		r.SP(), r.BP(), r.SI(), r.DI(),
		r.ES(), r.CS(), r.SS(), r.DS(),
	}
}

// String formats all registers on one line. It replaces the String of the embedded Flags.
func (r Registers) String() string {
	var sb strings.Builder
	for i, v := range r.GetValues() {
		name := regNames[i%8]
		if i >= 8 {
			name = segNames[i-8]
		}
		fmt.Fprintf(&sb, "%s=%04X ", strings.ToUpper(name), v)
	}
	fmt.Fprintf(&sb, "IP=%04X FLAGS=%v", r.IP, r.Flags)
	return sb.String()
}
