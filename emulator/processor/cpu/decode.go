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

package cpu

import (
	"github.com/andreas-jonsson/dosdasm/emulator/processor"
)

// opHandler decodes the instruction whose opcode byte was just consumed and
// returns its text. The text and the number of bytes consumed must not depend
// on exec; only with exec set may the handler change any state.
type opHandler func(p *CPU, exec bool) (string, error)

var opcodeTable [0x100]opHandler

var aluNames = [8]string{"add", "or", "adc", "sbb", "and", "sub", "xor", "cmp"}

func init() {
	for i := 0; i < 8; i++ {
		base := i << 3
		for j := 0; j < 4; j++ {
			opcodeTable[base+j] = opALU
		}
		opcodeTable[base+4] = opALUAcc
		opcodeTable[base+5] = opALUAcc
	}

	for _, op := range []int{0x06, 0x0E, 0x16, 0x1E} {
		opcodeTable[op] = opPushSeg
	}
	for _, op := range []int{0x07, 0x17, 0x1F} {
		opcodeTable[op] = opPopSeg
	}
	for _, op := range []int{0x26, 0x2E, 0x36, 0x3E} {
		opcodeTable[op] = opSegOverride
	}
	opcodeTable[0x27] = opDAA
	opcodeTable[0x2F] = opDAS
	opcodeTable[0x37] = opAAA
	opcodeTable[0x3F] = opAAS

	for i := 0; i < 8; i++ {
		opcodeTable[0x40+i] = opIncDecReg
		opcodeTable[0x48+i] = opIncDecReg
		opcodeTable[0x50+i] = opPushReg
		opcodeTable[0x58+i] = opPopReg
		opcodeTable[0x90+i] = opXchgAcc
		opcodeTable[0xB0+i] = opMovImmReg
		opcodeTable[0xB8+i] = opMovImmReg
	}
	for i := 0x70; i <= 0x7F; i++ {
		opcodeTable[i] = opJcc
	}

	opcodeTable[0x80] = opGrp1
	opcodeTable[0x81] = opGrp1
	opcodeTable[0x82] = opGrp1
	opcodeTable[0x83] = opGrp1
	opcodeTable[0x84] = opTest
	opcodeTable[0x85] = opTest
	opcodeTable[0x86] = opXchg
	opcodeTable[0x87] = opXchg
	for i := 0x88; i <= 0x8B; i++ {
		opcodeTable[i] = opMov
	}
	opcodeTable[0x8C] = opMovSeg
	opcodeTable[0x8D] = opLEA
	opcodeTable[0x8E] = opMovSeg
	opcodeTable[0x8F] = opPopRM

	opcodeTable[0x98] = opCBW
	opcodeTable[0x99] = opCWD
	opcodeTable[0x9C] = opPushf
	opcodeTable[0x9D] = opPopf
	opcodeTable[0x9E] = opSAHF
	opcodeTable[0x9F] = opLAHF

	for i := 0xA0; i <= 0xA3; i++ {
		opcodeTable[i] = opMovMoffs
	}
	for _, op := range []int{0xA4, 0xA5, 0xA6, 0xA7, 0xAA, 0xAB, 0xAC, 0xAD, 0xAE, 0xAF} {
		opcodeTable[op] = opString
	}
	opcodeTable[0xA8] = opTestAcc
	opcodeTable[0xA9] = opTestAcc

	opcodeTable[0xC2] = opRet
	opcodeTable[0xC3] = opRet
	opcodeTable[0xC6] = opMovImmRM
	opcodeTable[0xC7] = opMovImmRM
	opcodeTable[0xCC] = opInt
	opcodeTable[0xCD] = opInt

	for i := 0xD0; i <= 0xD3; i++ {
		opcodeTable[i] = opShift
	}
	opcodeTable[0xD4] = opAAM
	opcodeTable[0xD5] = opAAD
	opcodeTable[0xD7] = opXLAT

	for i := 0xE0; i <= 0xE3; i++ {
		opcodeTable[i] = opLoop
	}
	opcodeTable[0xE8] = opCall
	opcodeTable[0xE9] = opJmp
	opcodeTable[0xEB] = opJmp

	opcodeTable[0xF2] = opRepeat
	opcodeTable[0xF3] = opRepeat
	opcodeTable[0xF4] = opHLT
	opcodeTable[0xF5] = opFlag
	opcodeTable[0xF6] = opGrp3
	opcodeTable[0xF7] = opGrp3
	for i := 0xF8; i <= 0xFD; i++ {
		opcodeTable[i] = opFlag
	}
	opcodeTable[0xFE] = opGrp4
	opcodeTable[0xFF] = opGrp5
}

// Supported reports whether op has a handler.
func Supported(op byte) bool {
	return opcodeTable[op] != nil
}

func b2ui32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func signExtend16(v byte) uint16 {
	return uint16(int16(int8(v)))
}

func (p *CPU) getFlagsMask() (uint32, uint32) {
	maskC := uint32(0xFF00)
	maskO := uint32(0x0080)
	if p.isWide {
		maskC = 0xFFFF0000
		maskO = 0x00008000
	}
	return maskC, maskO
}

func (p *CPU) updateFlagsSZP(res uint32) {
	_, maskS := p.getFlagsMask()
	maskZ := maskS<<1 - 1
	p.Flags.SetBool(processor.Sign, res&maskS != 0)
	p.Flags.SetBool(processor.Zero, res&maskZ == 0)
	p.Flags.SetBool(processor.Parity, parity(byte(res)))
}

func (p *CPU) clearFlagsOC() {
	p.Flags.Clear(processor.Overflow | processor.Carry)
}

func (p *CPU) updateFlagsOSZPCLog(res uint32) {
	p.updateFlagsSZP(res)
	p.clearFlagsOC()
}

func (p *CPU) updateFlagsOACAdd(res, a, b uint32) {
	maskC, maskO := p.getFlagsMask()
	p.Flags.SetBool(processor.Carry, res&maskC != 0)
	p.Flags.SetBool(processor.Adjust, (a^b^res)&0x10 != 0)
	p.Flags.SetBool(processor.Overflow, (res^a)&(res^b)&maskO != 0)
}

// updateFlagsOACSub expects b without any borrow so it also serves SBB.
func (p *CPU) updateFlagsOACSub(res, a, b uint32) {
	maskC, maskO := p.getFlagsMask()
	p.Flags.SetBool(processor.Carry, res&maskC != 0)
	p.Flags.SetBool(processor.Adjust, (a^b^res)&0x10 != 0)
	p.Flags.SetBool(processor.Overflow, (res^a)&(a^b)&maskO != 0)
}

// alu runs one of the eight arithmetic group operations and reports whether
// the result should be written back.
func (p *CPU) alu(op byte, a, b uint16) (uint16, bool) {
	x, y := uint32(a), uint32(b)
	carry := b2ui32(p.Flags.GetBool(processor.Carry))

	var res uint32
	switch op & 7 {
	case 0:
		res = x + y
		p.updateFlagsOACAdd(res, x, y)
	case 1:
		res = x | y
		p.clearFlagsOC()
	case 2:
		res = x + y + carry
		p.updateFlagsOACAdd(res, x, y)
	case 3:
		res = x - y - carry
		p.updateFlagsOACSub(res, x, y)
	case 4:
		res = x & y
		p.clearFlagsOC()
	case 5, 7:
		res = x - y
		p.updateFlagsOACSub(res, x, y)
	case 6:
		res = x ^ y
		p.clearFlagsOC()
	}
	p.updateFlagsSZP(res)
	return uint16(res), op&7 != 7
}

func opALU(p *CPU, exec bool) (string, error) {
	o, err := p.readModRM()
	if err != nil {
		return "", err
	}

	name := aluNames[(p.opcode>>3)&7]
	reg := regName(o.reg, p.isWide)

	var text string
	if p.rmToReg {
		text = format(name, reg, o.text)
	} else {
		text = format(name, o.text, reg)
	}
	if !exec {
		return text, nil
	}

	rm, err := p.readRM(&o)
	if err != nil {
		return text, err
	}

	if p.rmToReg {
		if res, store := p.alu(p.opcode>>3, p.readReg(o.reg), rm); store {
			p.writeReg(o.reg, res)
		}
		return text, nil
	}

	if res, store := p.alu(p.opcode>>3, rm, p.readReg(o.reg)); store {
		return text, p.writeRM(&o, res)
	}
	return text, nil
}

func opALUAcc(p *CPU, exec bool) (string, error) {
	imm, err := p.readImm()
	if err != nil {
		return "", err
	}

	text := format(aluNames[(p.opcode>>3)&7], regName(0, p.isWide), hex(imm))
	if !exec {
		return text, nil
	}

	if res, store := p.alu(p.opcode>>3, p.readReg(0), imm); store {
		p.writeReg(0, res)
	}
	return text, nil
}

func opPushSeg(p *CPU, exec bool) (string, error) {
	seg := processor.SegReg((p.opcode >> 3) & 3)
	if exec {
		p.push16(p.Seg(seg))
	}
	return format("push", seg.String()), nil
}

func opPopSeg(p *CPU, exec bool) (string, error) {
	seg := processor.SegReg((p.opcode >> 3) & 3)
	text := format("pop", seg.String())
	if !exec {
		return text, nil
	}

	v, err := p.pop16()
	if err != nil {
		return text, err
	}
	p.SetSeg(seg, v)
	return text, nil
}

func opSegOverride(p *CPU, exec bool) (string, error) {
	if err := p.prefix(); err != nil {
		return "", err
	}
	p.segOverride = int((p.opcode >> 3) & 3)
	return p.dispatch(exec)
}

func opDAA(p *CPU, exec bool) (string, error) {
	if exec {
		p.decimalAdjust(1)
	}
	return "daa", nil
}

func opDAS(p *CPU, exec bool) (string, error) {
	if exec {
		p.decimalAdjust(-1)
	}
	return "das", nil
}

func (p *CPU) decimalAdjust(dir int) {
	f := &p.Flags
	al, cf := p.AL(), f.GetBool(processor.Carry)
	f.Clear(processor.Carry)

	if al&0xF > 9 || f.GetBool(processor.Adjust) {
		v := uint16(al) + uint16(6*dir)
		p.SetAL(byte(v))
		f.SetBool(processor.Carry, cf || v&0xFF00 != 0)
		f.Set(processor.Adjust)
	} else {
		f.Clear(processor.Adjust)
	}

	if al > 0x99 || cf {
		p.SetAL(p.AL() + byte(0x60*dir))
		f.Set(processor.Carry)
	}

	p.isWide = false
	p.updateFlagsSZP(uint32(p.AL()))
}

func opAAA(p *CPU, exec bool) (string, error) {
	return "aaa", p.asciiAdjust(exec, 1)
}

func opAAS(p *CPU, exec bool) (string, error) {
	return "aas", p.asciiAdjust(exec, -1)
}

func (p *CPU) asciiAdjust(exec bool, dir int) error {
	if !exec {
		return nil
	}

	f := &p.Flags
	if al := p.AL(); al&0xF > 9 || f.GetBool(processor.Adjust) {
		p.SetAL(al + byte(6*dir))
		p.SetAH(p.AH() + byte(dir))
		f.Set(processor.Adjust | processor.Carry)
	} else {
		f.Clear(processor.Adjust | processor.Carry)
	}

	p.isWide = false
	al := p.AL() & 0xF
	p.SetAL(al)
	p.updateFlagsSZP(uint32(al))
	return nil
}

func opAAM(p *CPU, exec bool) (string, error) {
	base, err := p.image.ReadByte()
	if err != nil {
		return "", err
	}

	text := "aam"
	if base != 10 {
		text = format("aam", hex(uint16(base)))
	}
	if !exec {
		return text, nil
	}

	if base == 0 {
		return text, processor.ErrDivideError
	}
	al := p.AL()
	p.SetAH(al / base)
	p.SetAL(al % base)
	p.isWide = false
	p.updateFlagsSZP(uint32(p.AL()))
	return text, nil
}

func opAAD(p *CPU, exec bool) (string, error) {
	base, err := p.image.ReadByte()
	if err != nil {
		return "", err
	}

	text := "aad"
	if base != 10 {
		text = format("aad", hex(uint16(base)))
	}
	if !exec {
		return text, nil
	}

	p.SetAX(uint16(p.AL()+p.AH()*base) & 0xFF)
	p.isWide = false
	p.updateFlagsSZP(uint32(p.AL()))
	return text, nil
}

func opIncDecReg(p *CPU, exec bool) (string, error) {
	reg := processor.Reg(p.opcode & 7)
	name := "inc"
	if p.opcode >= 0x48 {
		name = "dec"
	}

	text := format(name, reg.String())
	if !exec {
		return text, nil
	}

	p.isWide = true
	p.Set(reg, p.incDec(name == "dec", p.Get(reg)))
	return text, nil
}

// incDec leaves CF untouched.
func (p *CPU) incDec(dec bool, v uint16) uint16 {
	cf := p.Flags.GetBool(processor.Carry)
	a := uint32(v)

	var res uint32
	if dec {
		res = a - 1
		p.updateFlagsOACSub(res, a, 1)
	} else {
		res = a + 1
		p.updateFlagsOACAdd(res, a, 1)
	}

	p.updateFlagsSZP(res)
	p.Flags.SetBool(processor.Carry, cf)
	return uint16(res)
}

func opPushReg(p *CPU, exec bool) (string, error) {
	reg := processor.Reg(p.opcode & 7)
	if exec {
		p.push16(p.Get(reg))
	}
	return format("push", reg.String()), nil
}

func opPopReg(p *CPU, exec bool) (string, error) {
	reg := processor.Reg(p.opcode & 7)
	text := format("pop", reg.String())
	if !exec {
		return text, nil
	}

	v, err := p.pop16()
	if err != nil {
		return text, err
	}
	p.Set(reg, v)
	return text, nil
}

func opXchgAcc(p *CPU, exec bool) (string, error) {
	if p.opcode == 0x90 {
		return "nop", nil
	}

	reg := processor.Reg(p.opcode & 7)
	if exec {
		ax := p.AX()
		p.SetAX(p.Get(reg))
		p.Set(reg, ax)
	}
	return format("xchg", "ax", reg.String()), nil
}

func opMovImmReg(p *CPU, exec bool) (string, error) {
	p.isWide = p.opcode >= 0xB8
	imm, err := p.readImm()
	if err != nil {
		return "", err
	}

	idx := p.opcode & 7
	if exec {
		p.writeReg(idx, imm)
	}
	return format("mov", regName(idx, p.isWide), paddedHex(imm, p.isWide)), nil
}

func opTest(p *CPU, exec bool) (string, error) {
	o, err := p.readModRM()
	if err != nil {
		return "", err
	}

	text := format("test", o.text, regName(o.reg, p.isWide))
	if !exec {
		return text, nil
	}

	v, err := p.readRM(&o)
	if err != nil {
		return text, err
	}
	p.updateFlagsOSZPCLog(uint32(v & p.readReg(o.reg)))
	return text, nil
}

func opTestAcc(p *CPU, exec bool) (string, error) {
	imm, err := p.readImm()
	if err != nil {
		return "", err
	}

	text := format("test", regName(0, p.isWide), hex(imm))
	if exec {
		p.updateFlagsOSZPCLog(uint32(p.readReg(0) & imm))
	}
	return text, nil
}

func opXchg(p *CPU, exec bool) (string, error) {
	o, err := p.readModRM()
	if err != nil {
		return "", err
	}

	text := format("xchg", o.text, regName(o.reg, p.isWide))
	if !exec {
		return text, nil
	}

	v, err := p.readRM(&o)
	if err != nil {
		return text, err
	}
	if err := p.writeRM(&o, p.readReg(o.reg)); err != nil {
		return text, err
	}
	p.writeReg(o.reg, v)
	return text, nil
}

func opMov(p *CPU, exec bool) (string, error) {
	o, err := p.readModRM()
	if err != nil {
		return "", err
	}

	reg := regName(o.reg, p.isWide)
	if p.rmToReg {
		text := format("mov", reg, o.text)
		if !exec {
			return text, nil
		}
		v, err := p.readRM(&o)
		if err != nil {
			return text, err
		}
		p.writeReg(o.reg, v)
		return text, nil
	}

	text := format("mov", o.text, reg)
	if !exec {
		return text, nil
	}
	return text, p.writeRM(&o, p.readReg(o.reg))
}

func opMovSeg(p *CPU, exec bool) (string, error) {
	p.isWide = true
	o, err := p.readModRM()
	if err != nil {
		return "", err
	}

	seg, err := processor.SegFromIndex(o.reg)
	if err != nil {
		return "", err
	}

	if p.opcode == 0x8C {
		text := format("mov", o.text, seg.String())
		if !exec {
			return text, nil
		}
		return text, p.writeRM(&o, p.Seg(seg))
	}

	text := format("mov", seg.String(), o.text)
	if !exec {
		return text, nil
	}
	v, err := p.readRM(&o)
	if err != nil {
		return text, err
	}
	p.SetSeg(seg, v)
	return text, nil
}

func opLEA(p *CPU, exec bool) (string, error) {
	p.isWide = true
	o, err := p.readModRM()
	if err != nil {
		return "", err
	}
	if !o.isMemory() {
		return "", p.invalidOpcode()
	}

	text := format("lea", regName(o.reg, true), o.text)
	if exec {
		p.writeReg(o.reg, o.addr.Offset())
	}
	return text, nil
}

func opPopRM(p *CPU, exec bool) (string, error) {
	o, err := p.readModRM()
	if err != nil {
		return "", err
	}
	if o.reg != 0 {
		return "", p.invalidOpcode()
	}

	text := format("pop", p.sized(&o))
	if !exec {
		return text, nil
	}

	v, err := p.pop16()
	if err != nil {
		return text, err
	}
	return text, p.writeRM(&o, v)
}

func opCBW(p *CPU, exec bool) (string, error) {
	if exec {
		p.SetAX(signExtend16(p.AL()))
	}
	return "cbw", nil
}

func opCWD(p *CPU, exec bool) (string, error) {
	if exec {
		if p.AX()&0x8000 != 0 {
			p.SetDX(0xFFFF)
		} else {
			p.SetDX(0)
		}
	}
	return "cwd", nil
}

// Bit 1 of the flags register always reads as set.
const reservedFlag = 0x2

const lowFlags = processor.Carry | processor.Parity | processor.Adjust | processor.Zero | processor.Sign

func opPushf(p *CPU, exec bool) (string, error) {
	if exec {
		p.push16(p.Flags.Load() | reservedFlag)
	}
	return "pushf", nil
}

func opPopf(p *CPU, exec bool) (string, error) {
	if !exec {
		return "popf", nil
	}

	v, err := p.pop16()
	if err != nil {
		return "popf", err
	}
	p.Flags.Store(v)
	return "popf", nil
}

func opSAHF(p *CPU, exec bool) (string, error) {
	if exec {
		hi := p.Flags.Load() &^ uint16(lowFlags)
		p.Flags.Store(hi | uint16(p.AH())&uint16(lowFlags))
	}
	return "sahf", nil
}

func opLAHF(p *CPU, exec bool) (string, error) {
	if exec {
		p.SetAH(byte(p.Flags.Load()&uint16(lowFlags)) | reservedFlag)
	}
	return "lahf", nil
}

func opMovMoffs(p *CPU, exec bool) (string, error) {
	offset, err := p.image.ReadWord()
	if err != nil {
		return "", err
	}

	o := operand{mode: modeDirect, disp: int16(offset)}
	p.directOperand(&o, offset)
	acc := regName(0, p.isWide)

	if p.opcode < 0xA2 {
		text := format("mov", acc, o.text)
		if !exec {
			return text, nil
		}
		v, err := p.readRM(&o)
		if err != nil {
			return text, err
		}
		p.writeReg(0, v)
		return text, nil
	}

	text := format("mov", o.text, acc)
	if !exec {
		return text, nil
	}
	return text, p.writeRM(&o, p.readReg(0))
}

func opMovImmRM(p *CPU, exec bool) (string, error) {
	o, err := p.readModRM()
	if err != nil {
		return "", err
	}
	if o.reg != 0 {
		return "", p.invalidOpcode()
	}

	imm, err := p.readImm()
	if err != nil {
		return "", err
	}

	text := format("mov", p.sized(&o), paddedHex(imm, p.isWide))
	if !exec {
		return text, nil
	}
	return text, p.writeRM(&o, imm)
}

func opXLAT(p *CPU, exec bool) (string, error) {
	o := operand{mode: modeDirect}
	p.directOperand(&o, p.BX()+uint16(p.AL()))

	text := "xlatb"
	if p.segOverride >= 0 {
		text = format("xlatb", processor.SegReg(p.segOverride).String())
	}
	if !exec {
		return text, nil
	}

	v, err := p.mem.ReadByteAt(o.pointer())
	if err != nil {
		return text, err
	}
	p.SetAL(v)
	return text, nil
}

func opFlag(p *CPU, exec bool) (string, error) {
	f := &p.Flags
	switch p.opcode {
	case 0xF5:
		if exec {
			f.SetBool(processor.Carry, !f.GetBool(processor.Carry))
		}
		return "cmc", nil
	case 0xF8:
		if exec {
			f.Clear(processor.Carry)
		}
		return "clc", nil
	case 0xF9:
		if exec {
			f.Set(processor.Carry)
		}
		return "stc", nil
	case 0xFA:
		if exec {
			f.Clear(processor.InterruptEnable)
		}
		return "cli", nil
	case 0xFB:
		if exec {
			f.Set(processor.InterruptEnable)
		}
		return "sti", nil
	case 0xFC:
		if exec {
			f.Clear(processor.Direction)
		}
		return "cld", nil
	case 0xFD:
		if exec {
			f.Set(processor.Direction)
		}
		return "std", nil
	}
	return "", p.invalidOpcode()
}
