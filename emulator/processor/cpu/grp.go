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

func opGrp1(p *CPU, exec bool) (string, error) {
	o, err := p.readModRM()
	if err != nil {
		return "", err
	}

	var (
		imm     uint16
		immText string
	)
	if p.opcode == 0x83 {
		v, err := p.image.ReadInt8()
		if err != nil {
			return "", err
		}
		imm, immText = uint16(int16(v)), signedHex(int16(v))
	} else {
		if imm, err = p.readImm(); err != nil {
			return "", err
		}
		immText = hex(imm)
	}

	text := format(aluNames[o.reg], p.sized(&o), immText)
	if !exec {
		return text, nil
	}

	a, err := p.readRM(&o)
	if err != nil {
		return text, err
	}
	if res, store := p.alu(o.reg, a, imm); store {
		return text, p.writeRM(&o, res)
	}
	return text, nil
}

var grp3Names = [8]string{"test", "test", "not", "neg", "mul", "imul", "div", "idiv"}

func opGrp3(p *CPU, exec bool) (string, error) {
	o, err := p.readModRM()
	if err != nil {
		return "", err
	}

	if o.reg < 2 {
		imm, err := p.readImm()
		if err != nil {
			return "", err
		}

		text := format("test", p.sized(&o), hex(imm))
		if !exec {
			return text, nil
		}

		v, err := p.readRM(&o)
		if err != nil {
			return text, err
		}
		p.updateFlagsOSZPCLog(uint32(v & imm))
		return text, nil
	}

	text := format(grp3Names[o.reg], p.sized(&o))
	if !exec {
		return text, nil
	}

	v, err := p.readRM(&o)
	if err != nil {
		return text, err
	}

	switch o.reg {
	case 2:
		return text, p.writeRM(&o, ^v)
	case 3:
		res := 0 - uint32(v)
		p.updateFlagsOACSub(res, 0, uint32(v))
		p.updateFlagsSZP(res)
		return text, p.writeRM(&o, uint16(res))
	case 4:
		p.opMUL(v)
	case 5:
		p.opIMUL(v)
	case 6:
		return text, p.opDIV(v)
	case 7:
		return text, p.opIDIV(v)
	}
	return text, nil
}

func (p *CPU) setFlagsOC(b bool) {
	p.Flags.SetBool(processor.Carry, b)
	p.Flags.SetBool(processor.Overflow, b)
}

func (p *CPU) opMUL(v uint16) {
	if !p.isWide {
		res := uint16(p.AL()) * v
		p.SetAX(res)
		p.setFlagsOC(res&0xFF00 != 0)
		return
	}

	res := uint32(p.AX()) * uint32(v)
	p.SetAX(uint16(res))
	p.SetDX(uint16(res >> 16))
	p.setFlagsOC(res>>16 != 0)
}

func (p *CPU) opIMUL(v uint16) {
	if !p.isWide {
		res := int16(int8(p.AL())) * int16(int8(v))
		p.SetAX(uint16(res))
		p.setFlagsOC(res != int16(int8(res)))
		return
	}

	res := int32(int16(p.AX())) * int32(int16(v))
	p.SetAX(uint16(res))
	p.SetDX(uint16(uint32(res) >> 16))
	p.setFlagsOC(res != int32(int16(res)))
}

func (p *CPU) opDIV(v uint16) error {
	if v == 0 {
		return processor.ErrDivideError
	}

	if !p.isWide {
		a := p.AX()
		q := a / v
		if q > 0xFF {
			return processor.ErrDivideError
		}
		p.SetAL(byte(q))
		p.SetAH(byte(a % v))
		return nil
	}

	a := uint32(p.DX())<<16 | uint32(p.AX())
	q := a / uint32(v)
	if q > 0xFFFF {
		return processor.ErrDivideError
	}
	p.SetAX(uint16(q))
	p.SetDX(uint16(a % uint32(v)))
	return nil
}

func (p *CPU) opIDIV(v uint16) error {
	if !p.isWide {
		d := int32(int8(v))
		if d == 0 {
			return processor.ErrDivideError
		}

		a := int32(int16(p.AX()))
		q, r := a/d, a%d
		if q > 0x7F || q < -0x80 {
			return processor.ErrDivideError
		}
		p.SetAL(byte(q))
		p.SetAH(byte(r))
		return nil
	}

	d := int64(int16(v))
	if d == 0 {
		return processor.ErrDivideError
	}

	a := int64(int32(uint32(p.DX())<<16 | uint32(p.AX())))
	q, r := a/d, a%d
	if q > 0x7FFF || q < -0x8000 {
		return processor.ErrDivideError
	}
	p.SetAX(uint16(q))
	p.SetDX(uint16(r))
	return nil
}

func opGrp4(p *CPU, exec bool) (string, error) {
	o, err := p.readModRM()
	if err != nil {
		return "", err
	}
	if o.reg > 1 {
		return "", p.invalidOpcode()
	}
	return p.incDecRM(&o, exec)
}

func (p *CPU) incDecRM(o *operand, exec bool) (string, error) {
	dec := o.reg == 1
	name := "inc"
	if dec {
		name = "dec"
	}

	text := format(name, p.sized(o))
	if !exec {
		return text, nil
	}

	v, err := p.readRM(o)
	if err != nil {
		return text, err
	}
	return text, p.writeRM(o, p.incDec(dec, v))
}

func opGrp5(p *CPU, exec bool) (string, error) {
	o, err := p.readModRM()
	if err != nil {
		return "", err
	}

	switch o.reg {
	case 0, 1:
		return p.incDecRM(&o, exec)
	case 2, 4:
		name := "call"
		if o.reg == 4 {
			name = "jmp"
		}

		text := format(name, o.text)
		if !exec {
			return text, nil
		}

		target, err := p.readRM(&o)
		if err != nil {
			return text, err
		}
		if o.reg == 2 {
			p.push16(uint16(p.image.Pos()))
		}
		p.jump(target)
		return text, nil
	case 6:
		text := format("push", p.sized(&o))
		if !exec {
			return text, nil
		}

		v, err := p.readRM(&o)
		if err != nil {
			return text, err
		}
		p.push16(v)
		return text, nil
	}
	return "", p.invalidOpcode()
}
