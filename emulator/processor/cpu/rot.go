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

var shiftNames = [8]string{"rol", "ror", "rcl", "rcr", "shl", "shr", "", "sar"}

func opShift(p *CPU, exec bool) (string, error) {
	o, err := p.readModRM()
	if err != nil {
		return "", err
	}
	if o.reg == 6 {
		return "", p.invalidOpcode()
	}

	byCL := p.opcode >= 0xD2
	count := "1"
	if byCL {
		count = "cl"
	}

	text := format(shiftNames[o.reg], p.sized(&o), count)
	if !exec {
		return text, nil
	}

	v, err := p.readRM(&o)
	if err != nil {
		return text, err
	}

	n := byte(1)
	if byCL {
		n = p.CL()
	}
	return text, p.writeRM(&o, p.shiftOrRotate(o.reg, v, n))
}

func (p *CPU) msb() uint16 {
	if p.isWide {
		return 0x8000
	}
	return 0x80
}

func (p *CPU) rotateOverflowLeft(res uint16) {
	f := &p.Flags
	f.SetBool(processor.Overflow, f.GetBool(processor.Carry) != (res&p.msb() != 0))
}

func (p *CPU) rotateOverflowRight(res uint16) {
	msb := p.msb()
	p.Flags.SetBool(processor.Overflow, (res&msb != 0) != (res&(msb>>1) != 0))
}

// shiftOrRotate applies rotate or shift op b times. The 8086 does not mask the count.
// OF is only defined for single bit operations but is computed the same way regardless.
func (p *CPU) shiftOrRotate(op byte, a uint16, b byte) uint16 {
	if b == 0 {
		return a
	}

	f := &p.Flags
	msb := p.msb()
	mask := msb<<1 - 1
	org := a

	for i := 0; i < int(b); i++ {
		cf := f.GetBool(processor.Carry)
		switch op {
		case 0: // ROL
			c := a&msb != 0
			a = (a << 1) & mask
			if c {
				a |= 1
			}
			f.SetBool(processor.Carry, c)
		case 1: // ROR
			c := a&1 != 0
			a >>= 1
			if c {
				a |= msb
			}
			f.SetBool(processor.Carry, c)
		case 2: // RCL
			c := a&msb != 0
			a = (a << 1) & mask
			if cf {
				a |= 1
			}
			f.SetBool(processor.Carry, c)
		case 3: // RCR
			c := a&1 != 0
			a >>= 1
			if cf {
				a |= msb
			}
			f.SetBool(processor.Carry, c)
		case 4: // SHL
			f.SetBool(processor.Carry, a&msb != 0)
			a = (a << 1) & mask
		case 5: // SHR
			f.SetBool(processor.Carry, a&1 != 0)
			a >>= 1
		case 7: // SAR
			f.SetBool(processor.Carry, a&1 != 0)
			a = a>>1 | a&msb
		}
	}

	switch op {
	case 0, 2:
		p.rotateOverflowLeft(a)
	case 1, 3:
		p.rotateOverflowRight(a)
	case 4:
		p.rotateOverflowLeft(a)
		p.updateFlagsSZP(uint32(a))
	case 5:
		f.SetBool(processor.Overflow, b == 1 && org&msb != 0)
		p.updateFlagsSZP(uint32(a))
	case 7:
		f.Clear(processor.Overflow)
		p.updateFlagsSZP(uint32(a))
	}
	return a
}
