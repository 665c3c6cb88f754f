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
	"errors"
	"fmt"

	"github.com/andreas-jonsson/dosdasm/emulator/debug"
	"github.com/andreas-jonsson/dosdasm/emulator/processor"
	"github.com/sirupsen/logrus"
)

var jccNames = [16]string{
	"jo", "jno", "jb", "jnb", "jz", "jnz", "jbe", "ja",
	"js", "jns", "jp", "jnp", "jl", "jge", "jle", "jg",
}

func branchTarget(target uint16) string {
	return fmt.Sprintf("0x%04X", target)
}

// condition evaluates the Jcc condition encoded in the low nibble of op.
func (p *CPU) condition(op byte) bool {
	f := &p.Flags
	var cond bool
	switch (op & 0xF) >> 1 {
	case 0:
		cond = f.GetBool(processor.Overflow)
	case 1:
		cond = f.GetBool(processor.Carry)
	case 2:
		cond = f.GetBool(processor.Zero)
	case 3:
		cond = f.GetBool(processor.Carry) || f.GetBool(processor.Zero)
	case 4:
		cond = f.GetBool(processor.Sign)
	case 5:
		cond = f.GetBool(processor.Parity)
	case 6:
		cond = f.GetBool(processor.Sign) != f.GetBool(processor.Overflow)
	case 7:
		cond = f.GetBool(processor.Zero) || f.GetBool(processor.Sign) != f.GetBool(processor.Overflow)
	}
	return cond != (op&1 != 0)
}

func (p *CPU) readRel8() (uint16, error) {
	d, err := p.image.ReadInt8()
	if err != nil {
		return 0, err
	}
	return uint16(p.image.Pos()) + uint16(d), nil
}

func (p *CPU) readRel16() (uint16, error) {
	d, err := p.image.ReadInt16()
	if err != nil {
		return 0, err
	}
	return uint16(p.image.Pos()) + uint16(d), nil
}

func opJcc(p *CPU, exec bool) (string, error) {
	target, err := p.readRel8()
	if err != nil {
		return "", err
	}

	if exec && p.condition(p.opcode) {
		p.jump(target)
	}
	return format(jccNames[p.opcode&0xF], branchTarget(target)), nil
}

func opLoop(p *CPU, exec bool) (string, error) {
	target, err := p.readRel8()
	if err != nil {
		return "", err
	}

	var name string
	switch p.opcode {
	case 0xE0:
		name = "loopnz"
	case 0xE1:
		name = "loopz"
	case 0xE2:
		name = "loop"
	case 0xE3:
		name = "jcxz"
	}

	text := format(name, branchTarget(target))
	if !exec {
		return text, nil
	}

	if p.opcode == 0xE3 {
		if p.CX() == 0 {
			p.jump(target)
		}
		return text, nil
	}

	cx := p.CX() - 1
	p.SetCX(cx)

	zf := p.Flags.GetBool(processor.Zero)
	switch {
	case cx == 0:
	case p.opcode == 0xE0 && zf:
	case p.opcode == 0xE1 && !zf:
	default:
		p.jump(target)
	}
	return text, nil
}

func opCall(p *CPU, exec bool) (string, error) {
	target, err := p.readRel16()
	if err != nil {
		return "", err
	}

	if exec {
		p.push16(uint16(p.image.Pos()))
		p.jump(target)
	}
	return format("call", branchTarget(target)), nil
}

func opJmp(p *CPU, exec bool) (string, error) {
	var (
		target uint16
		err    error
	)
	if p.opcode == 0xEB {
		target, err = p.readRel8()
	} else {
		target, err = p.readRel16()
	}
	if err != nil {
		return "", err
	}

	if exec {
		p.jump(target)
	}
	return format("jmp", branchTarget(target)), nil
}

func opRet(p *CPU, exec bool) (string, error) {
	var release uint16
	text := "ret"
	if p.opcode == 0xC2 {
		v, err := p.image.ReadWord()
		if err != nil {
			return "", err
		}
		release = v
		text = format("ret", hex(v))
	}
	if !exec {
		return text, nil
	}

	ip, err := p.pop16()
	if err != nil {
		return text, err
	}

	// Arguments live on the value stack as words.
	for i := 0; i < int(release/2); i++ {
		if _, err := p.pop16(); err != nil {
			return text, err
		}
	}

	p.jump(ip)
	return text, nil
}

func opInt(p *CPU, exec bool) (string, error) {
	vector := byte(3)
	if p.opcode == 0xCD {
		v, err := p.image.ReadByte()
		if err != nil {
			return "", err
		}
		vector = v
	}

	text := fmt.Sprintf("int %Xh", vector)
	function := p.AH()

	fields := logrus.Fields{
		"vector":   fmt.Sprintf("%02Xh", vector),
		"function": fmt.Sprintf("%02Xh", function),
	}

	handler := p.lookupInterrupt(vector, function)
	if handler == nil {
		if exec {
			debug.Log.WithFields(fields).Debug("no interrupt service installed")
		}
		return text, nil
	}

	comment, effect, err := handler.HandleInterrupt(p, exec)
	if errors.Is(err, processor.ErrInterruptNotHandled) {
		debug.Log.WithFields(fields).Debug("interrupt service declined")
		return text, nil
	}

	p.comment = comment
	if exec {
		p.effect = effect
	}
	return text, err
}

func opHLT(p *CPU, exec bool) (string, error) {
	if exec {
		return "hlt", processor.ErrCPUHalt
	}
	return "hlt", nil
}
