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

// Package dos implements the subset of DOS services a disassembled program may call through INT 21h.
package dos

import (
	"fmt"
	"io"
	"strings"

	"github.com/andreas-jonsson/dosdasm/emulator/memory"
	"github.com/andreas-jonsson/dosdasm/emulator/processor"
	"github.com/andreas-jonsson/dosdasm/platform"
)

const (
	Vector = 0x21

	FunctionPutChar     = 0x02
	FunctionPrintString = 0x09
	FunctionExit        = 0x4C
)

// StringTerminator ends strings printed by FunctionPrintString.
const StringTerminator = '$'

// Installer is implemented by processors that accept interrupt services.
type Installer interface {
	InstallInterruptHandler(vector, function byte, handler processor.InterruptHandler) error
}

var services = map[byte]processor.InterruptHandlerFunc{
	FunctionPutChar:     putChar,
	FunctionPrintString: printString,
	FunctionExit:        exit,
}

// Install registers all DOS services with p.
func Install(p Installer) error {
	for _, function := range []byte{FunctionPutChar, FunctionPrintString, FunctionExit} {
		if err := p.InstallInterruptHandler(Vector, function, services[function]); err != nil {
			return err
		}
	}
	return nil
}

var escaper = strings.NewReplacer("\n", `\n`, "\r", `\r`)

func printString(p processor.Processor, execute bool) (string, processor.Effect, error) {
	ctx := p.GetContext()
	start := memory.NewPointer(ctx.DS(), ctx.DX())

	data, err := p.GetImage().ScanUntil(start, StringTerminator)
	if err != nil {
		// Decoding does not track DX, so a bad pointer only fails when executing.
		if !execute {
			return "", processor.Effect{}, fmt.Errorf("%w: %v", processor.ErrInterruptNotHandled, err)
		}
		return "", processor.Effect{}, err
	}

	text := platform.DecodeCP437(data)
	comment := fmt.Sprintf("; printf(\"%s\");", escaper.Replace(text))
	if !execute {
		return comment, processor.Effect{}, nil
	}

	if _, err := io.WriteString(p.GetConsole(), text); err != nil {
		return comment, processor.Effect{}, err
	}
	return comment, processor.Effect{
		Kind:  processor.RangeEffect,
		Start: start,
		End:   start + memory.Pointer(len(data)),
	}, nil
}

func putChar(p processor.Processor, execute bool) (string, processor.Effect, error) {
	ch := p.GetContext().DL()
	comment := fmt.Sprintf("; putchar(0x%02X);", ch)
	if execute {
		if _, err := io.WriteString(p.GetConsole(), platform.DecodeCP437([]byte{ch})); err != nil {
			return comment, processor.Effect{}, err
		}
	}
	return comment, processor.Effect{}, nil
}

func exit(p processor.Processor, execute bool) (string, processor.Effect, error) {
	comment := fmt.Sprintf("; exit(%d);", p.GetContext().AL())
	if execute {
		return comment, processor.Effect{}, processor.ErrCPUHalt
	}
	return comment, processor.Effect{}, nil
}
