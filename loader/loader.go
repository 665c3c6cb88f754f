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


// Package loader turns DOS executables into images the engine can run.
package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/andreas-jonsson/dosdasm/emulator/processor"
	"github.com/spf13/afero"
)

// PSPSize is the size of the program segment prefix in front of a flat image.
// Flat images are linked to run at this offset.
const PSPSize = 0x100

// comStackTop is the initial SP DOS gives a flat image.
const comStackTop = 0xFFFE

// Executable is a load module ready for the engine.
type Executable struct {
	Name   string
	Header *Header // Nil for flat images.
	Image  []byte
	Entry  int
}

// IsMZ reports whether the executable was loaded from an MZ image.
func (e *Executable) IsMZ() bool {
	return e.Header != nil
}

// Context returns the initial CPU state for the executable. The engine
// addresses the load module flat, so CS stays zero and IP holds the linear entry.
func (e *Executable) Context() *processor.Context {
	ctx := new(processor.Context)
	ctx.IP = uint16(e.Entry)
	if h := e.Header; h != nil {
		ctx.SetSS(h.InitSS)
		ctx.SetSP(h.InitSP)
	} else {
		ctx.SetSP(comStackTop)
	}
	return ctx
}

// newPSP returns a program segment prefix with an INT 20h at its start and
// an empty command tail.
func newPSP() []byte {
	psp := make([]byte, PSPSize)
	psp[0], psp[1] = 0xCD, 0x20
	psp[0x81] = '\r'
	return psp
}

// Load detects the image format. Anything without the MZ signature is
// treated as a flat image placed after a PSP, with entry at PSPSize.
func Load(name string, data []byte) (*Executable, error) {
	exe := &Executable{Name: name}
	if !IsMZ(data) {
		if len(data) > 0x10000-PSPSize {
			return nil, fmt.Errorf("%s: flat image of 0x%X bytes does not fit in one segment", name, len(data))
		}
		exe.Image = append(newPSP(), data...)
		exe.Entry = PSPSize
		return exe, nil
	}

	h, err := ReadMZ(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	exe.Header = h
	exe.Image = h.LoadModule(data)
	exe.Entry = h.Entry()
	if exe.Entry >= len(exe.Image) {
		return nil, fmt.Errorf("%s: %w", name, invalid("entry point 0x%X outside load module of 0x%X bytes", exe.Entry, len(exe.Image)))
	}
	return exe, nil
}

// Open reads name from fs and loads it.
func Open(fs afero.Fs, name string) (*Executable, error) {
	data, err := afero.ReadFile(fs, name)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: empty file", name)
	}

	exe, err := Load(name, data)
	if err != nil {
		return nil, err
	}
	if !exe.IsMZ() && strings.EqualFold(filepath.Ext(name), ".exe") {
		return nil, fmt.Errorf("%s: %w", name, invalid("missing signature"))
	}
	return exe, nil
}
