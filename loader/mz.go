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


package loader

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/andreas-jonsson/dosdasm/emulator/debug"
	"github.com/andreas-jonsson/dosdasm/emulator/memory"
	"github.com/sirupsen/logrus"
)

const (
	pageSize      = 512
	paragraphSize = 16

	// Size of the fixed part of the header, up to and including the relocation table offset and overlay number.
	minHeaderSize = 0x1C
	// Size of the extended header carrying OEM fields and the new header offset.
	extHeaderSize = 0x40
)

var ErrInvalidHeader = errors.New("invalid MZ header")

var Signature = []byte("MZ")

type Relocation struct {
	Offset, Segment uint16
}

// Header is the DOS MZ executable header.
type Header struct {
	LastPageBytes   uint16
	PageCount       uint16
	RelocCount      uint16
	HeaderSize      uint16 // In paragraphs.
	MinAlloc        uint16
	MaxAlloc        uint16
	InitSS          uint16
	InitSP          uint16
	Checksum        uint16
	InitIP          uint16
	InitCS          uint16
	RelocOffset     uint16
	Overlay         uint16
	OEMID           uint16
	OEMInfo         uint16
	NewHeaderOffset uint32

	Relocations []Relocation
}

func invalid(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidHeader, fmt.Sprintf(format, a...))
}

// IsMZ reports whether data starts with the MZ signature.
func IsMZ(data []byte) bool {
	return bytes.HasPrefix(data, Signature)
}

// FileSize returns the size of the executable as given by the page fields.
func (h *Header) FileSize() int {
	if h.PageCount == 0 {
		return 0
	}
	size := int(h.PageCount-1) * pageSize
	if h.LastPageBytes == 0 {
		return size + pageSize
	}
	return size + int(h.LastPageBytes)
}

// HeaderBytes returns the header size in bytes.
func (h *Header) HeaderBytes() int {
	return int(h.HeaderSize) * paragraphSize
}

// Entry returns the linear entry point relative to the load module.
func (h *Header) Entry() int {
	return int(memory.NewPointer(h.InitCS, h.InitIP))
}

// ReadMZ parses the header at the start of data.
func ReadMZ(data []byte) (*Header, error) {
	if !IsMZ(data) {
		return nil, invalid("missing signature")
	}

	m := memory.NewImage(data)
	m.Seek(len(Signature))

	var h Header
	for _, f := range []*uint16{
		&h.LastPageBytes, &h.PageCount, &h.RelocCount, &h.HeaderSize,
		&h.MinAlloc, &h.MaxAlloc, &h.InitSS, &h.InitSP, &h.Checksum,
		&h.InitIP, &h.InitCS, &h.RelocOffset, &h.Overlay,
	} {
		v, err := m.ReadWord()
		if err != nil {
			return nil, invalid("truncated header: %v", err)
		}
		*f = v
	}

	hdrLen := h.HeaderBytes()
	if hdrLen < minHeaderSize || hdrLen > len(data) {
		return nil, invalid("header size 0x%X outside file of 0x%X bytes", hdrLen, len(data))
	}
	if h.LastPageBytes >= pageSize {
		return nil, invalid("last page holds %d bytes", h.LastPageBytes)
	}

	if hdrLen >= extHeaderSize {
		if err := h.readExtended(m); err != nil {
			return nil, invalid("extended header: %v", err)
		}
	}

	if h.RelocCount > 0 {
		end := int(h.RelocOffset) + int(h.RelocCount)*4
		if int(h.RelocOffset) < minHeaderSize || end > hdrLen {
			return nil, invalid("relocation table [0x%X,0x%X) outside header", h.RelocOffset, end)
		}
		m.Seek(int(h.RelocOffset))
		h.Relocations = make([]Relocation, h.RelocCount)
		for i := range h.Relocations {
			r := &h.Relocations[i]
			r.Offset, _ = m.ReadWord()
			r.Segment, _ = m.ReadWord()
		}
	}

	// Padding after the table is not required to be zero, many linkers leave junk there.
	if pos := m.Pos(); pos < hdrLen {
		if clean, _ := m.SkipReserved(hdrLen - pos); !clean {
			debug.Log.WithField("offset", pos).Debug("Non-zero bytes in header padding")
		}
	}
	return &h, nil
}

func (h *Header) readExtended(m *memory.Image) error {
	var err error
	if _, err = m.SkipReserved(8); err != nil {
		return err
	}
	if h.OEMID, err = m.ReadWord(); err != nil {
		return err
	}
	if h.OEMInfo, err = m.ReadWord(); err != nil {
		return err
	}
	if _, err = m.SkipReserved(20); err != nil {
		return err
	}

	lo, err := m.ReadWord()
	if err != nil {
		return err
	}
	hi, err := m.ReadWord()
	if err != nil {
		return err
	}
	h.NewHeaderOffset = uint32(hi)<<16 | uint32(lo)
	return nil
}

// LoadModule returns the bytes following the header, limited to the size
// recorded in the page fields.
func (h *Header) LoadModule(data []byte) []byte {
	end := h.FileSize()
	if end == 0 || end > len(data) {
		if end > len(data) {
			debug.Log.WithFields(logrus.Fields{
				"expected": end,
				"actual":   len(data),
			}).Warn("Executable is shorter than its header claims")
		}
		end = len(data)
	}
	start := h.HeaderBytes()
	if start > end {
		return nil
	}
	return data[start:end]
}
