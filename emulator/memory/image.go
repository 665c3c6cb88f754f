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

package memory

import "fmt"

// Image is a flat byte image of one loaded segment plus a decode cursor.
// The cursor is also the base for the absolute accessors, which ignore it.
type Image struct {
	buf []byte
	pos int
}

func NewImage(data []byte) *Image {
	return &Image{buf: data}
}

func (m *Image) Len() int {
	return len(m.buf)
}

func (m *Image) Bytes() []byte {
	return m.buf
}

func (m *Image) Pos() int {
	return m.pos
}

// Seek moves the cursor. Positions at or past the end are allowed and simply
// make the image unavailable.
func (m *Image) Seek(pos int) {
	if pos < 0 {
		pos = 0
	}
	m.pos = pos
}

func (m *Image) Available() bool {
	return m.pos < len(m.buf)
}

func (m *Image) underrun(at, n int) error {
	return fmt.Errorf("%w: %d byte(s) at 0x%X, image is 0x%X bytes", ErrBufferUnderrun, n, at, len(m.buf))
}

func (m *Image) check(at, n int) error {
	if at < 0 || n < 0 || at+n > len(m.buf) {
		return m.underrun(at, n)
	}
	return nil
}

func (m *Image) ReadByte() (byte, error) {
	if err := m.check(m.pos, 1); err != nil {
		return 0, err
	}
	v := m.buf[m.pos]
	m.pos++
	return v, nil
}

func (m *Image) ReadWord() (uint16, error) {
	v, err := m.PeekWord()
	if err == nil {
		m.pos += 2
	}
	return v, err
}

func (m *Image) ReadInt8() (int8, error) {
	v, err := m.ReadByte()
	return int8(v), err
}

func (m *Image) ReadInt16() (int16, error) {
	v, err := m.ReadWord()
	return int16(v), err
}

func (m *Image) PeekByte() (byte, error) {
	if err := m.check(m.pos, 1); err != nil {
		return 0, err
	}
	return m.buf[m.pos], nil
}

func (m *Image) PeekWord() (uint16, error) {
	if err := m.check(m.pos, 2); err != nil {
		return 0, err
	}
	return uint16(m.buf[m.pos]) | uint16(m.buf[m.pos+1])<<8, nil
}

func (m *Image) ReadByteAt(addr Pointer) (byte, error) {
	if err := m.check(int(addr), 1); err != nil {
		return 0, err
	}
	return m.buf[addr], nil
}

func (m *Image) ReadWordAt(addr Pointer) (uint16, error) {
	if err := m.check(int(addr), 2); err != nil {
		return 0, err
	}
	return uint16(m.buf[addr]) | uint16(m.buf[addr+1])<<8, nil
}

func (m *Image) WriteByteAt(addr Pointer, data byte) error {
	if err := m.check(int(addr), 1); err != nil {
		return err
	}
	m.buf[addr] = data
	return nil
}

func (m *Image) WriteWordAt(addr Pointer, data uint16) error {
	if err := m.check(int(addr), 2); err != nil {
		return err
	}
	m.buf[addr] = byte(data & 0xFF)
	m.buf[addr+1] = byte(data >> 8)
	return nil
}

// ReadBytes returns a copy of the next n bytes and advances past them.
func (m *Image) ReadBytes(n int) ([]byte, error) {
	if err := m.check(m.pos, n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, m.buf[m.pos:])
	m.pos += n
	return out, nil
}

// ScanUntil returns the bytes from start up to, not including, the first
// occurrence of term.
func (m *Image) ScanUntil(start Pointer, term byte) ([]byte, error) {
	if err := m.check(int(start), 0); err != nil {
		return nil, err
	}
	for i := int(start); i < len(m.buf); i++ {
		if m.buf[i] == term {
			out := make([]byte, i-int(start))
			copy(out, m.buf[start:i])
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: 0x%02X after 0x%X", ErrTerminatorNotFound, term, uint32(start))
}

// SkipReserved advances n bytes whatever they contain. It reports whether
// all skipped bytes were zero.
func (m *Image) SkipReserved(n int) (bool, error) {
	if err := m.check(m.pos, n); err != nil {
		return false, err
	}
	clean := true
	for _, b := range m.buf[m.pos : m.pos+n] {
		if b != 0 {
			clean = false
			break
		}
	}
	m.pos += n
	return clean, nil
}

// Clone returns an independent copy of the image with the same cursor.
func (m *Image) Clone() *Image {
	buf := make([]byte, len(m.buf))
	copy(buf, m.buf)
	return &Image{buf: buf, pos: m.pos}
}
