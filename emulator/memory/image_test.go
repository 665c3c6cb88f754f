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

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPointer(t *testing.T) {
	if p := NewPointer(0x1234, 0x5678); p != 0x179B8 {
		t.Errorf("got %v, expected 0x179B8", p)
	}
	if p := NewPointer(0xFFFF, 0xFFFF); p != 0xFFEF {
		t.Errorf("wraparound: got %v, expected 0xFFEF", p)
	}
	if a := NewAddress(0xF000, 0xFFFF); a.Segment() != 0xF000 || a.Offset() != 0xFFFF || a.Pointer() != 0xFFFFF {
		t.Errorf("unexpected address %v", a)
	}
}

func TestSequentialReads(t *testing.T) {
	m := NewImage([]byte{0x34, 0x12, 0xFE, 0x00, 0x80})

	if v, err := m.PeekWord(); err != nil || v != 0x1234 {
		t.Fatalf("PeekWord = 0x%X, %v", v, err)
	}
	if m.Pos() != 0 {
		t.Fatal("peek moved the cursor")
	}
	if v, _ := m.ReadWord(); v != 0x1234 {
		t.Errorf("ReadWord = 0x%X", v)
	}
	if v, _ := m.ReadInt8(); v != -2 {
		t.Errorf("ReadInt8 = %d", v)
	}
	if v, _ := m.ReadInt16(); v != -32768 {
		t.Errorf("ReadInt16 = %d", v)
	}
	if m.Available() {
		t.Error("image should be exhausted")
	}
	if _, err := m.ReadByte(); !errors.Is(err, ErrBufferUnderrun) {
		t.Errorf("expected underrun, got %v", err)
	}
}

func TestPartialWordUnderrun(t *testing.T) {
	m := NewImage([]byte{0x01})
	if _, err := m.ReadWord(); !errors.Is(err, ErrBufferUnderrun) {
		t.Fatalf("expected underrun, got %v", err)
	}
	if m.Pos() != 0 {
		t.Error("failed read must not advance")
	}
}

func TestAbsoluteAccess(t *testing.T) {
	m := NewImage(make([]byte, 4))
	m.Seek(3)

	if err := m.WriteWordAt(1, 0xBEEF); err != nil {
		t.Fatal(err)
	}
	if v, _ := m.ReadWordAt(1); v != 0xBEEF {
		t.Errorf("ReadWordAt = 0x%X", v)
	}
	if v, _ := m.ReadByteAt(2); v != 0xBE {
		t.Errorf("ReadByteAt = 0x%X", v)
	}
	if err := m.WriteWordAt(3, 0); !errors.Is(err, ErrBufferUnderrun) {
		t.Errorf("expected underrun, got %v", err)
	}
	if m.Pos() != 3 {
		t.Error("absolute access moved the cursor")
	}
}

func TestScanUntil(t *testing.T) {
	m := NewImage([]byte("xxHI$yy"))

	s, err := m.ScanUntil(2, '$')
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]byte("HI"), s); diff != "" {
		t.Error(diff)
	}

	if _, err := m.ScanUntil(5, '$'); !errors.Is(err, ErrTerminatorNotFound) {
		t.Errorf("expected terminator error, got %v", err)
	}
	if _, err := m.ScanUntil(100, '$'); !errors.Is(err, ErrBufferUnderrun) {
		t.Errorf("expected underrun, got %v", err)
	}
}

func TestSkipReserved(t *testing.T) {
	m := NewImage([]byte{0, 0, 7, 0, 1})

	clean, err := m.SkipReserved(2)
	if err != nil || !clean {
		t.Fatalf("SkipReserved(2) = %v, %v", clean, err)
	}
	clean, err = m.SkipReserved(2)
	if err != nil || clean {
		t.Fatalf("SkipReserved(2) = %v, %v", clean, err)
	}
	if m.Pos() != 4 {
		t.Errorf("cursor at %d, expected 4", m.Pos())
	}
	if _, err := m.SkipReserved(2); !errors.Is(err, ErrBufferUnderrun) {
		t.Errorf("expected underrun, got %v", err)
	}
}

func TestReadBytesCopies(t *testing.T) {
	m := NewImage([]byte{1, 2, 3})
	b, _ := m.ReadBytes(2)
	b[0] = 9
	if v, _ := m.ReadByteAt(0); v != 1 {
		t.Error("ReadBytes must return a copy")
	}
	c := m.Clone()
	c.WriteByteAt(2, 0xFF)
	if v, _ := m.ReadByteAt(2); v != 3 {
		t.Error("Clone must not alias")
	}
	if c.Pos() != 2 {
		t.Error("Clone must keep the cursor")
	}
}
