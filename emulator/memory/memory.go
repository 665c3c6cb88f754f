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
	"fmt"
)

var (
	ErrBufferUnderrun     = errors.New("buffer underrun")
	ErrTerminatorNotFound = errors.New("terminator not found")
)

// Address is a segment:offset pair packed as seg<<16|offset.
type Address uint32

func NewAddress(seg, offset uint16) Address {
	return (Address(seg) << 16) | Address(offset)
}

func (a Address) String() string {
	return fmt.Sprintf("0x%X:0x%X", a.Segment(), a.Offset())
}

func (a Address) Segment() uint16 {
	return uint16(a >> 16)
}

func (a Address) Offset() uint16 {
	return uint16(a & 0xFFFF)
}

func (a Address) Pointer() Pointer {
	return NewPointer(a.Segment(), a.Offset())
}

// Pointer is a 20-bit linear real-mode address.
type Pointer uint32

func NewPointer(seg, offset uint16) Pointer {
	return (Pointer(seg)*0x10 + Pointer(offset)) & 0xFFFFF
}

func (p Pointer) String() string {
	return fmt.Sprintf("0x%X", uint32(p))
}

// Memory is addressed, cursor independent, storage.
type Memory interface {
	ReadByteAt(addr Pointer) (byte, error)
	WriteByteAt(addr Pointer, data byte) error
	ReadWordAt(addr Pointer) (uint16, error)
	WriteWordAt(addr Pointer, data uint16) error
}
