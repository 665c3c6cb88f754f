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

package validator

import (
	"github.com/andreas-jonsson/dosdasm/emulator/processor"
)

const DefaultQueueSize = 1024

type RegsInfo struct {
	IP    uint16
	Flags string
	Regs  [12]uint16
	Stack []uint16
}

// MemAccess is one operand read or write. Words are recorded as a single access.
type MemAccess struct {
	Addr uint32
	Data uint16
	Word bool `json:",omitempty"`
}

type Event struct {
	Offset  int
	Size    int
	Text    string
	Comment string `json:",omitempty"`
	Effect  string `json:",omitempty"`
	Error   string `json:",omitempty"`

	Reads  []MemAccess `json:",omitempty"`
	Writes []MemAccess `json:",omitempty"`

	Before, After RegsInfo
}

func regsInfo(ctx *processor.Context) RegsInfo {
	return RegsInfo{
		IP:    ctx.IP,
		Flags: ctx.Flags.String(),
		Regs:  ctx.GetValues(),
		Stack: ctx.Stack.Values(),
	}
}

// Predicate decides whether two trace events match.
type Predicate func(a, b *Event) bool

func EqualAll(a, b *Event) bool {
	return EqualRegs(a, b) && a.Text == b.Text && a.Comment == b.Comment && a.Effect == b.Effect && a.Error == b.Error &&
		equalAccess(a.Reads, b.Reads) && equalAccess(a.Writes, b.Writes)
}

func equalAccess(a, b []MemAccess) bool {
	if len(a) != len(b) {
		return false
	}
	for i, v := range a {
		if b[i] != v {
			return false
		}
	}
	return true
}

func EqualLocation(a, b *Event) bool {
	return a.Offset == b.Offset && a.Size == b.Size && a.Text == b.Text
}

func EqualRegs(a, b *Event) bool {
	if !EqualLocation(a, b) {
		return false
	}
	return equalRegsInfo(&a.Before, &b.Before) && equalRegsInfo(&a.After, &b.After)
}

func equalRegsInfo(a, b *RegsInfo) bool {
	if a.IP != b.IP || a.Flags != b.Flags || a.Regs != b.Regs || len(a.Stack) != len(b.Stack) {
		return false
	}
	for i, v := range a.Stack {
		if b.Stack[i] != v {
			return false
		}
	}
	return true
}

// Divergence returns the index of the first pair of events that does not
// satisfy eq, or -1 if the common prefix matches. Traces of different length
// diverge where the shorter one ends.
func Divergence(a, b []Event, eq Predicate) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if !eq(&a[i], &b[i]) {
			return i
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}
