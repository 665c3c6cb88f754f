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
	"bytes"
	"testing"

	"github.com/andreas-jonsson/dosdasm/emulator/memory"
	"github.com/andreas-jonsson/dosdasm/emulator/processor"
	"github.com/andreas-jonsson/dosdasm/emulator/processor/cpu"
	"github.com/google/go-cmp/cmp"
)

func record(t *testing.T, r *Recorder, code ...byte) {
	t.Helper()
	p := cpu.NewCPU(memory.NewImage(code), nil)
	for p.GetImage().Available() {
		r.Begin(p.GetContext())
		inst, err := p.Step(true)
		r.End(inst, p.GetContext(), err)
		if err != nil {
			break
		}
	}
}

func TestRecorder(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewRecorder(&buf)
	if err != nil {
		t.Fatal(err)
	}

	record(t, r, 0xB8, 0x34, 0x12, 0x50, 0x58, 0x58)
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}

	events, err := ReadEvents(&buf)
	if err != nil {
		t.Fatal(err)
	}

	var texts []string
	for _, ev := range events {
		texts = append(texts, ev.Text)
	}
	if diff := cmp.Diff([]string{"mov ax,0x1234", "push ax", "pop ax", "pop ax"}, texts); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}

	if ev := events[0]; ev.Before.Regs[0] != 0 || ev.After.Regs[0] != 0x1234 || ev.After.IP != 3 {
		t.Errorf("unexpected first event %+v", ev)
	}
	if diff := cmp.Diff([]uint16{0x1234}, events[1].After.Stack); diff != "" {
		t.Errorf("stack mismatch (-want +got):\n%s", diff)
	}
	if ev := events[3]; ev.Error == "" || ev.Offset != 5 {
		t.Errorf("expected stack underflow in %+v", ev)
	}
}

func TestRecorderCompression(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewRecorder(&buf, WithCompression(true), WithQueueSize(1))
	if err != nil {
		t.Fatal(err)
	}

	record(t, r, 0x90, 0xF4)
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}

	if b := buf.Bytes(); len(b) < 2 || b[0] != 0x1F || b[1] != 0x8B {
		t.Fatal("trace is not gzip compressed")
	}
	events, err := ReadEvents(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[1].Text != "hlt" || events[1].Error != processor.ErrCPUHalt.Error() {
		t.Errorf("unexpected events %+v", events)
	}
}

func TestDivergence(t *testing.T) {
	trace := func(code ...byte) []Event {
		var buf bytes.Buffer
		r, err := NewRecorder(&buf)
		if err != nil {
			t.Fatal(err)
		}
		record(t, r, code...)
		if err := r.Close(); err != nil {
			t.Fatal(err)
		}
		events, err := ReadEvents(&buf)
		if err != nil {
			t.Fatal(err)
		}
		return events
	}

	a := trace(0x40, 0x41, 0xF4) // inc ax; inc cx; hlt
	b := trace(0x40, 0x42, 0xF4) // inc ax; inc dx; hlt

	if i := Divergence(a, a, EqualAll); i != -1 {
		t.Errorf("identical traces diverge at %d", i)
	}
	if i := Divergence(a, b, EqualLocation); i != 1 {
		t.Errorf("got divergence at %d, expected 1", i)
	}
	if i := Divergence(a, a[:2], EqualRegs); i != 2 {
		t.Errorf("got divergence at %d, expected 2", i)
	}
}

func TestRecorderMemory(t *testing.T) {
	code := make([]byte, 0x12)
	copy(code, []byte{
		0xC7, 0x06, 0x10, 0x00, 0x34, 0x12, // mov word [0x10],0x1234
		0xA1, 0x10, 0x00,                   // mov ax,[0x10]
	})

	var buf bytes.Buffer
	r, err := NewRecorder(&buf)
	if err != nil {
		t.Fatal(err)
	}

	img := memory.NewImage(code)
	p := cpu.NewCPU(img, nil)
	p.SetMemory(r.Memory(img))
	for i := 0; i < 2; i++ {
		r.Begin(p.GetContext())
		inst, err := p.Step(true)
		r.End(inst, p.GetContext(), err)
		if err != nil {
			t.Fatal(err)
		}
	}

	// Accesses outside an event are not recorded.
	if _, err := r.Memory(img).ReadByteAt(0x10); err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}

	events, err := ReadEvents(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events", len(events))
	}

	access := []MemAccess{{Addr: 0x10, Data: 0x1234, Word: true}}
	if diff := cmp.Diff(access, events[0].Writes); diff != "" || events[0].Reads != nil {
		t.Errorf("write mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(access, events[1].Reads); diff != "" || events[1].Writes != nil {
		t.Errorf("read mismatch (-want +got):\n%s", diff)
	}
}
