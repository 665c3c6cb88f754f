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

// Package validator records a JSON trace of every executed instruction with
// the register state before and after it.
package validator

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"io"

	"github.com/andreas-jonsson/dosdasm/emulator/debug"
	"github.com/andreas-jonsson/dosdasm/emulator/memory"
	"github.com/andreas-jonsson/dosdasm/emulator/processor"
	"github.com/andreas-jonsson/dosdasm/emulator/processor/cpu"
)

type Recorder struct {
	inScope      bool
	currentEvent Event
	outputChan   chan Event
	quitChan     chan error

	queueSize int
	compress  bool
}

type Config func(*Recorder) error

func WithQueueSize(n int) Config {
	return func(r *Recorder) error {
		r.queueSize = n
		return nil
	}
}

// WithCompression gzips the trace.
func WithCompression(b bool) Config {
	return func(r *Recorder) error {
		r.compress = b
		return nil
	}
}

// NewRecorder starts writing events to w as a stream of JSON objects.
func NewRecorder(w io.Writer, configs ...Config) (*Recorder, error) {
	r := &Recorder{queueSize: DefaultQueueSize}
	for _, cfg := range configs {
		if err := cfg(r); err != nil {
			return nil, err
		}
	}

	r.outputChan = make(chan Event, r.queueSize)
	r.quitChan = make(chan error, 1)

	var gz *gzip.Writer
	if r.compress {
		gz = gzip.NewWriter(w)
		w = gz
	}

	go func() {
		buffer := bufio.NewWriter(w)
		enc := json.NewEncoder(buffer)

		var err error
		for ev := range r.outputChan {
			if err != nil {
				continue
			}
			if err = enc.Encode(ev); err != nil {
				debug.Log.WithError(err).Error("could not encode trace event")
			}
		}

		if ferr := buffer.Flush(); err == nil {
			err = ferr
		}
		if gz != nil {
			if cerr := gz.Close(); err == nil {
				err = cerr
			}
		}
		r.quitChan <- err
	}()
	return r, nil
}

// Begin snapshots the state before an instruction.
func (r *Recorder) Begin(ctx *processor.Context) {
	r.inScope = true
	r.currentEvent = Event{Before: regsInfo(ctx)}
}

// End completes the event started by Begin and queues it.
func (r *Recorder) End(inst cpu.Instruction, ctx *processor.Context, err error) {
	if !r.inScope {
		return
	}
	r.inScope = false

	ev := &r.currentEvent
	ev.Offset = inst.Offset
	ev.Size = inst.Size
	ev.Text = inst.Text
	ev.Comment = inst.Comment
	if inst.Effect.Kind != processor.NoEffect {
		ev.Effect = inst.Effect.String()
	}
	if err != nil {
		ev.Error = err.Error()
	}
	ev.After = regsInfo(ctx)

	r.outputChan <- *ev
}

// Memory wraps m so that every access made while an event is open is recorded in it.
func (r *Recorder) Memory(m memory.Memory) memory.Memory {
	return &recordedMemory{Memory: m, r: r}
}

type recordedMemory struct {
	memory.Memory
	r *Recorder
}

func (m *recordedMemory) log(list *[]MemAccess, addr memory.Pointer, data uint16, word bool) {
	if m.r.inScope {
		*list = append(*list, MemAccess{Addr: uint32(addr), Data: data, Word: word})
	}
}

func (m *recordedMemory) ReadByteAt(addr memory.Pointer) (byte, error) {
	v, err := m.Memory.ReadByteAt(addr)
	if err == nil {
		m.log(&m.r.currentEvent.Reads, addr, uint16(v), false)
	}
	return v, err
}

func (m *recordedMemory) ReadWordAt(addr memory.Pointer) (uint16, error) {
	v, err := m.Memory.ReadWordAt(addr)
	if err == nil {
		m.log(&m.r.currentEvent.Reads, addr, v, true)
	}
	return v, err
}

func (m *recordedMemory) WriteByteAt(addr memory.Pointer, data byte) error {
	err := m.Memory.WriteByteAt(addr, data)
	if err == nil {
		m.log(&m.r.currentEvent.Writes, addr, uint16(data), false)
	}
	return err
}

func (m *recordedMemory) WriteWordAt(addr memory.Pointer, data uint16) error {
	err := m.Memory.WriteWordAt(addr, data)
	if err == nil {
		m.log(&m.r.currentEvent.Writes, addr, data, true)
	}
	return err
}

// Close flushes all queued events. The recorder can not be used afterwards.
func (r *Recorder) Close() error {
	close(r.outputChan)
	return <-r.quitChan
}

// ReadEvents decodes a trace written by a Recorder. Compressed traces are detected.
func ReadEvents(rd io.Reader) ([]Event, error) {
	br := bufio.NewReader(rd)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1F && magic[1] == 0x8B {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		rd = zr
	} else {
		rd = br
	}

	var events []Event
	dec := json.NewDecoder(rd)
	for dec.More() {
		var ev Event
		if err := dec.Decode(&ev); err != nil {
			return events, err
		}
		events = append(events, ev)
	}
	return events, nil
}
