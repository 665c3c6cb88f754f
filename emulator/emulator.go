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

// Package emulator drives the decoder over a program image, either as a plain
// linear disassembly or while executing it.
package emulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/andreas-jonsson/dosdasm/emulator/debug"
	"github.com/andreas-jonsson/dosdasm/emulator/dos"
	"github.com/andreas-jonsson/dosdasm/emulator/memory"
	"github.com/andreas-jonsson/dosdasm/emulator/processor"
	"github.com/andreas-jonsson/dosdasm/emulator/processor/cpu"
	"github.com/andreas-jonsson/dosdasm/emulator/processor/validator"
	"github.com/sirupsen/logrus"
)

var ErrStepLimit = errors.New("step limit reached")

var defaultRepeatLimit = cpu.DefaultRepeatLimit

func init() {
	if s, ok := os.LookupEnv("DOSDASM_REPEAT_LIMIT"); ok {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			defaultRepeatLimit = n
		} else {
			debug.Log.WithField("value", s).Warn("ignoring invalid DOSDASM_REPEAT_LIMIT")
		}
	}
}

// Line is one line of listing output. Comment lines share the offset of the
// instruction they belong to.
type Line struct {
	Offset  int
	Text    string
	Comment bool
}

type Result struct {
	Lines   []Line
	Context *processor.Context
	Image   *memory.Image
	Steps   int
	Halted  bool
}

// Text returns the listing without offsets.
func (r *Result) Text() []string {
	if r == nil {
		return nil
	}
	s := make([]string, len(r.Lines))
	for i, l := range r.Lines {
		s[i] = l.Text
	}
	return s
}

type runner struct {
	ctx         *processor.Context
	entry       int
	console     io.Writer
	lenient     bool
	repeatLimit int
	stepLimit   int
	cancel      context.Context
	trace       io.Writer
	traceOpts   []validator.Config
	skipEmitted bool
}

type Config func(*runner) error

// WithContext runs on ctx instead of a zeroed context. The context is updated in place.
func WithContext(ctx *processor.Context) Config {
	return func(r *runner) error {
		if ctx == nil {
			return errors.New("nil context")
		}
		r.ctx = ctx
		return nil
	}
}

// WithEntry starts decoding at offset n of the image.
func WithEntry(n int) Config {
	return func(r *runner) error {
		if n < 0 {
			return fmt.Errorf("invalid entry point: %d", n)
		}
		r.entry = n
		return nil
	}
}

// WithConsole receives DOS output. Defaults to standard output.
func WithConsole(w io.Writer) Config {
	return func(r *runner) error {
		r.console = w
		return nil
	}
}

// WithLenient makes decoding skip undecodable bytes instead of failing.
// It has no effect on execution.
func WithLenient(b bool) Config {
	return func(r *runner) error {
		r.lenient = b
		return nil
	}
}

func WithRepeatLimit(n int) Config {
	return func(r *runner) error {
		if n < 0 {
			return fmt.Errorf("invalid repeat limit: %d", n)
		}
		r.repeatLimit = n
		return nil
	}
}

// WithStepLimit stops execution with ErrStepLimit after n instructions. Zero means no limit.
func WithStepLimit(n int) Config {
	return func(r *runner) error {
		if n < 0 {
			return fmt.Errorf("invalid step limit: %d", n)
		}
		r.stepLimit = n
		return nil
	}
}

func WithCancel(ctx context.Context) Config {
	return func(r *runner) error {
		r.cancel = ctx
		return nil
	}
}

// WithTrace writes a JSON event for every executed instruction to w.
func WithTrace(w io.Writer, opts ...validator.Config) Config {
	return func(r *runner) error {
		r.trace = w
		r.traceOpts = opts
		return nil
	}
}

// WithSkipEmitted makes execution jump over bytes already printed by a DOS
// service. It is enabled by default when executing.
func WithSkipEmitted(b bool) Config {
	return func(r *runner) error {
		r.skipEmitted = b
		return nil
	}
}

// Decode disassembles image linearly without changing any state.
func Decode(image []byte, configs ...Config) ([]string, error) {
	res, err := Execute(image, false, configs...)
	return res.Text(), err
}

// Run executes image and returns the text of every executed instruction.
func Run(image []byte, configs ...Config) ([]string, error) {
	res, err := Execute(image, true, configs...)
	return res.Text(), err
}

// Execute decodes, and with execute set also runs, a copy of image. A clean
// stop through HLT or DOS exit is not an error. On error the result holds
// everything up to the failing instruction.
func Execute(image []byte, execute bool, configs ...Config) (*Result, error) {
	r := &runner{
		console:     os.Stdout,
		repeatLimit: defaultRepeatLimit,
		skipEmitted: execute,
	}
	for _, cfg := range configs {
		if err := cfg(r); err != nil {
			return nil, err
		}
	}
	if r.ctx == nil {
		r.ctx = &processor.Context{}
	}

	res := &Result{
		Context: r.ctx,
		Image:   memory.NewImage(append([]byte(nil), image...)),
	}
	if r.entry > res.Image.Len() {
		return res, fmt.Errorf("%w: entry point 0x%X is outside the image", memory.ErrBufferUnderrun, r.entry)
	}

	p := cpu.NewCPU(res.Image, r.ctx)
	p.SetConsole(r.console)
	p.SetRepeatLimit(r.repeatLimit)
	p.SetCancel(r.cancel)
	if err := dos.Install(p); err != nil {
		return res, err
	}

	if execute && r.lenient {
		debug.Log.Warn("lenient decoding is ignored during execution")
	}

	var recorder *validator.Recorder
	if execute && r.trace != nil {
		var err error
		if recorder, err = validator.NewRecorder(r.trace, r.traceOpts...); err != nil {
			return res, err
		}
		p.SetMemory(recorder.Memory(res.Image))
	}

	err := r.loop(p, res, execute, recorder)
	if recorder != nil {
		if cerr := recorder.Close(); err == nil {
			err = cerr
		}
	}
	return res, err
}

func (r *runner) loop(p *cpu.CPU, res *Result, execute bool, recorder *validator.Recorder) error {
	img := res.Image
	img.Seek(r.entry)
	if execute {
		r.ctx.IP = uint16(r.entry)
	}

	var emitted emittedRanges
	for img.Available() {
		if r.cancel != nil {
			if err := r.cancel.Err(); err != nil {
				return err
			}
		}
		if execute && r.stepLimit > 0 && res.Steps >= r.stepLimit {
			return fmt.Errorf("%w: %d instructions", ErrStepLimit, res.Steps)
		}

		if r.skipEmitted {
			if end, ok := emitted.skip(img.Pos()); ok {
				debug.Log.WithFields(logrus.Fields{"from": img.Pos(), "to": end}).Debug("skipping emitted data")
				img.Seek(end)
				continue
			}
		}

		if recorder != nil {
			recorder.Begin(r.ctx)
		}
		inst, err := p.Step(execute)
		if recorder != nil {
			recorder.End(inst, r.ctx, err)
		}
		res.Steps++

		if err != nil {
			if errors.Is(err, processor.ErrCPUHalt) {
				res.appendInstruction(inst)
				res.Halted = true
				return nil
			}
			if !execute && r.lenient && recoverable(err) {
				debug.Log.WithError(err).WithField("offset", inst.Offset).Debug("skipping byte")
				res.appendSkipped(inst.Offset)
				img.Seek(inst.Offset + 1)
				continue
			}
			return fmt.Errorf("at offset 0x%X: %w", inst.Offset, err)
		}

		res.appendInstruction(inst)
		if inst.Effect.Kind == processor.RangeEffect {
			emitted.add(inst.Effect)
		}
	}
	return nil
}

func recoverable(err error) bool {
	var uerr processor.UnsupportedOpcodeError
	return errors.As(err, &uerr) ||
		errors.Is(err, processor.ErrUnknownRegister) ||
		errors.Is(err, processor.ErrPrefixLimit) ||
		errors.Is(err, memory.ErrBufferUnderrun) ||
		errors.Is(err, memory.ErrTerminatorNotFound)
}

func (res *Result) appendInstruction(inst cpu.Instruction) {
	res.Lines = append(res.Lines, Line{Offset: inst.Offset, Text: inst.Text})
	if inst.Comment != "" {
		res.Lines = append(res.Lines, Line{Offset: inst.Offset, Text: inst.Comment, Comment: true})
	}
}

func (res *Result) appendSkipped(offset int) {
	b, _ := res.Image.ReadByteAt(memory.Pointer(offset))
	res.Lines = append(res.Lines, Line{Offset: offset, Text: fmt.Sprintf("db 0x%02X", b)})
}

// emittedRanges tracks image bytes printed by DOS services, including the terminator.
type emittedRanges []processor.Effect

func (e *emittedRanges) add(eff processor.Effect) {
	*e = append(*e, eff)
}

func (e emittedRanges) skip(pos int) (int, bool) {
	for _, eff := range e {
		if p := memory.Pointer(pos); p >= eff.Start && p <= eff.End {
			return int(eff.End) + 1, true
		}
	}
	return 0, false
}
