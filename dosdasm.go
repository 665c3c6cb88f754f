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


package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/andreas-jonsson/dosdasm/emulator"
	"github.com/andreas-jonsson/dosdasm/emulator/debug"
	"github.com/andreas-jonsson/dosdasm/emulator/processor/validator"
	"github.com/andreas-jonsson/dosdasm/loader"
	"github.com/andreas-jonsson/dosdasm/platform"
	"github.com/andreas-jonsson/dosdasm/version"
	"github.com/fatih/color"
	"github.com/spf13/afero"
)

type options struct {
	run,
	lenient,
	screen,
	regs,
	raw,
	noColor,
	verbose,
	ver bool

	entry       int
	repeatLimit int
	stepLimit   int
	trace       string
}

func parseFlags(args []string, output io.Writer) (*options, []string, error) {
	opt := &options{}
	fl := flag.NewFlagSet("dosdasm", flag.ContinueOnError)
	fl.SetOutput(output)
	fl.Usage = func() {
		fmt.Fprintln(output, "Usage: dosdasm [flags] FILE")
		fl.PrintDefaults()
	}

	fl.BoolVar(&opt.run, "run", false, "Execute the program while disassembling")
	fl.BoolVar(&opt.lenient, "lenient", false, "Emit undecodable bytes as data instead of stopping")
	fl.BoolVar(&opt.screen, "screen", false, "Show program output on a full screen console")
	fl.BoolVar(&opt.regs, "regs", false, "Print the final register dump")
	fl.BoolVar(&opt.raw, "raw", false, "Print instruction text only, without offsets or colour")
	fl.BoolVar(&opt.noColor, "no-color", false, "Disable coloured output")
	fl.BoolVar(&opt.verbose, "v", false, "Verbose diagnostics")
	fl.BoolVar(&opt.ver, "version", false, "Print version information")

	fl.IntVar(&opt.entry, "entry", -1, "Override the entry offset into the loaded image (flat images load at 0x100)")
	fl.IntVar(&opt.repeatLimit, "repeat-limit", -1, "Maximum iterations of a repeated string instruction (DOSDASM_REPEAT_LIMIT)")
	fl.IntVar(&opt.stepLimit, "step-limit", 0, "Maximum number of executed instructions, zero for no limit")
	fl.StringVar(&opt.trace, "trace", "", "Write a JSON instruction trace to file (gzip if the name ends with .gz)")

	if err := fl.Parse(args); err != nil {
		return nil, nil, err
	}
	return opt, fl.Args(), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, afero.NewOsFs(), os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, fs afero.Fs, args []string, stdout, stderr io.Writer) int {
	opt, files, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opt.ver {
		fmt.Fprintln(stdout, version.Banner())
		return 0
	}
	if len(files) != 1 {
		fmt.Fprintln(stderr, "expected exactly one input file")
		return 2
	}

	debug.SetOutput(stderr)
	debug.SetVerbose(opt.verbose)

	p := newPrinter(stdout, opt)
	if err := disassemble(ctx, fs, files[0], opt, stdout, p); err != nil {
		p.error(stderr, err)
		return 1
	}
	return 0
}

func disassemble(ctx context.Context, fs afero.Fs, name string, opt *options, stdout io.Writer, p *printer) error {
	exe, err := loader.Open(fs, name)
	if err != nil {
		return err
	}

	entry := exe.Entry
	if opt.entry >= 0 {
		entry = opt.entry
	}
	cpuCtx := exe.Context()

	configs := []emulator.Config{
		emulator.WithContext(cpuCtx),
		emulator.WithEntry(entry),
		emulator.WithLenient(opt.lenient),
		emulator.WithStepLimit(opt.stepLimit),
		emulator.WithCancel(ctx),
	}
	if opt.repeatLimit >= 0 {
		configs = append(configs, emulator.WithRepeatLimit(opt.repeatLimit))
	}

	console := platform.NewWriterConsole(io.Discard)
	if opt.run {
		console = platform.NewWriterConsole(stdout)
		if opt.screen {
			sc, err := platform.NewScreenConsole()
			if err != nil {
				return err
			}
			defer func() {
				fmt.Fprint(sc, "\n\nPress any key to continue...")
				sc.WaitKey()
				sc.Close()
			}()
			console = sc
		}
	}
	configs = append(configs, emulator.WithConsole(console))

	if opt.trace != "" {
		fp, err := fs.Create(opt.trace)
		if err != nil {
			return err
		}
		defer fp.Close()
		configs = append(configs, emulator.WithTrace(fp, validator.WithCompression(strings.HasSuffix(opt.trace, ".gz"))))
	}

	res, err := emulator.Execute(exe.Image, opt.run, configs...)
	if opt.run && !opt.screen && res != nil && len(res.Lines) > 0 {
		fmt.Fprintln(stdout)
	}
	if res != nil {
		p.listing(res.Lines)
		if opt.regs {
			fmt.Fprintf(stdout, "\n%s\n", debug.Registers(res.Context))
		}
	}
	return err
}

type printer struct {
	w   io.Writer
	raw bool

	offset, mnemonic, comment, failure *color.Color
}

func newPrinter(w io.Writer, opt *options) *printer {
	p := &printer{
		w:        w,
		raw:      opt.raw,
		offset:   color.New(color.FgHiBlack),
		mnemonic: color.New(color.FgCyan, color.Bold),
		comment:  color.New(color.FgGreen),
		failure:  color.New(color.FgRed, color.Bold),
	}

	useColor := !opt.noColor && !opt.raw
	if f, ok := w.(*os.File); !ok || !platform.IsTerminal(f) {
		useColor = false
	}
	for _, c := range []*color.Color{p.offset, p.mnemonic, p.comment, p.failure} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *printer) listing(lines []emulator.Line) {
	for _, l := range lines {
		if p.raw {
			fmt.Fprintln(p.w, l.Text)
			continue
		}
		if l.Comment {
			fmt.Fprintf(p.w, "      %s\n", p.comment.Sprint(l.Text))
			continue
		}

		mn, ops := l.Text, ""
		if i := strings.IndexByte(l.Text, ' '); i >= 0 {
			mn, ops = l.Text[:i], l.Text[i:]
		}
		fmt.Fprintf(p.w, "%s  %s%s\n", p.offset.Sprintf("%04X", l.Offset), p.mnemonic.Sprint(mn), ops)
	}
}

func (p *printer) error(w io.Writer, err error) {
	p.failure.Fprintf(w, "error: %v\n", err)
}
