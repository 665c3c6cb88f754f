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
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/andreas-jonsson/dosdasm/emulator/debug"
	"github.com/andreas-jonsson/dosdasm/emulator/processor/validator"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

// helloProgram is assembled with org 100h.
var helloProgram = []byte{
	0xB4, 0x09,       // mov ah,0x09
	0xBA, 0x0C, 0x01, // mov dx,msg
	0xCD, 0x21,       // int 21h
	0xB8, 0x00, 0x4C, // mov ax,0x4C00
	0xCD, 0x21,       // int 21h
	'H', 'I', '$',
}

func newFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "HELLO.COM", helloProgram, 0644); err != nil {
		t.Fatal(err)
	}
	return fs
}

func runCLI(t *testing.T, fs afero.Fs, args ...string) (int, string, string) {
	t.Helper()
	defer debug.MuteLogging(true)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), fs, args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func TestListing(t *testing.T) {
	code, out, _ := runCLI(t, newFs(t), "-lenient", "HELLO.COM")
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}

	expected := []string{
		"0100  mov ah,0x09",
		"0102  mov dx,0x010C",
		"0105  int 21h",
		"0107  mov ax,0x4C00",
		"010A  int 21h",
		"010C  dec ax",
		"010D  dec cx",
		"010E  db 0x24",
	}
	if diff := cmp.Diff(expected, lines(out)); diff != "" {
		t.Errorf("listing mismatch (-want +got):\n%s", diff)
	}
}

func TestRunRaw(t *testing.T) {
	code, out, _ := runCLI(t, newFs(t), "-run", "-raw", "HELLO.COM")
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}

	expected := []string{
		"HI",
		"mov ah,0x09",
		"mov dx,0x010C",
		"int 21h",
		`; printf("HI");`,
		"mov ax,0x4C00",
		"int 21h",
		"; exit(0);",
	}
	if diff := cmp.Diff(expected, lines(out)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestOrigin100h(t *testing.T) {
	fs := afero.NewMemMapFs()
	prog := append([]byte{
		// org 100h
		0xBA, 0x0C, 0x01, // mov dx,msg
		0xB4, 0x09,       // mov ah,9
		0xCD, 0x21,       // int 21h
		0xB8, 0x00, 0x4C, // mov ax,4C00h
		0xCD, 0x21,       // int 21h
	}, "Hello, World!$"...) // msg db 'Hello, World!$'
	if err := afero.WriteFile(fs, "WORLD.COM", prog, 0644); err != nil {
		t.Fatal(err)
	}

	code, out, errOut := runCLI(t, fs, "-run", "-raw", "WORLD.COM")
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, errOut)
	}
	expected := []string{
		"Hello, World!",
		"mov dx,0x010C",
		"mov ah,0x09",
		"int 21h",
		`; printf("Hello, World!");`,
		"mov ax,0x4C00",
		"int 21h",
		"; exit(0);",
	}
	if diff := cmp.Diff(expected, lines(out)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestCommentIndent(t *testing.T) {
	_, out, _ := runCLI(t, newFs(t), "-run", "HELLO.COM")
	if !strings.Contains(out, "\n      ; exit(0);\n") {
		t.Errorf("comment line not indented:\n%s", out)
	}
}

func TestRegisterDump(t *testing.T) {
	_, out, _ := runCLI(t, newFs(t), "-run", "-regs", "HELLO.COM")
	if !strings.Contains(out, "AX 0x4C00") || !strings.Contains(out, "STACK <empty>") {
		t.Errorf("missing register dump:\n%s", out)
	}
}

func TestStrictError(t *testing.T) {
	code, out, errOut := runCLI(t, newFs(t), "HELLO.COM")
	if code != 1 {
		t.Errorf("exit code %d, expected 1", code)
	}
	if !strings.Contains(errOut, "at offset 0x10E") {
		t.Errorf("unexpected error output %q", errOut)
	}
	if len(lines(out)) != 7 {
		t.Errorf("expected the partial listing, got:\n%s", out)
	}
}

func TestTraceFile(t *testing.T) {
	fs := newFs(t)
	if code, _, _ := runCLI(t, fs, "-run", "-trace", "trace.json.gz", "HELLO.COM"); code != 0 {
		t.Fatalf("exit code %d", code)
	}

	fp, err := fs.Open("trace.json.gz")
	if err != nil {
		t.Fatal(err)
	}
	defer fp.Close()

	events, err := validator.ReadEvents(fp)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 5 {
		t.Errorf("got %d events, expected 5", len(events))
	}
}

func TestUsage(t *testing.T) {
	fs := newFs(t)
	if code, _, _ := runCLI(t, fs); code != 2 {
		t.Errorf("missing file: exit code %d", code)
	}
	if code, _, _ := runCLI(t, fs, "-bogus", "HELLO.COM"); code != 2 {
		t.Errorf("unknown flag: exit code %d", code)
	}
	if code, _, _ := runCLI(t, fs, "MISSING.COM"); code != 1 {
		t.Errorf("missing input: exit code %d", code)
	}
	if code, out, _ := runCLI(t, fs, "-version"); code != 0 || !strings.HasPrefix(out, "dosdasm ") {
		t.Errorf("version: exit code %d, output %q", code, out)
	}
}
