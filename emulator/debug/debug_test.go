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

package debug

import (
	"bytes"
	"strings"
	"testing"

	"github.com/andreas-jonsson/dosdasm/emulator/processor"
)

func TestRegisters(t *testing.T) {
	var ctx processor.Context
	ctx.SetAX(0x1234)
	ctx.SetDS(0x10)
	ctx.Flags.Set(processor.Zero)
	ctx.Stack.Push(1)
	ctx.Stack.Push(0xBEEF)

	dump := Registers(&ctx)
	for _, s := range []string{"AX 0x1234 (4660)", "AH 0x12 (18)", "DS 0x10 (16)", "-----Z---", "STACK 0xBEEF 0x0001"} {
		if !strings.Contains(dump, s) {
			t.Errorf("missing %q in:\n%s", s, dump)
		}
	}

	ctx.Reset()
	if dump := Registers(&ctx); !strings.HasSuffix(dump, "STACK <empty>") {
		t.Errorf("expected empty stack in:\n%s", dump)
	}
}

func TestMuteLogging(t *testing.T) {
	orig := logOutput
	defer SetOutput(orig)

	var buf bytes.Buffer
	SetOutput(&buf)

	MuteLogging(true)
	Log.Info("hidden")
	MuteLogging(false)
	Log.Info("visible")

	if s := buf.String(); strings.Contains(s, "hidden") || !strings.Contains(s, "visible") {
		t.Errorf("unexpected log output: %q", s)
	}
}
