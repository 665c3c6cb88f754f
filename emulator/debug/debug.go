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
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/andreas-jonsson/dosdasm/emulator/processor"
	"github.com/sirupsen/logrus"
)

// Log is the shared logger of the emulator packages.
var Log = logrus.New()

var logOutput io.Writer = os.Stderr

func init() {
	Log.SetOutput(logOutput)
	Log.SetLevel(logrus.InfoLevel)
	Log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
}

// MuteLogging discards all log output while b is set.
func MuteLogging(b bool) {
	if b {
		Log.SetOutput(io.Discard)
	} else {
		Log.SetOutput(logOutput)
	}
}

// SetOutput redirects log output.
func SetOutput(w io.Writer) {
	logOutput = w
	Log.SetOutput(w)
}

func SetVerbose(b bool) {
	if b {
		Log.SetLevel(logrus.DebugLevel)
	} else {
		Log.SetLevel(logrus.InfoLevel)
	}
}

// Registers formats the register file, flags and stack of ctx as a multi-line dump.
func Registers(ctx *processor.Context) string {
	r := &ctx.Registers
	var sb strings.Builder

	fmt.Fprintf(&sb,
		"AL 0x%X (%d)\tCL 0x%X (%d)\tDL 0x%X (%d)\tBL 0x%X (%d)\nAH 0x%X (%d)\tCH 0x%X (%d)\tDH 0x%X (%d)\tBH 0x%X (%d)\nAX 0x%X (%d)\tCX 0x%X (%d)\tDX 0x%X (%d)\tBX 0x%X (%d)\n\n",
		r.AL(), r.AL(), r.CL(), r.CL(), r.DL(), r.DL(), r.Get8(processor.BL), r.Get8(processor.BL),
		r.AH(), r.AH(), r.Get8(processor.CH), r.Get8(processor.CH), r.Get8(processor.DH), r.Get8(processor.DH), r.Get8(processor.BH), r.Get8(processor.BH),
		r.AX(), r.AX(), r.CX(), r.CX(), r.DX(), r.DX(), r.BX(), r.BX(),
	)
	fmt.Fprintf(&sb,
		"SP 0x%X (%d)\tBP 0x%X (%d)\nSI 0x%X (%d)\tDI 0x%X (%d)\n\n",
		r.SP(), r.SP(), r.BP(), r.BP(), r.SI(), r.SI(), r.DI(), r.DI(),
	)
	fmt.Fprintf(&sb,
		"ES 0x%X (%d)\tCS 0x%X (%d)\nSS 0x%X (%d)\tDS 0x%X (%d)\n\n",
		r.ES(), r.ES(), r.CS(), r.CS(), r.SS(), r.SS(), r.DS(), r.DS(),
	)
	fmt.Fprintf(&sb, "IP 0x%X\tFLAGS %v (0x%X)\n", r.IP, r.Flags, r.Flags.Load())

	values := ctx.Stack.Values()
	sb.WriteString("STACK")
	if len(values) == 0 {
		sb.WriteString(" <empty>")
	}
	for i := len(values) - 1; i >= 0; i-- {
		fmt.Fprintf(&sb, " 0x%04X", values[i])
	}
	return sb.String()
}
