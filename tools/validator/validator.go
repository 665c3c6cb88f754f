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


// Command validator compares two instruction traces and reports where they diverge.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/andreas-jonsson/dosdasm/emulator/processor/validator"
	"github.com/google/go-cmp/cmp"
)

var (
	traceInput = "trace.json"
	refInput   = "reference.json"
	mode       = "regs"
)

var predicates = map[string]validator.Predicate{
	"location": validator.EqualLocation,
	"regs":     validator.EqualRegs,
	"all":      validator.EqualAll,
}

func init() {
	flag.StringVar(&traceInput, "trace", traceInput, "Trace under test")
	flag.StringVar(&refInput, "reference", refInput, "Reference trace")
	flag.StringVar(&mode, "mode", mode, "Comparison mode: location, regs or all")
}

func readTrace(name string) []validator.Event {
	fp, err := os.Open(name)
	if err != nil {
		log.Fatal(err)
	}
	defer fp.Close()

	events, err := validator.ReadEvents(fp)
	if err != nil {
		log.Fatalf("%s: %v", name, err)
	}
	return events
}

func main() {
	flag.Parse()
	log.SetFlags(0)

	eq, ok := predicates[mode]
	if !ok {
		log.Fatalf("unknown mode: %s", mode)
	}

	a, b := readTrace(traceInput), readTrace(refInput)
	i := validator.Divergence(a, b, eq)
	if i < 0 {
		log.Print("Equal: ", len(a))
		return
	}

	log.Printf("Equal: %d, diverged at event %d", i, i)
	switch {
	case i >= len(a):
		log.Printf("%s ended, reference continues with %q at 0x%X", traceInput, b[i].Text, b[i].Offset)
	case i >= len(b):
		log.Printf("%s ended, trace continues with %q at 0x%X", refInput, a[i].Text, a[i].Offset)
	default:
		fmt.Println(cmp.Diff(b[i], a[i]))
	}
	os.Exit(1)
}
