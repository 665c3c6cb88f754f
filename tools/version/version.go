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
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/andreas-jonsson/dosdasm/version"
)

// Writes current.go for the version package. The license header is taken
// from the package's own version.go.
func main() {
	out := flag.String("file", "current.go", "Output file.")
	env := flag.String("variable", "DOSDASM_VERSION", "Environment variable holding the version number.")
	flag.Parse()

	ver := version.Current
	if s := os.Getenv(*env); s != "" {
		v, err := version.Parse(s)
		if err != nil {
			log.Fatal(err)
		}
		ver = v
	}

	hash, err := exec.Command("git", "rev-parse", "HEAD").Output()
	if err != nil {
		log.Print("no git hash: ", err)
	}

	src, err := os.ReadFile("version.go")
	if err != nil {
		log.Fatal(err)
	}
	end := bytes.Index(src, []byte("*/"))
	if end < 0 {
		log.Fatal("version.go has no license header")
	}
	header := src[:end+2]
	copyright := strings.TrimSpace(strings.SplitN(string(header), "\n", 3)[1])

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n\npackage version\n\nvar (\n", header)
	fmt.Fprintf(&buf, "\tCurrent   = Version{%d, %d, %d, %q}\n", ver.Major, ver.Minor, ver.Patch, ver.Build)
	fmt.Fprintf(&buf, "\tCopyright = %q\n", copyright)
	fmt.Fprintf(&buf, "\tHash      = %q\n)\n", strings.TrimSpace(string(hash)))

	if err := os.WriteFile(*out, buf.Bytes(), 0644); err != nil {
		log.Fatal(err)
	}
}
