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

package platform

import (
	"io"
	"os"

	"golang.org/x/term"
)

// Console receives everything a running program prints.
type Console interface {
	io.Writer
	io.Closer
}

type writerConsole struct {
	io.Writer
}

func (writerConsole) Close() error {
	return nil
}

// NewWriterConsole wraps w as a console. Closing it does not close w.
func NewWriterConsole(w io.Writer) Console {
	if w == nil {
		w = io.Discard
	}
	return writerConsole{w}
}

// IsTerminal reports whether f is attached to an interactive terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}
