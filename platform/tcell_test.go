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
	"fmt"
	"strings"
	"testing"

	"github.com/gdamore/tcell"
)

func newSimulationConsole(t *testing.T, w, h int) *ScreenConsole {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	c, err := NewScreenConsole(WithScreen(s))
	if err != nil {
		t.Fatal(err)
	}
	s.SetSize(w, h)
	return c
}

func TestScreenConsole(t *testing.T) {
	c := newSimulationConsole(t, 20, 4)
	defer c.Close()

	fmt.Fprint(c, "HELLO\r\nW\tX")
	if row := strings.TrimRight(c.Row(0), " "); row != "HELLO" {
		t.Errorf("row 0: %q", row)
	}
	if row := strings.TrimRight(c.Row(1), " "); row != "W       X" {
		t.Errorf("row 1: %q", row)
	}
}

func TestScreenConsoleScroll(t *testing.T) {
	c := newSimulationConsole(t, 10, 2)
	defer c.Close()

	fmt.Fprint(c, "one\ntwo\nthree")
	if row := strings.TrimRight(c.Row(0), " "); row != "two" {
		t.Errorf("row 0: %q", row)
	}
	if row := strings.TrimRight(c.Row(1), " "); row != "three" {
		t.Errorf("row 1: %q", row)
	}
}

func TestWriterConsole(t *testing.T) {
	var sb strings.Builder
	c := NewWriterConsole(&sb)
	fmt.Fprint(c, "HI")
	if err := c.Close(); err != nil || sb.String() != "HI" {
		t.Errorf("got %q, %v", sb.String(), err)
	}
}
