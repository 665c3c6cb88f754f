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
	"sync"

	"github.com/gdamore/tcell"
)

const tabWidth = 8

// ScreenConsole renders program output on a full screen terminal.
type ScreenConsole struct {
	sync.Mutex

	screen tcell.Screen
	style  tcell.Style
	x, y   int
}

type Config func(*ScreenConsole) error

// WithScreen uses s instead of the terminal screen.
func WithScreen(s tcell.Screen) Config {
	return func(c *ScreenConsole) error {
		c.screen = s
		return nil
	}
}

func WithStyle(style tcell.Style) Config {
	return func(c *ScreenConsole) error {
		c.style = style
		return nil
	}
}

func NewScreenConsole(configs ...Config) (*ScreenConsole, error) {
	c := &ScreenConsole{style: tcell.StyleDefault}
	for _, cfg := range configs {
		if err := cfg(c); err != nil {
			return nil, err
		}
	}

	tcell.SetEncodingFallback(tcell.EncodingFallbackASCII)

	if c.screen == nil {
		s, err := tcell.NewScreen()
		if err != nil {
			return nil, err
		}
		c.screen = s
	}

	if err := c.screen.Init(); err != nil {
		return nil, err
	}

	c.screen.HideCursor()
	c.screen.DisableMouse()
	c.screen.SetStyle(c.style)
	c.screen.Clear()
	c.screen.Show()
	return c, nil
}

func (c *ScreenConsole) Write(p []byte) (int, error) {
	c.Lock()
	defer c.Unlock()

	w, h := c.screen.Size()
	for _, r := range string(p) {
		switch r {
		case '\n':
			c.x = 0
			c.y++
		case '\r':
			c.x = 0
		case '\t':
			c.x += tabWidth - c.x%tabWidth
		case '\b':
			if c.x > 0 {
				c.x--
			}
		default:
			if c.x >= w {
				c.x = 0
				c.y++
			}
			c.scroll(w, h)
			c.screen.SetContent(c.x, c.y, r, nil, c.style)
			c.x++
		}
		c.scroll(w, h)
	}

	c.screen.ShowCursor(c.x, c.y)
	c.screen.Show()
	return len(p), nil
}

func (c *ScreenConsole) scroll(w, h int) {
	for ; c.y >= h && h > 0; c.y-- {
		for y := 1; y < h; y++ {
			for x := 0; x < w; x++ {
				r, comb, style, _ := c.screen.GetContent(x, y)
				c.screen.SetContent(x, y-1, r, comb, style)
			}
		}
		for x := 0; x < w; x++ {
			c.screen.SetContent(x, h-1, ' ', nil, c.style)
		}
	}
}

// WaitKey blocks until a key is pressed or the screen is closed.
func (c *ScreenConsole) WaitKey() {
	for {
		switch c.screen.PollEvent().(type) {
		case nil, *tcell.EventKey:
			return
		case *tcell.EventResize:
			c.screen.Sync()
		}
	}
}

// Row returns the visible text of row y.
func (c *ScreenConsole) Row(y int) string {
	c.Lock()
	defer c.Unlock()

	w, _ := c.screen.Size()
	rs := make([]rune, w)
	for x := range rs {
		r, _, _, _ := c.screen.GetContent(x, y)
		if r == 0 {
			r = ' '
		}
		rs[x] = r
	}
	return string(rs)
}

func (c *ScreenConsole) Close() error {
	c.screen.Fini()
	return nil
}
