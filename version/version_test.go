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


package version

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Version
		err  bool
	}{
		{"0.1.0", New(0, 1, 0), false},
		{"v1.2.3", New(1, 2, 3), false},
		{"1.2.3-rc1", Version{1, 2, 3, "rc1"}, false},
		{"1.2", Version{}, true},
		{"1.2.300", Version{}, true},
		{"a.b.c", Version{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := Parse(tt.in)
			if (err != nil) != tt.err {
				t.Fatalf("error = %v", err)
			}
			if diff := cmp.Diff(tt.want, v); diff != "" {
				t.Error(diff)
			}
		})
	}
}

func TestFullString(t *testing.T) {
	if s := (Version{1, 2, 3, "rc1"}).FullString(); s != "1.2.3-rc1" {
		t.Errorf("got %q", s)
	}
	if s := New(1, 2, 3).FullString(); s != "1.2.3" {
		t.Errorf("got %q", s)
	}
	if !New(1, 2, 3).Compatible(New(1, 2, 9)) || New(1, 2, 3).Compatible(New(1, 3, 0)) {
		t.Error("compatibility mismatch")
	}
}

func TestBanner(t *testing.T) {
	orig := Hash
	defer func() { Hash = orig }()

	Hash = "f9206956dd0ea3883b48b3e83de11ff24cee7889"
	if b := Banner(); !strings.HasPrefix(b, "dosdasm "+Current.FullString()+" (f920695)") {
		t.Errorf("unexpected banner %q", b)
	}
}
