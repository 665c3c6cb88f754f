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

package processor

// Stack is the explicit call/push stack. It is kept apart from the image, so
// SS:SP memory operands never alias it and PUSH/POP leave SP untouched.
type Stack struct {
	values []uint16
}

func (s *Stack) Push(v uint16) {
	s.values = append(s.values, v)
}

func (s *Stack) Pop() (uint16, error) {
	n := len(s.values)
	if n == 0 {
		return 0, ErrStackUnderflow
	}
	v := s.values[n-1]
	s.values = s.values[:n-1]
	return v, nil
}

func (s *Stack) Peek() (uint16, bool) {
	if len(s.values) == 0 {
		return 0, false
	}
	return s.values[len(s.values)-1], true
}

func (s *Stack) Len() int {
	return len(s.values)
}

// Values returns a copy, bottom first.
func (s *Stack) Values() []uint16 {
	return append([]uint16(nil), s.values...)
}

func (s *Stack) Reset() {
	s.values = s.values[:0]
}
