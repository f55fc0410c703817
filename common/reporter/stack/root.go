// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package stack extracts caller information from the current goroutine
// stack. It is used by the reporter to name loggers and metrics after the
// package emitting them.
package stack

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
)

// Call is a program counter from a goroutine stack.
type Call uintptr

// Trace is a sequence of calls, innermost first.
type Trace []Call

var pcPool = sync.Pool{
	New: func() any {
		pcs := make([]uintptr, 512)
		return &pcs
	},
}

// Callers returns the stack of the caller, starting with the caller itself.
func Callers() Trace {
	ptr := pcPool.Get().(*[]uintptr)
	defer pcPool.Put(ptr)
	n := runtime.Callers(2, *ptr)
	trace := make(Trace, n)
	for i, pc := range (*ptr)[:n] {
		trace[i] = Call(pc)
	}
	return trace
}

func (pc Call) fn() (*runtime.Func, uintptr) {
	// The PC points to the instruction after the call.
	fixed := uintptr(pc) - 1
	return runtime.FuncForPC(fixed), fixed
}

// FunctionName returns the fully qualified function name of the call,
// including the package path.
func (pc Call) FunctionName() string {
	fn, _ := pc.fn()
	if fn == nil {
		return "(nofunc)"
	}
	return fn.Name()
}

// SourceFile returns the source file of the call, relative to the module
// root and prefixed by the module name. When withLine is true, the line
// number is appended.
func (pc Call) SourceFile(withLine bool) string {
	fn, fixed := pc.fn()
	if fn == nil {
		return "(nosource)"
	}
	file, line := fn.FileLine(fixed)
	name := fn.Name()

	// Keep as many trailing path elements as there are in the
	// package path of the function.
	elements := strings.Split(file, "/")
	keep := strings.Count(name, "/")
	if keep < len(elements) {
		elements = elements[len(elements)-keep-1:]
	}
	file = strings.Join(elements, "/")

	dot := strings.Index(name, ".")
	if dot == -1 {
		return "(nosource)"
	}
	module := name[:dot]
	if slash := strings.Index(module, "/"); slash != -1 {
		module = module[:slash]
	}
	if withLine {
		return fmt.Sprintf("%s/%s:%d", module, file, line)
	}
	return fmt.Sprintf("%s/%s", module, file)
}

var (
	ownName    = strings.SplitN(Callers()[0].FunctionName(), ".", 2)[0] // rflow/common/reporter/stack
	parentName = ownName[:strings.LastIndex(ownName, "/")]              // rflow/common/reporter

	// ModuleName is the name of the current Go module.
	ModuleName = strings.TrimSuffix(parentName[:strings.LastIndex(parentName, "/")], "/common")
)
