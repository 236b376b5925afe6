package core

import (
	"fmt"
	"runtime/debug"
)

// PanicError carries a value recovered from a panicking callback
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("recovered panic: %v", e.Value)
}

// SafeCall runs fn and converts a panic into a *PanicError
// Used at every dispatch boundary so one failing callback cannot stop the loop
func SafeCall(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	fn()
	return nil
}

// Go runs fn in a new goroutine with panic recovery
// onPanic receives the recovered error; nil onPanic re-panics
func Go(fn func(), onPanic func(error)) {
	go func() {
		if err := SafeCall(fn); err != nil {
			if onPanic == nil {
				panic(err)
			}
			onPanic(err)
		}
	}()
}
