package scripting

import (
	"context"
	"errors"
	"time"

	"github.com/dop251/goja"
)

// ErrCancelled is the reason a signal reports when the run was stopped.
var ErrCancelled = errors.New("cancelled")

// newSignal returns the JS object passed as the second argument of run. It
// exposes ctx to the script for cooperative cancellation:
//
//	isSet() / is_set()  true once the run has been asked to stop
//	wait(ms)            sleep up to ms (forever when omitted), true if stopped
//	reason()            why the run was stopped, or null
//	throwIfSet()        throw when stopped
func newSignal(vm *goja.Runtime, ctx context.Context) *goja.Object {
	obj := vm.NewObject()
	isSet := func(goja.FunctionCall) goja.Value {
		return vm.ToValue(ctx.Err() != nil)
	}
	_ = obj.Set("isSet", isSet)
	_ = obj.Set("is_set", isSet)
	_ = obj.Set("wait", func(call goja.FunctionCall) goja.Value {
		arg := call.Argument(0)
		if goja.IsUndefined(arg) || goja.IsNull(arg) {
			<-ctx.Done()
			return vm.ToValue(true)
		}
		d := time.Duration(arg.ToFloat() * float64(time.Millisecond))
		if d <= 0 {
			return vm.ToValue(ctx.Err() != nil)
		}
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return vm.ToValue(true)
		case <-t.C:
			return vm.ToValue(ctx.Err() != nil)
		}
	})
	_ = obj.Set("reason", func(goja.FunctionCall) goja.Value {
		if ctx.Err() == nil {
			return goja.Null()
		}
		return vm.ToValue(reason(ctx).Error())
	})
	_ = obj.Set("throwIfSet", func(goja.FunctionCall) goja.Value {
		if ctx.Err() != nil {
			panic(vm.NewGoError(reason(ctx)))
		}
		return goja.Undefined()
	})
	return obj
}

func reason(ctx context.Context) error {
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return ErrCancelled
}
