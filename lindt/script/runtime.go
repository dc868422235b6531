package script

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/geoknoesis/lindt-go/lindt"
)

// errCallTimeout is the interrupt value of calls exceeding CallTimeout.
var errCallTimeout = errors.New("call exceeded time limit")

// runtime is a goja runtime and the lock that serializes its use.
type runtime struct {
	mu          sync.Mutex
	vm          *goja.Runtime
	callTimeout time.Duration
}

func newRuntime(opts Options, name string) *runtime {
	vm := goja.New()
	installConsole(vm, opts.Logger.With("runtime", name))
	return &runtime{vm: vm, callTimeout: opts.CallTimeout}
}

func installConsole(vm *goja.Runtime, logger *slog.Logger) {
	console := vm.NewObject()
	logAt := func(level slog.Level) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			parts := make([]string, 0, len(call.Arguments))
			for _, a := range call.Arguments {
				parts = append(parts, a.String())
			}
			logger.Log(context.Background(), level, strings.Join(parts, " "))
			return goja.Undefined()
		}
	}
	_ = console.Set("log", logAt(slog.LevelInfo))
	_ = console.Set("info", logAt(slog.LevelInfo))
	_ = console.Set("debug", logAt(slog.LevelDebug))
	_ = console.Set("warn", logAt(slog.LevelWarn))
	_ = console.Set("error", logAt(slog.LevelError))
	_ = vm.Set("console", console)
}

// value is a JavaScript value owned by a runtime.
type value struct {
	rt *runtime
	v  goja.Value
}

// arg prepares x to be passed into rt. The returned function must run with
// rt.mu held. Values of another runtime are copied out of it first.
func (rt *runtime) arg(x lindt.ValueImpl) func() goja.Value {
	switch val := x.(type) {
	case *value:
		if val.rt == rt {
			return func() goja.Value { return val.v }
		}
		plain := val.rt.export(val.v)
		return func() goja.Value { return rt.vm.ToValue(plain) }
	case string:
		return func() goja.Value { return rt.vm.ToValue(val) }
	default:
		return func() goja.Value { return rt.vm.ToValue(x) }
	}
}

func (rt *runtime) export(v goja.Value) any {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return v.Export()
}

// call invokes fn with this bound to recv.
func (rt *runtime) call(fn goja.Callable, recv goja.Value, args ...func() goja.Value) (goja.Value, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.callTimeout > 0 {
		timer := time.AfterFunc(rt.callTimeout, func() { rt.vm.Interrupt(errCallTimeout) })
		defer func() {
			timer.Stop()
			rt.vm.ClearInterrupt()
		}()
	}

	values := make([]goja.Value, len(args))
	for i, a := range args {
		values[i] = a()
	}
	return fn(recv, values...)
}

func (rt *runtime) wrap(v goja.Value) lindt.ValueImpl {
	if isAbsent(v) {
		return nil
	}
	return &value{rt: rt, v: v}
}

// lexicalForm reads the lexicalForm property of a value object.
func (rt *runtime) lexicalForm(v goja.Value) (string, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	obj, ok := v.(*goja.Object)
	if !ok {
		return "", false
	}
	lf := obj.Get("lexicalForm")
	if lf == nil {
		return "", false
	}
	s, ok := lf.Export().(string)
	return s, ok
}

func isAbsent(v goja.Value) bool {
	return v == nil || goja.IsUndefined(v) || goja.IsNull(v)
}

func asBool(v goja.Value) (bool, bool) {
	if v == nil {
		return false, false
	}
	b, ok := v.Export().(bool)
	return b, ok
}

func asSign(v goja.Value) (int, bool) {
	if v == nil {
		return 0, false
	}
	var f float64
	switch n := v.Export().(type) {
	case int64:
		f = float64(n)
	case float64:
		f = n
	default:
		return 0, false
	}
	switch {
	case math.IsNaN(f):
		return 0, false
	case f < 0:
		return -1, true
	case f > 0:
		return 1, true
	default:
		return 0, true
	}
}
