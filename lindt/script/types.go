package script

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"

	"github.com/geoknoesis/lindt-go/lindt"
)

// Capability names of a JavaScript type object.
const (
	fnIsLegal      = "isLegal"
	fnCreateValue  = "createValue"
	fnRecognizes   = "recognizes"
	fnImportValue  = "importValue"
	fnEquals       = "equals"
	fnCanonicalize = "canonicalize"
	fnCompare      = "compare"
	fnExportValue  = "exportValue"
)

var requiredCapabilities = []string{fnIsLegal, fnCreateValue, fnRecognizes, fnImportValue, fnEquals}

// factory calls the resource's factory function.
type factory struct {
	rt          *runtime
	getType     goja.Callable
	resourceURL string
}

// GetType returns the type object for typeURI, checking that it provides
// every required capability.
func (f *factory) GetType(typeURI string) (lindt.TypeImpl, error) {
	res, err := f.rt.call(f.getType, goja.Undefined(), f.rt.arg(typeURI))
	if err != nil {
		return nil, &lindt.ScriptError{TypeURI: typeURI, Op: "getType", Err: err}
	}
	if isAbsent(res) {
		return nil, nil
	}

	f.rt.mu.Lock()
	defer f.rt.mu.Unlock()
	obj, ok := res.(*goja.Object)
	if !ok {
		return nil, &lindt.ProtocolError{TypeURI: typeURI, Op: "getType",
			Err: fmt.Errorf("returned %s, want an object", res.ExportType())}
	}

	t := &jsType{rt: f.rt, uri: typeURI, self: obj, fns: make(map[string]goja.Callable)}
	var missing []string
	for _, name := range requiredCapabilities {
		fn, ok := goja.AssertFunction(obj.Get(name))
		if !ok {
			missing = append(missing, name)
			continue
		}
		t.fns[name] = fn
	}
	if len(missing) > 0 {
		return nil, &lindt.ProtocolError{TypeURI: typeURI, Op: "getType",
			Err: fmt.Errorf("type object lacks %s", strings.Join(missing, ", "))}
	}
	for _, name := range []string{fnCanonicalize, fnCompare, fnExportValue} {
		if fn, ok := goja.AssertFunction(obj.Get(name)); ok {
			t.fns[name] = fn
		}
	}
	return t, nil
}

// jsType adapts a JavaScript type object to lindt.TypeImpl. Optional
// capabilities the object lacks report lindt.ErrUnsupported.
type jsType struct {
	rt   *runtime
	uri  string
	self *goja.Object
	fns  map[string]goja.Callable
}

var (
	_ lindt.TypeImpl      = (*jsType)(nil)
	_ lindt.Canonicalizer = (*jsType)(nil)
	_ lindt.Orderer       = (*jsType)(nil)
	_ lindt.Exporter      = (*jsType)(nil)
)

func (t *jsType) invoke(name string, args ...func() goja.Value) (goja.Value, error) {
	fn, ok := t.fns[name]
	if !ok {
		return nil, lindt.ErrUnsupported
	}
	res, err := t.rt.call(fn, t.self, args...)
	if err != nil {
		return nil, &lindt.ScriptError{TypeURI: t.uri, Op: name, Err: err}
	}
	return res, nil
}

func (t *jsType) predicate(name string, args ...func() goja.Value) (bool, error) {
	res, err := t.invoke(name, args...)
	if err != nil {
		return false, err
	}
	b, ok := asBool(res)
	if !ok {
		return false, t.violation(name, "returned %s, want a boolean", t.rt.describe(res))
	}
	return b, nil
}

func (t *jsType) violation(op, format string, args ...any) error {
	return &lindt.ProtocolError{TypeURI: t.uri, Op: op, Err: fmt.Errorf(format, args...)}
}

// IsLegal calls isLegal(lexical).
func (t *jsType) IsLegal(lexical string) (bool, error) {
	return t.predicate(fnIsLegal, t.rt.arg(lexical))
}

// CreateValue calls createValue(lexical).
func (t *jsType) CreateValue(lexical string) (lindt.ValueImpl, error) {
	res, err := t.invoke(fnCreateValue, t.rt.arg(lexical))
	if err != nil {
		return nil, err
	}
	return t.rt.wrap(res), nil
}

// Recognizes calls recognizes(uri).
func (t *jsType) Recognizes(typeURI string) (bool, error) {
	return t.predicate(fnRecognizes, t.rt.arg(typeURI))
}

// ImportValue calls importValue(value).
func (t *jsType) ImportValue(v lindt.ValueImpl) (lindt.ValueImpl, error) {
	res, err := t.invoke(fnImportValue, t.rt.arg(v))
	if err != nil {
		return nil, err
	}
	return t.rt.wrap(res), nil
}

// Equal calls equals(a, b).
func (t *jsType) Equal(a, b lindt.ValueImpl) (bool, error) {
	return t.predicate(fnEquals, t.rt.arg(a), t.rt.arg(b))
}

// Canonical calls canonicalize(value), whose result must carry a string
// lexicalForm property.
func (t *jsType) Canonical(v lindt.ValueImpl) (string, lindt.ValueImpl, error) {
	res, err := t.invoke(fnCanonicalize, t.rt.arg(v))
	if err != nil {
		return "", nil, err
	}
	if isAbsent(res) {
		return "", nil, nil
	}
	lexical, ok := t.rt.lexicalForm(res)
	if !ok {
		return "", nil, t.violation(fnCanonicalize, "result has no string lexicalForm")
	}
	return lexical, t.rt.wrap(res), nil
}

// Compare calls compare(a, b), which must return a number.
func (t *jsType) Compare(a, b lindt.ValueImpl) (int, error) {
	res, err := t.invoke(fnCompare, t.rt.arg(a), t.rt.arg(b))
	if err != nil {
		return 0, err
	}
	c, ok := asSign(res)
	if !ok {
		return 0, t.violation(fnCompare, "returned %s, want a number", t.rt.describe(res))
	}
	return c, nil
}

// ExportValue calls exportValue(value, targetURI).
func (t *jsType) ExportValue(v lindt.ValueImpl, targetURI string) (lindt.ValueImpl, error) {
	res, err := t.invoke(fnExportValue, t.rt.arg(v), t.rt.arg(targetURI))
	if err != nil {
		return nil, err
	}
	return t.rt.wrap(res), nil
}

func (rt *runtime) describe(v goja.Value) string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	switch {
	case v == nil || goja.IsUndefined(v):
		return "undefined"
	case goja.IsNull(v):
		return "null"
	default:
		return fmt.Sprintf("%T", v.Export())
	}
}
