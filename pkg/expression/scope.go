package expression

import (
	"fmt"
	"reflect"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/vango-dev/bindkit/pkg/reactive"
)

// scope is the per-evaluation environment handed to the rewritten program.
type scope struct {
	ctx *Context
	el  *html.Node
	rec *Recorder
}

// unwrap records v when it is a reactive source and returns its current
// value; other values pass through.
func (s *scope) unwrap(v any) any {
	src, ok := v.(reactive.Source)
	if !ok {
		return v
	}
	if s.rec != nil {
		s.rec.Add(src)
	}
	return src.Current()
}

// lookup resolves name against the context keys first and the data object
// second.
func (s *scope) lookup(name string) (any, error) {
	if name == "$element" {
		return s.el, nil
	}
	if v, ok := s.ctx.Lookup(name); ok {
		return v, nil
	}
	if v, ok := member(s.unwrap(s.ctx.Data()), name); ok {
		return v, nil
	}
	return nil, fmt.Errorf("%s is not defined", name)
}

func callLookup(unwrap bool) func(params ...any) (any, error) {
	return func(params ...any) (any, error) {
		s := params[0].(*scope)
		v, err := s.lookup(params[1].(string))
		if err != nil || !unwrap {
			return v, err
		}
		return s.unwrap(v), nil
	}
}

func callMember(unwrap bool) func(params ...any) (any, error) {
	return func(params ...any) (any, error) {
		s := params[0].(*scope)
		name := params[2].(string)
		optional, _ := params[3].(bool)

		// Methods of the reactive value itself win over members of its
		// current value. Calling one still counts as a read.
		if src, ok := params[1].(reactive.Source); ok {
			if m, ok := method(src, name); ok {
				if s.rec != nil {
					s.rec.Add(src)
				}
				return m, nil
			}
		}
		obj := s.unwrap(params[1])

		if isNil(obj) {
			if optional {
				return nil, nil
			}
			return nil, fmt.Errorf("cannot read property %q of nil", name)
		}
		v, ok := member(obj, name)
		if !ok {
			if isMap(obj) {
				return nil, nil
			}
			return nil, fmt.Errorf("%T has no property %q", obj, name)
		}
		if !unwrap {
			return v, nil
		}
		return s.unwrap(v), nil
	}
}

// member reads name from obj: a map key, an exported struct field or a
// method. Lower-case names also match their capitalized Go counterparts.
func member(obj any, name string) (any, bool) {
	switch m := obj.(type) {
	case nil:
		return nil, false
	case map[string]any:
		v, ok := m[name]
		return v, ok
	}

	if m, ok := method(obj, name); ok {
		return m, true
	}

	names := candidates(name)
	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		mv := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !mv.IsValid() {
			return nil, false
		}
		return mv.Interface(), true
	case reflect.Struct:
		for _, n := range names {
			f, ok := rv.Type().FieldByName(n)
			if !ok || !f.IsExported() {
				continue
			}
			fv, err := rv.FieldByIndexErr(f.Index)
			if err != nil {
				return nil, false
			}
			return fv.Interface(), true
		}
	}
	return nil, false
}

func method(obj any, name string) (any, bool) {
	rv := reflect.ValueOf(obj)
	for _, n := range candidates(name) {
		if mv := rv.MethodByName(n); mv.IsValid() {
			return mv.Interface(), true
		}
	}
	return nil, false
}

func candidates(name string) []string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return []string{name}
	}
	return []string{name, string(unicode.ToUpper(r)) + name[size:]}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func isMap(v any) bool {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	return rv.Kind() == reflect.Map
}
