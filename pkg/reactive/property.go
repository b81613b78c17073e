package reactive

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/vango-dev/bindkit/pkg/errors"
)

// Property is a writable Value created from a plain value.
type Property[T any] struct {
	*Value[T]
}

// NewProperty creates a Property holding initial.
func NewProperty[T any](initial T) *Property[T] {
	v := newValue[T]()
	v.value, v.has = initial, true
	return &Property[T]{Value: v}
}

// Set stores x and notifies subscribers. Writes after Dispose are ignored.
func (p *Property[T]) Set(x T) {
	p.publish(x)
}

// Update sets the value to fn applied to the current value.
func (p *Property[T]) Update(fn func(T) T) {
	p.Set(fn(p.Get()))
}

// Write implements Writable. Strings are parsed when T is a boolean or
// numeric type; other values must be assignable or numerically convertible
// to T.
func (p *Property[T]) Write(x any) error {
	cv, err := convert[T](x)
	if err != nil {
		return err
	}
	p.Set(cv)
	return nil
}

func convert[T any](x any) (T, error) {
	var zero T
	if cv, ok := x.(T); ok {
		return cv, nil
	}
	target := reflect.TypeOf((*T)(nil)).Elem()
	if x == nil {
		switch target.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return zero, nil
		}
		return zero, rejected(x, target)
	}

	if s, ok := x.(string); ok {
		rv, err := parseString(s, target)
		if err != nil {
			return zero, errors.New(errors.CodeWriteRejected).
				WithDetailf("cannot parse %q as %s", s, target).
				Wrap(err)
		}
		return rv.Interface().(T), nil
	}

	rv := reflect.ValueOf(x)
	if isNumeric(rv.Kind()) && isNumeric(target.Kind()) {
		return rv.Convert(target).Interface().(T), nil
	}
	if target.Kind() == reflect.String {
		return reflect.ValueOf(fmt.Sprint(x)).Convert(target).Interface().(T), nil
	}
	return zero, rejected(x, target)
}

func rejected(x any, target reflect.Type) error {
	return errors.New(errors.CodeWriteRejected).
		WithDetailf("cannot assign %T to %s", x, target)
}

func parseString(s string, target reflect.Type) (reflect.Value, error) {
	out := reflect.New(target).Elem()
	switch target.Kind() {
	case reflect.String:
		out.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return out, err
		}
		out.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, target.Bits())
		if err != nil {
			return out, err
		}
		out.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, target.Bits())
		if err != nil {
			return out, err
		}
		out.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, target.Bits())
		if err != nil {
			return out, err
		}
		out.SetFloat(f)
	default:
		return out, fmt.Errorf("unsupported kind %s", target.Kind())
	}
	return out, nil
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
