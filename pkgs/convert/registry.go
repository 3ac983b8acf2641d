package convert

import (
	"fmt"
	"net/netip"
	"net/url"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Registry maps converter names, as written in descriptor files and
// `converter:"..."` tags, to Converter values.
type Registry struct {
	mu         sync.RWMutex
	converters map[string]Converter
}

// NewRegistry returns a registry holding the standard named converters.
func NewRegistry() *Registry {
	r := &Registry{converters: make(map[string]Converter)}
	r.registerStandard()
	return r
}

func (r *Registry) registerStandard() {
	r.converters["duration"] = Func(func(raw string) (any, error) {
		return time.ParseDuration(raw)
	})
	r.converters["url"] = Func(func(raw string) (any, error) {
		return url.Parse(raw)
	})
	r.converters["ip"] = Func(func(raw string) (any, error) {
		return netip.ParseAddr(raw)
	})
	r.converters["time"] = Func(func(raw string) (any, error) {
		return time.Parse(time.RFC3339, raw)
	})
	r.converters["strings"] = Func(func(raw string) (any, error) {
		if raw == "" {
			return []string{}, nil
		}
		return lo.Map(strings.Split(raw, ","), func(s string, _ int) string {
			return strings.TrimSpace(s)
		}), nil
	})
}

// Register adds or replaces a named converter.
func (r *Registry) Register(name string, c Converter) {
	if name == "" || c == nil {
		panic("convert: invalid converter registration")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.converters[name] = c
}

// Lookup returns the converter registered under name.
func (r *Registry) Lookup(name string) (Converter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.converters[name]
	return c, ok
}

// Names returns the registered converter names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := lo.Keys(r.converters)
	slices.Sort(names)
	return names
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry used by generated parsers.
func Default() *Registry { return defaultRegistry }

// Register adds a converter to the default registry.
func Register(name string, c Converter) { defaultRegistry.Register(name, c) }

// Lookup finds a converter in the default registry.
func Lookup(name string) (Converter, bool) { return defaultRegistry.Lookup(name) }

// Named converts raw with the converter registered under name in the
// default registry. Generated parsers resolve converters at parse time so
// registrations made in init functions are visible.
func Named(name, raw string) (any, error) {
	c, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown converter %q", name)
	}
	return c.Convert(raw)
}

// Into stores v in *dst. v must be assignable to T, convertible to T when T
// has a string kind, or, when T is a pointer, assignable to its element.
func Into[T any](dst *T, v any) error {
	if tv, ok := v.(T); ok {
		*dst = tv
		return nil
	}
	target := reflect.TypeOf(dst).Elem()
	rv, err := coerce(reflect.ValueOf(v), target)
	if err != nil {
		return err
	}
	*dst = rv.Interface().(T)
	return nil
}

// Assign stores v in the settable field, applying the same rules as Into.
func Assign(field reflect.Value, v any) error {
	rv, err := coerce(reflect.ValueOf(v), field.Type())
	if err != nil {
		return err
	}
	field.Set(rv)
	return nil
}

func coerce(v reflect.Value, target reflect.Type) (reflect.Value, error) {
	if !v.IsValid() {
		return reflect.Zero(target), nil
	}
	switch {
	case v.Type().AssignableTo(target):
		return v, nil
	case v.Kind() == reflect.String && target.Kind() == reflect.String:
		return v.Convert(target), nil
	case target.Kind() == reflect.Ptr:
		elem, err := coerce(v, target.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(target.Elem())
		p.Elem().Set(elem)
		return p, nil
	case isNumeric(v.Kind()) && isNumeric(target.Kind()) && v.Type().ConvertibleTo(target):
		return v.Convert(target), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot assign %s to %s", v.Type(), target)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// CanHoldString reports whether a raw token can be stored in t without a
// converter.
func CanHoldString(t reflect.Type) bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind() == reflect.String
}
