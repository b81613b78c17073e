package binding

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/bindkit/pkg/errors"
)

func TestRegistryRegister(t *testing.T) {
	var log []string
	tests := []struct {
		name    string
		d       Descriptor
		wantErr bool
	}{
		{"valid", Descriptor{Name: "text", Handler: recorder{"text", &log}}, false},
		{"empty name", Descriptor{Handler: recorder{"x", &log}}, true},
		{"nil handler", Descriptor{Name: "text"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry().Register(tt.d)
			if (err != nil) != tt.wantErr {
				t.Errorf("Register() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && errors.KindOf(err) != errors.KindRegistry {
				t.Errorf("kind = %s, want %s", errors.KindOf(err), errors.KindRegistry)
			}
		})
	}
}

func TestRegistryReplaceAndNames(t *testing.T) {
	var log []string
	r := NewRegistry()
	_ = r.Register(Descriptor{Name: "with", Priority: 1, Handler: recorder{"a", &log}})
	_ = r.Register(Descriptor{Name: "as", Handler: recorder{"b", &log}})
	_ = r.Register(Descriptor{Name: "with", Priority: 50, Handler: recorder{"c", &log}})

	if diff := cmp.Diff([]string{"as", "with"}, r.Names()); diff != "" {
		t.Errorf("Names() (-want +got):\n%s", diff)
	}
	d, ok := r.Lookup("with")
	if !ok || d.Priority != 50 {
		t.Errorf("Lookup(with) = %+v, %v; want the replacement", d, ok)
	}
}

func TestRegistryResolve(t *testing.T) {
	var log []string
	r := NewRegistry()
	_ = r.Register(Descriptor{Name: "value", Priority: 5, Handler: recorder{"value", &log}})
	_ = r.Register(Descriptor{Name: "if", Priority: 50, Handler: recorder{"if", &log}})
	_ = r.Register(Descriptor{Name: "text", Handler: recorder{"text", &log}})

	descs, errs := r.Resolve([]string{"text", "nope", "value", "if"})

	var names []string
	for _, d := range descs {
		names = append(names, d.Name)
	}
	if diff := cmp.Diff([]string{"if", "value", "text"}, names); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
	if len(errs) != 1 || errors.CodeOf(errs[0]) != errors.CodeUnregisteredHandler {
		t.Errorf("errs = %v, want one %s", errs, errors.CodeUnregisteredHandler)
	}
}
