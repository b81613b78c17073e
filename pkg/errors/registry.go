package errors

import "sort"

// Template defines a registered error type.
type Template struct {
	Kind    Kind
	Message string
	Detail  string
}

var registry = map[string]Template{
	CodeCompilation: {
		Kind:    KindCompilation,
		Message: "Expression could not be compiled",
		Detail:  "The attribute is treated as unbound.",
	},
	CodeEvaluation: {
		Kind:    KindEvaluation,
		Message: "Expression evaluation failed",
	},
	CodeUnregisteredHandler: {
		Kind:    KindRegistry,
		Message: "Binding handler has not been registered",
	},
	CodeExclusivity: {
		Kind:    KindExclusivity,
		Message: "Bindings are competing for descendants of target element",
	},
	CodeConstructor: {
		Kind:    KindConstructor,
		Message: "Component view-model constructor failed",
		Detail:  "The component continues without a view-model.",
	},
	CodeInvalidRoot: {
		Kind:    KindRuntime,
		Message: "ApplyBindings requires an element root",
	},
	CodeHandlerTarget: {
		Kind:    KindRuntime,
		Message: "Binding handler applied to an unsupported node",
	},
	CodeComponentNotFound: {
		Kind:    KindRegistry,
		Message: "Component has not been registered",
	},
	CodeInvalidComponentName: {
		Kind:    KindRegistry,
		Message: "Invalid component name",
		Detail:  "Component names must contain a dash.",
	},
	CodeWriteRejected: {
		Kind:    KindEvaluation,
		Message: "Two-way binding write rejected",
	},
	CodeConfigInvalid: {
		Kind:    KindConfiguration,
		Message: "Invalid configuration",
	},
}

// Codes returns all registered error codes in order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Lookup returns the template for an error code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
// Call it during package initialization only.
func Register(code string, template Template) {
	registry[code] = template
}
