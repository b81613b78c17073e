// Package component registers named components used by the component
// binding.
//
// A component has a template and an optional view-model. The view-model is
// either a fixed value or produced per use by a Factory that receives the
// parameters declared on the host element. Factory failures, panics
// included, are recovered.
//
// Templates can be given inline or preloaded from a Loader:
//
//	reg := component.NewRegistry()
//	_ = reg.Register(component.Descriptor{
//	    Name:    "user-card",
//	    Factory: newUserCard,
//	})
//	err := component.Preload(ctx, reg, component.FSLoader{FS: os.DirFS("components")}, "user-card")
//
// Names must contain a dash and are matched case-insensitively.
package component
