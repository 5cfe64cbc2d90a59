// Package di provides a dependency container that serves as a binding graph
// for member injection.
//
// Components are registered under an inject.Key in one of three modes: eager,
// lazy, or singleton. The container resolves keys for injection plans and
// caches one plan per struct type.
//
// # Registration
//
//	di.Provide[Store](c, func() (Store, error) { return NewStore(), nil })
//	di.ProvideValue(c, "region", "eu-west-1")
//	di.ProvideStruct[Service](c, "")
//
// # Resolution
//
//	svc := di.MustResolve[*Service](c, "")
//
// # Member injection
//
//	handler := &Handler{}
//	if err := di.InjectMembers(c, handler); err != nil { ... }
package di
