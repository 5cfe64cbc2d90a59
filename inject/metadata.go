package inject

import (
	"reflect"
)

// TypeInfo is the metadata of one struct level: the members declared directly
// on it and the way to reach its base level.
type TypeInfo struct {
	Type    reflect.Type
	Fields  []Member
	Methods []Member

	// Super is the base level, or nil when the hierarchy ends here.
	Super reflect.Type
	// Upcast maps a pointer to Type to a pointer to Super.
	Upcast func(reflect.Value) reflect.Value
}

// MetadataProvider enumerates the injectable members a type declares itself.
// Members inherited from a base level must not be reported; the plan builder
// visits the base separately.
type MetadataProvider interface {
	Describe(t reflect.Type) (*TypeInfo, error)
}

// MetadataProviderFunc adapts a function to MetadataProvider.
type MetadataProviderFunc func(t reflect.Type) (*TypeInfo, error)

// Describe calls f.
func (f MetadataProviderFunc) Describe(t reflect.Type) (*TypeInfo, error) { return f(t) }
