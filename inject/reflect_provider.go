package inject

import (
	"fmt"
	"go/token"
	"reflect"
	"strings"
)

// DefaultTagName is the struct tag key read by the reflective provider.
const DefaultTagName = "inject"

var methodsType = reflect.TypeFor[Methods]()

// ReflectProvider reads injection metadata from struct tags.
//
// A field tagged with the provider's tag name is injected, the tag value being
// its qualifier. A blank field of type Methods lists injectable methods. The
// level's base is the one untagged, value-embedded struct that carries
// injection metadata itself or through its own base; embedded structs without
// any, such as sync.Mutex, are skipped. Two such candidates, or one that is
// unexported or embedded by pointer, make the type invalid.
//
// A method may be listed by only one level of a hierarchy.
//
// Go has no static members, so this provider never reports one. A listed
// method that is only provided by an embedded interface is reported as
// abstract.
type ReflectProvider struct {
	tagName string
}

// NewReflectProvider creates a provider reading the given tag key
// (DefaultTagName when empty).
func NewReflectProvider(tagName string) *ReflectProvider {
	if tagName == "" {
		tagName = DefaultTagName
	}
	return &ReflectProvider{tagName: tagName}
}

// Describe implements MetadataProvider.
func (p *ReflectProvider) Describe(t reflect.Type) (*TypeInfo, error) {
	info := &TypeInfo{Type: t}
	if t.Kind() != reflect.Struct {
		return info, nil
	}

	base, err := p.embeddedBase(t)
	if err != nil {
		return nil, err
	}
	var inherited map[string]bool
	if base >= 0 {
		info.Super = t.Field(base).Type
		info.Upcast = func(v reflect.Value) reflect.Value {
			return v.Elem().Field(base).Addr()
		}
		inherited = p.listedMethods(info.Super)
	}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, tagged := sf.Tag.Lookup(p.tagName)

		switch {
		case sf.Type == methodsType:
			if !tagged {
				continue
			}
			methods, err := p.describeMethods(t, sf, tag, inherited)
			if err != nil {
				return nil, err
			}
			info.Methods = append(info.Methods, methods...)

		case tagged:
			info.Fields = append(info.Fields, describeField(t, i, sf, tag))
		}
	}
	return info, nil
}

// embeddedBase returns the field index of t's base level, or -1 when t has
// none.
func (p *ReflectProvider) embeddedBase(t reflect.Type) (int, error) {
	base := -1
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.Anonymous {
			continue
		}
		if _, tagged := sf.Tag.Lookup(p.tagName); tagged {
			continue
		}

		switch {
		case sf.Type.Kind() == reflect.Pointer && sf.Type.Elem().Kind() == reflect.Struct:
			if p.carriesMetadata(sf.Type.Elem()) {
				return -1, &InvalidTargetError{Type: t, Reason: "base " + sf.Name + " is embedded by pointer"}
			}
		case sf.Type.Kind() == reflect.Struct:
			if !p.carriesMetadata(sf.Type) {
				continue
			}
			if !sf.IsExported() {
				return -1, &InvalidTargetError{Type: t, Reason: "base " + sf.Name + " is unexported"}
			}
			if base >= 0 {
				return -1, &InvalidTargetError{
					Type:   t,
					Reason: fmt.Sprintf("ambiguous base: both %s and %s carry injection metadata", t.Field(base).Name, sf.Name),
				}
			}
			base = i
		}
	}
	return base, nil
}

// carriesMetadata reports whether t, or any struct it embeds by value, has a
// tagged field or a tagged Methods marker.
func (p *ReflectProvider) carriesMetadata(t reflect.Type) bool {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if _, tagged := sf.Tag.Lookup(p.tagName); tagged {
			return true
		}
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && p.carriesMetadata(sf.Type) {
			return true
		}
	}
	return false
}

// listedMethods collects the method names listed anywhere in t's hierarchy.
// Malformed markers are skipped; they fail when their own level is described.
func (p *ReflectProvider) listedMethods(t reflect.Type) map[string]bool {
	names := make(map[string]bool)
	for t != nil {
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			tag, tagged := sf.Tag.Lookup(p.tagName)
			if sf.Type != methodsType || !tagged {
				continue
			}
			specs, err := parseMethodTag(tag)
			if err != nil {
				continue
			}
			for _, spec := range specs {
				names[spec.Name] = true
			}
		}
		base, err := p.embeddedBase(t)
		if err != nil || base < 0 {
			break
		}
		t = t.Field(base).Type
	}
	return names
}

func describeField(t reflect.Type, idx int, sf reflect.StructField, tag string) Member {
	var opts []MemberOption
	if !sf.IsExported() {
		opts = append(opts, Private())
	}
	key := NewKey(strings.TrimSpace(tag), sf.Type)
	return NewField(t, sf.Name, key, func(level, value reflect.Value) {
		level.Elem().Field(idx).Set(value)
	}, opts...)
}

func (p *ReflectProvider) describeMethods(t reflect.Type, marker reflect.StructField, tag string, inherited map[string]bool) ([]Member, error) {
	specs, err := parseMethodTag(tag)
	if err != nil {
		return nil, &InvalidMemberError{Kind: MalformedTag, Type: t, Member: marker.Name, Cause: err}
	}

	ptr := reflect.PointerTo(t)
	members := make([]Member, 0, len(specs))
	for _, spec := range specs {
		if inherited[spec.Name] {
			return nil, &InvalidMemberError{Kind: InheritedMethod, Type: t, Member: spec.Name}
		}
		if !token.IsExported(spec.Name) {
			members = append(members, NewMethod(t, spec.Name, nil, nil, Private()))
			continue
		}
		if abstractIn(t, spec.Name) {
			members = append(members, NewMethod(t, spec.Name, nil, nil, Abstract()))
			continue
		}

		m, ok := ptr.MethodByName(spec.Name)
		if !ok {
			return nil, &InvalidMemberError{Kind: UnknownMethod, Type: t, Member: spec.Name}
		}
		member, err := describeMethod(t, m, spec)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, nil
}

func describeMethod(t reflect.Type, m reflect.Method, spec methodSpec) (Member, error) {
	ft := m.Type
	if ft.NumOut() != 0 {
		return Member{}, &InvalidMemberError{Kind: MethodResults, Type: t, Member: m.Name}
	}

	params := ft.NumIn() - 1 // receiver
	if len(spec.Qualifiers) > params {
		return Member{}, &InvalidMemberError{
			Kind: MalformedTag, Type: t, Member: m.Name,
			Cause: fmt.Errorf("%d qualifiers for %d parameters", len(spec.Qualifiers), params),
		}
	}

	keys := make([]Key, params)
	for i := range keys {
		var qualifier string
		if i < len(spec.Qualifiers) {
			qualifier = spec.Qualifiers[i]
		}
		keys[i] = NewKey(qualifier, ft.In(i+1))
	}

	fn := m.Func
	variadic := ft.IsVariadic()
	return NewMethod(t, m.Name, keys, func(level reflect.Value, args []reflect.Value) {
		in := make([]reflect.Value, 0, len(args)+1)
		in = append(in, level)
		in = append(in, args...)
		if variadic {
			fn.CallSlice(in)
			return
		}
		fn.Call(in)
	}), nil
}

// abstractIn reports whether name is supplied by an interface embedded in t.
func abstractIn(t reflect.Type, name string) bool {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.Anonymous || sf.Type.Kind() != reflect.Interface {
			continue
		}
		if _, ok := sf.Type.MethodByName(name); ok {
			return true
		}
	}
	return false
}
