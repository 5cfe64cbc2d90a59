// Package inject populates the members of an already-constructed struct from
// a binding graph, using runtime reflection instead of generated code.
//
// A Plan is built once per target type. Building walks the type's embedding
// chain (a level's base is the value-embedded struct that carries injection
// metadata; embeds without any, such as sync.Mutex, are ignored), validates every member marked for injection and resolves each dependency
// key against the graph eagerly. The resulting plan is immutable and can be
// applied to any number of instances from any number of goroutines.
//
// # Marking members
//
//	type Repository struct {
//	    Clock Clock `inject:""`
//	}
//
//	type UserService struct {
//	    Repository                        // base level, injected first
//	    Store  Store  `inject:"primary"`  // qualified key
//	    _      inject.Methods `inject:"SetCache(users), Init"`
//	}
//
// Fields carry an `inject` tag whose value is the optional qualifier. Methods
// are listed on a blank inject.Methods marker field of the level that declares
// them; a parenthesised list assigns qualifiers to parameters by position, with
// "_" meaning unqualified. A method may be listed by only one level; listing
// a method the base already lists fails the build.
//
// # Ordering
//
// Levels are applied base first. Within a level every field is written
// before any method is called, so a level's methods observe that level's
// injected fields.
//
// # Usage
//
//	injector, err := inject.For[UserService](graph)
//	if err != nil {
//	    return err
//	}
//	svc := &UserService{}
//	injector.InjectMembers(svc)
package inject
