package inject

import (
	"reflect"
	"strings"
	"sync"
)

// journal records the order in which providers and methods run.
type journal struct {
	entries []string
}

func (j *journal) add(s string) { j.entries = append(j.entries, s) }

func (j *journal) String() string { return strings.Join(j.entries, ", ") }

// recorded returns a provider that logs each Get before yielding v.
func recorded(j *journal, name string, v any) Provider {
	return ProviderFunc(func() any {
		j.add("get " + name)
		return v
	})
}

type Empty struct {
	A int
	B string
}

type Single struct {
	Value int `inject:""`
	_     Methods `inject:"Init"`

	seenAtInit int
	inits      int
}

func (s *Single) Init() {
	s.seenAtInit = s.Value
	s.inits++
}

type LevelA struct {
	AField string `inject:"a"`
	_      Methods `inject:"InitA(b)"`

	J *journal
}

func (a *LevelA) InitA(v string) { a.J.add("A.InitA(" + v + ") field=" + a.AField) }

type LevelB struct {
	LevelA
	BField string  `inject:"c"`
	_      Methods `inject:"InitB"`
}

func (b *LevelB) InitB() { b.J.add("B.InitB field=" + b.BField) }

// LevelC adds nothing of its own, so it contributes no level.
type LevelC struct {
	LevelB
	Note string
}

type ExampleBase struct {
	X int `inject:""`
}

type ExampleDerived struct {
	ExampleBase
}

type Qualified struct {
	Primary   string `inject:"primary"`
	Secondary string `inject:"secondary"`
	Plain     string `inject:""`
}

type Clock interface {
	Now() int
}

type fixedClock int

func (c fixedClock) Now() int { return int(c) }

type Wiring struct {
	Clock Clock    `inject:""`
	J     *journal `inject:""`
	_     Methods  `inject:"SetPair(left, right), SetTags"`

	left, right string
	tags        []string
}

func (w *Wiring) SetPair(l, r string) { w.left, w.right = l, r }

func (w *Wiring) SetTags(tags ...string) { w.tags = tags }

type PrivateFieldTarget struct {
	hidden string `inject:""`
}

type PrivateMethodTarget struct {
	_ Methods `inject:"setup"`
}

func (p *PrivateMethodTarget) setup() {}

type Starter interface {
	Start()
}

type AbstractTarget struct {
	Starter
	_ Methods `inject:"Start"`
}

type UnknownMethodTarget struct {
	_ Methods `inject:"Missing"`
}

type ResultsTarget struct {
	_ Methods `inject:"Open"`
}

func (r *ResultsTarget) Open() error { return nil }

type MalformedTarget struct {
	_ Methods `inject:"Open(,"`
}

type TooManyQualifiersTarget struct {
	_ Methods `inject:"Set(a, b)"`
}

func (t *TooManyQualifiersTarget) Set(string) {}

// InvalidBase has a valid field but an invalid base level.
type InvalidBase struct {
	PrivateFieldTarget
	Name string `inject:""`
}

// TaggedEmbed embeds a struct that is itself an injected field, so it is not
// a base level.
type TaggedEmbed struct {
	ExampleBase `inject:""`
}

// Greeter counts calls to its listed Hello method.
type Greeter struct {
	X     int     `inject:""`
	_     Methods `inject:"Hello"`
	calls int
}

func (g *Greeter) Hello() { g.calls++ }

// GuardedGreeter embeds a lock ahead of its base.
type GuardedGreeter struct {
	sync.Mutex
	Greeter
}

type greeterBase struct {
	X int `inject:""`
}

type HiddenBase struct {
	greeterBase
}

type PointerBase struct {
	*Greeter
}

type Unrelated struct {
	Name string `inject:""`
}

type AmbiguousBase struct {
	Greeter
	Unrelated
}

// RelistedGreeter lists a method its base already lists.
type RelistedGreeter struct {
	Greeter
	_ Methods `inject:"Hello"`
}

var (
	intType    = reflect.TypeFor[int]()
	stringType = reflect.TypeFor[string]()
)
