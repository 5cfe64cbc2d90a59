package inject

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Methods marks a blank field whose tag lists the injectable methods of the
// enclosing struct:
//
//	_ inject.Methods `inject:"SetStore(primary, _), Start"`
type Methods struct{}

// unqualified is the placeholder for a parameter without a qualifier.
const unqualified = "_"

type methodList struct {
	Methods []*methodDecl `parser:"@@ ( ',' @@ )*"`
}

type methodDecl struct {
	Name   string     `parser:"@Ident"`
	Params *paramList `parser:"@@?"`
}

type paramList struct {
	Qualifiers []string `parser:"'(' ( @Ident ( ',' @Ident )* )? ')'"`
}

var tagParser = participle.MustBuild[methodList](
	participle.Lexer(lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_.\-]*`},
		{Name: "Punct", Pattern: `[(),]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})),
	participle.Elide("Whitespace"),
)

// methodSpec is a parsed method declaration with per-parameter qualifiers.
type methodSpec struct {
	Name       string
	Qualifiers []string
}

// parseMethodTag parses the tag of an inject.Methods marker. An empty tag
// declares no methods.
func parseMethodTag(tag string) ([]methodSpec, error) {
	if strings.TrimSpace(tag) == "" {
		return nil, nil
	}
	list, err := tagParser.ParseString("", tag)
	if err != nil {
		return nil, err
	}

	specs := make([]methodSpec, 0, len(list.Methods))
	for _, decl := range list.Methods {
		spec := methodSpec{Name: decl.Name}
		if decl.Params != nil {
			for _, q := range decl.Params.Qualifiers {
				if q == unqualified {
					q = ""
				}
				spec.Qualifiers = append(spec.Qualifiers, q)
			}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
