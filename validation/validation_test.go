package validation

import (
	"strings"
	"testing"

	"github.com/kbukum/injectkit/errors"
)

type settings struct {
	Name    string `mapstructure:"name" validate:"required"`
	Mode    string `mapstructure:"mode" validate:"oneof=fast safe"`
	TagName string `mapstructure:"tag_name" validate:"max=8"`
	Owner   string `validate:"omitempty,min=3"`
	Nested  nested `mapstructure:"nested"`
}

type nested struct {
	ID string `mapstructure:"id" validate:"omitempty,uuid"`
}

func TestValidateValid(t *testing.T) {
	s := settings{Name: "svc", Mode: "fast", TagName: "inject"}
	if err := Validate(s); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestValidateInvalid(t *testing.T) {
	tests := []struct {
		name  string
		in    settings
		field string
		msg   string
	}{
		{"required", settings{Mode: "fast"}, "name", "is required"},
		{"oneof", settings{Name: "svc", Mode: "slow"}, "mode", "must be one of: fast safe"},
		{"max", settings{Name: "svc", Mode: "safe", TagName: "much-too-long"}, "tag_name", "must be at most 8 characters"},
		{"min snake case", settings{Name: "svc", Mode: "safe", Owner: "ab"}, "owner", "must be at least 3 characters"},
		{"nested", settings{Name: "svc", Mode: "safe", Nested: nested{ID: "x"}}, "nested.id", "must be a valid UUID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.in)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("expected INVALID_CONFIG, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.field+": "+tt.msg) {
				t.Errorf("expected %q in %q", tt.field+": "+tt.msg, err.Error())
			}

			appErr, _ := errors.AsAppError(err)
			fields, ok := appErr.Details["fields"].([]FieldError)
			if !ok || len(fields) != 1 || fields[0].Field != tt.field {
				t.Errorf("unexpected field details: %#v", appErr.Details["fields"])
			}
		})
	}
}

func TestValidateMultipleFields(t *testing.T) {
	err := Validate(settings{Mode: "slow"})
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if fields := appErr.Details["fields"].([]FieldError); len(fields) != 2 {
		t.Errorf("expected 2 field errors, got %d", len(fields))
	}
}

func TestValidateNonStruct(t *testing.T) {
	err := Validate("not a struct")
	if !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Name":       "name",
		"TagName":    "tag_name",
		"already_ok": "already_ok",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
