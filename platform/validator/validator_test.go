package validator

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
)

type sample struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Kind  string `json:"kind" validate:"omitempty,color"`
}

func TestMessagesUseJSONFieldNames(t *testing.T) {
	v := New()
	if err := v.RegisterValidation("color", func(fl validator.FieldLevel) bool {
		return fl.Field().String() == "red"
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	err := v.Struct(sample{Email: "nope", Kind: "blue"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	got := Messages(err)
	want := []string{
		"name is required",
		"email must be a valid email address",
		"kind is invalid",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d messages, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("message %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestMessagesPassesThroughForeignErrors(t *testing.T) {
	got := Messages(errors.New("boom"))
	if len(got) != 1 || got[0] != "boom" {
		t.Fatalf("unexpected messages %v", got)
	}
}
