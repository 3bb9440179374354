package ai

import (
	"testing"

	apperrors "sofia/internal/errors"
)

func TestCleanJSON(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
	}{
		"plain":         {`{"a":1}`, `{"a":1}`},
		"fenced":        {"```json\n{\"a\":1}\n```", `{"a":1}`},
		"prose_around":  {"Claro, aquí está: {\"a\":1} ¡saludos!", `{"a":1}`},
		"array":         {"```\n[1,2]\n```", `[1,2]`},
		"object_in_arr": {`[{"a":1}]`, `[{"a":1}]`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := CleanJSON(tc.in); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

type decoded struct {
	Type   string  `json:"type" validate:"required,txn_type"`
	Amount float64 `json:"amount" validate:"gt=0"`
}

func TestDecodeJSON(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		got, err := DecodeJSON[decoded]("```json\n{\"type\":\"income\",\"amount\":500}\n```")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Type != "income" || got.Amount != 500 {
			t.Errorf("unexpected value %+v", got)
		}
	})

	t.Run("invalid_json", func(t *testing.T) {
		_, err := DecodeJSON[decoded]("no json here")
		if apperrors.CodeOf(err) != apperrors.ErrAIMalformed.Code {
			t.Errorf("expected AI_MALFORMED_RESPONSE, got %v", err)
		}
	})

	t.Run("fails_validation", func(t *testing.T) {
		_, err := DecodeJSON[decoded](`{"type":"transfer","amount":-1}`)
		if apperrors.CodeOf(err) != apperrors.ErrAIMalformed.Code {
			t.Errorf("expected AI_MALFORMED_RESPONSE, got %v", err)
		}
	})
}
