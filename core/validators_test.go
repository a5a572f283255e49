package core_test

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lusembo/maendeleo/core"
)

func setupValidator(t *testing.T) (*validator.Validate, ut.Translator) {
	t.Helper()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate, translator
}

func TestInitValidators(t *testing.T) {
	validate, translator := setupValidator(t)

	type form struct {
		Handle string `json:"handle" validate:"required,alphanum_"`
	}

	translated := func(err error) map[string]string {
		vErrs, ok := err.(validator.ValidationErrors)
		require.True(t, ok)
		msgs := make(map[string]string, len(vErrs))
		for _, vErr := range vErrs {
			msgs[vErr.Field()] = vErr.Translate(translator)
		}
		return msgs
	}

	tests := []struct {
		name    string
		handle  string
		wantMsg string
	}{
		{name: "valid", handle: "mobutu_97"},
		{name: "word chars and spaces pass", handle: "Mobutu Sese"},
		{name: "punctuation rejected", handle: "mobutu!", wantMsg: "only alphanumeric characters and underscores are allowed"},
		{name: "empty uses overridden required text", wantMsg: "this field is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(form{Handle: tt.handle})
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			// errors carry the JSON field name, not the Go one
			assert.Equal(t, map[string]string{"handle": tt.wantMsg}, translated(err))
		})
	}
}
