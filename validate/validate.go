package validate

import (
	"errors"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/google/uuid"
)

var validate *validator.Validate

var translator ut.Translator

func init() {

	validate = validator.New()

	translator, _ = ut.New(en.New(), en.New()).GetTranslator("en")
	en_translations.RegisterDefaultTranslations(validate, translator)
}

// Check validates a struct and returns the first failure as a readable
// English message.
func Check(val any) error {
	return translate(validate.Struct(val))
}

// CheckVar validates a single value against a tag such as "min=1,max=30".
// The field name in the message is name.
func CheckVar(name string, val any, tag string) error {
	err := validate.Var(val, tag)
	if err == nil {
		return nil
	}

	var verrors validator.ValidationErrors
	if !errors.As(err, &verrors) || len(verrors) < 1 {
		return err
	}
	return errors.New(name + verrors[0].Translate(translator))
}

func translate(err error) error {
	if err == nil {
		return nil
	}

	verrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	if len(verrors) < 1 {
		return nil
	}

	return errors.New(verrors[0].Translate(translator))
}

func GenerateID() string {
	return uuid.NewString()
}
