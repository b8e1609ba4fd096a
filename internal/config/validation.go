package config

import (
	"errors"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"xvm/internal/logx"
)

// logLevel accepts every level the logger understands, aliases included.
var logLevel = validation.By(func(value interface{}) error {
	raw, _ := value.(string)
	if _, ok := logx.ParseLevel(raw); !ok {
		return errors.New("must be trace, debug, info, warn, error, off or disabled")
	}
	return nil
})

var absolutePath = validation.NewStringRuleWithError(filepath.IsAbs,
	validation.NewError("validation_absolute_path", "must be an absolute path"))

// Validate checks directory fields and nested sections.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Home, validation.Required, absolutePath),
		validation.Field(&c.Data, validation.Required, absolutePath),
		validation.Field(&c.Subos, validation.Required, absolutePath),
		validation.Field(&c.Log),
		validation.Field(&c.Shim),
	)
}

// Validate checks the log level.
func (c LogConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Level, validation.Required, logLevel),
	)
}

// Validate checks the dispatcher path when one is set.
func (c ShimConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Dispatcher, absolutePath),
	)
}
