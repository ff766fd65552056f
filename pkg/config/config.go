// Package config holds the resolved runtime configuration of the pipesched commands.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	DatabaseURL string `validate:"required"`
	EventBus    string `validate:"omitempty,oneof=gochannel kafka"`
	LogLevel    string `validate:"omitempty,oneof=debug info warn warning error"`
	JobCommand  string
	MailCommand string `validate:"required"`
	Tracing     bool
	Port        int    `validate:"min=0,max=65535"`
	CronSpec    string `validate:"omitempty,cron"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, fmt.Sprintf("%s failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
	}

	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
}
