package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report keys the way they appear in the config file
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// Validate checks the configuration for errors. All problems are reported
// at once.
func (c *Config) Validate() error {
	var errs []error

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			errs = append(errs, fieldError(fe))
		}
	}

	if c.Auth.Mode == AuthModeDefault && c.Auth.Username == "" {
		errs = append(errs, errors.New("auth.username is required unless auth.mode is anonymous or gssapi"))
	}
	if c.Server.TLS == TLSModeNone && c.Server.InsecureSkipVerify {
		errs = append(errs, errors.New("server.insecure_skip_verify requires server.tls to be tls or starttls"))
	}
	seen := make(map[string]bool)
	for _, m := range c.Auth.Methods {
		if seen[m] {
			errs = append(errs, fmt.Errorf("auth.methods lists %s more than once", m))
		}
		seen[m] = true
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func fieldError(fe validator.FieldError) error {
	key := fe.Namespace()
	if _, rest, ok := strings.Cut(key, "."); ok {
		key = rest
	}

	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", key)
	case "oneof":
		return fmt.Errorf("%s must be one of: %s (got: %v)", key, strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value())
	case "hostname_port":
		return fmt.Errorf("%s must be host:port (got: %v)", key, fe.Value())
	case "gte", "min":
		return fmt.Errorf("%s must be at least %s (got: %v)", key, fe.Param(), fe.Value())
	case "max":
		return fmt.Errorf("%s must be at most %s (got: %v)", key, fe.Param(), fe.Value())
	default:
		return fmt.Errorf("%s failed %q validation", key, fe.Tag())
	}
}
