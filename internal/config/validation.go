package config

import (
	"fmt"
	"strings"

	"github.com/keuin/daigunyun/internal/sqlutil"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
// Any error returned here is fatal: the process must not start serving.
func (c *Config) Validate() error {
	var errors ValidationErrors

	if c.Listen == "" {
		errors = append(errors, ValidationError{
			Field:   "listen",
			Message: "listen address is required",
		})
	}

	errors = append(errors, c.validateResolver()...)
	errors = append(errors, c.validateLogging()...)

	declared := map[string]bool{}
	errors = append(errors, c.validateFields(declared)...)
	errors = append(errors, c.validateRelations(declared)...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateFields(declared map[string]bool) ValidationErrors {
	var errors ValidationErrors

	if len(c.Fields) == 0 {
		errors = append(errors, ValidationError{
			Field:   "fields",
			Message: "at least one field must be declared",
		})
	}

	for i, f := range c.Fields {
		prefix := fmt.Sprintf("fields[%d]", i)
		if f.ID == "" {
			errors = append(errors, ValidationError{
				Field:   prefix + ".id",
				Message: "field id is required",
			})
			continue
		}
		if !sqlutil.IsValidIdentifier(f.ID) {
			errors = append(errors, ValidationError{
				Field:   prefix + ".id",
				Message: fmt.Sprintf("field id %q must contain only alphanumeric characters and underscores", f.ID),
			})
		}
		if declared[f.ID] {
			errors = append(errors, ValidationError{
				Field:   prefix + ".id",
				Message: fmt.Sprintf("duplicate field %q", f.ID),
			})
		}
		declared[f.ID] = true
	}

	return errors
}

func (c *Config) validateRelations(declared map[string]bool) ValidationErrors {
	var errors ValidationErrors

	if len(c.Relations) == 0 {
		errors = append(errors, ValidationError{
			Field:   "relations",
			Message: "at least one relation must be defined",
		})
	}

	names := map[string]bool{}
	for i, r := range c.Relations {
		prefix := fmt.Sprintf("relations[%d]", i)

		if r.Name == "" {
			errors = append(errors, ValidationError{
				Field:   prefix + ".name",
				Message: "relation name is required",
			})
		} else {
			if names[r.Name] {
				errors = append(errors, ValidationError{
					Field:   prefix + ".name",
					Message: fmt.Sprintf("duplicate relation name %q", r.Name),
				})
			}
			names[r.Name] = true
			prefix = fmt.Sprintf("relations.%s", r.Name)
		}

		if r.Connect == "" {
			errors = append(errors, ValidationError{
				Field:   prefix + ".connect",
				Message: "connection descriptor is required",
			})
		}

		if r.TableName == "" {
			errors = append(errors, ValidationError{
				Field:   prefix + ".table_name",
				Message: "table_name is required",
			})
		} else if !sqlutil.IsValidIdentifier(r.TableName) {
			errors = append(errors, ValidationError{
				Field:   prefix + ".table_name",
				Message: fmt.Sprintf("table name %q must contain only alphanumeric characters and underscores", r.TableName),
			})
		}

		if len(r.Fields) == 0 {
			errors = append(errors, ValidationError{
				Field:   prefix + ".fields",
				Message: "relation must declare at least one field",
			})
		}

		for j, rf := range r.Fields {
			fieldPrefix := fmt.Sprintf("%s.fields[%d]", prefix, j)
			if rf.ID == "" {
				errors = append(errors, ValidationError{
					Field:   fieldPrefix + ".id",
					Message: "field id is required",
				})
				continue
			}
			if !declared[rf.ID] {
				errors = append(errors, ValidationError{
					Field:   fieldPrefix + ".id",
					Message: fmt.Sprintf("undeclared field %q, declare it in `fields` first", rf.ID),
				})
			}
			if rf.Query == "" {
				errors = append(errors, ValidationError{
					Field:   fieldPrefix + ".query",
					Message: "extraction expression is required",
				})
			}
		}
	}

	return errors
}

func (c *Config) validateResolver() ValidationErrors {
	var errors ValidationErrors

	if c.Resolver.MaxDepth <= 0 {
		errors = append(errors, ValidationError{
			Field:   "resolver.max_depth",
			Message: "max_depth must be positive",
		})
	}

	if c.Resolver.MaxConcurrentLookups <= 0 {
		errors = append(errors, ValidationError{
			Field:   "resolver.max_concurrent_lookups",
			Message: "max_concurrent_lookups must be positive",
		})
	}

	if c.Resolver.QueryTimeoutSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "resolver.query_timeout_seconds",
			Message: "query_timeout_seconds cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
