package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/conneroisu/riotts/internal/lint"
	"github.com/conneroisu/riotts/internal/logging"
)

// AddFlagValidation makes flagName reject values validator refuses at parse
// time, before the command runs.
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		flag = cmd.PersistentFlags().Lookup(flagName)
	}
	if flag == nil {
		return
	}
	flag.Value = &validatingValue{Value: flag.Value, validator: validator}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidateEngine accepts the lint engine names.
func ValidateEngine(engine string) error {
	switch engine {
	case "", lint.EngineBuiltin, lint.EngineESLint:
		return nil
	}
	return fmt.Errorf("unknown lint engine %q (supported: %s, %s)", engine, lint.EngineBuiltin, lint.EngineESLint)
}

// ValidateLogLevel accepts the levels logging.ParseLevel understands.
func ValidateLogLevel(level string) error {
	_, err := logging.ParseLevel(level)
	return err
}

// ValidateJobs accepts a non-negative job count; zero keeps the configured value.
func ValidateJobs(jobs string) error {
	n, err := strconv.Atoi(jobs)
	if err != nil {
		return fmt.Errorf("invalid job count: %s", jobs)
	}
	if n < 0 {
		return fmt.Errorf("job count must not be negative, got %d", n)
	}
	return nil
}
