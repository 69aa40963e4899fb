package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	booleanFlagTypeName               = "bool"
	booleanFlagTrueLiteral            = "true"
	booleanFlagAcceptedValuesListing  = "true, false, yes, no, on, off, 1, 0"
	booleanFlagInvalidValueErrorLabel = "invalid boolean value"
)

var booleanFlagLiterals = map[string]bool{
	"true":  true,
	"t":     true,
	"1":     true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"false": false,
	"f":     false,
	"0":     false,
	"no":    false,
	"n":     false,
	"off":   false,
}

// parseBooleanLiteral interprets input using the accepted literal set.
func parseBooleanLiteral(input string) (bool, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return true, true
	}
	parsed, ok := booleanFlagLiterals[normalized]
	return parsed, ok
}

type booleanFlagValue struct {
	target  *bool
	flagKey string
}

func (value *booleanFlagValue) Set(input string) error {
	if value == nil || value.target == nil {
		return fmt.Errorf("%s %q", booleanFlagInvalidValueErrorLabel, input)
	}
	parsed, ok := parseBooleanLiteral(input)
	if !ok {
		return fmt.Errorf("%s %q for --%s; accepted values: %s", booleanFlagInvalidValueErrorLabel, input, value.flagKey, booleanFlagAcceptedValuesListing)
	}
	*value.target = parsed
	return nil
}

func (value *booleanFlagValue) String() string {
	if value == nil || value.target == nil {
		return booleanFlagTrueLiteral
	}
	return strconv.FormatBool(*value.target)
}

func (value *booleanFlagValue) Type() string {
	return booleanFlagTypeName
}

func registerBooleanFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	registerBooleanFlagP(flagSet, target, name, "", defaultValue, usage)
}

func registerBooleanFlagP(flagSet *pflag.FlagSet, target *bool, name string, shorthand string, defaultValue bool, usage string) {
	if flagSet == nil || target == nil {
		return
	}
	*target = defaultValue
	flagValue := &booleanFlagValue{
		target:  target,
		flagKey: name,
	}
	flagSet.VarP(flagValue, name, shorthand, usage)
	if lookup := flagSet.Lookup(name); lookup != nil {
		lookup.DefValue = strconv.FormatBool(defaultValue)
		lookup.NoOptDefVal = booleanFlagTrueLiteral
	}
}

// resolveBooleanFlag returns the flag value when it was set on the command line,
// otherwise the configured value, otherwise the flag's current value.
func resolveBooleanFlag(flagSet *pflag.FlagSet, name string, flagValue bool, configured *bool) bool {
	if flagSet != nil && flagSet.Changed(name) {
		return flagValue
	}
	if configured != nil {
		return *configured
	}
	return flagValue
}

// resolveStringFlag mirrors resolveBooleanFlag for string flags; empty configured values are ignored.
func resolveStringFlag(flagSet *pflag.FlagSet, name string, flagValue string, configured string) string {
	if flagSet != nil && flagSet.Changed(name) {
		return flagValue
	}
	if strings.TrimSpace(configured) != "" {
		return configured
	}
	return flagValue
}

// normalizeBooleanFlagArguments joins "--flag value" pairs into "--flag=value"
// when value is a boolean literal, so optional-value flags accept a separate argument.
func normalizeBooleanFlagArguments(command *cobra.Command, arguments []string) []string {
	if command == nil || len(arguments) == 0 {
		return arguments
	}
	booleanFlags := map[string]struct{}{}
	collectBooleanFlagNames(command, booleanFlags)
	if len(booleanFlags) == 0 {
		return arguments
	}
	normalized := make([]string, 0, len(arguments))
	index := 0
	for index < len(arguments) {
		currentArgument := arguments[index]
		if currentArgument == "--" {
			normalized = append(normalized, arguments[index:]...)
			break
		}
		if flagName, isFlag := booleanFlagNameOf(currentArgument); isFlag {
			if _, exists := booleanFlags[flagName]; exists && index+1 < len(arguments) {
				nextArgument := arguments[index+1]
				if !strings.HasPrefix(nextArgument, "-") {
					if _, valid := booleanFlagLiterals[strings.ToLower(strings.TrimSpace(nextArgument))]; valid {
						normalized = append(normalized, fmt.Sprintf("%s=%s", currentArgument, nextArgument))
						index += 2
						continue
					}
				}
			}
		}
		normalized = append(normalized, currentArgument)
		index++
	}
	return normalized
}

// booleanFlagNameOf extracts the key used in the boolean flag index: the long
// name for "--name" and the single letter prefixed by "-" for "-n".
func booleanFlagNameOf(argument string) (string, bool) {
	if strings.Contains(argument, "=") {
		return "", false
	}
	if strings.HasPrefix(argument, "--") {
		return strings.TrimPrefix(argument, "--"), true
	}
	if len(argument) == 2 && argument[0] == '-' && argument[1] != '-' {
		return argument, true
	}
	return "", false
}

func collectBooleanFlagNames(command *cobra.Command, target map[string]struct{}) {
	if command == nil || target == nil {
		return
	}
	visit := func(flagSet *pflag.FlagSet) {
		if flagSet == nil {
			return
		}
		flagSet.VisitAll(func(flag *pflag.Flag) {
			if flag == nil || flag.Value == nil {
				return
			}
			if flag.Value.Type() == booleanFlagTypeName {
				target[flag.Name] = struct{}{}
				if flag.Shorthand != "" {
					target["-"+flag.Shorthand] = struct{}{}
				}
			}
		})
	}
	visit(command.PersistentFlags())
	visit(command.Flags())
	for _, child := range command.Commands() {
		collectBooleanFlagNames(child, target)
	}
}
