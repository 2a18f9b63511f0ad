package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	booleanFlagTypeName         = "bool"
	booleanFlagTrueLiteral      = "true"
	booleanFlagAcceptedLiterals = "true, false, yes, no, on, off, 1, 0"
	errorBooleanFlagValueFormat = "invalid boolean value %q for --%s; accepted values: %s"
	choiceFlagTypeName          = "string"
	errorChoiceFlagValueFormat  = "invalid value %q for --%s; accepted values: %s"
	choiceFlagAcceptedSeparator = ", "
	flagAssignmentFormat        = "--%s=%s"
	flagLongPrefix              = "--"
	flagShortPrefix             = "-"
	flagTerminator              = "--"
	flagAssignmentOperator      = "="
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

// booleanFlagValue accepts the usual spellings of yes and no, so that
// "--root-copy no" reads naturally.
type booleanFlagValue struct {
	target  *bool
	flagKey string
}

func (value *booleanFlagValue) Set(input string) error {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		normalized = booleanFlagTrueLiteral
	}
	parsed, ok := booleanFlagLiterals[normalized]
	if !ok {
		return fmt.Errorf(errorBooleanFlagValueFormat, input, value.flagKey, booleanFlagAcceptedLiterals)
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
	*target = defaultValue
	flagSet.Var(&booleanFlagValue{target: target, flagKey: name}, name, usage)
	if lookup := flagSet.Lookup(name); lookup != nil {
		lookup.DefValue = strconv.FormatBool(defaultValue)
		lookup.NoOptDefVal = booleanFlagTrueLiteral
	}
}

// choiceFlagValue restricts a string flag to a fixed set of values.
type choiceFlagValue struct {
	target  *string
	flagKey string
	allowed []string
}

func (value *choiceFlagValue) Set(input string) error {
	normalized := strings.ToLower(strings.TrimSpace(input))
	for _, allowedValue := range value.allowed {
		if normalized == allowedValue {
			*value.target = normalized
			return nil
		}
	}
	return fmt.Errorf(errorChoiceFlagValueFormat, input, value.flagKey, strings.Join(value.allowed, choiceFlagAcceptedSeparator))
}

func (value *choiceFlagValue) String() string {
	if value == nil || value.target == nil {
		return ""
	}
	return *value.target
}

func (value *choiceFlagValue) Type() string {
	return choiceFlagTypeName
}

func registerChoiceFlag(flagSet *pflag.FlagSet, target *string, name string, defaultValue string, usage string, allowed ...string) {
	*target = defaultValue
	flagSet.Var(&choiceFlagValue{target: target, flagKey: name, allowed: allowed}, name, usage)
	if lookup := flagSet.Lookup(name); lookup != nil {
		lookup.DefValue = defaultValue
	}
}

// normalizeBooleanFlagArguments rewrites "--flag value" into "--flag=value" for
// boolean flags when value is a boolean literal, because pflag only binds optional
// values written with "=".
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
	for argumentIndex := 0; argumentIndex < len(arguments); argumentIndex++ {
		currentArgument := arguments[argumentIndex]
		if currentArgument == flagTerminator {
			normalized = append(normalized, arguments[argumentIndex:]...)
			break
		}
		if strings.HasPrefix(currentArgument, flagLongPrefix) && !strings.Contains(currentArgument, flagAssignmentOperator) && argumentIndex+1 < len(arguments) {
			flagName := strings.TrimPrefix(currentArgument, flagLongPrefix)
			nextArgument := arguments[argumentIndex+1]
			if _, isBoolean := booleanFlags[flagName]; isBoolean && !strings.HasPrefix(nextArgument, flagShortPrefix) {
				if _, isLiteral := booleanFlagLiterals[strings.ToLower(strings.TrimSpace(nextArgument))]; isLiteral {
					normalized = append(normalized, fmt.Sprintf(flagAssignmentFormat, flagName, nextArgument))
					argumentIndex++
					continue
				}
			}
		}
		normalized = append(normalized, currentArgument)
	}
	return normalized
}

func collectBooleanFlagNames(command *cobra.Command, target map[string]struct{}) {
	visit := func(flagSet *pflag.FlagSet) {
		flagSet.VisitAll(func(flag *pflag.Flag) {
			if flag.Value != nil && flag.Value.Type() == booleanFlagTypeName {
				target[flag.Name] = struct{}{}
			}
		})
	}
	visit(command.PersistentFlags())
	visit(command.Flags())
	for _, child := range command.Commands() {
		collectBooleanFlagNames(child, target)
	}
}
