package flags

import (
	"strings"

	"github.com/spf13/pflag"
)

const (
	argumentTerminatorConstant  = "--"
	longFlagPrefixConstant      = "--"
	shortFlagPrefixConstant     = "-"
	flagValueSeparatorConstant  = "="
	standardInputMarkerConstant = "-"
)

// PartitionedArguments holds the result of PartitionArguments.
type PartitionedArguments struct {
	// Recognized holds the tokens belonging to flags defined in the flag set, ready for FlagSet.Parse.
	Recognized []string
	// Forwarded holds every other token in original order, plus everything after the first "--".
	Forwarded []string
}

// PartitionArguments splits arguments into tokens belonging to flags of flagSet and tokens to forward.
// Long flags are recognized with or without "=value", short flags singly, grouped or with an attached value.
// A flag that takes a value consumes the following token when the value is not attached.
func PartitionArguments(flagSet *pflag.FlagSet, arguments []string) PartitionedArguments {
	partitioned := PartitionedArguments{Recognized: []string{}, Forwarded: []string{}}
	if flagSet == nil {
		partitioned.Forwarded = append(partitioned.Forwarded, arguments...)
		return partitioned
	}

	index := 0
	for index < len(arguments) {
		current := arguments[index]
		if current == argumentTerminatorConstant {
			partitioned.Forwarded = append(partitioned.Forwarded, arguments[index+1:]...)
			break
		}

		consumed := recognizeLongFlag(flagSet, arguments, index)
		if consumed == 0 {
			consumed = recognizeShortFlags(flagSet, arguments, index)
		}
		if consumed == 0 {
			partitioned.Forwarded = append(partitioned.Forwarded, current)
			index++
			continue
		}

		partitioned.Recognized = append(partitioned.Recognized, arguments[index:index+consumed]...)
		index += consumed
	}

	return partitioned
}

func recognizeLongFlag(flagSet *pflag.FlagSet, arguments []string, index int) int {
	current := arguments[index]
	if !strings.HasPrefix(current, longFlagPrefixConstant) {
		return 0
	}

	name, _, hasValue := strings.Cut(strings.TrimPrefix(current, longFlagPrefixConstant), flagValueSeparatorConstant)
	flag := flagSet.Lookup(name)
	if len(name) == 0 || flag == nil {
		return 0
	}
	if hasValue || !requiresValue(flag) {
		return 1
	}
	return consumeValue(arguments, index)
}

func recognizeShortFlags(flagSet *pflag.FlagSet, arguments []string, index int) int {
	current := arguments[index]
	if !strings.HasPrefix(current, shortFlagPrefixConstant) || strings.HasPrefix(current, longFlagPrefixConstant) || current == standardInputMarkerConstant {
		return 0
	}

	shorthands := strings.TrimPrefix(current, shortFlagPrefixConstant)
	for position := 0; position < len(shorthands); position++ {
		flag := flagSet.ShorthandLookup(shorthands[position : position+1])
		if flag == nil {
			return 0
		}
		if !requiresValue(flag) {
			continue
		}
		if position+1 < len(shorthands) {
			return 1
		}
		return consumeValue(arguments, index)
	}
	return 1
}

func requiresValue(flag *pflag.Flag) bool {
	return len(flag.NoOptDefVal) == 0
}

func consumeValue(arguments []string, index int) int {
	if index+1 < len(arguments) {
		return 2
	}
	return 1
}
