package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/raphi011/brancher/internal/branch"
)

// Accepted values come from the engine that consumes them.
var (
	policyNames        = []string{string(branch.PolicyAsk), string(branch.PolicyAlways), string(branch.PolicyNever)}
	deleteOnMergeNames = []string{branch.KeepMerged.String(), branch.ProposeDelete.String(), branch.DeleteMerged.String()}
	hookTriggers       = append(branch.Kinds(), "all")
)

// validatePolicy checks a smart or rollback policy. Empty means ask.
func validatePolicy(value, field string) error {
	if _, err := branch.ParsePolicy(value); err != nil {
		return invalidValue(field, value, policyNames)
	}
	return nil
}

func validateDeleteOnMerge(value string) error {
	if _, err := branch.ParseDeleteOnMerge(value); err != nil {
		return invalidValue("delete_on_merge", value, deleteOnMergeNames)
	}
	return nil
}

func validateTrigger(hookName, on string) error {
	if !slices.Contains(hookTriggers, on) {
		return invalidValue("hooks."+hookName+".on", on, hookTriggers)
	}
	return nil
}

func invalidValue(field, value string, allowed []string) error {
	return fmt.Errorf("invalid %s %q: must be %s", field, value, formatOptions(allowed))
}

// formatOptions joins allowed values for error messages:
// ["a", "b", "c"] -> `"a", "b", or "c"`.
func formatOptions(opts []string) string {
	var b strings.Builder
	for i, o := range opts {
		switch {
		case i == 0:
		case len(opts) == 2:
			b.WriteString(" or ")
		case i == len(opts)-1:
			b.WriteString(", or ")
		default:
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q", o)
	}
	return b.String()
}
