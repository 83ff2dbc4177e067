package branch

import (
	"fmt"
	"slices"
)

// Kind identifies an operation.
type Kind int

const (
	KindCheckout Kind = iota
	KindNewBranch
	KindMerge
	KindDelete
	KindRename
	KindRebase
	KindRestore
)

var kindNames = [...]string{
	KindCheckout:  "checkout",
	KindNewBranch: "new",
	KindMerge:     "merge",
	KindDelete:    "delete",
	KindRename:    "rename",
	KindRebase:    "rebase",
	KindRestore:   "restore",
}

// String returns the command name of the operation, as used for hooks.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Kinds returns the command names of all operations.
func Kinds() []string {
	return slices.Clone(kindNames[:])
}

// DeleteOnMerge says what happens to the merged branch after a clean merge.
type DeleteOnMerge int

const (
	// KeepMerged leaves the branch alone.
	KeepMerged DeleteOnMerge = iota
	// ProposeDelete asks the Prompter whether to delete it.
	ProposeDelete
	// DeleteMerged deletes it in every repository.
	DeleteMerged
)

// ParseDeleteOnMerge parses the config values "nothing", "propose" and "delete".
func ParseDeleteOnMerge(s string) (DeleteOnMerge, error) {
	switch s {
	case "", "nothing":
		return KeepMerged, nil
	case "propose":
		return ProposeDelete, nil
	case "delete":
		return DeleteMerged, nil
	}
	return KeepMerged, fmt.Errorf("invalid delete_on_merge %q (valid: nothing, propose, delete)", s)
}

func (d DeleteOnMerge) String() string {
	switch d {
	case ProposeDelete:
		return "propose"
	case DeleteMerged:
		return "delete"
	default:
		return "nothing"
	}
}
