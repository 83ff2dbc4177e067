package branch

import (
	"context"
	"fmt"

	"github.com/raphi011/brancher/internal/repo"
)

// Decision is the answer to a recoverable Situation.
type Decision int

const (
	// Cancel stops the operation; repositories already done are rolled back.
	Cancel Decision = iota
	// Smart stashes local changes, retries and unstashes.
	Smart
	// Force discards local changes. Only offered for checkout.
	Force
)

func (d Decision) String() string {
	switch d {
	case Smart:
		return "smart"
	case Force:
		return "force"
	default:
		return "cancel"
	}
}

// Situation describes local changes blocking an operation in one repository.
type Situation struct {
	Op     Kind
	Target string
	Repo   repo.Ref
	Files  []string
	// ForceAllowed is set when Force is a valid answer.
	ForceAllowed bool
}

// RollbackProposal describes a halted operation with repositories that
// already succeeded.
type RollbackProposal struct {
	Op        Kind
	Target    string
	Failed    repo.Ref
	Cause     error
	Succeeded []repo.Ref
}

// Prompter makes the decisions an operation cannot make alone.
// Implementations must not touch the repositories.
type Prompter interface {
	// Decide picks how to handle local changes.
	Decide(ctx context.Context, s Situation) (Decision, error)
	// ConfirmRollback reports whether succeeded repositories are rolled back.
	ConfirmRollback(ctx context.Context, p RollbackProposal) (bool, error)
	// ConfirmDelete reports whether a merged branch is deleted.
	ConfirmDelete(ctx context.Context, branch string, repos []repo.Ref) (bool, error)
}

// Policy is a configured answer to a prompt.
type Policy string

const (
	PolicyAsk    Policy = "ask"
	PolicyAlways Policy = "always"
	PolicyNever  Policy = "never"
)

// ParsePolicy validates a config value. Empty means ask.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case "":
		return PolicyAsk, nil
	case PolicyAsk, PolicyAlways, PolicyNever:
		return p, nil
	}
	return "", fmt.Errorf("invalid policy %q (valid: ask, always, never)", s)
}

// PolicyPrompter answers from configured policies and asks Ask only for
// policies set to PolicyAsk. Without Ask, "ask" means smart retry and
// rollback, and merged branches are kept.
type PolicyPrompter struct {
	Smart    Policy
	Rollback Policy
	Ask      Prompter
}

var _ Prompter = PolicyPrompter{}

func (p PolicyPrompter) Decide(ctx context.Context, s Situation) (Decision, error) {
	switch p.Smart {
	case PolicyNever:
		return Cancel, nil
	case PolicyAlways:
		return Smart, nil
	}
	if p.Ask != nil {
		return p.Ask.Decide(ctx, s)
	}
	return Smart, nil
}

func (p PolicyPrompter) ConfirmRollback(ctx context.Context, rp RollbackProposal) (bool, error) {
	switch p.Rollback {
	case PolicyNever:
		return false, nil
	case PolicyAlways:
		return true, nil
	}
	if p.Ask != nil {
		return p.Ask.ConfirmRollback(ctx, rp)
	}
	return true, nil
}

func (p PolicyPrompter) ConfirmDelete(ctx context.Context, branch string, repos []repo.Ref) (bool, error) {
	if p.Ask != nil {
		return p.Ask.ConfirmDelete(ctx, branch, repos)
	}
	return false, nil
}
