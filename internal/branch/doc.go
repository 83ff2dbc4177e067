// Package branch runs branch operations across several repositories as one
// unit.
//
// An operation visits its repositories in a fixed order, one at a time. Each
// git invocation is classified from its output lines:
//
//   - success, already-up-to-date and merge/rebase conflicts mark the
//     repository successful (conflict markers are left for the user)
//   - local changes that would be overwritten are recoverable: the
//     [Prompter] picks a smart retry (stash, retry, unstash), a forced
//     checkout, or cancel
//   - anything else is fatal: iteration stops and every repository that
//     already succeeded is rolled back with the inverse command
//
// Rollback failures are collected and never retried. [Worker] is the entry
// point; it reads a fresh snapshot of every repository before it starts.
package branch
