// Package repo reads the branch state of a git repository directly from its
// .git metadata, without running git.
//
// # Sources
//
// Refs are merged from packed-refs (lowest priority), loose files under
// refs/heads and loose files under refs/remotes. Only branch refs are kept,
// and the remote HEAD pointer refs/remotes/origin/HEAD is dropped. Symbolic
// refs are resolved by fixed point iteration; dangling and cyclic chains are
// dropped and reported as [Anomaly] values, never as errors.
//
// The repository [State] is derived from marker files each read:
//
//	MERGE_HEAD              MERGING (wins over everything)
//	rebase-apply/           REBASING
//	rebase-merge/           REBASING
//	HEAD holds a raw hash   DETACHED
//	otherwise               NORMAL
//
// # Snapshots
//
// [Reader.ReadState] returns a [BranchState], an immutable snapshot built
// from scratch on every call. [Aggregate] is the pure step that combines a
// parsed HEAD with the resolved branches. [Watcher] adds an explicit cache
// invalidated by filesystem events.
//
// # Branch Names
//
// [Branch] is a tagged value: local, standard remote (with remote name and
// name at remote) or git-svn style remote. Ref name comparisons follow the
// host filesystem, so they ignore case on macOS and Windows.
package repo
