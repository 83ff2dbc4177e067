// Package git runs the git binary for mutating branch operations and
// classifies its output.
//
// Commands go through a [Runner], which collects stdout and stderr line by
// line into a [Result]. A non-zero exit code is part of the result, not an
// error: git reports semantically different failures with the same exit
// code, so callers decide from the output lines using the detectors in this
// package:
//
//   - [LocalChanges], [UntrackedFiles]: the work tree blocks the operation
//   - [UnmergedFiles], [MergeConflict], [RebaseConflict]: conflict states
//   - [NotFullyMerged], [NotMergedToUpstream]: branch -d refusals
//   - [AlreadyUpToDate], [InvalidReference]
//
// [ExecRunner] sets LC_ALL=C so the detectors always see English messages.
// Reading branch state does not go through git at all; see package repo.
package git
