// Package cmd runs external processes, git in particular.
//
// [RunContext] and [OutputContext] answer pass/fail and fold stderr into
// the error. [StreamContext] returns every output line together with the
// exit code, because git reports unrelated failures with the same status
// and the branch engine tells them apart from the text.
//
// Every invocation is echoed through [log.Logger.Command] in verbose mode.
package cmd
