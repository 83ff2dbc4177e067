// Package prompt asks the user questions on stderr with bubbletea, keeping
// stdout usable in pipes.
//
// [Terminal] implements branch.Prompter on top of [Confirm] and [Select].
// Commands fall back to configured policies when [Interactive] is false.
package prompt
