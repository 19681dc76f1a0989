// Package classify selects cleanup candidates from a scanned file list.
//
// Each Rule is an independent predicate over the regular files of one scan:
// age, absolute size, duplicate content, temporary or non-essential extension,
// and anomalous size band. Consolidate merges the rule results into one
// candidate set with every reason a file was selected for.
package classify
