// Package dirstat walks directory trees and aggregates their disk usage.
//
// It walks with fastwalk for parallel traversal, records every entry it can
// read (and every one it cannot), and folds file sizes bottom-up into a tree
// of nodes ordered by size.
package dirstat
