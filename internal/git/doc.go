// Package git implements repository operations on a working tree.
//
// Reads, ref updates, commits and network transfers go through go-git.
// Operations whose semantics go-git does not cover (stash, revert, three-way
// merge, checkout and hard reset with git's dirty-tree rules) run the git
// executable through CommandRunner.
package git
