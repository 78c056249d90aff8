package git

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pmezard/go-difflib/difflib"

	sgerrors "simplegit.dev/simplegit/internal/errors"
)

// DiffContextLines is the number of unchanged lines around each hunk
const DiffContextLines = 3

// FileStatus classifies a changed path
type FileStatus string

const (
	StatusNew      FileStatus = "NEW"
	StatusModified FileStatus = "MODIFIED"
	StatusDeleted  FileStatus = "DELETED"
	StatusRenamed  FileStatus = "RENAMED"
)

// DiffEntry is one changed path with its hunks in file order.
// OldPath is empty for new files and NewPath is empty for deleted ones.
type DiffEntry struct {
	OldPath string     `json:"oldPath,omitempty"`
	NewPath string     `json:"newPath,omitempty"`
	Status  FileStatus `json:"status"`
	Binary  bool       `json:"binary,omitempty"`
	Hunks   []DiffHunk `json:"hunks"`
}

// Path returns the path the entry is known by now
func (e DiffEntry) Path() string {
	if e.NewPath != "" {
		return e.NewPath
	}
	return e.OldPath
}

type localChange struct {
	path string
	from *object.File
	to   *object.File
}

// Diff compares the working tree, including staged and untracked files,
// against HEAD. Paths whose content matches HEAD produce no entry.
func (r *Repository) Diff() ([]DiffEntry, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to open worktree")
	}
	status, err := wt.Status()
	if err != nil {
		return nil, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to read status")
	}
	headTree, err := r.headTree()
	if err != nil {
		return nil, err
	}

	var paths []string
	for path, st := range status {
		if st.Staging != git.Unmodified || st.Worktree != git.Unmodified {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)

	var changes []localChange
	for _, path := range paths {
		fromFile, err := fileFromTree(headTree, path)
		if err != nil {
			return nil, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to read %s from HEAD", path)
		}
		toFile, err := fileFromDisk(r.path, path)
		if err != nil {
			return nil, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to read %s", path)
		}
		if fromFile == nil && toFile == nil {
			continue
		}
		if fromFile != nil && toFile != nil && fromFile.Hash == toFile.Hash {
			continue
		}
		changes = append(changes, localChange{path: path, from: fromFile, to: toFile})
	}

	entries, err := buildEntries(changes)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Path() < entries[j].Path() })
	return entries, nil
}

func (r *Repository) headTree() (*object.Tree, error) {
	head, err := r.headCommit()
	if err != nil {
		if sgerrors.KindOf(err) == sgerrors.KindState {
			return nil, nil
		}
		return nil, err
	}
	tree, err := head.Tree()
	if err != nil {
		return nil, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to read HEAD tree")
	}
	return tree, nil
}

// buildEntries pairs deletions and additions with identical content as
// renames and computes hunks for everything else.
func buildEntries(changes []localChange) ([]DiffEntry, error) {
	addedByHash := map[plumbing.Hash][]int{}
	for i, ch := range changes {
		if ch.from == nil {
			addedByHash[ch.to.Hash] = append(addedByHash[ch.to.Hash], i)
		}
	}

	renamedTo := map[int]bool{}
	var entries []DiffEntry
	for _, ch := range changes {
		if ch.to != nil || ch.from == nil {
			continue
		}
		candidates := addedByHash[ch.from.Hash]
		if len(candidates) == 0 {
			continue
		}
		target := candidates[0]
		addedByHash[ch.from.Hash] = candidates[1:]
		renamedTo[target] = true
		entries = append(entries, DiffEntry{
			OldPath: ch.path,
			NewPath: changes[target].path,
			Status:  StatusRenamed,
			Hunks:   []DiffHunk{},
		})
	}
	renamedFrom := map[string]bool{}
	for _, e := range entries {
		renamedFrom[e.OldPath] = true
	}

	for i, ch := range changes {
		if renamedTo[i] || renamedFrom[ch.path] {
			continue
		}
		entry := DiffEntry{Hunks: []DiffHunk{}}
		switch {
		case ch.from == nil:
			entry.Status = StatusNew
			entry.NewPath = ch.path
		case ch.to == nil:
			entry.Status = StatusDeleted
			entry.OldPath = ch.path
		default:
			entry.Status = StatusModified
			entry.OldPath = ch.path
			entry.NewPath = ch.path
		}

		binary, err := binaryChange(ch)
		if err != nil {
			return nil, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to inspect %s", ch.path)
		}
		if binary {
			entry.Binary = true
			entries = append(entries, entry)
			continue
		}

		hunks, err := changeHunks(ch)
		if err != nil {
			return nil, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to diff %s", ch.path)
		}
		entry.Hunks = hunks
		entries = append(entries, entry)
	}
	return entries, nil
}

func changeHunks(ch localChange) ([]DiffHunk, error) {
	fromLines, err := fileLines(ch.from)
	if err != nil {
		return nil, err
	}
	toLines, err := fileLines(ch.to)
	if err != nil {
		return nil, err
	}
	ud := difflib.UnifiedDiff{
		A:        fromLines,
		B:        toLines,
		FromFile: fmt.Sprintf("a/%s", ch.path),
		ToFile:   fmt.Sprintf("b/%s", ch.path),
		Context:  DiffContextLines,
	}
	diffText, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return nil, err
	}
	return ParseHunks(diffText), nil
}

func fileFromTree(tree *object.Tree, path string) (*object.File, error) {
	if tree == nil {
		return nil, nil
	}
	f, err := tree.File(path)
	if err == object.ErrFileNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func fileFromDisk(root, path string) (*object.File, error) {
	fullPath := filepath.Join(root, path)
	info, err := os.Lstat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, nil
	}

	var data []byte
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(fullPath)
		if err != nil {
			return nil, err
		}
		data = []byte(target)
	} else {
		file, err := os.Open(fullPath)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		if data, err = io.ReadAll(file); err != nil {
			return nil, err
		}
	}

	mem := &plumbing.MemoryObject{}
	mem.SetType(plumbing.BlobObject)
	if _, err := mem.Write(data); err != nil {
		return nil, err
	}
	blob, err := object.DecodeBlob(mem)
	if err != nil {
		return nil, err
	}
	mode := filemode.Regular
	if m, err := filemode.NewFromOSFileMode(info.Mode()); err == nil {
		mode = m
	}
	return object.NewFile(path, mode, blob), nil
}

func binaryChange(ch localChange) (bool, error) {
	for _, f := range []*object.File{ch.from, ch.to} {
		if f == nil {
			continue
		}
		bin, err := f.IsBinary()
		if err != nil {
			return false, err
		}
		if bin {
			return true, nil
		}
	}
	return false, nil
}

// noNewlineMarker follows a final line that has no newline, as in git's output
const noNewlineMarker = "\\ No newline at end of file\n"

// fileLines splits content into lines that each end in a newline, which is
// the shape difflib expects. An unterminated final line carries the
// no-newline marker, so adding or dropping that newline is a change.
func fileLines(f *object.File) ([]string, error) {
	if f == nil {
		return []string{}, nil
	}
	content, err := f.Contents()
	if err != nil {
		return nil, err
	}
	if content == "" {
		return []string{}, nil
	}
	lines := strings.SplitAfter(content, "\n")
	if last := lines[len(lines)-1]; last == "" {
		lines = lines[:len(lines)-1]
	} else if !strings.HasSuffix(last, "\n") {
		lines[len(lines)-1] = last + "\n" + noNewlineMarker
	}
	return lines, nil
}
