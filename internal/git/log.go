package git

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	sgerrors "simplegit.dev/simplegit/internal/errors"
)

// CommitInfo is one entry of the commit log
type CommitInfo struct {
	Hash    string    `json:"hash"`
	Author  string    `json:"author"`
	Email   string    `json:"email"`
	Date    time.Time `json:"date"`
	Message string    `json:"message"`
}

// Subject returns the first line of the message
func (c CommitInfo) Subject() string {
	subject, _, _ := strings.Cut(c.Message, "\n")
	return subject
}

// Log returns commits reachable from HEAD, newest first.
// A limit of zero or less returns the whole history. An empty repository has an empty log.
func (r *Repository) Log(limit int) ([]CommitInfo, error) {
	head, err := r.headCommit()
	if err != nil {
		if sgerrors.KindOf(err) == sgerrors.KindState {
			return []CommitInfo{}, nil
		}
		return nil, err
	}

	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash, Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to read log")
	}
	defer iter.Close()

	commits := []CommitInfo{}
	for limit <= 0 || len(commits) < limit {
		c, err := iter.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, sgerrors.Wrap(sgerrors.KindInternal, err, "failed to walk log")
		}
		commits = append(commits, newCommitInfo(c))
	}
	return commits, nil
}

func newCommitInfo(c *object.Commit) CommitInfo {
	return CommitInfo{
		Hash:    c.Hash.String(),
		Author:  c.Author.Name,
		Email:   c.Author.Email,
		Date:    c.Author.When,
		Message: strings.TrimRight(c.Message, "\n"),
	}
}
