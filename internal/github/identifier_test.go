package github_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	sgerrors "simplegit.dev/simplegit/internal/errors"
	"simplegit.dev/simplegit/internal/github"
)

func TestParseIdentifier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want github.Identifier
	}{
		{"octo/hello", github.Identifier{Host: "github.com", Owner: "octo", Name: "hello"}},
		{"github.example.com/octo/hello", github.Identifier{Host: "github.example.com", Owner: "octo", Name: "hello"}},
		{"https://github.com/octo/hello.git", github.Identifier{Host: "github.com", Owner: "octo", Name: "hello"}},
		{"https://GitHub.com/octo/hello/", github.Identifier{Host: "github.com", Owner: "octo", Name: "hello"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := github.ParseIdentifier(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseIdentifierRejects(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "hello", "a/b/c/d", "https://github.com/octo", "octo/.."} {
		_, err := github.ParseIdentifier(in)
		require.ErrorIs(t, err, sgerrors.ErrValidation, in)
	}
}

func TestIdentifierURLs(t *testing.T) {
	t.Parallel()

	id := github.Identifier{Host: "github.com", Owner: "octo", Name: "hello"}
	require.Equal(t, "https://github.com/octo/hello.git", id.CloneURL())
	require.Equal(t, "octo/hello", id.FullName())
	require.Equal(t, "github.com/octo/hello", id.String())
}
