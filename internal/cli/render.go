package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"simplegit.dev/simplegit/internal/engine"
	"simplegit.dev/simplegit/internal/git"
	"simplegit.dev/simplegit/internal/github"
	"simplegit.dev/simplegit/internal/output"
	"simplegit.dev/simplegit/internal/runtime"
)

// printResult writes res in the requested format. Failures come back as
// reported errors so main does not print them a second time.
func printResult(cmd *cobra.Command, rc *runtime.Context, req engine.Request, res engine.Result, format string) error {
	out := cmd.OutOrStdout()

	if format == "json" {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		if res.OK {
			renderPayload(out, res, currentBranchFor(cmd, rc, req, res))
			fmt.Fprintln(out, output.FormatStatus(true, res.Message, ""))
		} else {
			fmt.Fprintln(cmd.ErrOrStderr(), output.FormatStatus(false, res.Message, string(res.ErrorKind)))
		}
	}

	if !res.OK {
		if res.Err != nil {
			return reported(res.Err)
		}
		return reported(fmt.Errorf("%s", res.Message))
	}
	return nil
}

// currentBranchFor looks up HEAD so branch listings can mark it
func currentBranchFor(cmd *cobra.Command, rc *runtime.Context, req engine.Request, res engine.Result) string {
	local, ok := req.(engine.LocalOperation)
	if !ok || res.Operation != engine.OpListBranches {
		return ""
	}
	head := rc.Engine.Execute(cmd.Context(), engine.LocalOperation{Kind: engine.OpCurrentBranch, Path: local.Path})
	if p, ok := head.Payload.(engine.CurrentBranchPayload); ok && head.OK && !p.Detached {
		return p.Branch
	}
	return ""
}

func renderPayload(w io.Writer, res engine.Result, current string) {
	switch p := res.Payload.(type) {
	case nil, engine.CommitPayload, engine.CurrentBranchPayload, engine.TokenPayload,
		engine.OpenPayload, engine.Stats, git.MergeResult, git.TransferResult:
		// The message says it all
	case []string:
		fmt.Fprint(w, output.FormatList(p, current))
	case []git.DiffEntry:
		renderDiff(w, p)
	case []git.CommitInfo:
		renderLog(w, p)
	case []github.Repository:
		renderRepositories(w, p)
	case git.Settings:
		renderSettings(w, p)
	default:
		data, err := json.MarshalIndent(p, "", "  ")
		if err == nil {
			fmt.Fprintln(w, string(data))
		}
	}
}

func renderDiff(w io.Writer, entries []git.DiffEntry) {
	for _, entry := range entries {
		title := entry.Path()
		if entry.Status == git.StatusRenamed {
			title = entry.OldPath + " → " + entry.NewPath
		}
		fmt.Fprintln(w, output.FormatHeader(fmt.Sprintf("%s %s", strings.ToLower(string(entry.Status)), title)))
		if entry.Binary {
			fmt.Fprintln(w, "  binary file")
			continue
		}
		for _, hunk := range entry.Hunks {
			fmt.Fprintln(w, output.FormatDiffLine(hunk.Header))
			for _, line := range hunk.Lines() {
				fmt.Fprintln(w, output.FormatDiffLine(line))
			}
		}
	}
}

func renderLog(w io.Writer, commits []git.CommitInfo) {
	for i, c := range commits {
		hash := c.Hash
		if len(hash) > 7 {
			hash = hash[:7]
		}
		fmt.Fprintf(w, "%s %s %s\n",
			output.PaletteColor(hash, i),
			c.Subject(),
			output.FormatHeader(fmt.Sprintf("(%s, %s)", c.Author, c.Date.Format("2006-01-02"))))
	}
}

func renderRepositories(w io.Writer, repos []github.Repository) {
	for i, r := range repos {
		line := output.PaletteColor(r.FullName, i)
		if r.Private {
			line += " (private)"
		}
		fmt.Fprintln(w, line)
	}
}

func renderSettings(w io.Writer, s git.Settings) {
	fmt.Fprintf(w, "path:        %s\n", s.Path)
	fmt.Fprintf(w, "branch:      %s\n", s.CurrentBranch)
	if s.Description != "" {
		fmt.Fprintf(w, "description: %s\n", s.Description)
	}
	if s.UserName != "" || s.UserEmail != "" {
		fmt.Fprintf(w, "user:        %s <%s>\n", s.UserName, s.UserEmail)
	}
	for _, r := range s.Remotes {
		fmt.Fprintf(w, "remote:      %s %s\n", r.Name, strings.Join(r.URLs, ", "))
	}
}
