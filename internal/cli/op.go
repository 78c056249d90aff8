package cli

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"simplegit.dev/simplegit/internal/cli/helpers"
	"simplegit.dev/simplegit/internal/engine"
	sgerrors "simplegit.dev/simplegit/internal/errors"
	"simplegit.dev/simplegit/internal/runtime"
	"simplegit.dev/simplegit/internal/utils"
)

type opOptions struct {
	path       string
	identifier string
	params     map[string]string
	branch     string
	message    string
	call       string
	format     string
	yes        bool
}

// newOpCmd creates the op command
func newOpCmd() *cobra.Command {
	opts := &opOptions{}

	cmd := &cobra.Command{
		Use:   "op <operation>",
		Short: "Run one repository operation",
		Long: `Run one repository operation and print its result.

Local operations act on the repository given by --path (default: the working
directory). Naming a repository with --path opens it for this invocation.
Remote operations take a GitHub repository with --repo, as owner/name or a
clone URL, and act on its clone under the clone root.

A whole call can also be given as JSON with --json, or read from standard
input with --json -:

  {"operation": "commit", "path": "/src/app", "params": {"message": "Fix"}}`,
		Example: `  simplegit op stage_all
  simplegit op commit -m "Add README"
  simplegit op checkout_branch --branch feature-x
  simplegit op clone --repo octocat/hello-world
  simplegit op view_log --param limit=10 --format json`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: helpers.CompleteOperations,
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(rc *runtime.Context) error {
				req, err := opts.request(args)
				if err != nil {
					return err
				}
				return runOperation(cmd, rc, req, opts)
			})
		},
	}

	cmd.Flags().StringVar(&opts.path, "path", "", "Local repository path (default: working directory)")
	cmd.Flags().StringVar(&opts.identifier, "repo", "", "GitHub repository for remote operations (owner/name or URL)")
	cmd.Flags().StringToStringVar(&opts.params, "param", nil, "Operation parameter as key=value (repeatable)")
	cmd.Flags().StringVar(&opts.branch, "branch", "", "Shorthand for --param branch=<name>")
	cmd.Flags().StringVarP(&opts.message, "message", "m", "", "Shorthand for --param message=<text>")
	cmd.Flags().StringVar(&opts.call, "json", "", "Operation call as JSON, or - to read it from standard input")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text or json")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Skip confirmation prompts")

	_ = cmd.RegisterFlagCompletionFunc("branch", helpers.CompleteBranches)
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// request builds the engine request from the JSON call or the flags
func (o *opOptions) request(args []string) (engine.Request, error) {
	if o.format != "text" && o.format != "json" {
		return nil, sgerrors.NewValidationError("unknown output format %q", o.format)
	}

	if o.call != "" {
		if len(args) > 0 {
			return nil, sgerrors.NewValidationError("give the operation either as an argument or with --json, not both")
		}
		data := o.call
		if data == "-" {
			input, err := utils.ReadFromStdin()
			if err != nil {
				return nil, fmt.Errorf("failed to read call from stdin: %w", err)
			}
			data = input
		}
		return engine.ParseCall([]byte(data))
	}

	if len(args) == 0 {
		return nil, sgerrors.NewValidationError("no operation given")
	}

	params := maps.Clone(o.params)
	if params == nil {
		params = map[string]string{}
	}
	if o.branch != "" {
		params[engine.ParamBranch] = o.branch
	}
	if o.message != "" {
		params[engine.ParamMessage] = o.message
	}

	call := engine.Call{
		Operation:  engine.OperationKind(args[0]),
		Path:       o.path,
		Identifier: o.identifier,
		Params:     params,
	}
	req, err := call.Request()
	if err != nil {
		return nil, err
	}
	if local, ok := req.(engine.LocalOperation); ok && local.Path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		local.Path = wd
		req = local
	}
	return req, nil
}

// runOperation executes req and prints the result. A failed result is
// printed and returned as an already reported error.
func runOperation(cmd *cobra.Command, rc *runtime.Context, req engine.Request, opts *opOptions) error {
	if local, ok := req.(engine.LocalOperation); ok {
		if local.Kind == engine.OpRemoveRepository {
			proceed, err := confirmRemoval(local.Path, opts.yes)
			if err != nil {
				return err
			}
			if !proceed {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
		} else if res, opened := openForCall(cmd, rc, local); !opened {
			return printResult(cmd, rc, req, res, opts.format)
		}
	}

	res := rc.Engine.Execute(cmd.Context(), req)
	return printResult(cmd, rc, req, res, opts.format)
}

// openForCall opens a repository outside the clone root so the operation
// is in scope. Paths already in scope are left alone.
func openForCall(cmd *cobra.Command, rc *runtime.Context, local engine.LocalOperation) (engine.Result, bool) {
	if local.Kind == engine.OpOpen {
		return engine.Result{}, true
	}
	if _, err := rc.Engine.Scope().Check(local.Path); err == nil {
		return engine.Result{}, true
	}
	res := rc.Engine.Execute(cmd.Context(), engine.LocalOperation{Kind: engine.OpOpen, Path: local.Path})
	if !res.OK {
		res.Operation = local.Kind
		return res, false
	}
	return res, true
}

func confirmRemoval(path string, yes bool) (bool, error) {
	if yes {
		return true, nil
	}
	if !utils.IsInteractive() {
		return false, sgerrors.NewValidationError("refusing to remove %s without --yes in a non-interactive session", path)
	}
	var proceed bool
	prompt := &survey.Confirm{
		Message: fmt.Sprintf("Remove %s and all of its files?", filepath.Clean(path)),
		Default: false,
	}
	if err := survey.AskOne(prompt, &proceed); err != nil {
		return false, fmt.Errorf("canceled")
	}
	return proceed, nil
}
