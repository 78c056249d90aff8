package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	sgerrors "simplegit.dev/simplegit/internal/errors"
)

// OperationKind is the wire name of an operation
type OperationKind string

const (
	OpOpen             OperationKind = "open"
	OpClone            OperationKind = "clone"
	OpStageAll         OperationKind = "stage_all"
	OpCommit           OperationKind = "commit"
	OpAmend            OperationKind = "amend"
	OpRevert           OperationKind = "revert"
	OpCreateBranch     OperationKind = "create_branch"
	OpCheckoutBranch   OperationKind = "checkout_branch"
	OpMergeBranch      OperationKind = "merge_branch"
	OpDeleteBranch     OperationKind = "delete_branch"
	OpPush             OperationKind = "push"
	OpPull             OperationKind = "pull"
	OpStashPush        OperationKind = "stash_push"
	OpStashPop         OperationKind = "stash_pop"
	OpCreateTag        OperationKind = "create_tag"
	OpResetHard        OperationKind = "reset_hard"
	OpListRemotes      OperationKind = "list_remotes"
	OpViewDiff         OperationKind = "view_diff"
	OpViewLog          OperationKind = "view_log"
	OpRemoveRepository OperationKind = "remove_repository"

	OpListBranches       OperationKind = "list_branches"
	OpListTags           OperationKind = "list_tags"
	OpCurrentBranch      OperationKind = "current_branch"
	OpRepositorySettings OperationKind = "repository_settings"
	OpStats              OperationKind = "stats"

	OpListRemoteRepositories OperationKind = "list_remote_repositories"
	OpValidateToken          OperationKind = "validate_token"
)

// Parameter keys
const (
	ParamMessage     = "message"
	ParamBranch      = "branch"
	ParamCommit      = "commit"
	ParamTag         = "tag"
	ParamRemote      = "remote"
	ParamDestination = "destination"
	ParamLimit       = "limit"
)

type target int

const (
	targetLocal target = 1 << iota
	targetRemote
	// targetAccount operations act on the signed-in account and take no path or identifier
	targetAccount
)

type opSpec struct {
	targets  target
	required []string
}

var opSpecs = map[OperationKind]opSpec{
	OpOpen:             {targets: targetLocal},
	OpClone:            {targets: targetRemote},
	OpStageAll:         {targets: targetLocal},
	OpCommit:           {targets: targetLocal, required: []string{ParamMessage}},
	OpAmend:            {targets: targetLocal},
	OpRevert:           {targets: targetLocal | targetRemote, required: []string{ParamCommit}},
	OpCreateBranch:     {targets: targetLocal, required: []string{ParamBranch}},
	OpCheckoutBranch:   {targets: targetLocal, required: []string{ParamBranch}},
	OpMergeBranch:      {targets: targetLocal, required: []string{ParamBranch}},
	OpDeleteBranch:     {targets: targetLocal, required: []string{ParamBranch}},
	OpPush:             {targets: targetLocal | targetRemote},
	OpPull:             {targets: targetLocal},
	OpStashPush:        {targets: targetLocal},
	OpStashPop:         {targets: targetLocal},
	OpCreateTag:        {targets: targetLocal, required: []string{ParamTag}},
	OpResetHard:        {targets: targetLocal, required: []string{ParamCommit}},
	OpListRemotes:      {targets: targetLocal},
	OpViewDiff:         {targets: targetLocal},
	OpViewLog:          {targets: targetLocal},
	OpRemoveRepository: {targets: targetLocal},

	OpListBranches:       {targets: targetLocal},
	OpListTags:           {targets: targetLocal},
	OpCurrentBranch:      {targets: targetLocal},
	OpRepositorySettings: {targets: targetLocal},
	OpStats:              {targets: targetLocal | targetRemote},

	OpListRemoteRepositories: {targets: targetAccount},
	OpValidateToken:          {targets: targetAccount},
}

// Operations returns every known operation kind
func Operations() []OperationKind {
	ops := make([]OperationKind, 0, len(opSpecs))
	for k := range opSpecs {
		ops = append(ops, k)
	}
	return ops
}

// Request is either a LocalOperation or a RemoteOperation
type Request interface {
	Operation() OperationKind
	isRequest()
}

// LocalOperation targets a working tree on disk
type LocalOperation struct {
	Kind   OperationKind
	Path   string
	Params map[string]string
}

func (o LocalOperation) Operation() OperationKind { return o.Kind }
func (LocalOperation) isRequest()                 {}

// RemoteOperation targets a hosted repository by identifier
// (owner/name, host/owner/name or a clone URL). Account operations
// leave Identifier empty.
type RemoteOperation struct {
	Kind       OperationKind
	Identifier string
	Params     map[string]string
}

func (o RemoteOperation) Operation() OperationKind { return o.Kind }
func (RemoteOperation) isRequest()                 {}

// Call is the inbound JSON shape of an operation
type Call struct {
	Operation  OperationKind     `json:"operation"`
	Path       string            `json:"path,omitempty"`
	Identifier string            `json:"identifier,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
}

// ParseCall decodes a JSON call into a Request
func ParseCall(data []byte) (Request, error) {
	var c Call
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, sgerrors.NewValidationError("malformed operation call: %v", err)
	}
	return c.Request()
}

// Request resolves the call into its local or remote variant
func (c Call) Request() (Request, error) {
	spec, ok := opSpecs[c.Operation]
	if !ok {
		return nil, sgerrors.NewValidationError("unknown operation %q", c.Operation)
	}
	path := strings.TrimSpace(c.Path)
	id := strings.TrimSpace(c.Identifier)
	switch {
	case path != "" && id != "":
		return nil, sgerrors.NewValidationError("%s: path and identifier are mutually exclusive", c.Operation)
	case spec.targets&targetAccount != 0:
		return RemoteOperation{Kind: c.Operation, Params: c.Params}, nil
	case id != "":
		return RemoteOperation{Kind: c.Operation, Identifier: id, Params: c.Params}, nil
	default:
		return LocalOperation{Kind: c.Operation, Path: path, Params: c.Params}, nil
	}
}

// validate checks the request shape and required parameters
func validate(req Request) error {
	if req == nil {
		return sgerrors.NewValidationError("no operation given")
	}
	kind := req.Operation()
	spec, ok := opSpecs[kind]
	if !ok {
		return sgerrors.NewValidationError("unknown operation %q", kind)
	}

	var params map[string]string
	switch r := req.(type) {
	case LocalOperation:
		if spec.targets&targetLocal == 0 {
			return sgerrors.NewValidationError("%s requires a repository identifier", kind)
		}
		if strings.TrimSpace(r.Path) == "" {
			return sgerrors.NewValidationError("%s requires a repository path", kind)
		}
		params = r.Params
	case RemoteOperation:
		switch {
		case spec.targets&targetAccount != 0:
		case spec.targets&targetRemote == 0:
			return sgerrors.NewValidationError("%s requires a local repository path", kind)
		case strings.TrimSpace(r.Identifier) == "":
			return sgerrors.NewValidationError("%s requires a repository identifier", kind)
		}
		params = r.Params
	}

	for _, key := range spec.required {
		if strings.TrimSpace(params[key]) == "" {
			return sgerrors.NewValidationError("%s requires a non-empty %q parameter", kind, key)
		}
	}
	return nil
}

// Result is the single terminal outcome of an operation
type Result struct {
	OK        bool          `json:"ok"`
	Operation OperationKind `json:"operation"`
	Message   string        `json:"message"`
	Payload   any           `json:"payload,omitempty"`
	ErrorKind sgerrors.Kind `json:"errorKind,omitempty"`
	// Err is the underlying failure for in-process callers
	Err error `json:"-"`
}

func success(op OperationKind, payload any, format string, args ...any) Result {
	return Result{OK: true, Operation: op, Message: fmt.Sprintf(format, args...), Payload: payload}
}

func failure(op OperationKind, err error) Result {
	return Result{Operation: op, Message: err.Error(), ErrorKind: sgerrors.KindOf(err), Err: err}
}

// OpenPayload is returned by open and clone
type OpenPayload struct {
	Path  string `json:"path"`
	Stats Stats  `json:"stats"`
}

// CommitPayload carries the commit an operation created
type CommitPayload struct {
	Hash string `json:"hash"`
}

// CurrentBranchPayload describes HEAD
type CurrentBranchPayload struct {
	Branch   string `json:"branch"`
	Detached bool   `json:"detached"`
}

// TokenPayload describes the token's owner
type TokenPayload struct {
	Login string `json:"login"`
}
