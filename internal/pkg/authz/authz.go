// Package authz decides who may act on a shared document. Rules live in a
// casbin ABAC model: the subject's relation to the document (owner or
// recipient) and the document's access mode select the allowed actions.
package authz

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/persist"
)

// Actions on a document.
const (
	ActView     = "view"
	ActDownload = "download"
	ActDelete   = "delete"
)

// Relations between a subject and a document.
const (
	RelOwner     = "owner"
	RelRecipient = "recipient"
)

// AnyAccess matches every access mode in a rule.
const AnyAccess = "*"

const abacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = rel, act, access

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = ((p.rel == "owner" && r.sub == r.obj.OwnerID) || (p.rel == "recipient" && r.sub == r.obj.RecipientID)) && r.act == p.act && (p.access == "*" || p.access == r.obj.Access)
`

// DefaultRules: owners may do anything; recipients may view, and download
// only when the owner shared the document with download access.
var DefaultRules = [][]string{
	{RelOwner, ActView, AnyAccess},
	{RelOwner, ActDownload, AnyAccess},
	{RelOwner, ActDelete, AnyAccess},
	{RelRecipient, ActView, AnyAccess},
	{RelRecipient, ActDownload, ActDownload},
}

// Resource is the document as seen by the matcher. Fields are read by name.
type Resource struct {
	OwnerID     string
	RecipientID string
	Access      string
}

// NewResource formats numeric ids the way subjects are formatted.
func NewResource(ownerID, recipientID int64, access string) Resource {
	return Resource{
		OwnerID:     strconv.FormatInt(ownerID, 10),
		RecipientID: strconv.FormatInt(recipientID, 10),
		Access:      access,
	}
}

// Authorizer answers access questions.
type Authorizer interface {
	Allowed(ctx context.Context, userID int64, res Resource, act string) (bool, error)
}

// Enforcer is a casbin backed Authorizer.
type Enforcer struct {
	mu         sync.RWMutex
	e          *casbin.Enforcer
	hasAdapter bool
}

// New builds an Enforcer. With a nil adapter the DefaultRules are loaded in
// memory; otherwise rules come from the adapter and DefaultRules seed it
// when it holds none.
func New(adapter persist.Adapter) (*Enforcer, error) {
	m, err := model.NewModelFromString(abacModel)
	if err != nil {
		return nil, fmt.Errorf("authz: model: %w", err)
	}

	var e *casbin.Enforcer
	if adapter == nil {
		e, err = casbin.NewEnforcer(m)
	} else {
		e, err = casbin.NewEnforcer(m, adapter)
	}
	if err != nil {
		return nil, fmt.Errorf("authz: enforcer: %w", err)
	}

	rules, err := e.GetPolicy()
	if err != nil {
		return nil, fmt.Errorf("authz: read rules: %w", err)
	}
	if len(rules) == 0 {
		if _, err := e.AddPolicies(DefaultRules); err != nil {
			return nil, fmt.Errorf("authz: seed rules: %w", err)
		}
	}

	return &Enforcer{e: e, hasAdapter: adapter != nil}, nil
}

func (a *Enforcer) Allowed(_ context.Context, userID int64, res Resource, act string) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.e.Enforce(strconv.FormatInt(userID, 10), res, act)
}

// Reload re-reads the rules from the adapter so edits made by another
// instance or by hand take effect.
func (a *Enforcer) Reload(_ context.Context) error {
	if !a.hasAdapter {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	return a.e.LoadPolicy()
}
