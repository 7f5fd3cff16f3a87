// Package authz decides what a caller may do.
package authz

import "github.com/angelmondragon/roastery-backend/pkg/enums"

type Action string

const (
	ActionView          Action = "view"
	ActionEdit          Action = "edit"
	ActionDelete        Action = "delete"
	ActionManageUsers   Action = "manage_users"
	ActionConfigureSync Action = "configure_sync"
)

// SubjectKind tells a signed-in user apart from the machine operator.
type SubjectKind string

const (
	SubjectUser  SubjectKind = "user"
	SubjectLocal SubjectKind = "local"
)

// Subject is whoever is making the request.
type Subject struct {
	Kind   SubjectKind
	UserID string
	Role   enums.UserRole
	Active bool
}

// Local is the operator sitting at the roastery machine.
func Local() Subject {
	return Subject{Kind: SubjectLocal}
}

func User(id string, role enums.UserRole, active bool) Subject {
	return Subject{Kind: SubjectUser, UserID: id, Role: role, Active: active}
}

// ID labels the subject in logs and outbox rows.
func (s Subject) ID() string {
	if s.Kind == SubjectLocal {
		return string(SubjectLocal)
	}
	return s.UserID
}

var grants = map[enums.UserRole][]Action{
	enums.UserRoleViewer: {ActionView},
	enums.UserRoleEditor: {ActionView, ActionEdit},
	enums.UserRoleAdmin:  {ActionView, ActionEdit, ActionDelete, ActionManageUsers, ActionConfigureSync},
}

// Can reports whether subject may perform action on resource. Only the role
// is consulted today; resource names the collection being touched.
func Can(subject Subject, action Action, resource string) bool {
	switch subject.Kind {
	case SubjectLocal:
		return true
	case SubjectUser:
		role := subject.Role
		if !subject.Active {
			role = enums.UserRoleViewer
		}
		for _, granted := range grants[role] {
			if granted == action {
				return true
			}
		}
	}
	return false
}
