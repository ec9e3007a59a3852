package services

import "errors"

// Expected, caller-recoverable outcomes. Handlers map these to HTTP statuses;
// anything else bubbling out of a service is a storage fault and the
// transaction it happened in has been rolled back.
var (
	ErrProjectNotFound    = errors.New("project not found")
	ErrMembershipNotFound = errors.New("project membership not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrBoardNotFound      = errors.New("board not found")

	ErrNotEnoughRights = errors.New("not enough rights")

	ErrAlreadyMember = errors.New("user is already a project member")

	ErrCannotRemoveSelf          = errors.New("cannot remove yourself from the project")
	ErrCannotChangeOwnRole       = errors.New("cannot change your own role")
	ErrCannotRemoveLastManager   = errors.New("cannot remove the last manager")
	ErrCannotDemoteLastManager   = errors.New("cannot demote the last manager")
	ErrCannotTransferTeamProject = errors.New("cannot transfer ownership of team projects")
)
