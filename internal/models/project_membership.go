package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project membership roles, ordered from most to least privileged.
const (
	RoleOwner   = "owner"
	RoleManager = "manager"
	RoleEditor  = "editor"
	RoleMember  = "member"
	RoleViewer  = "viewer"
	RoleGuest   = "guest"
)

// Roles lists every valid project membership role.
var Roles = []string{RoleOwner, RoleManager, RoleEditor, RoleMember, RoleViewer, RoleGuest}

// IsValidRole reports whether role is one of the six known roles.
func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RoleTier returns the sort tier of a role (lower is more privileged).
// Owner and manager share tier 0: both count toward last-manager protection.
func RoleTier(role string) int {
	switch role {
	case RoleOwner, RoleManager:
		return 0
	case RoleEditor:
		return 1
	case RoleMember:
		return 2
	case RoleViewer:
		return 3
	default:
		return 4
	}
}

// Capabilities is the resolved fourteen-permission vector for a user
// within a project.
type Capabilities struct {
	CanCreateBoards       bool `json:"canCreateBoards"`
	CanEditProject        bool `json:"canEditProject"`
	CanManageMembers      bool `json:"canManageMembers"`
	CanDeleteProject      bool `json:"canDeleteProject"`
	CanAddCards           bool `json:"canAddCards"`
	CanEditCards          bool `json:"canEditCards"`
	CanDeleteBoards       bool `json:"canDeleteBoards"`
	CanArchiveBoards      bool `json:"canArchiveBoards"`
	CanExportData         bool `json:"canExportData"`
	CanViewAnalytics      bool `json:"canViewAnalytics"`
	CanManageLabels       bool `json:"canManageLabels"`
	CanManageCustomFields bool `json:"canManageCustomFields"`
	CanInviteGuests       bool `json:"canInviteGuests"`
	CanManageIntegrations bool `json:"canManageIntegrations"`
}

// FullCapabilities returns a vector with every permission granted.
func FullCapabilities() Capabilities {
	return Capabilities{
		CanCreateBoards:       true,
		CanEditProject:        true,
		CanManageMembers:      true,
		CanDeleteProject:      true,
		CanAddCards:           true,
		CanEditCards:          true,
		CanDeleteBoards:       true,
		CanArchiveBoards:      true,
		CanExportData:         true,
		CanViewAnalytics:      true,
		CanManageLabels:       true,
		CanManageCustomFields: true,
		CanInviteGuests:       true,
		CanManageIntegrations: true,
	}
}

// RoleDefaults maps each role to its capability defaults. Every role has an
// entry for every capability; a missing role here is a configuration error.
var RoleDefaults = map[string]Capabilities{
	RoleOwner: FullCapabilities(),
	RoleManager: {
		CanCreateBoards:       true,
		CanEditProject:        true,
		CanManageMembers:      true,
		CanDeleteProject:      true,
		CanAddCards:           true,
		CanEditCards:          true,
		CanDeleteBoards:       true,
		CanArchiveBoards:      true,
		CanExportData:         true,
		CanViewAnalytics:      true,
		CanManageLabels:       true,
		CanManageCustomFields: true,
	},
	RoleEditor: {
		CanCreateBoards:  true,
		CanAddCards:      true,
		CanEditCards:     true,
		CanArchiveBoards: true,
		CanExportData:    true,
		CanViewAnalytics: true,
		CanManageLabels:  true,
	},
	RoleMember: {
		CanAddCards:      true,
		CanEditCards:     true,
		CanExportData:    true,
		CanViewAnalytics: true,
	},
	RoleViewer: {
		CanExportData:    true,
		CanViewAnalytics: true,
	},
	RoleGuest: {},
}

// ProjectMembership is the authoritative per-project access record. Each of
// the fourteen capability columns is nullable: NULL means "use the role
// default", a stored boolean is an explicit per-member override.
type ProjectMembership struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ProjectID uuid.UUID `json:"projectId" gorm:"type:uuid;not null;uniqueIndex:idx_membership_project_user"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_membership_project_user"`
	Role      string    `json:"role" gorm:"not null;default:'member'"`

	CanCreateBoards       *bool `json:"canCreateBoards"`
	CanEditProject        *bool `json:"canEditProject"`
	CanManageMembers      *bool `json:"canManageMembers"`
	CanDeleteProject      *bool `json:"canDeleteProject"`
	CanAddCards           *bool `json:"canAddCards"`
	CanEditCards          *bool `json:"canEditCards"`
	CanDeleteBoards       *bool `json:"canDeleteBoards"`
	CanArchiveBoards      *bool `json:"canArchiveBoards"`
	CanExportData         *bool `json:"canExportData"`
	CanViewAnalytics      *bool `json:"canViewAnalytics"`
	CanManageLabels       *bool `json:"canManageLabels"`
	CanManageCustomFields *bool `json:"canManageCustomFields"`
	CanInviteGuests       *bool `json:"canInviteGuests"`
	CanManageIntegrations *bool `json:"canManageIntegrations"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations (for preloading)
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (pm *ProjectMembership) BeforeCreate(tx *gorm.DB) error {
	if pm.ID == uuid.Nil {
		pm.ID = uuid.New()
	}
	return nil
}

// ManagerTier reports whether the membership counts toward last-manager
// protection (role owner or manager).
func (pm *ProjectMembership) ManagerTier() bool {
	return pm.Role == RoleOwner || pm.Role == RoleManager
}

// EffectiveCapabilities merges stored overrides with the role defaults.
func (pm *ProjectMembership) EffectiveCapabilities() Capabilities {
	d := RoleDefaults[pm.Role]
	return Capabilities{
		CanCreateBoards:       resolveCap(pm.CanCreateBoards, d.CanCreateBoards),
		CanEditProject:        resolveCap(pm.CanEditProject, d.CanEditProject),
		CanManageMembers:      resolveCap(pm.CanManageMembers, d.CanManageMembers),
		CanDeleteProject:      resolveCap(pm.CanDeleteProject, d.CanDeleteProject),
		CanAddCards:           resolveCap(pm.CanAddCards, d.CanAddCards),
		CanEditCards:          resolveCap(pm.CanEditCards, d.CanEditCards),
		CanDeleteBoards:       resolveCap(pm.CanDeleteBoards, d.CanDeleteBoards),
		CanArchiveBoards:      resolveCap(pm.CanArchiveBoards, d.CanArchiveBoards),
		CanExportData:         resolveCap(pm.CanExportData, d.CanExportData),
		CanViewAnalytics:      resolveCap(pm.CanViewAnalytics, d.CanViewAnalytics),
		CanManageLabels:       resolveCap(pm.CanManageLabels, d.CanManageLabels),
		CanManageCustomFields: resolveCap(pm.CanManageCustomFields, d.CanManageCustomFields),
		CanInviteGuests:       resolveCap(pm.CanInviteGuests, d.CanInviteGuests),
		CanManageIntegrations: resolveCap(pm.CanManageIntegrations, d.CanManageIntegrations),
	}
}

func resolveCap(override *bool, def bool) bool {
	if override != nil {
		return *override
	}
	return def
}

// SetCapabilities stores an explicit override for every capability.
func (pm *ProjectMembership) SetCapabilities(c Capabilities) {
	pm.CanCreateBoards = boolPtr(c.CanCreateBoards)
	pm.CanEditProject = boolPtr(c.CanEditProject)
	pm.CanManageMembers = boolPtr(c.CanManageMembers)
	pm.CanDeleteProject = boolPtr(c.CanDeleteProject)
	pm.CanAddCards = boolPtr(c.CanAddCards)
	pm.CanEditCards = boolPtr(c.CanEditCards)
	pm.CanDeleteBoards = boolPtr(c.CanDeleteBoards)
	pm.CanArchiveBoards = boolPtr(c.CanArchiveBoards)
	pm.CanExportData = boolPtr(c.CanExportData)
	pm.CanViewAnalytics = boolPtr(c.CanViewAnalytics)
	pm.CanManageLabels = boolPtr(c.CanManageLabels)
	pm.CanManageCustomFields = boolPtr(c.CanManageCustomFields)
	pm.CanInviteGuests = boolPtr(c.CanInviteGuests)
	pm.CanManageIntegrations = boolPtr(c.CanManageIntegrations)
}

// ClearCapabilities resets every capability to NULL (defer to role default).
// Used when a role change discards prior per-member overrides.
func (pm *ProjectMembership) ClearCapabilities() {
	pm.CanCreateBoards = nil
	pm.CanEditProject = nil
	pm.CanManageMembers = nil
	pm.CanDeleteProject = nil
	pm.CanAddCards = nil
	pm.CanEditCards = nil
	pm.CanDeleteBoards = nil
	pm.CanArchiveBoards = nil
	pm.CanExportData = nil
	pm.CanViewAnalytics = nil
	pm.CanManageLabels = nil
	pm.CanManageCustomFields = nil
	pm.CanInviteGuests = nil
	pm.CanManageIntegrations = nil
}

func boolPtr(b bool) *bool {
	return &b
}

// CapabilityOverrides carries optional per-capability overrides in create and
// update requests. A nil field leaves the stored value untouched (create: NULL,
// update: whatever the role reset produced).
type CapabilityOverrides struct {
	CanCreateBoards       *bool `json:"canCreateBoards"`
	CanEditProject        *bool `json:"canEditProject"`
	CanManageMembers      *bool `json:"canManageMembers"`
	CanDeleteProject      *bool `json:"canDeleteProject"`
	CanAddCards           *bool `json:"canAddCards"`
	CanEditCards          *bool `json:"canEditCards"`
	CanDeleteBoards       *bool `json:"canDeleteBoards"`
	CanArchiveBoards      *bool `json:"canArchiveBoards"`
	CanExportData         *bool `json:"canExportData"`
	CanViewAnalytics      *bool `json:"canViewAnalytics"`
	CanManageLabels       *bool `json:"canManageLabels"`
	CanManageCustomFields *bool `json:"canManageCustomFields"`
	CanInviteGuests       *bool `json:"canInviteGuests"`
	CanManageIntegrations *bool `json:"canManageIntegrations"`
}

// Apply copies every non-nil override onto the membership.
func (o CapabilityOverrides) Apply(pm *ProjectMembership) {
	if o.CanCreateBoards != nil {
		pm.CanCreateBoards = o.CanCreateBoards
	}
	if o.CanEditProject != nil {
		pm.CanEditProject = o.CanEditProject
	}
	if o.CanManageMembers != nil {
		pm.CanManageMembers = o.CanManageMembers
	}
	if o.CanDeleteProject != nil {
		pm.CanDeleteProject = o.CanDeleteProject
	}
	if o.CanAddCards != nil {
		pm.CanAddCards = o.CanAddCards
	}
	if o.CanEditCards != nil {
		pm.CanEditCards = o.CanEditCards
	}
	if o.CanDeleteBoards != nil {
		pm.CanDeleteBoards = o.CanDeleteBoards
	}
	if o.CanArchiveBoards != nil {
		pm.CanArchiveBoards = o.CanArchiveBoards
	}
	if o.CanExportData != nil {
		pm.CanExportData = o.CanExportData
	}
	if o.CanViewAnalytics != nil {
		pm.CanViewAnalytics = o.CanViewAnalytics
	}
	if o.CanManageLabels != nil {
		pm.CanManageLabels = o.CanManageLabels
	}
	if o.CanManageCustomFields != nil {
		pm.CanManageCustomFields = o.CanManageCustomFields
	}
	if o.CanInviteGuests != nil {
		pm.CanInviteGuests = o.CanInviteGuests
	}
	if o.CanManageIntegrations != nil {
		pm.CanManageIntegrations = o.CanManageIntegrations
	}
}

// Membership DTOs
type CreateMembershipRequest struct {
	UserID uuid.UUID `json:"userId" validate:"required"`
	Role   string    `json:"role"`
	CapabilityOverrides
}

type UpdateMembershipRequest struct {
	Role *string `json:"role"`
	CapabilityOverrides
}
