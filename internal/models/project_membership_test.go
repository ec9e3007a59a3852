package models

import "testing"

func TestRoleDefaultsExhaustive(t *testing.T) {
	if len(RoleDefaults) != len(Roles) {
		t.Fatalf("RoleDefaults has %d entries, want %d", len(RoleDefaults), len(Roles))
	}
	for _, role := range Roles {
		if _, ok := RoleDefaults[role]; !ok {
			t.Errorf("RoleDefaults missing entry for %q", role)
		}
	}
}

func TestRoleDefaultVectors(t *testing.T) {
	if RoleDefaults[RoleOwner] != FullCapabilities() {
		t.Error("owner defaults should grant everything")
	}
	if RoleDefaults[RoleGuest] != (Capabilities{}) {
		t.Error("guest defaults should grant nothing")
	}

	m := RoleDefaults[RoleManager]
	if !m.CanManageMembers || !m.CanDeleteProject {
		t.Error("manager defaults should include member management and project deletion")
	}
	if m.CanInviteGuests || m.CanManageIntegrations {
		t.Error("manager defaults should not include guest invites or integrations")
	}

	v := RoleDefaults[RoleViewer]
	if v.CanCreateBoards || v.CanAddCards {
		t.Error("viewer defaults should not include authoring capabilities")
	}
	if !v.CanExportData || !v.CanViewAnalytics {
		t.Error("viewer defaults should include export and analytics")
	}
}

func TestEffectiveCapabilitiesOverride(t *testing.T) {
	no := false
	yes := true

	pm := ProjectMembership{Role: RoleEditor}
	caps := pm.EffectiveCapabilities()
	if !caps.CanCreateBoards {
		t.Error("editor without overrides should create boards by default")
	}

	pm.CanCreateBoards = &no
	pm.CanManageMembers = &yes
	caps = pm.EffectiveCapabilities()
	if caps.CanCreateBoards {
		t.Error("explicit false override should beat the role default")
	}
	if !caps.CanManageMembers {
		t.Error("explicit true override should beat the role default")
	}
	// Untouched capability still follows the role.
	if !caps.CanAddCards {
		t.Error("unset capability should fall back to the editor default")
	}
}

func TestClearCapabilities(t *testing.T) {
	pm := ProjectMembership{Role: RoleEditor}
	pm.SetCapabilities(FullCapabilities())
	pm.Role = RoleViewer
	pm.ClearCapabilities()

	if pm.CanCreateBoards != nil || pm.CanManageIntegrations != nil {
		t.Fatal("ClearCapabilities should reset every override to nil")
	}
	if pm.EffectiveCapabilities() != RoleDefaults[RoleViewer] {
		t.Error("cleared membership should resolve to pure role defaults")
	}
}

func TestManagerTier(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{RoleOwner, true},
		{RoleManager, true},
		{RoleEditor, false},
		{RoleMember, false},
		{RoleViewer, false},
		{RoleGuest, false},
	}
	for _, tt := range tests {
		pm := ProjectMembership{Role: tt.role}
		if pm.ManagerTier() != tt.want {
			t.Errorf("ManagerTier(%q) = %v, want %v", tt.role, !tt.want, tt.want)
		}
	}
}

func TestApplyOverrides(t *testing.T) {
	yes := true
	pm := ProjectMembership{Role: RoleMember}
	CapabilityOverrides{CanCreateBoards: &yes}.Apply(&pm)

	if pm.CanCreateBoards == nil || !*pm.CanCreateBoards {
		t.Error("supplied override should be stored")
	}
	if pm.CanEditProject != nil {
		t.Error("unsupplied override should stay nil")
	}
}
