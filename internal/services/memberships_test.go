package services

import (
	"errors"
	"testing"

	"github.com/darren/kanbo-api/internal/database"
	"github.com/darren/kanbo-api/internal/models"
	"github.com/google/uuid"
)

func TestCreateMembership(t *testing.T) {
	setupTestDB(t)
	owner := createTestUser(t, "owner")
	target := createTestUser(t, "newcomer")
	project := createPrivateProject(t, owner, "Roadmap")

	no := false
	pm, err := CreateMembership(owner.ID, project.ID, models.CreateMembershipRequest{
		UserID: target.ID,
		Role:   models.RoleEditor,
		CapabilityOverrides: models.CapabilityOverrides{
			CanCreateBoards: &no,
		},
	})
	if err != nil {
		t.Fatalf("create membership: %v", err)
	}

	if pm.Role != models.RoleEditor {
		t.Errorf("role = %q, want editor", pm.Role)
	}
	if pm.CanCreateBoards == nil || *pm.CanCreateBoards {
		t.Error("supplied override should be stored as explicit false")
	}
	if pm.CanAddCards != nil {
		t.Error("unsupplied capability should stay NULL (defer to role)")
	}

	// Legacy manager record is written for every role.
	if n := countRows(t, &models.ProjectManager{}, "project_id = ? AND user_id = ?", project.ID, target.ID); n != 1 {
		t.Errorf("legacy manager records = %d, want 1", n)
	}
}

func TestCreateMembershipErrors(t *testing.T) {
	setupTestDB(t)
	owner := createTestUser(t, "owner")
	target := createTestUser(t, "newcomer")
	outsider := createTestUser(t, "outsider")
	project := createPrivateProject(t, owner, "Roadmap")

	if _, err := CreateMembership(owner.ID, uuid.New(), models.CreateMembershipRequest{UserID: target.ID}); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("missing project: got %v, want ErrProjectNotFound", err)
	}
	if _, err := CreateMembership(outsider.ID, project.ID, models.CreateMembershipRequest{UserID: target.ID}); !errors.Is(err, ErrNotEnoughRights) {
		t.Errorf("outsider actor: got %v, want ErrNotEnoughRights", err)
	}
	if _, err := CreateMembership(owner.ID, project.ID, models.CreateMembershipRequest{UserID: uuid.New()}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("missing user: got %v, want ErrUserNotFound", err)
	}

	if _, err := CreateMembership(owner.ID, project.ID, models.CreateMembershipRequest{UserID: target.ID}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := CreateMembership(owner.ID, project.ID, models.CreateMembershipRequest{UserID: target.ID}); !errors.Is(err, ErrAlreadyMember) {
		t.Errorf("duplicate: got %v, want ErrAlreadyMember", err)
	}

	// A failed create leaves no partial rows behind.
	if n := countRows(t, &models.ProjectMembership{}, "project_id = ?", project.ID); n != 2 {
		t.Errorf("memberships = %d, want 2 (owner + newcomer)", n)
	}
}

func TestCreateMembershipTeamBoardCascade(t *testing.T) {
	setupTestDB(t)
	creator := createTestUser(t, "creator")
	creation, err := CreateProject(creator.ID, "Shared Space", models.ProjectTypeShared)
	if err != nil {
		t.Fatalf("create team project: %v", err)
	}
	project := creation.Project

	if _, err := CreateBoard(creator.ID, project.ID, "Sprint 1"); err != nil {
		t.Fatalf("create board: %v", err)
	}
	if _, err := CreateBoard(creator.ID, project.ID, "Sprint 2"); err != nil {
		t.Fatalf("create board: %v", err)
	}

	// Joining a team project grants viewer access to every existing board.
	target := createTestUser(t, "latecomer")
	if _, err := CreateMembership(creator.ID, project.ID, models.CreateMembershipRequest{
		UserID: target.ID,
		Role:   models.RoleMember,
	}); err != nil {
		t.Fatalf("create membership: %v", err)
	}

	var bms []models.BoardMembership
	if err := database.DB.Where("project_id = ? AND user_id = ?", project.ID, target.ID).Find(&bms).Error; err != nil {
		t.Fatalf("load board memberships: %v", err)
	}
	if len(bms) != 2 {
		t.Fatalf("board memberships = %d, want 2", len(bms))
	}
	for _, bm := range bms {
		if bm.Role != models.BoardRoleViewer {
			t.Errorf("cascaded board role = %q, want viewer", bm.Role)
		}
	}
}

func TestCreateMembershipPrivateNoBoardCascade(t *testing.T) {
	setupTestDB(t)
	owner := createTestUser(t, "owner")
	target := createTestUser(t, "newcomer")
	project := createPrivateProject(t, owner, "Roadmap")

	if _, err := CreateBoard(owner.ID, project.ID, "Backlog"); err != nil {
		t.Fatalf("create board: %v", err)
	}

	if _, err := CreateMembership(owner.ID, project.ID, models.CreateMembershipRequest{
		UserID: target.ID,
		Role:   models.RoleEditor,
	}); err != nil {
		t.Fatalf("create membership: %v", err)
	}

	if n := countRows(t, &models.BoardMembership{}, "project_id = ? AND user_id = ?", project.ID, target.ID); n != 0 {
		t.Errorf("private project join should not seed board memberships, got %d", n)
	}
}

func TestUpdateMembershipRoleResetsOverrides(t *testing.T) {
	setupTestDB(t)
	owner := createTestUser(t, "owner")
	target := createTestUser(t, "editor")
	project := createPrivateProject(t, owner, "Roadmap")

	yes := true
	created, err := CreateMembership(owner.ID, project.ID, models.CreateMembershipRequest{
		UserID: target.ID,
		Role:   models.RoleEditor,
		CapabilityOverrides: models.CapabilityOverrides{
			CanManageMembers: &yes,
			CanDeleteBoards:  &yes,
		},
	})
	if err != nil {
		t.Fatalf("create membership: %v", err)
	}

	role := models.RoleViewer
	updated, err := UpdateMembership(owner.ID, created.ID, models.UpdateMembershipRequest{Role: &role})
	if err != nil {
		t.Fatalf("update membership: %v", err)
	}

	if updated.Role != models.RoleViewer {
		t.Errorf("role = %q, want viewer", updated.Role)
	}
	if updated.CanManageMembers != nil || updated.CanDeleteBoards != nil {
		t.Error("role change should clear prior overrides")
	}
	if updated.EffectiveCapabilities() != models.RoleDefaults[models.RoleViewer] {
		t.Error("effective capabilities should equal viewer defaults after the reset")
	}
}

func TestUpdateMembershipRoleChangeWithNewOverrides(t *testing.T) {
	setupTestDB(t)
	owner := createTestUser(t, "owner")
	target := createTestUser(t, "editor")
	project := createPrivateProject(t, owner, "Roadmap")

	created, err := CreateMembership(owner.ID, project.ID, models.CreateMembershipRequest{
		UserID: target.ID,
		Role:   models.RoleEditor,
	})
	if err != nil {
		t.Fatalf("create membership: %v", err)
	}

	// Overrides supplied alongside a role change apply on top of the reset.
	role := models.RoleViewer
	yes := true
	updated, err := UpdateMembership(owner.ID, created.ID, models.UpdateMembershipRequest{
		Role: &role,
		CapabilityOverrides: models.CapabilityOverrides{
			CanAddCards: &yes,
		},
	})
	if err != nil {
		t.Fatalf("update membership: %v", err)
	}

	caps := updated.EffectiveCapabilities()
	if !caps.CanAddCards {
		t.Error("override supplied with the role change should apply")
	}
	if caps.CanCreateBoards {
		t.Error("capabilities not overridden should follow the new role")
	}
}

func TestUpdateMembershipOwnRole(t *testing.T) {
	setupTestDB(t)
	owner := createTestUser(t, "owner")
	other := createTestUser(t, "other")
	project := createPrivateProject(t, owner, "Roadmap")

	if _, err := CreateMembership(owner.ID, project.ID, models.CreateMembershipRequest{
		UserID: other.ID,
		Role:   models.RoleManager,
	}); err != nil {
		t.Fatalf("create membership: %v", err)
	}

	ownMembership := membershipOf(t, project.ID, owner.ID)
	role := models.RoleViewer
	if _, err := UpdateMembership(owner.ID, ownMembership.ID, models.UpdateMembershipRequest{Role: &role}); !errors.Is(err, ErrCannotChangeOwnRole) {
		t.Errorf("own role change: got %v, want ErrCannotChangeOwnRole", err)
	}

	// Overrides without a role change on your own membership are allowed.
	no := false
	if _, err := UpdateMembership(owner.ID, ownMembership.ID, models.UpdateMembershipRequest{
		CapabilityOverrides: models.CapabilityOverrides{CanInviteGuests: &no},
	}); err != nil {
		t.Errorf("own override change: %v", err)
	}
}

func TestUpdateMembershipLastManagerDemotion(t *testing.T) {
	setupTestDB(t)
	owner := createTestUser(t, "owner")
	manager := createTestUser(t, "manager")
	project := createPrivateProject(t, owner, "Roadmap")

	created, err := CreateMembership(owner.ID, project.ID, models.CreateMembershipRequest{
		UserID: manager.ID,
		Role:   models.RoleManager,
	})
	if err != nil {
		t.Fatalf("create manager: %v", err)
	}

	// Two manager-tier memberships (owner + manager): demoting one is fine.
	role := models.RoleMember
	if _, err := UpdateMembership(owner.ID, created.ID, models.UpdateMembershipRequest{Role: &role}); err != nil {
		t.Fatalf("demote with a second manager present: %v", err)
	}

	// Now the owner is the only manager-tier membership left; a second
	// actor with rights cannot demote them.
	admin := createTestAdmin(t, "root")
	ownerMembership := membershipOf(t, project.ID, owner.ID)
	if _, err := UpdateMembership(admin.ID, ownerMembership.ID, models.UpdateMembershipRequest{Role: &role}); !errors.Is(err, ErrCannotDemoteLastManager) {
		t.Errorf("last manager demotion: got %v, want ErrCannotDemoteLastManager", err)
	}

	// Moving within the tier (owner -> manager) is not a demotion.
	mgr := models.RoleManager
	if _, err := UpdateMembership(admin.ID, ownerMembership.ID, models.UpdateMembershipRequest{Role: &mgr}); err != nil {
		t.Errorf("owner to manager within tier: %v", err)
	}
}

func TestDeleteMembershipCascade(t *testing.T) {
	setupTestDB(t)
	creator := createTestUser(t, "creator")
	creation, err := CreateProject(creator.ID, "Shared Space", models.ProjectTypeShared)
	if err != nil {
		t.Fatalf("create team project: %v", err)
	}
	project := creation.Project

	target := createTestUser(t, "target")
	if _, err := CreateMembership(creator.ID, project.ID, models.CreateMembershipRequest{
		UserID: target.ID,
		Role:   models.RoleMember,
	}); err != nil {
		t.Fatalf("create membership: %v", err)
	}
	if _, err := CreateBoard(creator.ID, project.ID, "Sprint 1"); err != nil {
		t.Fatalf("create board: %v", err)
	}

	pm := membershipOf(t, project.ID, target.ID)
	if _, err := DeleteMembership(creator.ID, pm.ID); err != nil {
		t.Fatalf("delete membership: %v", err)
	}

	if n := countRows(t, &models.ProjectMembership{}, "project_id = ? AND user_id = ?", project.ID, target.ID); n != 0 {
		t.Errorf("membership rows = %d, want 0", n)
	}
	if n := countRows(t, &models.ProjectManager{}, "project_id = ? AND user_id = ?", project.ID, target.ID); n != 0 {
		t.Errorf("legacy manager rows = %d, want 0", n)
	}
	if n := countRows(t, &models.BoardMembership{}, "project_id = ? AND user_id = ?", project.ID, target.ID); n != 0 {
		t.Errorf("board membership rows = %d, want 0", n)
	}
}

func TestDeleteMembershipGuards(t *testing.T) {
	setupTestDB(t)
	owner := createTestUser(t, "owner")
	outsider := createTestUser(t, "outsider")
	project := createPrivateProject(t, owner, "Roadmap")
	ownMembership := membershipOf(t, project.ID, owner.ID)

	if _, err := DeleteMembership(owner.ID, uuid.New()); !errors.Is(err, ErrMembershipNotFound) {
		t.Errorf("missing membership: got %v, want ErrMembershipNotFound", err)
	}
	if _, err := DeleteMembership(outsider.ID, ownMembership.ID); !errors.Is(err, ErrNotEnoughRights) {
		t.Errorf("outsider actor: got %v, want ErrNotEnoughRights", err)
	}

	// The sole manager removing themselves hits the self guard first, not
	// the last-manager guard.
	if _, err := DeleteMembership(owner.ID, ownMembership.ID); !errors.Is(err, ErrCannotRemoveSelf) {
		t.Errorf("self removal: got %v, want ErrCannotRemoveSelf", err)
	}

	// Another actor removing the sole manager hits the last-manager guard.
	admin := createTestAdmin(t, "root")
	if _, err := DeleteMembership(admin.ID, ownMembership.ID); !errors.Is(err, ErrCannotRemoveLastManager) {
		t.Errorf("last manager removal: got %v, want ErrCannotRemoveLastManager", err)
	}
}

func TestListProjectMembershipsOrderAndMeta(t *testing.T) {
	setupTestDB(t)
	owner := createTestUser(t, "owner")
	project := createPrivateProject(t, owner, "Roadmap")

	viewer := createTestUser(t, "viewer")
	editor := createTestUser(t, "editor")
	if _, err := CreateMembership(owner.ID, project.ID, models.CreateMembershipRequest{UserID: viewer.ID, Role: models.RoleViewer}); err != nil {
		t.Fatalf("create viewer: %v", err)
	}
	if _, err := CreateMembership(owner.ID, project.ID, models.CreateMembershipRequest{UserID: editor.ID, Role: models.RoleEditor}); err != nil {
		t.Fatalf("create editor: %v", err)
	}

	items, meta, err := ListProjectMemberships(owner.ID, project.ID)
	if err != nil {
		t.Fatalf("list memberships: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}

	// Sorted by tier: owner, then editor, then viewer.
	if items[0].UserID != owner.ID || items[1].UserID != editor.ID || items[2].UserID != viewer.ID {
		t.Errorf("unexpected order: %s, %s, %s", items[0].Role, items[1].Role, items[2].Role)
	}
	if items[0].User.ID != owner.ID {
		t.Error("user records should be preloaded")
	}

	if meta.IsTeamProject {
		t.Error("private project should not be flagged as team")
	}
	if meta.OwnerID == nil || *meta.OwnerID != owner.ID {
		t.Error("meta should carry the owner's user id")
	}
	if !meta.CurrentUserCanManage {
		t.Error("owner should be able to manage members")
	}

	// Hidden from non-members.
	outsider := createTestUser(t, "outsider")
	if _, _, err := ListProjectMemberships(outsider.ID, project.ID); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("outsider listing: got %v, want ErrProjectNotFound", err)
	}
}
