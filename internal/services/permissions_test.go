package services

import (
	"testing"

	"github.com/darren/kanbo-api/internal/database"
	"github.com/darren/kanbo-api/internal/models"
	"github.com/google/uuid"
)

func TestResolveProjectPermissionsMember(t *testing.T) {
	setupTestDB(t)
	owner := createTestUser(t, "owner")
	member := createTestUser(t, "member")
	project := createPrivateProject(t, owner, "Roadmap")

	no := false
	pm := models.ProjectMembership{
		ProjectID:       project.ID,
		UserID:          member.ID,
		Role:            models.RoleEditor,
		CanCreateBoards: &no,
	}
	if err := database.DB.Create(&pm).Error; err != nil {
		t.Fatalf("create membership: %v", err)
	}

	perms, err := ResolveProjectPermissions(member.ID, project.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if perms == nil {
		t.Fatal("expected a permission vector for a member")
	}
	if perms.Role != models.RoleEditor {
		t.Errorf("role = %q, want editor", perms.Role)
	}
	if perms.CanCreateBoards {
		t.Error("override false should beat the editor default")
	}
	if !perms.CanAddCards {
		t.Error("unset capability should use the editor default")
	}
}

func TestResolveProjectPermissionsAdmin(t *testing.T) {
	setupTestDB(t)
	owner := createTestUser(t, "owner")
	admin := createTestAdmin(t, "root")
	project := createPrivateProject(t, owner, "Roadmap")

	perms, err := ResolveProjectPermissions(admin.ID, project.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if perms == nil {
		t.Fatal("expected a permission vector for an admin")
	}
	if perms.Role != RoleAdmin {
		t.Errorf("role = %q, want admin", perms.Role)
	}
	if perms.Capabilities != models.FullCapabilities() {
		t.Error("admin should resolve to the full capability vector")
	}
}

func TestResolveProjectPermissionsNoAccess(t *testing.T) {
	setupTestDB(t)
	owner := createTestUser(t, "owner")
	outsider := createTestUser(t, "outsider")
	project := createPrivateProject(t, owner, "Roadmap")

	perms, err := ResolveProjectPermissions(outsider.ID, project.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if perms != nil {
		t.Fatalf("expected no access, got %+v", perms)
	}

	// An unknown user is also just "no access", not an error.
	perms, err = ResolveProjectPermissions(uuid.New(), project.ID)
	if err != nil {
		t.Fatalf("resolve unknown user: %v", err)
	}
	if perms != nil {
		t.Fatal("unknown user should have no access")
	}
}

func TestResolveIsPure(t *testing.T) {
	setupTestDB(t)
	owner := createTestUser(t, "owner")
	project := createPrivateProject(t, owner, "Roadmap")

	first, err := ResolveProjectPermissions(owner.ID, project.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	second, err := ResolveProjectPermissions(owner.ID, project.ID)
	if err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if *first != *second {
		t.Error("resolution with unchanged state should be identical")
	}
}

func TestCanManageMembersLegacyFallback(t *testing.T) {
	setupTestDB(t)
	owner := createTestUser(t, "owner")
	legacy := createTestUser(t, "oldtimer")
	project := createPrivateProject(t, owner, "Roadmap")

	// A user with only the legacy manager record, no membership row.
	manager := models.ProjectManager{ProjectID: project.ID, UserID: legacy.ID}
	if err := database.DB.Create(&manager).Error; err != nil {
		t.Fatalf("create legacy manager: %v", err)
	}

	ok, err := CanManageProjectMembers(legacy.ID, project.ID)
	if err != nil {
		t.Fatalf("can manage: %v", err)
	}
	if !ok {
		t.Error("legacy manager record should grant implicit manager access")
	}

	ok, err = CanCreateBoard(legacy.ID, project.ID)
	if err != nil {
		t.Fatalf("can create board: %v", err)
	}
	if !ok {
		t.Error("legacy manager record should grant board creation")
	}
}

func TestCanManageMembersMembershipWinsOverLegacy(t *testing.T) {
	setupTestDB(t)
	owner := createTestUser(t, "owner")
	viewer := createTestUser(t, "viewer")
	project := createPrivateProject(t, owner, "Roadmap")

	// Both records exist; the membership row is authoritative.
	pm := models.ProjectMembership{ProjectID: project.ID, UserID: viewer.ID, Role: models.RoleViewer}
	if err := database.DB.Create(&pm).Error; err != nil {
		t.Fatalf("create membership: %v", err)
	}
	manager := models.ProjectManager{ProjectID: project.ID, UserID: viewer.ID}
	if err := database.DB.Create(&manager).Error; err != nil {
		t.Fatalf("create legacy manager: %v", err)
	}

	ok, err := CanManageProjectMembers(viewer.ID, project.ID)
	if err != nil {
		t.Fatalf("can manage: %v", err)
	}
	if ok {
		t.Error("viewer membership should not manage members even with a legacy record present")
	}
}
