package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/darren/kanbo-api/internal/database"
	"github.com/darren/kanbo-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB points the global database handle at a fresh in-memory SQLite
// database named after the test, so tests cannot see each other's state.
func setupTestDB(t *testing.T) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test database: %v", err)
	}
	// One connection keeps the shared in-memory database alive for the test.
	sqlDB.SetMaxOpenConns(1)

	database.DB = db
	if err := database.Migrate(); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
}

func createTestUser(t *testing.T, username string) models.User {
	t.Helper()

	user := models.User{
		Email:    username + "@example.com",
		Username: username,
		Name:     username,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func createTestAdmin(t *testing.T, username string) models.User {
	t.Helper()

	user := models.User{
		Email:    username + "@example.com",
		Username: username,
		IsAdmin:  true,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		t.Fatalf("create admin %s: %v", username, err)
	}
	return user
}

// createPrivateProject creates a private project owned by the user and
// returns it with the owner membership loaded.
func createPrivateProject(t *testing.T, owner models.User, name string) models.Project {
	t.Helper()

	creation, err := CreateProject(owner.ID, name, models.ProjectTypePrivate)
	if err != nil {
		t.Fatalf("create private project: %v", err)
	}
	return creation.Project
}

func membershipOf(t *testing.T, projectID, userID uuid.UUID) models.ProjectMembership {
	t.Helper()

	var pm models.ProjectMembership
	if err := database.DB.Where("project_id = ? AND user_id = ?", projectID, userID).First(&pm).Error; err != nil {
		t.Fatalf("load membership: %v", err)
	}
	return pm
}

func countRows(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()

	var count int64
	if err := database.DB.Model(model).Where(query, args...).Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return count
}
