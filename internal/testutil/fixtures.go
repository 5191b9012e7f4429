package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"quarterdeck/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates an active user with a hashed password and unique
// username.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	username := fmt.Sprintf("operator%d", nextID())
	return CreateTestUserWithUsername(t, db, username)
}

// CreateTestUserWithUsername creates a user with the given username.
func CreateTestUserWithUsername(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAdmin creates an active administrator account.
func CreateTestAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := CreateTestUser(t, db)
	if err := db.Model(user).Update("role", models.RoleAdmin).Error; err != nil {
		t.Fatalf("failed to promote test user: %v", err)
	}
	user.Role = models.RoleAdmin
	return user
}

// CreateTestCategory creates a category with a unique name.
func CreateTestCategory(t *testing.T, db *gorm.DB) *models.Category {
	t.Helper()

	category := &models.Category{
		Name:  fmt.Sprintf("Category %d", nextID()),
		Icon:  "folder",
		Color: "#3366ff",
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestService creates a service with a unique name.
func CreateTestService(t *testing.T, db *gorm.DB) *models.Service {
	t.Helper()
	return CreateTestServiceWithName(t, db, fmt.Sprintf("Service %d", nextID()))
}

// CreateTestServiceWithName creates a service with the given name.
func CreateTestServiceWithName(t *testing.T, db *gorm.DB, name string) *models.Service {
	t.Helper()

	service := &models.Service{
		Name:        name,
		URL:         "http://media.local:32400",
		Icon:        "play",
		Description: "Test service",
	}
	if err := db.Create(service).Error; err != nil {
		t.Fatalf("failed to create test service: %v", err)
	}
	return service
}

// CreateTestHost creates a wake-on-LAN host with a unique name.
func CreateTestHost(t *testing.T, db *gorm.DB) *models.Host {
	t.Helper()

	host := &models.Host{
		Name:       fmt.Sprintf("Host %d", nextID()),
		MACAddress: "aa:bb:cc:dd:ee:ff",
		IPAddress:  "192.168.1.50",
	}
	if err := db.Create(host).Error; err != nil {
		t.Fatalf("failed to create test host: %v", err)
	}
	return host
}

// CreateTestSSHHost creates an SSH host with credentials set, so tests can
// check they never leak into audit payloads.
func CreateTestSSHHost(t *testing.T, db *gorm.DB) *models.SSHHost {
	t.Helper()

	sshHost := &models.SSHHost{
		Name:     fmt.Sprintf("SSH Host %d", nextID()),
		Hostname: "backup.local",
		Port:     22,
		Username: "root",
		Password: "hunter2",
	}
	if err := db.Create(sshHost).Error; err != nil {
		t.Fatalf("failed to create test ssh host: %v", err)
	}
	return sshHost
}
