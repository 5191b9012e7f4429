package services

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "quarterdeck/internal/errors"
	"quarterdeck/internal/models"
	"quarterdeck/internal/pagination"
	"quarterdeck/internal/resources"
)

// userService handles operator accounts.
type userService struct {
	db *gorm.DB
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db}
}

// CreateUser registers a new operator account.
func (s *userService) CreateUser(username, password string, role models.UserRole) (*models.User, error) {
	if username == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "username and password are required")
	}
	username = strings.ToLower(username)
	if err := s.checkUsername(username, 0); err != nil {
		return nil, err
	}
	if role == "" {
		role = models.RoleUser
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hashed),
		Role:         role,
		IsActive:     true,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return user, nil
}

// GetUsers retrieves a paginated list of operator accounts.
func (s *userService) GetUsers(page pagination.PageRequest) (*pagination.PageResponse[models.User], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.User{})
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var users []models.User
	if err := base.Order("username").Scopes(pagination.Paginate(page)).Find(&users).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(users, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetUserByID retrieves a user by ID.
func (s *userService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByUsername retrieves an active user by username.
func (s *userService) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ? AND is_active = ?", strings.ToLower(username), true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// UpdateUser updates an operator account's username or role.
func (s *userService) UpdateUser(id uint, username string, role models.UserRole) (*models.User, error) {
	user, err := s.GetUserByID(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if username != "" && strings.ToLower(username) != user.Username {
		username = strings.ToLower(username)
		if err := s.checkUsername(username, id); err != nil {
			return nil, err
		}
		updates["username"] = username
	}
	if role != "" {
		updates["role"] = role
	}

	if len(updates) > 0 {
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return user, nil
}

// DeleteUser deletes an operator account.
func (s *userService) DeleteUser(id uint) error {
	user, err := s.GetUserByID(id)
	if err != nil {
		return err
	}
	if err := s.db.Delete(user).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// VerifyPassword checks if the provided password matches the stored hash.
func (s *userService) VerifyPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// AttemptLogin authenticates a user, tracking failed attempts and the last
// successful login.
func (s *userService) AttemptLogin(username, password string) (*models.User, error) {
	user, err := s.GetUserByUsername(username)
	if err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	if !s.VerifyPassword(user, password) {
		s.db.Model(user).Update("failed_login_attempts", gorm.Expr("failed_login_attempts + 1"))
		return nil, apperrors.ErrInvalidCredentials
	}

	now := time.Now()
	s.db.Model(user).Updates(map[string]interface{}{
		"failed_login_attempts": 0,
		"last_login_at":         &now,
	})
	return user, nil
}

func (s *userService) checkUsername(username string, excludeID uint) error {
	var count int64
	q := s.db.Model(&models.User{}).Where("username = ?", username)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.WithMessage(apperrors.ErrNameConflict, "a user named "+username+" already exists")
	}
	return nil
}

// --- resources.Adapter ---

var userFields = map[string]bool{
	"username":  true,
	"role":      true,
	"is_active": true,
}

// Type implements resources.Adapter.
func (s *userService) Type() resources.Type {
	return resources.TypeUser
}

// Get implements resources.Adapter. The password hash rides along for change
// detection only; the capturer masks it before storage.
func (s *userService) Get(id uint) (resources.State, error) {
	user, err := s.GetUserByID(id)
	if err != nil {
		return nil, err
	}
	state, err := resources.Snapshot(user)
	if err != nil {
		return nil, err
	}
	if user.PasswordHash != "" {
		state["password_hash"] = user.PasswordHash
	}
	return state, nil
}

// Create implements resources.Adapter: a restored user account comes back
// deactivated and without a password; an administrator re-enables it after
// setting new credentials.
func (s *userService) Create(state resources.State) (uint, string, error) {
	var user models.User
	if err := decodeState(state, &user); err != nil {
		return 0, "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.Base = models.Base{}
	user.PasswordHash = ""
	user.IsActive = false

	if err := s.checkUsername(user.Username, 0); err != nil {
		return 0, "", err
	}
	if err := s.db.Create(&user).Error; err != nil {
		return 0, "", apperrors.Wrap(apperrors.ErrAdapterFailure, err)
	}
	return user.ID, user.Username, nil
}

// Update implements resources.Adapter.
func (s *userService) Update(id uint, fields resources.State) error {
	user, err := s.GetUserByID(id)
	if err != nil {
		return err
	}
	updates := filterFields(fields, userFields)
	if username, ok := updates["username"].(string); ok && username != user.Username {
		if err := s.checkUsername(username, id); err != nil {
			return err
		}
	}
	if len(updates) == 0 {
		return nil
	}
	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrAdapterFailure, err)
	}
	return nil
}
