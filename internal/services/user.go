// internal/services/user.go
package services

import (
	"errors"

	"questlab/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService handles registration, login and role changes.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Register creates a new account with the given role. The password is
// bcrypt-hashed before it is stored.
func (s *UserService) Register(username, password string, role models.Role) (*models.User, error) {
	username = sanitizeText(username)
	if username == "" {
		return nil, validationErr("username", "username is required")
	}
	if len(password) < 6 {
		return nil, validationErr("password", "password must be at least 6 characters")
	}
	if role == "" {
		role = models.RoleQuester
	}
	if !role.Valid() {
		return nil, validationErr("role", "role must be creator, quester or both")
	}

	var existing models.User
	if err := s.db.Where("username = ?", username).First(&existing).Error; err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks the credentials and returns the matching user.
func (s *UserService) Authenticate(username, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Get loads a user by ID.
func (s *UserService) Get(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateRole changes the user's own role. Any of the three roles may be
// chosen at any time.
func (s *UserService) UpdateRole(userID uint, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, validationErr("role", "role must be creator, quester or both")
	}
	user, err := s.Get(userID)
	if err != nil {
		return nil, err
	}
	user.Role = role
	if err := s.db.Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}
