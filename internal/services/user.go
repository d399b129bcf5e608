package services

import (
	"context"
	"errors"
	"strings"

	"github.com/driveline-motors/apiserver/internal/store"
	"github.com/driveline-motors/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	EmailInUse(ctx context.Context, email string, excludeID int) (bool, error)
	UsernameInUse(ctx context.Context, username string, excludeID int) (bool, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
}

// ProfileUpdate carries the optional profile fields a user may change.
// Nil fields are left untouched.
type ProfileUpdate struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

// UserService encapsulates account use-cases: signup, login, profile
// management, and password changes.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Signup creates an account. The password is stored as a bcrypt hash, never
// in plaintext. Email and username uniqueness are checked as two sequential
// existence queries before the insert; the unique indexes on the table are
// the only guard against a concurrent duplicate slipping between them.
func (s *UserService) Signup(ctx context.Context, username, email, password, role string) (types.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" || email == "" || password == "" {
		return types.User{}, validationError("All fields must be filled")
	}
	if !validEmail(email) {
		return types.User{}, formatError("Email not valid")
	}
	if !strongPassword(password) {
		return types.User{}, policyError("Password not strong enough")
	}

	if role == "" {
		role = types.RoleCustomer
	}
	if role != types.RoleCustomer && role != types.RoleAdmin {
		return types.User{}, validationError("Invalid role")
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return types.User{}, conflictError("Email already in use")
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, err
	}
	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return types.User{}, conflictError("Username already in use")
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, err
	}

	return s.repo.Create(ctx, types.User{
		Username:     username,
		Email:        email,
		Role:         role,
		PasswordHash: string(hashed),
	})
}

// Login verifies credentials and returns the matching account. The two
// distinct failure messages mirror the storefront's observed behavior.
func (s *UserService) Login(ctx context.Context, email, password string) (types.User, error) {
	email = strings.TrimSpace(email)

	if email == "" || password == "" {
		return types.User{}, validationError("All fields must be filled")
	}
	if !validEmail(email) {
		return types.User{}, formatError("Email not valid")
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, authError("Incorrect email")
		}
		return types.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, authError("Incorrect password")
	}
	return user, nil
}

// GetByID resolves the current stored identity. Used on every authorization
// check so role changes take effect without re-login.
func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, notFoundError("User not found")
		}
		return types.User{}, err
	}
	return user, nil
}

// UpdateProfile merges the provided fields into the account after checking
// that neither collides with another user.
func (s *UserService) UpdateProfile(ctx context.Context, userID int, update ProfileUpdate) (types.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return types.User{}, err
	}

	if update.Email != nil {
		email := strings.TrimSpace(*update.Email)
		if !validEmail(email) {
			return types.User{}, formatError("Email not valid")
		}
		inUse, err := s.repo.EmailInUse(ctx, email, userID)
		if err != nil {
			return types.User{}, err
		}
		if inUse {
			return types.User{}, conflictError("Email already in use")
		}
		user.Email = email
	}

	if update.Username != nil {
		username := strings.TrimSpace(*update.Username)
		if username == "" {
			return types.User{}, validationError("Username cannot be empty")
		}
		inUse, err := s.repo.UsernameInUse(ctx, username, userID)
		if err != nil {
			return types.User{}, err
		}
		if inUse {
			return types.User{}, conflictError("Username already in use")
		}
		user.Username = username
	}

	return s.repo.Update(ctx, user)
}

// ChangePassword replaces the stored hash after verifying the current
// password and re-checking the strength policy on the new one.
func (s *UserService) ChangePassword(ctx context.Context, userID int, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return validationError("All fields must be filled")
	}
	if !strongPassword(newPassword) {
		return policyError("New password not strong enough")
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return authError("Current password is incorrect")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.PasswordHash = string(hashed)
	_, err = s.repo.Update(ctx, user)
	return err
}
