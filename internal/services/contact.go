package services

import (
	"context"
	"errors"
	"strings"

	"github.com/driveline-motors/apiserver/internal/store"
	"github.com/driveline-motors/apiserver/types"
)

// ContactRepository defines persistence operations for contact messages.
type ContactRepository interface {
	Create(ctx context.Context, contact types.Contact) (types.Contact, error)
	List(ctx context.Context) ([]types.Contact, error)
	UpdateStatus(ctx context.Context, id int, status string) error
}

// ContactService encapsulates the public contact form and its admin inbox.
type ContactService struct {
	repo ContactRepository
}

func NewContactService(repo ContactRepository) *ContactService {
	return &ContactService{repo: repo}
}

// Create stores a contact form submission. userID is attached
// opportunistically when the submitter carried a valid bearer token.
func (s *ContactService) Create(ctx context.Context, name, email, subject, message string, userID *int) (types.Contact, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	subject = strings.TrimSpace(subject)
	message = strings.TrimSpace(message)

	if name == "" || email == "" || subject == "" || message == "" {
		return types.Contact{}, validationError("All fields are required")
	}
	if !validEmail(email) {
		return types.Contact{}, formatError("Invalid email format")
	}

	return s.repo.Create(ctx, types.Contact{
		Name:    name,
		Email:   email,
		Subject: subject,
		Message: message,
		Status:  types.ContactStatusNew,
		UserID:  userID,
	})
}

func (s *ContactService) List(ctx context.Context) ([]types.Contact, error) {
	return s.repo.List(ctx)
}

func (s *ContactService) UpdateStatus(ctx context.Context, id int, status string) error {
	if !types.ValidContactStatus(status) {
		return validationError("Invalid contact status")
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFoundError("Contact message not found")
		}
		return err
	}
	return nil
}
