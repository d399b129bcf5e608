package services

import (
	"context"
	"testing"

	"github.com/driveline-motors/apiserver/internal/store"
	"github.com/driveline-motors/apiserver/types"
)

type fakeContactRepo struct {
	contacts map[int]types.Contact
	nextID   int
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{contacts: map[int]types.Contact{}, nextID: 1}
}

func (f *fakeContactRepo) Create(_ context.Context, contact types.Contact) (types.Contact, error) {
	contact.ID = f.nextID
	f.nextID++
	f.contacts[contact.ID] = contact
	return contact, nil
}

func (f *fakeContactRepo) List(_ context.Context) ([]types.Contact, error) {
	var contacts []types.Contact
	for _, contact := range f.contacts {
		contacts = append(contacts, contact)
	}
	return contacts, nil
}

func (f *fakeContactRepo) UpdateStatus(_ context.Context, id int, status string) error {
	contact, ok := f.contacts[id]
	if !ok {
		return store.ErrNotFound
	}
	contact.Status = status
	f.contacts[id] = contact
	return nil
}

func TestContactCreateForcesNewStatus(t *testing.T) {
	svc := NewContactService(newFakeContactRepo())

	userID := 3
	contact, err := svc.Create(context.Background(), "Bob", "bob@example.com", "Test drive", "When can I come by?", &userID)
	if err != nil {
		t.Fatalf("create contact: %v", err)
	}
	if contact.Status != types.ContactStatusNew {
		t.Fatalf("want status new, got %q", contact.Status)
	}
	if contact.UserID == nil || *contact.UserID != userID {
		t.Fatalf("submitter not attached: %+v", contact.UserID)
	}
}

func TestContactCreateValidation(t *testing.T) {
	svc := NewContactService(newFakeContactRepo())
	ctx := context.Background()

	if _, err := svc.Create(ctx, "", "bob@example.com", "s", "m", nil); err == nil || err.Error() != "All fields are required" {
		t.Fatalf("want required fields error, got %v", err)
	}
	if _, err := svc.Create(ctx, "Bob", "not-an-email", "s", "m", nil); err == nil || err.Error() != "Invalid email format" {
		t.Fatalf("want email format error, got %v", err)
	}
}

func TestContactUpdateStatus(t *testing.T) {
	repo := newFakeContactRepo()
	svc := NewContactService(repo)
	ctx := context.Background()

	contact, err := svc.Create(ctx, "Bob", "bob@example.com", "Test drive", "When?", nil)
	if err != nil {
		t.Fatalf("create contact: %v", err)
	}

	if err := svc.UpdateStatus(ctx, contact.ID, "archived"); err == nil || err.Error() != "Invalid contact status" {
		t.Fatalf("want invalid status error, got %v", err)
	}
	if err := svc.UpdateStatus(ctx, 999, types.ContactStatusRead); err == nil || err.Error() != "Contact message not found" {
		t.Fatalf("want not found error, got %v", err)
	}
	if err := svc.UpdateStatus(ctx, contact.ID, types.ContactStatusReplied); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if repo.contacts[contact.ID].Status != types.ContactStatusReplied {
		t.Fatalf("status not stored: %q", repo.contacts[contact.ID].Status)
	}
}
