package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/contactbook/contactbook-go/internal/model"
	"github.com/contactbook/contactbook-go/internal/repository"
)

// EmailMatch selects how GetByEmail compares the requested email.
type EmailMatch string

const (
	EmailMatchExact     EmailMatch = "exact"
	EmailMatchSubstring EmailMatch = "substring"
)

const (
	maxFieldLength = 255
	maxEmailLength = 320
	maxPhoneLength = 64
)

// TokenResolver maps a bearer token to the account holding it.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (model.Account, error)
}

// ContactService is the access-gated contact store. Every operation resolves
// the caller's token before touching the repository.
type ContactService struct {
	auth  TokenResolver
	repo  *repository.ContactRepository
	match EmailMatch
}

// NewContactService creates a new ContactService.
func NewContactService(auth TokenResolver, repo *repository.ContactRepository, match EmailMatch) *ContactService {
	if match != EmailMatchSubstring {
		match = EmailMatchExact
	}
	return &ContactService{auth: auth, repo: repo, match: match}
}

// Create validates and stores a new contact, returning it with its generated id.
func (s *ContactService) Create(ctx context.Context, token string, req model.ContactRequest) (model.Contact, error) {
	account, err := s.auth.Resolve(ctx, token)
	if err != nil {
		return model.Contact{}, err
	}

	var c model.Contact
	req.Apply(&c)
	normalizeContact(&c)
	if err := validateContact(c); err != nil {
		return model.Contact{}, err
	}

	if err := s.repo.Create(ctx, &c); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.Contact{}, ErrEmailTaken
		}
		return model.Contact{}, storeError(err)
	}

	slog.InfoContext(ctx, "contact created", "contact_id", c.ID, "account_id", account.ID)
	return c, nil
}

// List returns all contacts ordered by id.
func (s *ContactService) List(ctx context.Context, token string) ([]model.Contact, error) {
	if _, err := s.auth.Resolve(ctx, token); err != nil {
		return nil, err
	}

	contacts, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	return contacts, nil
}

// GetByEmail finds one contact by email, exactly or by substring depending on
// configuration. A substring match returns the lowest-id contact.
func (s *ContactService) GetByEmail(ctx context.Context, token, email string) (model.Contact, error) {
	if _, err := s.auth.Resolve(ctx, token); err != nil {
		return model.Contact{}, err
	}
	return s.getByEmail(ctx, email)
}

// Get finds a contact by id, or by email using the configured match mode.
func (s *ContactService) Get(ctx context.Context, token string, ref model.ContactRef) (model.Contact, error) {
	if _, err := s.auth.Resolve(ctx, token); err != nil {
		return model.Contact{}, err
	}

	if ref.Email != "" {
		return s.getByEmail(ctx, ref.Email)
	}

	c, err := s.repo.Get(ctx, ref)
	if err != nil {
		return model.Contact{}, contactError(err)
	}
	return *c, nil
}

// Search returns every contact whose email contains fragment.
func (s *ContactService) Search(ctx context.Context, token, fragment string) ([]model.Contact, error) {
	if _, err := s.auth.Resolve(ctx, token); err != nil {
		return nil, err
	}

	fragment = strings.ToLower(strings.TrimSpace(fragment))
	if fragment == "" {
		return nil, validationError("email query parameter is required")
	}

	contacts, err := s.repo.SearchByEmail(ctx, fragment)
	if err != nil {
		return nil, storeError(err)
	}
	return contacts, nil
}

// Update overwrites every mutable field of the referenced contact.
func (s *ContactService) Update(ctx context.Context, token string, ref model.ContactRef, req model.ContactRequest) (model.Contact, error) {
	return s.mutate(ctx, token, ref, req.Apply)
}

// Patch changes only the fields present in the patch.
func (s *ContactService) Patch(ctx context.Context, token string, ref model.ContactRef, patch model.ContactPatch) (model.Contact, error) {
	return s.mutate(ctx, token, ref, patch.Apply)
}

// Delete removes the referenced contact and returns the value it held before deletion.
func (s *ContactService) Delete(ctx context.Context, token string, ref model.ContactRef) (model.Contact, error) {
	account, err := s.auth.Resolve(ctx, token)
	if err != nil {
		return model.Contact{}, err
	}

	c, err := s.repo.Delete(ctx, ref)
	if err != nil {
		return model.Contact{}, contactError(err)
	}

	slog.InfoContext(ctx, "contact deleted", "contact_id", c.ID, "account_id", account.ID)
	return *c, nil
}

func (s *ContactService) mutate(ctx context.Context, token string, ref model.ContactRef, apply func(*model.Contact)) (model.Contact, error) {
	account, err := s.auth.Resolve(ctx, token)
	if err != nil {
		return model.Contact{}, err
	}

	c, err := s.repo.Update(ctx, ref, func(c *model.Contact) error {
		apply(c)
		normalizeContact(c)
		return validateContact(*c)
	})
	if err != nil {
		return model.Contact{}, contactError(err)
	}

	slog.InfoContext(ctx, "contact updated", "contact_id", c.ID, "account_id", account.ID)
	return *c, nil
}

func (s *ContactService) getByEmail(ctx context.Context, email string) (model.Contact, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return model.Contact{}, ErrContactNotFound
	}

	var (
		c   *model.Contact
		err error
	)
	if s.match == EmailMatchSubstring {
		c, err = s.repo.FirstByEmailFragment(ctx, email)
	} else {
		c, err = s.repo.GetByEmail(ctx, email)
	}
	if err != nil {
		return model.Contact{}, contactError(err)
	}
	return *c, nil
}

// contactError maps repository errors of contact operations; service errors
// raised inside a transaction pass through untouched.
func contactError(err error) error {
	var svcErr *Error
	switch {
	case errors.As(err, &svcErr):
		return err
	case errors.Is(err, repository.ErrContactNotFound):
		return ErrContactNotFound
	case errors.Is(err, repository.ErrDuplicateEmail):
		return ErrEmailTaken
	default:
		return storeError(err)
	}
}

func normalizeContact(c *model.Contact) {
	c.Name = strings.TrimSpace(c.Name)
	c.FirstSurname = strings.TrimSpace(c.FirstSurname)
	c.SecondSurname = strings.TrimSpace(c.SecondSurname)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Phone = strings.TrimSpace(c.Phone)
}

func validateContact(c model.Contact) error {
	required := []struct {
		field, value string
	}{
		{"nombre", c.Name},
		{"primer_apellido", c.FirstSurname},
		{"email", c.Email},
		{"telefono", c.Phone},
	}
	for _, r := range required {
		if r.value == "" {
			return validationError("%s is required", r.field)
		}
	}

	for _, f := range []struct {
		field, value string
		max          int
	}{
		{"nombre", c.Name, maxFieldLength},
		{"primer_apellido", c.FirstSurname, maxFieldLength},
		{"segundo_apellido", c.SecondSurname, maxFieldLength},
		{"email", c.Email, maxEmailLength},
		{"telefono", c.Phone, maxPhoneLength},
	} {
		if len(f.value) > f.max {
			return validationError("%s must be at most %d characters", f.field, f.max)
		}
	}

	if !plausibleEmail(c.Email) {
		return validationError("email %q is not a valid address", c.Email)
	}
	return nil
}

// plausibleEmail accepts a bare address (no display name) with a dotted domain.
func plausibleEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}
