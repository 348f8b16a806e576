package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactbook/contactbook-go/internal/model"
	"github.com/contactbook/contactbook-go/internal/repository"
)

type contactFixture struct {
	svc   *ContactService
	token string
}

func newContactFixture(t *testing.T, match EmailMatch) contactFixture {
	t.Helper()
	db := newTestDB(t)
	auth := newTestAuthService(t, db, 0)
	token := registerAndLogin(t, auth, "ana", "pw1")

	return contactFixture{
		svc:   NewContactService(auth, repository.NewContactRepository(db), match),
		token: token,
	}
}

func anaRequest(email string) model.ContactRequest {
	return model.ContactRequest{
		Name:          "Ana",
		FirstSurname:  "García",
		SecondSurname: "López",
		Email:         email,
		Phone:         "555-0100",
	}
}

func TestContactCreate_ThenGetByEmail(t *testing.T) {
	f := newContactFixture(t, EmailMatchExact)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.token, anaRequest("a@x.com"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)

	got, err := f.svc.GetByEmail(ctx, f.token, "a@x.com")
	require.NoError(t, err)

	want := model.Contact{ID: got.ID}
	anaRequest("a@x.com").Apply(&want)
	assert.Equal(t, want, got)
}

func TestContactCreate_NormalizesInput(t *testing.T) {
	f := newContactFixture(t, EmailMatchExact)

	req := anaRequest("  A@X.Com ")
	req.Name = "  Ana "
	created, err := f.svc.Create(context.Background(), f.token, req)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", created.Email)
	assert.Equal(t, "Ana", created.Name)
}

func TestContactCreate_DuplicateEmailConflicts(t *testing.T) {
	f := newContactFixture(t, EmailMatchExact)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.token, anaRequest("a@x.com"))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, f.token, anaRequest("A@x.com"))
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Equal(t, KindConflict, KindOf(err))

	got, err := f.svc.GetByEmail(ctx, f.token, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

func TestContactCreate_Validation(t *testing.T) {
	f := newContactFixture(t, EmailMatchExact)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*model.ContactRequest)
	}{
		{"missing name", func(r *model.ContactRequest) { r.Name = "" }},
		{"missing first surname", func(r *model.ContactRequest) { r.FirstSurname = " " }},
		{"missing phone", func(r *model.ContactRequest) { r.Phone = "" }},
		{"missing email", func(r *model.ContactRequest) { r.Email = "" }},
		{"email without at", func(r *model.ContactRequest) { r.Email = "ana.x.com" }},
		{"email without dotted domain", func(r *model.ContactRequest) { r.Email = "ana@localhost" }},
		{"email with display name", func(r *model.ContactRequest) { r.Email = "Ana <a@x.com>" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := anaRequest("a@x.com")
			tt.mutate(&req)
			_, err := f.svc.Create(ctx, f.token, req)
			assert.Equal(t, KindValidation, KindOf(err), "err = %v", err)
		})
	}
}

func TestContactCreate_SecondSurnameOptional(t *testing.T) {
	f := newContactFixture(t, EmailMatchExact)

	req := anaRequest("a@x.com")
	req.SecondSurname = ""
	_, err := f.svc.Create(context.Background(), f.token, req)
	assert.NoError(t, err)
}

func TestContactList_EmptyThenPopulated(t *testing.T) {
	f := newContactFixture(t, EmailMatchExact)
	ctx := context.Background()

	contacts, err := f.svc.List(ctx, f.token)
	require.NoError(t, err)
	assert.NotNil(t, contacts)
	assert.Empty(t, contacts)

	_, err = f.svc.Create(ctx, f.token, anaRequest("a@x.com"))
	require.NoError(t, err)

	contacts, err = f.svc.List(ctx, f.token)
	require.NoError(t, err)
	assert.Len(t, contacts, 1)
}

func TestContactGetByEmail_SubstringMode(t *testing.T) {
	f := newContactFixture(t, EmailMatchSubstring)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.token, anaRequest("ana@x.com"))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.token, anaRequest("mariana@x.com"))
	require.NoError(t, err)

	got, err := f.svc.GetByEmail(ctx, f.token, "ANA")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = f.svc.GetByEmail(ctx, f.token, "zzz")
	assert.ErrorIs(t, err, ErrContactNotFound)
}

func TestContactGetByEmail_ExactModeIgnoresFragments(t *testing.T) {
	f := newContactFixture(t, EmailMatchExact)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.token, anaRequest("ana@x.com"))
	require.NoError(t, err)

	_, err = f.svc.GetByEmail(ctx, f.token, "ana")
	assert.ErrorIs(t, err, ErrContactNotFound)
}

func TestContactGet_ByID(t *testing.T) {
	f := newContactFixture(t, EmailMatchExact)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.token, anaRequest("a@x.com"))
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, f.token, model.ContactRef{ID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = f.svc.Get(ctx, f.token, model.ContactRef{ID: 999})
	assert.ErrorIs(t, err, ErrContactNotFound)
}

func TestContactSearch(t *testing.T) {
	f := newContactFixture(t, EmailMatchExact)
	ctx := context.Background()

	for _, email := range []string{"ana@x.com", "mariana@y.com", "luis@x.com"} {
		_, err := f.svc.Create(ctx, f.token, anaRequest(email))
		require.NoError(t, err)
	}

	got, err := f.svc.Search(ctx, f.token, "ana")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = f.svc.Search(ctx, f.token, "nobody")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = f.svc.Search(ctx, f.token, " ")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestContactUpdate(t *testing.T) {
	f := newContactFixture(t, EmailMatchExact)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.token, anaRequest("a@x.com"))
	require.NoError(t, err)

	req := anaRequest("ana.nueva@x.com")
	req.Phone = "555-0199"
	updated, err := f.svc.Update(ctx, f.token, model.ContactRef{ID: created.ID}, req)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "ana.nueva@x.com", updated.Email)
	assert.Equal(t, "555-0199", updated.Phone)

	_, err = f.svc.GetByEmail(ctx, f.token, "a@x.com")
	assert.ErrorIs(t, err, ErrContactNotFound)
}

func TestContactUpdate_ByEmailRef(t *testing.T) {
	f := newContactFixture(t, EmailMatchExact)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.token, anaRequest("a@x.com"))
	require.NoError(t, err)

	req := anaRequest("a@x.com")
	req.Name = "Anabel"
	updated, err := f.svc.Update(ctx, f.token, model.ParseContactRef("a@x.com"), req)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Anabel", updated.Name)
}

func TestContactUpdate_Errors(t *testing.T) {
	f := newContactFixture(t, EmailMatchExact)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.token, anaRequest("a@x.com"))
	require.NoError(t, err)
	b, err := f.svc.Create(ctx, f.token, anaRequest("b@x.com"))
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, f.token, model.ContactRef{ID: 999}, anaRequest("c@x.com"))
	assert.ErrorIs(t, err, ErrContactNotFound)

	_, err = f.svc.Update(ctx, f.token, model.ContactRef{ID: b.ID}, anaRequest("a@x.com"))
	assert.ErrorIs(t, err, ErrEmailTaken)

	invalid := anaRequest("b@x.com")
	invalid.Name = ""
	_, err = f.svc.Update(ctx, f.token, model.ContactRef{ID: b.ID}, invalid)
	assert.Equal(t, KindValidation, KindOf(err))

	stored, err := f.svc.Get(ctx, f.token, model.ContactRef{ID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, b, stored, "failed updates must leave the record untouched")
}

func TestContactPatch_OnlyChangesGivenFields(t *testing.T) {
	f := newContactFixture(t, EmailMatchExact)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.token, anaRequest("a@x.com"))
	require.NoError(t, err)

	phone := " 555-0142 "
	patched, err := f.svc.Patch(ctx, f.token, model.ContactRef{ID: created.ID}, model.ContactPatch{Phone: &phone})
	require.NoError(t, err)

	want := created
	want.Phone = "555-0142"
	assert.Equal(t, want, patched)

	empty := ""
	_, err = f.svc.Patch(ctx, f.token, model.ContactRef{ID: created.ID}, model.ContactPatch{Name: &empty})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestContactDelete_ThenNotFound(t *testing.T) {
	f := newContactFixture(t, EmailMatchExact)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.token, anaRequest("a@x.com"))
	require.NoError(t, err)

	deleted, err := f.svc.Delete(ctx, f.token, model.ContactRef{ID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, created, deleted)

	_, err = f.svc.GetByEmail(ctx, f.token, "a@x.com")
	assert.ErrorIs(t, err, ErrContactNotFound)

	_, err = f.svc.Delete(ctx, f.token, model.ContactRef{ID: created.ID})
	assert.ErrorIs(t, err, ErrContactNotFound)
}

func TestContactOperations_RequireValidToken(t *testing.T) {
	f := newContactFixture(t, EmailMatchExact)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.token, anaRequest("a@x.com"))
	require.NoError(t, err)
	ref := model.ContactRef{ID: created.ID}

	for _, token := range []string{"", "garbage"} {
		_, err := f.svc.Create(ctx, token, anaRequest("b@x.com"))
		assert.ErrorIs(t, err, ErrInvalidToken)

		_, err = f.svc.List(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)

		_, err = f.svc.GetByEmail(ctx, token, "a@x.com")
		assert.ErrorIs(t, err, ErrInvalidToken)

		_, err = f.svc.Get(ctx, token, ref)
		assert.ErrorIs(t, err, ErrInvalidToken)

		_, err = f.svc.Search(ctx, token, "a")
		assert.ErrorIs(t, err, ErrInvalidToken)

		_, err = f.svc.Update(ctx, token, ref, anaRequest("a@x.com"))
		assert.ErrorIs(t, err, ErrInvalidToken)

		_, err = f.svc.Patch(ctx, token, ref, model.ContactPatch{})
		assert.ErrorIs(t, err, ErrInvalidToken)

		_, err = f.svc.Delete(ctx, token, ref)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}

	_, err = f.svc.Get(ctx, f.token, ref)
	assert.NoError(t, err, "rejected calls must not have modified the store")
}
