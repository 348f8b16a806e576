package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactbook/contactbook-go/internal/model"
)

func newContactRepo(t *testing.T) *ContactRepository {
	t.Helper()
	return NewContactRepository(newSQLiteDB(t))
}

func seedContact(t *testing.T, repo *ContactRepository, email string) model.Contact {
	t.Helper()
	c := model.Contact{
		Name:          "Ana",
		FirstSurname:  "García",
		SecondSurname: "López",
		Email:         email,
		Phone:         "555-0100",
	}
	require.NoError(t, repo.Create(context.Background(), &c))
	return c
}

func TestContactCreate_AssignsIncreasingIDs(t *testing.T) {
	repo := newContactRepo(t)

	first := seedContact(t, repo, "a@x.com")
	second := seedContact(t, repo, "b@x.com")

	assert.Equal(t, int64(1), first.ID)
	assert.Greater(t, second.ID, first.ID)
}

func TestContactCreate_DuplicateEmail(t *testing.T) {
	repo := newContactRepo(t)
	seedContact(t, repo, "a@x.com")

	dup := model.Contact{Name: "Otra", FirstSurname: "P", Email: "a@x.com", Phone: "1"}
	err := repo.Create(context.Background(), &dup)
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestContactList_EmptyIsNotNil(t *testing.T) {
	repo := newContactRepo(t)

	contacts, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, contacts)
	assert.Empty(t, contacts)
}

func TestContactList_OrderedByID(t *testing.T) {
	repo := newContactRepo(t)
	seedContact(t, repo, "z@x.com")
	seedContact(t, repo, "a@x.com")

	contacts, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "z@x.com", contacts[0].Email)
	assert.Equal(t, "a@x.com", contacts[1].Email)
}

func TestContactGet_ByIDAndEmail(t *testing.T) {
	repo := newContactRepo(t)
	want := seedContact(t, repo, "a@x.com")
	ctx := context.Background()

	byID, err := repo.Get(ctx, model.ContactRef{ID: want.ID})
	require.NoError(t, err)
	assert.Equal(t, want, *byID)

	byEmail, err := repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, want, *byEmail)

	_, err = repo.Get(ctx, model.ContactRef{ID: 404})
	assert.ErrorIs(t, err, ErrContactNotFound)
}

func TestContactSearchByEmail_EscapesWildcards(t *testing.T) {
	repo := newContactRepo(t)
	seedContact(t, repo, "ana_1@x.com")
	seedContact(t, repo, "anab1@x.com")
	ctx := context.Background()

	got, err := repo.SearchByEmail(ctx, "ana_")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ana_1@x.com", got[0].Email)

	got, err = repo.SearchByEmail(ctx, "%")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = repo.SearchByEmail(ctx, "@x.com")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestContactFirstByEmailFragment(t *testing.T) {
	repo := newContactRepo(t)
	first := seedContact(t, repo, "ana@x.com")
	seedContact(t, repo, "mariana@x.com")
	ctx := context.Background()

	got, err := repo.FirstByEmailFragment(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = repo.FirstByEmailFragment(ctx, "nobody")
	assert.ErrorIs(t, err, ErrContactNotFound)
}

func TestContactUpdate_Overwrites(t *testing.T) {
	repo := newContactRepo(t)
	c := seedContact(t, repo, "a@x.com")
	ctx := context.Background()

	updated, err := repo.Update(ctx, model.ContactRef{ID: c.ID}, func(cur *model.Contact) error {
		cur.Phone = "555-9999"
		cur.ID = 1000
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, c.ID, updated.ID, "id is immutable")
	assert.Equal(t, "555-9999", updated.Phone)

	stored, err := repo.Get(ctx, model.ContactRef{ID: c.ID})
	require.NoError(t, err)
	assert.Equal(t, *updated, *stored)
}

func TestContactUpdate_MutateErrorRollsBack(t *testing.T) {
	repo := newContactRepo(t)
	c := seedContact(t, repo, "a@x.com")
	ctx := context.Background()
	boom := errors.New("rejected")

	_, err := repo.Update(ctx, model.ContactRef{Email: "a@x.com"}, func(cur *model.Contact) error {
		cur.Name = "changed"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := repo.Get(ctx, model.ContactRef{ID: c.ID})
	require.NoError(t, err)
	assert.Equal(t, "Ana", stored.Name)
}

func TestContactUpdate_DuplicateEmail(t *testing.T) {
	repo := newContactRepo(t)
	seedContact(t, repo, "a@x.com")
	b := seedContact(t, repo, "b@x.com")

	_, err := repo.Update(context.Background(), model.ContactRef{ID: b.ID}, func(cur *model.Contact) error {
		cur.Email = "a@x.com"
		return nil
	})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestContactUpdate_NotFound(t *testing.T) {
	repo := newContactRepo(t)

	called := false
	_, err := repo.Update(context.Background(), model.ContactRef{ID: 5}, func(*model.Contact) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrContactNotFound)
	assert.False(t, called, "mutate must not run for a missing contact")
}

func TestContactDelete_ReturnsPreviousValue(t *testing.T) {
	repo := newContactRepo(t)
	c := seedContact(t, repo, "a@x.com")
	ctx := context.Background()

	deleted, err := repo.Delete(ctx, model.ContactRef{Email: "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, c, *deleted)

	_, err = repo.GetByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, ErrContactNotFound)

	_, err = repo.Delete(ctx, model.ContactRef{ID: c.ID})
	assert.ErrorIs(t, err, ErrContactNotFound)
}
