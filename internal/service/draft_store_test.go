package service

import (
	"errors"
	"testing"
	"time"

	"github.com/fjod/thread-storefront/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftStore_CreateGetUpdate(t *testing.T) {
	s := NewDraftStore(time.Minute)
	defer s.Close()

	items := []domain.LineItem{priced("coat", "100")}
	state := s.Create(domain.CheckoutState{UserID: "u-1", Items: items})
	require.NotEmpty(t, state.ID)

	items[0].Quantity = 7
	got, err := s.Get(state.ID, "u-1")
	require.NoError(t, err)
	assert.Zero(t, got.Items[0].Quantity)

	updated, err := s.Update(state.ID, "u-1", func(st *domain.CheckoutState) error {
		st.Email = "ada@example.com"
		st.UserID = "someone-else"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", updated.Email)
	assert.Equal(t, "u-1", updated.UserID)
}

func TestDraftStore_UpdateErrorLeavesDraft(t *testing.T) {
	s := NewDraftStore(time.Minute)
	defer s.Close()
	state := s.Create(domain.CheckoutState{UserID: "u-1", Email: "a@b.co"})

	_, err := s.Update(state.ID, "u-1", func(st *domain.CheckoutState) error {
		st.Email = "changed"
		return errors.New("invalid")
	})
	require.Error(t, err)

	got, err := s.Get(state.ID, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "a@b.co", got.Email)
}

func TestDraftStore_Expiry(t *testing.T) {
	s := NewDraftStore(time.Minute)
	defer s.Close()
	now := time.Now()
	s.now = func() time.Time { return now }

	state := s.Create(domain.CheckoutState{UserID: "u-1"})
	s.now = func() time.Time { return now.Add(2 * time.Minute) }

	_, err := s.Get(state.ID, "u-1")
	assert.ErrorIs(t, err, domain.ErrDraftNotFound)
	assert.Equal(t, 1, s.Len())

	assert.Equal(t, 1, s.expireDrafts())
	assert.Zero(t, s.Len())
}

func TestDraftStore_DeleteAndClose(t *testing.T) {
	s := NewDraftStore(0)
	state := s.Create(domain.CheckoutState{UserID: "u-1"})
	s.Delete(state.ID)
	s.Delete(state.ID)

	_, err := s.Get(state.ID, "u-1")
	assert.ErrorIs(t, err, domain.ErrDraftNotFound)

	s.Close()
	s.Close()
}
