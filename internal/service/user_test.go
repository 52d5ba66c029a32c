package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Profile(t *testing.T) {
	f := newFixture()
	userID := f.addUser("12 MG Road")
	svc := NewUserService(f.users)

	resp, err := svc.Profile(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "12 MG Road", resp.Address)

	_, err = svc.Profile(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_UpdateAddress(t *testing.T) {
	f := newFixture()
	userID := f.addUser("12 MG Road")
	svc := NewUserService(f.users)

	resp, err := svc.UpdateAddress(context.Background(), userID, "  4 Park Street ")
	require.NoError(t, err)
	assert.Equal(t, "4 Park Street", resp.Address)

	_, err = svc.UpdateAddress(context.Background(), userID, "   ")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.UpdateAddress(context.Background(), uuid.New(), "4 Park Street")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
