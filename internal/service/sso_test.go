package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/salinaworks/salina-go/internal/apierror"
	domainauth "github.com/salinaworks/salina-go/internal/domain/auth"
	"github.com/salinaworks/salina-go/internal/mocks"
	"github.com/salinaworks/salina-go/internal/ports"
	"github.com/salinaworks/salina-go/internal/store"
)

func TestAuthAPI_LoginWithProvider(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api, sessions := newAuthFixture(t, &authBackend{user: testUser()})
	ctx := context.Background()

	identity := domainauth.Identity{
		Subject: "sub-42",
		Email:   "sso@salina.example",
		Name:    "SSO Inspector",
		Groups:  []string{"salina-admins"},
		Token:   "idp-access-token",
	}
	in := ports.ExchangeInput{Code: "code", State: "st", Nonce: "n"}

	provider := mocks.NewMockAuthProvider(ctrl)
	provider.EXPECT().Exchange(gomock.Any(), in).Return(identity, nil)
	roles := mocks.NewMockRoleMapper(ctrl)
	roles.EXPECT().Map([]string{"salina-admins"}).Return(domainauth.RoleAdmin)

	sess, err := api.LoginWithProvider(ctx, provider, roles, in)
	require.NoError(t, err)
	assert.Equal(t, "idp-access-token", sess.AccessToken)
	assert.Equal(t, domainauth.RoleAdmin, sess.User.Role)
	assert.Equal(t, "sub-42", sess.User.ID)

	token, err := sessions.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "idp-access-token", token)
}

func TestAuthAPI_LoginWithProvider_ExchangeFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api, sessions := newAuthFixture(t, &authBackend{user: testUser()})

	provider := mocks.NewMockAuthProvider(ctrl)
	provider.EXPECT().Exchange(gomock.Any(), gomock.Any()).
		Return(domainauth.Identity{}, errors.New("invalid nonce"))
	roles := mocks.NewMockRoleMapper(ctrl)

	_, err := api.LoginWithProvider(context.Background(), provider, roles, ports.ExchangeInput{Code: "c", State: "s", Nonce: "n"})
	require.Error(t, err)
	_, classified := apierror.From(err)
	assert.True(t, classified, "provider failures come back classified")

	token, storeErr := sessions.Token(context.Background())
	require.NoError(t, storeErr)
	assert.Empty(t, token)
}

func TestSessionStore_BackendErrorsSurfaceClassified(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := mocks.NewMockKV(ctrl)
	kv.EXPECT().Get(gomock.Any(), gomock.Any()).Return("", false, context.DeadlineExceeded)

	sessions := store.NewSessionStore(kv)
	_, err := sessions.Token(context.Background())
	require.Error(t, err)
	assert.True(t, apierror.IsTimeout(err), "backend errors pass through the storage taxonomy")
}
