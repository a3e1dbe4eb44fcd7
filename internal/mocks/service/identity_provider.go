// Package service contains hand-written testify doubles for the external
// collaborator interfaces.
package service

import (
	"context"
	"testing"

	domainservice "scanengine/internal/domain/service"

	"github.com/stretchr/testify/mock"
)

// MockIdentityProvider is a testify mock for service.IdentityProvider.
type MockIdentityProvider struct {
	mock.Mock
}

// NewMockIdentityProvider creates the mock and registers expectation
// assertion on test cleanup.
func NewMockIdentityProvider(t *testing.T) *MockIdentityProvider {
	m := &MockIdentityProvider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockIdentityProvider) SignUp(ctx context.Context, input domainservice.SignUpInput) (*domainservice.AuthResult, error) {
	args := m.Called(ctx, input)

	return result(args)
}

func (m *MockIdentityProvider) ConfirmSignUp(ctx context.Context, email, code string) (*domainservice.AuthResult, error) {
	args := m.Called(ctx, email, code)

	return result(args)
}

func (m *MockIdentityProvider) ResendConfirmation(ctx context.Context, email string) (*domainservice.AuthResult, error) {
	args := m.Called(ctx, email)

	return result(args)
}

func (m *MockIdentityProvider) SignIn(ctx context.Context, email, password string) (*domainservice.AuthResult, error) {
	args := m.Called(ctx, email, password)

	return result(args)
}

func (m *MockIdentityProvider) Refresh(ctx context.Context, refreshToken string) (*domainservice.AuthResult, error) {
	args := m.Called(ctx, refreshToken)

	return result(args)
}

func (m *MockIdentityProvider) ForgotPassword(ctx context.Context, email string) (*domainservice.AuthResult, error) {
	args := m.Called(ctx, email)

	return result(args)
}

func (m *MockIdentityProvider) ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) (*domainservice.AuthResult, error) {
	args := m.Called(ctx, email, code, newPassword)

	return result(args)
}

func (m *MockIdentityProvider) GetUserInfo(ctx context.Context, accessToken string) (map[string]string, error) {
	args := m.Called(ctx, accessToken)
	if attrs, ok := args.Get(0).(map[string]string); ok {
		return attrs, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockIdentityProvider) GuestSignUp(ctx context.Context, deviceID string) (*domainservice.AuthResult, error) {
	args := m.Called(ctx, deviceID)

	return result(args)
}

func result(args mock.Arguments) (*domainservice.AuthResult, error) {
	if res, ok := args.Get(0).(*domainservice.AuthResult); ok {
		return res, args.Error(1)
	}

	return nil, args.Error(1)
}
