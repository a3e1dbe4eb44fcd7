// Package repository contains hand-written testify doubles for the
// persistence interfaces.
package repository

import (
	"context"
	"testing"

	domainrepo "scanengine/internal/domain/repository"

	"github.com/stretchr/testify/mock"
)

// MockCredentialStore is a testify mock for repository.CredentialStore.
type MockCredentialStore struct {
	mock.Mock
}

// NewMockCredentialStore creates the mock and registers expectation
// assertion on test cleanup.
func NewMockCredentialStore(t *testing.T) *MockCredentialStore {
	m := &MockCredentialStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockCredentialStore) Get(ctx context.Context, kind domainrepo.CredentialKind) (string, error) {
	args := m.Called(ctx, kind)

	return args.String(0), args.Error(1)
}

func (m *MockCredentialStore) Set(ctx context.Context, kind domainrepo.CredentialKind, value string) error {
	args := m.Called(ctx, kind, value)

	return args.Error(0)
}

func (m *MockCredentialStore) Delete(ctx context.Context, kind domainrepo.CredentialKind) error {
	args := m.Called(ctx, kind)

	return args.Error(0)
}

func (m *MockCredentialStore) ClearAll(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
