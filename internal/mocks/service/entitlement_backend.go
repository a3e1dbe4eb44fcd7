package service

import (
	"context"
	"testing"

	domainservice "scanengine/internal/domain/service"

	"github.com/stretchr/testify/mock"
)

// MockEntitlementBackend is a testify mock for service.EntitlementBackend.
type MockEntitlementBackend struct {
	mock.Mock
}

// NewMockEntitlementBackend creates the mock and registers expectation
// assertion on test cleanup.
func NewMockEntitlementBackend(t *testing.T) *MockEntitlementBackend {
	m := &MockEntitlementBackend{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockEntitlementBackend) GetStatus(ctx context.Context, accessToken string) (*domainservice.EntitlementStatus, error) {
	args := m.Called(ctx, accessToken)

	return status(args)
}

func (m *MockEntitlementBackend) CheckEligibility(ctx context.Context, accessToken string) (*domainservice.EntitlementStatus, error) {
	args := m.Called(ctx, accessToken)

	return status(args)
}

func (m *MockEntitlementBackend) Decrement(ctx context.Context, accessToken string) (*domainservice.EntitlementStatus, error) {
	args := m.Called(ctx, accessToken)

	return status(args)
}

func (m *MockEntitlementBackend) RecordPurchase(ctx context.Context, accessToken, packageID, transactionID string) error {
	args := m.Called(ctx, accessToken, packageID, transactionID)

	return args.Error(0)
}

func status(args mock.Arguments) (*domainservice.EntitlementStatus, error) {
	if res, ok := args.Get(0).(*domainservice.EntitlementStatus); ok {
		return res, args.Error(1)
	}

	return nil, args.Error(1)
}
