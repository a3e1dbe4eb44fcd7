package service

import (
	"context"
	"testing"

	"scanengine/internal/domain/entity"
	domainservice "scanengine/internal/domain/service"

	"github.com/stretchr/testify/mock"
)

// MockBillingProvider is a testify mock for service.BillingProvider.
type MockBillingProvider struct {
	mock.Mock
}

// NewMockBillingProvider creates the mock and registers expectation
// assertion on test cleanup.
func NewMockBillingProvider(t *testing.T) *MockBillingProvider {
	m := &MockBillingProvider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockBillingProvider) PurchasePackage(ctx context.Context, pack entity.TokenPack) (*domainservice.PurchaseResult, error) {
	args := m.Called(ctx, pack)
	if res, ok := args.Get(0).(*domainservice.PurchaseResult); ok {
		return res, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockBillingProvider) RestorePurchases(ctx context.Context) (*domainservice.LedgerSnapshot, error) {
	args := m.Called(ctx)
	if res, ok := args.Get(0).(*domainservice.LedgerSnapshot); ok {
		return res, args.Error(1)
	}

	return nil, args.Error(1)
}

// MockDeviceIdentity is a testify mock for service.DeviceIdentity.
type MockDeviceIdentity struct {
	mock.Mock
}

// NewMockDeviceIdentity creates the mock and registers expectation
// assertion on test cleanup.
func NewMockDeviceIdentity(t *testing.T) *MockDeviceIdentity {
	m := &MockDeviceIdentity{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockDeviceIdentity) DeviceID(ctx context.Context) (string, error) {
	args := m.Called(ctx)

	return args.String(0), args.Error(1)
}
