package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"scanengine/internal/domain/entity"
	domainerrors "scanengine/internal/domain/errors"
	domainservice "scanengine/internal/domain/service"
	mockService "scanengine/internal/mocks/service"
	"scanengine/internal/usecase"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTokenSource is the minimal session view the entitlement service reads.
type stubTokenSource struct {
	authenticated bool
	token         string
}

func (s *stubTokenSource) AccessToken() string   { return s.token }
func (s *stubTokenSource) IsAuthenticated() bool { return s.authenticated }

func newEntitlementFixture(t *testing.T, authenticated bool) (*entitlementService, *mockService.MockEntitlementBackend, *mockService.MockBillingProvider) {
	backend := mockService.NewMockEntitlementBackend(t)
	billing := mockService.NewMockBillingProvider(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	service := NewEntitlementService(EntitlementServiceParams{
		Session: &stubTokenSource{authenticated: authenticated, token: "access-token"},
		Backend: backend,
		Billing: billing,
		Logger:  logger,
	}).(*entitlementService)

	return service, backend, billing
}

func seedBalance(service *entitlementService, balance int) {
	service.balance = entity.CreditBalance{
		TokenBalance:   balance,
		ScansRemaining: balance,
	}
}

func TestEntitlementService_RefreshStatus_RemoteWinsUnconditionally(t *testing.T) {
	service, backend, _ := newEntitlementFixture(t, true)
	seedBalance(service, 1)

	ctx := context.Background()
	backend.On("GetStatus", ctx, "access-token").Return(&domainservice.EntitlementStatus{
		TokenBalance:   5,
		ScansRemaining: 5,
		HasBalance:     true,
		ScanCount:      12,
		ScanLimit:      20,
	}, nil)

	balance := service.RefreshStatus(ctx)

	assert.Equal(t, 5, balance.TokenBalance)
	assert.Equal(t, 5, balance.ScansRemaining)
	assert.Equal(t, 12, balance.ScanCount)
	assert.Equal(t, 20, balance.ScanLimit)
}

func TestEntitlementService_RefreshStatus_FailureResetsToZero(t *testing.T) {
	service, backend, _ := newEntitlementFixture(t, true)
	seedBalance(service, 7)

	ctx := context.Background()
	backend.On("GetStatus", ctx, "access-token").Return(nil, errors.New("ledger unreachable"))

	balance := service.RefreshStatus(ctx)

	assert.Equal(t, 0, balance.TokenBalance)
	assert.Equal(t, 0, balance.ScansRemaining)
}

func TestEntitlementService_RefreshStatus_UnauthenticatedResetsToZero(t *testing.T) {
	service, _, _ := newEntitlementFixture(t, false)
	seedBalance(service, 7)

	balance := service.RefreshStatus(context.Background())

	assert.Equal(t, 0, balance.TokenBalance)
	assert.Equal(t, 0, balance.ScansRemaining)
}

func TestEntitlementService_RefreshStatus_Idempotent(t *testing.T) {
	service, backend, _ := newEntitlementFixture(t, true)

	ctx := context.Background()
	backend.On("GetStatus", ctx, "access-token").Return(&domainservice.EntitlementStatus{
		TokenBalance: 7,
		HasBalance:   true,
	}, nil).Twice()

	first := service.RefreshStatus(ctx)
	second := service.RefreshStatus(ctx)

	assert.Equal(t, first.TokenBalance, second.TokenBalance)
	assert.Equal(t, first.ScansRemaining, second.ScansRemaining)
	assert.Equal(t, 7, second.TokenBalance)
}

func TestEntitlementService_CheckCanScan_UnauthenticatedUsesLocalState(t *testing.T) {
	service, _, _ := newEntitlementFixture(t, false)

	eligibility := service.CheckCanScan(context.Background())

	assert.False(t, eligibility.CanScan)
	assert.Equal(t, 0, eligibility.ScansRemaining)
}

func TestEntitlementService_CheckCanScan_RemoteAnswerWins(t *testing.T) {
	service, backend, _ := newEntitlementFixture(t, true)
	seedBalance(service, 0)

	ctx := context.Background()
	backend.On("CheckEligibility", ctx, "access-token").Return(&domainservice.EntitlementStatus{
		TokenBalance:   2,
		ScansRemaining: 2,
		CanScan:        true,
		HasBalance:     true,
	}, nil)

	eligibility := service.CheckCanScan(ctx)

	assert.True(t, eligibility.CanScan)
	assert.Equal(t, 2, eligibility.ScansRemaining)
}

func TestEntitlementService_CheckCanScan_FallsBackToCacheOnRemoteFailure(t *testing.T) {
	service, backend, _ := newEntitlementFixture(t, true)
	seedBalance(service, 3)

	ctx := context.Background()
	backend.On("CheckEligibility", ctx, "access-token").Return(nil, errors.New("timeout"))

	eligibility := service.CheckCanScan(ctx)

	assert.True(t, eligibility.CanScan)
	assert.Equal(t, 3, eligibility.ScansRemaining)
}

func TestEntitlementService_DecrementToken_RevertsOnRemoteFailure(t *testing.T) {
	service, backend, _ := newEntitlementFixture(t, true)
	seedBalance(service, 4)

	ctx := context.Background()
	backend.On("Decrement", ctx, "access-token").Return(nil, errors.New("ledger unreachable"))

	balance, err := service.DecrementToken(ctx)

	require.Error(t, err)
	assert.Nil(t, balance)
	assert.True(t, errors.Is(err, domainerrors.ErrEntitlementUnavailable))
	// The optimistic subtraction must not survive a failed remote decrement.
	assert.Equal(t, 4, service.TokenBalance())
	assert.Equal(t, 4, service.ScansRemaining())
}

func TestEntitlementService_DecrementToken_RemoteBalanceOverridesGuess(t *testing.T) {
	service, backend, _ := newEntitlementFixture(t, true)
	seedBalance(service, 4)

	ctx := context.Background()
	// A concurrent purchase landed server-side: the ledger answers 9, not 3.
	backend.On("Decrement", ctx, "access-token").Return(&domainservice.EntitlementStatus{
		TokenBalance: 9,
		HasBalance:   true,
	}, nil)

	balance, err := service.DecrementToken(ctx)

	require.NoError(t, err)
	assert.Equal(t, 9, balance.TokenBalance)
	assert.Equal(t, 9, balance.ScansRemaining)
}

func TestEntitlementService_DecrementToken_KeepsOptimisticValueWithoutRemoteBalance(t *testing.T) {
	service, backend, _ := newEntitlementFixture(t, true)
	seedBalance(service, 4)

	ctx := context.Background()
	backend.On("Decrement", ctx, "access-token").Return(&domainservice.EntitlementStatus{}, nil)

	balance, err := service.DecrementToken(ctx)

	require.NoError(t, err)
	assert.Equal(t, 3, balance.TokenBalance)
	assert.Equal(t, 3, balance.ScansRemaining)
}

func TestEntitlementService_DecrementToken_UnauthenticatedLocalDecrementIsFinal(t *testing.T) {
	service, _, _ := newEntitlementFixture(t, false)
	seedBalance(service, 2)

	balance, err := service.DecrementToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, balance.TokenBalance)
	assert.Equal(t, 1, balance.ScansRemaining)
}

func TestEntitlementService_DecrementToken_NeverGoesNegative(t *testing.T) {
	service, _, _ := newEntitlementFixture(t, false)
	seedBalance(service, 0)

	balance, err := service.DecrementToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, balance.TokenBalance)
	assert.Equal(t, 0, balance.ScansRemaining)
}

func TestEntitlementService_PurchaseTokenPack_RefreshesEvenWhenRecordFails(t *testing.T) {
	service, backend, billing := newEntitlementFixture(t, true)

	ctx := context.Background()
	billing.On("PurchasePackage", ctx, entity.TokenPack{PackageID: "pack.10"}).
		Return(&domainservice.PurchaseResult{TransactionID: "txn-1", PackageID: "pack.10"}, nil)
	backend.On("RecordPurchase", ctx, "access-token", "pack.10", "txn-1").
		Return(errors.New("backend unreachable"))
	// The ledger is the tie-breaker regardless of our notification call.
	backend.On("GetStatus", ctx, "access-token").Return(&domainservice.EntitlementStatus{
		TokenBalance: 10,
		HasBalance:   true,
	}, nil)

	balance, err := service.PurchaseTokenPack(ctx, &usecase.PurchaseInput{PackageID: "pack.10"})

	require.NoError(t, err)
	assert.Equal(t, 10, balance.TokenBalance)
}

func TestEntitlementService_PurchaseTokenPack_BillingFailure(t *testing.T) {
	service, _, billing := newEntitlementFixture(t, true)

	ctx := context.Background()
	billing.On("PurchasePackage", ctx, entity.TokenPack{PackageID: "pack.10"}).
		Return(nil, errors.New("store declined"))

	balance, err := service.PurchaseTokenPack(ctx, &usecase.PurchaseInput{PackageID: "pack.10"})

	require.Error(t, err)
	assert.Nil(t, balance)
	assert.True(t, errors.Is(err, domainerrors.ErrPurchaseFailed))
}

func TestEntitlementService_PurchaseTokenPack_RequiresSession(t *testing.T) {
	service, _, _ := newEntitlementFixture(t, false)

	_, err := service.PurchaseTokenPack(context.Background(), &usecase.PurchaseInput{PackageID: "pack.10"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrNotAuthenticated))
}

func TestEntitlementService_RestorePurchases_RefreshesBalance(t *testing.T) {
	service, backend, billing := newEntitlementFixture(t, true)

	ctx := context.Background()
	billing.On("RestorePurchases", ctx).Return(&domainservice.LedgerSnapshot{
		Transactions: []entity.PurchaseRecord{{PackageID: "pack.10", TransactionID: "txn-1"}},
	}, nil)
	backend.On("GetStatus", ctx, "access-token").Return(&domainservice.EntitlementStatus{
		TokenBalance: 10,
		HasBalance:   true,
	}, nil)

	balance, err := service.RestorePurchases(ctx)

	require.NoError(t, err)
	assert.Equal(t, 10, balance.TokenBalance)
}
