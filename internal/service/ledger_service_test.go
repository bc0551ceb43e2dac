package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"gambling-bot/internal/adapter/storage/memory"
	"gambling-bot/internal/core/domain"
	"gambling-bot/internal/core/ports/mocks"
	"gambling-bot/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestLedger(t *testing.T) (*LedgerServiceImpl, *memory.LedgerStore) {
	t.Helper()
	store := memory.NewLedgerStore()
	svc, err := NewLedgerService(context.Background(), store, zerolog.Nop())
	require.NoError(t, err)
	return svc, store
}

func TestLedgerService_NewLedger_DefaultCurrencies(t *testing.T) {
	svc, _ := newTestLedger(t)
	assert.Equal(t, []string{"money_1", "money_2"}, svc.Currencies())
}

func TestLedgerService_NewLedger_LoadError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockLedgerRepository(ctrl)
	repo.EXPECT().Load(gomock.Any()).Return(nil, errors.New("corrupt document"))

	_, err := NewLedgerService(context.Background(), repo, zerolog.Nop())
	assert.ErrorContains(t, err, "corrupt document")
}

func TestLedgerService_EnsureWallet(t *testing.T) {
	svc, store := newTestLedger(t)
	ctx := context.Background()

	w, err := svc.EnsureWallet(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"money_1": 0, "money_2": 0}, w.Balances)
	assert.Equal(t, 1, store.Saves())

	_, err = svc.EnsureWallet(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, store.Saves(), "idempotent call must not persist again")

	for _, c := range svc.Currencies() {
		bal, err := svc.Balance(ctx, "u1", c)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, bal, int64(0))
	}
}

func TestLedgerService_EnsureWallet_ReturnsCopy(t *testing.T) {
	svc, _ := newTestLedger(t)
	ctx := context.Background()

	w, err := svc.EnsureWallet(ctx, "u1")
	require.NoError(t, err)
	w.Balances["money_1"] = 1000

	bal, err := svc.Balance(ctx, "u1", "money_1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), bal)
}

func TestLedgerService_Balance_Errors(t *testing.T) {
	svc, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := svc.Balance(ctx, "ghost", "money_1")
	assert.ErrorIs(t, err, apperror.ErrUserNotFound())

	_, err = svc.EnsureWallet(ctx, "u1")
	require.NoError(t, err)
	_, err = svc.Balance(ctx, "u1", "gems")
	assert.ErrorIs(t, err, apperror.ErrUnknownCurrency())

	_, err = svc.Wallet(ctx, "ghost")
	assert.ErrorIs(t, err, apperror.ErrUserNotFound())
}

func TestLedgerService_Adjust_AllowsNegative(t *testing.T) {
	svc, _ := newTestLedger(t)
	ctx := context.Background()

	bal, err := svc.Adjust(ctx, "u1", "MONEY_1", 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), bal)

	bal, err = svc.Adjust(ctx, "u1", "money_1", -250)
	require.NoError(t, err)
	assert.Equal(t, int64(-150), bal)

	_, err = svc.Adjust(ctx, "u1", "gems", 1)
	assert.ErrorIs(t, err, apperror.ErrUnknownCurrency())
}

func TestLedgerService_Adjust_UnknownCurrencyCreatesNothing(t *testing.T) {
	svc, store := newTestLedger(t)
	ctx := context.Background()

	_, err := svc.Adjust(ctx, "u1", "gems", 5)
	require.Error(t, err)

	_, err = svc.Wallet(ctx, "u1")
	assert.ErrorIs(t, err, apperror.ErrUserNotFound(), "rejected operations leave no trace")
	assert.Equal(t, 0, store.Saves())
}

func TestLedgerService_Settle(t *testing.T) {
	svc, _ := newTestLedger(t)
	ctx := context.Background()
	_, err := svc.Adjust(ctx, "u1", "money_1", 100)
	require.NoError(t, err)

	bal, err := svc.Settle(ctx, "u1", "money_1", 40, true)
	require.NoError(t, err)
	assert.Equal(t, int64(140), bal)

	bal, err = svc.Settle(ctx, "u1", "money_1", 140, false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), bal)

	_, err = svc.Settle(ctx, "u1", "money_1", 1, true)
	assert.ErrorIs(t, err, apperror.ErrInsufficientFunds())

	_, err = svc.Settle(ctx, "u1", "money_1", 0, true)
	assert.ErrorIs(t, err, apperror.ErrInvalidAmount())

	_, err = svc.Settle(ctx, "u1", "gems", 1, true)
	assert.ErrorIs(t, err, apperror.ErrUnknownCurrency())
}

func TestLedgerService_OverflowRejected(t *testing.T) {
	svc, store := newTestLedger(t)
	ctx := context.Background()

	_, err := svc.Adjust(ctx, "u1", "money_1", math.MaxInt64)
	require.NoError(t, err)
	saves := store.Saves()

	_, err = svc.Adjust(ctx, "u1", "money_1", 1)
	assert.ErrorIs(t, err, apperror.ErrInvalidAmount())

	_, err = svc.Settle(ctx, "u1", "money_1", 1, true)
	assert.ErrorIs(t, err, apperror.ErrInvalidAmount())

	_, err = svc.Adjust(ctx, "u2", "money_2", math.MinInt64)
	require.NoError(t, err)
	_, err = svc.Adjust(ctx, "u2", "money_2", -1)
	assert.ErrorIs(t, err, apperror.ErrInvalidAmount())

	bal, err := svc.Balance(ctx, "u1", "money_1")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), bal)
	bal, err = svc.Balance(ctx, "u2", "money_2")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), bal)
	assert.Equal(t, saves+1, store.Saves(), "rejected overflows must not persist")
}

func TestLedgerService_SettleLargeWin(t *testing.T) {
	svc, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := svc.Adjust(ctx, "u1", "money_1", 6_000_000_000_000_000_000)
	require.NoError(t, err)

	_, err = svc.Settle(ctx, "u1", "money_1", 6_000_000_000_000_000_000, true)
	assert.ErrorIs(t, err, apperror.ErrInvalidAmount())

	bal, err := svc.Settle(ctx, "u1", "money_1", 6_000_000_000_000_000_000, false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), bal)
}

func TestCheckedAdd(t *testing.T) {
	tests := []struct {
		a, b int64
		want int64
		ok   bool
	}{
		{1, 2, 3, true},
		{math.MaxInt64, 0, math.MaxInt64, true},
		{math.MaxInt64, 1, 0, false},
		{math.MaxInt64 - 1, 1, math.MaxInt64, true},
		{math.MinInt64, -1, 0, false},
		{math.MinInt64, math.MaxInt64, -1, true},
		{-5, math.MinInt64 + 5, math.MinInt64, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d+%d", tt.a, tt.b), func(t *testing.T) {
			got, ok := checkedAdd(tt.a, tt.b)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLedgerService_Withdraw(t *testing.T) {
	svc, _ := newTestLedger(t)
	ctx := context.Background()
	_, err := svc.Adjust(ctx, "u1", "money_1", 100)
	require.NoError(t, err)

	_, err = svc.Withdraw(ctx, "u1", "money_1", 101)
	assert.ErrorIs(t, err, apperror.ErrInsufficientFunds())

	w, err := svc.Wallet(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, w.Withdrawals, "failed withdraw appends nothing")

	bal, err := svc.Withdraw(ctx, "u1", "money_1", 50)
	require.NoError(t, err)
	assert.Equal(t, int64(50), bal)

	w, err = svc.Wallet(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Withdrawal{{Amount: 50, Currency: "money_1"}}, w.Withdrawals)

	_, err = svc.Withdraw(ctx, "u1", "money_1", -5)
	assert.ErrorIs(t, err, apperror.ErrInvalidAmount())
}

func TestLedgerService_RecordWithdrawal(t *testing.T) {
	svc, _ := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, svc.RecordWithdrawal(ctx, "u1", 10, "money_2"))
	require.NoError(t, svc.RecordWithdrawal(ctx, "u1", 20, "money_1"))

	w, err := svc.Wallet(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Withdrawal{
		{Amount: 10, Currency: "money_2"},
		{Amount: 20, Currency: "money_1"},
	}, w.Withdrawals)
	assert.Equal(t, int64(0), w.Balances["money_2"], "recording does not debit")

	assert.ErrorIs(t, svc.RecordWithdrawal(ctx, "u1", 0, "money_1"), apperror.ErrInvalidAmount())
}

func TestLedgerService_CreateCurrency(t *testing.T) {
	svc, _ := newTestLedger(t)
	ctx := context.Background()
	_, err := svc.EnsureWallet(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, svc.CreateCurrency(ctx, "Gems"))
	assert.Equal(t, []string{"money_1", "money_2", "gems"}, svc.Currencies())

	bal, err := svc.Balance(ctx, "u1", "gems")
	require.NoError(t, err)
	assert.Equal(t, int64(0), bal)

	err = svc.CreateCurrency(ctx, "gems")
	assert.ErrorIs(t, err, apperror.ErrCurrencyExists())

	assert.ErrorIs(t, svc.CreateCurrency(ctx, "   "), apperror.ErrUnknownCurrency())
}

func TestLedgerService_DeleteCurrency(t *testing.T) {
	svc, _ := newTestLedger(t)
	ctx := context.Background()
	require.NoError(t, svc.CreateCurrency(ctx, "gems"))
	_, err := svc.Adjust(ctx, "u1", "gems", 10)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCurrency(ctx, "GEMS"))
	assert.Equal(t, []string{"money_1", "money_2"}, svc.Currencies())

	w, err := svc.Wallet(ctx, "u1")
	require.NoError(t, err)
	assert.NotContains(t, w.Balances, "gems")

	_, err = svc.Settle(ctx, "u1", "gems", 1, true)
	assert.ErrorIs(t, err, apperror.ErrUnknownCurrency())

	assert.ErrorIs(t, svc.DeleteCurrency(ctx, "gems"), apperror.ErrCurrencyNotFound())
}

func TestLedgerService_SaveFailureLeavesStateUntouched(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockLedgerRepository(ctrl)
	ctx := context.Background()

	initial := domain.NewLedger(domain.DefaultCurrencies)
	w, _ := initial.EnsureWallet("u1")
	w.Balances["money_1"] = 100

	repo.EXPECT().Load(gomock.Any()).Return(initial, nil)
	repo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("disk full")).Times(2)

	svc, err := NewLedgerService(ctx, repo, zerolog.Nop())
	require.NoError(t, err)

	_, err = svc.Withdraw(ctx, "u1", "money_1", 50)
	assert.ErrorIs(t, err, apperror.ErrStorage(nil))

	err = svc.CreateCurrency(ctx, "gems")
	require.Error(t, err)

	bal, err := svc.Balance(ctx, "u1", "money_1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), bal)
	assert.Equal(t, []string{"money_1", "money_2"}, svc.Currencies())

	wallet, err := svc.Wallet(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, wallet.Withdrawals)
}

func TestLedgerService_PersistsBeforeReturning(t *testing.T) {
	svc, store := newTestLedger(t)
	ctx := context.Background()

	_, err := svc.Adjust(ctx, "u1", "money_1", 75)
	require.NoError(t, err)

	persisted, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(75), persisted.Wallets["u1"].Balances["money_1"])
}

func TestLedgerService_ConcurrentAdjustNoLostUpdates(t *testing.T) {
	svc, store := newTestLedger(t)
	ctx := context.Background()

	const workers, perWorker = 20, 25
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_, err := svc.Adjust(ctx, "shared", "money_1", 1)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	bal, err := svc.Balance(ctx, "shared", "money_1")
	require.NoError(t, err)
	assert.Equal(t, int64(workers*perWorker), bal)

	persisted, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(workers*perWorker), persisted.Wallets["shared"].Balances["money_1"])
}

func TestLedgerService_ConcurrentWithdrawNeverOverdraws(t *testing.T) {
	svc, _ := newTestLedger(t)
	ctx := context.Background()
	_, err := svc.Adjust(ctx, "u1", "money_1", 10)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := svc.Withdraw(ctx, "u1", "money_1", 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, apperror.ErrInsufficientFunds(), fmt.Sprintf("worker %d", i))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	w, err := svc.Wallet(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), w.Balances["money_1"])
	assert.Len(t, w.Withdrawals, 10)
}
