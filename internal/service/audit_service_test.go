package service

import (
	"context"
	"io"
	"testing"
	"time"

	"gambling-bot/internal/core/domain"
	"gambling-bot/internal/core/ports/mocks"

	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"
)

func newTestLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func TestAuditService_Log_PersistsToRepo(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockAuditRepository(ctrl)
	svc := NewAuditService(mockRepo, newTestLogger())

	done := make(chan struct{})
	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, log *domain.AuditLog) error {
			if log.Action != domain.AuditActionWithdraw {
				t.Errorf("expected WITHDRAW, got %s", log.Action)
			}
			close(done)
			return nil
		},
	)

	actor := domain.Caller{UserID: "42", GuildID: "g1"}
	svc.Log(context.Background(), domain.NewAuditLog(domain.AuditActionWithdraw, actor, "42", "money_1", 50).WithBalance(50))

	select {
	case <-done:
		// OK
	case <-time.After(2 * time.Second):
		t.Fatal("audit log not persisted in time")
	}
}

func TestAuditService_Log_SurvivesCancelledContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockAuditRepository(ctrl)
	svc := NewAuditService(mockRepo, newTestLogger())

	done := make(chan struct{})
	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, log *domain.AuditLog) error {
			if ctx.Err() != nil {
				t.Errorf("repo received a cancelled context: %v", ctx.Err())
			}
			close(done)
			return nil
		},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.Log(ctx, domain.NewAuditLog(domain.AuditActionGambleWin, domain.Caller{UserID: "1"}, "1", "money_1", 5))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("audit log not persisted in time")
	}
}

func TestAuditService_Log_NilRepo(t *testing.T) {
	svc := NewAuditService(nil, newTestLogger())

	// Should not panic
	svc.Log(context.Background(), domain.NewAuditLog(domain.AuditActionCreateCurrency, domain.Caller{UserID: "owner"}, "", "gems", 0))

	time.Sleep(50 * time.Millisecond) // let goroutine run
}
