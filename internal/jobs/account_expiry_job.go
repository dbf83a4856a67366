package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ulot2/postflow/internal/models"
	"github.com/ulot2/postflow/internal/repository"
)

// AccountExpiryJob flips active accounts whose token expiry has passed to
// "expired" so the owner can reconnect. Tokens are not refreshed; an adapter
// handed a stale token fails upstream and the post goes to failed.
type AccountExpiryJob struct {
	sr repository.SocialAccountRepository
}

func NewAccountExpiryJob(sr repository.SocialAccountRepository) *AccountExpiryJob {
	return &AccountExpiryJob{sr: sr}
}

func (j *AccountExpiryJob) ExpireAccounts() {
	ctx := context.Background()

	accounts, err := j.sr.ListActiveExpiredBefore(ctx, time.Now())
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, acc := range accounts {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(acc *models.SocialAccount) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := j.sr.UpdateAccountStatus(ctx, models.AccountStatusExpired, acc.ID); err != nil {
				slog.Info("Unable to mark account expired", "account_id", acc.ID)
			}
		}(acc)
	}

	wg.Wait()
}
