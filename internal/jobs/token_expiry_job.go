package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	config "github.com/maheshrc27/crosspost-api/configs"
	"github.com/maheshrc27/crosspost-api/internal/models"
	"github.com/maheshrc27/crosspost-api/internal/repository"
	"github.com/maheshrc27/crosspost-api/internal/service"
)

// TokenExpiryJob warns users whose Facebook page token is about to expire.
type TokenExpiryJob struct {
	cfg  config.Config
	t    repository.TenantRepository
	u    repository.UserRepository
	mail service.MailService

	mu       sync.Mutex
	notified map[string]int64
}

func NewTokenExpiryJob(
	cfg config.Config,
	t repository.TenantRepository,
	u repository.UserRepository,
	mail service.MailService) *TokenExpiryJob {
	return &TokenExpiryJob{
		cfg:      cfg,
		t:        t,
		u:        u,
		mail:     mail,
		notified: make(map[string]int64),
	}
}

// Run is the cron entry point.
func (c *TokenExpiryJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	sent, err := c.NotifyExpiringTokens(ctx, time.Now().UTC())
	if err != nil {
		slog.Error("token expiry sweep failed", "error", err)
		return
	}
	slog.Info("token expiry sweep finished", "notified", sent)
}

// NotifyExpiringTokens mails every owner whose token expires between now
// and now plus the warning window. Each expiry is notified once.
func (c *TokenExpiryJob) NotifyExpiringTokens(ctx context.Context, now time.Time) (int, error) {
	tenants, err := c.t.ListByFacebookExpiry(ctx, now, now.Add(c.cfg.TokenExpiryWarning))
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		count int
	)

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, tenant := range tenants {
		if !c.claim(tenant) {
			continue
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(tenant *models.Tenant) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := c.notify(ctx, tenant, now); err != nil {
				slog.Info("Unable to send token expiry notice", "user_id", tenant.UserID.Hex(), "error", err)
				c.release(tenant)
				return
			}
			mu.Lock()
			count++
			mu.Unlock()
		}(tenant)
	}

	wg.Wait()
	return count, nil
}

func (c *TokenExpiryJob) notify(ctx context.Context, tenant *models.Tenant, now time.Time) error {
	user, isExist, err := c.u.GetByID(ctx, tenant.UserID)
	if err != nil {
		return err
	}
	if !isExist {
		return fmt.Errorf("user %s not found", tenant.UserID.Hex())
	}

	status := service.TokenExpiry(tenant.UserID, tenant.FacebookCredentials.ExpiryTimestamp, now)

	return c.mail.Send(ctx, &service.Mail{
		To:       []string{user.Email},
		Subject:  fmt.Sprintf("%s: %s", c.cfg.AppName, status.Status),
		Template: service.TemplateTokenExpiry,
		Data: map[string]string{
			"name":        user.Name,
			"app":         c.cfg.AppName,
			"expiry_date": status.ExpiryDate,
		},
	})
}

func (c *TokenExpiryJob) claim(tenant *models.Tenant) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := tenant.UserID.Hex()
	expiry := tenant.FacebookCredentials.ExpiryTimestamp
	if c.notified[key] == expiry {
		return false
	}
	c.notified[key] = expiry
	return true
}

func (c *TokenExpiryJob) release(tenant *models.Tenant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.notified, tenant.UserID.Hex())
}
