package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tutor-marketplace/models"
	"tutor-marketplace/services"
)

// RemotePayment is one entry of the payment provider's change feed.
type RemotePayment struct {
	ProviderRef string     `json:"provider_ref"`
	Status      string     `json:"status"`
	Amount      float64    `json:"amount"`
	Currency    string     `json:"currency"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type paymentChangesResponse struct {
	Payments []RemotePayment `json:"payments"`
}

// SyncResult counts what one batch did.
type SyncResult struct {
	Received  int
	Completed int
	Failed    int
	Skipped   int
}

// PaymentSyncWorker polls the payment provider, mirrors what it reports into
// payment_mirror and settles local payments whose state changed.
type PaymentSyncWorker struct {
	db           *gorm.DB
	packages     *services.PackageService
	interval     time.Duration
	baseURL      string
	endpointPath string
	serviceToken string
	httpClient   *http.Client
	log          *zap.Logger
}

func NewPaymentSyncWorker(db *gorm.DB, packages *services.PackageService, baseURL, serviceToken string, interval time.Duration, httpClient *http.Client, logger *zap.Logger) *PaymentSyncWorker {
	return &PaymentSyncWorker{
		db:           db,
		packages:     packages,
		interval:     interval,
		baseURL:      baseURL,
		endpointPath: "/api/v1/payments/changes",
		serviceToken: serviceToken,
		httpClient:   httpClient,
		log:          logger,
	}
}

func (w *PaymentSyncWorker) Start(ctx context.Context) {
	w.log.Info("[SYNC] starting payment sync worker", zap.Duration("interval", w.interval))
	go w.run(ctx)
}

func (w *PaymentSyncWorker) run(ctx context.Context) {
	if _, err := w.SyncOnce(ctx); err != nil {
		w.log.Warn("[SYNC] initial payment sync failed", zap.Error(err))
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.SyncOnce(ctx); err != nil {
				w.log.Error("[SYNC] payment sync batch failed", zap.Error(err))
			}
		case <-ctx.Done():
			w.log.Info("[SYNC] payment sync worker stopped")
			return
		}
	}
}

// lastSyncTime is the newest provider update already mirrored.
func (w *PaymentSyncWorker) lastSyncTime(ctx context.Context) time.Time {
	var latest models.PaymentMirror
	err := w.db.WithContext(ctx).Order("updated_at DESC").Limit(1).Find(&latest).Error
	if err != nil || latest.UpdatedAt.IsZero() {
		return time.Unix(0, 0).UTC()
	}
	return latest.UpdatedAt
}

// SyncOnce fetches changes since the last mirrored update and applies them.
func (w *PaymentSyncWorker) SyncOnce(ctx context.Context) (*SyncResult, error) {
	since := w.lastSyncTime(ctx)
	remote, err := w.fetchChanges(ctx, since)
	if err != nil {
		return nil, err
	}
	res := &SyncResult{Received: len(remote)}
	if len(remote) == 0 {
		return res, nil
	}

	mirror := make([]models.PaymentMirror, 0, len(remote))
	for _, p := range remote {
		mirror = append(mirror, models.PaymentMirror{
			ProviderRef: p.ProviderRef,
			Status:      p.Status,
			Amount:      p.Amount,
			Currency:    p.Currency,
			PaidAt:      p.PaidAt,
			UpdatedAt:   p.UpdatedAt.UTC(),
		})
	}
	if err := w.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_ref"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "amount", "currency", "paid_at", "updated_at"}),
	}).Create(&mirror).Error; err != nil {
		return nil, fmt.Errorf("upsert payment_mirror: %w", err)
	}

	for _, p := range remote {
		var applyErr error
		switch p.Status {
		case models.PaymentCompleted:
			_, applyErr = w.packages.CompletePayment(ctx, p.ProviderRef)
			if applyErr == nil {
				res.Completed++
			}
		case models.PaymentFailed:
			_, applyErr = w.packages.FailPayment(ctx, p.ProviderRef)
			if applyErr == nil {
				res.Failed++
			}
		default:
			res.Skipped++
			continue
		}
		if applyErr != nil {
			res.Skipped++
			if errors.Is(applyErr, services.ErrNotFound) || errors.Is(applyErr, services.ErrInvalidTransition) {
				w.log.Debug("[SYNC] payment change ignored", zap.String("provider_ref", p.ProviderRef), zap.Error(applyErr))
				continue
			}
			w.log.Warn("[SYNC] failed to apply payment change", zap.String("provider_ref", p.ProviderRef), zap.Error(applyErr))
		}
	}

	w.log.Info("[SYNC] payments synced",
		zap.Int("received", res.Received),
		zap.Int("completed", res.Completed),
		zap.Int("failed", res.Failed),
		zap.Int("skipped", res.Skipped))
	return res, nil
}

func (w *PaymentSyncWorker) fetchChanges(ctx context.Context, since time.Time) ([]RemotePayment, error) {
	base, err := url.Parse(w.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid payment service URL %q: %w", w.baseURL, err)
	}
	endpoint := base.JoinPath(w.endpointPath)
	q := endpoint.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment service request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("payment service returned status %d: %s", resp.StatusCode, string(body))
	}

	var out paymentChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode payment service response: %w", err)
	}
	return out.Payments, nil
}
