package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/sparebite/sparebite-backend/internal/reservations"
	"github.com/sparebite/sparebite-backend/pkg/db/models"
	"github.com/sparebite/sparebite-backend/pkg/enums"
	"github.com/sparebite/sparebite-backend/pkg/logger"
)

const (
	defaultWarningWindow = time.Hour
	// Expired offers get deactivated shortly after the window closes, so a
	// marker twice the window is enough to stop duplicate warnings.
	warnMarkerTTLFactor = 2
)

// OfferExpiryJobParams configure the offer expiry sweep.
type OfferExpiryJobParams struct {
	Logger    *logger.Logger
	Offers    expiringOfferStore
	Publisher reservations.EventPublisher
	Dedupe    warnMarker
	Window    time.Duration
}

type expiringOfferStore interface {
	FindActiveExpiringBetween(ctx context.Context, from, to time.Time) ([]models.Offer, error)
	DeactivateExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// warnMarker records that a warning already went out for an offer. Backed by
// Redis SETNX in production.
type warnMarker interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	DedupeKey(scope string) string
}

// NewOfferExpiryJob builds the job that warns merchants about offers expiring
// soon and deactivates offers already past their expiry.
func NewOfferExpiryJob(params OfferExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Offers == nil {
		return nil, fmt.Errorf("offer store required")
	}
	window := params.Window
	if window <= 0 {
		window = defaultWarningWindow
	}
	return &offerExpiryJob{
		logg:      params.Logger,
		offers:    params.Offers,
		publisher: params.Publisher,
		dedupe:    params.Dedupe,
		window:    window,
		now:       time.Now,
	}, nil
}

type offerExpiryJob struct {
	logg      *logger.Logger
	offers    expiringOfferStore
	publisher reservations.EventPublisher
	dedupe    warnMarker
	window    time.Duration
	now       func() time.Time
}

func (j *offerExpiryJob) Name() string { return "offer-expiry" }

func (j *offerExpiryJob) Run(ctx context.Context) error {
	var errs []error
	if err := j.warnExpiringOffers(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := j.deactivateExpiredOffers(ctx); err != nil {
		errs = append(errs, err)
	}
	return multierr.Combine(errs...)
}

func (j *offerExpiryJob) warnExpiringOffers(ctx context.Context) error {
	now := j.now().UTC()
	offers, err := j.offers.FindActiveExpiringBetween(ctx, now, now.Add(j.window))
	if err != nil {
		return fmt.Errorf("query expiring offers: %w", err)
	}

	warned := 0
	for _, offer := range offers {
		sent, err := j.warnOffer(ctx, offer, now)
		if err != nil {
			return err
		}
		if sent {
			warned++
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": len(offers),
		"warned":     warned,
	})
	j.logg.Info(logCtx, "offer expiry warning loop complete")
	return nil
}

func (j *offerExpiryJob) warnOffer(ctx context.Context, offer models.Offer, now time.Time) (bool, error) {
	if j.publisher == nil {
		return false, nil
	}
	if j.dedupe != nil {
		key := j.dedupe.DedupeKey("offer_expiring:" + offer.ID.String())
		ok, err := j.dedupe.SetNX(ctx, key, now.Format(time.RFC3339), warnMarkerTTLFactor*j.window)
		if err != nil {
			return false, fmt.Errorf("mark expiry warning: %w", err)
		}
		if !ok {
			return false, nil
		}
	}

	event := reservations.Event{
		Type:       enums.EventOfferExpiring,
		OfferID:    offer.ID,
		OfferTitle: offer.Title,
		MerchantID: offer.MerchantID,
		Quantity:   offer.QuantityAvailable,
		OccurredAt: now,
	}
	if err := j.publisher.Publish(ctx, event); err != nil {
		// The marker is already set, so this warning is lost rather than
		// retried. Acceptable for an advisory nudge.
		j.logg.Warn(j.logg.WithFields(ctx, map[string]any{
			"offer_id": offer.ID.String(),
			"error":    err.Error(),
		}), "publish expiry warning failed")
		return false, nil
	}
	return true, nil
}

func (j *offerExpiryJob) deactivateExpiredOffers(ctx context.Context) error {
	now := j.now().UTC()
	deactivated, err := j.offers.DeactivateExpiredBefore(ctx, now)
	if err != nil {
		return fmt.Errorf("deactivate expired offers: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":      now,
		"deactivated": deactivated,
	})
	j.logg.Info(logCtx, "offer deactivation loop complete")
	return nil
}
