package application

import (
	"context"

	"go.uber.org/zap"

	"github.com/chennai-transit/service-pass/internal/events"
	"github.com/chennai-transit/service-pass/internal/pkg/domain"
)

// PaymentApplier routes verified-payment events to the right service:
// pass payments activate the pass, renewal payments extend it. It is
// the handler behind the payment event consumer.
type PaymentApplier struct {
	passes   *PassService
	renewals *RenewalService
	logger   *zap.Logger
}

// NewPaymentApplier creates a new PaymentApplier.
func NewPaymentApplier(passes *PassService, renewals *RenewalService, logger *zap.Logger) *PaymentApplier {
	return &PaymentApplier{passes: passes, renewals: renewals, logger: logger}
}

// HandlePaymentVerified applies a verified payment. Re-delivered
// events for already-settled payments are acknowledged without error
// so the consumer does not wedge on duplicates.
func (a *PaymentApplier) HandlePaymentVerified(ctx context.Context, evt events.PaymentVerifiedEvent) error {
	switch {
	case evt.RenewalID != nil:
		_, err := a.renewals.ApplyOnPayment(ctx, *evt.RenewalID, evt.PaidAt)
		return a.ignoreDuplicate(err, evt.OrderID)
	case evt.PassID != nil:
		_, err := a.passes.ActivateOnPayment(ctx, *evt.PassID, evt.PaidAt)
		return a.ignoreDuplicate(err, evt.OrderID)
	default:
		a.logger.Warn("verified payment without pass or renewal reference",
			zap.String("order_id", evt.OrderID),
		)
		return nil
	}
}

func (a *PaymentApplier) ignoreDuplicate(err error, orderID string) error {
	if err == nil {
		return nil
	}
	if domain.KindOf(err) == domain.KindInvalidState {
		a.logger.Info("ignoring re-delivered payment event",
			zap.String("order_id", orderID),
		)
		return nil
	}
	return err
}
