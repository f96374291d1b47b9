package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/dealhawk/deals-cli/internal/model"
	"github.com/dealhawk/deals-cli/pkg/pushover"
)

const alertSound = "classical"

// Notifier dispatches push alerts for surfaced opportunities. Delivery is
// best-effort: by the time an alert fires the plan has already made its
// decision, so a failed push is degraded service, never a pipeline failure.
type Notifier struct {
	push    pushover.Client
	enabled bool
}

// NewNotifier creates a notifier. With enabled false every alert becomes a
// log line only, which is what dry runs and tests want.
func NewNotifier(push pushover.Client, enabled bool) *Notifier {
	return &Notifier{
		push:    push,
		enabled: enabled,
	}
}

// Alert formats and sends a push notification for the opportunity.
func (n *Notifier) Alert(ctx context.Context, opp model.Opportunity) {
	text := "Deal Alert! " + opp.Summary()

	if !n.enabled {
		zap.L().Info("notifier: push disabled, skipping alert",
			zap.String("alert", text),
		)
		return
	}

	if err := n.push.Push(ctx, text, alertSound); err != nil {
		zap.L().Error("notifier: push failed",
			zap.String("url", opp.Deal.URL),
			zap.Error(err),
		)
		return
	}

	zap.L().Info("notifier: alert sent",
		zap.String("url", opp.Deal.URL),
		zap.Float64("discount", opp.Discount),
	)
}
