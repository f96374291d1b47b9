package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/dealhawk/deals-cli/internal/model"
)

func sampleOpportunity() model.Opportunity {
	return model.Opportunity{
		Deal: model.Deal{
			ProductDescription: "A robot vacuum with lidar navigation and self-emptying base",
			Price:              299.99,
			URL:                "https://deals.test/vacuum",
		},
		Estimate: 450,
		Discount: 150.01,
	}
}

func TestNotifierAlert(t *testing.T) {
	push := &mockPushClient{}
	n := NewNotifier(push, true)

	var sent, sound string
	push.On("Push", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			sent = args.String(1)
			sound = args.String(2)
		}).
		Return(nil)

	n.Alert(context.Background(), sampleOpportunity())

	push.AssertNumberOfCalls(t, "Push", 1)
	assert.Equal(t, "classical", sound)
	assert.Contains(t, sent, "Deal Alert!")
	assert.Contains(t, sent, "Price=$299.99")
	assert.Contains(t, sent, "https://deals.test/vacuum")
}

func TestNotifierDisabled(t *testing.T) {
	push := &mockPushClient{}
	n := NewNotifier(push, false)

	n.Alert(context.Background(), sampleOpportunity())

	push.AssertNotCalled(t, "Push", mock.Anything, mock.Anything, mock.Anything)
}

func TestNotifierPushFailureIsSwallowed(t *testing.T) {
	push := &mockPushClient{}
	n := NewNotifier(push, true)

	push.On("Push", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("pushover down"))

	// Must not panic or propagate; delivery is best-effort.
	n.Alert(context.Background(), sampleOpportunity())
}
