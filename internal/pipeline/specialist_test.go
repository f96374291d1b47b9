package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSpecialistEstimate(t *testing.T) {
	client := &mockPricerClient{}
	e := NewSpecialistEstimator(client)

	client.On("Price", mock.Anything, "a mechanical keyboard").Return(129.99, nil)

	got, err := e.Estimate(context.Background(), "a mechanical keyboard")
	require.NoError(t, err)
	assert.InDelta(t, 129.99, got, 1e-9)
	assert.Equal(t, "specialist", e.Name())
}

func TestSpecialistEstimateClampsNegative(t *testing.T) {
	client := &mockPricerClient{}
	e := NewSpecialistEstimator(client)

	client.On("Price", mock.Anything, mock.Anything).Return(-5.0, nil)

	got, err := e.Estimate(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestSpecialistEstimateFailure(t *testing.T) {
	client := &mockPricerClient{}
	e := NewSpecialistEstimator(client)

	client.On("Price", mock.Anything, mock.Anything).Return(0.0, errors.New("deployment cold"))

	_, err := e.Estimate(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remote price call")
}
