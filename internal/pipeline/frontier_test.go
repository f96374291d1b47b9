package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dealhawk/deals-cli/internal/model"
	"github.com/dealhawk/deals-cli/pkg/groq"
)

func chatReply(content string) *groq.ChatCompletionResponse {
	return &groq.ChatCompletionResponse{
		Choices: []groq.Choice{
			{Message: groq.Message{Role: "assistant", Content: content}},
		},
	}
}

func TestFrontierEstimate(t *testing.T) {
	chat := &mockGroqClient{}
	retriever := &mockRetriever{}
	e := NewFrontierEstimator(chat, retriever, "test-model")

	retriever.On("Similar", mock.Anything, "A 55-inch TV", 5).Return([]model.PricedItem{
		{Description: "A 50-inch TV", Price: 399.99},
		{Description: "A 65-inch TV", Price: 649.99},
	}, nil)

	var req groq.ChatCompletionRequest
	chat.On("ChatCompletion", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			req = args.Get(1).(groq.ChatCompletionRequest)
		}).
		Return(chatReply("449.99"), nil)

	got, err := e.Estimate(context.Background(), "A 55-inch TV")
	require.NoError(t, err)
	assert.InDelta(t, 449.99, got, 1e-9)

	// Retrieved neighbors appear in the user prompt; the conversation ends
	// with the assistant prefill that anchors the reply format.
	require.Len(t, req.Messages, 3)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Contains(t, req.Messages[1].Content, "A 50-inch TV")
	assert.Contains(t, req.Messages[1].Content, "Price $399.99")
	assert.Contains(t, req.Messages[1].Content, "A 55-inch TV")
	assert.Equal(t, "assistant", req.Messages[2].Role)
	assert.Equal(t, "Price $", req.Messages[2].Content)

	require.NotNil(t, req.MaxTokens)
	assert.Equal(t, 5, *req.MaxTokens)
	require.NotNil(t, req.Temperature)
	assert.InDelta(t, 0.2, *req.Temperature, 1e-9)
}

func TestFrontierEstimateNumberlessReply(t *testing.T) {
	chat := &mockGroqClient{}
	retriever := &mockRetriever{}
	e := NewFrontierEstimator(chat, retriever, "test-model")

	retriever.On("Similar", mock.Anything, mock.Anything, 5).Return([]model.PricedItem{}, nil)
	chat.On("ChatCompletion", mock.Anything, mock.Anything).Return(chatReply("I cannot estimate that."), nil)

	got, err := e.Estimate(context.Background(), "mystery item")
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestFrontierEstimateRetrievalFailure(t *testing.T) {
	chat := &mockGroqClient{}
	retriever := &mockRetriever{}
	e := NewFrontierEstimator(chat, retriever, "test-model")

	retriever.On("Similar", mock.Anything, mock.Anything, 5).Return(nil, errors.New("store down"))

	_, err := e.Estimate(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieve similar")

	chat.AssertNotCalled(t, "ChatCompletion", mock.Anything, mock.Anything)
}

func TestFrontierEstimateEmptyCompletion(t *testing.T) {
	chat := &mockGroqClient{}
	retriever := &mockRetriever{}
	e := NewFrontierEstimator(chat, retriever, "test-model")

	retriever.On("Similar", mock.Anything, mock.Anything, 5).Return([]model.PricedItem{}, nil)
	chat.On("ChatCompletion", mock.Anything, mock.Anything).Return(&groq.ChatCompletionResponse{}, nil)

	_, err := e.Estimate(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty completion")
}
