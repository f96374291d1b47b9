package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dealhawk/deals-cli/internal/model"
	"github.com/dealhawk/deals-cli/pkg/anthropic"
	"github.com/dealhawk/deals-cli/pkg/chroma"
	"github.com/dealhawk/deals-cli/pkg/groq"
)

// --- Feed Fetcher Mock ---

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context) ([]model.ScrapedDeal, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ScrapedDeal), args.Error(1)
}

// --- Anthropic Mock ---

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

// --- Groq Mock ---

type mockGroqClient struct {
	mock.Mock
}

func (m *mockGroqClient) ChatCompletion(ctx context.Context, req groq.ChatCompletionRequest) (*groq.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*groq.ChatCompletionResponse), args.Error(1)
}

// --- Pricer Mock ---

type mockPricerClient struct {
	mock.Mock
}

func (m *mockPricerClient) Price(ctx context.Context, description string) (float64, error) {
	args := m.Called(ctx, description)
	return args.Get(0).(float64), args.Error(1)
}

// --- Embed Mock ---

type mockEmbedClient struct {
	mock.Mock
}

func (m *mockEmbedClient) Encode(ctx context.Context, texts []string) ([][]float64, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float64), args.Error(1)
}

// --- Chroma Mock ---

type mockChromaClient struct {
	mock.Mock
}

func (m *mockChromaClient) Query(ctx context.Context, embedding []float64, n int) (*chroma.QueryResult, error) {
	args := m.Called(ctx, embedding, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chroma.QueryResult), args.Error(1)
}

// --- Pushover Mock ---

type mockPushClient struct {
	mock.Mock
}

func (m *mockPushClient) Push(ctx context.Context, message, sound string) error {
	args := m.Called(ctx, message, sound)
	return args.Error(0)
}

// --- Retriever Mock ---

type mockRetriever struct {
	mock.Mock
}

func (m *mockRetriever) Similar(ctx context.Context, description string, k int) ([]model.PricedItem, error) {
	args := m.Called(ctx, description, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PricedItem), args.Error(1)
}

// --- Estimator Mock ---

type mockEstimator struct {
	mock.Mock
	name string
}

func (m *mockEstimator) Name() string {
	if m.name != "" {
		return m.name
	}
	return "mock"
}

func (m *mockEstimator) Estimate(ctx context.Context, description string) (float64, error) {
	args := m.Called(ctx, description)
	return args.Get(0).(float64), args.Error(1)
}
