package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/summit-group/dining-cli/internal/cost"
	"github.com/summit-group/dining-cli/internal/model"
	"github.com/summit-group/dining-cli/pkg/anthropic"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func testResort() model.ResortQuery {
	return model.ResortQuery{
		ID:                "r-1",
		Name:              "Vail",
		Latitude:          39.6403,
		Longitude:         -106.3742,
		NearestCity:       "Vail",
		Region:            "CO",
		SearchRadiusMiles: 10,
		MaxVenues:         25,
	}
}

func newTestClient(api anthropic.Client) Client {
	calc := cost.NewCalculator(map[string]cost.ModelRate{
		"test-model": {InputPer1K: 0.003, OutputPer1K: 0.015},
	}, "test-model")
	return NewClient(api, calc, "test-model", 8192)
}

func TestRequestVenues(t *testing.T) {
	t.Parallel()

	api := new(mockAPI)
	api.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == "test-model" && req.System != "" && len(req.Messages) == 1
	})).Return(&anthropic.MessageResponse{
		Model: "test-model",
		Content: []anthropic.ContentBlock{{Type: "text", Text: `{
			"venues": [
				{"name": "The Powder Keg", "latitude": 39.64, "longitude": -106.37},
				{"name": "Base Lodge Cafe", "latitude": 39.63, "longitude": -106.38}
			]
		}`}},
		StopReason: "end_turn",
		Usage:      anthropic.TokenUsage{InputTokens: 1000, OutputTokens: 2000},
	}, nil)

	resp, err := newTestClient(api).RequestVenues(context.Background(), testResort())
	require.NoError(t, err)
	assert.Len(t, resp.Venues, 2)
	assert.Equal(t, int64(1000), resp.Usage.PromptTokens)
	assert.Equal(t, int64(2000), resp.Usage.CompletionTokens)
	assert.InDelta(t, 1*0.003+2*0.015, resp.Cost, 0.000001)
	assert.NotEmpty(t, resp.Raw)

	api.AssertExpectations(t)
}

func TestRequestVenuesFencedResponse(t *testing.T) {
	t.Parallel()

	api := new(mockAPI)
	api.On("CreateMessage", mock.Anything, mock.Anything).Return(&anthropic.MessageResponse{
		Model: "test-model",
		Content: []anthropic.ContentBlock{{
			Type: "text",
			Text: "Here are the venues:\n```json\n{\"venues\": [{\"name\": \"Summit House\"}]}\n```",
		}},
		Usage: anthropic.TokenUsage{InputTokens: 100, OutputTokens: 50},
	}, nil)

	resp, err := newTestClient(api).RequestVenues(context.Background(), testResort())
	require.NoError(t, err)
	assert.Len(t, resp.Venues, 1)
}

func TestRequestVenuesEmptyResponse(t *testing.T) {
	t.Parallel()

	api := new(mockAPI)
	api.On("CreateMessage", mock.Anything, mock.Anything).Return(&anthropic.MessageResponse{
		Model:      "test-model",
		StopReason: "max_tokens",
	}, nil)

	_, err := newTestClient(api).RequestVenues(context.Background(), testResort())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestRequestVenuesUnparseable(t *testing.T) {
	t.Parallel()

	api := new(mockAPI)
	api.On("CreateMessage", mock.Anything, mock.Anything).Return(&anthropic.MessageResponse{
		Model:   "test-model",
		Content: []anthropic.ContentBlock{{Type: "text", Text: "I could not find any venues for this resort."}},
	}, nil)

	_, err := newTestClient(api).RequestVenues(context.Background(), testResort())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode venue response")
}

func TestRequestVenuesAPIError(t *testing.T) {
	t.Parallel()

	api := new(mockAPI)
	api.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	_, err := newTestClient(api).RequestVenues(context.Background(), testResort())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "venue query for Vail")
}

func TestBuildUserPrompt(t *testing.T) {
	t.Parallel()

	prompt := buildUserPrompt(testResort())
	assert.Contains(t, prompt, "Vail")
	assert.Contains(t, prompt, "25 dining venues")
	assert.Contains(t, prompt, "10 miles")
	assert.Contains(t, prompt, `"restaurant"`)
	assert.Contains(t, prompt, `"mid_mountain"`)
	assert.Contains(t, prompt, `"$$$$"`)
}

func TestCleanJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `{"venues": []}`, `{"venues": []}`},
		{"json fence", "```json\n{\"venues\": []}\n```", `{"venues": []}`},
		{"bare fence", "```\n{\"venues\": []}\n```", `{"venues": []}`},
		{"leading prose", "Sure, here you go: {\"venues\": []}", `{"venues": []}`},
		{"surrounding whitespace", "  \n{\"venues\": []}\n ", `{"venues": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, cleanJSON(tt.input))
		})
	}
}
