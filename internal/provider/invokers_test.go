package provider

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/inkgen/internal/apperror"
)

type MockPredictor struct {
	mock.Mock
}

func (m *MockPredictor) Run(ctx context.Context, target Target, input map[string]any) (Output, error) {
	args := m.Called(ctx, target, input)
	return args.Get(0).(Output), args.Error(1)
}

func TestTextToImageFlash(t *testing.T) {
	predictor := &MockPredictor{}
	predictor.On("Run", mock.Anything, FlashPreset.Target, mock.MatchedBy(func(in map[string]any) bool {
		prompt := in["prompt"].(string)
		return strings.HasPrefix(prompt, "tattoo flash design, wolf, ") &&
			strings.HasSuffix(prompt, "stencil style") &&
			in["aspect_ratio"] == "1:1" && in["output_format"] == "jpg"
	})).Return(ParseOutput([]byte(`"https://x/wolf.jpg"`)), nil)

	images, err := NewTextToImage(predictor, FlashPreset).Invoke(context.Background(), Input{Prompt: "wolf"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x/wolf.jpg"}, images)
	predictor.AssertExpectations(t)
}

func TestTextToImageRealistic(t *testing.T) {
	predictor := &MockPredictor{}
	predictor.On("Run", mock.Anything, RealisticPreset.Target, mock.MatchedBy(func(in map[string]any) bool {
		return strings.HasPrefix(in["prompt"].(string), "photo of a tattoo of wolf, ") &&
			in["negative_prompt"] != nil && in["width"] == 1024 && in["scheduler"] == "K_EULER"
	})).Return(ParseOutput([]byte(`["https://x/1.png"]`)), nil)

	images, err := NewTextToImage(predictor, RealisticPreset).Invoke(context.Background(), Input{Prompt: "wolf"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x/1.png"}, images)
}

func TestTextToImageEmptyOutput(t *testing.T) {
	predictor := &MockPredictor{}
	predictor.On("Run", mock.Anything, mock.Anything, mock.Anything).Return(ParseOutput([]byte(`[]`)), nil)

	_, err := NewTextToImage(predictor, FlashPreset).Invoke(context.Background(), Input{Prompt: "wolf"})
	assert.ErrorIs(t, err, apperror.ErrGenerationFailed)
}

func TestTextToImagePassesProviderError(t *testing.T) {
	predictor := &MockPredictor{}
	predictor.On("Run", mock.Anything, mock.Anything, mock.Anything).Return(Output{}, apperror.RateLimited("429"))

	_, err := NewTextToImage(predictor, FlashPreset).Invoke(context.Background(), Input{Prompt: "wolf"})
	assert.ErrorIs(t, err, apperror.ErrRateLimited)
}

func TestCompositor(t *testing.T) {
	predictor := &MockPredictor{}
	predictor.On("Run", mock.Anything, Target{Model: "bytedance/seedream-4"}, mock.MatchedBy(func(in map[string]any) bool {
		images := in["image_input"].([]string)
		return len(images) == 2 && images[0] == "data:image/png;base64,Ym9keQ==" && images[1] == "https://x/t.png" &&
			in["max_images"] == 1
	})).Return(ParseOutput([]byte(`["https://x/out-1.jpg","https://x/out-2.jpg"]`)), nil)

	images, err := NewCompositor(predictor).Invoke(context.Background(), Input{
		BodyImage:   "data:image/png;base64,Ym9keQ==",
		TattooImage: "https://x/t.png",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x/out-1.jpg"}, images)
}

func TestCompositorEmptyOutput(t *testing.T) {
	predictor := &MockPredictor{}
	predictor.On("Run", mock.Anything, mock.Anything, mock.Anything).Return(Output{}, nil)

	_, err := NewCompositor(predictor).Invoke(context.Background(), Input{BodyImage: "a", TattooImage: "b"})
	assert.ErrorIs(t, err, apperror.ErrGenerationFailed)
}

func TestChatExpertReply(t *testing.T) {
	predictor := &MockPredictor{}
	predictor.On("Run", mock.Anything, Target{Model: "meta/meta-llama-3-8b-instruct"}, mock.MatchedBy(func(in map[string]any) bool {
		prompt := in["prompt"].(string)
		return strings.HasPrefix(prompt, "<|begin_of_text|>") &&
			strings.Contains(prompt, "Does it hurt on the ribs?") &&
			strings.HasSuffix(prompt, "<|start_header_id|>assistant<|end_header_id|>\n") &&
			in["max_tokens"] == 500
	})).Return(ParseOutput([]byte(`["  Ribs are ", "one of the more painful spots.\n"]`)), nil)

	reply, err := NewChatExpert(predictor).Reply(context.Background(), "Does it hurt on the ribs?")
	require.NoError(t, err)
	assert.Equal(t, "Ribs are one of the more painful spots.", reply)
}

func TestChatExpertRejectsBlankMessage(t *testing.T) {
	predictor := &MockPredictor{}

	_, err := NewChatExpert(predictor).Reply(context.Background(), "   ")
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	predictor.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
}

func TestChatExpertEmptyReply(t *testing.T) {
	predictor := &MockPredictor{}
	predictor.On("Run", mock.Anything, mock.Anything, mock.Anything).Return(ParseOutput([]byte(`[""]`)), nil)

	_, err := NewChatExpert(predictor).Reply(context.Background(), "hi")
	assert.ErrorIs(t, err, apperror.ErrGenerationFailed)
	assert.Equal(t, "Chat reply failed", apperror.PublicMessage(err))
}

func TestChatExpertProviderError(t *testing.T) {
	predictor := &MockPredictor{}
	predictor.On("Run", mock.Anything, mock.Anything, mock.Anything).Return(Output{}, errors.New("boom"))

	_, err := NewChatExpert(predictor).Reply(context.Background(), "hi")
	assert.ErrorIs(t, err, apperror.ErrGenerationFailed)
	assert.Equal(t, "Chat reply failed", apperror.PublicMessage(err))
	assert.ErrorContains(t, err, "boom")
}

func TestChatExpertFailedPredictionUsesChatMessage(t *testing.T) {
	predictor := &MockPredictor{}
	predictor.On("Run", mock.Anything, mock.Anything, mock.Anything).
		Return(Output{}, apperror.GenerationFailed("prediction p9 failed: model offline"))

	_, err := NewChatExpert(predictor).Reply(context.Background(), "hi")
	assert.ErrorIs(t, err, apperror.ErrGenerationFailed)
	assert.Equal(t, "Chat reply failed", apperror.PublicMessage(err))
}

func TestChatExpertRateLimitPassesThrough(t *testing.T) {
	predictor := &MockPredictor{}
	predictor.On("Run", mock.Anything, mock.Anything, mock.Anything).
		Return(Output{}, apperror.RateLimited("429"))

	_, err := NewChatExpert(predictor).Reply(context.Background(), "hi")
	assert.ErrorIs(t, err, apperror.ErrRateLimited)
}
