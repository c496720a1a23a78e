package api

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/illegalcall/inkgen/internal/apperror"
	"github.com/illegalcall/inkgen/internal/provider"
)

func TestGenerateFlashSpendsLastCredit(t *testing.T) {
	ts := setupTestServer(t)
	ts.ledger.On("CheckSufficientBalance", mock.Anything, testUserID, 1).Return(true, nil).Once()
	ts.flash.On("Invoke", mock.Anything, provider.Input{Prompt: "swallow"}).Return([]string{"https://x/s.jpg"}, nil).Once()
	ts.ledger.On("Debit", mock.Anything, testUserID, 1, "flash", mock.AnythingOfType("string")).Return(0, nil).Once()

	resp, body := ts.do(t, "POST", "/api/generate", map[string]string{"promptText": "swallow", "mode": "flash"}, testToken)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["remainingCredits"])
	assert.Equal(t, "https://x/s.jpg", body["image"])
	assert.Equal(t, []any{"https://x/s.jpg"}, body["images"])
	assert.Equal(t, "flash", body["mode"])
	assert.Equal(t, float64(1), body["cost"])
	ts.ledger.AssertExpectations(t)
}

func TestGenerateRealisticWithTwoCredits(t *testing.T) {
	ts := setupTestServer(t)
	ts.ledger.On("CheckSufficientBalance", mock.Anything, testUserID, 3).Return(false, nil).Once()

	resp, body := ts.do(t, "POST", "/api/generate", map[string]string{"promptText": "rose", "mode": "realistic"}, testToken)
	assert.Equal(t, fiber.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, "Insufficient credits. You need 3 credits.", body["error"])
	ts.realistic.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything)
	ts.ledger.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		body    any
		message string
	}{
		{"empty prompt", map[string]string{"promptText": "", "mode": "flash"}, "promptText is required"},
		{"blank prompt", map[string]string{"promptText": "   "}, "promptText is required"},
		{"missing prompt", map[string]string{"mode": "flash"}, "promptText is required"},
		{"prompt not a string", `{"promptText": 42}`, "Invalid request body"},
		{"unknown mode", map[string]string{"promptText": "rose", "mode": "watercolor"}, "mode must be one of: flash, realistic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := setupTestServer(t)

			resp, body := ts.do(t, "POST", "/api/generate", tt.body, testToken)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.message, body["error"])
			ts.flash.AssertNumberOfCalls(t, "Invoke", 0)
			ts.realistic.AssertNumberOfCalls(t, "Invoke", 0)
			ts.ledger.AssertNumberOfCalls(t, "CheckSufficientBalance", 0)
		})
	}
}

func TestGenerateAcceptsPromptAlias(t *testing.T) {
	ts := setupTestServer(t)
	ts.ledger.On("CheckSufficientBalance", mock.Anything, testUserID, 1).Return(true, nil)
	ts.flash.On("Invoke", mock.Anything, provider.Input{Prompt: "lotus"}).Return([]string{"https://x/l.jpg"}, nil)
	ts.ledger.On("Debit", mock.Anything, testUserID, 1, "flash", mock.Anything).Return(4, nil)

	resp, body := ts.do(t, "POST", "/api/generate", map[string]string{"prompt": "lotus"}, testToken)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(4), body["remainingCredits"])
}

func TestGenerateProviderFailures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"failed prediction", apperror.GenerationFailed("prediction p1 failed: NSFW"), fiber.StatusInternalServerError, "Image generation failed"},
		{"rate limited", apperror.RateLimited("429 throttled"), fiber.StatusTooManyRequests, "Rate limit reached. Please wait a few seconds."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := setupTestServer(t)
			ts.ledger.On("CheckSufficientBalance", mock.Anything, testUserID, 3).Return(true, nil)
			ts.realistic.On("Invoke", mock.Anything, mock.Anything).Return(nil, tt.err)

			resp, body := ts.do(t, "POST", "/api/generate", map[string]string{"promptText": "dragon", "mode": "realistic"}, testToken)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.message, body["error"])
			assert.NotContains(t, body["error"], "NSFW")
			ts.ledger.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestGenerateLostDebitRace(t *testing.T) {
	ts := setupTestServer(t)
	ts.ledger.On("CheckSufficientBalance", mock.Anything, testUserID, 1).Return(true, nil)
	ts.flash.On("Invoke", mock.Anything, mock.Anything).Return([]string{"https://x/1.jpg"}, nil)
	ts.ledger.On("Debit", mock.Anything, testUserID, 1, "flash", mock.Anything).Return(0, apperror.InsufficientCredits(1))

	resp, body := ts.do(t, "POST", "/api/generate", map[string]string{"promptText": "koi"}, testToken)
	assert.Equal(t, fiber.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, "Insufficient credits. You need 1 credits.", body["error"])
}

func TestGenerateMissingProfile(t *testing.T) {
	ts := setupTestServer(t)
	ts.ledger.On("CheckSufficientBalance", mock.Anything, testUserID, 1).Return(false, apperror.ProfileNotFound(testUserID))

	resp, body := ts.do(t, "POST", "/api/generate", map[string]string{"promptText": "koi"}, testToken)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Profile not found", body["error"])
	assert.NotContains(t, body["error"], testUserID)
}

func TestTryOn(t *testing.T) {
	ts := setupTestServer(t)
	in := provider.Input{BodyImage: "data:image/jpeg;base64,Ym9keQ==", TattooImage: "https://x/t.png"}
	ts.tryon.On("Invoke", mock.Anything, in).Return([]string{"https://x/composite.jpg"}, nil).Once()

	resp, body := ts.do(t, "POST", "/api/tryon", map[string]string{
		"bodyImage":   in.BodyImage,
		"tattooImage": in.TattooImage,
	}, testToken)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://x/composite.jpg", body["image"])
	assert.NotContains(t, body, "remainingCredits")
	ts.ledger.AssertNotCalled(t, "CheckSufficientBalance", mock.Anything, mock.Anything, mock.Anything)
}

func TestTryOnValidatesImages(t *testing.T) {
	tests := []struct {
		name    string
		body    map[string]string
		message string
	}{
		{"missing body", map[string]string{"tattooImage": "https://x/t.png"}, "bodyImage is required"},
		{"plain text", map[string]string{"bodyImage": "hello", "tattooImage": "https://x/t.png"}, "bodyImage must be a base64 data URI or an http(s) URL"},
		{"empty data uri", map[string]string{"bodyImage": "data:image/png;base64,", "tattooImage": "https://x/t.png"}, "bodyImage must be a base64 data URI or an http(s) URL"},
		{"ftp tattoo", map[string]string{"bodyImage": "https://x/b.png", "tattooImage": "ftp://x/t.png"}, "tattooImage must be a base64 data URI or an http(s) URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := setupTestServer(t)

			resp, body := ts.do(t, "POST", "/api/tryon", tt.body, testToken)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.message, body["error"])
			ts.tryon.AssertNumberOfCalls(t, "Invoke", 0)
		})
	}
}

func TestChat(t *testing.T) {
	ts := setupTestServer(t)
	ts.chat.On("Reply", mock.Anything, "Does it hurt?").Return("A little, mostly over bone.", nil)

	resp, body := ts.do(t, "POST", "/api/chat", map[string]string{"message": "Does it hurt?"}, testToken)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "A little, mostly over bone.", body["reply"])
}

func TestChatRequiresMessage(t *testing.T) {
	ts := setupTestServer(t)

	resp, body := ts.do(t, "POST", "/api/chat", map[string]string{}, testToken)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "message is required", body["error"])
	ts.chat.AssertNotCalled(t, "Reply", mock.Anything, mock.Anything)
}

func TestChatProviderFailure(t *testing.T) {
	ts := setupTestServer(t)
	ts.chat.On("Reply", mock.Anything, "hi").Return("", apperror.ChatFailed("model offline"))

	resp, body := ts.do(t, "POST", "/api/chat", map[string]string{"message": "hi"}, testToken)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Chat reply failed", body["error"])
}
