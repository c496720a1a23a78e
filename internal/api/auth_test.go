package api

import (
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestHandleLogin(t *testing.T) {
	tests := []struct {
		name           string
		reqBody        any
		setup          func(*MockAuthenticator)
		expectedStatus int
		expectedError  string
	}{
		{
			name:    "successful login",
			reqBody: map[string]string{"email": "ink@example.com", "password": "password"},
			setup: func(m *MockAuthenticator) {
				m.On("SignIn", "ink@example.com", "password").Return("access-token", nil)
			},
			expectedStatus: fiber.StatusOK,
		},
		{
			name:    "invalid credentials",
			reqBody: map[string]string{"email": "ink@example.com", "password": "wrong"},
			setup: func(m *MockAuthenticator) {
				m.On("SignIn", "ink@example.com", "wrong").Return("", errors.New("invalid_grant"))
			},
			expectedStatus: fiber.StatusUnauthorized,
			expectedError:  "User is not authenticated",
		},
		{
			name:           "missing credentials",
			reqBody:        map[string]string{"email": "", "password": ""},
			expectedStatus: fiber.StatusBadRequest,
			expectedError:  "email is required",
		},
		{
			name:           "malformed email",
			reqBody:        map[string]string{"email": "not-an-email", "password": "x"},
			expectedStatus: fiber.StatusBadRequest,
			expectedError:  "email must be a valid email address",
		},
		{
			name:           "malformed body",
			reqBody:        `{"email":`,
			expectedStatus: fiber.StatusBadRequest,
			expectedError:  "Invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := setupTestServer(t)
			if tt.setup != nil {
				tt.setup(ts.auth)
			}

			resp, body := ts.do(t, "POST", "/api/login", tt.reqBody, "")
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, body["error"])
				return
			}
			assert.Equal(t, "access-token", body["token"])
			assert.Equal(t, "Bearer", body["type"])
		})
	}
}
