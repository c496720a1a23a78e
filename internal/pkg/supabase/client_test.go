package supabase

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = "6f1c2a52-1d7e-4a59-9d55-0c1f9b0f4e21"

func newGoTrueServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"code":401,"msg":"invalid JWT"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"` + testUserID + `","aud":"authenticated","role":"authenticated","email":"ink@example.com"}`))
	})
	mux.HandleFunc("/auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"issued-token","token_type":"bearer","expires_in":3600,"refresh_token":"r"}`))
	})
	return httptest.NewServer(mux)
}

func TestExtractProjectRef(t *testing.T) {
	assert.Equal(t, "akrqbuajqkirdekonpzy", extractProjectRef("https://akrqbuajqkirdekonpzy.supabase.co"))
	assert.Equal(t, "localhost:54321", extractProjectRef("http://localhost:54321"))
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient("", "key")
	assert.Error(t, err)

	_, err = NewClient("https://ref.supabase.co", "")
	assert.Error(t, err)
}

func TestClientGetUser(t *testing.T) {
	ts := newGoTrueServer(t)
	defer ts.Close()

	client, err := NewClient(ts.URL, "service-key")
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		user, err := client.GetUser("good-token")
		require.NoError(t, err)
		assert.Equal(t, testUserID, user.ID)
		assert.Equal(t, "ink@example.com", user.Email)
	})

	t.Run("rejected token", func(t *testing.T) {
		_, err := client.GetUser("bad-token")
		assert.Error(t, err)
	})
}

func TestClientSignIn(t *testing.T) {
	ts := newGoTrueServer(t)
	defer ts.Close()

	client, err := NewClient(ts.URL, "service-key")
	require.NoError(t, err)

	token, err := client.SignIn("ink@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "issued-token", token)
}
