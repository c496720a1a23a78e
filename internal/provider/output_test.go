package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOutput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind OutputKind
		uris []string
	}{
		{"single string", `"https://x/1.png"`, OutputString, []string{"https://x/1.png"}},
		{"object with url", `{"url":"https://x/2.png","size":1}`, OutputObject, []string{"https://x/2.png"}},
		{"object without url", `{"size":1}`, OutputObject, nil},
		{"list of strings", `["https://x/1.png","https://x/2.png"]`, OutputList, []string{"https://x/1.png", "https://x/2.png"}},
		{"mixed list", `["https://x/1.png",{"url":"https://x/2.png"},"",null]`, OutputList, []string{"https://x/1.png", "https://x/2.png"}},
		{"nested list", `[["https://x/1.png"]]`, OutputList, []string{"https://x/1.png"}},
		{"blank string", `"   "`, OutputString, nil},
		{"null", `null`, OutputEmpty, nil},
		{"number", `42`, OutputEmpty, nil},
		{"empty", ``, OutputEmpty, nil},
		{"invalid json", `{"url":`, OutputEmpty, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ParseOutput([]byte(tt.raw))
			assert.Equal(t, tt.kind, out.Kind)
			assert.Equal(t, tt.uris, out.URIs())
		})
	}
}

func TestOutputText(t *testing.T) {
	out := ParseOutput([]byte(`["Keep it ", "clean and ", "moisturized."]`))
	assert.Equal(t, "Keep it clean and moisturized.", out.Text())

	assert.Equal(t, "single", ParseOutput([]byte(`"single"`)).Text())
	assert.Equal(t, "", ParseOutput([]byte(`{"url":"https://x"}`)).Text())
}
