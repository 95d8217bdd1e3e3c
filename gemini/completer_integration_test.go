//go:build integration

package gemini_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/fwojciec/structura/extract"
	"github.com/fwojciec/structura/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestCompleter_Integration_ReturnsJSON(t *testing.T) {
	t.Parallel()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	require.NoError(t, err)

	completer := gemini.NewCompleter(client)

	text, err := completer.Complete(ctx,
		`Extract the product from this content as JSON with fields "product_name" (string) and "price" (number): Widget, only $9.99!`)
	require.NoError(t, err)

	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(extract.StripFences(text)), &data))
	assert.Contains(t, data, "product_name")
	t.Logf("model returned: %s", text)
}
