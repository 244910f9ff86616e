package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/wealthsense/internal/profile"
	"github.com/hrygo/wealthsense/store/storetest"
)

func TestRunChecks_RelationalOnly(t *testing.T) {
	p := &profile.Profile{Driver: "sqlite", DSN: storetest.SeedSQLite(t), LLMProvider: "openrouter"}

	var out bytes.Buffer
	err := runChecks(context.Background(), &out, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 3 checks failed")
	assert.Contains(t, out.String(), "OK    Relational store (sqlite): 3 tables, 7 transactions")
	assert.Contains(t, out.String(), "FAIL  Document store: document store unavailable")
	assert.Contains(t, out.String(), "FAIL  Language model (openrouter): not configured")
}

func TestRunChecks_LanguageModel(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Connection successful"},"finish_reason":"stop"}]}`))
	}))
	defer upstream.Close()

	p := &profile.Profile{
		Driver:      "sqlite",
		DSN:         storetest.SeedSQLite(t),
		LLMProvider: "openai",
		LLMAPIKey:   "key",
		LLMBaseURL:  upstream.URL,
		LLMModel:    "gpt-test",
		LLMTimeout:  5,
	}

	var out bytes.Buffer
	err := runChecks(context.Background(), &out, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 checks failed")
	assert.Contains(t, out.String(), `OK    Language model (openai): model gpt-test replied "Connection successful"`)
}

func TestSetupLogger(t *testing.T) {
	require.NoError(t, setupLogger("debug"))
	require.NoError(t, setupLogger("WARN"))
	require.Error(t, setupLogger("loud"))
	require.NoError(t, setupLogger("info"))
}
