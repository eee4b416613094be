package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const toolCallCompletion = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1,
  "model": "gpt-4o-mini",
  "choices": [{
    "index": 0,
    "message": {
      "role": "assistant",
      "content": "",
      "tool_calls": [{
        "id": "call_1",
        "type": "function",
        "function": {"name": "fetch-news", "arguments": "{\"topic\":\"zk\",\"limit\":3}"}
      }]
    },
    "finish_reason": "tool_calls"
  }],
  "usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
}`

func newCompletionServer(t *testing.T, status int, body string, requests chan<- []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		if requests != nil {
			requests <- data
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIChatWithToolsParsesToolCalls(t *testing.T) {
	requests := make(chan []byte, 1)
	srv := newCompletionServer(t, http.StatusOK, toolCallCompletion, requests)

	provider := NewOpenAIProviderWithBaseURL("sk-test", srv.URL+"/v1", ModelOpenAIGPT4oMini, 100, 0.7)
	tools := []ToolDefinition{{
		Name:        "fetch-news",
		Description: "Fetch news",
		Parameters:  map[string]interface{}{"type": "object"},
	}}

	resp, err := provider.ChatWithTools(context.Background(), []ChatMessage{
		SystemMessage("be brief"),
		UserMessage("Analyze zk"),
	}, tools)
	if err != nil {
		t.Fatalf("ChatWithTools: %v", err)
	}

	if len(resp.ToolCalls) != 1 {
		t.Fatalf("got %d tool calls, want 1", len(resp.ToolCalls))
	}
	tc := resp.ToolCalls[0]
	if tc.ID != "call_1" || tc.Name != "fetch-news" || string(tc.Arguments) != `{"topic":"zk","limit":3}` {
		t.Errorf("unexpected tool call: %+v", tc)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 15 {
		t.Errorf("unexpected usage: %+v", resp.Usage)
	}

	var sent struct {
		Tools []struct {
			Function struct {
				Name string `json:"name"`
			} `json:"function"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(<-requests, &sent); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if len(sent.Tools) != 1 || sent.Tools[0].Function.Name != "fetch-news" {
		t.Errorf("tools not forwarded: %+v", sent.Tools)
	}
}

func TestOpenAIChatOmitsEmptyTools(t *testing.T) {
	requests := make(chan []byte, 1)
	srv := newCompletionServer(t, http.StatusOK, toolCallCompletion, requests)

	provider := NewOpenAIProviderWithBaseURL("sk-test", srv.URL+"/v1", ModelOpenAIGPT4oMini, 100, 0.7)
	if _, err := provider.Chat(context.Background(), []ChatMessage{UserMessage("hi")}); err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if body := string(<-requests); strings.Contains(body, `"tools"`) {
		t.Errorf("request should not carry tools: %s", body)
	}
}

func TestConvertToOpenAIMessagesCarriesToolIDs(t *testing.T) {
	call := ToolCall{ID: "call_9", Name: "fetch-news", Arguments: json.RawMessage(`{}`)}
	msgs := convertToOpenAIMessages([]ChatMessage{
		AssistantToolCallMessage("", []ToolCall{call}),
		ToolResultMessage(call, "[]"),
	})

	if len(msgs[0].ToolCalls) != 1 || msgs[0].ToolCalls[0].ID != "call_9" {
		t.Errorf("assistant tool calls lost: %+v", msgs[0])
	}
	if msgs[1].Role != RoleTool || msgs[1].ToolCallID != "call_9" {
		t.Errorf("tool result lost its call id: %+v", msgs[1])
	}
}

// TestOpenAIErrorNoAPIKeyLeak verifies OpenAI errors don't contain API keys
func TestOpenAIErrorNoAPIKeyLeak(t *testing.T) {
	testKey := "sk-test-invalid-key-12345xyz"
	srv := newCompletionServer(t, http.StatusUnauthorized,
		`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`, nil)

	for _, provider := range []Provider{
		NewOpenAIProviderWithBaseURL(testKey, srv.URL+"/v1", ModelOpenAIGPT4oMini, 100, 0.7),
		NewDeepSeekProviderWithBaseURL(testKey, srv.URL+"/v1", ModelDeepSeekChat, 100, 0.7),
	} {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, err := provider.Chat(ctx, []ChatMessage{UserMessage("test")})
		cancel()

		if err == nil {
			t.Fatalf("%s: expected error for 401 response", provider.Name())
		}

		errStr := err.Error()
		if strings.Contains(errStr, testKey) {
			t.Errorf("%s error message leaked API key: %v", provider.Name(), errStr)
		}
		if strings.Contains(errStr, "Authorization:") {
			t.Errorf("%s error exposed Authorization header: %v", provider.Name(), errStr)
		}
		if !strings.Contains(errStr, provider.Name()) {
			t.Errorf("error should name the provider: %v", errStr)
		}
	}
}

// TestGeminiInitErrorPreserved verifies Gemini returns initialization errors
func TestGeminiInitErrorPreserved(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	provider := NewGeminiProvider("", ModelGeminiFlash2, 100, 0.7)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := provider.Chat(ctx, []ChatMessage{UserMessage("test")})
	if err == nil {
		t.Fatal("Expected initialization error to be returned, got nil")
	}
	if !strings.Contains(err.Error(), "failed to initialize") {
		t.Errorf("Expected initialization error, got: %v", err)
	}
}

func TestRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]interface{}
		want   []string
	}{
		{name: "string slice", params: map[string]interface{}{"required": []string{"topic"}}, want: []string{"topic"}},
		{name: "decoded json", params: map[string]interface{}{"required": []interface{}{"topic", "limit"}}, want: []string{"topic", "limit"}},
		{name: "missing", params: map[string]interface{}{}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := requiredFields(tt.params)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("requiredFields() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConvertToAnthropicToolsKeepsRequired(t *testing.T) {
	var params map[string]interface{}
	if err := json.Unmarshal([]byte(`{"type":"object","properties":{"topic":{"type":"string"}},"required":["topic"]}`), &params); err != nil {
		t.Fatal(err)
	}

	out := convertToAnthropicTools([]ToolDefinition{{Name: "fetch-news", Parameters: params}})
	if len(out) != 1 || out[0].OfTool == nil {
		t.Fatalf("unexpected conversion: %+v", out)
	}
	if req := out[0].OfTool.InputSchema.Required; len(req) != 1 || req[0] != "topic" {
		t.Errorf("required = %v, want [topic]", req)
	}
}

func TestConvertToGeminiSchema(t *testing.T) {
	var params map[string]interface{}
	raw := `{"type":"object","properties":{"topic":{"type":"string"},"limit":{"type":"integer","minimum":1,"maximum":10}},"required":["topic","limit"]}`
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		t.Fatal(err)
	}

	schema := convertToGeminiSchema(params)
	if len(schema.Required) != 2 {
		t.Errorf("required = %v", schema.Required)
	}
	limit := schema.Properties["limit"]
	if limit == nil || limit.Minimum == nil || *limit.Minimum != 1 || *limit.Maximum != 10 {
		t.Errorf("limit bounds lost: %+v", limit)
	}
}
