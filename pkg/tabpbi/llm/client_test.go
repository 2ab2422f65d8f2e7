package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/resolve"
)

type chatServer struct {
	reply   string
	status  int
	prompts []string
	models  []string
}

func (s *chatServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/chat/completions" {
		http.NotFound(w, r)
		return
	}
	var req struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.models = append(s.models, req.Model)
	for _, m := range req.Messages {
		s.prompts = append(s.prompts, m.Content)
	}

	w.Header().Set("Content-Type", "application/json")
	if s.status != 0 {
		w.WriteHeader(s.status)
		_, _ = w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   req.Model,
		"choices": []map[string]interface{}{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": s.reply},
			"finish_reason": "stop",
		}},
		"usage": map[string]int{"prompt_tokens": 3, "completion_tokens": 2, "total_tokens": 5},
	})
}

func newTestClient(t *testing.T, s *chatServer) *Client {
	t.Helper()
	server := httptest.NewServer(s)
	t.Cleanup(server.Close)

	c, err := New(Config{APIKey: "test-key", BaseURL: server.URL + "/v1"}, nil)
	require.NoError(t, err)
	return c
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestDraft(t *testing.T) {
	s := &chatServer{reply: "  ```json\n{}\n```  "}
	c := newTestClient(t, s)

	reply, err := c.Draft(context.Background(), "draft this")
	require.NoError(t, err)
	assert.Equal(t, "```json\n{}\n```", reply)
	assert.Equal(t, []string{"draft this"}, s.prompts)
	assert.Equal(t, []string{DefaultModel}, s.models)
}

func TestValidate(t *testing.T) {
	s := &chatServer{reply: "Valid"}
	c := newTestClient(t, s)

	verdict, err := c.Validate(context.Background(), `{"name": "x"}`)
	require.NoError(t, err)
	assert.Equal(t, "Valid", verdict)
	require.Len(t, s.prompts, 1)
	assert.Contains(t, s.prompts[0], `{"name": "x"}`)
	assert.Contains(t, s.prompts[0], `no nested "config" key`)
}

func TestSuggestTitle(t *testing.T) {
	s := &chatServer{reply: `"Profit & Sales by State"`}
	c := newTestClient(t, s)

	title, err := c.SuggestTitle(context.Background(), "State", []string{"Sum(Orders.Profit)", "Sum(Orders.Sales)"}, "Orders")
	require.NoError(t, err)
	assert.Equal(t, "Profit & Sales by State", title)
	assert.Contains(t, s.prompts[0], "'Sum(Orders.Profit) and Sum(Orders.Sales)' by 'State' from the 'Orders' dataset")
}

func TestSuggestField(t *testing.T) {
	s := &chatServer{reply: "Orders.State or Province"}
	c := newTestClient(t, s)

	reply, err := c.SuggestField(context.Background(), resolve.SuggestRequest{
		Worksheet: "Bullet Sheet",
		Role:      resolve.RoleCategory,
		Field:     "Category",
		Table:     "Orders",
		Available: []string{"Orders.State or Province", "Orders.Sales"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Orders.State or Province", reply)
	assert.Contains(t, s.prompts[0], "[Orders.State or Province, Orders.Sales]")
	assert.Contains(t, s.prompts[0], "from the 'Orders' table")

	_, err = c.SuggestField(context.Background(), resolve.SuggestRequest{
		Worksheet: "Bullet Sheet",
		Role:      resolve.RoleMeasure,
		Field:     "Revenue",
		Measures:  []string{"Sum(Sales)", "Sum(Revenue)"},
		Table:     "Orders",
	})
	require.NoError(t, err)
	assert.Contains(t, s.prompts[1], "I need the measure 'Revenue'")
	assert.Contains(t, s.prompts[1], "Measures: [suggestion1]")

	_, err = c.SuggestField(context.Background(), resolve.SuggestRequest{Role: resolve.RoleDataset, Field: "Region"})
	require.NoError(t, err)
	assert.Contains(t, s.prompts[2], "category 'conceptual: Region'")
}

func TestServiceFailure(t *testing.T) {
	c := newTestClient(t, &chatServer{status: http.StatusInternalServerError})

	_, err := c.Draft(context.Background(), "x")
	assert.ErrorIs(t, err, ErrService)

	_, err = c.SuggestTitle(context.Background(), "State", nil, "Orders")
	assert.ErrorIs(t, err, ErrService)
}

func TestEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "x", "object": "chat.completion", "choices": []}`))
	}))
	defer server.Close()

	c, err := New(Config{APIKey: "k", BaseURL: server.URL + "/v1", Model: "local-model"}, nil)
	require.NoError(t, err)

	_, err = c.Draft(context.Background(), "x")
	assert.ErrorIs(t, err, ErrService)
}
