package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/model"
	"storefront/internal/store"
)

// jsonrpcRequest is a JSON-RPC 2.0 request structure for testing.
type jsonrpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// jsonrpcResponse is a JSON-RPC 2.0 response structure for testing.
type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonrpcError   `json:"error,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// toolCallParams represents the params for tools/call method.
type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Meta      map[string]any  `json:"_meta,omitempty"`
}

// callToolResult is the expected result structure from a tool call.
type callToolResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"content"`
	IsError bool `json:"isError,omitempty"`
}

// testMeta names the fixture's page session.
func testMeta() map[string]any {
	return map[string]any{
		"storefront": map[string]any{"session": testSession, "version": "1.0.0"},
	}
}

func TestMCPServerCreation(t *testing.T) {
	f := newFixture(t)
	require.NotNil(t, f.handler.NewMCPServer())
	require.NotNil(t, f.handler.NewMCPHandler())
}

func TestMCPInitialize(t *testing.T) {
	f := newFixture(t)
	initMCPSession(t, f.server)
}

func TestMCPToolsList(t *testing.T) {
	f := newFixture(t)
	sessionID := initMCPSession(t, f.server)

	resp := mcpCall(t, f.server, sessionID, jsonrpcRequest{JSONRPC: "2.0", ID: 2, Method: "tools/list"})
	require.Nil(t, resp.Error)

	var toolsResult struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &toolsResult))

	var names []string
	for _, tool := range toolsResult.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"get_cart", "add_to_cart", "set_cart_quantity", "remove_from_cart",
		"get_wishlist", "add_to_wishlist", "remove_from_wishlist",
		"move_to_cart", "move_to_wishlist",
	}, names)
}

func TestMCPAddToCart(t *testing.T) {
	f := newFixture(t)
	f.catalog.GetProductFunc = func(_ context.Context, id string) (*model.Product, error) {
		return &model.Product{ID: id, Name: "Sapphire Ring", Price: model.MustMoney("199.99"), Stock: 4}, nil
	}
	sessionID := initMCPSession(t, f.server)

	result := callTool(t, f.server, sessionID, "add_to_cart", map[string]any{
		"meta":      testMeta(),
		"productId": "s1",
		"quantity":  2,
	}, nil)
	require.False(t, result.IsError, result.Content)

	var cart CartView
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &cart))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Sapphire Ring", cart.Items[0].Name)
	assert.Equal(t, "399.98", cart.Items[0].LineTotal)
	assert.Equal(t, "confirmed", cart.Items[0].Status)
	assert.Equal(t, "399.98", cart.Totals.Subtotal)

	// The REST surface sees the same session.
	w := f.do("GET", "/api/cart", nil)
	assert.Equal(t, []string{"s1"}, cartIDs(decode[store.CartSnapshot](t, w)))
}

func TestMCPMetaInRequest(t *testing.T) {
	f := newFixture(t)
	f.serveCart(ring("a", "100", 1))
	sessionID := initMCPSession(t, f.server)

	result := callTool(t, f.server, sessionID, "get_cart", map[string]any{}, testMeta())
	require.False(t, result.IsError, result.Content)

	var cart CartView
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &cart))
	assert.True(t, cart.Loaded)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Ring a", cart.Items[0].Name)
	assert.Equal(t, "153.00", cart.Totals.Total)
}

func TestMCPMissingSession(t *testing.T) {
	f := newFixture(t)
	sessionID := initMCPSession(t, f.server)

	result := callTool(t, f.server, sessionID, "get_wishlist", map[string]any{}, nil)
	require.True(t, result.IsError)
	require.NotEmpty(t, result.Content)
	assert.Contains(t, result.Content[0].Text, "client_header_required")
	assert.Equal(t, 0, f.registry.Len())
}

func TestMCPToolHandlers(t *testing.T) {
	ctx := context.Background()
	meta := MCPMeta{Storefront: &StorefrontMeta{Session: testSession}}

	t.Run("move to wishlist", func(t *testing.T) {
		f := newFixture(t)
		f.serveCart(ring("a", "100", 1))

		_, state, err := f.handler.mcpMoveToWishlist(ctx, nil, ProductInput{Meta: meta, ProductID: "a"})
		require.NoError(t, err)
		assert.Empty(t, state.Cart.Items)
		require.Len(t, state.Wishlist.Items, 1)
		assert.Equal(t, "100.00", state.Wishlist.Items[0].Price)
		assert.Zero(t, state.Wishlist.Items[0].Quantity)
	})

	t.Run("set quantity zero removes", func(t *testing.T) {
		f := newFixture(t)
		f.serveCart(ring("a", "100", 1), ring("b", "20", 1))

		_, cart, err := f.handler.mcpSetCartQuantity(ctx, nil, SetQuantityInput{Meta: meta, ProductID: "a", Quantity: 0})
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, "b", cart.Items[0].ProductID)
	})

	t.Run("remove unknown", func(t *testing.T) {
		f := newFixture(t)
		_, _, err := f.handler.mcpRemoveFromCart(ctx, nil, ProductInput{Meta: meta, ProductID: "zzz"})
		require.Error(t, err)
		assert.True(t, strings.HasPrefix(err.Error(), "NOT_FOUND"), err.Error())
	})

	t.Run("add to wishlist snapshots the product", func(t *testing.T) {
		f := newFixture(t)
		f.catalog.GetProductFunc = func(_ context.Context, id string) (*model.Product, error) {
			orig := model.MustMoney("300")
			return &model.Product{ID: id, Name: "Cuff", Price: model.MustMoney("240"), OriginalPrice: &orig}, nil
		}

		_, list, err := f.handler.mcpAddToWishlist(ctx, nil, ProductInput{Meta: meta, ProductID: "c1"})
		require.NoError(t, err)
		require.Len(t, list.Items, 1)
		assert.Equal(t, "Cuff", list.Items[0].Name)
		assert.Equal(t, "300.00", list.Items[0].OriginalPrice)
		assert.True(t, list.Items[0].InStock, "server stock wins over the snapshot")
	})

	t.Run("auth error points at login", func(t *testing.T) {
		f := newFixture(t)
		f.remote.FetchWishlistFunc = func(context.Context) ([]model.WishlistItem, error) {
			return nil, model.NewAuthError("session expired")
		}
		_, _, err := f.handler.mcpGetWishlist(ctx, nil, ListInput{Meta: meta})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "AUTH_REQUIRED")
		assert.Contains(t, err.Error(), "/login")
	})

	t.Run("stale client", func(t *testing.T) {
		f := newFixture(t)
		f.handler.minClientVersion = "2.0.0"
		old := MCPMeta{Storefront: &StorefrontMeta{Session: testSession, Version: "1.9.0"}}
		_, _, err := f.handler.mcpGetCart(ctx, nil, ListInput{Meta: old})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "client_version_unsupported")
	})
}

// initMCPSession initializes an MCP session and returns the session ID.
func initMCPSession(t *testing.T, h http.Handler) string {
	t.Helper()

	initReq := jsonrpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "initialize",
		Params: map[string]any{
			"protocolVersion": "2025-06-18",
			"clientInfo":      map[string]string{"name": "test", "version": "1.0"},
			"capabilities":    map[string]any{},
		},
	}
	body, _ := json.Marshal(initReq)
	httpReq := httptest.NewRequest("POST", "/mcp", bytes.NewReader(body))
	setMCPHeaders(httpReq, "")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httpReq)
	require.Equal(t, http.StatusOK, w.Code, "initialize: %s", w.Body.String())

	sessionID := w.Header().Get("Mcp-Session-Id")

	// Complete the handshake.
	note, _ := json.Marshal(map[string]any{"jsonrpc": "2.0", "method": "notifications/initialized"})
	noteReq := httptest.NewRequest("POST", "/mcp", bytes.NewReader(note))
	setMCPHeaders(noteReq, sessionID)
	h.ServeHTTP(httptest.NewRecorder(), noteReq)

	return sessionID
}

// mcpCall posts one JSON-RPC request and decodes the reply.
func mcpCall(t *testing.T, h http.Handler, sessionID string, req jsonrpcRequest) jsonrpcResponse {
	t.Helper()
	body, _ := json.Marshal(req)
	httpReq := httptest.NewRequest("POST", "/mcp", bytes.NewReader(body))
	setMCPHeaders(httpReq, sessionID)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httpReq)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp jsonrpcResponse
	require.NoError(t, json.Unmarshal(parseSSEResponse(w.Body.String()), &resp))
	return resp
}

func callTool(t *testing.T, h http.Handler, sessionID, name string, args, meta map[string]any) callToolResult {
	t.Helper()
	rawArgs, _ := json.Marshal(args)
	resp := mcpCall(t, h, sessionID, jsonrpcRequest{
		JSONRPC: "2.0",
		ID:      2,
		Method:  "tools/call",
		Params:  toolCallParams{Name: name, Arguments: rawArgs, Meta: meta},
	})
	require.Nil(t, resp.Error, "protocol error")

	var result callToolResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	return result
}

// setMCPHeaders sets the required headers for MCP Streamable HTTP requests.
func setMCPHeaders(req *http.Request, sessionID string) {
	req.Header.Set("Content-Type", "application/json")
	// MCP Streamable HTTP requires Accept header with both json and event-stream
	req.Header.Set("Accept", "application/json, text/event-stream")
	if sessionID != "" {
		req.Header.Set("Mcp-Session-Id", sessionID)
	}
}

// parseSSEResponse extracts JSON data from SSE formatted response.
// SSE format: "event: message\ndata: {json}\n\n"
func parseSSEResponse(body string) []byte {
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "data: ") {
			return []byte(strings.TrimPrefix(line, "data: "))
		}
	}
	// If no SSE format found, assume plain JSON
	return []byte(body)
}
