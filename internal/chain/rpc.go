package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/halcyon-fi/harvester/internal/logger"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidEndpoint  = errors.New("gateway endpoint is invalid")
	ErrRequestFailed    = errors.New("gateway request failed")
	ErrInvalidResponse  = errors.New("gateway response is invalid")
	ErrGatewayRejected  = errors.New("gateway rejected the call")
	ErrExecutionFailed  = errors.New("on-chain execution failed")
)

var rpcLogger = logger.GetForComponent("gateway_client")

const (
	requestTimeout = 30 * time.Second
	jsonRPCVersion = "2.0"
)

// JSON-RPC structures for calls into the execution gateway.

// RPCRequest defines the structure of a JSON-RPC request.
type RPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// RPCResponse defines the structure of a JSON-RPC response.
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError defines the structure of a JSON-RPC error.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("code %d: %s (%s)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("code %d: %s", e.Code, e.Message)
}

// ExecutionResult is the gateway's report of a submitted transaction. A
// non-zero code means the transaction was included but the execution reverted.
type ExecutionResult struct {
	TxHash string `json:"tx_hash"`
	Code   uint32 `json:"code"`
	Log    string `json:"log,omitempty"`
}

// GatewayClient is a JSON-RPC client for the strategy execution gateway. The
// gateway holds the strategy account's signing key and submits transfers,
// farm operations and swaps on its behalf.
type GatewayClient struct {
	endpoint   string
	httpClient *http.Client
	nextID     int
}

// NewGatewayClient creates a gateway client after validating the endpoint.
func NewGatewayClient(endpoint string) (*GatewayClient, error) {
	if endpoint == "" {
		return nil, errors.Join(ErrInvalidEndpoint, errors.New("endpoint cannot be empty"))
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return nil, fmt.Errorf("%w: %s (must be an http(s) URL)", ErrInvalidEndpoint, endpoint)
	}

	return &GatewayClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		nextID: 1,
	}, nil
}

// Call performs a JSON-RPC call against the gateway and decodes the result
// into out (which may be nil when the caller only cares about success).
func (c *GatewayClient) Call(ctx context.Context, method string, params any, out any) error {
	if method == "" {
		return errors.Join(ErrRequestFailed, errors.New("method cannot be empty"))
	}

	rawParams, err := json.Marshal(params)
	if err != nil {
		return errors.Join(ErrRequestFailed, fmt.Errorf("failed to marshal params: %w", err))
	}

	reqID := c.nextID
	c.nextID++

	rpcReq := RPCRequest{
		JSONRPC: jsonRPCVersion,
		ID:      reqID,
		Method:  method,
		Params:  rawParams,
	}

	body, err := json.Marshal(rpcReq)
	if err != nil {
		return errors.Join(ErrRequestFailed, fmt.Errorf("failed to marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Join(ErrRequestFailed, fmt.Errorf("failed to build HTTP request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		rpcLogger.Error().Err(err).Str("method", method).Msg("Gateway HTTP request failed")
		return errors.Join(ErrRequestFailed, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return errors.Join(ErrInvalidResponse, fmt.Errorf("failed to read response body: %w", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d: %s", ErrRequestFailed, httpResp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var rpcResp RPCResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return errors.Join(ErrInvalidResponse, fmt.Errorf("failed to decode JSON-RPC response: %w", err))
	}

	if rpcResp.Error != nil {
		rpcLogger.Error().
			Str("method", method).
			Int("code", rpcResp.Error.Code).
			Str("message", rpcResp.Error.Message).
			Msg("Gateway rejected call")
		return errors.Join(ErrGatewayRejected, rpcResp.Error)
	}

	if out != nil {
		if rpcResp.Result == nil {
			return errors.Join(ErrInvalidResponse, errors.New("response has no result"))
		}
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			return errors.Join(ErrInvalidResponse, fmt.Errorf("failed to decode result: %w", err))
		}
	}

	return nil
}

// Execute performs a state-mutating gateway call and fails when the submitted
// transaction did not execute cleanly.
func (c *GatewayClient) Execute(ctx context.Context, method string, params any) (*ExecutionResult, error) {
	var result ExecutionResult
	if err := c.Call(ctx, method, params, &result); err != nil {
		return nil, err
	}

	if result.Code != 0 {
		rpcLogger.Error().
			Str("method", method).
			Str("txHash", result.TxHash).
			Uint32("code", result.Code).
			Str("log", result.Log).
			Msg("On-chain execution failed")
		return &result, fmt.Errorf("%w: code %d: %s", ErrExecutionFailed, result.Code, result.Log)
	}

	rpcLogger.Debug().
		Str("method", method).
		Str("txHash", result.TxHash).
		Msg("Gateway call executed")

	return &result, nil
}
