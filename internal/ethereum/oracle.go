package ethereum

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"rundapp-engine/internal/metrics"
)

// ZeroAddress is what the contract returns for participants of a challenge
// it has no record of
const ZeroAddress = "0x0000000000000000000000000000000000000000"

const challengeLookupSignature = "challengeLookup(string)"

// OnChainChallenge is the authoritative challenge record held by the
// contract. Bounty is in wei, Distance in cm, Pace in cm/s.
type OnChainChallenge struct {
	ID         string
	Challenger string
	Challengee string
	Bounty     int64
	Distance   int64
	Pace       int64
	IssuedAt   int64
	Complete   bool
}

// Exists reports whether the contract actually holds this challenge. The
// contract signals a missing record with zero participant addresses.
func (c *OnChainChallenge) Exists() bool {
	return !strings.EqualFold(c.Challenger, ZeroAddress) &&
		!strings.EqualFold(c.Challengee, ZeroAddress)
}

// Oracle reads challenge truth from the deployed contract over JSON-RPC.
// It never sends transactions.
type Oracle struct {
	httpClient      *http.Client
	rpcURL          string
	contractAddress string
	logger          *slog.Logger
}

// NewOracle creates an oracle bound to one contract address
func NewOracle(rpcURL, contractAddress string) *Oracle {
	return &Oracle{
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		rpcURL:          rpcURL,
		contractAddress: contractAddress,
		logger:          slog.Default(),
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int    `json:"id"`
}

type rpcResponse struct {
	Result string `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GetChallenge retrieves the on-chain challenge record by identifier
func (o *Oracle) GetChallenge(ctx context.Context, challengeID string) (*OnChainChallenge, error) {
	calldata := encodeStringCall(challengeLookupSignature, challengeID)

	result, err := o.call(ctx, calldata)
	if err != nil {
		metrics.OracleReadsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return nil, fmt.Errorf("challenge lookup failed: %w", err)
	}
	metrics.OracleReadsTotal.WithLabelValues(metrics.ResultSuccess).Inc()

	data, err := parseReturnData(result)
	if err != nil {
		return nil, fmt.Errorf("failed to parse challenge lookup result: %w", err)
	}

	// Return tuple: (string id, address challenger, address challengee,
	// uint256 bounty, uint256 distance, uint256 speed, uint256 issuedAt, bool complete)
	challenge := &OnChainChallenge{}
	if challenge.ID, err = data.stringAt(0); err != nil {
		return nil, fmt.Errorf("failed to decode challenge id: %w", err)
	}
	if challenge.Challenger, err = data.address(1); err != nil {
		return nil, fmt.Errorf("failed to decode challenger: %w", err)
	}
	if challenge.Challengee, err = data.address(2); err != nil {
		return nil, fmt.Errorf("failed to decode challengee: %w", err)
	}
	if challenge.Bounty, err = data.int64Word(3); err != nil {
		return nil, fmt.Errorf("failed to decode bounty: %w", err)
	}
	if challenge.Distance, err = data.int64Word(4); err != nil {
		return nil, fmt.Errorf("failed to decode distance: %w", err)
	}
	if challenge.Pace, err = data.int64Word(5); err != nil {
		return nil, fmt.Errorf("failed to decode pace: %w", err)
	}
	if challenge.IssuedAt, err = data.int64Word(6); err != nil {
		return nil, fmt.Errorf("failed to decode issuedAt: %w", err)
	}
	if challenge.Complete, err = data.boolWord(7); err != nil {
		return nil, fmt.Errorf("failed to decode complete: %w", err)
	}

	o.logger.Debug("oracle_challenge_lookup",
		"challenge_id", challengeID,
		"exists", challenge.Exists(),
		"complete", challenge.Complete,
	)

	return challenge, nil
}

// call performs an eth_call against the contract at the latest block
func (o *Oracle) call(ctx context.Context, calldata []byte) (string, error) {
	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "eth_call",
		Params: []any{
			map[string]string{
				"to":   o.contractAddress,
				"data": "0x" + hex.EncodeToString(calldata),
			},
			"latest",
		},
		ID: 1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.rpcURL, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := o.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		o.logger.Error("eth_call failed", "error", err, "duration_ms", duration.Milliseconds())
		return "", fmt.Errorf("eth_call failed: %w", err)
	}
	defer resp.Body.Close()

	o.logger.Info("eth_call", "status", resp.StatusCode, "duration_ms", duration.Milliseconds())

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("eth_call failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return "", fmt.Errorf("failed to decode rpc response: %w", err)
	}

	if rpcResp.Error != nil {
		return "", fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	return rpcResp.Result, nil
}
