package ledger

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// XRPLClient speaks the XRP Ledger websocket JSON-RPC API. One request is in
// flight at a time; the mutex serializes command/response pairs on the single
// connection. Investor wallets are custodial, so the platform signs TrustSet
// transactions on their behalf.
type XRPLClient struct {
	endpoint      string
	issuerAddress string
	issuerSeed    string
	log           *logrus.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	nextID int64
}

func NewXRPLClient(endpoint, issuerAddress, issuerSeed string, log *logrus.Logger) *XRPLClient {
	return &XRPLClient{
		endpoint:      endpoint,
		issuerAddress: issuerAddress,
		issuerSeed:    issuerSeed,
		log:           log,
	}
}

type xrplResponse struct {
	ID           int64  `json:"id"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Result       struct {
		EngineResult        string `json:"engine_result"`
		EngineResultMessage string `json:"engine_result_message"`
		TxJSON              struct {
			Hash string `json:"hash"`
		} `json:"tx_json"`
	} `json:"result"`
}

func (c *XRPLClient) dialLocked(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial xrpl node: %w", err)
	}
	c.conn = conn
	return nil
}

func (c *XRPLClient) closeLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// submit signs and submits one transaction, returning the ledger hash.
func (c *XRPLClient) submit(ctx context.Context, txJSON map[string]any) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.dialLocked(ctx); err != nil {
		return "", err
	}
	c.nextID++
	request := map[string]any{
		"id":      c.nextID,
		"command": "submit",
		"secret":  c.issuerSeed,
		"tx_json": txJSON,
	}
	deadline := time.Now().Add(10 * time.Second)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	_ = c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteJSON(request); err != nil {
		c.closeLocked()
		return "", fmt.Errorf("write submit: %w", err)
	}
	_ = c.conn.SetReadDeadline(deadline)
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			c.closeLocked()
			return "", fmt.Errorf("read submit response: %w", err)
		}
		var resp xrplResponse
		if err := json.Unmarshal(payload, &resp); err != nil {
			continue
		}
		// Subscription streams share the connection; skip anything that is
		// not the answer to this request.
		if resp.ID != c.nextID {
			continue
		}
		if resp.Status != "success" {
			return "", fmt.Errorf("xrpl request failed: %s", resp.ErrorMessage)
		}
		if !strings.HasPrefix(resp.Result.EngineResult, "tes") {
			return "", fmt.Errorf("xrpl engine result %s: %s", resp.Result.EngineResult, resp.Result.EngineResultMessage)
		}
		return resp.Result.TxJSON.Hash, nil
	}
}

// MintTokens anchors a new issued currency. Issued currencies on the XRPL
// come into existence when they first move across a trust line; the mint step
// enables rippling on the issuer account and records symbol and supply in a
// transaction memo as the audit anchor.
func (c *XRPLClient) MintTokens(ctx context.Context, symbol string, totalSupply int64) (string, error) {
	memo := fmt.Sprintf("mint %s supply %d", symbol, totalSupply)
	return c.submit(ctx, map[string]any{
		"TransactionType": "AccountSet",
		"Account":         c.issuerAddress,
		"SetFlag":         8, // asfDefaultRipple
		"Memos":           memos(memo),
	})
}

func (c *XRPLClient) EstablishTrustLine(ctx context.Context, wallet, symbol string, maxAmount int64) (string, error) {
	return c.submit(ctx, map[string]any{
		"TransactionType": "TrustSet",
		"Account":         wallet,
		"LimitAmount": map[string]any{
			"currency": symbol,
			"issuer":   c.issuerAddress,
			"value":    strconv.FormatInt(maxAmount, 10),
		},
	})
}

func (c *XRPLClient) TransferTokens(ctx context.Context, wallet, symbol string, amount int64, memo string) (string, error) {
	return c.submit(ctx, map[string]any{
		"TransactionType": "Payment",
		"Account":         c.issuerAddress,
		"Destination":     wallet,
		"Amount": map[string]any{
			"currency": symbol,
			"issuer":   c.issuerAddress,
			"value":    strconv.FormatInt(amount, 10),
		},
		"Memos": memos(memo),
	})
}

func (c *XRPLClient) DistributeIncome(ctx context.Context, payouts []Payout) ([]string, error) {
	hashes := make([]string, 0, len(payouts))
	for _, payout := range payouts {
		hash, err := c.submit(ctx, map[string]any{
			"TransactionType": "Payment",
			"Account":         c.issuerAddress,
			"Destination":     payout.Wallet,
			"Amount":          drops(payout.Amount),
		})
		if err != nil {
			if len(hashes) > 0 {
				c.log.WithError(err).WithField("sent", len(hashes)).Error("income distribution stopped mid-batch")
			}
			return hashes, err
		}
		hashes = append(hashes, hash)
	}
	return hashes, nil
}

func (c *XRPLClient) ValidateWalletAddress(address string) bool {
	return ValidWalletAddress(address)
}

var errNotConnected = errors.New("xrpl client not connected")

// Close shuts the websocket connection down.
func (c *XRPLClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return errNotConnected
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// drops converts a major-unit amount to an XRP drops string (1 XRP = 1e6 drops).
func drops(amount decimal.Decimal) string {
	return amount.Mul(decimal.NewFromInt(1_000_000)).RoundBank(0).String()
}

func memos(text string) []map[string]any {
	return []map[string]any{
		{
			"Memo": map[string]any{
				"MemoData": hex.EncodeToString([]byte(text)),
			},
		},
	}
}
