package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ledgergames/splitsecond/pkg/auth"
	"github.com/ledgergames/splitsecond/pkg/ledger"
	"github.com/ledgergames/splitsecond/pkg/log"
	"github.com/ledgergames/splitsecond/pkg/messages"
)

const (
	// DefaultRetryAttempts bounds the retry-on-not-found policy.
	DefaultRetryAttempts = 3
	// DefaultRetryDelay is the fixed delay between attempts.
	DefaultRetryDelay = 500 * time.Millisecond
)

// GameState is the client's transient mirror of an on-ledger Game.
// It is a cache with no authority of its own and is stale until
// re-fetched. nil fields mean the value was missing or unparsable.
type GameState struct {
	GameID        string
	BestDiffMs    *uint64
	ActiveStartMs *int64
}

// BoardEntry is one parsed leaderboard row.
type BoardEntry struct {
	Player     string
	BestDiffMs uint64
	Name       string
}

// Client synchronizes local views with the authoritative ledger.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	wallet        *auth.Wallet
	retryAttempts int
	retryDelay    time.Duration
}

type NewClientOptions struct {
	BaseURL string
	Wallet  *auth.Wallet
	// HTTPClient is optional; http.DefaultClient is used when nil.
	HTTPClient *http.Client
	// RetryAttempts and RetryDelay are optional overrides of the
	// bounded retry policy.
	RetryAttempts int
	RetryDelay    time.Duration
}

func NewClient(opts NewClientOptions) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	retryAttempts := opts.RetryAttempts
	if retryAttempts <= 0 {
		retryAttempts = DefaultRetryAttempts
	}
	retryDelay := opts.RetryDelay
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	return &Client{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		httpClient:    httpClient,
		wallet:        opts.Wallet,
		retryAttempts: retryAttempts,
		retryDelay:    retryDelay,
	}
}

// FetchGame fetches and parses a Game object. A not-found that
// survives the bounded retries returns ErrNotFound; parse problems in
// individual fields degrade to nil fields instead of failing.
func (c *Client) FetchGame(ctx context.Context, gameID string) (*GameState, error) {
	raw := &rawObject{}
	if err := c.getWithRetry(ctx, "/objects/"+gameID, raw); err != nil {
		return nil, err
	}
	return parseGameState(raw), nil
}

// FetchLeaderboard fetches and parses the shared leaderboard.
// Malformed entries are skipped so one bad row never hides the rest.
func (c *Client) FetchLeaderboard(ctx context.Context, boardID string) ([]BoardEntry, error) {
	raw := &rawObject{}
	if err := c.getWithRetry(ctx, "/objects/"+boardID, raw); err != nil {
		return nil, err
	}
	return parseBoardEntries(raw), nil
}

// CreateGame submits a create_game transaction, waits for it to be
// visible, and returns the id of the created Game found in the
// transaction's object changes.
func (c *Client) CreateGame(ctx context.Context) (string, error) {
	return c.create(ctx, string(ledger.TxCreateGame), ledger.TypeTagGame)
}

// CreateLeaderboard submits a create_leaderboard transaction and
// returns the id of the created shared Leaderboard.
func (c *Client) CreateLeaderboard(ctx context.Context) (string, error) {
	return c.create(ctx, string(ledger.TxCreateLeaderboard), ledger.TypeTagLeaderboard)
}

func (c *Client) create(ctx context.Context, kind, typeTag string) (string, error) {
	record, err := c.submit(ctx, &messages.SubmitTransactionRequest{Kind: kind})
	if err != nil {
		return "", err
	}

	// Re-read the finalized record through the read path; freshly
	// written transactions may lag behind an indexer.
	finalized := &ledger.TransactionRecord{}
	if err := c.getWithRetry(ctx, "/transactions/"+record.Digest, finalized); err != nil {
		return "", err
	}

	for _, change := range finalized.ObjectChanges {
		if change.Kind == ledger.ChangeCreated && change.ObjectType == typeTag {
			return change.ObjectID, nil
		}
	}
	return "", &ErrCreatedObjectNotFound{TypeTag: typeTag, Digest: record.Digest}
}

// Start begins an attempt on the owned Game, then re-fetches it.
func (c *Client) Start(ctx context.Context, gameID string) (*GameState, error) {
	_, err := c.submit(ctx, &messages.SubmitTransactionRequest{
		Kind:   string(ledger.TxStart),
		GameID: gameID,
	})
	if err != nil {
		return nil, err
	}
	return c.FetchGame(ctx, gameID)
}

// Stop ends the running attempt, then re-fetches both the Game and the
// Leaderboard so the caller's views are refreshed together.
func (c *Client) Stop(ctx context.Context, gameID, boardID, nickname string) (*GameState, []BoardEntry, error) {
	_, err := c.submit(ctx, &messages.SubmitTransactionRequest{
		Kind:          string(ledger.TxStop),
		GameID:        gameID,
		LeaderboardID: boardID,
		Name:          nickname,
	})
	if err != nil {
		return nil, nil, err
	}

	gameState, err := c.FetchGame(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	entries, err := c.FetchLeaderboard(ctx, boardID)
	if err != nil {
		return gameState, nil, err
	}
	return gameState, entries, nil
}

// ResetBest resets the owned Game to idle with no recorded score.
func (c *Client) ResetBest(ctx context.Context, gameID string) (*GameState, error) {
	_, err := c.submit(ctx, &messages.SubmitTransactionRequest{
		Kind:   string(ledger.TxResetBest),
		GameID: gameID,
	})
	if err != nil {
		return nil, err
	}
	return c.FetchGame(ctx, gameID)
}

// FindOwnedGame looks up an existing Game owned by the wallet address,
// for revalidating a cached id or recovering a lost one.
func (c *Client) FindOwnedGame(ctx context.Context) (string, error) {
	var raws []rawObject
	path := fmt.Sprintf("/owners/%s/objects?type=%s", c.wallet.Address(), ledger.TypeTagGame)
	if err := c.getWithRetry(ctx, path, &raws); err != nil {
		return "", err
	}
	if len(raws) == 0 {
		return "", &ErrNotFound{Path: path}
	}
	return raws[0].ObjectID, nil
}

// submit posts one transaction and decodes the finalized record.
// Failed transactions surface the ledger's error message verbatim;
// there is no automatic retry of submissions.
func (c *Client) submit(ctx context.Context, req *messages.SubmitTransactionRequest) (*ledger.TransactionRecord, error) {
	token, err := c.wallet.SignToken()
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transaction: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transactions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to submit transaction: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	record := &ledger.TransactionRecord{}
	if err := json.Unmarshal(respBody, record); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("transaction failed: %s", strings.TrimSpace(string(respBody)))
		}
		return nil, fmt.Errorf("failed to decode transaction record: %v", err)
	}

	if resp.StatusCode != http.StatusOK || record.Status != ledger.TxStatusSuccess {
		if record.Error != "" {
			return record, fmt.Errorf("transaction failed: %s", record.Error)
		}
		return record, fmt.Errorf("transaction failed with status %d", resp.StatusCode)
	}
	return record, nil
}

// getWithRetry fetches a read path, retrying only on 404. A write that
// is not yet visible to the read path resolves within a couple of
// attempts; anything else is either a hard failure (returned
// immediately) or genuinely absent (ErrNotFound after the attempts are
// exhausted).
func (c *Client) getWithRetry(ctx context.Context, path string, v interface{}) error {
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		notFound, err := c.getOnce(ctx, path, v)
		if err != nil {
			return err
		}
		if !notFound {
			return nil
		}
		log.Debug("%s not found (attempt %d/%d)", path, attempt, c.retryAttempts)
	}
	return &ErrNotFound{Path: path}
}

func (c *Client) getOnce(ctx context.Context, path string, v interface{}) (notFound bool, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %v", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false, fmt.Errorf("failed to fetch %s: %v", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return true, nil
	default:
		body, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("failed to fetch %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %v", path, err)
	}
	return false, nil
}
