// Command oversellcheck races many buyers for one tier on a running server and
// verifies that completed orders never exceed the tier's capacity.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"ticketcore/internal/auth"
	"ticketcore/internal/shared/identity"
	"ticketcore/internal/shared/middleware"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

type options struct {
	baseURL       string
	eventID       string
	tierID        string
	buyers        int
	perOrder      int
	jwtSecret     string
	paymentSecret string
	timeout       time.Duration
}

type apiResponse struct {
	StatusCode int             `json:"status_code"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

type tally struct {
	created   atomic.Int64
	completed atomic.Int64
	rejected  atomic.Int64
	failed    atomic.Int64
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "oversellcheck:", err)
		os.Exit(1)
	}
}

func run() error {
	// Parse flags
	var opts options
	flags := pflag.NewFlagSet("oversellcheck", pflag.ContinueOnError)
	flags.StringVar(&opts.baseURL, "base-url", "http://localhost:8080/api/v1", "API base URL")
	flags.StringVar(&opts.eventID, "event", "", "event id (required)")
	flags.StringVar(&opts.tierID, "tier", "", "tier id (required)")
	flags.IntVar(&opts.buyers, "buyers", 50, "concurrent buyers")
	flags.IntVar(&opts.perOrder, "quantity", 1, "tickets per order")
	flags.StringVar(&opts.jwtSecret, "jwt-secret", os.Getenv("JWT_SECRET"), "secret used to mint buyer tokens")
	flags.StringVar(&opts.paymentSecret, "payment-secret", os.Getenv("PAYMENT_WEBHOOK_SECRET"), "plaintext payment webhook secret")
	flags.DurationVar(&opts.timeout, "timeout", time.Minute, "overall deadline")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if opts.eventID == "" || opts.tierID == "" {
		return fmt.Errorf("--event and --tier are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	// Baseline
	client := &http.Client{Timeout: 15 * time.Second}
	before, err := tierSold(ctx, client, opts)
	if err != nil {
		return err
	}

	// Race the buyers
	var counts tally
	group, gctx := errgroup.WithContext(ctx)
	for i := range opts.buyers {
		group.Go(func() error {
			return buy(gctx, client, opts, i, &counts)
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	after, err := tierSold(ctx, client, opts)
	if err != nil {
		return err
	}

	fmt.Printf("orders created=%d completed=%d rejected_at_completion=%d rejected_at_create=%d\n",
		counts.created.Load(), counts.completed.Load(), counts.rejected.Load(), counts.failed.Load())
	fmt.Printf("tier sold before=%d after=%d quantity=%d\n", before.Sold, after.Sold, after.Quantity)

	// The counter must match completed orders and never pass capacity
	sold := int64(after.Sold - before.Sold)
	if expected := counts.completed.Load() * int64(opts.perOrder); sold != expected {
		return fmt.Errorf("sold counter moved by %d but %d tickets were completed", sold, expected)
	}
	if after.Sold > after.Quantity {
		return fmt.Errorf("oversold: sold=%d quantity=%d", after.Sold, after.Quantity)
	}
	fmt.Println("OK: no oversell")
	return nil
}

// buy creates one order and settles it through the payment callback.
// Business rejections are counted, transport errors abort the run.
func buy(ctx context.Context, client *http.Client, opts options, n int, counts *tally) error {
	token, err := auth.IssueAccessToken(opts.jwtSecret, identity.New(uuid.New(), identity.RoleUser), time.Hour)
	if err != nil {
		return err
	}

	status, resp, err := call(ctx, client, http.MethodPost, opts.baseURL+"/orders", map[string]any{
		"event_id": opts.eventID,
		"items":    []map[string]any{{"tier_id": opts.tierID, "quantity": opts.perOrder}},
	}, map[string]string{"Authorization": "Bearer " + token})
	if err != nil {
		return err
	}
	if status != http.StatusCreated {
		counts.failed.Add(1)
		return nil
	}
	counts.created.Add(1)

	var order struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Data, &order); err != nil {
		return fmt.Errorf("decode order: %w", err)
	}

	// Settle through the payment callback
	status, _, err = call(ctx, client, http.MethodPost, opts.baseURL+"/payments/orders/"+order.ID+"/complete", map[string]any{
		"payment_id":     fmt.Sprintf("oversellcheck-%d-%s", n, order.ID[:8]),
		"payment_method": "card",
	}, map[string]string{middleware.PaymentSecretHeader: opts.paymentSecret})
	if err != nil {
		return err
	}
	switch status {
	case http.StatusOK:
		counts.completed.Add(1)
	case http.StatusUnauthorized:
		return fmt.Errorf("payment callback rejected the webhook secret")
	default:
		counts.rejected.Add(1)
	}
	return nil
}

type tierCounts struct {
	Quantity int `json:"quantity"`
	Sold     int `json:"sold"`
}

// tierSold reads the tier's sold and quantity counters
func tierSold(ctx context.Context, client *http.Client, opts options) (*tierCounts, error) {
	status, resp, err := call(ctx, client, http.MethodGet, opts.baseURL+"/tiers/"+opts.tierID, nil, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("get tier: %d %s", status, resp.Message)
	}
	var counts tierCounts
	if err := json.Unmarshal(resp.Data, &counts); err != nil {
		return nil, fmt.Errorf("decode tier: %w", err)
	}
	return &counts, nil
}

// call sends a JSON request and decodes the response envelope
func call(ctx context.Context, client *http.Client, method, url string, body any, headers map[string]string) (int, *apiResponse, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer res.Body.Close()

	var parsed apiResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return res.StatusCode, nil, fmt.Errorf("decode %s %s: %w", method, url, err)
	}
	return res.StatusCode, &parsed, nil
}
