//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-donations/app/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	defaultDonationsHTTPBase = "http://localhost:48081"
	defaultDonationsGRPCAddr = "localhost:49091"

	donationsGRPCService = "/donations.DonationsService/"
)

type httpClient struct {
	baseURL string
	client  *http.Client
}

func newHTTPClient(baseURL string) *httpClient {
	return &httpClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *httpClient) do(t *testing.T, method, path string, body any, apiKey string) (*http.Response, []byte) {
	t.Helper()

	reqBody := bytes.NewReader(nil)
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal failed: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		t.Fatalf("new request failed: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("http request failed: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response failed: %v", err)
	}
	return resp, bodyBytes
}

func waitForHTTP(baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 2 * time.Second}
	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("http service not ready at %s", baseURL)
}

func waitForGRPC(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("grpc service not ready at %s", addr)
}

func grpcContextWithHeaders(apiKey, requestID string) context.Context {
	ctx := context.Background()
	if requestID != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "x-request-id", requestID)
	}
	if apiKey != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "x-api-key", apiKey)
	}
	return ctx
}

func invoke(ctx context.Context, conn *grpc.ClientConn, method string, in map[string]any) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := conn.Invoke(ctx, donationsGRPCService+method, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func TestDonationsE2E(t *testing.T) {
	httpBase := os.Getenv("DONATIONS_HTTP_URL")
	if httpBase == "" {
		httpBase = defaultDonationsHTTPBase
	}
	grpcAddr := os.Getenv("DONATIONS_GRPC_ADDR")
	if grpcAddr == "" {
		grpcAddr = defaultDonationsGRPCAddr
	}

	if err := waitForHTTP(httpBase, 30*time.Second); err != nil {
		t.Fatalf("http not ready: %v", err)
	}
	if err := waitForGRPC(grpcAddr, 30*time.Second); err != nil {
		t.Fatalf("grpc not ready: %v", err)
	}

	client := newHTTPClient(httpBase)

	conn, err := grpc.NewClient(grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("grpc dial failed: %v", err)
	}
	defer conn.Close()

	t.Run("HTTPHealthAssignsRequestID", func(t *testing.T) {
		resp, body := client.do(t, http.MethodGet, "/health", nil, "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", resp.StatusCode, string(body))
		}
		if resp.Header.Get("X-Request-ID") == "" {
			t.Fatal("expected generated X-Request-ID")
		}
		var health types.HealthResponse
		if err := json.Unmarshal(body, &health); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if health.Status != "ok" || len(health.Providers) == 0 {
			t.Fatalf("unexpected health response: %+v", health)
		}
	})

	t.Run("HTTPPreflight", func(t *testing.T) {
		resp, body := client.do(t, http.MethodOptions, "/process-cielo-payment", nil, "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if len(body) != 0 {
			t.Fatalf("expected empty body, got %q", string(body))
		}
		if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
			t.Fatal("expected wildcard origin")
		}
	})

	t.Run("HTTPMethodNotAllowed", func(t *testing.T) {
		resp, _ := client.do(t, http.MethodGet, "/create-stripe-checkout", nil, "")
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", resp.StatusCode)
		}
	})

	t.Run("HTTPInvalidAmount", func(t *testing.T) {
		resp, body := client.do(t, http.MethodPost, "/create-paypal-order", map[string]any{"amount": 0}, "")
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", resp.StatusCode, string(body))
		}
	})

	t.Run("HTTPDonationNotFound", func(t *testing.T) {
		resp, _ := client.do(t, http.MethodGet, "/donations/00000000-0000-0000-0000-000000000000", nil, "")
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("HTTPAdminUnauthorizedMissingAPIKey", func(t *testing.T) {
		resp, _ := client.do(t, http.MethodGet, "/admin/donations", nil, "")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("HTTPAdminForbiddenInsufficientAccess", func(t *testing.T) {
		resp, _ := client.do(t, http.MethodGet, "/admin/donations", nil, donationsNoAccessAPIKey())
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", resp.StatusCode)
		}
	})

	t.Run("HTTPAdminListAndStaleReport", func(t *testing.T) {
		resp, body := client.do(t, http.MethodGet, "/admin/donations?limit=5", nil, donationsCallerAPIKey())
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", resp.StatusCode, string(body))
		}
		var list types.ListDonationsResponse
		if err := json.Unmarshal(body, &list); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if len(list.Donations) > 5 {
			t.Fatalf("expected at most 5 donations, got %d", len(list.Donations))
		}

		resp, body = client.do(t, http.MethodGet, "/admin/donations/stale", nil, donationsCallerAPIKey())
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", resp.StatusCode, string(body))
		}
	})

	t.Run("GRPCMissingRequestID", func(t *testing.T) {
		_, err := invoke(grpcContextWithHeaders(donationsCallerAPIKey(), ""), conn, "GetDonation", map[string]any{"id": "missing"})
		if status.Code(err) != codes.InvalidArgument {
			t.Fatalf("expected InvalidArgument, got %v", err)
		}
	})

	t.Run("GRPCUnauthorizedMissingAPIKey", func(t *testing.T) {
		_, err := invoke(grpcContextWithHeaders("", "e2e-grpc-unauth"), conn, "GetDonation", map[string]any{"id": "missing"})
		if status.Code(err) != codes.Unauthenticated {
			t.Fatalf("expected Unauthenticated, got %v", err)
		}
	})

	t.Run("GRPCForbiddenInsufficientAccess", func(t *testing.T) {
		_, err := invoke(grpcContextWithHeaders(donationsNoAccessAPIKey(), "e2e-grpc-forbidden"), conn, "GetDonation", map[string]any{"id": "missing"})
		if status.Code(err) != codes.PermissionDenied {
			t.Fatalf("expected PermissionDenied, got %v", err)
		}
	})

	t.Run("GRPCValidationInitiate", func(t *testing.T) {
		_, err := invoke(grpcContextWithHeaders(donationsCallerAPIKey(), "e2e-grpc-validate"), conn, "Initiate", map[string]any{"amount": 0, "provider": "stripe"})
		if status.Code(err) != codes.InvalidArgument {
			t.Fatalf("expected InvalidArgument, got %v", err)
		}
	})

	t.Run("GRPCGetNotFound", func(t *testing.T) {
		_, err := invoke(grpcContextWithHeaders(donationsCallerAPIKey(), "e2e-grpc-notfound"), conn, "GetDonation", map[string]any{"id": "00000000-0000-0000-0000-000000000000"})
		if status.Code(err) != codes.NotFound {
			t.Fatalf("expected NotFound, got %v", err)
		}
	})

	t.Run("GRPCListDonations", func(t *testing.T) {
		out, err := invoke(grpcContextWithHeaders(donationsCallerAPIKey(), "e2e-grpc-list"), conn, "ListDonations", map[string]any{"limit": 5})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, ok := out.GetFields()["donations"]; !ok {
			t.Fatal("expected donations field")
		}
	})
}
