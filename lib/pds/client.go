// Copyright 2026 The Skyfile Authors
// SPDX-License-Identifier: Apache-2.0

package pds

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/skyfile-dev/skyfile/lib/schema"
	"github.com/skyfile-dev/skyfile/lib/secret"
)

// maxResponseSize bounds JSON API response body reads: 256 MB. This
// exists solely to prevent a pathological response from exhausting
// system memory; legitimate XRPC responses are orders of magnitude
// smaller.
const maxResponseSize int64 = 256 << 20

// maxBlobSize bounds blob downloads at 1 GB, matching the largest
// declared file size a record can carry.
const maxBlobSize int64 = 1 << 30

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// ServiceURL is the base URL of the PDS (e.g., "https://bsky.social").
	ServiceURL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Client is an unauthenticated PDS client. It holds the service URL and
// HTTP transport, shared across Sessions.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new unauthenticated PDS client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.ServiceURL == "" {
		return nil, fmt.Errorf("pds: ServiceURL is required")
	}

	// Validate the URL structure. The string form (trailing slash
	// stripped) is stored and request URLs are built by concatenation,
	// which sidesteps url.URL re-encoding of already-encoded paths.
	if _, err := url.Parse(config.ServiceURL); err != nil {
		return nil, fmt.Errorf("pds: invalid ServiceURL %q: %w", config.ServiceURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.ServiceURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Session is an authenticated PDS session. The access token is held in
// mmap-backed memory; call Close when the session is no longer needed.
type Session struct {
	client      *Client
	accessToken *secret.Buffer
	did         string
	handle      string
	expiresAt   time.Time
}

// CreateSession authenticates with com.atproto.server.createSession.
// The password Buffer is read but not closed — the caller retains
// ownership. The returned Session's access token is moved into
// mmap-backed memory; the caller must Close it.
func (c *Client) CreateSession(ctx context.Context, identifier string, password *secret.Buffer) (*Session, error) {
	if identifier == "" {
		return nil, fmt.Errorf("pds: identifier is required")
	}
	if password == nil {
		return nil, fmt.Errorf("pds: password is required")
	}

	// Password is converted to string at the JSON serialization
	// boundary. The heap copy is short-lived.
	request := createSessionRequest{
		Identifier: identifier,
		Password:   password.String(),
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/xrpc/com.atproto.server.createSession", nil, request)
	if err != nil {
		return nil, fmt.Errorf("pds: createSession failed: %w", err)
	}

	var response createSessionResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("pds: failed to parse createSession response: %w", err)
	}
	if response.AccessJWT == "" {
		return nil, fmt.Errorf("pds: createSession response missing access token")
	}

	tokenBuffer, err := secret.NewFromBytes([]byte(response.AccessJWT))
	if err != nil {
		return nil, fmt.Errorf("pds: protecting access token: %w", err)
	}

	session := &Session{
		client:      c,
		accessToken: tokenBuffer,
		did:         response.DID,
		handle:      response.Handle,
	}

	// The access token is a JWT; its claims carry the session expiry.
	// Decoded unverified, for diagnostics only — the server remains
	// the authority on whether the token is accepted.
	if expiry, err := tokenExpiry(tokenBuffer); err == nil {
		session.expiresAt = expiry
	}

	c.logger.Info("session created",
		"did", response.DID,
		"handle", response.Handle,
	)

	return session, nil
}

// tokenExpiry extracts the exp claim from a session JWT without
// verifying the signature.
func tokenExpiry(token *secret.Buffer) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token.String(), &claims); err != nil {
		return time.Time{}, fmt.Errorf("pds: decoding session token claims: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("pds: session token has no expiry claim")
	}
	return claims.ExpiresAt.Time, nil
}

// DID returns the authenticated account's DID.
func (s *Session) DID() string { return s.did }

// Handle returns the authenticated account's handle.
func (s *Session) Handle() string { return s.handle }

// ExpiresAt returns the session token expiry, or the zero time when the
// token carried no expiry claim.
func (s *Session) ExpiresAt() time.Time { return s.expiresAt }

// Close releases the protected access token memory. The session must
// not be used afterwards.
func (s *Session) Close() error {
	if s.accessToken == nil {
		return nil
	}
	err := s.accessToken.Close()
	s.accessToken = nil
	return err
}

// UploadBlob uploads bytes with com.atproto.repo.uploadBlob and returns
// the server-assigned blob reference. The server owns the bytes from
// this point; the reference must be attached to a record before the
// server's garbage collector reclaims it.
func (s *Session) UploadBlob(ctx context.Context, body io.Reader, contentType string) (*schema.BlobRef, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	responseBody, err := s.client.doRequestRaw(ctx, http.MethodPost, "/xrpc/com.atproto.repo.uploadBlob", s.accessToken, contentType, body)
	if err != nil {
		return nil, fmt.Errorf("pds: uploadBlob failed: %w", err)
	}

	var response uploadBlobResponse
	if err := json.Unmarshal(responseBody, &response); err != nil {
		return nil, fmt.Errorf("pds: failed to parse uploadBlob response: %w", err)
	}
	if response.Blob.ContentID() == "" {
		return nil, fmt.Errorf("pds: uploadBlob response missing blob reference")
	}
	return &response.Blob, nil
}

// CreateRecord stores a record with com.atproto.repo.createRecord. The
// server performs its own authoritative validation; client-side
// validation is a pre-flight check, not a substitute.
func (s *Session) CreateRecord(ctx context.Context, collection string, record any) (*CreateRecordResult, error) {
	request := createRecordRequest{
		Repo:       s.did,
		Collection: collection,
		Record:     record,
	}

	body, err := s.client.doRequest(ctx, http.MethodPost, "/xrpc/com.atproto.repo.createRecord", s.accessToken, request)
	if err != nil {
		return nil, fmt.Errorf("pds: createRecord failed: %w", err)
	}

	var result CreateRecordResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("pds: failed to parse createRecord response: %w", err)
	}
	return &result, nil
}

// ListRecords fetches up to limit records from a collection with
// com.atproto.repo.listRecords. A limit of 0 uses the server default.
func (s *Session) ListRecords(ctx context.Context, collection string, limit int) ([]Record, error) {
	query := url.Values{}
	query.Set("repo", s.did)
	query.Set("collection", collection)
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	body, err := s.client.doRequest(ctx, http.MethodGet, "/xrpc/com.atproto.repo.listRecords", s.accessToken, nil, query)
	if err != nil {
		return nil, fmt.Errorf("pds: listRecords failed: %w", err)
	}

	var response listRecordsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("pds: failed to parse listRecords response: %w", err)
	}
	return response.Records, nil
}

// GetRecord fetches one record by key with com.atproto.repo.getRecord.
// An unknown rkey surfaces as an *XRPCError for which IsNotFound
// returns true.
func (s *Session) GetRecord(ctx context.Context, collection, rkey string) (*Record, error) {
	query := url.Values{}
	query.Set("repo", s.did)
	query.Set("collection", collection)
	query.Set("rkey", rkey)

	body, err := s.client.doRequest(ctx, http.MethodGet, "/xrpc/com.atproto.repo.getRecord", s.accessToken, nil, query)
	if err != nil {
		return nil, fmt.Errorf("pds: getRecord failed: %w", err)
	}

	var record Record
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("pds: failed to parse getRecord response: %w", err)
	}
	return &record, nil
}

// DeleteRecord removes a record with com.atproto.repo.deleteRecord.
// The referenced blob becomes eligible for server-side garbage
// collection once nothing references it; collection is asynchronous
// and the client has no visibility into completion.
func (s *Session) DeleteRecord(ctx context.Context, collection, rkey string) error {
	request := map[string]string{
		"repo":       s.did,
		"collection": collection,
		"rkey":       rkey,
	}

	if _, err := s.client.doRequest(ctx, http.MethodPost, "/xrpc/com.atproto.repo.deleteRecord", s.accessToken, request); err != nil {
		return fmt.Errorf("pds: deleteRecord failed: %w", err)
	}
	return nil
}

// DownloadBlob fetches blob bytes with com.atproto.sync.getBlob. The
// read is bounded at maxBlobSize; a larger response is an error rather
// than a truncation.
func (s *Session) DownloadBlob(ctx context.Context, cid string) ([]byte, error) {
	query := url.Values{}
	query.Set("did", s.did)
	query.Set("cid", cid)

	requestURL := s.client.baseURL + "/xrpc/com.atproto.sync.getBlob?" + query.Encode()
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("pds: failed to create request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+s.accessToken.String())

	response, err := s.client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("pds: getBlob request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, decodeXRPCError(response, "com.atproto.sync.getBlob")
	}

	data, err := io.ReadAll(io.LimitReader(response.Body, maxBlobSize+1))
	if err != nil {
		return nil, fmt.Errorf("pds: reading blob: %w", err)
	}
	if int64(len(data)) > maxBlobSize {
		return nil, fmt.Errorf("pds: blob exceeds %d byte limit", maxBlobSize)
	}
	return data, nil
}

// doRequest performs a JSON request against the PDS and returns the
// response body. On 2xx, returns the body. On 4xx/5xx, returns a
// *XRPCError. accessToken may be nil for unauthenticated endpoints;
// query may be omitted for endpoints without query parameters.
func (c *Client) doRequest(ctx context.Context, method, path string, accessToken *secret.Buffer, requestBody any, query ...url.Values) ([]byte, error) {
	requestURL := c.baseURL + path
	if len(query) > 0 && query[0] != nil {
		requestURL += "?" + query[0].Encode()
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("pds: failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("pds: failed to create request: %w", err)
	}

	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if accessToken != nil {
		request.Header.Set("Authorization", "Bearer "+accessToken.String())
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("pds: request to %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(response.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("pds: failed to read response body: %w", err)
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}

	// All XRPC error responses use the same JSON shape.
	var xrpcErr XRPCError
	if jsonErr := json.Unmarshal(responseBody, &xrpcErr); jsonErr != nil || xrpcErr.Name == "" {
		// Non-JSON error from a proxy or misconfigured server.
		// Fail loud with the raw body.
		return nil, fmt.Errorf("pds: unexpected %d response from %s %s: %s",
			response.StatusCode, method, path, string(responseBody))
	}
	xrpcErr.StatusCode = response.StatusCode

	return responseBody, &xrpcErr
}

// doRequestRaw performs a request with a raw body (for blob upload).
func (c *Client) doRequestRaw(ctx context.Context, method, path string, accessToken *secret.Buffer, contentType string, body io.Reader) ([]byte, error) {
	requestURL := c.baseURL + path

	request, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, fmt.Errorf("pds: failed to create request: %w", err)
	}

	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}
	if accessToken != nil {
		request.Header.Set("Authorization", "Bearer "+accessToken.String())
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("pds: request to %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(response.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("pds: failed to read response body: %w", err)
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}

	var xrpcErr XRPCError
	if jsonErr := json.Unmarshal(responseBody, &xrpcErr); jsonErr != nil || xrpcErr.Name == "" {
		return nil, fmt.Errorf("pds: unexpected %d response from %s %s: %s",
			response.StatusCode, method, path, string(responseBody))
	}
	xrpcErr.StatusCode = response.StatusCode

	return nil, &xrpcErr
}

// decodeXRPCError builds an *XRPCError from a non-2xx response whose
// body has not been read yet.
func decodeXRPCError(response *http.Response, endpoint string) error {
	body, _ := io.ReadAll(io.LimitReader(response.Body, maxResponseSize))

	var xrpcErr XRPCError
	if err := json.Unmarshal(body, &xrpcErr); err != nil || xrpcErr.Name == "" {
		return fmt.Errorf("pds: unexpected %d response from %s: %s",
			response.StatusCode, endpoint, string(body))
	}
	xrpcErr.StatusCode = response.StatusCode
	return &xrpcErr
}
