package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Remote persists a draft to a server.
type Remote interface {
	SaveDraft(ctx context.Context, s Snapshot) error
}

// NopRemote discards every save.
type NopRemote struct{}

// SaveDraft implements Remote.
func (NopRemote) SaveDraft(context.Context, Snapshot) error { return nil }

// StatusError is returned for a non-2xx response from an HTTP remote.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote returned %d", e.Code)
	}
	return fmt.Sprintf("remote returned %d: %s", e.Code, e.Body)
}

// HTTPRemote posts drafts to <base>/drafts/<id>.
type HTTPRemote struct {
	base   string
	client *http.Client
	token  string
}

// HTTPOption configures an HTTPRemote.
type HTTPOption func(*HTTPRemote)

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(r *HTTPRemote) {
		r.client = c
	}
}

// WithAuthToken sends a bearer token with every request.
func WithAuthToken(token string) HTTPOption {
	return func(r *HTTPRemote) {
		r.token = token
	}
}

// NewHTTPRemote creates a remote for the server at baseURL.
func NewHTTPRemote(baseURL string, opts ...HTTPOption) (*HTTPRemote, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse remote url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse remote url: unsupported scheme %q", u.Scheme)
	}
	r := &HTTPRemote{
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// SaveDraft implements Remote.
func (r *HTTPRemote) SaveDraft(ctx context.Context, s Snapshot) error {
	body, err := remotePayload(s)
	if err != nil {
		return err
	}

	endpoint := r.base + "/drafts/" + url.PathEscape(s.DraftID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("post draft: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// RedisRemote stores drafts in Redis under "draft:<id>".
type RedisRemote struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisRemote connects to the Redis server at redisURL.
func NewRedisRemote(redisURL string) (*RedisRemote, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisRemoteWithClient(client), nil
}

// NewRedisRemoteWithClient creates a remote from an existing client.
func NewRedisRemoteWithClient(client *redis.Client) *RedisRemote {
	return &RedisRemote{client: client, prefix: "draft:"}
}

// SetTTL expires stored drafts after d. Zero keeps them forever.
func (r *RedisRemote) SetTTL(d time.Duration) {
	r.ttl = d
}

func (r *RedisRemote) key(id string) string {
	return r.prefix + id
}

// SaveDraft implements Remote.
func (r *RedisRemote) SaveDraft(ctx context.Context, s Snapshot) error {
	body, err := remotePayload(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(s.DraftID), body, r.ttl).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// LoadDraft reads a draft saved by SaveDraft.
func (r *RedisRemote) LoadDraft(ctx context.Context, id string) (Snapshot, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load draft: %w", err)
	}
	return decodePayload(data)
}

// Ping checks that Redis is reachable.
func (r *RedisRemote) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *RedisRemote) Close() error {
	return r.client.Close()
}
