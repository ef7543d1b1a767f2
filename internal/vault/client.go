package vault

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/S1riyS/vaultfs/internal/config"
	"github.com/S1riyS/vaultfs/internal/models"
	"github.com/S1riyS/vaultfs/pkg/logging"
	"github.com/tidwall/gjson"
)

const (
	methodList  = "LIST"
	tokenHeader = "X-Vault-Token"

	// Secret groups are small; anything larger is not a KV response.
	maxResponseSize = 32 << 20
)

// Client is the read-only view of a KV v2 engine the tree builder needs.
// Paths start with "/"; names returned by List that end in "/" are
// sub-namespaces.
type Client interface {
	List(ctx context.Context, path string) ([]string, error)
	GroupMetadata(ctx context.Context, path string) (*models.GroupMetadata, error)
	GroupData(ctx context.Context, path string) ([]models.KeyValue, error)
}

type httpClient struct {
	address string
	token   string
	kvMount string
	http    *http.Client
}

func NewClient(cfg config.VaultConfig) Client {
	return NewClientWithHTTP(cfg, &http.Client{Timeout: cfg.Timeout})
}

func NewClientWithHTTP(cfg config.VaultConfig, hc *http.Client) Client {
	mount := strings.Trim(cfg.KVMount, "/")
	if mount == "" {
		mount = "secret"
	}
	return &httpClient{
		address: strings.TrimRight(cfg.Address, "/"),
		token:   strings.TrimSpace(cfg.Token),
		kvMount: mount,
		http:    hc,
	}
}

func (c *httpClient) List(ctx context.Context, path string) ([]string, error) {
	const op = "vault.httpClient.List"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("List", slog.String("path", path))

	body, status, err := c.send(ctx, methodList, c.endpoint("metadata", path))
	if err != nil {
		return nil, &StoreError{Op: op, Path: path, Err: err}
	}

	if status == http.StatusNotFound {
		logger.Debug("Nothing under path", slog.String("path", path))
		return nil, nil
	}
	if !isSuccess(status) {
		return nil, &StoreError{Op: op, Path: path, StatusCode: status, Err: statusError(body)}
	}

	data, err := parseData(body)
	if err != nil {
		return nil, &StoreError{Op: op, Path: path, StatusCode: status, Err: err}
	}

	keys := data.Get("keys")
	if !keys.IsArray() {
		return nil, &StoreError{Op: op, Path: path, StatusCode: status, Err: fmt.Errorf("%w: data.keys is not an array", ErrMalformedResponse)}
	}

	items := keys.Array()
	names := make([]string, 0, len(items))
	for _, item := range items {
		if item.Type != gjson.String {
			return nil, &StoreError{Op: op, Path: path, StatusCode: status, Err: fmt.Errorf("%w: non-string key %s", ErrMalformedResponse, item.Raw)}
		}
		names = append(names, item.Str)
	}

	return names, nil
}

func (c *httpClient) GroupMetadata(ctx context.Context, path string) (*models.GroupMetadata, error) {
	const op = "vault.httpClient.GroupMetadata"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("GroupMetadata", slog.String("path", path))

	data, err := c.get(ctx, op, c.endpoint("metadata", path), path)
	if err != nil {
		return nil, err
	}

	return &models.GroupMetadata{
		CreatedTime: data.Get("created_time").String(),
		UpdatedTime: data.Get("updated_time").String(),
	}, nil
}

func (c *httpClient) GroupData(ctx context.Context, path string) ([]models.KeyValue, error) {
	const op = "vault.httpClient.GroupData"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("GroupData", slog.String("path", path))

	data, err := c.get(ctx, op, c.endpoint("data", path), path)
	if err != nil {
		return nil, err
	}

	values := data.Get("data")
	if values.Type == gjson.Null {
		// Latest version destroyed or deleted
		return nil, nil
	}
	if !values.IsObject() {
		return nil, &StoreError{Op: op, Path: path, Err: fmt.Errorf("%w: data.data is not an object", ErrMalformedResponse)}
	}

	var pairs []models.KeyValue
	values.ForEach(func(key, value gjson.Result) bool {
		pair := models.KeyValue{Key: key.String(), Value: value.Raw}
		if value.Type == gjson.String {
			pair.Value = value.Str
		}
		pairs = append(pairs, pair)
		return true
	})

	return pairs, nil
}

func (c *httpClient) get(ctx context.Context, op, endpoint, path string) (gjson.Result, error) {
	body, status, err := c.send(ctx, http.MethodGet, endpoint)
	if err != nil {
		return gjson.Result{}, &StoreError{Op: op, Path: path, Err: err}
	}

	if status == http.StatusNotFound {
		if deletedVersion(body) {
			return gjson.GetBytes(body, "data"), nil
		}
		return gjson.Result{}, &StoreError{Op: op, Path: path, StatusCode: status, Err: ErrNotFound}
	}
	if !isSuccess(status) {
		return gjson.Result{}, &StoreError{Op: op, Path: path, StatusCode: status, Err: statusError(body)}
	}

	data, err := parseData(body)
	if err != nil {
		return gjson.Result{}, &StoreError{Op: op, Path: path, StatusCode: status, Err: err}
	}

	return data, nil
}

func (c *httpClient) send(ctx context.Context, method, endpoint string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set(tokenHeader, c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response body: %w", err)
	}

	return body, resp.StatusCode, nil
}

// endpoint builds /v1/<mount>/<kind><path>, escaping each path segment.
func (c *httpClient) endpoint(kind, path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := url.URL{Path: "/v1/" + c.kvMount + "/" + kind + path}
	return c.address + u.EscapedPath()
}

func parseData(body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%w: invalid JSON", ErrMalformedResponse)
	}

	data := gjson.GetBytes(body, "data")
	if !data.IsObject() {
		return gjson.Result{}, fmt.Errorf("%w: missing data object", ErrMalformedResponse)
	}

	return data, nil
}

// deletedVersion reports whether a 404 body describes a soft-deleted or
// destroyed latest version rather than a missing path.
func deletedVersion(body []byte) bool {
	if !gjson.ValidBytes(body) {
		return false
	}
	data := gjson.GetBytes(body, "data")
	if !data.IsObject() || data.Get("data").Type != gjson.Null {
		return false
	}
	meta := data.Get("metadata")
	return meta.Get("deletion_time").String() != "" || meta.Get("destroyed").Bool()
}

// statusError keeps the first message of a Vault {"errors": [...]} body.
func statusError(body []byte) error {
	if msg := gjson.GetBytes(body, "errors.0").String(); msg != "" {
		return fmt.Errorf("%w: %s", ErrUnexpectedStatus, msg)
	}
	return ErrUnexpectedStatus
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
