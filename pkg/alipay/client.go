// Package alipay is a minimal Alipay OpenAPI client covering what the bill
// gateway needs: RSA2-signed form requests and verified JSON responses.
package alipay

import (
	"context"
	"crypto/rsa"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Protocol constants, fixed for every request this client sends
const (
	Format   = "json"
	Charset  = "utf-8"
	SignType = "RSA2"
	Version  = "1.0"
)

const timestampLayout = "2006-01-02 15:04:05"

const defaultTimeout = 15 * time.Second

// Executor sends one signed OpenAPI request and returns the parsed response.
// Transport, signing and verification failures surface as errors; business
// failures come back inside the Response envelope.
type Executor interface {
	Execute(ctx context.Context, method, bizContent string) (*Response, error)
}

// Compile-time check that Client implements Executor
var _ Executor = (*Client)(nil)

// ClientConfig holds everything needed to construct a Client
type ClientConfig struct {
	GatewayURL      string
	AppID           string
	AppPrivateKey   string // PEM or bare base64, PKCS#1 or PKCS#8
	AlipayPublicKey string // PEM or bare base64, PKIX
	Logger          *zap.Logger
}

// Client signs and sends OpenAPI requests. Stateless after construction;
// safe for concurrent use.
type Client struct {
	gatewayURL  string
	appID       string
	privateKey  *rsa.PrivateKey
	platformKey *rsa.PublicKey
	httpClient  *http.Client
	logger      *zap.Logger
	now         func() time.Time
}

// NewClient parses the key material and builds a client. Key parse errors
// surface here so a misconfigured process fails at startup, not on the first
// request.
func NewClient(cfg *ClientConfig) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.GatewayURL == "" {
		return nil, errors.New("gateway URL is required")
	}
	if cfg.AppID == "" {
		return nil, errors.New("app id is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}

	privateKey, err := ParsePrivateKey(cfg.AppPrivateKey)
	if err != nil {
		return nil, errors.Wrap(err, "app private key")
	}
	platformKey, err := ParsePublicKey(cfg.AlipayPublicKey)
	if err != nil {
		return nil, errors.Wrap(err, "alipay public key")
	}

	return &Client{
		gatewayURL:  cfg.GatewayURL,
		appID:       cfg.AppID,
		privateKey:  privateKey,
		platformKey: platformKey,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		logger:      cfg.Logger,
		now:         time.Now,
	}, nil
}

// SetHTTPClient allows setting a custom HTTP client, useful for tests or
// custom transport configuration
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// Execute signs bizContent into a full OpenAPI request for method, posts it
// to the gateway and returns the parsed, signature-verified response
func (c *Client) Execute(ctx context.Context, method, bizContent string) (*Response, error) {
	params := map[string]string{
		"app_id":      c.appID,
		"method":      method,
		"format":      Format,
		"charset":     Charset,
		"sign_type":   SignType,
		"timestamp":   c.now().Format(timestampLayout),
		"version":     Version,
		"biz_content": bizContent,
	}

	sign, err := signRSA2(c.privateKey, signContent(params))
	if err != nil {
		return nil, err
	}
	params["sign"] = sign

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "build gateway request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	c.logger.Sugar().Debugw("Calling Alipay gateway", "method", method, "gateway", c.gatewayURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "call gateway")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read gateway response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	parsed, err := parseResponse(method, body, c.platformKey)
	if err != nil {
		return nil, err
	}

	c.logger.Sugar().Debugw("Gateway responded", "method", method, "code", parsed.Code, "msg", parsed.Msg)
	return parsed, nil
}
