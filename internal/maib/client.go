package maib

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const DefaultBaseURL = "https://api.maibmerchants.md/v1"

const (
	epGenerateToken = "generate-token"
	epPay           = "pay"
	epHold          = "hold"
	epComplete      = "complete"
	epRefund        = "refund"
	epPayInfo       = "pay-info"
	epDeleteCard    = "delete-card"
	epSaveRecurring = "savecard-recurring"
	epExecRecurring = "execute-recurring"
	epSaveOneclick  = "savecard-oneclick"
	epExecOneclick  = "execute-oneclick"
)

// Client is a typed client over the maib ecommerce REST API. Every request is
// validated against the field contract before any network I/O; responses are
// decoded once at this boundary into either a result or a classified error.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func NewClient(baseURL string, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log.Named("maib.client"),
	}
}

type envelope struct {
	OK     *bool           `json:"ok"`
	Result json.RawMessage `json:"result"`
	Errors []struct {
		ErrorCode    string `json:"errorCode"`
		ErrorMessage string `json:"errorMessage"`
	} `json:"errors"`
}

// GenerateToken is the only unauthenticated call.
func (c *Client) GenerateToken(ctx context.Context, req TokenRequest) (*TokenResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out TokenResult
	if err := c.do(ctx, http.MethodPost, epGenerateToken, "", req, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Pay(ctx context.Context, req PayRequest, token string) (*PayResult, error) {
	if err := c.checkSend(req.Validate(), token); err != nil {
		return nil, err
	}
	var out PayResult
	if err := c.do(ctx, http.MethodPost, epPay, "", req, token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Hold(ctx context.Context, req PayRequest, token string) (*PayResult, error) {
	if err := c.checkSend(req.Validate(), token); err != nil {
		return nil, err
	}
	var out PayResult
	if err := c.do(ctx, http.MethodPost, epHold, "", req, token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Complete(ctx context.Context, req CompleteRequest, token string) (*TransactionResult, error) {
	if err := c.checkSend(req.Validate(), token); err != nil {
		return nil, err
	}
	var out TransactionResult
	if err := c.do(ctx, http.MethodPost, epComplete, "", req, token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Refund(ctx context.Context, req RefundRequest, token string) (*TransactionResult, error) {
	if err := c.checkSend(req.Validate(), token); err != nil {
		return nil, err
	}
	var out TransactionResult
	if err := c.do(ctx, http.MethodPost, epRefund, "", req, token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PayInfo(ctx context.Context, payID, token string) (*PaymentInfo, error) {
	if err := c.checkSend(checkIDParam(payID), token); err != nil {
		return nil, err
	}
	var out PaymentInfo
	if err := c.do(ctx, http.MethodGet, epPayInfo, payID, nil, token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCard(ctx context.Context, billerID, token string) (*DeleteCardResult, error) {
	if err := c.checkSend(checkIDParam(billerID), token); err != nil {
		return nil, err
	}
	var out DeleteCardResult
	if err := c.do(ctx, http.MethodDelete, epDeleteCard, billerID, nil, token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SaveRecurring(ctx context.Context, req SaveCardRequest, token string) (*PayResult, error) {
	if err := c.checkSend(req.Validate(), token); err != nil {
		return nil, err
	}
	var out PayResult
	if err := c.do(ctx, http.MethodPost, epSaveRecurring, "", req, token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ExecuteRecurring(ctx context.Context, req ExecuteRecurringRequest, token string) (*TransactionResult, error) {
	if err := c.checkSend(req.Validate(), token); err != nil {
		return nil, err
	}
	var out TransactionResult
	if err := c.do(ctx, http.MethodPost, epExecRecurring, "", req, token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SaveOneclick(ctx context.Context, req SaveCardRequest, token string) (*PayResult, error) {
	if err := c.checkSend(req.Validate(), token); err != nil {
		return nil, err
	}
	var out PayResult
	if err := c.do(ctx, http.MethodPost, epSaveOneclick, "", req, token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ExecuteOneclick(ctx context.Context, req ExecuteOneclickRequest, token string) (*TransactionResult, error) {
	if err := c.checkSend(req.Validate(), token); err != nil {
		return nil, err
	}
	var out TransactionResult
	if err := c.do(ctx, http.MethodPost, epExecOneclick, "", req, token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) checkSend(validationErr error, token string) error {
	if validationErr != nil {
		return validationErr
	}
	return checkAccessToken(token)
}

func (c *Client) do(ctx context.Context, method, endpoint, id string, body any, token string, out any) error {
	url := c.baseURL + "/" + endpoint
	if id != "" {
		url += "/" + id
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &TransportError{Endpoint: endpoint, Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return &TransportError{Endpoint: endpoint, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.log.Debug("maib request", zap.String("method", method), zap.String("url", url))

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Endpoint: endpoint, Err: err}
	}

	c.log.Debug("maib response",
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.ByteString("body", data))

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return &InvalidResponseError{Endpoint: endpoint, Reason: "malformed JSON body"}
	}

	switch {
	case env.OK != nil && *env.OK:
		if len(env.Result) == 0 || string(env.Result) == "null" {
			return &InvalidResponseError{Endpoint: endpoint, Reason: "missing 'result' field"}
		}
		if out != nil {
			if err := json.Unmarshal(env.Result, out); err != nil {
				return &InvalidResponseError{Endpoint: endpoint, Reason: "unexpected 'result' shape"}
			}
		}
		return nil
	case len(env.Errors) > 0:
		return &APIError{
			Endpoint: endpoint,
			Code:     env.Errors[0].ErrorCode,
			Message:  env.Errors[0].ErrorMessage,
		}
	default:
		return &InvalidResponseError{Endpoint: endpoint, Reason: "missing 'ok' and 'errors' fields"}
	}
}
