// Package hmrc is the client for the HMRC Making Tax Digital VAT API:
// OAuth2 token exchange, fraud-prevention headers, and the
// obligation/liability/payment/return endpoints.
package hmrc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/auth"
	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/config"
	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/model"
)

const (
	acceptHeader = "application/vnd.hmrc.1.0+json"

	// RedirectURI receives the OAuth authorization code.
	RedirectURI = "http://localhost:9876/auth"

	oauthScope = "read:vat write:vat"
)

// Environment names the OAuth and API endpoints to talk to. All three
// environments behave identically; only the base URLs differ.
type Environment struct {
	Name      string
	OAuthBase string
	APIBase   string
}

// EnvironmentFor maps a configured profile to its endpoints.
func EnvironmentFor(profile string) (Environment, error) {
	switch profile {
	case "prod":
		return Environment{
			Name:      "prod",
			OAuthBase: "https://www.tax.service.gov.uk",
			APIBase:   "https://api.service.hmrc.gov.uk",
		}, nil
	case "test":
		return Environment{
			Name:      "test",
			OAuthBase: "https://test-www.tax.service.gov.uk",
			APIBase:   "https://test-api.service.hmrc.gov.uk",
		}, nil
	case "local":
		return Environment{
			Name:      "local",
			OAuthBase: "http://localhost:8080",
			APIBase:   "http://localhost:8080",
		}, nil
	}
	return Environment{}, fmt.Errorf("hmrc: profile %q is not known", profile)
}

// Client issues VAT API requests. It is single-flight by design: one
// CLI invocation performs one logical operation.
type Client struct {
	env     Environment
	cfg     *config.Config
	store   *auth.Store
	httpc   *http.Client
	headers HeaderBuilder
	log     zerolog.Logger
}

// NewClient builds a client for an environment.
func NewClient(env Environment, cfg *config.Config, store *auth.Store) *Client {
	return &Client{
		env:     env,
		cfg:     cfg,
		store:   store,
		httpc:   &http.Client{Timeout: 30 * time.Second},
		headers: DefaultHeaderBuilder{},
		log:     log.With().Str("component", "hmrc").Str("env", env.Name).Logger(),
	}
}

// SetHeaderBuilder substitutes the fraud-prevention header
// construction; see HeaderBuilder.
func (c *Client) SetHeaderBuilder(hb HeaderBuilder) {
	c.headers = hb
}

// AuthorizeURL is the URL the user must visit to grant access.
func (c *Client) AuthorizeURL() string {
	params := url.Values{
		"response_type": {"code"},
		"client_id":     {c.cfg.Application.ClientID},
		"scope":         {oauthScope},
		"redirect_uri":  {RedirectURI},
	}
	return c.env.OAuthBase + "/oauth/authorize?" + params.Encode()
}

// tokenResponse is the token endpoint's wire shape; pointers
// distinguish absent fields.
type tokenResponse struct {
	AccessToken  *string `json:"access_token"`
	RefreshToken *string `json:"refresh_token"`
	TokenType    *string `json:"token_type"`
	ExpiresIn    *int64  `json:"expires_in"`
}

// ExchangeCode swaps an authorization code for a token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (auth.Token, error) {
	form := url.Values{
		"client_id":     {c.cfg.Application.ClientID},
		"client_secret": {c.cfg.Application.ClientSecret},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {RedirectURI},
		"code":          {code},
	}
	return c.requestToken(ctx, form)
}

// RefreshToken swaps a refresh token for a fresh credential. This
// implements auth.Refresher.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (auth.Token, error) {
	form := url.Values{
		"client_id":     {c.cfg.Application.ClientID},
		"client_secret": {c.cfg.Application.ClientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	return c.requestToken(ctx, form)
}

func (c *Client) requestToken(ctx context.Context, form url.Values) (auth.Token, error) {
	endpoint := c.env.APIBase + "/oauth/token"
	now := time.Now().UTC()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return auth.Token{}, fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return auth.Token{}, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return auth.Token{}, newAPIError(resp)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return auth.Token{}, fmt.Errorf("decoding token response: %w", err)
	}

	var missing []string
	if tr.AccessToken == nil {
		missing = append(missing, "access_token")
	}
	if tr.RefreshToken == nil {
		missing = append(missing, "refresh_token")
	}
	if tr.TokenType == nil {
		missing = append(missing, "token_type")
	}
	if tr.ExpiresIn == nil {
		missing = append(missing, "expires_in")
	}
	if len(missing) > 0 {
		return auth.Token{}, &TokenExchangeError{Missing: missing}
	}

	return auth.Token{
		AccessToken:  *tr.AccessToken,
		RefreshToken: *tr.RefreshToken,
		TokenType:    *tr.TokenType,
		Expires:      now.Add(time.Duration(*tr.ExpiresIn) * time.Second).Truncate(time.Second),
	}, nil
}

// do issues one authenticated API request and decodes the response
// into out. The token is validated (and refreshed if expired) first.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, want int, out any) error {
	if err := c.store.EnsureValid(ctx, c); err != nil {
		return err
	}

	hdrs, err := c.headers.Build(c.cfg, c.store.Token.AccessToken)
	if err != nil {
		return err
	}

	endpoint := c.env.APIBase + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	for k, v := range hdrs {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept", acceptHeader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug().Str("method", method).Str("url", endpoint).Msg("api request")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return newAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// OpenObligations fetches the VRN's obligations still in the open
// state.
func (c *Client) OpenObligations(ctx context.Context, vrn string) ([]model.Obligation, error) {
	var payload struct {
		Obligations []model.Obligation `json:"obligations"`
	}
	query := url.Values{"status": {string(model.StatusOpen)}}
	err := c.do(ctx, http.MethodGet, "/organisations/vat/"+vrn+"/obligations",
		query, nil, http.StatusOK, &payload)
	if err != nil {
		return nil, err
	}
	return payload.Obligations, nil
}

// Obligations fetches obligations whose period falls in [start, end],
// optionally filtered by status.
func (c *Client) Obligations(ctx context.Context, vrn string, start, end time.Time, status string) ([]model.Obligation, error) {
	query := url.Values{
		"from": {model.DateOf(start).String()},
		"to":   {model.DateOf(end).String()},
	}
	if status != "" {
		query.Set("status", status)
	}

	var payload struct {
		Obligations []model.Obligation `json:"obligations"`
	}
	err := c.do(ctx, http.MethodGet, "/organisations/vat/"+vrn+"/obligations",
		query, nil, http.StatusOK, &payload)
	if err != nil {
		return nil, err
	}
	return payload.Obligations, nil
}

// VATReturn fetches a previously submitted return by period key.
func (c *Client) VATReturn(ctx context.Context, vrn, periodKey string) (model.Return, error) {
	var rtn model.Return
	err := c.do(ctx, http.MethodGet,
		"/organisations/vat/"+vrn+"/returns/"+url.PathEscape(periodKey),
		nil, nil, http.StatusOK, &rtn)
	if err != nil {
		return model.Return{}, err
	}
	return rtn, nil
}

// SubmitReturn submits a finalised VAT return. The finalised flag is
// a client-side precondition, enforced before any network I/O.
func (c *Client) SubmitReturn(ctx context.Context, vrn string, rtn model.Return) (model.SubmissionReceipt, error) {
	if !rtn.Finalised {
		return model.SubmissionReceipt{}, ErrNotFinalised
	}

	var receipt model.SubmissionReceipt
	err := c.do(ctx, http.MethodPost, "/organisations/vat/"+vrn+"/returns",
		nil, rtn, http.StatusCreated, &receipt)
	if err != nil {
		return model.SubmissionReceipt{}, err
	}

	c.log.Info().Str("vrn", vrn).Str("periodKey", rtn.PeriodKey).
		Str("formBundle", receipt.FormBundleNumber).Msg("VAT return submitted")
	return receipt, nil
}

// Liabilities fetches liabilities for periods overlapping
// [start, end].
func (c *Client) Liabilities(ctx context.Context, vrn string, start, end time.Time) ([]model.Liability, error) {
	query := url.Values{
		"from": {model.DateOf(start).String()},
		"to":   {model.DateOf(end).String()},
	}
	var payload struct {
		Liabilities []model.Liability `json:"liabilities"`
	}
	err := c.do(ctx, http.MethodGet, "/organisations/vat/"+vrn+"/liabilities",
		query, nil, http.StatusOK, &payload)
	if err != nil {
		return nil, err
	}
	return payload.Liabilities, nil
}

// Payments fetches payments received in [start, end].
func (c *Client) Payments(ctx context.Context, vrn string, start, end time.Time) ([]model.Payment, error) {
	query := url.Values{
		"from": {model.DateOf(start).String()},
		"to":   {model.DateOf(end).String()},
	}
	var payload struct {
		Payments []model.Payment `json:"payments"`
	}
	err := c.do(ctx, http.MethodGet, "/organisations/vat/"+vrn+"/payments",
		query, nil, http.StatusOK, &payload)
	if err != nil {
		return nil, err
	}
	return payload.Payments, nil
}

// ValidateFraudHeaders exercises the sandbox-only header validation
// endpoint. Not available in production.
func (c *Client) ValidateFraudHeaders(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/test/fraud-prevention-headers/validate",
		nil, nil, http.StatusOK, nil)
}
