// Package authclient validates bearer tokens against the auth service.
package authclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/iamasit07/cartline/backend/internal/domain"
	"github.com/iamasit07/cartline/backend/pkg/httputil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const validatePath = "/api/auth/validate"

type validateResponse struct {
	Valid  bool  `json:"valid"`
	UserID int64 `json:"userId"`
}

// Client calls the auth service. Every failure (transport, status, body)
// is reported as domain.ErrInvalidToken: the caller cannot tell a bad token
// from an unreachable peer, and must not accept either.
type Client struct {
	http *resty.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
	}
}

// VerifyToken asks the auth service whether token is valid.
func (c *Client) VerifyToken(ctx context.Context, token string) (int64, error) {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", httputil.BearerHeader(token)).
		SetResult(&validateResponse{})
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := req.Get(validatePath)
	if err != nil {
		return 0, fmt.Errorf("%w: auth service unreachable: %v", domain.ErrInvalidToken, err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("%w: auth service returned %d", domain.ErrInvalidToken, resp.StatusCode())
	}
	body, ok := resp.Result().(*validateResponse)
	if !ok || !body.Valid || body.UserID == 0 {
		return 0, domain.ErrInvalidToken
	}
	return body.UserID, nil
}
