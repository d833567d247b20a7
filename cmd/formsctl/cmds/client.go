package cmds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/formbridge/formbridge/internal/exiterr"
	"github.com/formbridge/formbridge/internal/fetch"
)

var errMissingCredentials = errors.New("an api key id and token are required")

// Talks to the admin routes of a running server
type adminClient struct {
	fetcher fetch.Fetcher
	baseURL string
	keyID   string
	token   string
}

func (c *adminClient) do(ctx context.Context, method, path string, body any, out any) error {
	if c.keyID == "" || c.token == "" {
		return exiterr.Wrap(exiterr.CodeConfig, errMissingCredentials)
	}

	req, err := fetch.NewJSONRequest(method, strings.TrimRight(c.baseURL, "/")+path, body)
	if err != nil {
		return err
	}
	req.Username = c.keyID
	req.Password = c.token

	details := c.fetcher.Fetch(ctx, req)
	if details.Err != nil {
		return exiterr.Wrap(exiterr.CodeUnavailable, details.Err)
	}

	if !details.OK() {
		message := details.String("message")
		if message == "" {
			message = http.StatusText(details.Code)
		}
		return exiterr.Wrap(exiterr.CodeRejected, fmt.Errorf("server answered %d: %s", details.Code, message))
	}

	if out == nil || len(details.Body) == 0 {
		return nil
	}

	if err = json.Unmarshal(details.Body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
