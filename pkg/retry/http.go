package retry

import (
	"errors"
	"net"
	"net/http"
	"time"
)

// HTTPClient retries idempotent-safe failures (timeouts, 429, 5xx) of a
// wrapped *http.Client. Requests with a body must set GetBody.
type HTTPClient struct {
	client *http.Client
	policy Policy
}

func NewHTTPClient(client *http.Client, policy Policy) *HTTPClient {
	if client == nil {
		client = http.DefaultClient
	}
	if policy.BaseDelay == 0 {
		policy.BaseDelay = 500 * time.Millisecond
	}
	if policy.MaxDelay == 0 {
		policy.MaxDelay = 5 * time.Second
	}
	return &HTTPClient{
		client: client,
		policy: policy.withDefaults(),
	}
}

func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			if req.GetBody != nil {
				body, bodyErr := req.GetBody()
				if bodyErr != nil {
					return nil, bodyErr
				}
				req.Body = body
			}

			if sleepErr := sleep(req.Context(), c.policy.Delay(attempt-1)); sleepErr != nil {
				return nil, sleepErr
			}
		}

		resp, err = c.client.Do(req)
		if !shouldRetry(resp, err) || attempt == c.policy.MaxAttempts {
			return resp, err
		}

		if resp != nil {
			_ = resp.Body.Close()
		}
	}

	return resp, err
}

func shouldRetry(resp *http.Response, err error) bool {
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return true
		}
		var opErr *net.OpError
		if errors.As(err, &opErr) {
			return true
		}
		var dnsErr *net.DNSError
		return errors.As(err, &dnsErr)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}

	return resp.StatusCode >= 500 && resp.StatusCode < 600
}
