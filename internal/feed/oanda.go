package feed

import (
	"context"
	"io"
	"net/http"
	"strings"

	"main/internal/model"
	"main/pkg/exception"

	"github.com/yanun0323/errors"
)

// OandaStream dials the OANDA-style rates stream: HTTPS GET with bearer
// auth returning newline-delimited JSON tick messages.
type OandaStream struct {
	client      *http.Client
	domain      string
	accessToken string
	accountID   string
	pairs       []string
}

func NewOandaStream(domain, accessToken, accountID string, pairs []string) *OandaStream {
	return &OandaStream{
		// No client timeout: the body is a long-lived stream. Cancellation
		// comes from the request context.
		client:      &http.Client{},
		domain:      domain,
		accessToken: accessToken,
		accountID:   accountID,
		pairs:       pairs,
	}
}

func (s *OandaStream) Connect(ctx context.Context) (io.ReadCloser, error) {
	wire := make([]string, 0, len(s.pairs))
	for _, p := range s.pairs {
		wire = append(wire, model.BrokerPair(p))
	}

	base := s.domain
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/v1/prices", nil)
	if err != nil {
		return nil, errors.Wrap(err, "build stream request")
	}
	q := req.URL.Query()
	q.Set("instruments", strings.Join(wire, ","))
	q.Set("accountId", s.accountID)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Authorization", "Bearer "+s.accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request stream")
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Wrapf(exception.ErrStreamClosed, "status %d", resp.StatusCode)
	}
	return resp.Body, nil
}
