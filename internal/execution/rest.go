package execution

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"main/internal/event"
	"main/internal/model"
	"main/pkg/backoff"
	"main/pkg/exception"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

// RestBrokerConfig configures the HTTPS order endpoint.
type RestBrokerConfig struct {
	Domain      string
	AccessToken string
	AccountID   string
	MaxRetries  int
	Timeout     time.Duration
}

// RestBroker submits orders over a form-encoded HTTPS POST. The broker
// confirms synchronously in the response body, which the adapter feeds
// back through the reconciler so fills still arrive on the queue.
type RestBroker struct {
	cfg     RestBrokerConfig
	client  *http.Client
	rec     *Reconciler
	backoff backoff.Policy
}

func NewRestBroker(cfg RestBrokerConfig, rec *Reconciler) *RestBroker {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &RestBroker{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		rec:     rec,
		backoff: backoff.Submit(),
	}
}

func (b *RestBroker) ExecuteOrder(ctx context.Context, order event.Order) error {
	id := b.rec.NextOrderID()
	b.rec.Track(id, order.Instrument, order.Side)

	form := url.Values{}
	form.Set("instrument", model.BrokerPair(order.Instrument))
	form.Set("units", strconv.FormatInt(order.Quantity, 10))
	form.Set("type", orderKindWire(order.Kind))
	form.Set("side", order.Side.String())

	var lastErr error
	for attempt := 1; attempt <= b.cfg.MaxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(b.backoff.Next(attempt - 1)):
			}
		}

		body, err := b.post(ctx, form)
		if err == nil {
			b.confirm(id, order, body)
			return nil
		}
		lastErr = err
		logs.Errorf("submit order %d attempt %d, err: %+v", id, attempt, err)
	}
	return errors.Wrapf(exception.ErrSubmissionFailed, "order %d after %d attempts: %v",
		id, b.cfg.MaxRetries, lastErr)
}

func (b *RestBroker) post(ctx context.Context, form url.Values) ([]byte, error) {
	base := b.cfg.Domain
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	endpoint := base + "/v1/accounts/" + b.cfg.AccountID + "/orders"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "build order request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+b.cfg.AccessToken)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "post order")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read order response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("order rejected, status %d: %s", resp.StatusCode, body)
	}
	return body, nil
}

// restConfirmation is the broker's synchronous order confirmation.
type restConfirmation struct {
	Instrument  string      `json:"instrument"`
	Price       json.Number `json:"price"`
	TradeOpened struct {
		ID    uint64 `json:"id"`
		Units int64  `json:"units"`
		Side  string `json:"side"`
	} `json:"tradeOpened"`
}

// confirm translates the response body into open-ack and fill-status
// callbacks. A body the broker shaped differently is logged and
// skipped; the order itself was accepted.
func (b *RestBroker) confirm(id uint64, order event.Order, body []byte) {
	var conf restConfirmation
	if err := json.Unmarshal(body, &conf); err != nil || conf.TradeOpened.ID == 0 {
		logs.Infof("order %d accepted without confirmation payload: %s", id, body)
		return
	}

	if err := b.rec.OnOpenAck(id, Contract{
		Instrument: model.NormalizePair(conf.Instrument),
		Exchange:   b.cfg.Domain,
		Side:       order.Side,
	}); err != nil {
		return
	}

	qty := conf.TradeOpened.Units
	if qty <= 0 {
		qty = order.Quantity
	}
	price, err := model.ParsePrice(conf.Price.String())
	if err != nil {
		logs.Errorf("parse confirmation price for order %d, err: %+v", id, err)
	}
	if err := b.rec.OnFillStatus(id, FillStatus{
		Status:   StatusFilled,
		Quantity: qty,
		AvgPrice: price,
	}); err != nil {
		logs.Errorf("confirm order %d, err: %+v", id, err)
	}
}

func orderKindWire(k event.OrderKind) string {
	switch k {
	case event.OrderKindLimit:
		return "limit"
	default:
		return "market"
	}
}
