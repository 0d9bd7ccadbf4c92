package execution

import (
	"context"
	"encoding/json"

	"main/internal/event"
	"main/internal/model"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
	"github.com/yanun0323/pkg/ws"
)

// SocketBrokerConfig configures the socket brokerage adapter.
type SocketBrokerConfig struct {
	URL          string
	OrderRouting string // destination venue, e.g. "SMART"
	Currency     string // settlement currency
}

// SocketBroker talks to a brokerage socket API: it submits orders with
// locally incremented ids and receives typed openOrder / orderStatus
// messages, which it forwards to the reconciler. Callbacks arrive on
// the websocket goroutine, never on the dispatcher loop.
type SocketBroker struct {
	cfg SocketBrokerConfig
	wss *ws.WebSocket
	rec *Reconciler
}

func NewSocketBroker(ctx context.Context, cfg SocketBrokerConfig, rec *Reconciler) *SocketBroker {
	return &SocketBroker{
		cfg: cfg,
		wss: ws.New(ctx, cfg.URL),
		rec: rec,
	}
}

// Start connects and begins observing broker replies.
func (b *SocketBroker) Start(ctx context.Context) error {
	if err := b.wss.Start(ctx); err != nil {
		return errors.Wrap(err, "start broker socket")
	}
	go b.observe(ctx)
	return nil
}

func (b *SocketBroker) Close() {
	b.wss.Close()
}

type brokerMessage struct {
	Type     string `json:"type"`
	OrderID  uint64 `json:"orderId"`
	Contract struct {
		Symbol   string `json:"symbol"`
		Exchange string `json:"exchange"`
	} `json:"contract"`
	Order struct {
		Action string `json:"action"`
	} `json:"order"`
	Status       string      `json:"status"`
	FilledQty    int64       `json:"filled"`
	AvgFillPrice json.Number `json:"avgFillPrice"`
}

func (b *SocketBroker) observe(ctx context.Context) {
	ch, cancel := b.wss.Subscribe()
	defer cancel()

	for {
		select {
		case <-sys.Shutdown():
			return
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}

			msg, ok := ws.ReadMessage[brokerMessage](m)
			if !ok {
				continue
			}
			b.handleReply(msg)
		}
	}
}

func (b *SocketBroker) handleReply(msg brokerMessage) {
	switch msg.Type {
	case "openOrder":
		_ = b.rec.OnOpenAck(msg.OrderID, Contract{
			Instrument: model.NormalizePair(msg.Contract.Symbol),
			Exchange:   msg.Contract.Exchange,
			Side:       sideFromAction(msg.Order.Action),
		})
	case "orderStatus":
		price, err := model.ParsePrice(msg.AvgFillPrice.String())
		if err != nil && msg.AvgFillPrice != "" {
			logs.Errorf("parse avg fill price for order %d, err: %+v", msg.OrderID, err)
		}
		_ = b.rec.OnFillStatus(msg.OrderID, FillStatus{
			Status:   statusFromWire(msg.Status),
			Quantity: msg.FilledQty,
			AvgPrice: price,
		})
	case "error":
		logs.Errorf("broker error for order %d: %s", msg.OrderID, msg.Status)
	}
}

// ExecuteOrder places an order through the socket session.
func (b *SocketBroker) ExecuteOrder(ctx context.Context, order event.Order) error {
	id := b.rec.NextOrderID()
	b.rec.Track(id, order.Instrument, order.Side)

	symbol := order.Instrument
	if len(symbol) == 6 {
		symbol = symbol[:3] + "." + symbol[3:]
	}

	if err := b.wss.WriteJSON(map[string]any{
		"type":    "placeOrder",
		"orderId": id,
		"contract": map[string]any{
			"symbol":          symbol,
			"secType":         "CASH",
			"exchange":        b.cfg.OrderRouting,
			"primaryExchange": b.cfg.OrderRouting,
			"currency":        b.cfg.Currency,
		},
		"order": map[string]any{
			"orderType":     orderKindSocketWire(order.Kind),
			"totalQuantity": order.Quantity,
			"action":        actionFromSide(order.Side),
		},
	}); err != nil {
		return errors.Wrapf(err, "place order %d", id)
	}
	return nil
}

func sideFromAction(action string) event.Side {
	switch action {
	case "BUY":
		return event.SideBuy
	case "SELL":
		return event.SideSell
	default:
		return event.SideUnknown
	}
}

func actionFromSide(side event.Side) string {
	switch side {
	case event.SideSell:
		return "SELL"
	default:
		return "BUY"
	}
}

func statusFromWire(status string) Status {
	switch status {
	case "Filled":
		return StatusFilled
	case "Cancelled", "Canceled":
		return StatusCancelled
	case "Submitted", "PreSubmitted":
		return StatusWorking
	default:
		return StatusUnknown
	}
}

func orderKindSocketWire(k event.OrderKind) string {
	switch k {
	case event.OrderKindLimit:
		return "LMT"
	default:
		return "MKT"
	}
}
