package service

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"sync"
	"time"

	"go-storefront/internal/model"
	"go-storefront/internal/ws"
	"go-storefront/pkg/mail"
	"go-storefront/pkg/metrics"

	"go.uber.org/zap"
)

// Notifier fans out post-commit side effects. Nothing it does can fail the
// request that triggered it.
type Notifier interface {
	OrderPlaced(order *model.Order)
	Broadcast(event Event)
}

const sendTimeout = 30 * time.Second

var orderEmail = template.Must(template.New("order").Parse(`
<h1>New Cigarette Order</h1>
<p><strong>Order ID:</strong> {{.ID}}</p>
<p><strong>Customer:</strong> {{or .CustomerName "N/A"}}</p>
<p><strong>Phone:</strong> {{or .CustomerPhone "N/A"}}</p>
<p><strong>Country:</strong> {{.CustomerCountry}}</p>
<p><strong>Pickup details:</strong> {{.PickupDetails}}</p>
<h2>Items:</h2>
<p>{{range .Lines}}{{if .Product}}{{.Product.Name}}{{else}}{{.ProductID}}{{end}} - Qty: {{.Quantity}} - ${{.Price.StringFixed 2}}<br>{{end}}</p>
<p><strong>Total:</strong> ${{.Total.StringFixed 2}}</p>
`))

type OrderNotifier struct {
	mailer mail.Sender
	to     string
	hub    ws.Broadcaster
	log    *zap.Logger
	wg     sync.WaitGroup
}

// NewNotifier wires email and websocket delivery. mailer and hub may be nil.
func NewNotifier(mailer mail.Sender, to string, hub ws.Broadcaster, log *zap.Logger) *OrderNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderNotifier{mailer: mailer, to: to, hub: hub, log: log.Named("notifier")}
}

// OrderPlaced pushes the order to the dashboard and emails the operator in
// the background. Delivery is attempted once.
func (n *OrderNotifier) OrderPlaced(order *model.Order) {
	n.Broadcast(Event{
		Type:    EventOrderCreated,
		Action:  "created",
		Message: "New order from " + order.CustomerName,
		Data:    order,
	})

	msg, err := RenderOrderEmail(n.to, order)
	if err != nil {
		n.log.Error("render order email", zap.String("order_id", order.ID.String()), zap.Error(err))
		metrics.Notifications.WithLabelValues("email", "failed").Inc()
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.sendEmail(msg, order.ID.String())
	}()
}

func (n *OrderNotifier) sendEmail(msg mail.Message, orderID string) {
	if n.mailer == nil || n.to == "" {
		n.log.Warn("email not configured, skipping order notification", zap.String("order_id", orderID))
		metrics.Notifications.WithLabelValues("email", "skipped").Inc()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	err := n.mailer.Send(ctx, msg)
	switch {
	case errors.Is(err, mail.ErrNotConfigured):
		n.log.Warn("email not configured, skipping order notification", zap.String("order_id", orderID))
		metrics.Notifications.WithLabelValues("email", "skipped").Inc()
	case err != nil:
		n.log.Error("send order email", zap.String("order_id", orderID), zap.Error(err))
		metrics.Notifications.WithLabelValues("email", "failed").Inc()
	default:
		n.log.Info("order email sent", zap.String("order_id", orderID))
		metrics.Notifications.WithLabelValues("email", "sent").Inc()
	}
}

func (n *OrderNotifier) Broadcast(event Event) {
	if n.hub == nil {
		return
	}
	n.hub.Publish(event)
	metrics.Notifications.WithLabelValues("ws", "sent").Inc()
}

// Wait blocks until in-flight emails finish. Called on shutdown.
func (n *OrderNotifier) Wait() {
	n.wg.Wait()
}

// RenderOrderEmail builds the operator notification for order.
func RenderOrderEmail(to string, order *model.Order) (mail.Message, error) {
	var body bytes.Buffer
	if err := orderEmail.Execute(&body, order); err != nil {
		return mail.Message{}, err
	}
	return mail.Message{
		To:      []string{to},
		Subject: "New Order #" + order.ID.String(),
		HTML:    body.String(),
	}, nil
}
