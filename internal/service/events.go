package service

// Event is the message pushed to admin dashboard websocket clients.
type Event struct {
	Type    string      `json:"type"`
	Action  string      `json:"action"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Actor   string      `json:"actor,omitempty"`
}

const (
	EventOrderCreated       = "order_created"
	EventOrderStatusUpdated = "order_status_updated"
	EventStockUpdate        = "stock_update"
)
