package usecase

// Outbox channels.
const (
	ChannelFulfillmentNotify = "fulfillment.notify.v1"
)

// FulfillmentNotifyMsg is what the downstream fulfillment API receives for a
// freshly committed order. The consumer treats redeliveries as idempotent.
type FulfillmentNotifyMsg struct {
	OrderID       string `json:"order_id"` // externally shareable order number
	AmountInCents int64  `json:"amount_in_cents"`
	TotalQuantity int64  `json:"total_quantity"`
	CustomerName  string `json:"customer_name"`
	Address       string `json:"address"`
}

// OrderStatusChangedMsg is published to Kafka whenever a payment outcome or an
// operator transition lands on an order.
type OrderStatusChangedMsg struct {
	OrderID       string `json:"orderId"`
	OrderNumber   string `json:"orderNumber"`
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
}
