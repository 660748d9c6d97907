package platform

// SupplyHub wraps every response in a code/message envelope. A zero code
// means success; non-zero codes carry an API-level failure even on HTTP 200.

// supplyHubEnvelope is the common response envelope
type supplyHubEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// IsSuccess returns true for a successful API-level response
func (e *supplyHubEnvelope) IsSuccess() bool {
	return e.Code == 0
}

// supplyHubOrder is an order as SupplyHub serializes it
type supplyHubOrder struct {
	OrderID       string            `json:"order_id"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	Buyer         supplyHubBuyer    `json:"buyer"`
	Lines         []supplyHubLine   `json:"lines"`
	Shipping      supplyHubShipping `json:"shipping"`
	TotalAmount   string            `json:"total_amount"`
	Currency      string            `json:"currency"`
	CreatedAt     int64             `json:"created_at"`
	UpdatedAt     int64             `json:"updated_at"`
}

type supplyHubBuyer struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type supplyHubLine struct {
	SKU       string `json:"sku"`
	Title     string `json:"title"`
	Quantity  int64  `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type supplyHubShipping struct {
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	Region       string `json:"region"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	Carrier      string `json:"carrier"`
	TrackingNo   string `json:"tracking_no"`
}

// supplyHubOrderResponse is the single-order response
type supplyHubOrderResponse struct {
	supplyHubEnvelope
	Data *supplyHubOrder `json:"data"`
}

// supplyHubOrderListResponse is the paged order listing response
type supplyHubOrderListResponse struct {
	supplyHubEnvelope
	Data *struct {
		Orders  []supplyHubOrder `json:"orders"`
		HasMore bool             `json:"has_more"`
	} `json:"data"`
}

// supplyHubCreateOrderResponse is the order creation response
type supplyHubCreateOrderResponse struct {
	supplyHubEnvelope
	Data *struct {
		OrderID string `json:"order_id"`
	} `json:"data"`
}

// supplyHubInventoryLevel is one SKU stock record
type supplyHubInventoryLevel struct {
	ProductID  string `json:"product_id"`
	SKU        string `json:"sku"`
	Available  int64  `json:"available"`
	LocationID string `json:"location_id"`
	UpdatedAt  int64  `json:"updated_at"`
}

// supplyHubInventoryResponse is the inventory listing response
type supplyHubInventoryResponse struct {
	supplyHubEnvelope
	Data *struct {
		Levels []supplyHubInventoryLevel `json:"levels"`
	} `json:"data"`
}

// supplyHubWebhookPayload is an inbound webhook delivery
type supplyHubWebhookPayload struct {
	WebhookID string `json:"webhook_id"`
	EventType string `json:"event_type"`
	Data      struct {
		OrderID string `json:"order_id"`
		SKU     string `json:"sku"`
	} `json:"data"`
}
