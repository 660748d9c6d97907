package platform

// posifyOrder is an order as Posify serializes it. Monetary amounts are
// integer cents in the shop currency.
type posifyOrder struct {
	ID              string                `json:"id"`
	Status          string                `json:"status"`
	FinancialStatus string                `json:"financial_status"`
	Customer        posifyCustomer        `json:"customer"`
	LineItems       []posifyLineItem      `json:"line_items"`
	ShippingAddress posifyShippingAddress `json:"shipping_address"`
	Fulfillment     *posifyFulfillment    `json:"fulfillment,omitempty"`
	TotalCents      int64                 `json:"total_cents"`
	Currency        string                `json:"currency"`
	CreatedAt       string                `json:"created_at"`
	UpdatedAt       string                `json:"updated_at"`
}

type posifyCustomer struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type posifyLineItem struct {
	SKU        string `json:"sku"`
	Title      string `json:"title"`
	Quantity   int64  `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

type posifyShippingAddress struct {
	Address1    string `json:"address1"`
	Address2    string `json:"address2"`
	City        string `json:"city"`
	Province    string `json:"province"`
	Zip         string `json:"zip"`
	CountryCode string `json:"country_code"`
}

type posifyFulfillment struct {
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"tracking_number"`
}

// posifyOrderResponse wraps a single order
type posifyOrderResponse struct {
	Order *posifyOrder `json:"order"`
}

// posifyOrderListResponse is the paged order listing
type posifyOrderListResponse struct {
	Orders  []posifyOrder `json:"orders"`
	HasMore bool          `json:"has_more"`
}

// posifyInventoryLevel is one SKU stock record at a location
type posifyInventoryLevel struct {
	InventoryItemID string `json:"inventory_item_id"`
	SKU             string `json:"sku"`
	Available       int64  `json:"available"`
	LocationID      string `json:"location_id"`
	UpdatedAt       string `json:"updated_at"`
}

// posifyInventoryResponse is the inventory listing
type posifyInventoryResponse struct {
	InventoryLevels []posifyInventoryLevel `json:"inventory_levels"`
}

// posifyWebhookPayload is an inbound webhook delivery. The topic follows
// the resource/action convention ("orders/create", "inventory_levels/update").
type posifyWebhookPayload struct {
	WebhookID string `json:"webhook_id"`
	Topic     string `json:"topic"`
	Payload   struct {
		ID  string `json:"id"`
		SKU string `json:"sku"`
	} `json:"payload"`
}
