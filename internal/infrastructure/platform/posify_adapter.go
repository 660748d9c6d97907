package platform

import (
	"bytes"
	"context"
	"crypto/hmac"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/orderbridge/backend/internal/domain/shared/valueobject"
	"github.com/orderbridge/backend/internal/domain/sync"
)

var centsPerUnit = decimal.NewFromInt(100)

// PosifyAdapter implements PlatformAdapter for Posify, the point-of-sale
// platform
type PosifyAdapter struct {
	config     *PosifyConfig
	httpClient *http.Client
}

// NewPosifyAdapter creates a new Posify adapter with the given configuration
func NewPosifyAdapter(config *PosifyConfig) (*PosifyAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &PosifyAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// PlatformCode returns the platform code this adapter handles
func (a *PosifyAdapter) PlatformCode() sync.PlatformCode {
	return sync.PlatformPosify
}

// ---------------------------------------------------------------------------
// Order Operations
// ---------------------------------------------------------------------------

func (a *PosifyAdapter) FetchOrder(ctx context.Context, platformOrderID string) (*sync.Order, error) {
	if platformOrderID == "" {
		return nil, sync.NewPlatformError(sync.ClassValidation, sync.PlatformPosify, sync.ErrEntityInvalid)
	}

	respBody, err := a.doRequest(ctx, http.MethodGet, "/v2/pos/orders/"+url.PathEscape(platformOrderID), nil)
	if err != nil {
		return nil, err
	}

	var resp posifyOrderResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, a.invalidResponse(err)
	}
	if resp.Order == nil {
		return nil, sync.NewPlatformError(sync.ClassNotFound, sync.PlatformPosify, sync.ErrEntityNotFound)
	}

	order := a.toCanonicalOrder(resp.Order)
	return &order, nil
}

func (a *PosifyAdapter) ListOrders(ctx context.Context, req *sync.OrderListRequest) (*sync.OrderListResponse, error) {
	q := url.Values{}
	if req.AfterID != "" {
		q.Set("since_id", req.AfterID)
	}
	if req.PageSize > 0 {
		q.Set("limit", strconv.Itoa(req.PageSize))
	}
	if req.UpdatedSince != nil {
		q.Set("updated_at_min", time.Unix(*req.UpdatedSince, 0).UTC().Format(time.RFC3339))
	}

	respBody, err := a.doRequest(ctx, http.MethodGet, "/v2/pos/orders?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var resp posifyOrderListResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, a.invalidResponse(err)
	}

	out := &sync.OrderListResponse{
		Orders:  make([]sync.Order, 0, len(resp.Orders)),
		HasMore: resp.HasMore,
	}
	for i := range resp.Orders {
		out.Orders = append(out.Orders, a.toCanonicalOrder(&resp.Orders[i]))
	}
	return out, nil
}

func (a *PosifyAdapter) CreateOrder(ctx context.Context, order *sync.Order) (string, error) {
	if err := order.Validate(); err != nil {
		return "", sync.NewPlatformError(sync.ClassValidation, sync.PlatformPosify, err)
	}

	payload := map[string]any{"order": a.fromCanonicalOrder(order)}
	respBody, err := a.doRequest(ctx, http.MethodPost, "/v2/pos/orders", payload)
	if err != nil {
		return "", err
	}

	var resp posifyOrderResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", a.invalidResponse(err)
	}
	if resp.Order == nil || resp.Order.ID == "" {
		return "", a.invalidResponse(sync.ErrPlatformInvalidResponse)
	}
	return resp.Order.ID, nil
}

func (a *PosifyAdapter) UpdateFulfillment(ctx context.Context, platformOrderID string, update sync.FulfillmentUpdate) error {
	fulfillment := map[string]any{
		"status": fulfillmentToPosify(update.Status),
	}
	if update.Carrier != "" {
		fulfillment["carrier"] = update.Carrier
	}
	if update.TrackingNumber != "" {
		fulfillment["tracking_number"] = update.TrackingNumber
	}

	_, err := a.doRequest(ctx, http.MethodPut,
		"/v2/pos/orders/"+url.PathEscape(platformOrderID)+"/fulfillment",
		map[string]any{"fulfillment": fulfillment})
	return err
}

func (a *PosifyAdapter) UpdatePayment(ctx context.Context, platformOrderID string, update sync.PaymentUpdate) error {
	_, err := a.doRequest(ctx, http.MethodPut,
		"/v2/pos/orders/"+url.PathEscape(platformOrderID)+"/payment",
		map[string]any{"financial_status": paymentToPosify(update.Status)})
	return err
}

// ---------------------------------------------------------------------------
// Inventory Operations
// ---------------------------------------------------------------------------

func (a *PosifyAdapter) FetchInventory(ctx context.Context, locationID string) ([]sync.InventoryLevel, error) {
	path := "/v2/pos/inventory_levels"
	if locationID != "" {
		path += "?location_id=" + url.QueryEscape(locationID)
	}

	respBody, err := a.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var resp posifyInventoryResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, a.invalidResponse(err)
	}

	levels := make([]sync.InventoryLevel, 0, len(resp.InventoryLevels))
	for _, l := range resp.InventoryLevels {
		updatedAt, _ := time.Parse(time.RFC3339, l.UpdatedAt)
		levels = append(levels, sync.InventoryLevel{
			ProductID:  l.InventoryItemID,
			SKU:        l.SKU,
			Quantity:   l.Available,
			LocationID: l.LocationID,
			UpdatedAt:  updatedAt,
		})
	}
	return levels, nil
}

func (a *PosifyAdapter) AdjustInventory(ctx context.Context, adjustments []sync.InventoryAdjustment, idempotencyKey string) error {
	if len(adjustments) == 0 {
		return nil
	}

	sets := make([]map[string]any, 0, len(adjustments))
	for _, adj := range adjustments {
		set := map[string]any{
			"sku":       adj.SKU,
			"available": adj.Quantity,
		}
		if adj.LocationID != "" {
			set["location_id"] = adj.LocationID
		}
		sets = append(sets, set)
	}

	_, err := a.doRequestWithHeaders(ctx, http.MethodPost, "/v2/pos/inventory_levels/set",
		map[string]any{"inventory_levels": sets},
		map[string]string{"Idempotency-Key": idempotencyKey})
	return err
}

// ---------------------------------------------------------------------------
// Webhook Operations
// ---------------------------------------------------------------------------

func (a *PosifyAdapter) VerifyWebhookSignature(signature string, body []byte) bool {
	if a.config.WebhookSecret == "" || signature == "" {
		return false
	}
	expected := a.config.SignWebhook(body)
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (a *PosifyAdapter) ParseWebhook(body []byte) (*sync.WebhookEvent, error) {
	var payload posifyWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", sync.ErrWebhookMalformed, err)
	}
	if payload.WebhookID == "" {
		return nil, sync.ErrWebhookMalformed
	}

	event := &sync.WebhookEvent{
		WebhookID:  payload.WebhookID,
		Platform:   sync.PlatformPosify,
		ReceivedAt: time.Now(),
	}

	switch payload.Topic {
	case "orders/create":
		event.Kind = sync.EventKindOrderCreated
		event.EntityID = payload.Payload.ID
	case "orders/updated":
		event.Kind = sync.EventKindOrderUpdated
		event.EntityID = payload.Payload.ID
	case "fulfillments/update":
		event.Kind = sync.EventKindFulfillmentUpdated
		event.EntityID = payload.Payload.ID
	case "payments/update":
		event.Kind = sync.EventKindPaymentUpdated
		event.EntityID = payload.Payload.ID
	case "inventory_levels/update":
		event.Kind = sync.EventKindInventoryUpdated
		event.EntityID = payload.Payload.SKU
	default:
		event.Kind = sync.EventKindUnknown
	}

	return event, nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

func (a *PosifyAdapter) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	return a.doRequestWithHeaders(ctx, method, path, payload, nil)
}

func (a *PosifyAdapter) doRequestWithHeaders(ctx context.Context, method, path string, payload any, headers map[string]string) ([]byte, error) {
	var bodyBytes []byte
	if payload != nil {
		var err error
		bodyBytes, err = json.Marshal(payload)
		if err != nil {
			return nil, sync.NewPlatformError(sync.ClassValidation, sync.PlatformPosify,
				fmt.Errorf("posify: failed to marshal request: %w", err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.BaseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, sync.NewPlatformError(sync.ClassFatal, sync.PlatformPosify,
			fmt.Errorf("posify: failed to create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.config.AccessToken)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, sync.NewPlatformError(sync.ClassTransient, sync.PlatformPosify,
			fmt.Errorf("%w: %v", sync.ErrPlatformUnavailable, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, sync.NewPlatformError(sync.ClassTransient, sync.PlatformPosify,
			fmt.Errorf("posify: failed to read response: %w", err))
	}

	if resp.StatusCode >= 400 {
		return nil, classifyHTTPStatus(sync.PlatformPosify, resp.StatusCode, resp.Header.Get("Retry-After"))
	}

	return body, nil
}

func (a *PosifyAdapter) invalidResponse(err error) error {
	return sync.NewPlatformError(sync.ClassTransient, sync.PlatformPosify,
		fmt.Errorf("posify: %w: %v", sync.ErrPlatformInvalidResponse, err))
}

// ---------------------------------------------------------------------------
// Canonical Conversion
// ---------------------------------------------------------------------------

func (a *PosifyAdapter) toCanonicalOrder(o *posifyOrder) sync.Order {
	createdAt, _ := time.Parse(time.RFC3339, o.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, o.UpdatedAt)

	order := sync.Order{
		PlatformOrderID: o.ID,
		Platform:        sync.PlatformPosify,
		Customer: sync.Customer{
			Email: o.Customer.Email,
			Name:  o.Customer.Name,
			Phone: o.Customer.Phone,
		},
		Shipping: sync.ShippingInfo{
			Address: sync.Address{
				Line1:      o.ShippingAddress.Address1,
				Line2:      o.ShippingAddress.Address2,
				City:       o.ShippingAddress.City,
				Region:     o.ShippingAddress.Province,
				PostalCode: o.ShippingAddress.Zip,
				Country:    o.ShippingAddress.CountryCode,
			},
		},
		FulfillmentStatus: fulfillmentFromPosify(o.Status),
		PaymentStatus:     paymentFromPosify(o.FinancialStatus),
		Items:             make([]sync.OrderItem, 0, len(o.LineItems)),
		CreatedAt:         createdAt,
		UpdatedAt:         updatedAt,
	}

	if o.Fulfillment != nil {
		order.Shipping.Carrier = o.Fulfillment.Carrier
		order.Shipping.TrackingNumber = o.Fulfillment.TrackingNumber
	}

	if total, err := valueobject.NewMoney(centsToDecimal(o.TotalCents), valueobject.Currency(o.Currency)); err == nil {
		order.Total = total
	}

	for _, item := range o.LineItems {
		order.Items = append(order.Items, sync.OrderItem{
			SKU:       item.SKU,
			Name:      item.Title,
			Quantity:  decimal.NewFromInt(item.Quantity),
			UnitPrice: centsToDecimal(item.PriceCents),
		})
	}

	return order
}

func (a *PosifyAdapter) fromCanonicalOrder(order *sync.Order) map[string]any {
	lineItems := make([]map[string]any, 0, len(order.Items))
	for _, item := range order.Items {
		lineItems = append(lineItems, map[string]any{
			"sku":         item.SKU,
			"title":       item.Name,
			"quantity":    item.Quantity.IntPart(),
			"price_cents": decimalToCents(item.UnitPrice),
		})
	}

	payload := map[string]any{
		"external_id":      order.PlatformOrderID,
		"status":           fulfillmentToPosify(order.FulfillmentStatus),
		"financial_status": paymentToPosify(order.PaymentStatus),
		"customer": map[string]any{
			"email": order.Customer.Email,
			"name":  order.Customer.Name,
			"phone": order.Customer.Phone,
		},
		"line_items": lineItems,
		"shipping_address": map[string]any{
			"address1":     order.Shipping.Address.Line1,
			"address2":     order.Shipping.Address.Line2,
			"city":         order.Shipping.Address.City,
			"province":     order.Shipping.Address.Region,
			"zip":          order.Shipping.Address.PostalCode,
			"country_code": order.Shipping.Address.Country,
		},
		"total_cents": decimalToCents(order.Total.Amount()),
		"currency":    string(order.Total.Currency()),
	}

	if order.HasTracking() {
		payload["fulfillment"] = map[string]any{
			"carrier":         order.Shipping.Carrier,
			"tracking_number": order.Shipping.TrackingNumber,
		}
	}

	return payload
}

func centsToDecimal(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(centsPerUnit)
}

func decimalToCents(d decimal.Decimal) int64 {
	return d.Mul(centsPerUnit).Round(0).IntPart()
}

// ---------------------------------------------------------------------------
// Status Mapping
// ---------------------------------------------------------------------------

// fulfillmentFromPosify maps Posify order status strings to canonical
func fulfillmentFromPosify(status string) sync.FulfillmentStatus {
	switch status {
	case "open":
		return sync.FulfillmentPending
	case "in_progress":
		return sync.FulfillmentProcessing
	case "shipped":
		return sync.FulfillmentShipped
	case "delivered":
		return sync.FulfillmentDelivered
	case "cancelled":
		return sync.FulfillmentCancelled
	case "error":
		return sync.FulfillmentFailed
	default:
		return sync.FulfillmentPending
	}
}

// fulfillmentToPosify maps canonical fulfillment status to Posify strings
func fulfillmentToPosify(status sync.FulfillmentStatus) string {
	switch status {
	case sync.FulfillmentPending:
		return "open"
	case sync.FulfillmentProcessing:
		return "in_progress"
	case sync.FulfillmentShipped:
		return "shipped"
	case sync.FulfillmentDelivered:
		return "delivered"
	case sync.FulfillmentCancelled:
		return "cancelled"
	case sync.FulfillmentFailed:
		return "error"
	default:
		return "open"
	}
}

// paymentFromPosify maps Posify financial status strings to canonical
func paymentFromPosify(status string) sync.PaymentStatus {
	switch status {
	case "pending":
		return sync.PaymentPending
	case "authorized":
		return sync.PaymentAuthorized
	case "paid":
		return sync.PaymentPaid
	case "partially_refunded":
		return sync.PaymentPartiallyRefunded
	case "refunded":
		return sync.PaymentRefunded
	case "declined":
		return sync.PaymentFailed
	case "voided":
		return sync.PaymentVoided
	default:
		return sync.PaymentPending
	}
}

// paymentToPosify maps canonical payment status to Posify strings
func paymentToPosify(status sync.PaymentStatus) string {
	switch status {
	case sync.PaymentPending:
		return "pending"
	case sync.PaymentAuthorized:
		return "authorized"
	case sync.PaymentPaid:
		return "paid"
	case sync.PaymentPartiallyRefunded:
		return "partially_refunded"
	case sync.PaymentRefunded:
		return "refunded"
	case sync.PaymentFailed:
		return "declined"
	case sync.PaymentVoided:
		return "voided"
	default:
		return "pending"
	}
}

// Ensure PosifyAdapter implements PlatformAdapter
var _ sync.PlatformAdapter = (*PosifyAdapter)(nil)
