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

// maxResponseSize limits response bodies to prevent memory exhaustion
const maxResponseSize = 10 * 1024 * 1024 // 10MB max response

// SupplyHubAdapter implements PlatformAdapter for SupplyHub, the
// product-sourcing and order platform
type SupplyHubAdapter struct {
	config     *SupplyHubConfig
	httpClient *http.Client
}

// NewSupplyHubAdapter creates a new SupplyHub adapter with the given configuration
func NewSupplyHubAdapter(config *SupplyHubConfig) (*SupplyHubAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &SupplyHubAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// PlatformCode returns the platform code this adapter handles
func (a *SupplyHubAdapter) PlatformCode() sync.PlatformCode {
	return sync.PlatformSupplyHub
}

// ---------------------------------------------------------------------------
// Order Operations
// ---------------------------------------------------------------------------

// FetchOrder retrieves a single order in canonical form
func (a *SupplyHubAdapter) FetchOrder(ctx context.Context, platformOrderID string) (*sync.Order, error) {
	if platformOrderID == "" {
		return nil, sync.NewPlatformError(sync.ClassValidation, sync.PlatformSupplyHub, sync.ErrEntityInvalid)
	}

	respBody, err := a.doRequest(ctx, http.MethodGet, "/api/v1/orders/"+url.PathEscape(platformOrderID), nil)
	if err != nil {
		return nil, err
	}

	var resp supplyHubOrderResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, a.invalidResponse(err)
	}
	if !resp.IsSuccess() {
		return nil, a.apiError(&resp.supplyHubEnvelope)
	}
	if resp.Data == nil {
		return nil, sync.NewPlatformError(sync.ClassNotFound, sync.PlatformSupplyHub, sync.ErrEntityNotFound)
	}

	order := a.toCanonicalOrder(resp.Data)
	return &order, nil
}

// ListOrders returns one page of orders ordered by platform order ID
func (a *SupplyHubAdapter) ListOrders(ctx context.Context, req *sync.OrderListRequest) (*sync.OrderListResponse, error) {
	q := url.Values{}
	if req.AfterID != "" {
		q.Set("after_id", req.AfterID)
	}
	if req.PageSize > 0 {
		q.Set("limit", strconv.Itoa(req.PageSize))
	}
	if req.UpdatedSince != nil {
		q.Set("updated_since", strconv.FormatInt(*req.UpdatedSince, 10))
	}

	respBody, err := a.doRequest(ctx, http.MethodGet, "/api/v1/orders?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var resp supplyHubOrderListResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, a.invalidResponse(err)
	}
	if !resp.IsSuccess() {
		return nil, a.apiError(&resp.supplyHubEnvelope)
	}
	if resp.Data == nil {
		return nil, a.invalidResponse(sync.ErrPlatformInvalidResponse)
	}

	out := &sync.OrderListResponse{
		Orders:  make([]sync.Order, 0, len(resp.Data.Orders)),
		HasMore: resp.Data.HasMore,
	}
	for i := range resp.Data.Orders {
		out.Orders = append(out.Orders, a.toCanonicalOrder(&resp.Data.Orders[i]))
	}
	return out, nil
}

// CreateOrder creates the order on SupplyHub and returns the assigned ID
func (a *SupplyHubAdapter) CreateOrder(ctx context.Context, order *sync.Order) (string, error) {
	if err := order.Validate(); err != nil {
		return "", sync.NewPlatformError(sync.ClassValidation, sync.PlatformSupplyHub, err)
	}

	payload := a.fromCanonicalOrder(order)
	respBody, err := a.doRequest(ctx, http.MethodPost, "/api/v1/orders", payload)
	if err != nil {
		return "", err
	}

	var resp supplyHubCreateOrderResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", a.invalidResponse(err)
	}
	if !resp.IsSuccess() {
		return "", a.apiError(&resp.supplyHubEnvelope)
	}
	if resp.Data == nil || resp.Data.OrderID == "" {
		return "", a.invalidResponse(sync.ErrPlatformInvalidResponse)
	}
	return resp.Data.OrderID, nil
}

// UpdateFulfillment applies a fulfillment update to an existing order
func (a *SupplyHubAdapter) UpdateFulfillment(ctx context.Context, platformOrderID string, update sync.FulfillmentUpdate) error {
	payload := map[string]any{
		"status": fulfillmentToSupplyHub(update.Status),
	}
	if update.Carrier != "" {
		payload["carrier"] = update.Carrier
	}
	if update.TrackingNumber != "" {
		payload["tracking_no"] = update.TrackingNumber
	}

	respBody, err := a.doRequest(ctx, http.MethodPut, "/api/v1/orders/"+url.PathEscape(platformOrderID)+"/fulfillment", payload)
	if err != nil {
		return err
	}

	var resp supplyHubEnvelope
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return a.invalidResponse(err)
	}
	if !resp.IsSuccess() {
		return a.apiError(&resp)
	}
	return nil
}

// UpdatePayment applies a payment update to an existing order
func (a *SupplyHubAdapter) UpdatePayment(ctx context.Context, platformOrderID string, update sync.PaymentUpdate) error {
	payload := map[string]any{
		"payment_status": paymentToSupplyHub(update.Status),
	}

	respBody, err := a.doRequest(ctx, http.MethodPut, "/api/v1/orders/"+url.PathEscape(platformOrderID)+"/payment", payload)
	if err != nil {
		return err
	}

	var resp supplyHubEnvelope
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return a.invalidResponse(err)
	}
	if !resp.IsSuccess() {
		return a.apiError(&resp)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Inventory Operations
// ---------------------------------------------------------------------------

// FetchInventory returns current stock levels, optionally scoped to a location
func (a *SupplyHubAdapter) FetchInventory(ctx context.Context, locationID string) ([]sync.InventoryLevel, error) {
	path := "/api/v1/inventory"
	if locationID != "" {
		path += "?location_id=" + url.QueryEscape(locationID)
	}

	respBody, err := a.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var resp supplyHubInventoryResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, a.invalidResponse(err)
	}
	if !resp.IsSuccess() {
		return nil, a.apiError(&resp.supplyHubEnvelope)
	}
	if resp.Data == nil {
		return nil, a.invalidResponse(sync.ErrPlatformInvalidResponse)
	}

	levels := make([]sync.InventoryLevel, 0, len(resp.Data.Levels))
	for _, l := range resp.Data.Levels {
		levels = append(levels, sync.InventoryLevel{
			ProductID:  l.ProductID,
			SKU:        l.SKU,
			Quantity:   l.Available,
			LocationID: l.LocationID,
			UpdatedAt:  time.Unix(l.UpdatedAt, 0),
		})
	}
	return levels, nil
}

// AdjustInventory submits a batch of absolute quantity corrections
func (a *SupplyHubAdapter) AdjustInventory(ctx context.Context, adjustments []sync.InventoryAdjustment, idempotencyKey string) error {
	if len(adjustments) == 0 {
		return nil
	}

	items := make([]map[string]any, 0, len(adjustments))
	for _, adj := range adjustments {
		item := map[string]any{
			"sku":       adj.SKU,
			"available": adj.Quantity,
		}
		if adj.LocationID != "" {
			item["location_id"] = adj.LocationID
		}
		items = append(items, item)
	}

	respBody, err := a.doRequestWithHeaders(ctx, http.MethodPost, "/api/v1/inventory/adjustments",
		map[string]any{"adjustments": items},
		map[string]string{"Idempotency-Key": idempotencyKey})
	if err != nil {
		return err
	}

	var resp supplyHubEnvelope
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return a.invalidResponse(err)
	}
	if !resp.IsSuccess() {
		return a.apiError(&resp)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Webhook Operations
// ---------------------------------------------------------------------------

// VerifyWebhookSignature checks the hex HMAC-SHA256 delivery signature
func (a *SupplyHubAdapter) VerifyWebhookSignature(signature string, body []byte) bool {
	if a.config.WebhookSecret == "" || signature == "" {
		return false
	}
	expected := a.config.SignWebhook(body)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ParseWebhook translates a SupplyHub webhook delivery into a canonical event
func (a *SupplyHubAdapter) ParseWebhook(body []byte) (*sync.WebhookEvent, error) {
	var payload supplyHubWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", sync.ErrWebhookMalformed, err)
	}
	if payload.WebhookID == "" {
		return nil, sync.ErrWebhookMalformed
	}

	event := &sync.WebhookEvent{
		WebhookID:  payload.WebhookID,
		Platform:   sync.PlatformSupplyHub,
		ReceivedAt: time.Now(),
	}

	switch payload.EventType {
	case "order.created":
		event.Kind = sync.EventKindOrderCreated
		event.EntityID = payload.Data.OrderID
	case "order.updated":
		event.Kind = sync.EventKindOrderUpdated
		event.EntityID = payload.Data.OrderID
	case "fulfillment.updated":
		event.Kind = sync.EventKindFulfillmentUpdated
		event.EntityID = payload.Data.OrderID
	case "payment.updated":
		event.Kind = sync.EventKindPaymentUpdated
		event.EntityID = payload.Data.OrderID
	case "inventory.updated":
		event.Kind = sync.EventKindInventoryUpdated
		event.EntityID = payload.Data.SKU
	default:
		event.Kind = sync.EventKindUnknown
	}

	return event, nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// doRequest performs a signed HTTP request against the SupplyHub API
func (a *SupplyHubAdapter) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	return a.doRequestWithHeaders(ctx, method, path, payload, nil)
}

func (a *SupplyHubAdapter) doRequestWithHeaders(ctx context.Context, method, path string, payload any, headers map[string]string) ([]byte, error) {
	var bodyBytes []byte
	if payload != nil {
		var err error
		bodyBytes, err = json.Marshal(payload)
		if err != nil {
			return nil, sync.NewPlatformError(sync.ClassValidation, sync.PlatformSupplyHub,
				fmt.Errorf("supplyhub: failed to marshal request: %w", err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.BaseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, sync.NewPlatformError(sync.ClassFatal, sync.PlatformSupplyHub,
			fmt.Errorf("supplyhub: failed to create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", a.config.APIKey)
	req.Header.Set("X-Supplyhub-Signature", a.config.Sign(bodyBytes))
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, sync.NewPlatformError(sync.ClassTransient, sync.PlatformSupplyHub,
			fmt.Errorf("%w: %v", sync.ErrPlatformUnavailable, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, sync.NewPlatformError(sync.ClassTransient, sync.PlatformSupplyHub,
			fmt.Errorf("supplyhub: failed to read response: %w", err))
	}

	if resp.StatusCode >= 400 {
		return nil, classifyHTTPStatus(sync.PlatformSupplyHub, resp.StatusCode, resp.Header.Get("Retry-After"))
	}

	return body, nil
}

func (a *SupplyHubAdapter) invalidResponse(err error) error {
	return sync.NewPlatformError(sync.ClassTransient, sync.PlatformSupplyHub,
		fmt.Errorf("supplyhub: %w: %v", sync.ErrPlatformInvalidResponse, err))
}

// apiError classifies a non-zero envelope code. SupplyHub's code space maps
// onto the taxonomy: 1xxx validation, 2xxx missing resources, 3xxx auth,
// 4290 throttling, 4090 write conflicts; everything else is transient.
func (a *SupplyHubAdapter) apiError(env *supplyHubEnvelope) error {
	err := fmt.Errorf("supplyhub: %d - %s", env.Code, env.Message)
	switch {
	case env.Code >= 1000 && env.Code < 2000:
		return sync.NewPlatformError(sync.ClassValidation, sync.PlatformSupplyHub, err)
	case env.Code >= 2000 && env.Code < 3000:
		return sync.NewPlatformError(sync.ClassNotFound, sync.PlatformSupplyHub, sync.ErrEntityNotFound)
	case env.Code >= 3000 && env.Code < 4000:
		return sync.NewPlatformError(sync.ClassFatal, sync.PlatformSupplyHub, err)
	case env.Code == 4290:
		return sync.NewPlatformError(sync.ClassRateLimited, sync.PlatformSupplyHub, err)
	case env.Code == 4090:
		return sync.NewPlatformError(sync.ClassConflictWrite, sync.PlatformSupplyHub, err)
	default:
		return sync.NewPlatformError(sync.ClassTransient, sync.PlatformSupplyHub, err)
	}
}

// ---------------------------------------------------------------------------
// Canonical Conversion
// ---------------------------------------------------------------------------

// toCanonicalOrder converts a SupplyHub order to the canonical shape
func (a *SupplyHubAdapter) toCanonicalOrder(o *supplyHubOrder) sync.Order {
	order := sync.Order{
		PlatformOrderID: o.OrderID,
		Platform:        sync.PlatformSupplyHub,
		Customer: sync.Customer{
			Email: o.Buyer.Email,
			Name:  o.Buyer.Name,
			Phone: o.Buyer.Phone,
		},
		Shipping: sync.ShippingInfo{
			Address: sync.Address{
				Line1:      o.Shipping.AddressLine1,
				Line2:      o.Shipping.AddressLine2,
				City:       o.Shipping.City,
				Region:     o.Shipping.Region,
				PostalCode: o.Shipping.PostalCode,
				Country:    o.Shipping.Country,
			},
			Carrier:        o.Shipping.Carrier,
			TrackingNumber: o.Shipping.TrackingNo,
		},
		FulfillmentStatus: fulfillmentFromSupplyHub(o.Status),
		PaymentStatus:     paymentFromSupplyHub(o.PaymentStatus),
		Items:             make([]sync.OrderItem, 0, len(o.Lines)),
		CreatedAt:         time.Unix(o.CreatedAt, 0),
		UpdatedAt:         time.Unix(o.UpdatedAt, 0),
	}

	if total, err := valueobject.NewMoneyFromString(o.TotalAmount, valueobject.Currency(o.Currency)); err == nil {
		order.Total = total
	}

	for _, line := range o.Lines {
		unitPrice, err := decimal.NewFromString(line.UnitPrice)
		if err != nil {
			unitPrice = decimal.Zero
		}
		order.Items = append(order.Items, sync.OrderItem{
			SKU:       line.SKU,
			Name:      line.Title,
			Quantity:  decimal.NewFromInt(line.Quantity),
			UnitPrice: unitPrice,
		})
	}

	return order
}

// fromCanonicalOrder serializes a canonical order for SupplyHub
func (a *SupplyHubAdapter) fromCanonicalOrder(order *sync.Order) map[string]any {
	lines := make([]map[string]any, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, map[string]any{
			"sku":        item.SKU,
			"title":      item.Name,
			"quantity":   item.Quantity.IntPart(),
			"unit_price": item.UnitPrice.StringFixed(2),
		})
	}

	return map[string]any{
		"external_order_id": order.PlatformOrderID,
		"status":            fulfillmentToSupplyHub(order.FulfillmentStatus),
		"payment_status":    paymentToSupplyHub(order.PaymentStatus),
		"buyer": map[string]any{
			"email": order.Customer.Email,
			"name":  order.Customer.Name,
			"phone": order.Customer.Phone,
		},
		"lines": lines,
		"shipping": map[string]any{
			"address_line1": order.Shipping.Address.Line1,
			"address_line2": order.Shipping.Address.Line2,
			"city":          order.Shipping.Address.City,
			"region":        order.Shipping.Address.Region,
			"postal_code":   order.Shipping.Address.PostalCode,
			"country":       order.Shipping.Address.Country,
			"carrier":       order.Shipping.Carrier,
			"tracking_no":   order.Shipping.TrackingNumber,
		},
		"total_amount": order.Total.StringFixed(2),
		"currency":     string(order.Total.Currency()),
	}
}

// ---------------------------------------------------------------------------
// Status Mapping
// ---------------------------------------------------------------------------

// fulfillmentFromSupplyHub maps SupplyHub order status strings to canonical
func fulfillmentFromSupplyHub(status string) sync.FulfillmentStatus {
	switch status {
	case "pending":
		return sync.FulfillmentPending
	case "processing":
		return sync.FulfillmentProcessing
	case "shipped":
		return sync.FulfillmentShipped
	case "delivered":
		return sync.FulfillmentDelivered
	case "cancelled":
		return sync.FulfillmentCancelled
	case "failed":
		return sync.FulfillmentFailed
	default:
		return sync.FulfillmentPending
	}
}

// fulfillmentToSupplyHub maps canonical fulfillment status to SupplyHub strings
func fulfillmentToSupplyHub(status sync.FulfillmentStatus) string {
	switch status {
	case sync.FulfillmentPending:
		return "pending"
	case sync.FulfillmentProcessing:
		return "processing"
	case sync.FulfillmentShipped:
		return "shipped"
	case sync.FulfillmentDelivered:
		return "delivered"
	case sync.FulfillmentCancelled:
		return "cancelled"
	case sync.FulfillmentFailed:
		return "failed"
	default:
		return "pending"
	}
}

// paymentFromSupplyHub maps SupplyHub payment status strings to canonical
func paymentFromSupplyHub(status string) sync.PaymentStatus {
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
	case "failed":
		return sync.PaymentFailed
	case "voided":
		return sync.PaymentVoided
	default:
		return sync.PaymentPending
	}
}

// paymentToSupplyHub maps canonical payment status to SupplyHub strings
func paymentToSupplyHub(status sync.PaymentStatus) string {
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
		return "failed"
	case sync.PaymentVoided:
		return "voided"
	default:
		return "pending"
	}
}

// Ensure SupplyHubAdapter implements PlatformAdapter
var _ sync.PlatformAdapter = (*SupplyHubAdapter)(nil)
