package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"shop_backend/constants"
	"shop_backend/helper"
	"shop_backend/model"
	"shop_backend/notify"
	"shop_backend/payment"
	"shop_backend/store"
	"shop_backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

// Wired in main; tests swap in the memory store and a stub gateway.
var (
	Orders     store.OrderStore
	Charges    store.ChargeLog
	Gateway    payment.Gateway
	Dispatcher *notify.Dispatcher
)

// CreateOrder is the checkout path: validated input comes in through
// Locals, the card is charged, and only then is an order written. No
// unpaid order row ever exists.
func CreateOrder(c *fiber.Ctx) error {
	input, ok := c.Locals("checkoutInput").(model.CheckoutInput)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "missing checkout input",
		})
	}

	currency := input.Currency
	if currency == "" {
		currency = constants.DEFAULT_CURRENCY
	}

	// Charge in minor units, rounded once from the decimal total.
	amountMinor := int64(math.Round(input.Total * 100))
	if amountMinor <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "total must be greater than zero",
		})
	}

	// The client total is what gets charged; a mismatch against the cart
	// is logged, not rejected.
	var itemsTotal float64
	for _, item := range input.Items {
		itemsTotal += item.Price * float64(item.Quantity)
	}
	if math.Abs(itemsTotal-input.Total) > 0.01 {
		log.Printf("checkout total %.2f does not match items total %.2f (email %s)",
			input.Total, itemsTotal, input.CustomerInfo.Email)
	}

	// One idempotency key per checkout attempt. A client nonce makes
	// retried submissions of the same attempt safe; without one each
	// attempt gets a fresh key.
	idempotencyKey := input.RequestId
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	} else if !claimRequestId(idempotencyKey) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   "duplicate checkout request",
		})
	}

	var customer model.CustomerInfo
	copier.Copy(&customer, &input.CustomerInfo)
	if customer.Country == "" {
		customer.Country = constants.DEFAULT_COUNTRY
	}

	orderNumber := helper.NewOrderNumber()

	result, err := Gateway.Charge(c.UserContext(), payment.ChargeRequest{
		Token:          input.PaymentToken,
		Amount:         amountMinor,
		Currency:       currency,
		IdempotencyKey: idempotencyKey,
		Description:    "Order " + orderNumber,
		Billing:        customer,
	})
	if err != nil {
		var chargeErr *payment.ChargeError
		if errors.As(err, &chargeErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   chargeErr.Reason,
				"details": chargeErr.Details,
			})
		}
		log.Printf("gateway call failed for %s: %v", orderNumber, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "payment could not be processed",
		})
	}

	// Money is captured from here on. Journal first so a failed order
	// write still leaves a trail for reconciliation.
	chargeRec := model.ChargeRecord{
		TransactionID: result.TransactionID,
		OrderNumber:   orderNumber,
		Amount:        input.Total,
		Currency:      currency,
		Email:         customer.Email,
	}
	if Charges != nil {
		if err := Charges.Record(&chargeRec); err != nil {
			log.Printf("failed to journal charge %s: %v", result.TransactionID, err)
		}
	}

	items := make([]model.OrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, model.OrderItem{
			Name:        item.Name,
			Description: item.Description,
			Price:       item.Price,
			Quantity:    item.Quantity,
		})
	}

	order := model.Order{
		OrderNumber: orderNumber,
		Customer:    customer,
		Items:       items,
		PaymentInfo: model.PaymentInfo{
			TransactionID:    result.TransactionID,
			ProcessorOrderID: result.ProcessorOrderID,
			Amount:           input.Total,
			Currency:         currency,
			PaymentStatus:    model.PaymentPaid,
		},
		OrderStatus: model.OrderPaid,
	}

	if err := Orders.Create(&order); err != nil {
		// Charged but not recorded: the one state that needs a human.
		if Dispatcher != nil {
			Dispatcher.EscalateChargeGap(chargeRec)
		} else {
			log.Printf("CRITICAL: charge %s captured but order %s not recorded: %v",
				result.TransactionID, orderNumber, err)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success":   false,
			"error":     "payment captured but order could not be recorded, support has been notified",
			"paymentId": result.TransactionID,
		})
	}

	if Charges != nil {
		if err := Charges.MarkRecorded(result.TransactionID); err != nil {
			log.Printf("failed to mark charge %s recorded: %v", result.TransactionID, err)
		}
	}

	if Dispatcher != nil {
		Dispatcher.EnqueueConfirmation(order)
	}
	BroadcastOrderEvent("order.created", order)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":     true,
		"order":       order,
		"orderNumber": order.OrderNumber,
		"paymentId":   result.TransactionID,
	})
}

func ListOrders(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", constants.DEFAULT_PAGE_SIZE)

	filter := store.ListFilter{}
	if status := c.Query("status"); status != "" {
		filter.Status = model.OrderStatus(status)
	}

	result, err := Orders.List(filter, page, limit)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "could not load orders", err)
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"orders":      result.Orders,
		"total":       result.Total,
		"totalPages":  result.TotalPages,
		"currentPage": result.Page,
	})
}

func GetOrderDetail(c *fiber.Ctx) error {
	orderNumber := c.Params("orderNumber")

	order, err := Orders.GetByNumber(orderNumber)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "order not found",
			})
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "could not load order", err)
	}

	qrBase64 := ""
	qrBytes, err := utils.GenerateQRCode(order.OrderNumber, 400)
	if err != nil {
		log.Printf("failed to build QR for order %s: %v", order.OrderNumber, err)
	} else {
		qrBase64 = "data:image/png;base64," + base64.StdEncoding.EncodeToString(qrBytes)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"order":   order,
		"qrCode":  qrBase64,
	})
}

func UpdateOrderStatus(c *fiber.Ctx) error {
	orderNumber := c.Params("orderNumber")
	input, ok := c.Locals("statusInput").(model.UpdateOrderStatusInput)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "missing status input",
		})
	}

	newStatus := model.OrderStatus(input.Status)
	if !model.IsValidOrderStatus(newStatus) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   fmt.Sprintf("invalid status %q", input.Status),
		})
	}

	order, err := Orders.GetByNumber(orderNumber)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "order not found",
			})
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "could not load order", err)
	}

	if !model.CanTransition(order.OrderStatus, newStatus) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error": fmt.Sprintf("cannot move order from %s to %s",
				order.OrderStatus, newStatus),
		})
	}

	updated, err := Orders.Update(orderNumber, store.OrderPatch{
		Status:         &newStatus,
		TrackingNumber: input.TrackingNumber,
		Notes:          input.Notes,
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "could not update order", err)
	}

	if Dispatcher != nil {
		Dispatcher.EnqueueStatusChange(*updated)
	}
	BroadcastOrderEvent("order.status", *updated)

	return c.JSON(fiber.Map{
		"success": true,
		"order":   updated,
	})
}

// claimRequestId reserves a client nonce in redis for 24h. Redis being
// down degrades to no dedupe rather than blocking checkout.
func claimRequestId(requestId string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ok, err := redisClient.SetNX(ctx, "checkout:req:"+requestId, 1, 24*time.Hour).Result()
	if err != nil {
		log.Printf("request dedupe unavailable: %v", err)
		return true
	}
	return ok
}
