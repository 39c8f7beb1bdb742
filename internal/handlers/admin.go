package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/gerai/internal/models"
	"github.com/example/gerai/internal/utils"
)

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	db *gorm.DB
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	var totalProducts int64
	if err := h.db.Model(&models.Product{}).Count(&totalProducts).Error; err != nil {
		return err
	}

	var totalCategories int64
	if err := h.db.Model(&models.Category{}).Count(&totalCategories).Error; err != nil {
		return err
	}

	var totalOrders int64
	if err := h.db.Model(&models.Order{}).Count(&totalOrders).Error; err != nil {
		return err
	}

	var totalUsers int64
	if err := h.db.Model(&models.User{}).
		Where("role != ?", models.RoleAdmin).
		Count(&totalUsers).Error; err != nil {
		return err
	}

	// Revenue excludes cancelled orders.
	var totalRevenue decimal.Decimal
	if err := h.db.Model(&models.Order{}).
		Where("status != ?", models.OrderStatusCancelled).
		Select("COALESCE(SUM(total), 0)").
		Scan(&totalRevenue).Error; err != nil {
		return err
	}

	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	var statusCounts []statusCount
	if err := h.db.Model(&models.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return err
	}

	ordersByStatus := make(map[string]int64)
	for _, sc := range statusCounts {
		ordersByStatus[sc.Status] = sc.Count
	}

	var recentOrders []models.Order
	if err := h.db.Preload("User").
		Order("created_at desc").
		Limit(5).
		Find(&recentOrders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_products":   totalProducts,
			"total_categories": totalCategories,
			"total_orders":     totalOrders,
			"total_users":      totalUsers,
			"total_revenue":    totalRevenue,
			"orders_by_status": ordersByStatus,
			"recent_orders":    recentOrders,
		},
	})
}

// ListOrders returns all orders for the admin panel with optional filters.
func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Order{})

	if status := c.Query("status"); status != "" {
		if !models.OrderStatus(status).IsValid() {
			return fiber.NewError(fiber.StatusBadRequest, "invalid status")
		}
		query = query.Where("status = ?", status)
	}

	if status := c.Query("payment_status"); status != "" {
		if !models.PaymentStatus(status).IsValid() {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payment status")
		}
		query = query.Where("payment_status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("User").
		Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

type updateOrderStatusRequest struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

// UpdateOrderStatus applies fulfillment and payment transitions to an order.
// Moving to shipped or delivered stamps the matching timestamp once.
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.db.First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	var req updateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}

	if req.Status != "" {
		status := models.OrderStatus(req.Status)
		if !status.IsValid() {
			return fiber.NewError(fiber.StatusBadRequest, "invalid status")
		}
		updates["status"] = status

		now := time.Now()
		if status == models.OrderStatusShipped && order.ShippedAt == nil {
			updates["shipped_at"] = &now
		}
		if status == models.OrderStatusDelivered && order.DeliveredAt == nil {
			updates["delivered_at"] = &now
		}
	}

	if req.PaymentStatus != "" {
		paymentStatus := models.PaymentStatus(req.PaymentStatus)
		if !paymentStatus.IsValid() {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payment status")
		}
		updates["payment_status"] = paymentStatus
	}

	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "nothing to update")
	}

	if err := h.db.Model(&order).Updates(updates).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}
