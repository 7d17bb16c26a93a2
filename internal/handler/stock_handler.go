package handler

import (
	"strconv"

	"go-pharmacy-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type StockHandler struct {
	stockService service.StockService
}

func NewStockHandler(stockService service.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

func stockQueryFromCtx(c *fiber.Ctx) service.StockQuery {
	return service.StockQuery{
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 20),
		Search: c.Query("search"),
		Sort:   c.Query("sort"),
	}
}

// GetStock returns the aggregated per-medicine stock position
// GET /api/v1/stock?page=1&limit=20&search=&sort=name|quantity|value|expiry
func (h *StockHandler) GetStock(c *fiber.Ctx) error {
	page, err := h.stockService.QueryStock(stockQueryFromCtx(c))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch stock"})
	}
	return c.JSON(page)
}

// GetExpiringStock returns medicines with expired or soon-to-expire units
// GET /api/v1/stock/expiring
func (h *StockHandler) GetExpiringStock(c *fiber.Ctx) error {
	page, err := h.stockService.QueryExpiring(stockQueryFromCtx(c))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch expiring stock"})
	}
	return c.JSON(page)
}

// GetLowStock returns medicines at or below their reorder level
// GET /api/v1/stock/low
func (h *StockHandler) GetLowStock(c *fiber.Ctx) error {
	page, err := h.stockService.QueryLowStock(stockQueryFromCtx(c))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch low stock"})
	}
	return c.JSON(page)
}

// GetStockByMedicine returns one medicine's position with per-batch breakdown
// GET /api/v1/stock/:medicineId
func (h *StockHandler) GetStockByMedicine(c *fiber.Ctx) error {
	medicineID, err := strconv.Atoi(c.Params("medicineId"))
	if err != nil || medicineID <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid medicine ID"})
	}

	view, err := h.stockService.GetStockByMedicine(medicineID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(view)
}
