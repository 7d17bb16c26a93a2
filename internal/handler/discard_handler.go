package handler

import (
	"strconv"

	"go-pharmacy-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DiscardHandler struct {
	discardService service.DiscardService
}

func NewDiscardHandler(discardService service.DiscardService) *DiscardHandler {
	return &DiscardHandler{discardService: discardService}
}

// DiscardLine discards expired stock from one batch's medicine line
// POST /api/v1/discards
func (h *DiscardHandler) DiscardLine(c *fiber.Ctx) error {
	var req service.DiscardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	record, err := h.discardService.DiscardLine(&req, actorFromCtx(c))
	if err != nil {
		return errorJSON(c, err)
	}

	return c.Status(201).JSON(fiber.Map{
		"message": "Stock discarded successfully",
		"data":    record,
	})
}

// DiscardAllForMedicine sweeps expired stock of one medicine across all
// finalized batches
// POST /api/v1/discards/medicine
func (h *DiscardHandler) DiscardAllForMedicine(c *fiber.Ctx) error {
	var req service.DiscardAllRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	result, err := h.discardService.DiscardAllForMedicine(&req, actorFromCtx(c))
	if err != nil {
		return errorJSON(c, err)
	}

	return c.Status(201).JSON(fiber.Map{
		"message": "Expired stock discarded successfully",
		"data":    result,
	})
}

// GetDiscards lists discard receipts newest first
// GET /api/v1/discards?page=1&limit=20
func (h *DiscardHandler) GetDiscards(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	records, total, err := h.discardService.GetDiscards(page, limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch discard records"})
	}

	return c.JSON(fiber.Map{
		"data":  records,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// GetDiscardsByMedicine lists a medicine's discard history
// GET /api/v1/discards/medicine/:medicineId
func (h *DiscardHandler) GetDiscardsByMedicine(c *fiber.Ctx) error {
	medicineID, err := strconv.Atoi(c.Params("medicineId"))
	if err != nil || medicineID <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid medicine ID"})
	}

	records, err := h.discardService.GetDiscardsByMedicine(medicineID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch discard records"})
	}
	return c.JSON(records)
}
