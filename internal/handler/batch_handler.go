package handler

import (
	"go-pharmacy-ws/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type BatchHandler struct {
	batchService service.BatchService
}

func NewBatchHandler(batchService service.BatchService) *BatchHandler {
	return &BatchHandler{batchService: batchService}
}

// CreateBatch handles both draft and finalized creation; the body's is_draft
// flag decides.
// POST /api/v1/batches
func (h *BatchHandler) CreateBatch(c *fiber.Ctx) error {
	var req service.CreateBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	batch, err := h.batchService.CreateBatch(&req, actorFromCtx(c))
	if err != nil {
		return errorJSON(c, err)
	}

	return c.Status(201).JSON(fiber.Map{
		"message": "Batch created successfully",
		"data":    batch,
	})
}

// GetBatches returns every batch, drafts included
// GET /api/v1/batches
func (h *BatchHandler) GetBatches(c *fiber.Ctx) error {
	batches, err := h.batchService.GetAllBatches()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch batches"})
	}
	return c.JSON(batches)
}

// GetBatch returns a single batch with its medicine lines
// GET /api/v1/batches/:id
func (h *BatchHandler) GetBatch(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid batch ID"})
	}

	batch, err := h.batchService.GetBatchByID(id)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(batch)
}

// UpdateBatch applies a partial update; absent fields are left untouched
// PUT /api/v1/batches/:id
func (h *BatchHandler) UpdateBatch(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid batch ID"})
	}

	var req service.UpdateBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	result, err := h.batchService.UpdateBatch(id, &req, actorFromCtx(c))
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Batch updated successfully",
		"data":    result.Batch,
		"changes": result.Changes,
	})
}

// FinalizeBatch promotes a draft into live stock
// POST /api/v1/batches/:id/finalize
func (h *BatchHandler) FinalizeBatch(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid batch ID"})
	}

	batch, err := h.batchService.FinalizeBatch(id, actorFromCtx(c))
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Batch finalized successfully",
		"data":    batch,
	})
}

// DeleteBatch removes a batch permanently; its activity history remains
// DELETE /api/v1/batches/:id
func (h *BatchHandler) DeleteBatch(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid batch ID"})
	}

	summary, err := h.batchService.DeleteBatch(id, actorFromCtx(c))
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Batch deleted successfully",
		"data":    summary,
	})
}

// GetBatchActivity lists a batch's audit history newest first
// GET /api/v1/batches/:id/activity?page=1&limit=20
func (h *BatchHandler) GetBatchActivity(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid batch ID"})
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	activity, err := h.batchService.GetActivityByBatchID(id, page, limit)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(activity)
}

// GetActivityByNumber looks history up by batch number, which also works for
// deleted batches
// GET /api/v1/activity/:number?page=1&limit=20
func (h *BatchHandler) GetActivityByNumber(c *fiber.Ctx) error {
	number := c.Params("number")
	if number == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Missing batch number"})
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	activity, err := h.batchService.GetActivityByBatchNumber(number, page, limit)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(activity)
}
