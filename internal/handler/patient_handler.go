package handler

import (
	"go-pharmacy-ws/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type PatientHandler struct {
	patientService service.PatientService
}

func NewPatientHandler(patientService service.PatientService) *PatientHandler {
	return &PatientHandler{patientService: patientService}
}

// CreatePatient registers a new patient
// POST /api/v1/patients
func (h *PatientHandler) CreatePatient(c *fiber.Ctx) error {
	var req service.CreatePatientRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	patient, err := h.patientService.CreatePatient(&req, actorFromCtx(c).ID)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.Status(201).JSON(fiber.Map{
		"message": "Patient registered successfully",
		"data":    patient,
	})
}

// GetPatients returns all patients ordered by name
// GET /api/v1/patients
func (h *PatientHandler) GetPatients(c *fiber.Ctx) error {
	patients, err := h.patientService.GetAllPatients()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch patients"})
	}
	return c.JSON(patients)
}

// GetPatient returns a single patient
// GET /api/v1/patients/:id
func (h *PatientHandler) GetPatient(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid patient ID"})
	}

	patient, err := h.patientService.GetPatientByID(id)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(patient)
}

// UpdatePatient updates a patient record
// PUT /api/v1/patients/:id
func (h *PatientHandler) UpdatePatient(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid patient ID"})
	}

	var req service.UpdatePatientRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	patient, err := h.patientService.UpdatePatient(id, &req, actorFromCtx(c).ID)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Patient updated successfully",
		"data":    patient,
	})
}

// DeletePatient removes a patient record
// DELETE /api/v1/patients/:id
func (h *PatientHandler) DeletePatient(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid patient ID"})
	}

	if err := h.patientService.DeletePatient(id); err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(fiber.Map{"message": "Patient deleted successfully"})
}
