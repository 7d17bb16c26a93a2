package service

import (
	"errors"
	"fmt"

	"go-pharmacy-ws/internal/model"
	"go-pharmacy-ws/internal/repository"
	"go-pharmacy-ws/pkg/validator"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrPhoneExists     = errors.New("phone number already registered")
)

type PatientService interface {
	CreatePatient(req *CreatePatientRequest, creatorID string) (*model.Patient, error)
	UpdatePatient(id uuid.UUID, req *UpdatePatientRequest, updaterID string) (*model.Patient, error)
	DeletePatient(id uuid.UUID) error
	GetAllPatients() ([]model.Patient, error)
	GetPatientByID(id uuid.UUID) (*model.Patient, error)
}

type CreatePatientRequest struct {
	FullName    string  `json:"full_name" validate:"required"`
	Gender      string  `json:"gender" validate:"required,oneof=male female other"`
	BirthDate   *string `json:"birth_date"` // YYYY-MM-DD
	PhoneNumber string  `json:"phone_number" validate:"required"`
	Address     string  `json:"address"`
	BloodGroup  string  `json:"blood_group"`
	MedicalNote string  `json:"medical_note"`
}

type UpdatePatientRequest struct {
	FullName    string  `json:"full_name" validate:"required"`
	Gender      string  `json:"gender" validate:"required,oneof=male female other"`
	BirthDate   *string `json:"birth_date"` // YYYY-MM-DD
	PhoneNumber string  `json:"phone_number" validate:"required"`
	Address     string  `json:"address"`
	BloodGroup  string  `json:"blood_group"`
	MedicalNote string  `json:"medical_note"`
}

type patientService struct {
	patientRepo repository.PatientRepository
}

func NewPatientService(patientRepo repository.PatientRepository) PatientService {
	return &patientService{patientRepo: patientRepo}
}

func (s *patientService) CreatePatient(req *CreatePatientRequest, creatorID string) (*model.Patient, error) {
	// 1. Validate request
	if msg := validator.FirstError(req); msg != "" {
		return nil, fmt.Errorf("%w: %s", ErrValidation, msg)
	}

	// 2. Phone number is the registry's natural key
	if existing, _ := s.patientRepo.FindByPhone(req.PhoneNumber); existing != nil {
		return nil, ErrPhoneExists
	}

	birthDate, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return nil, err
	}

	// 3. Create patient
	patient := &model.Patient{
		FullName:    req.FullName,
		Gender:      req.Gender,
		BirthDate:   birthDate,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		BloodGroup:  req.BloodGroup,
		MedicalNote: req.MedicalNote,
	}
	patient.CreatedBy = creatorID
	patient.UpdatedBy = creatorID

	if err := s.patientRepo.Create(patient); err != nil {
		return nil, err
	}

	return patient, nil
}

func (s *patientService) UpdatePatient(id uuid.UUID, req *UpdatePatientRequest, updaterID string) (*model.Patient, error) {
	// 1. Validate request
	if msg := validator.FirstError(req); msg != "" {
		return nil, fmt.Errorf("%w: %s", ErrValidation, msg)
	}

	// 2. Find existing patient
	patient, err := s.patientRepo.FindByID(id)
	if err != nil {
		return nil, ErrPatientNotFound
	}

	// 3. A changed phone number must stay unique
	if req.PhoneNumber != patient.PhoneNumber {
		if existing, _ := s.patientRepo.FindByPhone(req.PhoneNumber); existing != nil {
			return nil, ErrPhoneExists
		}
	}

	birthDate, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return nil, err
	}

	// 4. Apply updates
	patient.FullName = req.FullName
	patient.Gender = req.Gender
	patient.BirthDate = birthDate
	patient.PhoneNumber = req.PhoneNumber
	patient.Address = req.Address
	patient.BloodGroup = req.BloodGroup
	patient.MedicalNote = req.MedicalNote
	patient.UpdatedBy = updaterID

	if err := s.patientRepo.Update(patient); err != nil {
		return nil, err
	}

	return patient, nil
}

func (s *patientService) DeletePatient(id uuid.UUID) error {
	if _, err := s.patientRepo.FindByID(id); err != nil {
		return ErrPatientNotFound
	}
	return s.patientRepo.Delete(id)
}

func (s *patientService) GetAllPatients() ([]model.Patient, error) {
	return s.patientRepo.FindAll()
}

func (s *patientService) GetPatientByID(id uuid.UUID) (*model.Patient, error) {
	patient, err := s.patientRepo.FindByID(id)
	if err != nil {
		return nil, ErrPatientNotFound
	}
	return patient, nil
}
