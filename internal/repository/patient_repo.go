package repository

import (
	"go-pharmacy-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PatientRepository interface {
	Create(patient *model.Patient) error
	FindAll() ([]model.Patient, error)
	FindByID(id uuid.UUID) (*model.Patient, error)
	FindByPhone(phone string) (*model.Patient, error)
	Update(patient *model.Patient) error
	Delete(id uuid.UUID) error
}

type patientRepo struct {
	db *gorm.DB
}

func NewPatientRepo(db *gorm.DB) PatientRepository {
	return &patientRepo{db}
}

func (r *patientRepo) Create(patient *model.Patient) error {
	return r.db.Create(patient).Error
}

func (r *patientRepo) FindAll() ([]model.Patient, error) {
	var patients []model.Patient
	err := r.db.Order("full_name ASC").Find(&patients).Error
	return patients, err
}

func (r *patientRepo) FindByID(id uuid.UUID) (*model.Patient, error) {
	var patient model.Patient
	if err := r.db.First(&patient, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepo) FindByPhone(phone string) (*model.Patient, error) {
	var patient model.Patient
	if err := r.db.First(&patient, "phone_number = ?", phone).Error; err != nil {
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepo) Update(patient *model.Patient) error {
	return r.db.Save(patient).Error
}

func (r *patientRepo) Delete(id uuid.UUID) error {
	return r.db.Delete(&model.Patient{}, "id = ?", id).Error
}
