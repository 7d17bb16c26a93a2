package model

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User is a pharmacy staff account. Authorization is privilege-based: the
// role's privilege set is copied onto the user at assignment time, so a later
// role edit never silently widens an existing account.
type User struct {
	BaseModel
	Email         string      `gorm:"type:varchar(255);uniqueIndex;not null" json:"email" validate:"required,email"`
	Password      string      `gorm:"type:varchar(255);not null" json:"-"`
	FullName      string      `gorm:"type:varchar(255)" json:"full_name" validate:"required"`
	PhoneNumber   string      `gorm:"type:varchar(20)" json:"phone_number"`
	LicenseNumber string      `gorm:"type:varchar(64)" json:"license_number"` // pharmacist registration, optional
	BirthDate     *time.Time  `gorm:"type:date" json:"birth_date,omitempty"`
	RoleID        *uint       `gorm:"index" json:"role_id"`
	Role          *Role       `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	IsActive      bool        `gorm:"default:true" json:"is_active"`
	Privileges    []Privilege `gorm:"many2many:user_privileges;" json:"privileges,omitempty"`
	// TokenVersion rotates on every login; a token minted against an older
	// version is rejected, which enforces one live session per account.
	TokenVersion string     `gorm:"type:varchar(255);default:''" json:"-"`
	LastSeenAt   *time.Time `json:"last_seen_at,omitempty"` // presence + inactivity timeout
}

// SetPassword stores a bcrypt hash of the given plaintext.
func (u *User) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

// CheckPassword compares a plaintext candidate against the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// HasPrivilege reports whether the account holds the given privilege code.
func (u *User) HasPrivilege(code string) bool {
	for _, p := range u.Privileges {
		if p.Code == code {
			return true
		}
	}
	return false
}

// GetPrivilegeCodes flattens the account's privileges into their codes, the
// shape the JWT claims and the privilege middleware work with.
func (u *User) GetPrivilegeCodes() []string {
	codes := make([]string, len(u.Privileges))
	for i, p := range u.Privileges {
		codes[i] = p.Code
	}
	return codes
}

// UserResponse is the API shape of an account: everything except credentials
// and session state.
type UserResponse struct {
	ID            uuid.UUID   `json:"id"`
	Email         string      `json:"email"`
	FullName      string      `json:"full_name"`
	PhoneNumber   string      `json:"phone_number"`
	LicenseNumber string      `json:"license_number"`
	BirthDate     *time.Time  `json:"birth_date,omitempty"`
	RoleID        *uint       `json:"role_id,omitempty"`
	Role          *Role       `json:"role,omitempty"`
	IsActive      bool        `json:"is_active"`
	LastSeenAt    *time.Time  `json:"last_seen_at,omitempty"`
	Privileges    []Privilege `json:"privileges"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		FullName:      u.FullName,
		PhoneNumber:   u.PhoneNumber,
		LicenseNumber: u.LicenseNumber,
		BirthDate:     u.BirthDate,
		RoleID:        u.RoleID,
		Role:          u.Role,
		IsActive:      u.IsActive,
		LastSeenAt:    u.LastSeenAt,
		Privileges:    u.Privileges,
	}
}
