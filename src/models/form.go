package models

import (
	"time"
)

// FormType กำหนดว่า submission ต้องส่ง field อะไรบ้าง
type FormType string

const (
	FormTypeRating     FormType = "rating"
	FormTypeFreeText   FormType = "free_text"
	FormTypeRatingText FormType = "rating_text"
)

// FormTypes lists every recognized form type.
var FormTypes = []FormType{FormTypeRating, FormTypeFreeText, FormTypeRatingText}

// Valid reports whether t is one of the recognized form types.
func (t FormType) Valid() bool {
	for _, known := range FormTypes {
		if t == known {
			return true
		}
	}
	return false
}

// WantsRating reports whether submissions against this type must carry a rating.
func (t FormType) WantsRating() bool {
	return t == FormTypeRating || t == FormTypeRatingText
}

// WantsMessage reports whether submissions against this type must carry a message.
func (t FormType) WantsMessage() bool {
	return t == FormTypeFreeText || t == FormTypeRatingText
}

// --- Form ---
type Form struct {
	ID          string    `bson:"_id" json:"id"`
	PackageName string    `bson:"package_name" json:"package_name"`
	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description" json:"description"`
	FormType    FormType  `bson:"form_type" json:"form_type"`
	IsActive    bool      `bson:"is_active" json:"is_active"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// CreateFormRequest คือ body ของ POST /admin/forms
type CreateFormRequest struct {
	PackageName string   `json:"package_name" validate:"required" example:"com.example.app"`
	Title       string   `json:"title" validate:"required" example:"How satisfied are you with our app?"`
	Description string   `json:"description" example:"Shown after the third session"`
	FormType    FormType `json:"form_type" validate:"required,oneof=rating free_text rating_text" example:"rating"`
	IsActive    *bool    `json:"is_active,omitempty" example:"true"`
}

// ActivateFormRequest คือ body ของ PUT /forms/:form_id/activate
type ActivateFormRequest struct {
	IsActive *bool `json:"is_active" example:"true"`
}

// ActivateFormResult is returned after a successful activation toggle.
type ActivateFormResult struct {
	Message               string    `json:"message"`
	ID                    string    `json:"id"`
	IsActive              bool      `json:"is_active"`
	UpdatedAt             time.Time `json:"updated_at"`
	DeactivatedFormsCount int64     `json:"deactivated_forms_count"`
}

// FormSearchParams รวม filter ที่ใช้ค้นหา form (ทุกตัวเป็น optional)
type FormSearchParams struct {
	PackageName string
	Title       string
	FormType    FormType
	Active      *bool
}
