package models

import (
	"github.com/lib/pq"
)

type Category struct {
	JsonModel
	Name string `gorm:"unique" json:"name"` // e.g. Jacket, Shirt, Pants, Shoes, Belt, Watch
}

type WardrobeItem struct {
	JsonModel
	Name       string      `json:"name"`
	Owner      UserAccount `json:"-"`
	OwnerID    uint        `json:"-"`
	CategoryID uint        `json:"-"`
	Category   Category    `json:"category"`
	Brand      *string     `json:"brand"`
	Material   *string     `json:"material"`
	Color      *string     `json:"color"`
	// 1..10, nil means "not rated yet"
	FormalityScore *int           `json:"formality_score"`
	Seasons        pq.StringArray `gorm:"type:text[]" json:"seasons"` // subset of Spring, Summer, Fall, Winter
	Status         string         `json:"status"`                     // temporary, in_closet
	ImageURL       *string        `json:"image_url"`
}

type CreateWardrobeItemIn struct {
	Name           string   `json:"name" validate:"required,max=100"`
	CategoryName   string   `json:"category" validate:"required,max=60"`
	Brand          *string  `json:"brand" validate:"omitempty,max=100"`
	Material       *string  `json:"material" validate:"omitempty,max=100"`
	Color          *string  `json:"color" validate:"omitempty,max=40"`
	FormalityScore *int     `json:"formality_score" validate:"omitempty,min=1,max=10"`
	Seasons        []string `json:"seasons" validate:"omitempty,dive,season"`
	FileName       *string  `json:"file_name" validate:"omitempty,max=200"`
}

type WardrobeItemOut struct {
	ID             uint     `json:"id"`
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	Brand          *string  `json:"brand"`
	Material       *string  `json:"material"`
	Color          *string  `json:"color"`
	FormalityScore *int     `json:"formality_score"`
	Seasons        []string `json:"seasons"`
	Status         string   `json:"status"`
	Uri            *string  `json:"uri,omitempty"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
}

type WardrobeItemCreatedOut struct {
	Item          WardrobeItemOut `json:"item"`
	FileUploadUrl string          `json:"file_upload_url,omitempty"`
}
