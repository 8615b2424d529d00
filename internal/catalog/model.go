package catalog

import (
	"fmt"
	"strings"
)

// TemplateID selects the presentation variant of a rendered catalog.
type TemplateID string

const (
	TemplateMinimalist TemplateID = "minimalist"
	TemplateClassic    TemplateID = "classic"
	TemplateModern     TemplateID = "modern"
)

// Templates lists the supported variants in display order.
var Templates = []TemplateID{TemplateMinimalist, TemplateClassic, TemplateModern}

// ParseTemplateID accepts a variant name case-insensitively.
// An empty name yields the minimalist variant.
func ParseTemplateID(s string) (TemplateID, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return TemplateMinimalist, nil
	}
	for _, t := range Templates {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q (available: minimalist, classic, modern)", ErrInvalidTemplate, s)
}

// Product is one catalog entry as persisted.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category,omitempty"`
	Image       string  `json:"image,omitempty"`
	ImageID     string  `json:"imageId,omitempty"`
	Order       *int    `json:"order,omitempty"`
	Featured    bool    `json:"featured,omitempty"`
	Hidden      bool    `json:"hidden,omitempty"`
	Quantity    *int    `json:"quantity,omitempty"`
}

// StoreInfo is the merchant profile shown in the catalog header and footer.
type StoreInfo struct {
	Name              string     `json:"name"`
	WhatsApp          string     `json:"whatsapp"`
	Facebook          string     `json:"facebook"`
	Instagram         string     `json:"instagram"`
	Color             string     `json:"color"`
	Logo              string     `json:"logo,omitempty"`
	TemplateID        TemplateID `json:"templateId"`
	ShowQuantityInPDF bool       `json:"showQuantityInPdf"`
}

// DefaultColor is the brand color of a fresh store profile.
const DefaultColor = "#3b82f6"

// DefaultStoreInfo returns the profile used before anything is saved.
func DefaultStoreInfo() StoreInfo {
	return StoreInfo{Color: DefaultColor, TemplateID: TemplateMinimalist}
}

// Variant returns the store's template, falling back to minimalist for
// unknown or empty values.
func (s StoreInfo) Variant() TemplateID {
	t, err := ParseTemplateID(string(s.TemplateID))
	if err != nil {
		return TemplateMinimalist
	}
	return t
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
