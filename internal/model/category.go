package model

import "strings"

const (
	DefaultCategoryColor = "#5B21B6"
	DefaultCategoryIcon  = "Folder"
)

type Category struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
	Order int64  `json:"order"`
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

type CategoryInput struct {
	Name  string
	Color string
	Icon  string
}

func (in CategoryInput) Normalize() CategoryInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Color = strings.TrimSpace(in.Color)
	in.Icon = strings.TrimSpace(in.Icon)
	if in.Color == "" {
		in.Color = DefaultCategoryColor
	}
	if in.Icon == "" {
		in.Icon = DefaultCategoryIcon
	}
	return in
}

func (in CategoryInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

type CategoryPatch struct {
	Name  *string
	Color *string
	Icon  *string
	Order *int64
}

func (p CategoryPatch) Validate() error {
	if p.Name == nil && p.Color == nil && p.Icon == nil && p.Order == nil {
		return ErrEmptyPatch
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (p CategoryPatch) Apply(c Category) Category {
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Color != nil {
		c.Color = strings.TrimSpace(*p.Color)
	}
	if p.Icon != nil {
		c.Icon = strings.TrimSpace(*p.Icon)
	}
	if p.Order != nil {
		c.Order = *p.Order
	}
	return c
}
