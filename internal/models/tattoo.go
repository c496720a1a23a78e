package models

import "time"

// Tattoo is a design the user chose to keep in their library.
type Tattoo struct {
	ID        int64     `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	Prompt    string    `json:"prompt" db:"prompt"`
	ImageURL  string    `json:"imageUrl" db:"image_url"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ShowcaseImage is a curated image shown on the landing page.
type ShowcaseImage struct {
	ID       int64   `json:"id" db:"id"`
	ImageURL string  `json:"image_url" db:"image_url"`
	Prompt   *string `json:"prompt,omitempty" db:"prompt"`
	Type     *string `json:"type,omitempty" db:"type"`
}

// Showcase groups every landing page collection.
type Showcase struct {
	Examples []ShowcaseImage `json:"examples"`
	TryOn    []ShowcaseImage `json:"tryon"`
	Hero     HeroImages      `json:"hero"`
}

type HeroImages struct {
	Flash     *string `json:"flash"`
	Realistic *string `json:"realistic"`
}
