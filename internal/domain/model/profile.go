package model

import "time"

type Profile struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Profession  string            `json:"profession"`
	Company     string            `json:"company"`
	Location    string            `json:"location"`
	ImageURL    string            `json:"image_url"`
	Bio         string            `json:"bio"`
	Email       string            `json:"email"`
	Phone       string            `json:"phone"`
	Rating      float64           `json:"rating"`
	Views       int64             `json:"views"`
	SocialLinks map[string]string `json:"social_links"`
	Skills      []string          `json:"skills"`
	Experience  []Experience      `json:"experience"`
	Education   []Education       `json:"education"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type Experience struct {
	Title    string `json:"title"`
	Company  string `json:"company"`
	Duration string `json:"duration"`
}

type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
}
