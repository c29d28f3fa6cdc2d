package dto

import (
	"time"

	"github.com/humapedia/humapedia/internal/domain/model"
)

type ProfileResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Profession  string            `json:"profession,omitempty"`
	Company     string            `json:"company,omitempty"`
	Location    string            `json:"location,omitempty"`
	ImageURL    string            `json:"image_url,omitempty"`
	Bio         string            `json:"bio,omitempty"`
	Email       string            `json:"email,omitempty"`
	Phone       string            `json:"phone,omitempty"`
	Rating      float64           `json:"rating"`
	Views       int64             `json:"views"`
	SocialLinks map[string]string `json:"social_links,omitempty"`
	Skills      []string          `json:"skills,omitempty"`
	Experience  []ExperienceDTO   `json:"experience,omitempty"`
	Education   []EducationDTO    `json:"education,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type ExperienceDTO struct {
	Title    string `json:"title"`
	Company  string `json:"company"`
	Duration string `json:"duration"`
}

type EducationDTO struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
}

type ProfileUpdateRequest struct {
	Name        string            `json:"name"`
	Profession  string            `json:"profession"`
	Company     string            `json:"company"`
	Location    string            `json:"location"`
	ImageURL    string            `json:"image_url"`
	Bio         string            `json:"bio"`
	Email       string            `json:"email"`
	Phone       string            `json:"phone"`
	SocialLinks map[string]string `json:"social_links"`
	Skills      []string          `json:"skills"`
	Experience  []ExperienceDTO   `json:"experience"`
	Education   []EducationDTO    `json:"education"`
}

func ProfileFromModel(p model.Profile) ProfileResponse {
	resp := ProfileResponse{
		ID:          p.ID,
		Name:        p.Name,
		Profession:  p.Profession,
		Company:     p.Company,
		Location:    p.Location,
		ImageURL:    p.ImageURL,
		Bio:         p.Bio,
		Email:       p.Email,
		Phone:       p.Phone,
		Rating:      p.Rating,
		Views:       p.Views,
		SocialLinks: p.SocialLinks,
		Skills:      p.Skills,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	for _, e := range p.Experience {
		resp.Experience = append(resp.Experience, ExperienceDTO(e))
	}
	for _, e := range p.Education {
		resp.Education = append(resp.Education, EducationDTO(e))
	}
	return resp
}

func (r ProfileUpdateRequest) ToModel(id string) model.Profile {
	p := model.Profile{
		ID:          id,
		Name:        r.Name,
		Profession:  r.Profession,
		Company:     r.Company,
		Location:    r.Location,
		ImageURL:    r.ImageURL,
		Bio:         r.Bio,
		Email:       r.Email,
		Phone:       r.Phone,
		SocialLinks: r.SocialLinks,
		Skills:      r.Skills,
	}
	for _, e := range r.Experience {
		p.Experience = append(p.Experience, model.Experience(e))
	}
	for _, e := range r.Education {
		p.Education = append(p.Education, model.Education(e))
	}
	return p
}
