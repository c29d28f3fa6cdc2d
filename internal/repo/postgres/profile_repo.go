package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/humapedia/humapedia/internal/domain/model"
)

var ErrProfileNotFound = errors.New("profile not found")

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

const profileColumns = `
id, name, profession, company, location, image_url, bio, email, phone,
rating, views, social_links, skills, experience, education, created_at, updated_at`

func (r *ProfileRepo) List(ctx context.Context) ([]model.Profile, error) {
	if r.pool == nil {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT`+profileColumns+`
FROM profiles
ORDER BY id
`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}

	return profiles, nil
}

func (r *ProfileRepo) GetByID(ctx context.Context, id string) (model.Profile, error) {
	if r.pool == nil {
		return model.Profile{}, ErrProfileNotFound
	}
	if strings.TrimSpace(id) == "" {
		return model.Profile{}, fmt.Errorf("profile id is required")
	}

	profile, err := scanProfile(r.pool.QueryRow(ctx, `
SELECT`+profileColumns+`
FROM profiles
WHERE id = $1
LIMIT 1
`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("get profile by id: %w", err)
	}

	return profile, nil
}

// GetByIDCountingView returns the profile with the view already counted.
// The bump and the read are one statement, so the returned row carries
// the new count and concurrent reads never lose a view.
func (r *ProfileRepo) GetByIDCountingView(ctx context.Context, id string) (model.Profile, error) {
	if r.pool == nil {
		return model.Profile{}, ErrProfileNotFound
	}
	if strings.TrimSpace(id) == "" {
		return model.Profile{}, fmt.Errorf("profile id is required")
	}

	profile, err := scanProfile(r.pool.QueryRow(ctx, `
UPDATE profiles
SET views = views + 1
WHERE id = $1
RETURNING`+profileColumns+`
`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("get profile counting view: %w", err)
	}

	return profile, nil
}

func (r *ProfileRepo) Update(ctx context.Context, profile model.Profile) (model.Profile, error) {
	if r.pool == nil {
		return model.Profile{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(profile.ID) == "" {
		return model.Profile{}, fmt.Errorf("profile id is required")
	}

	socialLinks, err := marshalJSON(profile.SocialLinks)
	if err != nil {
		return model.Profile{}, err
	}
	experience, err := marshalJSON(profile.Experience)
	if err != nil {
		return model.Profile{}, err
	}
	education, err := marshalJSON(profile.Education)
	if err != nil {
		return model.Profile{}, err
	}

	updated, err := scanProfile(r.pool.QueryRow(ctx, `
UPDATE profiles
SET
	name = $2,
	profession = $3,
	company = $4,
	location = $5,
	image_url = $6,
	bio = $7,
	email = $8,
	phone = $9,
	social_links = $10::jsonb,
	skills = $11,
	experience = $12::jsonb,
	education = $13::jsonb,
	updated_at = NOW()
WHERE id = $1
RETURNING`+profileColumns+`
`, profile.ID,
		profile.Name,
		profile.Profession,
		profile.Company,
		profile.Location,
		profile.ImageURL,
		profile.Bio,
		profile.Email,
		profile.Phone,
		socialLinks,
		profile.Skills,
		experience,
		education,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("update profile: %w", err)
	}

	return updated, nil
}

func (r *ProfileRepo) Delete(ctx context.Context, id string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrProfileNotFound
	}

	return nil
}

func scanProfile(row pgx.Row) (model.Profile, error) {
	var (
		profile       model.Profile
		rawSocial     []byte
		rawExperience []byte
		rawEducation  []byte
	)

	err := row.Scan(
		&profile.ID,
		&profile.Name,
		&profile.Profession,
		&profile.Company,
		&profile.Location,
		&profile.ImageURL,
		&profile.Bio,
		&profile.Email,
		&profile.Phone,
		&profile.Rating,
		&profile.Views,
		&rawSocial,
		&profile.Skills,
		&rawExperience,
		&rawEducation,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return model.Profile{}, err
	}

	if err := unmarshalJSON(rawSocial, &profile.SocialLinks); err != nil {
		return model.Profile{}, fmt.Errorf("decode profile social links: %w", err)
	}
	if err := unmarshalJSON(rawExperience, &profile.Experience); err != nil {
		return model.Profile{}, fmt.Errorf("decode profile experience: %w", err)
	}
	if err := unmarshalJSON(rawEducation, &profile.Education); err != nil {
		return model.Profile{}, fmt.Errorf("decode profile education: %w", err)
	}

	return profile, nil
}

func marshalJSON(value any) ([]byte, error) {
	if value == nil {
		return []byte("null"), nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal json column: %w", err)
	}
	return data, nil
}

func unmarshalJSON(data []byte, target any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, target)
}
