package dto

import (
	"hallbook/internal/domains/hall/model"
	"hallbook/shared"
	gDto "hallbook/shared/dto"
	gModel "hallbook/shared/model"
	"hallbook/shared/timezone"

	"github.com/google/uuid"
)

// Image is an uploaded picture read from a multipart form.
type Image struct {
	Filename string `json:"-"`
	Data     []byte `json:"-" validate:"mimetypes=image/png image/jpeg image/webp,maxfilesize=2"`
}

type CreateHallRequest struct {
	Name      string  `json:"name"      validate:"required,max=100"`
	Capacity  *int    `json:"capacity"  validate:"omitempty,min=0"`
	Location  string  `json:"location"  validate:"omitempty,max=200"`
	Amenities *string `json:"amenities" validate:"omitempty,max=2000"`
	Image     *Image  `json:"-"`
}

func (c *CreateHallRequest) ToModel(actor string, imageURL *string) model.Hall {
	capacity := model.DefaultCapacity
	if c.Capacity != nil {
		capacity = *c.Capacity
	}

	now := timezone.Now()

	return model.Hall{
		ID:        uuid.NewString(),
		Name:      c.Name,
		Capacity:  capacity,
		Location:  c.Location,
		Amenities: c.Amenities,
		Image:     imageURL,
		Metadata: gModel.Metadata{
			CreatedAt:  now,
			ModifiedAt: now,
			CreatedBy:  actor,
			ModifiedBy: actor,
		},
	}
}

type UpdateHallRequest struct {
	Name      string  `db:"name"      json:"name"      validate:"omitempty,max=100"`
	Capacity  *int    `db:"capacity"  json:"capacity"  validate:"omitempty,min=0"`
	Location  string  `db:"location"  json:"location"  validate:"omitempty,max=200"`
	Amenities *string `db:"amenities" json:"amenities" validate:"omitempty,max=2000"`
	Image     *Image  `json:"-"`
}

func (u *UpdateHallRequest) IsEmpty() bool {
	return u.Name == "" && u.Capacity == nil && u.Location == "" && u.Amenities == nil && u.Image == nil
}

type HallResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Capacity  int     `json:"capacity"`
	Location  string  `json:"location"`
	Amenities *string `json:"amenities,omitempty"`
	Image     *string `json:"image,omitempty"`
	gDto.Metadata
}

func (r *HallResponse) FromModel(model model.Hall) {
	r.ID = model.ID
	r.Name = model.Name
	r.Capacity = model.Capacity
	r.Location = model.Location
	r.Amenities = model.Amenities
	r.Image = model.Image
	r.Metadata.FromModel(model.Metadata)
}

type GetHallsResponse struct {
	Halls     []HallResponse `json:"halls"`
	TotalPage int            `json:"total_page"`
	TotalData int            `json:"total_data"`
}

func (r *GetHallsResponse) FromModels(models []model.Hall, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Halls = make([]HallResponse, len(models))
	for i, mod := range models {
		r.Halls[i].FromModel(mod)
	}
}
