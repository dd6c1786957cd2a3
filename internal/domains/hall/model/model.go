package model

import "hallbook/shared/model"

const (
	TableName  = "halls"
	EntityName = "hall"

	FieldID        = "id"
	FieldName      = "name"
	FieldCapacity  = "capacity"
	FieldLocation  = "location"
	FieldAmenities = "amenities"
	FieldImage     = "image"

	SortableFields = "created_at name capacity location"

	DefaultCapacity = 10

	// ImageDirectory is the object storage prefix for hall pictures.
	ImageDirectory = "halls"
)

type Hall struct {
	ID        string  `db:"id"`
	Name      string  `db:"name"`
	Capacity  int     `db:"capacity"`
	Location  string  `db:"location"`
	Amenities *string `db:"amenities"`
	Image     *string `db:"image"`
	model.Metadata
}

// ImageMaxBytes bounds an uploaded hall picture. Keep in sync with the
// maxfilesize rule on dto.Image.
const ImageMaxBytes = 2 << 20

// ImageTypes maps accepted picture types to the extension they are stored with.
var ImageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}
