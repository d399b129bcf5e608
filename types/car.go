package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Car condition values. Conditions are normalized to lowercase before
// persistence.
const (
	ConditionNew  = "new"
	ConditionUsed = "used"
)

// MinManufactureYear is the oldest manufacture year accepted for a listing.
const MinManufactureYear = 1900

// Car represents a vehicle listing in the dealership catalog.
type Car struct {
	// ID is the unique identifier of the listing.
	ID int `json:"id" db:"id"`

	// Model is the manufacturer's model name (e.g. "Corolla").
	Model string `json:"model" db:"model"`

	// Brand is the manufacturer name (e.g. "Toyota").
	Brand string `json:"brand" db:"brand"`

	// Type is the body type of the vehicle (e.g. "sedan", "suv").
	Type string `json:"type" db:"type"`

	// ManufactureYear is the calendar year the vehicle was built.
	// Bounded by [MinManufactureYear, current year].
	ManufactureYear int `json:"manufacture_year" db:"manufacture_year"`

	// Price is the listing price. Strictly positive.
	Price decimal.Decimal `json:"price" db:"price"`

	// EngineCapacity is the engine displacement in liters. Strictly positive.
	EngineCapacity float64 `json:"engine_capacity" db:"engine_capacity"`

	// WheelDriveType describes the drivetrain (e.g. "fwd", "awd").
	WheelDriveType string `json:"wheel_drive_type" db:"wheel_drive_type"`

	// EngineType describes the engine (e.g. "petrol", "diesel", "electric").
	EngineType string `json:"engine_type" db:"engine_type"`

	// TransmissionType describes the gearbox (e.g. "manual", "automatic").
	TransmissionType string `json:"transmission_type" db:"transmission_type"`

	// Condition is either "new" or "used".
	Condition string `json:"condition" db:"condition"`

	// Description is the free-form listing text.
	Description string `json:"description" db:"description"`

	// Images is the ordered list of externally hosted image URLs for the
	// listing. Populated by the upload flow; at most five per listing.
	Images []string `json:"images" db:"images"`

	// CreatedAt is the timestamp at which the listing was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the listing.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
