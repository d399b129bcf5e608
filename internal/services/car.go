package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/driveline-motors/apiserver/internal/store"
	"github.com/driveline-motors/apiserver/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// searchPreviewSize is how many of the newest listings an empty search
// query returns instead of the full catalog.
const searchPreviewSize = 3

// CarRepository defines persistence operations for catalog listings.
type CarRepository interface {
	List(ctx context.Context) ([]types.Car, error)
	Recent(ctx context.Context, n int) ([]types.Car, error)
	Search(ctx context.Context, q string) ([]types.Car, error)
	Get(ctx context.Context, id int) (types.Car, error)
	Create(ctx context.Context, car types.Car) (types.Car, error)
	Update(ctx context.Context, car types.Car) (types.Car, error)
	Delete(ctx context.Context, id int) error
}

// ImageStore uploads listing images to object storage and resolves their
// public URLs.
type ImageStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
	KeyFromURL(url string) (string, bool)
}

// ImageUpload is one image file received from a multipart form.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CarInput is the full field set required to create a listing.
type CarInput struct {
	Model            string
	Brand            string
	Type             string
	ManufactureYear  int
	Price            decimal.Decimal
	EngineCapacity   float64
	WheelDriveType   string
	EngineType       string
	TransmissionType string
	Condition        string
	Description      string
	Images           []string
}

// CarPatch is a partial field set for editing a listing. Nil fields are left
// untouched; fields outside this whitelist are dropped by JSON decoding
// rather than rejected.
type CarPatch struct {
	Model            *string          `json:"model"`
	Brand            *string          `json:"brand"`
	Type             *string          `json:"type"`
	ManufactureYear  *int             `json:"manufacture_year"`
	Price            *decimal.Decimal `json:"price"`
	EngineCapacity   *float64         `json:"engine_capacity"`
	WheelDriveType   *string          `json:"wheel_drive_type"`
	EngineType       *string          `json:"engine_type"`
	TransmissionType *string          `json:"transmission_type"`
	Condition        *string          `json:"condition"`
	Description      *string          `json:"description"`
}

// CarService encapsulates catalog use-cases.
type CarService struct {
	repo   CarRepository
	images ImageStore
}

func NewCarService(repo CarRepository, images ImageStore) *CarService {
	return &CarService{repo: repo, images: images}
}

func (s *CarService) List(ctx context.Context) ([]types.Car, error) {
	return s.repo.List(ctx)
}

func (s *CarService) Get(ctx context.Context, id int) (types.Car, error) {
	car, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Car{}, notFoundError("Car not found")
		}
		return types.Car{}, err
	}
	return car, nil
}

// Search performs a free-text, case-insensitive substring match across the
// catalog's descriptive fields. An empty query returns a preview of the
// newest listings, not the whole catalog.
func (s *CarService) Search(ctx context.Context, query string) ([]types.Car, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.repo.Recent(ctx, searchPreviewSize)
	}
	return s.repo.Search(ctx, query)
}

// AddNewCar validates and persists a new listing.
func (s *CarService) AddNewCar(ctx context.Context, input CarInput) (types.Car, error) {
	input.Condition = strings.ToLower(strings.TrimSpace(input.Condition))

	if err := validateCarFields(input); err != nil {
		return types.Car{}, err
	}

	return s.repo.Create(ctx, types.Car{
		Model:            strings.TrimSpace(input.Model),
		Brand:            strings.TrimSpace(input.Brand),
		Type:             strings.TrimSpace(input.Type),
		ManufactureYear:  input.ManufactureYear,
		Price:            input.Price,
		EngineCapacity:   input.EngineCapacity,
		WheelDriveType:   strings.TrimSpace(input.WheelDriveType),
		EngineType:       strings.TrimSpace(input.EngineType),
		TransmissionType: strings.TrimSpace(input.TransmissionType),
		Condition:        input.Condition,
		Description:      strings.TrimSpace(input.Description),
		Images:           input.Images,
	})
}

// EditCar merges a whitelisted partial field set into an existing listing.
// Every touched field is re-validated with the same rules as creation.
func (s *CarService) EditCar(ctx context.Context, id int, patch CarPatch) (types.Car, error) {
	car, err := s.Get(ctx, id)
	if err != nil {
		return types.Car{}, err
	}

	if patch.Model != nil {
		car.Model = strings.TrimSpace(*patch.Model)
	}
	if patch.Brand != nil {
		car.Brand = strings.TrimSpace(*patch.Brand)
	}
	if patch.Type != nil {
		car.Type = strings.TrimSpace(*patch.Type)
	}
	if patch.ManufactureYear != nil {
		car.ManufactureYear = *patch.ManufactureYear
	}
	if patch.Price != nil {
		car.Price = *patch.Price
	}
	if patch.EngineCapacity != nil {
		car.EngineCapacity = *patch.EngineCapacity
	}
	if patch.WheelDriveType != nil {
		car.WheelDriveType = strings.TrimSpace(*patch.WheelDriveType)
	}
	if patch.EngineType != nil {
		car.EngineType = strings.TrimSpace(*patch.EngineType)
	}
	if patch.TransmissionType != nil {
		car.TransmissionType = strings.TrimSpace(*patch.TransmissionType)
	}
	if patch.Condition != nil {
		car.Condition = strings.ToLower(strings.TrimSpace(*patch.Condition))
	}
	if patch.Description != nil {
		car.Description = strings.TrimSpace(*patch.Description)
	}

	if err := validateCarFields(CarInput{
		Model:            car.Model,
		Brand:            car.Brand,
		Type:             car.Type,
		ManufactureYear:  car.ManufactureYear,
		Price:            car.Price,
		EngineCapacity:   car.EngineCapacity,
		WheelDriveType:   car.WheelDriveType,
		EngineType:       car.EngineType,
		TransmissionType: car.TransmissionType,
		Condition:        car.Condition,
	}); err != nil {
		return types.Car{}, err
	}

	updated, err := s.repo.Update(ctx, car)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Car{}, notFoundError("Car not found")
		}
		return types.Car{}, err
	}
	return updated, nil
}

// RemoveCar deletes a listing and, best-effort, its stored images.
func (s *CarService) RemoveCar(ctx context.Context, id int) error {
	car, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFoundError("Car not found")
		}
		return err
	}

	if s.images != nil {
		for _, url := range car.Images {
			key, ok := s.images.KeyFromURL(url)
			if !ok {
				continue
			}
			if err := s.images.Delete(ctx, key); err != nil {
				log.Printf("failed to delete image %s: %v", key, err)
			}
		}
	}
	return nil
}

// UploadImages stores the given files under fresh object keys and returns
// their public URLs in input order.
func (s *CarService) UploadImages(ctx context.Context, uploads []ImageUpload) ([]string, error) {
	if s.images == nil {
		return nil, validationError("Image storage is not configured")
	}

	urls := make([]string, 0, len(uploads))
	for _, upload := range uploads {
		key := "cars/" + uuid.NewString() + strings.ToLower(filepath.Ext(upload.Filename))
		reader := bytes.NewReader(upload.Data)
		if err := s.images.Put(ctx, key, reader, int64(len(upload.Data)), upload.ContentType); err != nil {
			return nil, fmt.Errorf("upload image %s: %w", upload.Filename, err)
		}
		urls = append(urls, s.images.URL(key))
	}
	return urls, nil
}

func validateCarFields(input CarInput) error {
	if strings.TrimSpace(input.Model) == "" ||
		strings.TrimSpace(input.Brand) == "" ||
		strings.TrimSpace(input.Type) == "" ||
		strings.TrimSpace(input.WheelDriveType) == "" ||
		strings.TrimSpace(input.EngineType) == "" ||
		strings.TrimSpace(input.TransmissionType) == "" {
		return validationError("All fields must be filled")
	}

	if !input.Price.IsPositive() {
		return validationError("Price must be a positive number")
	}
	if input.EngineCapacity <= 0 {
		return validationError("Engine capacity must be a positive number")
	}

	currentYear := time.Now().Year()
	if input.ManufactureYear < types.MinManufactureYear || input.ManufactureYear > currentYear {
		return validationError(fmt.Sprintf(
			"Manufacture year must be a valid year between %d and %d",
			types.MinManufactureYear, currentYear))
	}

	if input.Condition != types.ConditionNew && input.Condition != types.ConditionUsed {
		return validationError("Condition must be either new or used")
	}
	return nil
}
