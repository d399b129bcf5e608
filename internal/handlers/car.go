package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/driveline-motors/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// Multipart form fields for creating a listing.
const (
	formFieldModel            = "model"
	formFieldBrand            = "brand"
	formFieldType             = "type"
	formFieldManufactureYear  = "manufacture_year"
	formFieldPrice            = "price"
	formFieldEngineCapacity   = "engine_capacity"
	formFieldWheelDriveType   = "wheel_drive_type"
	formFieldEngineType       = "engine_type"
	formFieldTransmissionType = "transmission_type"
	formFieldCondition        = "condition"
	formFieldDescription      = "description"
	formFieldImages           = "images"
)

const (
	maxCarFormMemory = 32 << 20 // 32 MiB
	maxImageSize     = 5 << 20  // 5 MiB per file
	maxImageCount    = 5
)

// CarHandler serves the public catalog and its admin management endpoints.
type CarHandler struct {
	carService  *services.CarService
	userService *services.UserService
	jwtSecret   string
}

func NewCarHandler(carService *services.CarService, userService *services.UserService, jwtSecret string) *CarHandler {
	return &CarHandler{carService: carService, userService: userService, jwtSecret: jwtSecret}
}

// CarRouter mounts the catalog endpoints. Reads are public; writes require
// an admin account.
func (h *CarHandler) CarRouter() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Get("/search", h.search)
	r.Get("/{carID}", h.get)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(h.jwtSecret))
		r.Use(RequireAdmin(h.userService))
		r.Post("/", h.create)
		r.Patch("/{carID}", h.edit)
		r.Delete("/{carID}", h.remove)
	})
	return r
}

func (h *CarHandler) list(w http.ResponseWriter, r *http.Request) {
	cars, err := h.carService.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cars)
}

func (h *CarHandler) search(w http.ResponseWriter, r *http.Request) {
	cars, err := h.carService.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cars)
}

func (h *CarHandler) get(w http.ResponseWriter, r *http.Request) {
	carID, err := parseIDParam(r, "carID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid car id")
		return
	}

	car, err := h.carService.Get(r.Context(), carID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, car)
}

func (h *CarHandler) create(w http.ResponseWriter, r *http.Request) {
	input, uploads, err := parseCarForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if len(uploads) > 0 {
		urls, err := h.carService.UploadImages(r.Context(), uploads)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		input.Images = urls
	}

	car, err := h.carService.AddNewCar(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, car)
}

func (h *CarHandler) edit(w http.ResponseWriter, r *http.Request) {
	carID, err := parseIDParam(r, "carID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid car id")
		return
	}

	var patch services.CarPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	car, err := h.carService.EditCar(r.Context(), carID, patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, car)
}

func (h *CarHandler) remove(w http.ResponseWriter, r *http.Request) {
	carID, err := parseIDParam(r, "carID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid car id")
		return
	}

	if err := h.carService.RemoveCar(r.Context(), carID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Car deleted"})
}

func parseCarForm(r *http.Request) (services.CarInput, []services.ImageUpload, error) {
	if err := r.ParseMultipartForm(maxCarFormMemory); err != nil {
		return services.CarInput{}, nil, fmt.Errorf("invalid multipart form: %w", err)
	}

	year, err := strconv.Atoi(r.FormValue(formFieldManufactureYear))
	if err != nil {
		return services.CarInput{}, nil, fmt.Errorf("invalid %s", formFieldManufactureYear)
	}
	price, err := decimal.NewFromString(r.FormValue(formFieldPrice))
	if err != nil {
		return services.CarInput{}, nil, fmt.Errorf("invalid %s", formFieldPrice)
	}
	engineCapacity, err := strconv.ParseFloat(r.FormValue(formFieldEngineCapacity), 64)
	if err != nil {
		return services.CarInput{}, nil, fmt.Errorf("invalid %s", formFieldEngineCapacity)
	}

	input := services.CarInput{
		Model:            r.FormValue(formFieldModel),
		Brand:            r.FormValue(formFieldBrand),
		Type:             r.FormValue(formFieldType),
		ManufactureYear:  year,
		Price:            price,
		EngineCapacity:   engineCapacity,
		WheelDriveType:   r.FormValue(formFieldWheelDriveType),
		EngineType:       r.FormValue(formFieldEngineType),
		TransmissionType: r.FormValue(formFieldTransmissionType),
		Condition:        r.FormValue(formFieldCondition),
		Description:      r.FormValue(formFieldDescription),
	}

	files := r.MultipartForm.File[formFieldImages]
	if len(files) > maxImageCount {
		return services.CarInput{}, nil, fmt.Errorf("at most %d images are allowed", maxImageCount)
	}

	uploads := make([]services.ImageUpload, 0, len(files))
	for _, header := range files {
		data, err := readFileLimited(header, maxImageSize)
		if err != nil {
			return services.CarInput{}, nil, err
		}
		uploads = append(uploads, services.ImageUpload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	return input, uploads, nil
}

func readFileLimited(header *multipart.FileHeader, limit int64) ([]byte, error) {
	if header.Size > limit {
		return nil, fmt.Errorf("file %s exceeds the %d byte limit", header.Filename, limit)
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded file %s: %w", header.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read uploaded file %s: %w", header.Filename, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("file %s exceeds the %d byte limit", header.Filename, limit)
	}
	return data, nil
}
