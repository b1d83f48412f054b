package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"carspace-backend/internal/config"
	"carspace-backend/internal/dto"
	"carspace-backend/internal/middleware"
	"carspace-backend/internal/models"
	"carspace-backend/internal/storage"
	"carspace-backend/internal/store"
	"carspace-backend/internal/utils"
)

// maxMultipartMemory bounds the in-memory portion of multipart parsing;
// larger uploads spill to temp files.
const maxMultipartMemory = 32 << 20

// CarsHandler manages car listing endpoints. Listing and detail reads are
// public; create, update, and delete require an authenticated owner.
type CarsHandler struct {
	cars     store.CarStore
	uploader storage.ImageUploader
	config   *config.Config
}

// NewCarsHandler creates a new CarsHandler
func NewCarsHandler(cars store.CarStore, uploader storage.ImageUploader, cfg *config.Config) *CarsHandler {
	return &CarsHandler{cars: cars, uploader: uploader, config: cfg}
}

// Cars dispatches by HTTP method for /api/cars
func (h *CarsHandler) Cars(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		middleware.AuthMiddleware(h.CreateCar, &h.config.JWT)(w, r)
	case http.MethodGet:
		h.ListCars(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// CarByID dispatches by HTTP method for /api/cars/{id}
func (h *CarsHandler) CarByID(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.CarDetail(w, r)
	case http.MethodPatch, http.MethodPut:
		middleware.AuthMiddleware(h.UpdateCar, &h.config.JWT)(w, r)
	case http.MethodDelete:
		middleware.AuthMiddleware(h.DeleteCar, &h.config.JWT)(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func toCarResponse(car *models.Car) dto.CarResponse {
	return dto.CarResponse{
		ID:          car.ID.String(),
		UserID:      car.UserID.String(),
		Username:    car.Username,
		Title:       car.Title,
		Description: car.Description,
		Tags:        car.Tags,
		Images:      car.Images,
		CreatedAt:   car.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   car.UpdatedAt.Format(time.RFC3339),
	}
}

// splitTags turns the comma-delimited tags form value into a sequence.
// Order and duplicates are preserved.
func splitTags(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// uploadImages streams every submitted file to the image store and returns
// the resulting URLs. Any failure aborts the whole batch so the enclosing
// create/update never persists a record with missing images.
func (h *CarsHandler) uploadImages(ctx context.Context, files []*multipart.FileHeader) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %q: %w", fh.Filename, err)
		}

		contentType := fh.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		url, err := h.uploader.Upload(ctx, fh.Filename, contentType, f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("upload %q: %w", fh.Filename, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func carIDFromPath(path string) (uuid.UUID, bool) {
	raw := strings.TrimPrefix(path, "/api/cars/")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// CreateCar handles POST /api/cars
// @Summary Create a car listing
// @Description Create a car listing with title, description, comma-delimited tags, and up to 10 images
// @Tags cars
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param tags formData string false "Comma-delimited tags"
// @Param images formData file false "Images (up to 10)"
// @Success 201 {object} dto.CarResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/cars [post]
func (h *CarsHandler) CreateCar(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	username, ok2 := utils.GetUsernameFromContext(r.Context())
	if !ok || !ok2 {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Invalid user context")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "multipart form data required")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" || description == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "title and description are required")
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) > models.MaxImagesPerCar {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error",
			fmt.Sprintf("at most %d images are allowed", models.MaxImagesPerCar))
		return
	}

	// Upload before insert: a storage failure must abort the create rather
	// than leave a record with missing images.
	images, err := h.uploadImages(r.Context(), files)
	if err != nil {
		log.Printf("create car: user %s: %v", userID, err)
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Server error", "Image upload failed")
		return
	}

	now := time.Now()
	car := &models.Car{
		ID:          uuid.New(),
		UserID:      userID,
		Username:    username,
		Title:       title,
		Description: description,
		Tags:        splitTags(r.FormValue("tags")),
		Images:      images,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.cars.Insert(r.Context(), car); err != nil {
		log.Printf("create car: insert for user %s: %v", userID, err)
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Server error", "Failed to create car")
		return
	}

	utils.WriteJSONResponse(w, http.StatusCreated, toCarResponse(car))
}

// ListCars handles GET /api/cars
// @Summary List car listings
// @Description List all car listings; publicly readable
// @Tags cars
// @Produce json
// @Success 200 {array} dto.CarResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/cars [get]
func (h *CarsHandler) ListCars(w http.ResponseWriter, r *http.Request) {
	cars, err := h.cars.ListAll(r.Context())
	if err != nil {
		log.Printf("list cars: %v", err)
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Server error", "Failed to list cars")
		return
	}

	responses := make([]dto.CarResponse, 0, len(cars))
	for i := range cars {
		responses = append(responses, toCarResponse(&cars[i]))
	}

	utils.WriteJSONResponse(w, http.StatusOK, responses)
}

// CarDetail handles GET /api/cars/{id}
// @Summary Get a car listing
// @Description Get one car listing by id; publicly readable
// @Tags cars
// @Produce json
// @Param id path string true "Car ID"
// @Success 200 {object} dto.CarResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/cars/{id} [get]
func (h *CarsHandler) CarDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := carIDFromPath(r.URL.Path)
	if !ok {
		utils.WriteErrorResponse(w, http.StatusNotFound, "Not found", "Car not found")
		return
	}

	car, err := h.cars.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.WriteErrorResponse(w, http.StatusNotFound, "Not found", "Car not found")
			return
		}
		log.Printf("car detail %s: %v", id, err)
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Server error", "Failed to load car")
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, toCarResponse(car))
}

// UpdateCar handles PATCH /api/cars/{id}
// @Summary Update a car listing
// @Description Partially update an owned car listing; only submitted fields change, images are replaced only when new files are sent
// @Tags cars
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path string true "Car ID"
// @Param title formData string false "Title"
// @Param description formData string false "Description"
// @Param tags formData string false "Comma-delimited tags"
// @Param images formData file false "Replacement images (up to 10)"
// @Success 200 {object} dto.CarResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Absent or owned by another user"
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/cars/{id} [patch]
func (h *CarsHandler) UpdateCar(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Invalid user context")
		return
	}

	id, ok := carIDFromPath(r.URL.Path)
	if !ok {
		utils.WriteErrorResponse(w, http.StatusNotFound, "Not found", "Car not found")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "multipart form data required")
		return
	}

	var patch store.CarPatch
	if values, present := r.MultipartForm.Value["title"]; present {
		title := strings.TrimSpace(values[0])
		if title == "" {
			utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "title must not be empty")
			return
		}
		patch.Title = &title
	}
	if values, present := r.MultipartForm.Value["description"]; present {
		description := strings.TrimSpace(values[0])
		if description == "" {
			utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "description must not be empty")
			return
		}
		patch.Description = &description
	}
	if values, present := r.MultipartForm.Value["tags"]; present {
		patch.Tags = splitTags(values[0])
	}

	files := r.MultipartForm.File["images"]
	if len(files) > models.MaxImagesPerCar {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error",
			fmt.Sprintf("at most %d images are allowed", models.MaxImagesPerCar))
		return
	}
	if len(files) > 0 {
		images, err := h.uploadImages(r.Context(), files)
		if err != nil {
			log.Printf("update car %s: user %s: %v", id, userID, err)
			utils.WriteErrorResponse(w, http.StatusInternalServerError, "Server error", "Image upload failed")
			return
		}
		patch.Images = images
	}

	car, err := h.cars.UpdateOwned(r.Context(), id, userID, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.WriteErrorResponse(w, http.StatusNotFound, "Not found", "Car not found")
			return
		}
		log.Printf("update car %s: user %s: %v", id, userID, err)
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Server error", "Failed to update car")
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, toCarResponse(car))
}

// DeleteCar handles DELETE /api/cars/{id}
// @Summary Delete a car listing
// @Description Delete an owned car listing
// @Tags cars
// @Security BearerAuth
// @Param id path string true "Car ID"
// @Success 204 "Deleted"
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Absent or owned by another user"
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/cars/{id} [delete]
func (h *CarsHandler) DeleteCar(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Invalid user context")
		return
	}

	id, ok := carIDFromPath(r.URL.Path)
	if !ok {
		utils.WriteErrorResponse(w, http.StatusNotFound, "Not found", "Car not found")
		return
	}

	if err := h.cars.DeleteOwned(r.Context(), id, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.WriteErrorResponse(w, http.StatusNotFound, "Not found", "Car not found")
			return
		}
		log.Printf("delete car %s: user %s: %v", id, userID, err)
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Server error", "Failed to delete car")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
