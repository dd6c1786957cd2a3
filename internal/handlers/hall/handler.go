package hall

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"hallbook/infras/otel"
	"hallbook/internal/domains/hall/model"
	"hallbook/internal/domains/hall/model/dto"
	"hallbook/internal/domains/hall/service"
	"hallbook/shared"
	"hallbook/shared/constant"
	gDto "hallbook/shared/dto"
	"hallbook/shared/failure"
	"hallbook/shared/validator"
	"hallbook/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const formFieldImage = "image"

type Handler struct {
	service service.Hall
	otel    otel.Otel
}

func New(service service.Hall, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/halls", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateHall)
		routerGroup.Get("/", handler.GetHalls)
		routerGroup.Get("/{id}", handler.GetHallByID)
		routerGroup.Patch("/{id}", handler.UpdateHall)
		routerGroup.Delete("/{id}", handler.DeleteHall)
	})
}

// CreateHall handles the creation of a new hall.
// @Summary Create a new hall
// @Description Create a hall from a multipart form. The image part is optional. Admin only.
// @Tags Hall
// @Accept multipart/form-data
// @Produce json
// @Param name formData string true "Hall name"
// @Param capacity formData int false "Seating capacity, defaults to 10"
// @Param location formData string false "Location"
// @Param amenities formData string false "Amenities"
// @Param image formData file false "PNG, JPEG or WEBP picture up to 2 MB"
// @Success 201 {object} response.Data[dto.HallResponse] "Hall created successfully"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/halls [post]
// @Security BearerAuth
func (handler *Handler) CreateHall(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateHall")
	defer scope.End()

	form, err := readForm(r)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to read hall form")

		response.WithError(w, err)

		return
	}

	req := dto.CreateHallRequest{
		Name:      form.text(model.FieldName),
		Location:  form.text(model.FieldLocation),
		Amenities: form.optional(model.FieldAmenities),
		Image:     form.image,
	}

	if req.Capacity, err = form.number(model.FieldCapacity); err != nil {
		response.WithError(w, err)

		return
	}

	if err = validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	hall, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create hall")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Hall created successfully")

	response.WithJSON(w, http.StatusCreated, hall)
}

// GetHalls retrieves all halls based on query parameters.
// @Summary Get all halls
// @Description Retrieve halls with optional filtering and pagination.
// @Tags Hall
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param name query string false "Filter by name"
// @Param location query string false "Filter by location"
// @Success 200 {object} response.Data[dto.GetHallsResponse] "List of halls"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/halls [get]
// @Security BearerAuth
func (handler *Handler) GetHalls(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetHalls")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	if err := validator.ValidateSortBy(queryParams.SortBy, model.SortableFields); err != nil {
		response.WithError(w, err)

		return
	}

	query := r.URL.Query()

	filterGroup := gDto.FilterGroup{Operator: gDto.FilterGroupOperatorAnd}
	filterGroup.AddIfPresent(gDto.Filter{
		Field:    model.FieldName,
		Operator: gDto.FilterOperatorLike,
		Value:    query.Get(model.FieldName),
		Table:    model.TableName,
	})
	filterGroup.AddIfPresent(gDto.Filter{
		Field:    model.FieldLocation,
		Operator: gDto.FilterOperatorLike,
		Value:    query.Get(model.FieldLocation),
		Table:    model.TableName,
	})

	halls, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get halls")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Halls retrieved successfully")

	response.WithJSON(w, http.StatusOK, halls)
}

// GetHallByID retrieves a hall by its ID.
// @Summary Get a hall by ID
// @Tags Hall
// @Produce json
// @Param id path string true "Hall ID"
// @Success 200 {object} response.Data[dto.HallResponse] "Hall details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/halls/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetHallByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetHallByID")
	defer scope.End()

	hall, err := handler.service.Get(ctx, chi.URLParam(r, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get hall by ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Hall retrieved successfully")

	response.WithJSON(w, http.StatusOK, hall)
}

// UpdateHall updates an existing hall. Only the parts present in the form are
// changed; a new image replaces the stored one.
// @Summary Update a hall by ID
// @Tags Hall
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Hall ID"
// @Param name formData string false "Hall name"
// @Param capacity formData int false "Seating capacity"
// @Param location formData string false "Location"
// @Param amenities formData string false "Amenities"
// @Param image formData file false "PNG, JPEG or WEBP picture up to 2 MB"
// @Success 200 {object} response.Message "Hall updated successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/halls/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateHall(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateHall")
	defer scope.End()

	form, err := readForm(r)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to read hall form")

		response.WithError(w, err)

		return
	}

	req := dto.UpdateHallRequest{
		Name:      form.text(model.FieldName),
		Location:  form.text(model.FieldLocation),
		Amenities: form.optional(model.FieldAmenities),
		Image:     form.image,
	}

	if req.Capacity, err = form.number(model.FieldCapacity); err != nil {
		response.WithError(w, err)

		return
	}

	if err = validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err = handler.service.Update(ctx, req, chi.URLParam(r, constant.RequestParamID)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update hall")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Hall updated successfully")

	response.WithMessage(w, http.StatusOK, "Hall updated successfully")
}

// DeleteHall deletes a hall by its ID.
// @Summary Delete a hall by ID
// @Description Delete a hall and its bookings. Admin only.
// @Tags Hall
// @Produce json
// @Param id path string true "Hall ID"
// @Success 200 {object} response.Message "Hall deleted successfully"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/halls/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteHall(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteHall")
	defer scope.End()

	if err := handler.service.Delete(ctx, chi.URLParam(r, constant.RequestParamID)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete hall")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Hall deleted successfully")

	response.WithMessage(w, http.StatusOK, "Hall deleted successfully")
}

type hallForm struct {
	values map[string][]string
	image  *dto.Image
}

func readForm(r *http.Request) (form hallForm, err error) {
	if err = r.ParseMultipartForm(constant.RequestMaxMemory); err != nil {
		return form, failure.BadRequestFromString("request must be a multipart form")
	}

	form.values = r.MultipartForm.Value

	file, header, err := r.FormFile(formFieldImage)
	if errors.Is(err, http.ErrMissingFile) {
		return form, nil
	}

	if err != nil {
		return form, failure.BadRequest(fmt.Errorf("failed to read image: %w", err))
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, model.ImageMaxBytes+1))
	if err != nil {
		return form, failure.BadRequest(fmt.Errorf("failed to read image: %w", err))
	}

	form.image = &dto.Image{Filename: header.Filename, Data: data}

	return form, nil
}

func (f hallForm) text(key string) string {
	if values := f.values[key]; len(values) > 0 {
		return strings.TrimSpace(values[0])
	}

	return constant.Empty
}

// optional tells a missing part apart from one sent empty.
func (f hallForm) optional(key string) *string {
	values, ok := f.values[key]
	if !ok || len(values) == 0 {
		return nil
	}

	value := strings.TrimSpace(values[0])

	return &value
}

func (f hallForm) number(key string) (*int, error) {
	raw := f.text(key)
	if raw == constant.Empty {
		return nil, nil
	}

	value, err := shared.ConvertStringToInt(raw)
	if err != nil {
		return nil, failure.BadRequestFromString(key + " must be a whole number")
	}

	return &value, nil
}
