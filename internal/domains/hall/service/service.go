package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=Hall=MockHallService

import (
	"context"
	"fmt"

	"hallbook/config"
	"hallbook/infras/otel"
	"hallbook/infras/s3"
	"hallbook/internal/domains/hall/model"
	"hallbook/internal/domains/hall/model/dto"
	"hallbook/internal/domains/hall/repository"
	"hallbook/shared"
	"hallbook/shared/cache"
	"hallbook/shared/constant"
	gDto "hallbook/shared/dto"
	"hallbook/shared/failure"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	cacheGetHall    = "hall:get"
	cacheGetAllHall = "hall:gets"
	cacheCountHall  = "hall:count"

	msgHallNotFound  = "hall not found"
	msgHallNameTaken = "hall name already exists"
)

type Hall interface {
	Create(ctx context.Context, req dto.CreateHallRequest) (dto.HallResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetHallsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.HallResponse, error)
	Update(ctx context.Context, req dto.UpdateHallRequest, id string) error
	Delete(ctx context.Context, id string) error
}

type serviceImpl struct {
	repo    repository.Hall
	cfg     *config.Config
	cache   cache.RedisCache
	storage s3.S3
	otel    otel.Otel
}

func New(repo repository.Hall, cfg *config.Config, cache cache.RedisCache, storage s3.S3, otel otel.Otel) Hall {
	return &serviceImpl{
		repo:    repo,
		cfg:     cfg,
		cache:   cache,
		storage: storage,
		otel:    otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateHallRequest) (res dto.HallResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if err = s.ensureUniqueName(ctx, req.Name, constant.Empty); err != nil {
		return res, err
	}

	var imageURL *string

	if req.Image != nil {
		url, err := s.uploadImage(ctx, req.Image)
		if err != nil {
			return res, err
		}

		imageURL = &url
	}

	hall := req.ToModel(shared.UsernameFromContext(ctx), imageURL)

	if err = s.repo.Insert(ctx, hall); err != nil {
		s.discardImage(ctx, imageURL)

		if shared.IsPqError(err, constant.PqErrorCodeUniqueViolation) {
			return res, failure.Conflict(msgHallNameTaken)
		}

		log.Error().Err(err).Msg("failed to create hall")

		return res, fmt.Errorf("failed to create hall: %w", err)
	}

	res.FromModel(hall)

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllHall)
		shared.InvalidateCaches(c, s.cache, cacheCountHall)
	}()

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetHallsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllHall, req, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		log.Debug().Str("cacheKey", cacheKey).Msg("cache hit for halls")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		return res, err
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get halls")

		return res, fmt.Errorf("failed to get halls: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save halls to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountHall, req, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count halls")

		return res, fmt.Errorf("failed to count halls: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save hall count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.HallResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKey(cacheGetHall, id)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	hall, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to get hall")

		return res, fmt.Errorf("failed to get hall: %w", err)
	}

	if hall.ID == constant.Empty {
		return res, failure.NotFound(msgHallNotFound)
	}

	res.FromModel(hall)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save hall to cache")
		}
	}()

	return res, nil
}

// Update patches the non-empty fields of req. A new image replaces the stored
// one, which is removed from object storage once the row points elsewhere.
func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateHallRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if req.IsEmpty() {
		return failure.BadRequestFromString("update request cannot be empty")
	}

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	hall, err := s.repo.Get(ctx, filter, model.FieldID, model.FieldImage)
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to get hall")

		return fmt.Errorf("failed to get hall: %w", err)
	}

	if hall.ID == constant.Empty {
		return failure.NotFound(msgHallNotFound)
	}

	if req.Name != constant.Empty {
		if err = s.ensureUniqueName(ctx, req.Name, id); err != nil {
			return err
		}
	}

	updatedFields := shared.TransformFields(req, shared.UsernameFromContext(ctx))

	var imageURL *string

	if req.Image != nil {
		url, err := s.uploadImage(ctx, req.Image)
		if err != nil {
			return err
		}

		imageURL = &url
		updatedFields[model.FieldImage] = url
	}

	if err = s.repo.Update(ctx, updatedFields, filter); err != nil {
		s.discardImage(ctx, imageURL)

		if shared.IsPqError(err, constant.PqErrorCodeUniqueViolation) {
			return failure.Conflict(msgHallNameTaken)
		}

		log.Error().Err(err).Msg("failed to update hall")

		return fmt.Errorf("failed to update hall: %w", err)
	}

	if imageURL != nil {
		s.discardImage(ctx, hall.Image)
	}

	s.invalidate(context.WithoutCancel(ctx), id)

	return nil
}

// Delete removes the hall. Its bookings go with it through the foreign key.
func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	hall, err := s.repo.Get(ctx, filter, model.FieldID, model.FieldImage)
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to get hall")

		return fmt.Errorf("failed to get hall: %w", err)
	}

	if hall.ID == constant.Empty {
		return failure.NotFound(msgHallNotFound)
	}

	if err = s.repo.Delete(ctx, filter); err != nil {
		log.Error().Err(err).Msg("failed to delete hall")

		return fmt.Errorf("failed to delete hall: %w", err)
	}

	s.discardImage(ctx, hall.Image)

	s.invalidate(context.WithoutCancel(ctx), id)

	return nil
}

func (s *serviceImpl) ensureUniqueName(ctx context.Context, name, excludeID string) error {
	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldName,
				Operator: gDto.FilterOperatorEq,
				Value:    name,
				Table:    model.TableName,
			},
		},
	}

	if excludeID != constant.Empty {
		filter.Filters = append(filter.Filters, gDto.Filter{
			Field:    model.FieldID,
			Operator: gDto.FilterOperatorNotEq,
			Value:    excludeID,
			Table:    model.TableName,
		})
	}

	exists, err := s.repo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check hall name")

		return fmt.Errorf("failed to check hall name: %w", err)
	}

	if exists {
		return failure.Conflict(msgHallNameTaken)
	}

	return nil
}

// uploadImage stores the picture under a fresh name. The extension follows
// the sniffed content type, never the client file name.
func (s *serviceImpl) uploadImage(ctx context.Context, image *dto.Image) (string, error) {
	mime := mimetype.Detect(image.Data)

	ext, ok := model.ImageTypes[mime.String()]
	if !ok {
		return constant.Empty, failure.BadRequestFromString("image must be a png, jpeg or webp file")
	}

	url, err := s.storage.UploadFileBytes(ctx, constant.Empty, model.ImageDirectory, uuid.NewString()+ext, mime.String(), image.Data)
	if err != nil {
		return constant.Empty, fmt.Errorf("failed to upload hall image: %w", err)
	}

	return url, nil
}

func (s *serviceImpl) discardImage(ctx context.Context, url *string) {
	if url == nil || *url == constant.Empty {
		return
	}

	objectName := s.storage.GetObjectNameFromURL(constant.Empty, *url)
	if objectName == constant.Empty {
		log.Warn().Str("url", *url).Msg("hall image is not managed by object storage")

		return
	}

	if err := s.storage.DeleteFile(ctx, constant.Empty, constant.Empty, objectName); err != nil {
		log.Error().Err(err).Str("object", objectName).Msg("failed to delete hall image")
	}
}

func (s *serviceImpl) invalidate(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, shared.BuildCacheKey(cacheGetHall, id)); err != nil {
		log.Error().Err(err).Msg("failed to delete hall from cache")
	}

	shared.InvalidateCaches(ctx, s.cache, cacheGetAllHall)
	shared.InvalidateCaches(ctx, s.cache, cacheCountHall)
}
