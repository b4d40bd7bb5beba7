package rest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/alldopamine/catalog"
	"github.com/alldopamine/catalog/internal/domain"
	"github.com/alldopamine/catalog/internal/service"
	"github.com/alldopamine/catalog/internal/usecase"
)

// maxBatch bounds the records accepted by one batch request.
const maxBatch = 500

type Handler struct {
	ingest      *usecase.IngestUsecase
	source      *usecase.SourceUsecase
	integration *usecase.IntegrationUsecase
	config      *usecase.ConfigUsecase
	mapping     *usecase.MappingUsecase
	maintenance *usecase.MaintenanceUsecase
	auth        *service.AuthService
}

func NewHandler(
	ingest *usecase.IngestUsecase,
	source *usecase.SourceUsecase,
	integration *usecase.IntegrationUsecase,
	config *usecase.ConfigUsecase,
	mapping *usecase.MappingUsecase,
	maintenance *usecase.MaintenanceUsecase,
	auth *service.AuthService,
) *Handler {
	return &Handler{
		ingest:      ingest,
		source:      source,
		integration: integration,
		config:      config,
		mapping:     mapping,
		maintenance: maintenance,
		auth:        auth,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	admin := AdminOnly(h.auth)
	api := e.Group("/api/v1")

	api.GET("/health", h.handleHealth)

	api.POST("/ingest", h.handleIngest, admin)
	api.POST("/ingest/batch", h.handleIngestBatch, admin)
	api.POST("/sources", h.handleStage, admin)
	api.POST("/integrate", h.handleIntegrate, admin)
	api.POST("/integrate/manual", h.handleIntegrateManual, admin)

	api.GET("/configs", h.handleListConfigs)
	api.GET("/configs/:id", h.handleGetConfig)
	api.POST("/configs", h.handleCreateConfig, admin)
	api.PUT("/configs/:id", h.handleUpdateConfig, admin)
	api.DELETE("/configs/:id", h.handleDeleteConfig, admin)

	api.GET("/works/:id/mapping", h.handleGetMapping)
	api.GET("/works/:id/platforms/:platform", h.handleHasPlatform)
	api.PUT("/works/:id/platforms/:platform", h.handleLink, admin)
	api.DELETE("/works/:id/platforms/:platform", h.handleUnlink, admin)

	api.GET("/mappings/:domain/multi", h.handleMultiPlatform)
	api.GET("/mappings/:domain/:platform", h.handlePlatformWorks)
	api.GET("/mappings/:domain/:platform/:platformId", h.handleFindByPlatformID)

	api.GET("/status/:domain", h.handleStatus)
	api.GET("/stats/:domain", h.handleStats)
	api.GET("/orphans/:domain", h.handleCountOrphans)
	api.DELETE("/orphans/:domain", h.handleCleanupOrphans, admin)
	api.GET("/duplicates/:domain", h.handleDuplicates)
}

func (h *Handler) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (h *Handler) handleIngest(c echo.Context) error {
	ctx := c.Request().Context()

	var env catalog.Envelope
	if err := c.Bind(&env); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	rec, err := domain.RecordFromEnvelope(env)
	if err != nil {
		return respondError(c, err)
	}

	result, err := h.ingest.Ingest(ctx, rec)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

type batchItemResponse struct {
	Index  int                   `json:"index"`
	Result *usecase.IngestResult `json:"result,omitempty"`
	Error  string                `json:"error,omitempty"`
}

func (h *Handler) handleIngestBatch(c echo.Context) error {
	ctx := c.Request().Context()

	var envs []catalog.Envelope
	if err := c.Bind(&envs); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if len(envs) > maxBatch {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "too many records"})
	}

	recs := make([]domain.PlatformRecord, 0, len(envs))
	for i, env := range envs {
		rec, err := domain.RecordFromEnvelope(env)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "index": i})
		}
		recs = append(recs, rec)
	}

	runID, items := h.ingest.IngestBatch(ctx, recs)
	out := make([]batchItemResponse, 0, len(items))
	for _, item := range items {
		resp := batchItemResponse{Index: item.Index, Result: item.Result}
		if item.Err != nil {
			resp.Error = item.Err.Error()
		}
		out = append(out, resp)
	}
	return c.JSON(http.StatusOK, echo.Map{"runId": runID, "items": out})
}

func (h *Handler) handleStage(c echo.Context) error {
	ctx := c.Request().Context()

	var env catalog.Envelope
	if err := c.Bind(&env); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	rec, err := domain.RecordFromEnvelope(env)
	if err != nil {
		return respondError(c, err)
	}

	src, err := h.source.Stage(ctx, rec)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": src.ID, "key": src.Key()})
}

func (h *Handler) handleIntegrate(c echo.Context) error {
	ctx := c.Request().Context()

	var req catalog.IntegrateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	result, err := h.integration.Integrate(ctx, req.ConfigID, req.SourceIDs)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

type manualRequest struct {
	Domain        string              `json:"domain"`
	Title         string              `json:"title"`
	OriginalTitle *string             `json:"originalTitle"`
	ReleaseDate   *string             `json:"releaseDate"`
	PosterURL     *string             `json:"posterUrl"`
	Synopsis      *string             `json:"synopsis"`
	Attributes    json.RawMessage     `json:"attributes"`
	Sources       []catalog.SourceRef `json:"sources"`
}

func (h *Handler) handleIntegrateManual(c echo.Context) error {
	ctx := c.Request().Context()

	var req manualRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	d, err := domain.ParseDomain(req.Domain)
	if err != nil {
		return respondError(c, err)
	}
	releaseDate, err := catalog.ParseDate(req.ReleaseDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid releaseDate"})
	}
	attrs, err := domain.DecodeAttributes(d, req.Attributes)
	if err != nil {
		return respondError(c, err)
	}

	work, mapping, err := h.integration.IntegrateManual(ctx, usecase.ManualIntegration{
		Domain:        d,
		Title:         req.Title,
		OriginalTitle: req.OriginalTitle,
		ReleaseDate:   releaseDate,
		PosterURL:     req.PosterURL,
		Synopsis:      req.Synopsis,
		Attributes:    attrs,
		Sources:       req.Sources,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"work": work, "mapping": mapping})
}

func (h *Handler) handleListConfigs(c echo.Context) error {
	ctx := c.Request().Context()
	d, err := domain.ParseDomain(c.QueryParam("domain"))
	if err != nil {
		return respondError(c, err)
	}
	configs, err := h.config.ListActive(ctx, d)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, configs)
}

func (h *Handler) handleGetConfig(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	cfg, err := h.config.Get(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, cfg)
}

func (h *Handler) handleCreateConfig(c echo.Context) error {
	ctx := c.Request().Context()
	var cfg domain.IntegrationConfig
	if err := c.Bind(&cfg); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	created, err := h.config.Create(ctx, cfg)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) handleUpdateConfig(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var cfg domain.IntegrationConfig
	if err := c.Bind(&cfg); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	cfg.ID = id
	updated, err := h.config.Update(ctx, cfg)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) handleDeleteConfig(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.config.Delete(ctx, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) handleGetMapping(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	mapping, err := h.mapping.Get(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, mapping)
}

func (h *Handler) handleHasPlatform(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ok, err := h.mapping.HasPlatform(ctx, id, c.Param("platform"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"available": ok})
}

func (h *Handler) handleLink(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var body struct {
		PlatformID int64 `json:"platformId"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	mapping, err := h.mapping.Link(ctx, id, c.Param("platform"), body.PlatformID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, mapping)
}

func (h *Handler) handleUnlink(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	removed, err := h.mapping.RemoveFromPlatform(ctx, id, c.Param("platform"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"removed": removed})
}

func (h *Handler) handleMultiPlatform(c echo.Context) error {
	ctx := c.Request().Context()
	d, err := domain.ParseDomain(c.Param("domain"))
	if err != nil {
		return respondError(c, err)
	}
	mappings, err := h.mapping.FindMultiPlatform(ctx, d)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, mappings)
}

// handlePlatformWorks lists works available on a platform, or only those
// exclusive to it with ?exclusive=true.
func (h *Handler) handlePlatformWorks(c echo.Context) error {
	ctx := c.Request().Context()
	d, err := domain.ParseDomain(c.Param("domain"))
	if err != nil {
		return respondError(c, err)
	}
	platform := c.Param("platform")

	var mappings []*domain.PlatformMapping
	if exclusive, _ := strconv.ParseBool(c.QueryParam("exclusive")); exclusive {
		mappings, err = h.mapping.FindExclusiveTo(ctx, d, platform)
	} else {
		mappings, err = h.mapping.FindAvailableOn(ctx, d, platform)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, mappings)
}

func (h *Handler) handleFindByPlatformID(c echo.Context) error {
	ctx := c.Request().Context()
	d, err := domain.ParseDomain(c.Param("domain"))
	if err != nil {
		return respondError(c, err)
	}
	platformID, err := paramID(c, "platformId")
	if err != nil {
		return respondError(c, err)
	}
	mapping, err := h.mapping.FindByPlatformID(ctx, d, c.Param("platform"), platformID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, mapping)
}

func (h *Handler) handleStatus(c echo.Context) error {
	ctx := c.Request().Context()
	d, err := domain.ParseDomain(c.Param("domain"))
	if err != nil {
		return respondError(c, err)
	}
	status, err := h.maintenance.Status(ctx, d)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

func (h *Handler) handleStats(c echo.Context) error {
	ctx := c.Request().Context()
	d, err := domain.ParseDomain(c.Param("domain"))
	if err != nil {
		return respondError(c, err)
	}
	stats, err := h.mapping.PlatformStats(ctx, d)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) handleCountOrphans(c echo.Context) error {
	ctx := c.Request().Context()
	d, err := domain.ParseDomain(c.Param("domain"))
	if err != nil {
		return respondError(c, err)
	}
	count, err := h.maintenance.CountOrphans(ctx, d)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"orphans": count})
}

func (h *Handler) handleCleanupOrphans(c echo.Context) error {
	ctx := c.Request().Context()
	d, err := domain.ParseDomain(c.Param("domain"))
	if err != nil {
		return respondError(c, err)
	}
	deleted, err := h.maintenance.CleanupOrphans(ctx, d)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": deleted})
}

func (h *Handler) handleDuplicates(c echo.Context) error {
	ctx := c.Request().Context()
	d, err := domain.ParseDomain(c.Param("domain"))
	if err != nil {
		return respondError(c, err)
	}
	groups, err := h.maintenance.FindTitleDuplicates(ctx, d)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, groups)
}

func paramID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ValidationError{Field: name, Reason: "must be a positive integer"}
	}
	return id, nil
}
