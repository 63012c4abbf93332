package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"vehicle-bot/internal/config"
	"vehicle-bot/internal/domain/vehicle"
	"vehicle-bot/internal/export"
	"vehicle-bot/internal/http/middleware"
	"vehicle-bot/internal/risk"
	"vehicle-bot/internal/service"
	"vehicle-bot/internal/storage"
)

type Handler struct {
	diagnosis *service.DiagnosisService
	rules     *risk.RuleSet
	config    *config.Config
	log       zerolog.Logger
	photos    *storage.R2Client
}

func NewHandler(
	diagnosis *service.DiagnosisService,
	rules *risk.RuleSet,
	cfg *config.Config,
	log zerolog.Logger,
	photos *storage.R2Client,
) *Handler {
	return &Handler{
		diagnosis: diagnosis,
		rules:     rules,
		config:    cfg,
		log:       log,
		photos:    photos,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	// Public reference data
	public := r.Group("/api/v1")
	{
		public.GET("/reference/districts", h.listDistricts)
		public.GET("/reference/rules", h.listRules)
	}

	// Everything else requires an authenticated user
	protected := r.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.POST("/diagnosis", h.runDiagnosis)
		protected.POST("/diagnosis/due-parts", h.previewDueParts)
		protected.PUT("/profile", h.saveProfile)
		protected.GET("/profile", h.getProfile)
		protected.POST("/profile/photo", h.uploadProfilePhoto)
		protected.GET("/assessments", h.listAssessments)
		protected.GET("/assessments/export", h.exportAssessments)
		protected.POST("/admin/assessments/purge", h.purgeAssessments)
	}
}

func (h *Handler) runDiagnosis(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("unauthenticated"))
		return
	}

	var snapshot vehicle.Snapshot
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	result, err := h.diagnosis.RunDiagnosis(c.Request.Context(), principal.UserID, snapshot)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *Handler) previewDueParts(c *gin.Context) {
	var snapshot vehicle.Snapshot
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	parts, err := h.diagnosis.PreviewDueParts(snapshot)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(parts))
}

func (h *Handler) saveProfile(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("unauthenticated"))
		return
	}

	var snapshot vehicle.Snapshot
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	profile, err := h.diagnosis.SaveProfile(c.Request.Context(), principal.UserID, snapshot)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *Handler) getProfile(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("unauthenticated"))
		return
	}

	profile, err := h.diagnosis.GetProfile(c.Request.Context(), principal.UserID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *Handler) uploadProfilePhoto(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("unauthenticated"))
		return
	}

	if h.photos == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse("photo storage is not configured"))
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("photo file is required"))
		return
	}
	if fileHeader.Size > storage.MaxPhotoSize {
		c.JSON(http.StatusBadRequest, errorResponse("photo is too large"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("cannot read photo"))
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	key, url, err := h.photos.UploadVehiclePhoto(c.Request.Context(), principal.UserID, file, fileHeader.Size, contentType)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedPhoto) {
			c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
		h.log.Error().Err(err).Str("user_id", principal.UserID.String()).Msg("photo upload failed")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}

	if err := h.diagnosis.SetProfilePhoto(c.Request.Context(), principal.UserID, key); err != nil {
		h.handleError(c, err)
		return
	}

	h.log.Info().
		Str("user_id", principal.UserID.String()).
		Str("photo_key", key).
		Msg("vehicle photo uploaded")

	c.JSON(http.StatusOK, gin.H{
		"photo_key": key,
		"photo_url": url,
	})
}

func (h *Handler) listAssessments(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("unauthenticated"))
		return
	}

	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	offset := 0
	if o := c.Query("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	history, err := h.diagnosis.History(c.Request.Context(), principal.UserID, limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(history))
}

func (h *Handler) exportAssessments(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("unauthenticated"))
		return
	}

	history, err := h.diagnosis.History(c.Request.Context(), principal.UserID, 100, 0)
	if err != nil {
		h.handleError(c, err)
		return
	}

	f, err := export.AssessmentHistory(history)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to build export workbook")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}
	defer f.Close()

	filename := "assessments-" + time.Now().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := f.Write(c.Writer); err != nil {
		h.log.Error().Err(err).Msg("failed to stream export workbook")
	}
}

func (h *Handler) purgeAssessments(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("unauthenticated"))
		return
	}
	if !principal.IsAdmin() {
		c.JSON(http.StatusForbidden, errorResponse("admin role required"))
		return
	}

	days := 365
	if d := c.Query("days"); d != "" {
		parsed, err := strconv.Atoi(d)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, errorResponse("days must be a positive integer"))
			return
		}
		days = parsed
	}

	deleted, err := h.diagnosis.CleanupOldAssessments(c.Request.Context(), days)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deleted": deleted,
		"days":    days,
	})
}

func (h *Handler) listDistricts(c *gin.Context) {
	c.JSON(http.StatusOK, successResponse(vehicle.Districts))
}

// listRules exposes the active maintenance rule tables so clients can
// show interval and cost reference data.
func (h *Handler) listRules(c *gin.Context) {
	type partition struct {
		VehicleClass      vehicle.Class    `json:"vehicle_class"`
		FuelType          vehicle.FuelType `json:"fuel_type,omitempty"`
		ServiceIntervalKm int              `json:"service_interval_km"`
		Rules             []risk.Rule      `json:"rules"`
	}

	partitions := []struct {
		class vehicle.Class
		fuel  vehicle.FuelType
	}{
		{vehicle.ClassCar, vehicle.FuelPetrol},
		{vehicle.ClassCar, vehicle.FuelDiesel},
		{vehicle.ClassHybrid, vehicle.FuelHybrid},
		{vehicle.ClassElectric, vehicle.FuelElectric},
		{vehicle.ClassMotorbike, ""},
		{vehicle.ClassThreeWheeler, ""},
	}

	out := make([]partition, 0, len(partitions))
	for _, p := range partitions {
		rules, ok := h.rules.TableFor(p.class, p.fuel)
		if !ok {
			continue
		}
		out = append(out, partition{
			VehicleClass:      p.class,
			FuelType:          p.fuel,
			ServiceIntervalKm: h.rules.ServiceIntervalKm(p.class),
			Rules:             rules,
		})
	}

	c.JSON(http.StatusOK, successResponse(out))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
