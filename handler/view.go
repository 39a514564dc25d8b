package handler

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"

	"usage-dashboard/config"
	"usage-dashboard/dashboard"
	"usage-dashboard/model"
)

const (
	viewIDLength  = 8
	maxIDRetries  = 5
	viewKeyPrefix = "view:"
	idCharset     = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var ErrMaxRetriesExceeded = errors.New("failed to generate unique view ID after maximum retries")

// ViewHandler stores shareable dashboard view snapshots in Redis
type ViewHandler struct {
	redis   *redis.Client
	config  config.Config
	baseURL string
	ttl     time.Duration
}

// NewViewHandler creates a new shared-view handler
func NewViewHandler(redisClient *redis.Client, cfg config.Config) *ViewHandler {
	// Use configured base_url if provided, otherwise construct from scheme, IP, and port
	baseURL := cfg.WebServer.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("%s://%s:%s", cfg.WebServer.Scheme, cfg.WebServer.IP, cfg.WebServer.Port)
	}
	return &ViewHandler{
		redis:   redisClient,
		config:  cfg,
		baseURL: baseURL,
		ttl:     time.Duration(cfg.Views.TTLHours) * time.Hour,
	}
}

// generateRandomID generates a cryptographically secure random view ID
func generateRandomID(length int) (string, error) {
	result := make([]byte, length)
	for i := range result {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(idCharset))))
		if err != nil {
			return "", err
		}
		result[i] = idCharset[num.Int64()]
	}
	return string(result), nil
}

// generateUniqueID generates a view ID with collision detection
func (vh *ViewHandler) generateUniqueID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxIDRetries; attempt++ {
		id, err := generateRandomID(viewIDLength)
		if err != nil {
			return "", err
		}

		exists, err := vh.redis.Exists(ctx, viewKeyPrefix+id).Result()
		if err != nil {
			return "", err
		}
		if exists == 0 {
			return id, nil
		}

		log.Warn().
			Str("view_id", id).
			Int("attempt", attempt+1).
			Msg("Collision detected, retrying")
	}

	return "", ErrMaxRetriesExceeded
}

// CreateView handles POST /api/views
// @Summary Share a dashboard view
// @Description Stores the filter-state snapshot under a short random ID and returns a shareable URL
// @Tags Views
// @Accept json
// @Produce json
// @Param request body model.SavedViewRequest true "Filter state to share"
// @Success 200 {object} model.SavedViewResponse "Share link data"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /api/views [post]
func (vh *ViewHandler) CreateView(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(vh.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	var req model.SavedViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	if _, err := time.Parse(dashboard.DateFormat, req.From); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "from must be a yyyy-MM-dd date")
		return
	}
	if _, err := time.Parse(dashboard.DateFormat, req.To); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "to must be a yyyy-MM-dd date")
		return
	}
	if req.AgeGroup == "" {
		req.AgeGroup = dashboard.GroupAll
	}
	if req.Gender == "" {
		req.Gender = dashboard.GroupAll
	}

	id, err := vh.generateUniqueID(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate view ID")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to create view")
		return
	}

	view := model.SavedView{
		ID:           id,
		ManagementID: uuid.New().String(),
		From:         req.From,
		To:           req.To,
		Feature:      req.Feature,
		AgeGroup:     req.AgeGroup,
		Gender:       req.Gender,
		CreatedAt:    time.Now(),
	}

	viewJSON, err := json.Marshal(view)
	if err != nil {
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to create view")
		return
	}

	if err := vh.redis.Set(ctx, viewKeyPrefix+id, viewJSON, vh.ttl).Err(); err != nil {
		log.Error().Err(err).Msg("Failed to store view")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to create view")
		return
	}

	log.Info().
		Str("view_id", id).
		Str("from", view.From).
		Str("to", view.To).
		Msg("Shared view created")

	SendJSONSuccess(w, http.StatusOK, model.SavedViewResponse{
		ID:           id,
		ViewURL:      fmt.Sprintf("%s/api/views/%s", vh.baseURL, id),
		ManagementID: view.ManagementID,
		QRCodeURL:    fmt.Sprintf("%s/api/views/%s/qr", vh.baseURL, id),
	})
}

// getView loads a stored view, distinguishing absence from Redis failure
func (vh *ViewHandler) getView(ctx context.Context, id string) (*model.SavedView, error) {
	data, err := vh.redis.Get(ctx, viewKeyPrefix+id).Bytes()
	if err != nil {
		return nil, err
	}

	var view model.SavedView
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// GetView handles GET /api/views/{id}
// @Summary Resolve a shared view
// @Description Returns the stored filter state for a share ID
// @Tags Views
// @Produce json
// @Success 200 {object} model.SavedView "Stored filter state"
// @Failure 404 {object} ErrorResponse "View not found or expired"
// @Router /api/views/{id} [get]
func (vh *ViewHandler) GetView(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(vh.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	id := mux.Vars(r)["id"]

	view, err := vh.getView(ctx, id)
	if err == redis.Nil {
		SendJSONError(w, http.StatusNotFound, errors.New("view not found"), "Shared view does not exist or has expired")
		return
	} else if err != nil {
		log.Error().Err(err).Str("view_id", id).Msg("Failed to load view")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to load view")
		return
	}

	// The management ID stays between Redis and the creator
	view.ManagementID = ""

	SendJSONSuccess(w, http.StatusOK, view)
}

// DeleteView handles DELETE /api/views/{id}
// @Summary Delete a shared view
// @Description Deletes a shared view; requires the management ID returned at creation in the X-Management-ID header
// @Tags Views
// @Produce json
// @Success 200 {object} map[string]string "Deletion confirmation"
// @Failure 403 {object} ErrorResponse "Wrong management ID"
// @Failure 404 {object} ErrorResponse "View not found"
// @Router /api/views/{id} [delete]
func (vh *ViewHandler) DeleteView(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(vh.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	id := mux.Vars(r)["id"]
	managementID := r.Header.Get("X-Management-ID")
	if managementID == "" {
		SendJSONError(w, http.StatusBadRequest, errors.New("missing management ID"), "X-Management-ID header is required")
		return
	}

	view, err := vh.getView(ctx, id)
	if err == redis.Nil {
		SendJSONError(w, http.StatusNotFound, errors.New("view not found"), "Shared view does not exist or has expired")
		return
	} else if err != nil {
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to load view")
		return
	}

	if view.ManagementID != managementID {
		log.Warn().Str("view_id", id).Msg("View deletion with wrong management ID")
		SendJSONError(w, http.StatusForbidden, errors.New("forbidden"), "Management ID does not match")
		return
	}

	if err := vh.redis.Del(ctx, viewKeyPrefix+id).Err(); err != nil {
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to delete view")
		return
	}

	log.Info().Str("view_id", id).Msg("Shared view deleted")
	SendJSONSuccess(w, http.StatusOK, map[string]string{"message": "View deleted successfully"})
}

// ViewQR handles GET /api/views/{id}/qr - generates a QR code for the share URL
// @Summary QR code for a shared view
// @Description Generates a PNG QR code pointing at the shared view URL
// @Tags Views
// @Produce png
// @Param size query int false "Image size in pixels (128-1024, default 256)"
// @Param level query string false "Error correction: low, medium, high, highest"
// @Success 200 {file} binary "PNG image"
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 404 {object} ErrorResponse "View not found"
// @Router /api/views/{id}/qr [get]
func (vh *ViewHandler) ViewQR(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(vh.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	id := mux.Vars(r)["id"]

	exists, err := vh.redis.Exists(ctx, viewKeyPrefix+id).Result()
	if err != nil {
		log.Error().Err(err).Str("view_id", id).Msg("Failed to check view existence for QR")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to verify view")
		return
	}
	if exists == 0 {
		SendJSONError(w, http.StatusNotFound, errors.New("view not found"), "Shared view does not exist or has expired")
		return
	}

	query := r.URL.Query()

	// Get size parameter (default: 256, min: 128, max: 1024)
	size := 256
	if sizeStr := query.Get("size"); sizeStr != "" {
		parsedSize, err := strconv.Atoi(sizeStr)
		if err != nil {
			SendJSONError(w, http.StatusBadRequest, errors.New("invalid size parameter"), "Size must be a number")
			return
		}
		if parsedSize < 128 || parsedSize > 1024 {
			SendJSONError(w, http.StatusBadRequest, errors.New("size out of range"), "Size must be between 128 and 1024")
			return
		}
		size = parsedSize
	}

	// Get error correction level (default: medium)
	level := qrcode.Medium
	if levelStr := query.Get("level"); levelStr != "" {
		switch levelStr {
		case "low":
			level = qrcode.Low
		case "medium":
			level = qrcode.Medium
		case "high":
			level = qrcode.High
		case "highest":
			level = qrcode.Highest
		default:
			SendJSONError(w, http.StatusBadRequest, errors.New("invalid level parameter"), "Level must be: low, medium, high, or highest")
			return
		}
	}

	shareURL := fmt.Sprintf("%s/api/views/%s", vh.baseURL, id)

	qrCode, err := qrcode.Encode(shareURL, level, size)
	if err != nil {
		log.Error().Err(err).Str("url", shareURL).Msg("Failed to generate QR code")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to generate QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Content-Length", strconv.Itoa(len(qrCode)))
	w.Write(qrCode)
}
