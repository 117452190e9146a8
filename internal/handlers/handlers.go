package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/campusfind/campusfind/internal/badges"
	"github.com/campusfind/campusfind/internal/events"
	"github.com/campusfind/campusfind/internal/fingerprint"
	"github.com/campusfind/campusfind/internal/match"
	"github.com/campusfind/campusfind/internal/models"
	"github.com/campusfind/campusfind/internal/search"
	"github.com/campusfind/campusfind/internal/stats"
	"github.com/campusfind/campusfind/internal/storage"
)

// maxImageBytes caps the decoded image payload at 5MB.
const maxImageBytes = 5 * 1024 * 1024

// Handler contains all HTTP handlers.
type Handler struct {
	items  storage.ItemStore
	badges *badges.Evaluator
	images *storage.ImageStore // optional, may be nil
	events *events.Publisher   // optional, may be nil
}

// NewHandler creates a new handler instance. images and eventBus may be nil;
// the corresponding features are then skipped.
func NewHandler(items storage.ItemStore, evaluator *badges.Evaluator, images *storage.ImageStore, eventBus *events.Publisher) *Handler {
	return &Handler{
		items:  items,
		badges: evaluator,
		images: images,
		events: eventBus,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// CreateItemResponse is returned on report submission.
type CreateItemResponse struct {
	Item         *models.Item   `json:"item"`
	SimilarItems []match.Result `json:"similarItems"`
	HasMatch     bool           `json:"hasMatch"`
}

// CreateItem handles POST /api/items.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req models.CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	imageBytes, contentType, err := decodeImage(req.Image)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status := req.Status
	if status == "" {
		status = models.StatusActive
	}

	item := &models.Item{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Category:    req.Category,
		Location:    req.Location,
		Date:        req.Date,
		Type:        req.Type,
		Status:      status,
		Image:       req.Image,
		// The fingerprint is derived here and only here; callers cannot
		// supply one.
		ImageFingerprint: fingerprint.FromBytes(imageBytes),
		ContactName:      strings.TrimSpace(req.ContactName),
		ContactInfo:      strings.TrimSpace(req.ContactInfo),
	}

	if h.images != nil && len(imageBytes) > 0 {
		url, err := h.images.Upload(r.Context(), imageBytes, contentType)
		if err != nil {
			log.Error().Err(err).Msg("Failed to upload image, keeping embedded payload")
		} else {
			item.ImageURL = url
		}
	}

	if err := h.items.Create(item); err != nil {
		log.Error().Err(err).Msg("Failed to save item")
		writeError(w, http.StatusInternalServerError, "failed to save item")
		return
	}

	if _, err := h.badges.RecordEvent(item.ContactInfo, badges.Reported); err != nil {
		log.Error().Err(err).Msg("Failed to record report event")
	}

	var similar []match.Result
	contactByID := make(map[string]string)
	if item.ImageFingerprint != "" {
		all, err := h.items.List()
		if err != nil {
			log.Error().Err(err).Msg("Failed to list items for similarity check")
		} else {
			similar = match.FindSimilar(item, all)
			for _, candidate := range all {
				contactByID[candidate.ID] = candidate.ContactInfo
			}
		}
	}

	if len(similar) > 0 {
		// Both sides of a match played matchmaker: the new reporter and
		// the reporters of the items matched against.
		recorded := map[string]bool{item.ContactInfo: true}
		if _, err := h.badges.RecordEvent(item.ContactInfo, badges.Matched); err != nil {
			log.Error().Err(err).Msg("Failed to record match event")
		}

		matchedIDs := make([]string, len(similar))
		for i, m := range similar {
			matchedIDs[i] = m.ID
			contact := contactByID[m.ID]
			if contact == "" || recorded[contact] {
				continue
			}
			recorded[contact] = true
			if _, err := h.badges.RecordEvent(contact, badges.Matched); err != nil {
				log.Error().Err(err).Msg("Failed to record match event")
			}
		}
		if err := h.events.MatchFound(r.Context(), events.MatchEvent{
			ItemID:     item.ID,
			MatchedIDs: matchedIDs,
			Timestamp:  time.Now(),
		}); err != nil {
			log.Error().Err(err).Msg("Failed to publish match.found event")
		}
	}

	if err := h.events.ItemReported(r.Context(), itemEvent(item)); err != nil {
		log.Error().Err(err).Msg("Failed to publish item.reported event")
	}

	log.Info().
		Str("item_id", item.ID).
		Str("title", item.Title).
		Str("type", item.Type).
		Bool("has_match", len(similar) > 0).
		Msg("Item reported")

	writeJSON(w, http.StatusCreated, CreateItemResponse{
		Item:         item,
		SimilarItems: emptyIfNil(similar),
		HasMatch:     len(similar) > 0,
	})
}

// ListItems handles GET /api/items with optional status/type/category/location
// filters. Items come back in insertion order.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	all, err := h.items.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list items")
		writeError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	q := r.URL.Query()
	filters := search.Filters{
		Status:   q.Get("status"),
		Type:     q.Get("type"),
		Category: q.Get("category"),
		Location: q.Get("location"),
	}

	filtered := make([]*models.Item, 0, len(all))
	for _, item := range all {
		if search.Matches(item, filters) {
			filtered = append(filtered, item)
		}
	}

	writeJSON(w, http.StatusOK, filtered)
}

// GetItem handles GET /api/items/{id}.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	item, err := h.items.Get(id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to get item")
		writeError(w, http.StatusInternalServerError, "failed to get item")
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// UpdateItem handles PUT /api/items/{id}, primarily used to mark an item as
// claimed.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req models.UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.items.Get(id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to get item")
		writeError(w, http.StatusInternalServerError, "failed to get item")
		return
	}

	claimed := false
	if req.Status != nil {
		claimed = *req.Status == models.StatusClaimed && item.Status != models.StatusClaimed
		item.Status = *req.Status
	}
	if req.Title != nil {
		item.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		item.Description = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.Location != nil {
		item.Location = *req.Location
	}

	if err := h.items.Save(item); err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to save item")
		writeError(w, http.StatusInternalServerError, "failed to save item")
		return
	}

	if claimed {
		if _, err := h.badges.RecordEvent(item.ContactInfo, badges.Claimed); err != nil {
			log.Error().Err(err).Msg("Failed to record claim event")
		}
		if err := h.events.ItemClaimed(r.Context(), itemEvent(item)); err != nil {
			log.Error().Err(err).Msg("Failed to publish item.claimed event")
		}
		log.Info().Str("item_id", id).Msg("Item claimed")
	}

	writeJSON(w, http.StatusOK, item)
}

// DeleteItem handles DELETE /api/items/{id}.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := h.items.Delete(id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to delete item")
		writeError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Item deleted successfully"})
}

// SearchItems handles GET /api/search.
func (h *Handler) SearchItems(w http.ResponseWriter, r *http.Request) {
	all, err := h.items.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list items")
		writeError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	q := r.URL.Query()
	results := search.Search(all, search.Filters{
		Query:    q.Get("q"),
		Category: q.Get("category"),
		Location: q.Get("location"),
		Type:     q.Get("type"),
		Status:   q.Get("status"),
		DateFrom: q.Get("dateFrom"),
		DateTo:   q.Get("dateTo"),
	})

	writeJSON(w, http.StatusOK, results)
}

// Suggestions handles GET /api/search/suggestions.
func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	all, err := h.items.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list items")
		writeError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	suggestions := search.Suggest(r.URL.Query().Get("q"), all)
	if suggestions == nil {
		suggestions = []string{}
	}

	writeJSON(w, http.StatusOK, suggestions)
}

// Dashboard handles GET /api/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	all, err := h.items.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list items")
		writeError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	writeJSON(w, http.StatusOK, stats.Aggregate(all, time.Now()))
}

// SimilarItems handles GET /api/items/{id}/similar.
func (h *Handler) SimilarItems(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	item, err := h.items.Get(id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to get item")
		writeError(w, http.StatusInternalServerError, "failed to get item")
		return
	}

	// No fingerprint means no similarity signal, which is not an error.
	if item.ImageFingerprint == "" {
		writeJSON(w, http.StatusOK, []match.Result{})
		return
	}

	all, err := h.items.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list items")
		writeError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	writeJSON(w, http.StatusOK, emptyIfNil(match.FindSimilar(item, all)))
}

// UserBadges handles GET /api/badges/{email}.
func (h *Handler) UserBadges(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]
	writeJSON(w, http.StatusOK, h.badges.Snapshot(email))
}

// ItemQR handles GET /api/items/{id}/qr: the frontend renders the QR code
// from this payload.
func (h *Handler) ItemQR(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	item, err := h.items.Get(id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to get item")
		writeError(w, http.StatusInternalServerError, "failed to get item")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"itemId": item.ID,
		"url":    fmt.Sprintf("/items/%s", item.ID),
		"title":  item.Title,
	})
}

// HealthCheck handles GET /api/health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"store": "ok"}
	healthy := true

	if _, err := h.items.List(); err != nil {
		checks["store"] = err.Error()
		healthy = false
	}

	if h.images != nil {
		checks["images"] = "ok"
		if err := h.images.HealthCheck(r.Context()); err != nil {
			checks["images"] = err.Error()
			healthy = false
		}
	}

	if h.events != nil {
		checks["events"] = "ok"
		if err := h.events.HealthCheck(); err != nil {
			checks["events"] = err.Error()
			healthy = false
		}
	}

	status := "healthy"
	code := http.StatusOK
	if !healthy {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

// decodeImage decodes a base64 image payload (with optional data-URL prefix)
// and enforces the size and type limits. An empty payload is fine.
func decodeImage(payload string) ([]byte, string, error) {
	if payload == "" {
		return nil, "", nil
	}

	contentType := "image/jpeg"
	data := payload
	if idx := strings.IndexByte(payload, ','); idx != -1 {
		prefix := payload[:idx]
		data = payload[idx+1:]
		if ct, ok := parseDataURLType(prefix); ok {
			contentType = ct
		}
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, "", fmt.Errorf("image payload is not valid base64")
	}
	if len(raw) > maxImageBytes {
		return nil, "", fmt.Errorf("image exceeds the 5MB limit")
	}

	switch contentType {
	case "image/png", "image/jpg", "image/jpeg", "image/gif", "image/webp":
	default:
		return nil, "", fmt.Errorf("unsupported image type %q", contentType)
	}

	return raw, contentType, nil
}

// parseDataURLType extracts the MIME type from a "data:image/png;base64"
// prefix.
func parseDataURLType(prefix string) (string, bool) {
	if !strings.HasPrefix(prefix, "data:") {
		return "", false
	}
	rest := strings.TrimPrefix(prefix, "data:")
	if idx := strings.IndexByte(rest, ';'); idx != -1 {
		rest = rest[:idx]
	}
	if rest == "" {
		return "", false
	}
	return rest, true
}

func itemEvent(item *models.Item) events.ItemEvent {
	return events.ItemEvent{
		ItemID:    item.ID,
		Title:     item.Title,
		Category:  item.Category,
		Location:  item.Location,
		Type:      item.Type,
		Status:    item.Status,
		Timestamp: time.Now(),
	}
}

func emptyIfNil(results []match.Result) []match.Result {
	if results == nil {
		return []match.Result{}
	}
	return results
}
