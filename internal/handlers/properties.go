package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"proptoken/internal/middleware"
	"proptoken/internal/models"
	"proptoken/internal/money"
	"proptoken/internal/services"
	"proptoken/internal/tokenmath"

	"github.com/go-chi/chi/v5"
)

// propertyView is the outward shape of a property. Minor-unit columns are
// rendered as decimal strings.
type propertyView struct {
	models.Property
	Value       string `json:"value"`
	MonthlyRent string `json:"monthly_rent,omitempty"`
}

func toPropertyView(p models.Property) propertyView {
	view := propertyView{Property: p, Value: money.FormatMinor(p.ValueMinor)}
	if p.MonthlyRentMinor != nil {
		view.MonthlyRent = money.FormatMinor(*p.MonthlyRentMinor)
	}
	return view
}

func toPropertyViews(properties []models.Property) []propertyView {
	views := make([]propertyView, 0, len(properties))
	for _, p := range properties {
		views = append(views, toPropertyView(p))
	}
	return views
}

// ListProperties returns the investable marketplace: listed properties, plus
// sold-out ones when ?include=sold_out is passed.
func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	listed, err := h.properties.ListByStatus(r.Context(), models.StatusListed, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load properties")
		return
	}
	properties := listed
	if r.URL.Query().Get("include") == "sold_out" {
		soldOut, err := h.properties.ListByStatus(r.Context(), models.StatusSoldOut, limit, offset)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to load properties")
			return
		}
		properties = append(properties, soldOut...)
	}
	respondJSON(w, http.StatusOK, map[string]any{"properties": toPropertyViews(properties)})
}

func (h *Handler) GetProperty(w http.ResponseWriter, r *http.Request) {
	property, err := h.properties.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "property not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load property")
		return
	}
	respondJSON(w, http.StatusOK, toPropertyView(property))
}

// GetBreakdown quotes the tokenization economics for a property without
// touching its state. Available for any status so sellers can preview before
// approval.
func (h *Handler) GetBreakdown(w http.ResponseWriter, r *http.Request) {
	property, err := h.properties.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "property not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load property")
		return
	}
	breakdown, err := tokenmath.ComputeBreakdown(money.DecimalFromMinor(property.ValueMinor), property.SizeSqm)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	payload := map[string]any{
		"property_id": property.ID,
		"breakdown":   breakdown,
	}
	if property.MonthlyRentMinor != nil {
		annualRent := money.DecimalFromMinor(*property.MonthlyRentMinor * 12)
		if yield, err := tokenmath.YieldPercentage(annualRent, money.DecimalFromMinor(property.ValueMinor)); err == nil {
			payload["annual_yield_percent"] = yield.StringFixed(2)
		}
	}
	respondJSON(w, http.StatusOK, payload)
}

type submitPropertyRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Address         string `json:"address"`
	PropertyType    string `json:"property_type"`
	Value           string `json:"value"`
	SizeSqm         int64  `json:"size_sqm"`
	MonthlyRent     string `json:"monthly_rent"`
	OccupancyStatus string `json:"occupancy_status"`
}

func (h *Handler) SubmitProperty(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req submitPropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Name == "" || req.Address == "" {
		respondError(w, http.StatusBadRequest, "name and address are required")
		return
	}
	valueMinor, err := money.ParseMinor(req.Value)
	if err != nil || valueMinor <= 0 {
		respondError(w, http.StatusBadRequest, "invalid property value")
		return
	}
	var rentMinor *int64
	if req.MonthlyRent != "" {
		parsed, err := money.ParseMinor(req.MonthlyRent)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "invalid monthly rent")
			return
		}
		rentMinor = &parsed
	}
	property, err := h.tokenization.SubmitProperty(r.Context(), services.SubmitPropertyRequest{
		SellerID:         sellerID,
		Name:             req.Name,
		Description:      req.Description,
		Address:          req.Address,
		PropertyType:     req.PropertyType,
		ValueMinor:       valueMinor,
		SizeSqm:          req.SizeSqm,
		MonthlyRentMinor: rentMinor,
		OccupancyStatus:  req.OccupancyStatus,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toPropertyView(property))
}

func (h *Handler) MyProperties(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	properties, err := h.properties.ListBySeller(r.Context(), sellerID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load properties")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"properties": toPropertyViews(properties)})
}
