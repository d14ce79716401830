package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"hostelhub/internal/domain"
	"hostelhub/internal/models"
)

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleHostels(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		s.handleHostelCreate(w, r)
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	filter := domain.HostelFilter{
		City:       strings.TrimSpace(r.URL.Query().Get("city")),
		HostelType: models.HostelType(strings.TrimSpace(r.URL.Query().Get("type"))),
		HostelFor:  strings.TrimSpace(r.URL.Query().Get("for")),
	}

	hostels, err := s.store.SearchHostels(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	results := make([]map[string]any, 0, len(hostels))
	for _, hostel := range hostels {
		price, _ := hostel.Price()
		results = append(results, map[string]any{
			"id":              hostel.ID,
			"name":            hostel.Name,
			"city":            hostel.City,
			"hostel_type":     hostel.HostelType,
			"hostel_for":      hostel.HostelFor,
			"price":           price,
			"available_rooms": hostel.AvailableRooms,
			"total_rooms":     hostel.TotalRooms,
			"average_rating":  hostel.AverageRating,
			"review_count":    hostel.ReviewCount,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"hostels": results})
}

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	const prefix = "/api/v1/availability/"
	hostelID := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, prefix))
	if hostelID == "" || strings.Contains(hostelID, "/") {
		writeError(w, http.StatusBadRequest, "hostel id is required")
		return
	}

	hostel, err := s.store.GetHostel(r.Context(), hostelID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "hostel not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"hostel_id":       hostel.ID,
		"available":       hostel.IsActive && hostel.AvailableRooms > 0,
		"available_rooms": hostel.AvailableRooms,
		"total_rooms":     hostel.TotalRooms,
		"is_active":       hostel.IsActive,
	})
}

func (s *HTTPServer) handleExportBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	status := models.BookingStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	bookings, err := s.store.ListBookings(r.Context(), status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	data, err := s.writer.WriteBookings(bookings)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	serveWorkbook(w, "bookings", data)
}

func (s *HTTPServer) handleExportFees(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	status := models.FeeStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	fees, err := s.store.ListFees(r.Context(), status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	data, err := s.writer.WriteFees(fees)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	serveWorkbook(w, "fees", data)
}

func serveWorkbook(w http.ResponseWriter, prefix string, data []byte) {
	fileName := fmt.Sprintf("%s_export_%s.xlsx", prefix, time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
