package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"hostelhub/internal/domain"
	"hostelhub/internal/models"
	"hostelhub/internal/service"
)

// Services bundles the workflow layer for the command routes. The caller
// is expected to be an already-authenticated gateway; the acting user
// arrives in the x-actor-id header.
type Services struct {
	Users         *service.UserService
	Hostels       *service.HostelService
	Bookings      *service.BookingService
	Reservations  *service.ReservationService
	Fees          *service.FeeService
	Reports       *service.ReportService
	Verifications *service.VerificationService
	Chat          *service.ChatService
}

const actorHeader = "x-actor-id"

func (s *HTTPServer) registerCommandRoutes(mux *http.ServeMux) {
	if s.svcs == nil {
		return
	}
	mux.HandleFunc("/api/v1/users", s.handleUsers)
	mux.HandleFunc("/api/v1/users/", s.handleUserAction)
	mux.HandleFunc("/api/v1/audit", s.handleAudit)
	mux.HandleFunc("/api/v1/hostels/", s.handleHostelAction)
	mux.HandleFunc("/api/v1/bookings", s.handleBookings)
	mux.HandleFunc("/api/v1/bookings/", s.handleBookingAction)
	mux.HandleFunc("/api/v1/reservations", s.handleReservations)
	mux.HandleFunc("/api/v1/reservations/", s.handleReservationAction)
	mux.HandleFunc("/api/v1/fees", s.handleFees)
	mux.HandleFunc("/api/v1/fees/summary", s.handleFeeSummary)
	mux.HandleFunc("/api/v1/fees/", s.handleFeeAction)
	mux.HandleFunc("/api/v1/reports", s.handleReports)
	mux.HandleFunc("/api/v1/reports/", s.handleReportAction)
	mux.HandleFunc("/api/v1/verifications", s.handleVerifications)
	mux.HandleFunc("/api/v1/verifications/", s.handleVerificationAction)
	mux.HandleFunc("/api/v1/conversations", s.handleConversations)
	mux.HandleFunc("/api/v1/conversations/", s.handleConversationAction)
}

func actor(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.Header.Get(actorHeader))
	if id == "" {
		writeError(w, http.StatusUnauthorized, "missing actor header")
		return "", false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// writeServiceError maps the sentinel taxonomy onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, domain.ErrPreconditionFailed):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// pathAction splits "/api/v1/<resource>/<id>/<action>"; action may be empty.
func pathAction(path, prefix string) (id, action string, ok bool) {
	rest := strings.TrimPrefix(path, prefix)
	if rest == path || rest == "" {
		return "", "", false
	}
	parts := strings.SplitN(strings.Trim(rest, "/"), "/", 2)
	id = parts[0]
	if id == "" {
		return "", "", false
	}
	if len(parts) == 2 {
		action = parts[1]
	}
	return id, action, true
}

// handleUsers covers registration (no actor yet) and the admin listing.
func (s *HTTPServer) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var body struct {
			Role     string `json:"role"`
			Email    string `json:"email"`
			FullName string `json:"full_name"`
			Phone    string `json:"phone"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		switch models.Role(body.Role) {
		case models.RoleStudent:
			user, profile, err := s.svcs.Users.RegisterStudent(r.Context(), body.Email)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"user": user, "profile": profile})
		case models.RoleManager:
			user, profile, err := s.svcs.Users.RegisterManager(r.Context(), body.Email, body.FullName, body.Phone)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"user": user, "profile": profile})
		default:
			writeError(w, http.StatusBadRequest, "role must be STUDENT or MANAGER")
		}
	case http.MethodGet:
		actorID, ok := actor(w, r)
		if !ok {
			return
		}
		role := models.Role(strings.TrimSpace(r.URL.Query().Get("role")))
		users, err := s.svcs.Users.ListUsers(r.Context(), actorID, role)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"users": users})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleUserAction(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	id, action, ok := pathAction(r.URL.Path, "/api/v1/users/")
	if !ok || r.Method != http.MethodPost {
		writeError(w, http.StatusNotFound, "unknown action")
		return
	}

	// the actor verifies their own profile; no target id in the path
	if id == "self-verify" && action == "" {
		var body struct {
			FullName  string `json:"full_name"`
			Institute string `json:"institute"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		profile, err := s.svcs.Users.SelfVerify(r.Context(), actorID, body.FullName, body.Institute)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, profile)
		return
	}

	if action != "terminate" {
		writeError(w, http.StatusNotFound, "unknown action")
		return
	}
	if err := s.svcs.Users.TerminateUser(r.Context(), actorID, id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "terminated"})
}

func (s *HTTPServer) handleAudit(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	targetType := strings.TrimSpace(r.URL.Query().Get("target_type"))
	targetID := strings.TrimSpace(r.URL.Query().Get("target_id"))
	if targetType != "" && targetID != "" {
		entries, err := s.svcs.Users.ListAuditByTarget(r.Context(), actorID, targetType, targetID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"audit": entries})
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	entries, err := s.svcs.Users.ListAudit(r.Context(), actorID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"audit": entries})
}

func (s *HTTPServer) handleHostelCreate(w http.ResponseWriter, r *http.Request) {
	if s.svcs == nil {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	var hostel models.Hostel
	if !decodeBody(w, r, &hostel) {
		return
	}
	created, err := s.svcs.Hostels.CreateHostel(r.Context(), actorID, &hostel)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *HTTPServer) handleHostelAction(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	id, action, ok := pathAction(r.URL.Path, "/api/v1/hostels/")
	if !ok {
		writeError(w, http.StatusBadRequest, "hostel id is required")
		return
	}

	if id == "mine" && action == "" && r.Method == http.MethodGet {
		hostels, err := s.svcs.Hostels.ListMyHostels(r.Context(), actorID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"hostels": hostels})
		return
	}

	switch {
	case r.Method == http.MethodGet && action == "":
		hostel, err := s.svcs.Hostels.GetHostel(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, hostel)
	case r.Method == http.MethodGet && action == "students":
		residents, err := s.svcs.Hostels.ListStudents(r.Context(), actorID, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"students": residents})
	case r.Method == http.MethodPost && action == "update":
		var hostel models.Hostel
		if !decodeBody(w, r, &hostel) {
			return
		}
		hostel.ID = id
		updated, err := s.svcs.Hostels.UpdateHostel(r.Context(), actorID, &hostel)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case r.Method == http.MethodPost && action == "deactivate":
		if err := s.svcs.Hostels.DeactivateHostel(r.Context(), actorID, id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
	default:
		writeError(w, http.StatusNotFound, "unknown action")
	}
}

func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPost:
		var body struct {
			HostelID string               `json:"hostel_id"`
			Transfer models.TransferProof `json:"transfer"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		booking, err := s.svcs.Bookings.CreateBooking(r.Context(), actorID, body.HostelID, body.Transfer)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, booking)
	case http.MethodGet:
		bookings, err := s.svcs.Bookings.ListMyBookings(r.Context(), actorID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleBookingAction(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	id, action, ok := pathAction(r.URL.Path, "/api/v1/bookings/")
	if !ok {
		writeError(w, http.StatusBadRequest, "booking id is required")
		return
	}

	if r.Method == http.MethodGet && action == "" {
		booking, err := s.svcs.Bookings.GetBooking(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	switch action {
	case "approve":
		booking, err := s.svcs.Bookings.ApproveBooking(r.Context(), actorID, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)
	case "disapprove":
		var body struct {
			Refund models.RefundProof `json:"refund"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		booking, err := s.svcs.Bookings.DisapproveBooking(r.Context(), actorID, id, body.Refund)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)
	case "leave":
		var body struct {
			Rating  int64  `json:"rating"`
			Comment string `json:"comment"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		review := &models.Review{Rating: body.Rating, Comment: body.Comment}
		booking, err := s.svcs.Bookings.LeaveHostel(r.Context(), actorID, id, review)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)
	case "kick":
		var body struct {
			Reason string `json:"reason"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		booking, err := s.svcs.Bookings.KickStudent(r.Context(), actorID, id, models.KickReason(body.Reason))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)
	default:
		writeError(w, http.StatusNotFound, "unknown action")
	}
}

func (s *HTTPServer) handleReservations(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPost:
		var body struct {
			HostelID string `json:"hostel_id"`
			Message  string `json:"message"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		reservation, err := s.svcs.Reservations.CreateReservation(r.Context(), actorID, body.HostelID, body.Message)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, reservation)
	case http.MethodGet:
		reservations, err := s.svcs.Reservations.ListMyReservations(r.Context(), actorID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"reservations": reservations})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleReservationAction(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	id, action, ok := pathAction(r.URL.Path, "/api/v1/reservations/")
	if !ok || r.Method != http.MethodPost {
		writeError(w, http.StatusBadRequest, "reservation action is required")
		return
	}

	switch action {
	case "cancel":
		reservation, err := s.svcs.Reservations.CancelReservation(r.Context(), actorID, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, reservation)
	case "review":
		var body struct {
			Accept       bool   `json:"accept"`
			RejectReason string `json:"reject_reason"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		reservation, err := s.svcs.Reservations.ReviewReservation(r.Context(), actorID, id, body.Accept, body.RejectReason)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, reservation)
	default:
		writeError(w, http.StatusNotFound, "unknown action")
	}
}

func (s *HTTPServer) handleFees(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPost:
		var body struct {
			HostelID   string `json:"hostel_id"`
			Month      string `json:"month"`
			ProofImage string `json:"proof_image"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		fee, err := s.svcs.Fees.SubmitFee(r.Context(), actorID, body.HostelID, body.Month, body.ProofImage)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, fee)
	case http.MethodGet:
		fees, err := s.svcs.Fees.ListMyFees(r.Context(), actorID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"fees": fees})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleFeeSummary(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	summaries, err := s.svcs.Fees.PendingFeeSummary(r.Context(), actorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summaries": summaries})
}

func (s *HTTPServer) handleFeeAction(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	id, action, ok := pathAction(r.URL.Path, "/api/v1/fees/")
	if !ok || r.Method != http.MethodPost || action != "review" {
		writeError(w, http.StatusNotFound, "unknown action")
		return
	}

	var body struct {
		Approve bool `json:"approve"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	fee, err := s.svcs.Fees.ReviewFee(r.Context(), actorID, id, body.Approve)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fee)
}

func (s *HTTPServer) handleReports(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPost:
		var body struct {
			BookingID   string `json:"booking_id"`
			Description string `json:"description"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		report, err := s.svcs.Reports.CreateReport(r.Context(), actorID, body.BookingID, body.Description)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, report)
	case http.MethodGet:
		reports, err := s.svcs.Reports.ListMyReports(r.Context(), actorID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleReportAction(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	id, action, ok := pathAction(r.URL.Path, "/api/v1/reports/")
	if !ok || r.Method != http.MethodPost || action != "resolve" {
		writeError(w, http.StatusNotFound, "unknown action")
		return
	}

	var body struct {
		Decision   string `json:"decision"`
		Resolution string `json:"resolution"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	report, err := s.svcs.Reports.ResolveReport(r.Context(), actorID, id, models.ReportDecision(body.Decision), body.Resolution)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *HTTPServer) handleVerifications(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPost:
		var body struct {
			OwnerName     string `json:"owner_name"`
			City          string `json:"city"`
			Address       string `json:"address"`
			HostelNames   string `json:"hostel_names"`
			HostelFor     string `json:"hostel_for"`
			BuildingImage string `json:"building_image"`
			AcceptedRules bool   `json:"accepted_rules"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		verification := &models.ManagerVerification{
			OwnerName:     body.OwnerName,
			City:          body.City,
			Address:       body.Address,
			HostelNames:   body.HostelNames,
			HostelFor:     body.HostelFor,
			BuildingImage: body.BuildingImage,
			AcceptedRules: body.AcceptedRules,
		}
		submitted, err := s.svcs.Verifications.SubmitVerification(r.Context(), actorID, verification)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, submitted)
	case http.MethodGet:
		verifications, err := s.svcs.Verifications.ListMyVerifications(r.Context(), actorID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"verifications": verifications})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleVerificationAction(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	id, action, ok := pathAction(r.URL.Path, "/api/v1/verifications/")
	if !ok || r.Method != http.MethodPost || action != "review" {
		writeError(w, http.StatusNotFound, "unknown action")
		return
	}

	var body struct {
		Approve      bool   `json:"approve"`
		AdminComment string `json:"admin_comment"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	verification, err := s.svcs.Verifications.ReviewVerification(r.Context(), actorID, id, body.Approve, body.AdminComment)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, verification)
}

func (s *HTTPServer) handleConversations(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPost:
		var body struct {
			ManagerID string `json:"manager_id"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		conversation, err := s.svcs.Chat.StartConversation(r.Context(), actorID, body.ManagerID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, conversation)
	case http.MethodGet:
		conversations, err := s.svcs.Chat.ListMyConversations(r.Context(), actorID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"conversations": conversations})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleConversationAction(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	id, action, ok := pathAction(r.URL.Path, "/api/v1/conversations/")
	if !ok || action != "messages" {
		writeError(w, http.StatusNotFound, "unknown action")
		return
	}

	switch r.Method {
	case http.MethodPost:
		var body struct {
			Text string `json:"text"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		message, err := s.svcs.Chat.SendMessage(r.Context(), actorID, id, body.Text)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, message)
	case http.MethodGet:
		messages, err := s.svcs.Chat.ListMessages(r.Context(), actorID, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
