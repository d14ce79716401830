package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostelhub/internal/models"
	"hostelhub/internal/repository"
)

type commandFixture struct {
	srv         *HTTPServer
	store       *repository.MemoryStore
	admin       *models.User
	studentUser *models.User
	managerUser *models.User
	manager     *models.ManagerProfile
	hostel      *models.Hostel
}

func newCommandFixture(t *testing.T) *commandFixture {
	t.Helper()
	ctx := context.Background()
	srv, store := newTestServer(t, openConfig())

	admin := &models.User{Email: "admin@hostelhub.pk", Role: models.RoleAdmin}
	require.NoError(t, store.CreateUser(ctx, admin))

	studentUser := &models.User{Email: "student@test.pk", Role: models.RoleStudent}
	require.NoError(t, store.CreateUser(ctx, studentUser))
	require.NoError(t, store.CreateStudentProfile(ctx, &models.StudentProfile{UserID: studentUser.ID}))
	_, err := store.SelfVerifyStudent(ctx, studentUser.ID, "Ali Raza", "NUST")
	require.NoError(t, err)

	managerUser := &models.User{Email: "manager@test.pk", Role: models.RoleManager}
	require.NoError(t, store.CreateUser(ctx, managerUser))
	manager := &models.ManagerProfile{UserID: managerUser.ID, Verified: true}
	require.NoError(t, store.CreateManagerProfile(ctx, manager))

	hostel := &models.Hostel{
		ManagerID:      manager.ID,
		Name:           "Gulberg Boys Hostel",
		City:           "Lahore",
		HostelType:     models.HostelPrivate,
		HostelFor:      "boys",
		TotalRooms:     2,
		AvailableRooms: 2,
		RoomPrice:      5000,
		IsActive:       true,
	}
	require.NoError(t, store.CreateHostel(ctx, hostel))

	return &commandFixture{
		srv:         srv,
		store:       store,
		admin:       admin,
		studentUser: studentUser,
		managerUser: managerUser,
		manager:     manager,
		hostel:      hostel,
	}
}

func (f *commandFixture) do(method, path, actorID, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if actorID != "" {
		req.Header.Set(actorHeader, actorID)
	}
	rec := httptest.NewRecorder()
	f.srv.server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestCommandsRequireActorHeader(t *testing.T) {
	f := newCommandFixture(t)

	rec := f.do(http.MethodGet, "/api/v1/bookings", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBookingCommandFlow(t *testing.T) {
	f := newCommandFixture(t)

	rec := f.do(http.MethodPost, "/api/v1/bookings", f.studentUser.ID,
		`{"hostel_id":"`+f.hostel.ID+`","transfer":{"image":"transfers/1.jpg"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var booking models.Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &booking))
	assert.Equal(t, models.BookingPending, booking.Status)
	assert.Equal(t, int64(5000), booking.Amount)

	rec = f.do(http.MethodPost, "/api/v1/bookings/"+booking.ID+"/approve", f.managerUser.ID, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// second approval conflicts
	rec = f.do(http.MethodPost, "/api/v1/bookings/"+booking.ID+"/approve", f.managerUser.ID, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/bookings/"+booking.ID+"/leave", f.studentUser.ID,
		`{"rating":5,"comment":"great stay"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	hostel, err := f.store.GetHostel(context.Background(), f.hostel.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), hostel.AvailableRooms)
	assert.InDelta(t, 5.0, hostel.AverageRating, 0.001)
}

func TestBookingCommandErrorMapping(t *testing.T) {
	f := newCommandFixture(t)

	// missing transfer proof -> 400
	rec := f.do(http.MethodPost, "/api/v1/bookings", f.studentUser.ID,
		`{"hostel_id":"`+f.hostel.ID+`","transfer":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// unknown booking -> 404
	rec = f.do(http.MethodPost, "/api/v1/bookings/missing/approve", f.managerUser.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// foreign manager -> 403
	rec = f.do(http.MethodPost, "/api/v1/bookings", f.studentUser.ID,
		`{"hostel_id":"`+f.hostel.ID+`","transfer":{"image":"transfers/1.jpg"}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var booking models.Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &booking))

	ctx := context.Background()
	rivalUser := &models.User{Email: "rival@test.pk", Role: models.RoleManager}
	require.NoError(t, f.store.CreateUser(ctx, rivalUser))
	require.NoError(t, f.store.CreateManagerProfile(ctx, &models.ManagerProfile{UserID: rivalUser.ID, Verified: true}))

	rec = f.do(http.MethodPost, "/api/v1/bookings/"+booking.ID+"/approve", rivalUser.ID, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// malformed body -> 400
	rec = f.do(http.MethodPost, "/api/v1/bookings", f.studentUser.ID, `{"hostel`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReservationAndFeeCommands(t *testing.T) {
	f := newCommandFixture(t)

	rec := f.do(http.MethodPost, "/api/v1/reservations", f.studentUser.ID,
		`{"hostel_id":"`+f.hostel.ID+`","message":"visit on sunday"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var reservation models.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reservation))

	rec = f.do(http.MethodPost, "/api/v1/reservations/"+reservation.ID+"/review", f.managerUser.ID,
		`{"accept":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(http.MethodGet, "/api/v1/fees/summary", f.managerUser.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	month := time.Now().Format(models.FeeMonthLayout)
	rec = f.do(http.MethodPost, "/api/v1/fees", f.managerUser.ID,
		`{"hostel_id":"`+f.hostel.ID+`","month":"`+month+`","proof_image":"fees/aug.jpg"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var fee models.MonthlyAdminFee
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fee))

	// non-admin review -> 403, admin -> 200
	rec = f.do(http.MethodPost, "/api/v1/fees/"+fee.ID+"/review", f.managerUser.ID, `{"approve":true}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = f.do(http.MethodPost, "/api/v1/fees/"+fee.ID+"/review", f.admin.ID, `{"approve":true}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUserCommands(t *testing.T) {
	f := newCommandFixture(t)

	// registration needs no actor header
	rec := f.do(http.MethodPost, "/api/v1/users", "",
		`{"role":"STUDENT","email":"newstudent@test.pk"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var registered struct {
		User    models.User           `json:"user"`
		Profile models.StudentProfile `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registered))
	assert.Equal(t, models.RoleStudent, registered.User.Role)
	assert.False(t, registered.Profile.SelfVerified)

	rec = f.do(http.MethodPost, "/api/v1/users", "", `{"role":"ADMIN","email":"evil@test.pk"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/users/self-verify", registered.User.ID,
		`{"full_name":"Bilal Ahmed","institute":"UET"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var profile models.StudentProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.True(t, profile.SelfVerified)

	// list and audit are admin only
	rec = f.do(http.MethodGet, "/api/v1/users?role=STUDENT", f.studentUser.ID, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = f.do(http.MethodGet, "/api/v1/users?role=STUDENT", f.admin.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/users/"+registered.User.ID+"/terminate", f.managerUser.ID, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = f.do(http.MethodPost, "/api/v1/users/"+registered.User.ID+"/terminate", f.admin.ID, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(http.MethodGet, "/api/v1/audit?target_type=User&target_id="+registered.User.ID, f.admin.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var audit struct {
		Audit []models.AuditLog `json:"audit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &audit))
	assert.Len(t, audit.Audit, 1)
}

func TestHostelCommands(t *testing.T) {
	f := newCommandFixture(t)

	body := `{"name":"Model Town Hostel","city":"Lahore","hostel_type":"SHARED","hostel_for":"boys",` +
		`"total_rooms":6,"persons_in_room":3,"price_per_head_shared":7000}`
	rec := f.do(http.MethodPost, "/api/v1/hostels", f.managerUser.ID, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var hostel models.Hostel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hostel))
	assert.Equal(t, int64(6), hostel.AvailableRooms)
	assert.True(t, hostel.IsActive)

	// unverified managers may not list hostels
	unverifiedUser := &models.User{Email: "shady@test.pk", Role: models.RoleManager}
	require.NoError(t, f.store.CreateUser(context.Background(), unverifiedUser))
	require.NoError(t, f.store.CreateManagerProfile(context.Background(), &models.ManagerProfile{UserID: unverifiedUser.ID}))
	rec = f.do(http.MethodPost, "/api/v1/hostels", unverifiedUser.ID, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/hostels/"+hostel.ID+"/update", f.managerUser.ID,
		`{"name":"Model Town Hostel II","city":"Lahore","hostel_for":"boys",`+
			`"total_rooms":6,"persons_in_room":3,"price_per_head_shared":7500}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated models.Hostel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Model Town Hostel II", updated.Name)
	assert.Equal(t, models.HostelShared, updated.HostelType)

	rec = f.do(http.MethodGet, "/api/v1/hostels/mine", f.managerUser.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var mine struct {
		Hostels []models.Hostel `json:"hostels"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	assert.Len(t, mine.Hostels, 2)

	rivalUser := &models.User{Email: "rival-owner@test.pk", Role: models.RoleManager}
	require.NoError(t, f.store.CreateUser(context.Background(), rivalUser))
	require.NoError(t, f.store.CreateManagerProfile(context.Background(), &models.ManagerProfile{UserID: rivalUser.ID, Verified: true}))
	rec = f.do(http.MethodPost, "/api/v1/hostels/"+hostel.ID+"/deactivate", rivalUser.ID, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = f.do(http.MethodPost, "/api/v1/hostels/"+hostel.ID+"/deactivate", f.managerUser.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/hostels/"+hostel.ID, f.studentUser.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched models.Hostel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.False(t, fetched.IsActive)
}

func TestChatCommands(t *testing.T) {
	f := newCommandFixture(t)

	rec := f.do(http.MethodPost, "/api/v1/conversations", f.studentUser.ID,
		`{"manager_id":"`+f.manager.ID+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var conversation models.Conversation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conversation))

	rec = f.do(http.MethodPost, "/api/v1/conversations/"+conversation.ID+"/messages", f.studentUser.ID,
		`{"text":"any rooms free?"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(http.MethodGet, "/api/v1/conversations/"+conversation.ID+"/messages", f.managerUser.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Messages []models.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Messages, 1)
	assert.Equal(t, "any rooms free?", body.Messages[0].Text)
}

func TestVerificationAndReportCommands(t *testing.T) {
	f := newCommandFixture(t)
	ctx := context.Background()

	newManagerUser := &models.User{Email: "newbie@test.pk", Role: models.RoleManager}
	require.NoError(t, f.store.CreateUser(ctx, newManagerUser))
	require.NoError(t, f.store.CreateManagerProfile(ctx, &models.ManagerProfile{UserID: newManagerUser.ID}))

	rec := f.do(http.MethodPost, "/api/v1/verifications", newManagerUser.ID,
		`{"owner_name":"Usman Ghani","city":"Islamabad","address":"Street 4, G-10","accepted_rules":true}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var verification models.ManagerVerification
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verification))

	rec = f.do(http.MethodPost, "/api/v1/verifications/"+verification.ID+"/review", f.admin.ID,
		`{"approve":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// report flow against an approved booking
	rec = f.do(http.MethodPost, "/api/v1/bookings", f.studentUser.ID,
		`{"hostel_id":"`+f.hostel.ID+`","transfer":{"image":"transfers/1.jpg"}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var booking models.Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &booking))
	rec = f.do(http.MethodPost, "/api/v1/bookings/"+booking.ID+"/approve", f.managerUser.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/reports", f.studentUser.ID,
		`{"booking_id":"`+booking.ID+`","description":"no water since monday"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var report models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))

	rec = f.do(http.MethodPost, "/api/v1/reports/"+report.ID+"/resolve", f.admin.ID,
		`{"decision":"NONE","resolution":"no fault found"}`)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}
