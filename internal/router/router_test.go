package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-reservation/internal/booking"
	"github.com/iliyamo/venue-reservation/internal/config"
	"github.com/iliyamo/venue-reservation/internal/handler"
	"github.com/iliyamo/venue-reservation/internal/middleware"
	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/repository"
	"github.com/iliyamo/venue-reservation/internal/utils"
	"github.com/iliyamo/venue-reservation/internal/venue"
)

const secret = "router-secret"

type server struct {
	e *echo.Echo
}

func newServer(t *testing.T) *server {
	t.Helper()
	users := repository.NewMemoryUsers()
	ctx := context.Background()
	if _, err := users.Create(ctx, "admin@college.edu", "Admin", "adminpw", model.RoleAdmin, 4); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	users.SetRole("secretary@college.edu", model.RoleSecretary)
	users.SetRole("staff@college.edu", model.RoleStaff)

	catalog := venue.NewCatalog([]venue.Venue{
		{Name: "KRS Seminar Hall", Capacity: 50},
		{Name: "ECE Seminar Hall", Capacity: 100},
		{Name: "MS Auditorium", Capacity: 500},
	})
	engine := booking.NewEngine(booking.Deps{
		Store:      repository.NewMemoryStore(),
		Identities: users,
		Catalog:    catalog,
		Pool:       venue.Pool{"Main Hall", "Conference Room"},
		Locker:     booking.NewLocalLocker(time.Second),
	})
	cfg := config.Config{JWTSecret: secret, AccessTTLMin: 5}

	e := echo.New()
	Register(e, Handlers{
		Auth:         handler.NewAuthHandler(cfg, users),
		Reservations: handler.NewReservationHandler(engine),
		Admin:        handler.NewAdminHandler(engine),
		Venues:       handler.NewVenueHandler(catalog),
		Users:        handler.NewUserHandler(users, 4),
		JWTSecret:    secret,
		RateLimit: middleware.NewTokenBucket(config.RateLimitConfig{
			Enabled: true, Capacity: 100, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute, Prefix: "rl",
		}, nil),
	})
	return &server{e: e}
}

func token(t *testing.T, email string, role model.Role) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, email, string(role), 5)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return tok.Token
}

func (s *server) call(t *testing.T, method, path, tok, body string, out any) int {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code
}

func (s *server) login(t *testing.T, email, password string) string {
	t.Helper()
	var resp struct {
		Access struct {
			Token string `json:"token"`
		} `json:"access"`
		Error string `json:"error"`
	}
	body := `{"email":"` + email + `","password":"` + password + `"}`
	if code := s.call(t, http.MethodPost, "/v1/auth/login", "", body, &resp); code != http.StatusOK {
		t.Fatalf("login %s: got %d (%s)", email, code, resp.Error)
	}
	return resp.Access.Token
}

type createResp struct {
	Reservation model.Reservation      `json:"reservation"`
	Message     string                 `json:"message"`
	Displaced   []booking.Displacement `json:"displaced"`
	Error       string                 `json:"error"`
	Field       string                 `json:"field"`
}

const mainHall = `{"venue":"Main Hall","date":"2025-10-02","time":"14:00","attendees":40,"organizer":"Office","purpose":"Meeting","email":"spoof@example.com"}`

func TestReservationFlow(t *testing.T) {
	s := newServer(t)
	staff := token(t, "staff@college.edu", model.RoleStaff)
	sec := token(t, "secretary@college.edu", model.RoleSecretary)
	admin := token(t, "admin@college.edu", model.RoleAdmin)

	var staffRes createResp
	if code := s.call(t, http.MethodPost, "/v1/reservations", staff, mainHall, &staffRes); code != http.StatusCreated {
		t.Fatalf("staff create: got %d (%s)", code, staffRes.Error)
	}
	if staffRes.Reservation.Email != "staff@college.edu" {
		t.Fatalf("requester email taken from body: %q", staffRes.Reservation.Email)
	}
	if staffRes.Reservation.Status != model.StatusPending || staffRes.Displaced == nil {
		t.Fatalf("staff reservation: %+v", staffRes)
	}

	var upd struct {
		Reservation model.Reservation `json:"reservation"`
	}
	path := "/v1/reservations/1/status"
	if code := s.call(t, http.MethodPatch, path, staff, `{"status":"confirmed"}`, nil); code != http.StatusForbidden {
		t.Fatalf("staff confirm: got %d, want 403", code)
	}
	if code := s.call(t, http.MethodPatch, path, admin, `{"status":"confirmed"}`, &upd); code != http.StatusOK {
		t.Fatalf("admin confirm: got %d", code)
	}
	if upd.Reservation.ApprovedBy == nil || *upd.Reservation.ApprovedBy != "admin@college.edu" {
		t.Fatalf("approvedBy: %+v", upd.Reservation.ApprovedBy)
	}

	var secRes createResp
	if code := s.call(t, http.MethodPost, "/v1/reservations", sec, mainHall, &secRes); code != http.StatusCreated {
		t.Fatalf("secretary create: got %d (%s)", code, secRes.Error)
	}
	if secRes.Reservation.Status != model.StatusConfirmed || len(secRes.Displaced) != 1 {
		t.Fatalf("secretary outcome: %+v", secRes)
	}
	if d := secRes.Displaced[0]; d.Outcome != model.StatusReassigned || d.Reservation.Venue != "Conference Room" {
		t.Fatalf("displacement: %+v", d)
	}

	var conflict createResp
	if code := s.call(t, http.MethodPost, "/v1/reservations", staff, mainHall, &conflict); code != http.StatusConflict {
		t.Fatalf("staff retry: got %d, want 409", code)
	}

	var mine struct {
		Reservations []model.Reservation `json:"reservations"`
	}
	if code := s.call(t, http.MethodGet, "/v1/my-reservations", staff, "", &mine); code != http.StatusOK {
		t.Fatalf("my-reservations: got %d", code)
	}
	if len(mine.Reservations) != 1 || mine.Reservations[0].Status != model.StatusReassigned {
		t.Fatalf("my-reservations: %+v", mine.Reservations)
	}

	var stats booking.Stats
	if code := s.call(t, http.MethodGet, "/v1/reservations/stats", admin, "", &stats); code != http.StatusOK {
		t.Fatalf("stats: got %d", code)
	}
	if stats != (booking.Stats{Total: 2, Confirmed: 1, Reassigned: 1}) {
		t.Fatalf("stats: %+v", stats)
	}

	var listed struct {
		Reservations []model.Reservation `json:"reservations"`
	}
	if code := s.call(t, http.MethodGet, "/v1/reservations?status=confirmed", admin, "", &listed); code != http.StatusOK {
		t.Fatalf("list: got %d", code)
	}
	if len(listed.Reservations) != 1 || listed.Reservations[0].PriorityRank != 1 {
		t.Fatalf("list: %+v", listed.Reservations)
	}
	if code := s.call(t, http.MethodGet, "/v1/reservations", staff, "", nil); code != http.StatusForbidden {
		t.Fatalf("staff list: got %d, want 403", code)
	}

	if code := s.call(t, http.MethodDelete, "/v1/reservations/1", admin, "", nil); code != http.StatusOK {
		t.Fatalf("delete: got %d", code)
	}
	if code := s.call(t, http.MethodDelete, "/v1/reservations/1", admin, "", nil); code != http.StatusNotFound {
		t.Fatalf("second delete: got %d, want 404", code)
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	s := newServer(t)
	staff := token(t, "staff@college.edu", model.RoleStaff)

	if code := s.call(t, http.MethodPost, "/v1/reservations", "", mainHall, nil); code != http.StatusUnauthorized {
		t.Fatalf("anonymous: got %d, want 401", code)
	}
	var resp createResp
	body := `{"venue":"Main Hall","date":"2025-10-02","time":"14:00","attendees":0,"organizer":"O","purpose":"P"}`
	if code := s.call(t, http.MethodPost, "/v1/reservations", staff, body, &resp); code != http.StatusBadRequest {
		t.Fatalf("zero attendees: got %d, want 400", code)
	}
	if resp.Field != "attendees" {
		t.Fatalf("field: got %q, want attendees", resp.Field)
	}
	if code := s.call(t, http.MethodPost, "/v1/reservations", staff, `{"venue":`, nil); code != http.StatusBadRequest {
		t.Fatalf("malformed body: got %d, want 400", code)
	}
}

func TestAdminValidation(t *testing.T) {
	s := newServer(t)
	admin := token(t, "admin@college.edu", model.RoleAdmin)
	staff := token(t, "staff@college.edu", model.RoleStaff)
	s.call(t, http.MethodPost, "/v1/reservations", staff, mainHall, nil)

	tests := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodPatch, "/v1/reservations/abc/status", `{"status":"confirmed"}`, http.StatusBadRequest},
		{http.MethodPatch, "/v1/reservations/1/status", `{"status":"reassigned"}`, http.StatusBadRequest},
		{http.MethodPatch, "/v1/reservations/99/status", `{"status":"confirmed"}`, http.StatusNotFound},
		{http.MethodGet, "/v1/reservations?status=bogus", "", http.StatusBadRequest},
		{http.MethodPatch, "/v1/reservations/1/status", `{"status":"cancelled"}`, http.StatusOK},
		{http.MethodPatch, "/v1/reservations/1/status", `{"status":"confirmed"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		if code := s.call(t, tt.method, tt.path, admin, tt.body, nil); code != tt.want {
			t.Errorf("%s %s %s: got %d, want %d", tt.method, tt.path, tt.body, code, tt.want)
		}
	}
}

func TestLoginAndMe(t *testing.T) {
	s := newServer(t)
	var resp struct {
		Access struct {
			Token string `json:"token"`
		} `json:"access"`
		User struct {
			Role model.Role `json:"role"`
		} `json:"user"`
	}
	if code := s.call(t, http.MethodPost, "/v1/auth/login", "", `{"email":"Admin@College.edu","password":"adminpw"}`, &resp); code != http.StatusOK {
		t.Fatalf("login: got %d", code)
	}
	if resp.User.Role != model.RoleAdmin || resp.Access.Token == "" {
		t.Fatalf("login response: %+v", resp)
	}

	var me map[string]any
	if code := s.call(t, http.MethodGet, "/v1/me", resp.Access.Token, "", &me); code != http.StatusOK {
		t.Fatalf("me: got %d", code)
	}
	if me["email"] != "admin@college.edu" || me["role"] != "admin" {
		t.Fatalf("me: %v", me)
	}

	tests := []struct {
		body string
		want int
	}{
		{`{"email":"admin@college.edu","password":"wrong"}`, http.StatusUnauthorized},
		{`{"email":"nobody@college.edu","password":"x"}`, http.StatusUnauthorized},
		{`{"email":"staff@college.edu","password":""}`, http.StatusBadRequest},
		{`{"email":"staff@college.edu","password":"anything"}`, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		if code := s.call(t, http.MethodPost, "/v1/auth/login", "", tt.body, nil); code != tt.want {
			t.Errorf("login %s: got %d, want %d", tt.body, code, tt.want)
		}
	}
}

func TestVenuesAndHealth(t *testing.T) {
	s := newServer(t)
	var rec struct {
		Venues []venue.Recommendation `json:"venues"`
	}
	if code := s.call(t, http.MethodGet, "/v1/venues/recommend?attendees=80", "", "", &rec); code != http.StatusOK {
		t.Fatalf("recommend: got %d", code)
	}
	if len(rec.Venues) != 3 || rec.Venues[0].Name != "ECE Seminar Hall" || !rec.Venues[0].Suitable {
		t.Fatalf("recommend: %+v", rec.Venues)
	}
	if code := s.call(t, http.MethodGet, "/v1/venues/recommend?attendees=-1", "", "", nil); code != http.StatusBadRequest {
		t.Fatalf("negative attendees: got %d, want 400", code)
	}
	var list struct {
		Venues []venue.Venue `json:"venues"`
	}
	if code := s.call(t, http.MethodGet, "/v1/venues", "", "", &list); code != http.StatusOK || len(list.Venues) != 3 {
		t.Fatalf("venues: got %d, %+v", code, list.Venues)
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.e.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthz: got %d %q", w.Code, w.Body.String())
	}
}

func TestRegisteredUsersPreemption(t *testing.T) {
	s := newServer(t)
	admin := s.login(t, "admin@college.edu", "adminpw")

	var created struct {
		ID    uint64     `json:"id"`
		Email string     `json:"email"`
		Role  model.Role `json:"role"`
		Rank  int        `json:"priorityRank"`
	}
	body := `{"email":"Lecturer@College.edu","name":"Lecturer","password":"lecturepw","role":"staff"}`
	if code := s.call(t, http.MethodPost, "/v1/users", admin, body, &created); code != http.StatusCreated {
		t.Fatalf("register staff: got %d", code)
	}
	if created.Email != "lecturer@college.edu" || created.Role != model.RoleStaff || created.Rank != 4 || created.ID == 0 {
		t.Fatalf("registered staff: %+v", created)
	}
	body = `{"email":"office@college.edu","name":"Office","password":"officepw","role":"Secretary"}`
	if code := s.call(t, http.MethodPost, "/v1/users", admin, body, &created); code != http.StatusCreated {
		t.Fatalf("register secretary: got %d", code)
	}
	if created.Role != model.RoleSecretary || created.Rank != 1 {
		t.Fatalf("registered secretary: %+v", created)
	}

	staff := s.login(t, "lecturer@college.edu", "lecturepw")
	sec := s.login(t, "office@college.edu", "officepw")

	slot := `{"venue":"Main Hall","date":"2025-11-03","time":"10:00","attendees":30,"organizer":"Dept","purpose":"Review"}`
	var staffRes createResp
	if code := s.call(t, http.MethodPost, "/v1/reservations", staff, slot, &staffRes); code != http.StatusCreated {
		t.Fatalf("staff create: got %d (%s)", code, staffRes.Error)
	}
	if staffRes.Reservation.Status != model.StatusPending || staffRes.Reservation.PriorityRank != 4 {
		t.Fatalf("staff reservation: %+v", staffRes.Reservation)
	}
	if code := s.call(t, http.MethodPatch, "/v1/reservations/1/status", admin, `{"status":"confirmed"}`, nil); code != http.StatusOK {
		t.Fatalf("admin confirm: got %d", code)
	}

	var secRes createResp
	if code := s.call(t, http.MethodPost, "/v1/reservations", sec, slot, &secRes); code != http.StatusCreated {
		t.Fatalf("secretary create: got %d (%s)", code, secRes.Error)
	}
	if secRes.Reservation.Status != model.StatusConfirmed || secRes.Reservation.Venue != "Main Hall" {
		t.Fatalf("secretary reservation: %+v", secRes.Reservation)
	}
	if len(secRes.Displaced) != 1 {
		t.Fatalf("displaced: %+v", secRes.Displaced)
	}
	d := secRes.Displaced[0].Reservation
	if secRes.Displaced[0].Outcome != model.StatusReassigned || d.Venue != "Conference Room" {
		t.Fatalf("displacement: %+v", secRes.Displaced[0])
	}
	if d.OriginalVenue == nil || *d.OriginalVenue != "Main Hall" || d.Email != "lecturer@college.edu" {
		t.Fatalf("moved reservation: %+v", d)
	}

	var mine struct {
		Reservations []model.Reservation `json:"reservations"`
	}
	if code := s.call(t, http.MethodGet, "/v1/my-reservations", staff, "", &mine); code != http.StatusOK {
		t.Fatalf("my-reservations: got %d", code)
	}
	if len(mine.Reservations) != 1 || mine.Reservations[0].Venue != "Conference Room" {
		t.Fatalf("my-reservations: %+v", mine.Reservations)
	}
}

func TestRegisterUserValidation(t *testing.T) {
	s := newServer(t)
	admin := token(t, "admin@college.edu", model.RoleAdmin)
	staff := token(t, "staff@college.edu", model.RoleStaff)
	ok := `{"email":"new@college.edu","name":"New","password":"pw","role":"hod"}`

	tests := []struct {
		name, tok, body string
		want            int
	}{
		{"anonymous", "", ok, http.StatusUnauthorized},
		{"non-admin", staff, ok, http.StatusForbidden},
		{"unknown role", admin, `{"email":"a@college.edu","password":"pw","role":"dean"}`, http.StatusBadRequest},
		{"missing password", admin, `{"email":"a@college.edu","role":"staff"}`, http.StatusBadRequest},
		{"bad email", admin, `{"email":"nobody","password":"pw","role":"staff"}`, http.StatusBadRequest},
		{"malformed", admin, `{"email":`, http.StatusBadRequest},
		{"created", admin, ok, http.StatusCreated},
		{"duplicate", admin, ok, http.StatusConflict},
		{"other role", admin, `{"email":"guest@college.edu","password":"pw","role":"other"}`, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := s.call(t, http.MethodPost, "/v1/users", tt.tok, tt.body, nil); code != tt.want {
				t.Fatalf("got %d, want %d", code, tt.want)
			}
		})
	}
}
