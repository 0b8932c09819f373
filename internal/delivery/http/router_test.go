package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"clubevents/internal/adapters/auth"
	"clubevents/internal/adapters/email"
	"clubevents/internal/admission"
	"clubevents/internal/delivery/http/controllers"
	"clubevents/internal/domain"
	"clubevents/internal/repository/memory"
	"clubevents/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret"

// recordingMailer keeps the recipients of every sent email.
type recordingMailer struct {
	mu sync.Mutex
	to []string
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, html, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.to = append(m.to, to)
	return nil
}

func (m *recordingMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.to...)
}

type routerFixture struct {
	mux    *http.ServeMux
	issuer domain.TokenIssuer
	store  *memory.Store
	mailer *recordingMailer
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	renderer, err := email.NewTemplateRenderer()
	require.NoError(t, err)
	mailer := &recordingMailer{}
	notifier := services.NewAdmissionNotifier(store.Users(), mailer, renderer, logger)

	eventSvc := services.NewEventService(store.Events(), time.Second)
	admissionSvc := services.NewAdmissionService(store, store.Events(), store.Participants(),
		admission.NewAllocator(time.UTC), notifier, logger, services.AdmissionOptions{})

	mux := NewRouter(
		controllers.NewEventController(logger, eventSvc, admissionSvc),
		controllers.NewParticipationController(logger, admissionSvc, services.NewMemberService(store.Users(), time.Second)),
		auth.NewJWTVerifier(testSecret),
		logger,
	)
	return &routerFixture{mux: mux, issuer: auth.NewJWTIssuer(testSecret), store: store, mailer: mailer}
}

func (f *routerFixture) token(t *testing.T, userID string, roles ...string) string {
	t.Helper()
	tok, err := f.issuer.Issue(userID, userID+"@example.com", roles, time.Hour)
	require.NoError(t, err)
	return tok
}

// do sends the request and decodes the envelope's data into out when out is non-nil.
func (f *routerFixture) do(t *testing.T, method, path, token, body string, out any) int {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	f.mux.ServeHTTP(rr, req)

	if out != nil && rr.Code < 300 {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
		require.NoError(t, json.Unmarshal(envelope.Data, out))
	}
	return rr.Code
}

func TestRouter_AdmissionFlow(t *testing.T) {
	f := newRouterFixture(t)
	admin := f.token(t, "admin-1", domain.RoleAdmin)
	alice := f.token(t, "alice")
	bob := f.token(t, "bob")

	// A past event day means the lottery is closed and decisions are first-come.
	var ev controllers.EventResponse
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/events", admin,
		`{"name":"Winter meetup","date":"2020-01-15","seat_capacity":1,"parking_capacity":1}`, &ev))
	require.NotEmpty(t, ev.ID)

	var a, b domain.Participant
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/events/"+ev.ID+"/participants", alice, `{"parking":true}`, &a))
	assert.Equal(t, domain.StatusConfirmed, a.Status)
	assert.Equal(t, "granted", a.ParkingOutcome())

	// Applying records the member behind the token, so the decision email can be addressed.
	member, err := f.store.Users().GetByID(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", member.Email)
	assert.Contains(t, f.mailer.recipients(), "alice@example.com")

	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/events/"+ev.ID+"/participants", bob, `{"parking":true}`, &b))
	assert.Equal(t, domain.StatusPending, b.Status)
	assert.Equal(t, "waitlisted", b.ParkingOutcome())

	var pos controllers.WaitlistPositionResponse
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/events/"+ev.ID+"/participants/"+b.ID+"/waitlist-position", bob, "", &pos))
	require.NotNil(t, pos.Position)
	assert.Equal(t, 1, *pos.Position)

	// Bob may not cancel Alice's seat.
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPost, "/participants/"+a.ID+"/cancel", bob, "", nil))

	var canceled domain.Participant
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/participants/"+a.ID+"/cancel", alice, "", &canceled))
	assert.Equal(t, domain.StatusCanceled, canceled.Status)
	assert.Nil(t, canceled.Parking)
	assert.Equal(t, http.StatusConflict, f.do(t, http.MethodPost, "/participants/"+a.ID+"/cancel", alice, "", nil))

	// Promotion is lazy: Bob waits until an admin reallocates.
	var summary domain.EventSummary
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/events/"+ev.ID+"/summary", alice, "", &summary))
	assert.Equal(t, 0, summary.ConfirmedCount)
	assert.Equal(t, 1, summary.PendingCount)
	assert.True(t, summary.LotteryClosed)

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPost, "/events/"+ev.ID+"/reallocate", bob, "", nil))
	var changed []*domain.Participant
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/events/"+ev.ID+"/reallocate", admin, "", &changed))
	require.Len(t, changed, 1)
	assert.Equal(t, b.ID, changed[0].ID)
	assert.Equal(t, domain.StatusConfirmed, changed[0].Status)
	assert.Equal(t, "granted", changed[0].ParkingOutcome())

	var invalidated domain.Participant
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPost, "/participants/"+b.ID+"/invalidate", bob, "", nil))
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/participants/"+b.ID+"/invalidate", admin, "", &invalidated))
	assert.Equal(t, domain.StatusInvalid, invalidated.Status)
}

func TestRouter_AuthAndRoles(t *testing.T) {
	f := newRouterFixture(t)
	member := f.token(t, "member-1")

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		body       string
		wantStatus int
	}{
		{"no token", http.MethodGet, "/events/6f1c2b1e-4c1f-4f5e-9a51-0c4a5c7e2d10", "", "", http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/events/6f1c2b1e-4c1f-4f5e-9a51-0c4a5c7e2d10", "not-a-jwt", "", http.StatusUnauthorized},
		{"unknown event", http.MethodGet, "/events/6f1c2b1e-4c1f-4f5e-9a51-0c4a5c7e2d10", member, "", http.StatusNotFound},
		{"member cannot create events", http.MethodPost, "/events", member, `{"name":"x","date":"2026-04-01"}`, http.StatusForbidden},
		{"member cannot change capacity", http.MethodPatch, "/events/6f1c2b1e-4c1f-4f5e-9a51-0c4a5c7e2d10/capacity", member, `{}`, http.StatusForbidden},
		{"wrong method", http.MethodDelete, "/events/6f1c2b1e-4c1f-4f5e-9a51-0c4a5c7e2d10", member, "", http.StatusMethodNotAllowed},
		{"health", http.MethodGet, "/healthz", "", "", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, f.do(t, tt.method, tt.path, tt.token, tt.body, nil))
		})
	}
}

func TestRouter_ApplyBeforeDeadlineIsPending(t *testing.T) {
	f := newRouterFixture(t)
	admin := f.token(t, "admin-1", domain.RoleAdmin)

	var ev controllers.EventResponse
	future := time.Now().AddDate(1, 0, 0).Format(domain.EventDateLayout)
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/events", admin,
		`{"name":"Next year","date":"`+future+`","seat_capacity":100,"parking_capacity":10}`, &ev))

	var p domain.Participant
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/events/"+ev.ID+"/participants", f.token(t, "carol"), `{"parking":true}`, &p))
	assert.Equal(t, domain.StatusPending, p.Status)
	assert.Nil(t, p.Parking)

	// Applying again re-evaluates the same participation.
	var again domain.Participant
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/events/"+ev.ID+"/participants", f.token(t, "carol"), ``, &again))
	assert.Equal(t, p.ID, again.ID)
	assert.False(t, again.ParkingRequested)

	var page struct {
		Items []*domain.WaitlistEntry `json:"items"`
	}
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/events/"+ev.ID+"/waitlist", admin, "", &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.Items[0].Position)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/events/"+ev.ID+"/waitlist?page=92233720368547760&page_size=100", admin, "", &page))
	assert.Empty(t, page.Items)
}
