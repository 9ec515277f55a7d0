package seats

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/mcdev12/seatcheck/go/internal/models"
	"github.com/mcdev12/seatcheck/go/internal/seats/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSessions int

func (n fixedSessions) ConnectionCount() int { return int(n) }

func newTestRouter(t *testing.T, total int) (chi.Router, *recordingPublisher) {
	t.Helper()
	app, _, pub := newTestApp(t, total)
	r := chi.NewRouter()
	NewHandler(app, fixedSessions(2)).RegisterRoutes(r)
	return r, pub
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHandleGetAllSeats(t *testing.T) {
	r, _ := newTestRouter(t, 3)

	rec := do(t, r, http.MethodGet, "/api/seats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `[
		{"number":1,"name":"","checked":false},
		{"number":2,"name":"","checked":false},
		{"number":3,"name":"","checked":false}
	]`, rec.Body.String())
}

func TestHandleSetCheckin(t *testing.T) {
	r, pub := newTestRouter(t, 3)

	rec := do(t, r, http.MethodPost, "/api/seats/2/check", `{"name":"Alice","checked":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"number":2,"name":"Alice","checked":true}`, rec.Body.String())

	roster := decodeBody[models.Roster](t, do(t, r, http.MethodGet, "/api/seats", ""))
	assert.Equal(t, models.Seat{Number: 2, Name: "Alice", Checked: true}, roster[1])
	require.Equal(t, 1, pub.count())
	assert.Equal(t, roster, pub.published[0])
}

func TestHandleSetCheckin_CheckedCoercion(t *testing.T) {
	tests := []struct {
		name string
		body string
		want models.Seat
	}{
		{name: "empty body", body: "", want: models.Seat{Number: 1}},
		{name: "empty object", body: `{}`, want: models.Seat{Number: 1}},
		{name: "null", body: `{"name":"A","checked":null}`, want: models.Seat{Number: 1}},
		{name: "zero", body: `{"name":"A","checked":0}`, want: models.Seat{Number: 1}},
		{name: "empty string", body: `{"name":"A","checked":""}`, want: models.Seat{Number: 1}},
		{name: "one", body: `{"name":"A","checked":1}`, want: models.Seat{Number: 1, Name: "A", Checked: true}},
		{name: "string", body: `{"name":"A","checked":"yes"}`, want: models.Seat{Number: 1, Name: "A", Checked: true}},
		{name: "object", body: `{"checked":{}}`, want: models.Seat{Number: 1, Checked: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRouter(t, 2)
			rec := do(t, r, http.MethodPost, "/api/seats/1/check", tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.want, decodeBody[models.Seat](t, rec))
		})
	}
}

func TestHandleSetCheckin_Errors(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		body       string
		wantStatus int
		wantMsg    string
	}{
		{name: "non-numeric", target: "/api/seats/abc/check", body: `{"checked":true}`, wantStatus: http.StatusBadRequest, wantMsg: "invalid seat number"},
		{name: "zero", target: "/api/seats/0/check", body: `{"checked":true}`, wantStatus: http.StatusNotFound, wantMsg: "seat not found"},
		{name: "past end", target: "/api/seats/4/check", body: `{"checked":true}`, wantStatus: http.StatusNotFound, wantMsg: "seat not found"},
		{name: "malformed body", target: "/api/seats/1/check", body: `{"checked":`, wantStatus: http.StatusBadRequest, wantMsg: "invalid request body"},
		{name: "non-string name", target: "/api/seats/1/check", body: `{"name":5,"checked":true}`, wantStatus: http.StatusBadRequest, wantMsg: "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, pub := newTestRouter(t, 3)
			rec := do(t, r, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMsg, decodeBody[errorResponse](t, rec).Message)
			assert.Equal(t, 0, pub.count())
		})
	}
}

func TestHandleGetSeat(t *testing.T) {
	r, _ := newTestRouter(t, 3)
	do(t, r, http.MethodPost, "/api/seats/3/check", `{"name":"Carol","checked":true}`)

	rec := do(t, r, http.MethodGet, "/api/seats/3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.Seat{Number: 3, Name: "Carol", Checked: true}, decodeBody[models.Seat](t, rec))

	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/seats/9", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/api/seats/x", "").Code)
}

func TestHandleResetAll(t *testing.T) {
	r, pub := newTestRouter(t, 2)
	do(t, r, http.MethodPost, "/api/seats/1/check", `{"name":"Alice","checked":true}`)

	rec := do(t, r, http.MethodPost, "/api/seats/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[ResetResponse](t, rec)
	assert.Equal(t, ResetMessage, resp.Message)
	assert.Equal(t, models.NewEmptyRoster(2), resp.Seats)
	assert.Equal(t, 2, pub.count())
}

func TestHandleStats(t *testing.T) {
	r, _ := newTestRouter(t, 4)
	do(t, r, http.MethodPost, "/api/seats/1/check", `{"name":"Alice","checked":true}`)
	do(t, r, http.MethodPost, "/api/seats/4/check", `{"checked":true}`)

	rec := do(t, r, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatsResponse{Sessions: 2, TotalSeats: 4, CheckedIn: 2}, decodeBody[StatsResponse](t, rec))
}

func TestHandler_WriteFailureIs500(t *testing.T) {
	backend := &flakyBackend{MemoryBackend: store.NewMemoryBackend(), failWrites: true}
	r := chi.NewRouter()
	NewHandler(NewApp(store.New(backend, 2), nil), nil).RegisterRoutes(r)

	rec := do(t, r, http.MethodGet, "/api/seats", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decodeBody[errorResponse](t, rec).Message)
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(json.RawMessage(`false`)))
	assert.False(t, Truthy(json.RawMessage(`not json`)))
	assert.True(t, Truthy(json.RawMessage(`true`)))
	assert.True(t, Truthy(json.RawMessage(`[]`)))
	assert.True(t, Truthy(json.RawMessage(` -2.5 `)))
}
