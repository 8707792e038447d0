package httptransport

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathfinder/internal/domain"
	"pathfinder/internal/drift"
	"pathfinder/internal/notify"
	"pathfinder/internal/pipeline"
	"pathfinder/internal/policy"
	"pathfinder/internal/requirement"
	"pathfinder/internal/storage"
	"pathfinder/pkg/testutil"
)

type noopTransport struct{}

func (noopTransport) Send(context.Context, string, string, domain.Priority, string) error {
	return nil
}

type handlerFixture struct {
	store   *storage.MemoryStore
	guard   *pipeline.MemoryRunGuard
	handler *Handler
	router  chi.Router
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	store := storage.NewMemoryStore()
	guard := pipeline.NewMemoryRunGuard()

	detector, err := drift.New(store, store, store, drift.Thresholds{
		InactivityReminderDays:    3,
		InactivityParentAlertDays: 7,
		PlanReviewStalenessDays:   14,
	})
	require.NoError(t, err)
	dispatcher, err := notify.New(noopTransport{}, store)
	require.NoError(t, err)
	orchestrator, err := pipeline.New(detector, dispatcher, store, guard, "troop-topic", "parent-topic")
	require.NoError(t, err)
	requirements, err := requirement.New(store, store)
	require.NoError(t, err)

	handler, err := NewHandler(policy.NewEngine(), requirements, orchestrator, store, nil)
	require.NoError(t, err)

	// The routes are mounted without the auth middleware; tests attach
	// identities directly to the request context.
	router := chi.NewRouter()
	router.Post("/tools/requirements/status", handler.handleUpdateStatus)
	router.Post("/tools/requirements/override", handler.handleOverrideStatus)
	router.Post("/tools/scouts", handler.handleAddScout)
	router.Get("/tools/scouts/{email}", handler.handleGetScout)
	router.Post("/pipeline/run", handler.handleRunPipeline)

	return &handlerFixture{store: store, guard: guard, handler: handler, router: router}
}

func (f *handlerFixture) seedRequirement(status domain.RequirementStatus) {
	f.store.AddScout(domain.Scout{Email: "scout@example.com", Troop: "T1"})
	_ = f.store.SaveRequirement(context.Background(), domain.Requirement{
		ScoutEmail:    "scout@example.com",
		RequirementID: "cooking-4a",
		Status:        status,
	})
}

func TestHandleUpdateStatus(t *testing.T) {
	t.Run("legal transition by the scout succeeds", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.seedRequirement(domain.StatusInProgress)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/tools/requirements/status", map[string]string{
			"scout_email":    "scout@example.com",
			"requirement_id": "cooking-4a",
			"status":         "tracking",
		})
		req = testutil.AsScout(req, "scout@example.com")
		rr := testutil.DoRequest(f.router, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[map[string]any](t, rr)
		assert.Equal(t, "tracking", (*resp)["status"])
	})

	t.Run("illegal transition returns 422 naming both statuses", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.seedRequirement(domain.StatusNotStarted)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/tools/requirements/status", map[string]string{
			"scout_email":    "scout@example.com",
			"requirement_id": "cooking-4a",
			"status":         "signed_off",
		})
		req = testutil.AsSuperuser(req, "admin@example.com")
		rr := testutil.DoRequest(f.router, req)

		testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)
		msg := testutil.ErrorMessage(t, rr)
		assert.Contains(t, msg, "not_started")
		assert.Contains(t, msg, "signed_off")
	})

	t.Run("unauthorized caller gets 403 and no mutation", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.seedRequirement(domain.StatusInProgress)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/tools/requirements/status", map[string]string{
			"scout_email":    "scout@example.com",
			"requirement_id": "cooking-4a",
			"status":         "tracking",
		})
		req = testutil.AsScout(req, "other@example.com")
		rr := testutil.DoRequest(f.router, req)

		testutil.AssertStatus(t, rr, http.StatusForbidden)
		got, err := f.store.FindRequirement(context.Background(), "scout@example.com", "cooking-4a")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusInProgress, got.Status)
	})

	t.Run("admin of another troop gets 403", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.seedRequirement(domain.StatusInProgress)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/tools/requirements/status", map[string]string{
			"scout_email":    "scout@example.com",
			"requirement_id": "cooking-4a",
			"status":         "tracking",
		})
		req = testutil.AsTroopAdmin(req, "admin@example.com", "T2")
		rr := testutil.DoRequest(f.router, req)

		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})

	t.Run("unknown status returns 400 before any authorization check", func(t *testing.T) {
		f := newHandlerFixture(t)
		req := testutil.NewJSONRequest(t, http.MethodPost, "/tools/requirements/status", map[string]string{
			"scout_email":    "scout@example.com",
			"requirement_id": "cooking-4a",
			"status":         "done-ish",
		})
		req = testutil.AsSuperuser(req, "admin@example.com")
		rr := testutil.DoRequest(f.router, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("missing requirement returns 404", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.store.AddScout(domain.Scout{Email: "scout@example.com", Troop: "T1"})

		req := testutil.NewJSONRequest(t, http.MethodPost, "/tools/requirements/status", map[string]string{
			"scout_email":    "scout@example.com",
			"requirement_id": "missing",
			"status":         "in_progress",
		})
		req = testutil.AsSuperuser(req, "admin@example.com")
		rr := testutil.DoRequest(f.router, req)

		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})
}

func TestHandleOverrideStatus(t *testing.T) {
	f := newHandlerFixture(t)

	testutil.Given(t, "a blocked requirement and a troop admin", func(t *testing.T) {
		f.seedRequirement(domain.StatusBlocked)
	})

	var rrCode int
	testutil.When(t, "the admin overrides it straight to signed_off with a reason", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/tools/requirements/override", map[string]string{
			"scout_email":    "scout@example.com",
			"requirement_id": "cooking-4a",
			"status":         "signed_off",
			"reason":         "completed at summer camp, paper records verified",
		})
		req = testutil.AsTroopAdmin(req, "admin@example.com", "T1")
		rr := testutil.DoRequest(f.router, req)
		rrCode = rr.Code
	})

	testutil.Then(t, "the transition table is bypassed and the override is audited", func(t *testing.T) {
		require.Equal(t, http.StatusOK, rrCode)

		got, err := f.store.FindRequirement(context.Background(), "scout@example.com", "cooking-4a")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusSignedOff, got.Status)
		require.Len(t, got.Notes, 1)
		assert.Contains(t, got.Notes[0], "blocked -> signed_off")

		entries, err := f.store.ListByScout(context.Background(), "scout@example.com")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, domain.AuditStatusOverridden, entries[0].Action)
	})
}

func TestHandleOverrideStatus_Validation(t *testing.T) {
	t.Run("missing reason returns 400", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.seedRequirement(domain.StatusBlocked)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/tools/requirements/override", map[string]string{
			"scout_email":    "scout@example.com",
			"requirement_id": "cooking-4a",
			"status":         "signed_off",
		})
		req = testutil.AsTroopAdmin(req, "admin@example.com", "T1")
		rr := testutil.DoRequest(f.router, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("scout cannot override their own requirement", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.seedRequirement(domain.StatusBlocked)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/tools/requirements/override", map[string]string{
			"scout_email":    "scout@example.com",
			"requirement_id": "cooking-4a",
			"status":         "signed_off",
			"reason":         "I did it",
		})
		req = testutil.AsScout(req, "scout@example.com")
		rr := testutil.DoRequest(f.router, req)

		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})
}

func TestHandleAddScout(t *testing.T) {
	t.Run("admin adds a scout to their own troop", func(t *testing.T) {
		f := newHandlerFixture(t)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/tools/scouts", map[string]string{
			"email": "  Sam.Vimes@Example.com ",
			"troop": "T1",
		})
		req = testutil.AsTroopAdmin(req, "admin@example.com", "T1")
		rr := testutil.DoRequest(f.router, req)

		testutil.AssertStatus(t, rr, http.StatusCreated)
		scout := testutil.UnmarshalResponse[domain.Scout](t, rr)
		assert.Equal(t, "sam.vimes@example.com", scout.Email)
		assert.Equal(t, "Sam Vimes", scout.Name, "missing name is derived from the email")

		_, err := f.store.FindByEmail(context.Background(), "sam.vimes@example.com")
		assert.NoError(t, err)
	})

	t.Run("explicit name is kept", func(t *testing.T) {
		f := newHandlerFixture(t)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/tools/scouts", map[string]string{
			"email": "kid@example.com",
			"name":  "Kid Named Finger",
			"troop": "T1",
		})
		req = testutil.AsSuperuser(req, "admin@example.com")
		rr := testutil.DoRequest(f.router, req)

		testutil.AssertStatus(t, rr, http.StatusCreated)
		scout := testutil.UnmarshalResponse[domain.Scout](t, rr)
		assert.Equal(t, "Kid Named Finger", scout.Name)
	})

	t.Run("admin of another troop gets 403", func(t *testing.T) {
		f := newHandlerFixture(t)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/tools/scouts", map[string]string{
			"email": "kid@example.com",
			"troop": "T1",
		})
		req = testutil.AsTroopAdmin(req, "admin@example.com", "T2")
		rr := testutil.DoRequest(f.router, req)

		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})

	t.Run("scout role cannot add scouts", func(t *testing.T) {
		f := newHandlerFixture(t)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/tools/scouts", map[string]string{
			"email": "kid@example.com",
			"troop": "T1",
		})
		req = testutil.AsScout(req, "kid@example.com")
		rr := testutil.DoRequest(f.router, req)

		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})

	t.Run("missing troop returns 400", func(t *testing.T) {
		f := newHandlerFixture(t)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/tools/scouts", map[string]string{
			"email": "kid@example.com",
		})
		req = testutil.AsSuperuser(req, "admin@example.com")
		rr := testutil.DoRequest(f.router, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}

func TestHandleGetScout(t *testing.T) {
	t.Run("scout reads their own profile", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.store.AddScout(domain.Scout{Email: "scout@example.com", Name: "Sam", Troop: "T1"})

		req := testutil.NewRequest(t, http.MethodGet, "/tools/scouts/scout@example.com")
		req = testutil.AsScout(req, "scout@example.com")
		rr := testutil.DoRequest(f.router, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		scout := testutil.UnmarshalResponse[domain.Scout](t, rr)
		assert.Equal(t, "Sam", scout.Name)
	})

	t.Run("guide reads an assigned scout", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.store.AddScout(domain.Scout{Email: "scout@example.com", Troop: "T1"})

		req := testutil.NewRequest(t, http.MethodGet, "/tools/scouts/scout@example.com")
		req = testutil.WithIdentity(req, "parent@example.com", domain.NewGuide("scout@example.com"))
		rr := testutil.DoRequest(f.router, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	t.Run("unknown scout returns 404 for an authorized caller", func(t *testing.T) {
		f := newHandlerFixture(t)

		req := testutil.NewRequest(t, http.MethodGet, "/tools/scouts/ghost@example.com")
		req = testutil.AsSuperuser(req, "admin@example.com")
		rr := testutil.DoRequest(f.router, req)

		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})
}

func TestHandleRunPipeline(t *testing.T) {
	t.Run("superuser triggers a run", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.store.AddScout(domain.Scout{Email: "scout@example.com", Troop: "T1"})
		f.store.AddChore(domain.ChoreLog{ScoutEmail: "scout@example.com", LoggedAt: time.Now()})
		f.store.SavePlan(domain.QuestPlan{ScoutEmail: "scout@example.com", LastReviewed: time.Now()})

		req := testutil.NewRequest(t, http.MethodPost, "/pipeline/run")
		req = testutil.AsSuperuser(req, "admin@example.com")
		rr := testutil.DoRequest(f.router, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		summary := testutil.UnmarshalResponse[pipeline.Summary](t, rr)
		assert.Equal(t, 1, summary.ScoutsChecked)
	})

	t.Run("scout role cannot trigger a run", func(t *testing.T) {
		f := newHandlerFixture(t)

		req := testutil.NewRequest(t, http.MethodPost, "/pipeline/run")
		req = testutil.AsScout(req, "scout@example.com")
		rr := testutil.DoRequest(f.router, req)

		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})

	t.Run("run already in progress returns 409", func(t *testing.T) {
		f := newHandlerFixture(t)

		release, acquired, err := f.guard.TryAcquire(context.Background())
		require.NoError(t, err)
		require.True(t, acquired)
		defer release()

		req := testutil.NewRequest(t, http.MethodPost, "/pipeline/run")
		req = testutil.AsSuperuser(req, "admin@example.com")
		rr := testutil.DoRequest(f.router, req)

		testutil.AssertStatus(t, rr, http.StatusConflict)
	})
}
