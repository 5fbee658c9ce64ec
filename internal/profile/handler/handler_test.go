package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dailybit/internal/platform/logger"
	"dailybit/internal/profile/models"
	"dailybit/internal/profile/store/memory"
	id "dailybit/pkg/domain"
	"dailybit/pkg/testutil"
)

func newRouter(t *testing.T) (http.Handler, id.AccountID, id.AccountID) {
	t.Helper()
	store := memory.NewInMemoryStore()
	custom := id.AccountID(uuid.New())
	plain := id.AccountID(uuid.New())
	require.NoError(t, store.Save(context.Background(), models.Profile{ID: custom, CustomSkillMD: "# My skill"}))
	require.NoError(t, store.Save(context.Background(), models.Profile{ID: plain}))

	r := chi.NewRouter()
	New(store, logger.Discard(), "/SKILL.md").Register(r)
	return r, custom, plain
}

func TestHandleSkill(t *testing.T) {
	router, custom, plain := newRouter(t)

	t.Run("missing user_id is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/user/skill", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("custom skill is served as markdown", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/user/skill?user_id="+custom.String(), nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "# My skill", rec.Body.String())
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/markdown")
	})

	for name, userID := range map[string]string{
		"account without custom skill": plain.String(),
		"unknown account":              uuid.NewString(),
		"malformed id":                 "not-a-uuid",
	} {
		t.Run(name+" redirects to global skill", func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/user/skill?user_id="+userID, nil))
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, "/SKILL.md", rec.Header().Get("Location"))
		})
	}
}

func TestHandleSetSkill(t *testing.T) {
	ctx := context.Background()
	store := memory.NewInMemoryStore()
	pro := id.AccountID(uuid.New())
	free := id.AccountID(uuid.New())
	require.NoError(t, store.Save(ctx, models.Profile{ID: pro, Tier: models.TierPro}))
	require.NoError(t, store.Save(ctx, models.Profile{ID: free}))

	h := New(store, logger.Discard(), "/SKILL.md")
	r := chi.NewRouter()
	h.Register(r)
	h.RegisterUser(r)

	put := func(accountID *id.AccountID, body string) *httptest.ResponseRecorder {
		req := testutil.NewRequest(http.MethodPut, "/api/user/skill", body)
		if accountID != nil {
			req = testutil.WithAccount(req, *accountID)
		}
		return testutil.DoRequest(r, req)
	}

	t.Run("requires a session", func(t *testing.T) {
		rec := put(nil, `{"custom_skill_md":"# x"}`)
		testutil.AssertStatusAndError(t, rec, http.StatusUnauthorized, "Unauthorized")
	})

	t.Run("free accounts are forbidden", func(t *testing.T) {
		rec := put(&free, `{"custom_skill_md":"# x"}`)
		testutil.AssertStatusAndError(t, rec, http.StatusForbidden, models.MsgProRequired)
		md, err := store.CustomSkill(ctx, free)
		require.NoError(t, err)
		assert.Empty(t, md)
	})

	t.Run("bad body", func(t *testing.T) {
		rec := put(&pro, `{`)
		testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "Invalid JSON body")
	})

	t.Run("pro write is served by the public route", func(t *testing.T) {
		rec := put(&pro, `{"custom_skill_md":"# Pro skill\n"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

		rec = testutil.DoRequest(r, testutil.NewRequest(http.MethodGet, "/api/user/skill?user_id="+pro.String(), ""))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "# Pro skill", rec.Body.String())
	})

	t.Run("blank document clears back to the global skill", func(t *testing.T) {
		rec := put(&pro, `{"custom_skill_md":"  "}`)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = testutil.DoRequest(r, testutil.NewRequest(http.MethodGet, "/api/user/skill?user_id="+pro.String(), ""))
		assert.Equal(t, http.StatusFound, rec.Code)
	})
}
