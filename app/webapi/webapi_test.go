package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-pkgz/routegroup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umnov/tg-neuromod/app/bot"
	botmocks "github.com/umnov/tg-neuromod/app/bot/mocks"
	"github.com/umnov/tg-neuromod/app/storage"
	"github.com/umnov/tg-neuromod/app/storage/engine"
)

type apiTestEnv struct {
	ts         *httptest.Server
	classifier *botmocks.SpamClassifierMock
	examples   *storage.Examples
	ledger     *storage.Ledger
	groups     *storage.Groups
	referrals  *storage.Referrals
}

func setupAPI(t *testing.T) *apiTestEnv {
	t.Helper()
	ctx := context.Background()

	db, err := engine.NewSqlite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	examples, err := storage.NewExamples(ctx, db)
	require.NoError(t, err)
	ledger, err := storage.NewLedger(ctx, db, storage.DefaultInitialCredits)
	require.NoError(t, err)
	groups, err := storage.NewGroups(ctx, db)
	require.NoError(t, err)
	referrals, err := storage.NewReferrals(ctx, db)
	require.NoError(t, err)

	classifier := &botmocks.SpamClassifierMock{}
	moderator := bot.NewModerator(classifier, groups, ledger, examples, bot.ModeratorConfig{})

	srv := NewServer(Config{
		Version:    "test",
		Classifier: classifier,
		Examples:   examples,
		Ledger:     ledger,
		Payments:   moderator,
	})
	router := routegroup.New(http.NewServeMux())
	srv.routes(router)
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)

	return &apiTestEnv{ts: ts, classifier: classifier, examples: examples,
		ledger: ledger, groups: groups, referrals: referrals}
}

func (e *apiTestEnv) call(t *testing.T, method, path string, body string) (int, map[string]any) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, rdr)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	res := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return resp.StatusCode, res
}

func TestServer_Check(t *testing.T) {
	t.Run("spam detected", func(t *testing.T) {
		env := setupAPI(t)
		env.classifier.CheckFunc = func(ctx context.Context, req bot.ClassifyRequest) (int, error) {
			return 85, nil
		}

		code, res := env.call(t, http.MethodPost, "/check",
			`{"text": "buy crypto", "name": "spammer", "admin_id": 42}`)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, true, res["spam"])
		assert.Equal(t, float64(85), res["score"])

		require.Len(t, env.classifier.CheckCalls(), 1)
		req := env.classifier.CheckCalls()[0].Req
		assert.Equal(t, "buy crypto", req.Text)
		assert.Equal(t, int64(42), req.AdminID)
	})

	t.Run("ham", func(t *testing.T) {
		env := setupAPI(t)
		env.classifier.CheckFunc = func(ctx context.Context, req bot.ClassifyRequest) (int, error) {
			return -70, nil
		}

		code, res := env.call(t, http.MethodPost, "/check", `{"text": "hello"}`)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, false, res["spam"])
	})

	t.Run("positive score below the threshold is not spam", func(t *testing.T) {
		env := setupAPI(t)
		env.classifier.CheckFunc = func(ctx context.Context, req bot.ClassifyRequest) (int, error) {
			return 30, nil
		}

		code, res := env.call(t, http.MethodPost, "/check", `{"text": "maybe an ad"}`)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, false, res["spam"])
		assert.Equal(t, float64(30), res["score"])
	})

	t.Run("score at the threshold is not spam", func(t *testing.T) {
		env := setupAPI(t)
		env.classifier.CheckFunc = func(ctx context.Context, req bot.ClassifyRequest) (int, error) {
			return 50, nil
		}

		code, res := env.call(t, http.MethodPost, "/check", `{"text": "borderline"}`)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, false, res["spam"])
	})

	t.Run("bad request", func(t *testing.T) {
		env := setupAPI(t)
		code, res := env.call(t, http.MethodPost, "/check", `not a json`)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Contains(t, res["error"], "can't decode")
	})

	t.Run("classifier failure", func(t *testing.T) {
		env := setupAPI(t)
		env.classifier.CheckFunc = func(ctx context.Context, req bot.ClassifyRequest) (int, error) {
			return 0, fmt.Errorf("llm is down")
		}
		code, _ := env.call(t, http.MethodPost, "/check", `{"text": "hello"}`)
		assert.Equal(t, http.StatusInternalServerError, code)
	})
}

func TestServer_Examples(t *testing.T) {
	env := setupAPI(t)

	t.Run("add and read", func(t *testing.T) {
		code, res := env.call(t, http.MethodPost, "/examples",
			`{"text": "spam text", "score": 90, "admin_id": 42}`)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, true, res["added"])

		code, res = env.call(t, http.MethodGet, "/examples?admin_id=42", "")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, float64(1), res["count"])
	})

	t.Run("invalid example rejected", func(t *testing.T) {
		code, _ := env.call(t, http.MethodPost, "/examples", `{"text": "no score"}`)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("missing admin_id", func(t *testing.T) {
		code, res := env.call(t, http.MethodGet, "/examples", "")
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Contains(t, res["error"], "bad admin_id")
	})

	t.Run("stats", func(t *testing.T) {
		code, res := env.call(t, http.MethodGet, "/examples/stats", "")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, float64(1), res["TotalSpam"])
		assert.Equal(t, float64(1), res["PerAdmin"])
	})

	t.Run("delete", func(t *testing.T) {
		code, res := env.call(t, http.MethodDelete, "/examples", `{"admin_id": 42, "text": "spam text"}`)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, true, res["deleted"])

		code, res = env.call(t, http.MethodDelete, "/examples", `{"admin_id": 42, "text": "spam text"}`)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, false, res["deleted"], "already gone")
	})
}

func TestServer_Balance(t *testing.T) {
	env := setupAPI(t)
	ctx := context.Background()

	_, err := env.ledger.InitializeNewAdmin(ctx, 42)
	require.NoError(t, err)
	ok, err := env.ledger.DeductCredits(ctx, 42, 30)
	require.NoError(t, err)
	require.True(t, ok)

	code, res := env.call(t, http.MethodGet, "/balance?admin_id=42", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(70), res["credits"])
	assert.Equal(t, float64(30), res["spent_last_week"])
	assert.Len(t, res["transactions"], 2, "initial grant and the deduction")

	t.Run("unknown admin", func(t *testing.T) {
		code, res := env.call(t, http.MethodGet, "/balance?admin_id=777", "")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, float64(0), res["credits"])
	})

	t.Run("bad admin_id", func(t *testing.T) {
		code, _ := env.call(t, http.MethodGet, "/balance?admin_id=abc", "")
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func TestServer_Payment(t *testing.T) {
	env := setupAPI(t)
	ctx := context.Background()

	// referred admin with a lapsed group
	require.NoError(t, env.groups.UpdateAdmins(ctx, -100, "grp", []int64{42}, 0))
	require.NoError(t, env.groups.SetModeration(ctx, -100, false))
	saved, err := env.referrals.Save(ctx, 42, 7)
	require.NoError(t, err)
	require.True(t, saved)

	code, res := env.call(t, http.MethodPost, "/payment", `{"admin_id": 42, "amount": 200}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, res["processed"])

	credits, err := env.ledger.Credits(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 200, credits)

	enabled, err := env.groups.ModerationEnabled(ctx, -100)
	require.NoError(t, err)
	assert.True(t, enabled, "payment reactivates the lapsed group")

	commission, err := env.ledger.TotalEarnings(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 20, commission)

	t.Run("non-positive amount", func(t *testing.T) {
		code, res := env.call(t, http.MethodPost, "/payment", `{"admin_id": 42, "amount": 0}`)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Contains(t, res["error"], "positive")
	})
}
