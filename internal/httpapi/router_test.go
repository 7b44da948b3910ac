package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	gormsqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/suPer8Hu/pairhub/internal/conversation"
	"github.com/suPer8Hu/pairhub/internal/httpapi/handlers"
	"github.com/suPer8Hu/pairhub/internal/observe"
	"github.com/suPer8Hu/pairhub/internal/staging"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type fakePublisher struct {
	mu     sync.Mutex
	jobs   [][2]any
	failAt int
}

func (p *fakePublisher) PublishPairJob(_ context.Context, a, b any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failAt > 0 && len(p.jobs)+1 == p.failAt {
		return errors.New("broker down")
	}
	p.jobs = append(p.jobs, [2]any{a, b})
	return nil
}

func newTestRouter(t *testing.T, jobs handlers.PairJobPublisher) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(conversation.Models()...))

	obs := observe.Discard()
	svc := conversation.NewService(
		conversation.NewPairStore(db, obs),
		conversation.NewSummaryStore(db, obs),
		staging.NewMemoryStore(0, 0),
		obs,
	)
	return NewRouter(handlers.NewHandler(svc, jobs, obs), obs)
}

func do(t *testing.T, r http.Handler, method, path string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

const submission = `{
  "content": {"messages": [{"sender": "user", "text": "hello"}]},
  "summary": {"noidung": "greeting", "hoancanh": "test", "so_cau": 1}
}`

func TestPing(t *testing.T) {
	r := newTestRouter(t, nil)
	status, env := do(t, r, http.MethodGet, "/ping", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 0, env.Code)
}

func TestPairsFlow(t *testing.T) {
	r := newTestRouter(t, nil)

	status, env := do(t, r, http.MethodPost, "/pairs", map[string]any{"deviceA": "device_33", "deviceB": "device_10"})
	require.Equal(t, http.StatusOK, status)
	var created conversation.DevicePair
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Equal(t, "pair_10_33", created.ID)

	status, env = do(t, r, http.MethodPost, "/pairs", map[string]any{"deviceA": 10, "deviceB": 33})
	require.Equal(t, http.StatusOK, status)
	var again conversation.DevicePair
	require.NoError(t, json.Unmarshal(env.Data, &again))
	require.Equal(t, created.TempPairID, again.TempPairID)

	status, env = do(t, r, http.MethodGet, "/pairs/"+created.TempPairID, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = do(t, r, http.MethodGet, "/pairs", nil)
	require.Equal(t, http.StatusOK, status)
	var all []conversation.DevicePair
	require.NoError(t, json.Unmarshal(env.Data, &all))
	require.Len(t, all, 1)

	status, env = do(t, r, http.MethodGet, "/pairs/pair_1_2", nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, 40401, env.Code)
}

func TestCreatePair_RequiresBothDevices(t *testing.T) {
	r := newTestRouter(t, nil)

	status, env := do(t, r, http.MethodPost, "/pairs", map[string]any{"deviceA": "x"})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, 10002, env.Code)

	status, env = do(t, r, http.MethodPost, "/pairs", "{bad")
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, 10001, env.Code)
}

func TestConversationFlow(t *testing.T) {
	r := newTestRouter(t, nil)

	_, env := do(t, r, http.MethodPost, "/pairs", map[string]any{"deviceA": "A", "deviceB": "B"})
	var pair conversation.DevicePair
	require.NoError(t, json.Unmarshal(env.Data, &pair))

	status, env := do(t, r, http.MethodPost, "/conversations", map[string]any{
		"pairId":   pair.ID,
		"jsonData": json.RawMessage(submission),
	})
	require.Equal(t, http.StatusOK, status, string(env.Data))
	var res conversation.SubmitResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.Equal(t, pair.ID, res.PairID)

	status, env = do(t, r, http.MethodGet, "/conversations/staged/"+res.TempConversationID, nil)
	require.Equal(t, http.StatusOK, status)
	var content conversation.Content
	require.NoError(t, json.Unmarshal(env.Data, &content))
	require.Equal(t, "hello", content.Messages[0].Text)

	status, env = do(t, r, http.MethodGet, "/pairs/"+pair.PairHash+"/summaries?limit=5", nil)
	require.Equal(t, http.StatusOK, status)
	var sums []conversation.Summary
	require.NoError(t, json.Unmarshal(env.Data, &sums))
	require.Len(t, sums, 1)
	require.Equal(t, "greeting", sums[0].Noidung)

	status, env = do(t, r, http.MethodDelete, "/conversations/staged/"+res.TempConversationID, nil)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"cleared":true}`, string(env.Data))

	status, env = do(t, r, http.MethodDelete, "/conversations/staged/"+res.TempConversationID, nil)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"cleared":false}`, string(env.Data))

	status, env = do(t, r, http.MethodGet, "/conversations/staged/"+res.TempConversationID, nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, 40402, env.Code)
}

func TestSubmit_Rejections(t *testing.T) {
	r := newTestRouter(t, nil)
	_, env := do(t, r, http.MethodPost, "/pairs", map[string]any{"deviceA": "A", "deviceB": "B"})
	var pair conversation.DevicePair
	require.NoError(t, json.Unmarshal(env.Data, &pair))

	status, env := do(t, r, http.MethodPost, "/conversations", map[string]any{"pairId": pair.ID})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, 10002, env.Code)

	status, env = do(t, r, http.MethodPost, "/conversations", map[string]any{
		"pairId":   pair.ID,
		"jsonData": map[string]any{"content": map[string]any{}, "summary": map[string]any{}},
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, 40001, env.Code)
	var data struct {
		Errors []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Errors, 4)

	status, env = do(t, r, http.MethodPost, "/conversations", map[string]any{
		"pairId":   "pair_404_405",
		"jsonData": json.RawMessage(submission),
	})
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, 40401, env.Code)

	status, env = do(t, r, http.MethodGet, "/pairs/nope/summaries", nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, 40401, env.Code)
}

func TestBatchPairs(t *testing.T) {
	status, env := do(t, newTestRouter(t, nil), http.MethodPost, "/pairs/batch", map[string]any{})
	require.Equal(t, http.StatusServiceUnavailable, status)
	require.Equal(t, 50301, env.Code)

	pub := &fakePublisher{}
	r := newTestRouter(t, pub)

	status, env = do(t, r, http.MethodPost, "/pairs/batch", map[string]any{
		"pairs": []map[string]any{
			{"deviceA": "device_1", "deviceB": "device_2"},
			{"deviceA": 3, "deviceB": 4},
		},
	})
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"queued":2}`, string(env.Data))
	require.Len(t, pub.jobs, 2)

	status, env = do(t, r, http.MethodPost, "/pairs/batch", map[string]any{"pairs": []any{}})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, 10003, env.Code)

	status, env = do(t, r, http.MethodPost, "/pairs/batch", map[string]any{
		"pairs": []map[string]any{{"deviceA": "only"}},
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, 10002, env.Code)

	failing := &fakePublisher{failAt: 2}
	status, env = do(t, newTestRouter(t, failing), http.MethodPost, "/pairs/batch", map[string]any{
		"pairs": []map[string]any{
			{"deviceA": "a", "deviceB": "b"},
			{"deviceA": "c", "deviceB": "d"},
		},
	})
	require.Equal(t, http.StatusBadGateway, status)
	require.JSONEq(t, `{"queued":1}`, string(env.Data))
}

func TestSummaryLatestAndDelete(t *testing.T) {
	r := newTestRouter(t, nil)
	_, env := do(t, r, http.MethodPost, "/pairs", map[string]any{"deviceA": "A", "deviceB": "B"})
	var pair conversation.DevicePair
	require.NoError(t, json.Unmarshal(env.Data, &pair))

	status, env := do(t, r, http.MethodGet, "/pairs/"+pair.ID+"/summaries/latest", nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, 40403, env.Code)

	var ids []uint64
	for i := 0; i < 2; i++ {
		_, env = do(t, r, http.MethodPost, "/conversations", map[string]any{
			"pairId":   pair.ID,
			"jsonData": json.RawMessage(submission),
		})
		var res conversation.SubmitResult
		require.NoError(t, json.Unmarshal(env.Data, &res))
		ids = append(ids, res.SummaryID)
	}

	status, env = do(t, r, http.MethodGet, "/pairs/"+pair.TempPairID+"/summaries/latest", nil)
	require.Equal(t, http.StatusOK, status)
	var latest conversation.Summary
	require.NoError(t, json.Unmarshal(env.Data, &latest))
	require.Equal(t, ids[1], latest.ID)

	path := "/summaries/" + strconv.FormatUint(ids[1], 10)
	status, env = do(t, r, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"deleted":true}`, string(env.Data))

	status, env = do(t, r, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"deleted":false}`, string(env.Data))

	_, env = do(t, r, http.MethodGet, "/pairs/"+pair.ID+"/summaries/latest", nil)
	require.NoError(t, json.Unmarshal(env.Data, &latest))
	require.Equal(t, ids[0], latest.ID)

	status, env = do(t, r, http.MethodDelete, "/summaries/abc", nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, 10004, env.Code)
}

func TestNoRoute(t *testing.T) {
	status, env := do(t, newTestRouter(t, nil), http.MethodGet, "/nope", nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, 40400, env.Code)
}
