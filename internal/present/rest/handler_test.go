package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/xcheck/internal/domain"
	"github.com/totegamma/xcheck/internal/present/rest/middleware"
	"github.com/totegamma/xcheck/internal/usecase"
)

// --- mocks ---

type mockStore struct {
	docs map[domain.Collection]map[string]domain.Fields
	err  error
}

func newMockStore() *mockStore {
	return &mockStore{docs: map[domain.Collection]map[string]domain.Fields{}}
}

func (m *mockStore) put(coll domain.Collection, id string, fields domain.Fields) {
	if m.docs[coll] == nil {
		m.docs[coll] = map[string]domain.Fields{}
	}
	doc := m.docs[coll][id]
	if doc == nil {
		doc = domain.Fields{}
	}
	var normalized domain.Fields
	b, _ := json.Marshal(fields)
	_ = json.Unmarshal(b, &normalized)
	for k, v := range normalized {
		doc[k] = v
	}
	m.docs[coll][id] = doc
}

func (m *mockStore) Get(ctx context.Context, coll domain.Collection, id string, out any) error {
	doc, ok := m.docs[coll][id]
	if !ok {
		return domain.ErrNotFound
	}
	b, _ := json.Marshal(doc)
	return json.Unmarshal(b, out)
}

func (m *mockStore) Upsert(ctx context.Context, coll domain.Collection, id string, fields domain.Fields) error {
	if m.err != nil {
		return m.err
	}
	m.put(coll, id, fields)
	return nil
}

func (m *mockStore) SetAndPush(ctx context.Context, coll domain.Collection, id string, set, push domain.Fields) error {
	if m.err != nil {
		return m.err
	}
	m.put(coll, id, set)
	var normalized domain.Fields
	b, _ := json.Marshal(push)
	_ = json.Unmarshal(b, &normalized)
	for k, v := range normalized {
		list, _ := m.docs[coll][id][k].([]any)
		m.docs[coll][id][k] = append(list, v)
	}
	return nil
}

func (m *mockStore) List(ctx context.Context, coll domain.Collection, filter domain.Fields, out any) error {
	ids := []string{}
	for id := range m.docs[coll] {
		ids = append(ids, id)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))

	docs := []domain.Fields{}
	for _, id := range ids {
		doc := m.docs[coll][id]
		match := true
		for k, v := range filter {
			if doc[k] != v {
				match = false
			}
		}
		if match {
			withID := domain.Fields{"_id": id}
			for k, v := range doc {
				withID[k] = v
			}
			docs = append(docs, withID)
		}
	}
	b, _ := json.Marshal(docs)
	return json.Unmarshal(b, out)
}

type mockContent struct {
	err      error
	uploaded [][]byte
}

func (m *mockContent) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.uploaded = append(m.uploaded, data)
	return "Qm123", nil
}

func (m *mockContent) URI(cid string) string { return domain.DefaultGateway + cid }

type mockLedger struct {
	omitEvent bool
}

func (m *mockLedger) EstimateGas(ctx context.Context, method string, args ...any) (uint64, error) {
	return 0, errors.New("estimation unavailable")
}

func (m *mockLedger) Submit(ctx context.Context, method string, gasLimit uint64, args ...any) (usecase.PendingTxn, error) {
	receipt := domain.Receipt{TxHash: "0xabc"}
	if !m.omitEvent {
		receipt.Events = []domain.LedgerEvent{
			{Name: domain.EventTransfer, Args: map[string]any{"tokenId": big.NewInt(7)}},
			{Name: domain.EventStoredLatestNews, Args: map[string]any{"data": []byte("Qm123")}},
		}
	}
	return &mockPending{receipt: receipt}, nil
}

type mockPending struct {
	receipt domain.Receipt
}

func (m *mockPending) Hash() string { return m.receipt.TxHash }

func (m *mockPending) Confirm(ctx context.Context) (domain.Receipt, error) { return m.receipt, nil }

type mockReader struct{}

func (m *mockReader) TokenIDOf(ctx context.Context, user string) (string, error) { return "7", nil }

func (m *mockReader) VerifyCID(ctx context.Context, tokenID, cid string) (bool, error) {
	return tokenID == "7" && cid == "Qm123", nil
}

func (m *mockReader) VerifyFactCheckerCID(ctx context.Context, cid, factCid string) (bool, error) {
	return false, errors.New("rpc down")
}

type mockAudit struct{}

func (m *mockAudit) History(ctx context.Context, id string) ([]domain.CommitEntry, error) {
	return []domain.CommitEntry{{TxHash: "0xabc", ID: id}}, nil
}

// --- helpers ---

const (
	idA = "64b7f0c2a1b2c3d4e5f6071a"
	idB = "64b7f0c2a1b2c3d4e5f6071b"
)

type fixture struct {
	e       *echo.Echo
	store   *mockStore
	content *mockContent
	ledger  *mockLedger
}

func newFixture(options Options) *fixture {
	store := newMockStore()
	content := &mockContent{}
	ledger := &mockLedger{}
	policy := usecase.DefaultPolicy()

	h := NewHandler(
		options,
		usecase.NewCertificateUsecase(store, content, ledger, nil, policy),
		usecase.NewNewsUsecase(store, content, ledger, nil, policy),
		usecase.NewListingUsecase(store),
		usecase.NewVerifyUsecase(&mockReader{}),
		usecase.NewAuditUsecase(&mockAudit{}),
		nil,
	)

	e := echo.New()
	e.Validator = middleware.NewRequestValidator()
	h.RegisterRoutes(e)
	return &fixture{e: e, store: store, content: content, ledger: ledger}
}

func (f *fixture) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	res := httptest.NewRecorder()
	f.e.ServeHTTP(res, req)

	var out map[string]any
	_ = json.Unmarshal(res.Body.Bytes(), &out)
	return res.Code, out
}

// --- tests ---

func TestHandleRoot(t *testing.T) {
	f := newFixture(Options{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	res := httptest.NewRecorder()
	f.e.ServeHTTP(res, req)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.NotEmpty(t, res.Body.String())
}

func TestHandleOrgRegisterByID(t *testing.T) {
	f := newFixture(Options{})
	f.store.put(domain.CollectionOrganizations, idA, domain.Fields{"org_username": "acme", "org_name": "Acme"})

	code, body := f.do(t, http.MethodPost, "/org/register", map[string]any{"_id": idA})
	require.Equal(t, http.StatusOK, code)

	details := body["orgDetails"].(map[string]any)
	assert.Equal(t, idA, details["_id"])
	assert.Equal(t, "7", details["org_token_id"])
	assert.Equal(t, "0xabc", details["org_transaction_id"])
	assert.Equal(t, "https://ipfs.io/ipfs/Qm123", details["org_pinata_uri"])
	assert.Equal(t, "7", f.store.docs[domain.CollectionOrganizations][idA]["org_token_id"])
}

func TestHandleOrgRegisterFromBody(t *testing.T) {
	f := newFixture(Options{})

	code, body := f.do(t, http.MethodPost, "/org/register", map[string]any{
		"org_name":     "Acme",
		"org_username": "acme",
	})
	require.Equal(t, http.StatusOK, code)

	data := body["data"].(map[string]any)
	assert.Equal(t, "Acme", data["org_name"])
	assert.Equal(t, "7", data["org_token_id"])
	assert.True(t, domain.IsRecordID(data["_id"].(string)))
}

func TestHandleOrgRegisterValidation(t *testing.T) {
	f := newFixture(Options{ValidateRequests: true})

	code, body := f.do(t, http.MethodPost, "/org/register", map[string]any{
		"org_name":     "Acme",
		"org_username": "acme",
		"org_category": "global",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, float64(http.StatusBadRequest), body["code"])

	code, _ = f.do(t, http.MethodPost, "/org/register", map[string]any{
		"org_name":       "Acme",
		"org_legal_name": "Acme Media Ltd",
		"org_legal_type": "Pvt. Ltd.",
		"org_category":   "local",
		"org_type":       "news agency",
		"org_username":   "acme",
	})
	assert.Equal(t, http.StatusOK, code)
}

func TestHandleInvalidID(t *testing.T) {
	f := newFixture(Options{})

	for _, body := range []any{
		map[string]any{"_id": "nope"},
		map[string]any{"_id": 12},
		map[string]any{"_id": ""},
	} {
		code, out := f.do(t, http.MethodPost, "/journalist/register", body)
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, float64(500), out["code"])
		assert.Equal(t, "Internal server error: Invalid _id", out["message"])
	}

	code, out := f.do(t, http.MethodPost, "/news/update-news", map[string]any{"old_id": idA, "new_id": 5})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Internal server error: Invalid _id", out["message"])
}

func TestHandleMalformedBody(t *testing.T) {
	f := newFixture(Options{})

	code, out := f.do(t, http.MethodPost, "/news/submit-news", "{not json")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Internal Server Error", out["message"])
}

func TestHandleMissingEvent(t *testing.T) {
	f := newFixture(Options{})
	f.ledger.omitEvent = true
	f.store.put(domain.CollectionJournalists, idA, domain.Fields{"journalist_username": "ada"})

	code, out := f.do(t, http.MethodPost, "/journalist/register", map[string]any{"_id": idA})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, map[string]any{"code": float64(500), "message": "Internal Server Error"}, out)
	assert.NotContains(t, f.store.docs[domain.CollectionJournalists][idA], "journalist_token_id")
}

func TestHandleUploadFailure(t *testing.T) {
	f := newFixture(Options{})
	f.content.err = errors.New("pinata down")
	f.store.put(domain.CollectionNews, idA, domain.Fields{"news_title": "t"})

	code, out := f.do(t, http.MethodPost, "/news/submit-news", map[string]any{"_id": idA})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Internal Server Error", out["message"])
}

func TestHandleSubmitAndUpdateNews(t *testing.T) {
	f := newFixture(Options{})
	f.store.put(domain.CollectionNews, idA, domain.Fields{"news_title": "v1", "news_authors": []any{"ada"}})
	f.store.put(domain.CollectionNews, idB, domain.Fields{"news_title": "v2", "news_authors": []any{"ada"}})

	code, out := f.do(t, http.MethodPost, "/news/submit-news", map[string]any{"_id": idA})
	require.Equal(t, http.StatusOK, code)
	details := out["newsDetails"].(map[string]any)
	assert.Equal(t, "Qm123", details[domain.FieldLatestPinataID])

	code, out = f.do(t, http.MethodPost, "/news/update-news", map[string]any{"old_id": idA, "new_id": idB})
	require.Equal(t, http.StatusOK, code)
	updated := out[reviseResponseKey].(map[string]any)
	assert.Equal(t, idA, updated["_id"])
	assert.Equal(t, idB, updated["new_mongo_id"])
	assert.Equal(t, "0xabc", updated[domain.FieldLatestTransactionID])

	assert.Equal(t, []any{idB}, f.store.docs[domain.CollectionNews][idA][domain.FieldChildIDs])
}

func TestHandleSubmitNewsBodyKeepsUnmodelledFields(t *testing.T) {
	f := newFixture(Options{})

	code, out := f.do(t, http.MethodPost, "/news/submit-news", map[string]any{
		"news_title":        "fresh",
		"news_authors":      []any{"ada"},
		"is_news_published": false,
		"desk":              "politics",
	})
	require.Equal(t, http.StatusOK, code)
	details := out["newsDetails"].(map[string]any)
	id := details["_id"].(string)

	stored := f.store.docs[domain.CollectionNews][id]
	assert.Equal(t, false, stored["is_news_published"])
	assert.Equal(t, "politics", stored["desk"])

	require.Len(t, f.content.uploaded, 1)
	var uploaded map[string]any
	require.NoError(t, json.Unmarshal(f.content.uploaded[0], &uploaded))
	assert.Equal(t, id, uploaded["_id"])
	assert.Equal(t, false, uploaded["is_news_published"])
	assert.Equal(t, "politics", uploaded["desk"])
}

func TestHandleFactCheck(t *testing.T) {
	f := newFixture(Options{})
	f.store.put(domain.CollectionFactCheck, idB, domain.Fields{"news_title": "rated false"})

	code, out := f.do(t, http.MethodPost, "/news/fact-check", map[string]any{"old_id": idA, "new_id": idB})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, out, reviseResponseKey)
	assert.Contains(t, f.store.docs[domain.CollectionFactCheck], idA)
}

func TestHandleListings(t *testing.T) {
	f := newFixture(Options{})
	f.store.put(domain.CollectionOrganizations, idA, domain.Fields{"org_name": "a", "org_category": "local"})
	f.store.put(domain.CollectionOrganizations, idB, domain.Fields{"org_name": "b", "org_category": "national"})
	f.store.put(domain.CollectionNews, idA, domain.Fields{"news_language": "en"})

	code, out := f.do(t, http.MethodGet, "/organizations", nil)
	require.Equal(t, http.StatusOK, code)
	orgs := out["organizations"].([]any)
	require.Len(t, orgs, 2)
	assert.Equal(t, idB, orgs[0].(map[string]any)["_id"])

	code, out = f.do(t, http.MethodGet, "/organizations?org_category=local", nil)
	require.Equal(t, http.StatusOK, code)
	local := out["organizations_by_org_category"].([]any)
	require.Len(t, local, 1)
	assert.Equal(t, "a", local[0].(map[string]any)["org_name"])

	code, out = f.do(t, http.MethodGet, "/journalists", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{}, out["journalists"])

	code, out = f.do(t, http.MethodGet, "/news?news_language=hi", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{}, out["news_by_Language"])

	code, out = f.do(t, http.MethodGet, "/news", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, out["news"], 1)
}

func TestHandleVerify(t *testing.T) {
	f := newFixture(Options{})

	code, out := f.do(t, http.MethodPost, "/verify/news-cid", map[string]any{"cid": "Qm123", "userAddress": "0xaa"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "present", out["statusOfCid"])

	code, out = f.do(t, http.MethodPost, "/verify/news-cid", map[string]any{"cid": "Qm999", "userAddress": "0xaa"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "not-present", out["statusOfCid"])

	code, _ = f.do(t, http.MethodPost, "/verify/fact-cid", map[string]any{"cid": "Qm1", "factCid": "Qm2"})
	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestHandleTransactions(t *testing.T) {
	f := newFixture(Options{})

	code, out := f.do(t, http.MethodGet, "/transactions/"+idA, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, out["transactions"], 1)

	code, _ = f.do(t, http.MethodGet, "/transactions/xyz", nil)
	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestRealtimeDisabledWithoutSignal(t *testing.T) {
	f := newFixture(Options{})
	code, _ := f.do(t, http.MethodGet, "/realtime", nil)
	assert.Equal(t, http.StatusNotFound, code)
}
