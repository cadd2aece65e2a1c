package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/totegamma/xcheck/internal/domain"
)

// memStore mimics the document semantics of the record stores.
type memStore struct {
	mu      sync.Mutex
	docs    map[domain.Collection]map[string]map[string]any
	upserts int
	pushes  int

	getErr  error
	pushErr error
}

func newMemStore() *memStore {
	return &memStore{docs: map[domain.Collection]map[string]map[string]any{}}
}

func normalize(fields domain.Fields) map[string]any {
	b, err := json.Marshal(fields)
	if err != nil {
		panic(err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		panic(err)
	}
	return out
}

func (m *memStore) seed(coll domain.Collection, id string, v any) {
	fields, err := toFields(v)
	if err != nil {
		panic(err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs[coll] == nil {
		m.docs[coll] = map[string]map[string]any{}
	}
	m.docs[coll][id] = normalize(fields)
}

func (m *memStore) doc(coll domain.Collection, id string) map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.docs[coll][id]
}

func (m *memStore) news(coll domain.Collection, id string) domain.News {
	var n domain.News
	b, _ := json.Marshal(m.doc(coll, id))
	_ = json.Unmarshal(b, &n)
	return n
}

func (m *memStore) Get(ctx context.Context, coll domain.Collection, id string, out any) error {
	if m.getErr != nil {
		return m.getErr
	}
	doc := m.doc(coll, id)
	if doc == nil {
		return domain.NotFoundError{Resource: coll.String()}
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func (m *memStore) Upsert(ctx context.Context, coll domain.Collection, id string, fields domain.Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	if m.docs[coll] == nil {
		m.docs[coll] = map[string]map[string]any{}
	}
	doc := m.docs[coll][id]
	if doc == nil {
		doc = map[string]any{}
	}
	for k, v := range normalize(fields) {
		doc[k] = v
	}
	m.docs[coll][id] = doc
	return nil
}

func (m *memStore) SetAndPush(ctx context.Context, coll domain.Collection, id string, set, push domain.Fields) error {
	if m.pushErr != nil {
		return m.pushErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushes++
	if m.docs[coll] == nil {
		m.docs[coll] = map[string]map[string]any{}
	}
	doc := m.docs[coll][id]
	if doc == nil {
		doc = map[string]any{}
	}
	for k, v := range normalize(set) {
		doc[k] = v
	}
	for k, v := range normalize(push) {
		list, _ := doc[k].([]any)
		doc[k] = append(list, v)
	}
	m.docs[coll][id] = doc
	return nil
}

func (m *memStore) List(ctx context.Context, coll domain.Collection, filter domain.Fields, out any) error {
	m.mu.Lock()
	ids := make([]string, 0, len(m.docs[coll]))
	for id := range m.docs[coll] {
		ids = append(ids, id)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))

	docs := []map[string]any{}
	for _, id := range ids {
		doc := m.docs[coll][id]
		match := true
		for k, v := range filter {
			if doc[k] != v {
				match = false
			}
		}
		if !match {
			continue
		}
		withID := map[string]any{"_id": id}
		for k, v := range doc {
			withID[k] = v
		}
		docs = append(docs, withID)
	}
	m.mu.Unlock()

	b, err := json.Marshal(docs)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func (m *memStore) writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upserts + m.pushes
}

type upload struct {
	name string
	data []byte
}

type mockContent struct {
	cids    []string
	uploads []upload
	err     error
}

func (m *mockContent) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.uploads = append(m.uploads, upload{name: name, data: data})
	if len(m.cids) >= len(m.uploads) {
		return m.cids[len(m.uploads)-1], nil
	}
	return fmt.Sprintf("Qm%d", len(m.uploads)), nil
}

func (m *mockContent) URI(cid string) string {
	return domain.DefaultGateway + cid
}

type ledgerCall struct {
	method   string
	gasLimit uint64
	args     []any
}

type mockLedger struct {
	gas         uint64
	estimateErr error
	submitErr   error
	confirmErr  error
	hashes      []string
	// omitEvent drops the expected event from every receipt.
	omitEvent bool
	tokenID   int64
	calls     []ledgerCall
}

func (m *mockLedger) EstimateGas(ctx context.Context, method string, args ...any) (uint64, error) {
	if m.estimateErr != nil {
		return 0, m.estimateErr
	}
	return m.gas, nil
}

func (m *mockLedger) Submit(ctx context.Context, method string, gasLimit uint64, args ...any) (PendingTxn, error) {
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	m.calls = append(m.calls, ledgerCall{method: method, gasLimit: gasLimit, args: args})
	n := len(m.calls)
	hash := fmt.Sprintf("0x%d", n)
	if len(m.hashes) >= n {
		hash = m.hashes[n-1]
	}

	receipt := domain.Receipt{TxHash: hash, Status: 1}
	if !m.omitEvent {
		switch method {
		case domain.MethodSendCertificate:
			receipt.Events = append(receipt.Events, domain.LedgerEvent{
				Name: domain.EventTransfer,
				Args: map[string]any{"tokenId": big.NewInt(m.tokenID)},
			})
		case domain.MethodSubmitNews:
			receipt.Events = append(receipt.Events, domain.LedgerEvent{
				Name: domain.EventStoredLatestNews,
				Args: map[string]any{"data": []byte(fmt.Sprint(args[0]))},
			})
		}
	}
	return &mockPending{hash: hash, receipt: receipt, err: m.confirmErr}, nil
}

type mockPending struct {
	hash    string
	receipt domain.Receipt
	err     error
}

func (m *mockPending) Hash() string { return m.hash }

func (m *mockPending) Confirm(ctx context.Context) (domain.Receipt, error) {
	if m.err != nil {
		return domain.Receipt{}, m.err
	}
	return m.receipt, nil
}

type mockPublisher struct {
	events []domain.WorkflowEvent
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context, event domain.WorkflowEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

type mockReader struct {
	tokens   map[string]string
	cids     map[string]bool
	facts    map[string]bool
	tokenErr error
}

func (m *mockReader) TokenIDOf(ctx context.Context, user string) (string, error) {
	if m.tokenErr != nil {
		return "", m.tokenErr
	}
	return m.tokens[user], nil
}

func (m *mockReader) VerifyCID(ctx context.Context, tokenID, cid string) (bool, error) {
	return m.cids[tokenID+"/"+cid], nil
}

func (m *mockReader) VerifyFactCheckerCID(ctx context.Context, cid, factCid string) (bool, error) {
	return m.facts[cid+"/"+factCid], nil
}

var errUnavailable = errors.New("unavailable")
