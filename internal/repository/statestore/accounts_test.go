package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"log/slog"

	"github.com/the-auction-games/account-api/internal/domain"
	"github.com/the-auction-games/account-api/internal/repository"
	"github.com/the-auction-games/account-api/internal/sidecar"
)

// fakeSidecar implements enough of the state-store protocol for the adapter:
// keyed get/set/delete plus query with the empty and email-equality filters.
type fakeSidecar struct {
	mu     sync.Mutex
	values map[string]json.RawMessage
}

func newFakeSidecar() *fakeSidecar {
	return &fakeSidecar{values: make(map[string]json.RawMessage)}
}

func (f *fakeSidecar) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case strings.HasSuffix(req.URL.Path, "/query"):
		f.handleQuery(w, req)
	case req.Method == http.MethodPost:
		var pairs []struct {
			Key   string          `json:"key"`
			Value json.RawMessage `json:"value"`
		}
		body, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(body, &pairs); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for _, pair := range pairs {
			f.values[pair.Key] = pair.Value
		}
		w.WriteHeader(http.StatusNoContent)
	case req.Method == http.MethodGet:
		key := req.URL.Path[strings.LastIndex(req.URL.Path, "/")+1:]
		value, ok := f.values[key]
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write(value)
	case req.Method == http.MethodDelete:
		key := req.URL.Path[strings.LastIndex(req.URL.Path, "/")+1:]
		delete(f.values, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeSidecar) handleQuery(w http.ResponseWriter, req *http.Request) {
	var payload struct {
		Filter struct {
			EQ map[string]string `json:"EQ"`
		} `json:"filter"`
	}
	body, _ := io.ReadAll(req.Body)
	if err := json.Unmarshal(body, &payload); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	type entry struct {
		Data json.RawMessage `json:"data"`
	}
	var results []entry
	for _, value := range f.values {
		if email, ok := payload.Filter.EQ["email"]; ok {
			var acc struct {
				Email string `json:"email"`
			}
			if json.Unmarshal(value, &acc) != nil || acc.Email != email {
				continue
			}
		}
		results = append(results, entry{Data: value})
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"results": results})
}

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	srv := httptest.NewServer(newFakeSidecar())
	t.Cleanup(srv.Close)
	client := sidecar.New(0, "accounts", sidecar.WithBaseURL(srv.URL), sidecar.WithHTTPClient(srv.Client()))
	return New(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreateThenGetByID(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	acc := &domain.Account{ID: "t1", Name: "Test", Email: "t1@x.com", Password: "digest"}
	if err := repo.CreateAccount(ctx, acc); err != nil {
		t.Fatalf("CreateAccount returned error: %v", err)
	}

	got, err := repo.GetAccountByID(ctx, "t1")
	if err != nil {
		t.Fatalf("GetAccountByID returned error: %v", err)
	}
	if got.Email != "t1@x.com" || got.Name != "Test" || got.Password != "digest" {
		t.Fatalf("unexpected account: %+v", got)
	}
}

func TestGetByIDMissingMapsToNotFound(t *testing.T) {
	repo := newTestRepository(t)
	if _, err := repo.GetAccountByID(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListAccountsReturnsAllRecords(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		acc := &domain.Account{ID: id, Email: id + "@x.com"}
		if err := repo.CreateAccount(ctx, acc); err != nil {
			t.Fatalf("CreateAccount returned error: %v", err)
		}
	}

	accounts, err := repo.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts returned error: %v", err)
	}
	if len(accounts) != 3 {
		t.Fatalf("expected 3 accounts, got %d", len(accounts))
	}
}

func TestGetAccountByEmail(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.CreateAccount(ctx, &domain.Account{ID: "t1", Email: "t1@x.com"}); err != nil {
		t.Fatalf("CreateAccount returned error: %v", err)
	}
	if err := repo.CreateAccount(ctx, &domain.Account{ID: "t2", Email: "t2@x.com"}); err != nil {
		t.Fatalf("CreateAccount returned error: %v", err)
	}

	got, err := repo.GetAccountByEmail(ctx, "t2@x.com")
	if err != nil {
		t.Fatalf("GetAccountByEmail returned error: %v", err)
	}
	if got.ID != "t2" {
		t.Fatalf("unexpected account id %q", got.ID)
	}

	if _, err := repo.GetAccountByEmail(ctx, "nobody@x.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateOverwritesRecord(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.CreateAccount(ctx, &domain.Account{ID: "t1", Name: "Old", Email: "t1@x.com"}); err != nil {
		t.Fatalf("CreateAccount returned error: %v", err)
	}
	if err := repo.UpdateAccount(ctx, &domain.Account{ID: "t1", Name: "New", Email: "t1@x.com"}); err != nil {
		t.Fatalf("UpdateAccount returned error: %v", err)
	}

	got, err := repo.GetAccountByID(ctx, "t1")
	if err != nil {
		t.Fatalf("GetAccountByID returned error: %v", err)
	}
	if got.Name != "New" {
		t.Fatalf("expected updated name, got %q", got.Name)
	}
}

func TestDeleteRemovesRecord(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.CreateAccount(ctx, &domain.Account{ID: "t1", Email: "t1@x.com"}); err != nil {
		t.Fatalf("CreateAccount returned error: %v", err)
	}
	if err := repo.DeleteAccount(ctx, "t1"); err != nil {
		t.Fatalf("DeleteAccount returned error: %v", err)
	}
	if _, err := repo.GetAccountByID(ctx, "t1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
