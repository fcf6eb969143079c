package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/porkyfarm/porcpro/internal/config"
)

// fakeSheetsAPI serves the handful of Sheets v4 endpoints the repository calls.
type fakeSheetsAPI struct {
	mu     sync.Mutex
	tabs   []string
	calls  []string
	values map[string][][]interface{}
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/sheet-1")
	f.calls = append(f.calls, r.Method+" "+path)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && path == "":
		sheets := make([]map[string]any, 0, len(f.tabs))
		for _, t := range f.tabs {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": t}})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"sheets": sheets})
	case r.Method == http.MethodPost && path == ":batchUpdate":
		var req struct {
			Requests []struct {
				AddSheet struct {
					Properties struct {
						Title string `json:"title"`
					} `json:"properties"`
				} `json:"addSheet"`
			} `json:"requests"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			f.tabs = append(f.tabs, rq.AddSheet.Properties.Title)
		}
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		delete(f.values, strings.TrimSuffix(strings.TrimPrefix(path, "/values/"), ":clear"))
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodPut && strings.HasPrefix(path, "/values/"):
		var body struct {
			Values [][]interface{} `json:"values"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.values[strings.TrimPrefix(path, "/values/")] = body.Values
		_, _ = w.Write([]byte(`{}`))
	default:
		http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
	}
}

func newTestRepository(t *testing.T, api *fakeSheetsAPI) *GoogleSheetRepository {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	repo, err := NewGoogleSheetRepository(context.Background(),
		config.SheetsConfig{SpreadsheetID: "sheet-1"}, nil,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return repo
}

func TestReplaceRangeCreatesMissingTabOnce(t *testing.T) {
	ctx := context.Background()
	api := &fakeSheetsAPI{tabs: []string{"Feeding"}, values: map[string][][]interface{}{}}
	repo := newTestRepository(t, api)

	rows := [][]interface{}{{"Date", "Feed type"}, {"2025-03-09", "Grower"}}
	require.NoError(t, repo.ReplaceRange(ctx, "alice_Feeding!A:F", rows))
	require.NoError(t, repo.ReplaceRange(ctx, "alice_Feeding!A:F", rows[:1]))

	assert.Equal(t, []string{"Feeding", "alice_Feeding"}, api.tabs)
	assert.Equal(t, []string{
		"GET ",
		"POST :batchUpdate",
		"POST /values/alice_Feeding!A:F:clear",
		"PUT /values/alice_Feeding!A:F",
		"POST /values/alice_Feeding!A:F:clear",
		"PUT /values/alice_Feeding!A:F",
	}, api.calls)
	assert.Equal(t, [][]interface{}{{"Date", "Feed type"}}, api.values["alice_Feeding!A:F"])
}

func TestReplaceRangeEmptyRowsOnlyClears(t *testing.T) {
	api := &fakeSheetsAPI{tabs: []string{"demo_Feeding"}, values: map[string][][]interface{}{}}
	repo := newTestRepository(t, api)

	require.NoError(t, repo.ReplaceRange(context.Background(), "demo_Feeding!A:F", nil))
	assert.Equal(t, []string{"GET ", "POST /values/demo_Feeding!A:F:clear"}, api.calls)

	assert.ErrorIs(t, repo.ReplaceRange(context.Background(), "", nil), ErrEmptyRange)
}

func TestTabOf(t *testing.T) {
	assert.Equal(t, "Feeding", TabOf("Feeding!A:F"))
	assert.Equal(t, "Feeding", TabOf("Feeding"))
	assert.Equal(t, "Bob's pens", TabOf("'Bob''s pens'!A1"))
}
