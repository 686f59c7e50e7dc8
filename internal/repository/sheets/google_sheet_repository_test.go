package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func newTestRepository(t *testing.T, handler http.HandlerFunc) *GoogleSheetRepository {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	repo, err := newGoogleSheetRepository(context.Background(), "sheet-1", nil,
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return repo
}

func TestAppendRows(t *testing.T) {
	var gotPath, gotQuery string
	var gotBody map[string]any
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})

	err := repo.AppendRows(context.Background(), "Outflow!A:I", [][]interface{}{{"o-1", "2024-06-01", 72}})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(gotPath, ":append"), gotPath)
	assert.Contains(t, gotPath, "/spreadsheets/sheet-1/values/")
	assert.Contains(t, gotQuery, "valueInputOption=USER_ENTERED")
	assert.Contains(t, gotQuery, "insertDataOption=INSERT_ROWS")
	require.Contains(t, gotBody, "values")
}

func TestAppendRowsEdgeCases(t *testing.T) {
	calls := 0
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"forbidden"}}`))
	})

	assert.Error(t, repo.AppendRows(context.Background(), "", [][]interface{}{{"x"}}))
	assert.NoError(t, repo.AppendRows(context.Background(), "Outflow!A:I", nil))
	assert.Zero(t, calls)

	assert.Error(t, repo.AppendRows(context.Background(), "Outflow!A:I", [][]interface{}{{"x"}}))
	assert.Equal(t, 1, calls)
}

func TestReadRange(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"range":"Outflow!A1:A3","values":[["id"],["o-1"],["o-2"]]}`))
	})

	rows, err := repo.ReadRange(context.Background(), "Outflow!A:A")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "o-2", rows[2][0])

	_, err = repo.ReadRange(context.Background(), "")
	assert.Error(t, err)
}
