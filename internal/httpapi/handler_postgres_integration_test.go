package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"linkmap/core-go/internal/db"
)

func requireTestDatabaseURL(t *testing.T) string {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres integration test")
	}
	return dsn
}

func mustDeriveDatabaseURL(t *testing.T, baseURL, dbName string) string {
	t.Helper()

	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		t.Skipf("TEST_DATABASE_URL must be a URL-style DSN (e.g. postgres://...); got %q", baseURL)
	}

	u.Path = "/" + dbName
	return u.String()
}

func newTestDatabaseName() string {
	// Safe identifier (letters/digits/underscores) so we can use it without quoting.
	return fmt.Sprintf("linkmap_test_%d", time.Now().UnixNano())
}

func createDatabase(ctx context.Context, adminURL, dbName string) error {
	adminConn, err := pgx.Connect(ctx, adminURL)
	if err != nil {
		return err
	}
	defer adminConn.Close(ctx)

	_, err = adminConn.Exec(ctx, "CREATE DATABASE "+dbName)
	return err
}

func dropDatabase(ctx context.Context, adminURL, dbName string) error {
	adminConn, err := pgx.Connect(ctx, adminURL)
	if err != nil {
		return err
	}
	defer adminConn.Close(ctx)

	if _, err := adminConn.Exec(ctx, "DROP DATABASE "+dbName+" WITH (FORCE)"); err == nil {
		return nil
	}
	_, err = adminConn.Exec(ctx, "DROP DATABASE "+dbName)
	return err
}

// openTestPool creates a throwaway database with the embedded schema applied.
func openTestPool(t *testing.T, ctx context.Context) *db.Pool {
	t.Helper()
	adminURL := requireTestDatabaseURL(t)

	dbName := newTestDatabaseName()
	testDBURL := mustDeriveDatabaseURL(t, adminURL, dbName)
	if err := createDatabase(ctx, adminURL, dbName); err != nil {
		t.Fatalf("create database: %v", err)
	}
	t.Cleanup(func() {
		_ = dropDatabase(context.Background(), adminURL, dbName)
	})

	pool, err := db.Open(ctx, testDBURL)
	if err != nil {
		t.Fatalf("open db pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.ApplySchema(ctx); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return pool
}

func TestHandler_Postgres_ImportThenMap(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	pool := openTestPool(t, ctx)

	router := NewHandler(NewLogger("error"), pool).Router()

	rr := do(router, http.MethodGet, "/readyz", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("readyz expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = postCSV(router, "/api/v1/import", importCSV)
	if rr.Code != http.StatusOK {
		t.Fatalf("import expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	// Re-running the same export must not duplicate anything.
	rr = postCSV(router, "/api/v1/import", importCSV)
	if rr.Code != http.StatusOK {
		t.Fatalf("re-import expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	stats := decodeBody(t, rr)["stats"].(map[string]any)
	if stats["links_imported"].(float64) != 0 || stats["links_skipped_duplicate"].(float64) != 2 {
		t.Fatalf("expected duplicates skipped on re-import, got %v", stats)
	}

	rr = do(router, http.MethodGet, "/api/v1/map", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("map expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	m := decodeMap(t, rr.Body.Bytes())
	if len(m.Sites) != 3 || len(m.Links) != 2 || m.Dropped != 0 {
		t.Fatalf("unexpected map sites=%d links=%d dropped=%d", len(m.Sites), len(m.Links), m.Dropped)
	}
	if m.Links[0].ClientName == nil || *m.Links[0].ClientName != "TELKOMSEL" {
		t.Fatalf("expected joined client name, got %+v", m.Links[0].Link)
	}

	var sites []site
	rr = do(router, http.MethodGet, "/api/v1/sites?q=bdg", "")
	_ = json.Unmarshal(rr.Body.Bytes(), &sites)
	if rr.Code != http.StatusOK || len(sites) != 1 || sites[0].ID != "BDG-02" {
		t.Fatalf("expected ILIKE search to find BDG-02, got %d %+v", rr.Code, sites)
	}
	rr = do(router, http.MethodGet, "/api/v1/sites?q=%25", "")
	_ = json.Unmarshal(rr.Body.Bytes(), &sites)
	if len(sites) != 0 {
		t.Fatalf("expected %% to match literally, got %+v", sites)
	}

	// A link created after the import gets the next id, not a collision.
	rr = do(router, http.MethodPost, "/api/v1/links", `{"appl_id":"A9","site_from":"BDG-02","site_to":"SBY-03"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create link expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandler_Postgres_ReferentialConflicts(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	pool := openTestPool(t, ctx)

	router := NewHandler(NewLogger("error"), pool).Router()

	rr := do(router, http.MethodPost, "/api/v1/clients", `{"name":"XL Axiata"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create client expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	clientID := int64(decodeBody(t, rr)["id"].(float64))

	for _, body := range []string{
		`{"id":"S1","name":"One","lat":-6.2,"lon":106.8}`,
		`{"id":"S2","name":"Two","lat":-6.3,"lon":106.9}`,
	} {
		if rr := do(router, http.MethodPost, "/api/v1/sites", body); rr.Code != http.StatusCreated {
			t.Fatalf("create site expected 201, got %d: %s", rr.Code, rr.Body.String())
		}
	}
	if rr := do(router, http.MethodPost, "/api/v1/sites", `{"id":"S1","name":"Again","lat":1,"lon":1}`); rr.Code != http.StatusConflict {
		t.Fatalf("duplicate site expected 409, got %d", rr.Code)
	}

	rr = do(router, http.MethodPost, "/api/v1/links", fmt.Sprintf(`{"appl_id":"X1","client_id":%d,"site_from":"S1","site_to":"S2"}`, clientID))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create link expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr := do(router, http.MethodPost, "/api/v1/links", `{"appl_id":"X2","site_from":"S1","site_to":"NOPE"}`); rr.Code != http.StatusConflict {
		t.Fatalf("unknown site expected 409, got %d", rr.Code)
	}

	if rr := do(router, http.MethodDelete, fmt.Sprintf("/api/v1/clients/%d", clientID), ""); rr.Code != http.StatusConflict {
		t.Fatalf("delete referenced client expected 409, got %d", rr.Code)
	}
	if rr := do(router, http.MethodDelete, "/api/v1/sites/S2", ""); rr.Code != http.StatusConflict {
		t.Fatalf("delete referenced site expected 409, got %d", rr.Code)
	}

	if rr := do(router, http.MethodPost, "/api/v1/schema", ""); rr.Code != http.StatusOK {
		t.Fatalf("re-applying schema expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}
