package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/youi/backend/internal/models"
)

func TestRunRejectsUnknownCommand(t *testing.T) {
	if err := Run(context.Background(), nil); err == nil {
		t.Fatal("expected usage error")
	}
	if err := Run(context.Background(), []string{"dance"}); err == nil || !strings.Contains(err.Error(), "dance") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestHashKey(t *testing.T) {
	var out bytes.Buffer
	if err := hashKey(nil, strings.NewReader("  s3cret \n"), &out); err != nil {
		t.Fatalf("hashKey() error = %v", err)
	}
	hashed := strings.TrimSpace(out.String())
	if bcrypt.CompareHashAndPassword([]byte(hashed), []byte("s3cret")) != nil {
		t.Fatalf("hash %q does not verify", hashed)
	}

	if err := hashKey(nil, strings.NewReader("\n"), &out); err == nil {
		t.Fatal("expected empty key to be rejected")
	}
}

func TestListMigrationsSortsSQLFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_b.sql", "0001_a.sql", "README.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "0003_dir.sql"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := listMigrations(dir)
	if err != nil {
		t.Fatalf("listMigrations() error = %v", err)
	}
	if want := []string{"0001_a.sql", "0002_b.sql"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v got %v", want, got)
	}
}

func TestShippedMigrationsAreListed(t *testing.T) {
	got, err := listMigrations(filepath.Join("..", "..", "migrations"))
	if err != nil {
		t.Fatalf("listMigrations() error = %v", err)
	}
	if len(got) == 0 || got[0] != "0001_credentials.sql" {
		t.Fatalf("unexpected migrations %v", got)
	}
}

func TestMigrationBackoff(t *testing.T) {
	if got := migrationBackoff(1); got != migrationBaseBackoff {
		t.Fatalf("expected base backoff got %v", got)
	}
	if got := migrationBackoff(2); got != 2*migrationBaseBackoff {
		t.Fatalf("expected doubled backoff got %v", got)
	}
	if got := migrationBackoff(40); got != migrationMaxBackoff {
		t.Fatalf("expected capped backoff got %v", got)
	}
}

func TestShouldRetryMigration(t *testing.T) {
	cases := map[string]struct {
		err  error
		want bool
	}{
		"nil":           {nil, false},
		"serialization": {fmt.Errorf("apply: %w", &pgconn.PgError{Code: "40001"}), true},
		"syntax":        {&pgconn.PgError{Code: "42601"}, false},
		"deadline":      {context.DeadlineExceeded, true},
		"plain":         {errors.New("boom"), false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := shouldRetryMigration(tc.err); got != tc.want {
				t.Fatalf("expected %v got %v", tc.want, got)
			}
		})
	}
}

func TestRunMigrationsRequiresDatabaseURL(t *testing.T) {
	cfg := testConfig(t)
	if err := runMigrations(context.Background(), cfg, nil, &bytes.Buffer{}); err == nil {
		t.Fatal("expected missing database url error")
	}
}

func TestRunChatAgainstBackend(t *testing.T) {
	var requests []models.ToolRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/status":
			_, _ = w.Write([]byte(`{"loggedIn":false}`))
		case "/mcp":
			var req models.ToolRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode: %v", err)
				return
			}
			requests = append(requests, req)
			_, _ = w.Write([]byte(`{"items":[{"id":{"videoId":"v1"},"snippet":{"title":"Lofi Girl","channelId":"c1","channelTitle":"Lofi"}}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	t.Setenv("YOUI_BACKEND_URL", srv.URL)
	t.Setenv("YOUI_STATE_DB", filepath.Join(t.TempDir(), "state.db"))
	t.Setenv("YOUI_UPSTREAM_TIMEOUT", "2s")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var out bytes.Buffer
	if err := runChat(ctx, strings.NewReader("lofi\n/open 1\n/quit\n"), &out); err != nil {
		t.Fatalf("runChat() error = %v", err)
	}

	text := out.String()
	for _, want := range []string{"Not logged in", srv.URL + "/auth/login", "Lofi Girl", "https://www.youtube.com/watch?v=v1"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected output to contain %q:\n%s", want, text)
		}
	}
	if len(requests) != 1 || requests[0].Tool != "youtube.search" {
		t.Fatalf("unexpected tool requests %+v", requests)
	}
}
