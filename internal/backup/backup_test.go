package backup

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sethvargo/go-retry"

	"github.com/rowanfield/bramble/internal/config"
	"github.com/rowanfield/bramble/internal/database"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu       sync.Mutex
	objects  map[string][]byte
	putFails int
	putCalls int
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++
	if m.putFails > 0 {
		m.putFails--
		return nil, &s3Unavailable{}
	}
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, &s3Unavailable{}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(data)),
	}, nil
}

type s3Unavailable struct{}

func (e *s3Unavailable) Error() string { return "ServiceUnavailable" }

func enabledConfig() config.BackupConfig {
	return config.BackupConfig{
		Enabled:    true,
		Bucket:     "test",
		AccessKey:  "key",
		SecretKey:  "secret",
		Passphrase: "correct horse",
	}
}

func TestManagerStateLifecycle(t *testing.T) {
	m := NewManager(config.BackupConfig{}, nil, "", slog.Default())
	if m.Status().State != StateDisabled {
		t.Errorf("state = %q, want %q", m.Status().State, StateDisabled)
	}

	m2 := NewManager(enabledConfig(), nil, "", slog.Default())
	if m2.Status().State != StateIdle {
		t.Errorf("state = %q, want %q", m2.Status().State, StateIdle)
	}
}

func TestRunNowDisabled(t *testing.T) {
	m := NewManager(config.BackupConfig{}, nil, "", slog.Default())
	if _, err := m.RunNow(context.Background()); err == nil {
		t.Fatal("expected error when backups are not configured")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "bramble.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m := NewManager(enabledConfig(), db, dbPath, slog.Default())
	mock := newMockS3()
	m.client = mock

	key, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run snapshot: %v", err)
	}
	if key == "" {
		t.Fatal("expected non-empty object key")
	}
	if st := m.Status(); st.State != StateIdle || st.LastBackup == nil || st.LastKey != key {
		t.Errorf("status after snapshot = %+v", st)
	}

	restored := filepath.Join(t.TempDir(), "restored.db")
	if err := m.Restore(context.Background(), key, restored); err != nil {
		t.Fatalf("restore: %v", err)
	}

	// The restored file must open as a valid migrated database.
	rdb, err := database.Open(restored)
	if err != nil {
		t.Fatalf("open restored db: %v", err)
	}
	defer rdb.Close()
	var n int
	if err := rdb.QueryRow("SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		t.Fatalf("query restored db: %v", err)
	}
}

func TestRunNowRetriesUpload(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "bramble.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m := NewManager(enabledConfig(), db, dbPath, slog.Default())
	mock := newMockS3()
	mock.putFails = 2
	m.client = mock
	m.backoff = func() retry.Backoff {
		return retry.WithMaxRetries(4, retry.NewConstant(time.Millisecond))
	}

	if _, err := m.RunNow(context.Background()); err != nil {
		t.Fatalf("run snapshot with transient failures: %v", err)
	}
	if mock.putCalls != 3 {
		t.Errorf("put calls = %d, want 3", mock.putCalls)
	}
}

func TestRestoreWrongPassphrase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "bramble.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m := NewManager(enabledConfig(), db, dbPath, slog.Default())
	mock := newMockS3()
	m.client = mock

	key, err := m.RunNow(context.Background())
	if err != nil {
		t.Fatalf("run snapshot: %v", err)
	}

	cfg := enabledConfig()
	cfg.Passphrase = "wrong"
	m2 := NewManager(cfg, db, dbPath, slog.Default())
	m2.client = mock

	if err := m2.Restore(context.Background(), key, filepath.Join(t.TempDir(), "out.db")); err == nil {
		t.Fatal("expected restore with wrong passphrase to fail")
	}
}
