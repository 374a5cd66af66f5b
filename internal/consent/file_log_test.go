package consent

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLogMissingFileIsEmpty(t *testing.T) {
	log := NewFileLog(filepath.Join(t.TempDir(), "consents.ndjson"), nil)
	records, err := log.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestFileLogAppendAndListNewestFirst(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "consents.ndjson")
	log := NewFileLog(path, nil)

	base := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	require.NoError(t, log.Append(ctx, Record{Timestamp: base, Name: "Ann", Email: "ann@x.com", MarketingConsent: true, RequestedTime: "2025-03-04T10:00:00+01:00"}))
	require.NoError(t, log.Append(ctx, Record{Timestamp: base.Add(time.Minute), Name: "Bob", Email: "bob@x.com"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"ts":"2025-03-03T09:00:00Z"`)
	assert.Contains(t, string(raw), `"marketingConsent":true`)

	records, err := log.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Bob", records[0].Name)
	assert.Equal(t, "Ann", records[1].Name)
	assert.True(t, records[1].MarketingConsent)
}

func TestFileLogSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "consents.ndjson")
	content := `{"ts":"2025-03-03T09:00:00Z","name":"Ann","email":"ann@x.com","marketingConsent":false,"requestedTime":"t1"}
this is not json

{"ts":"2025-03-03T10:00:00Z","name":"Cid","email":"cid@x.com","marketingConsent":true,"requestedTime":"t2"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	records, err := NewFileLog(path, nil).List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Cid", records[0].Name)
}

func TestFileLogConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	log := NewFileLog(filepath.Join(t.TempDir(), "consents.ndjson"), nil)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = log.Append(ctx, Record{Timestamp: time.Now(), Name: "n", Email: "e"})
		}()
	}
	wg.Wait()

	records, err := log.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 25)
}
