package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamscao/certwatch/internal/db"
	"github.com/adamscao/certwatch/internal/db/dbtest"
	"github.com/adamscao/certwatch/internal/models"
)

var t0 = time.Date(2024, 9, 1, 10, 30, 0, 0, time.UTC)

func setup(t *testing.T) (*db.DB, *HostRepository, *RecordRepository, *SANRepository) {
	database := dbtest.Open(t)
	return database,
		NewHostRepository(database.DB),
		NewRecordRepository(database.DB),
		NewSANRepository(database.DB)
}

func TestHostUpsertIsLastWriteWins(t *testing.T) {
	ctx := context.Background()
	_, hosts, _, _ := setup(t)

	id1, err := hosts.Upsert(ctx, "www.example.org", 15)
	require.NoError(t, err)
	id2, err := hosts.Upsert(ctx, "www.example.org", 30)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	host, err := hosts.GetByCommonName(ctx, "www.example.org")
	require.NoError(t, err)
	assert.Equal(t, 30, host.Duration)

	count, err := hosts.Count(ctx, "www.example.org")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = hosts.Upsert(ctx, "zero.example.org", 0)
	assert.Error(t, err, "duration check constraint")

	_, err = hosts.Upsert(ctx, "long.example.org", 36501)
	assert.Error(t, err, "duration upper bound")
}

func TestHostNotFound(t *testing.T) {
	_, hosts, _, _ := setup(t)

	_, err := hosts.GetByCommonName(context.Background(), "missing.example.org")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = hosts.GetByID(context.Background(), 42)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestHostListOrdered(t *testing.T) {
	ctx := context.Background()
	_, hosts, _, _ := setup(t)

	for _, cn := range []string{"c.example", "a.example", "b.example"} {
		_, err := hosts.Upsert(ctx, cn, 15)
		require.NoError(t, err)
	}

	list, err := hosts.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a.example", list[0].CommonName)
	assert.Equal(t, "b.example", list[1].CommonName)
	assert.Equal(t, "c.example", list[2].CommonName)
}

func TestAppendRequiresExistingHost(t *testing.T) {
	_, _, records, _ := setup(t)

	_, err := records.Append(context.Background(), 999, "acme-v02.api.letsencrypt.org", 15, t0)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAppendKeepsSnapshotDuration(t *testing.T) {
	ctx := context.Background()
	_, hosts, records, _ := setup(t)

	hostID, err := hosts.Upsert(ctx, "www.example.org", 15)
	require.NoError(t, err)
	_, err = records.Append(ctx, hostID, "acme-v02.api.letsencrypt.org", 15, t0)
	require.NoError(t, err)

	hostID, err = hosts.Upsert(ctx, "www.example.org", 90)
	require.NoError(t, err)
	_, err = records.Append(ctx, hostID, "", 90, t0.Add(time.Hour))
	require.NoError(t, err)

	history, err := records.ListByHost(ctx, hostID, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, 90, history[0].Duration)
	assert.Equal(t, "", history[0].Provider)
	assert.Equal(t, 15, history[1].Duration)
	assert.Equal(t, "acme-v02.api.letsencrypt.org", history[1].Provider)
	assert.True(t, history[1].Timestamp.Equal(t0))
}

func TestLatestPerHost(t *testing.T) {
	ctx := context.Background()
	_, hosts, records, sans := setup(t)

	web, err := hosts.Upsert(ctx, "web.example", 15)
	require.NoError(t, err)
	// inserted out of order: T3 first, then T1, then T2
	r3, err := records.Append(ctx, web, "p3", 15, t0.Add(3*time.Hour))
	require.NoError(t, err)
	_, err = records.Append(ctx, web, "p1", 15, t0.Add(1*time.Hour))
	require.NoError(t, err)
	_, err = records.Append(ctx, web, "p2", 15, t0.Add(2*time.Hour))
	require.NoError(t, err)
	_, err = sans.Add(ctx, r3, []string{"www.web.example", "api.web.example"})
	require.NoError(t, err)

	_, err = hosts.Upsert(ctx, "bare.example", 30)
	require.NoError(t, err)

	latest, err := records.LatestPerHost(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 2)

	assert.Equal(t, "bare.example", latest[0].Host.CommonName)
	assert.Nil(t, latest[0].Record)

	assert.Equal(t, "web.example", latest[1].Host.CommonName)
	require.NotNil(t, latest[1].Record)
	assert.Equal(t, r3, latest[1].Record.ID)
	assert.Equal(t, "p3", latest[1].Record.Provider)
	assert.True(t, latest[1].Record.Timestamp.Equal(t0.Add(3*time.Hour)))
	assert.Equal(t, []string{"api.web.example", "www.web.example"}, latest[1].Record.SANs)
}

func TestLatestPerHostTieBreaksOnRecordID(t *testing.T) {
	ctx := context.Background()
	_, hosts, records, _ := setup(t)

	hostID, err := hosts.Upsert(ctx, "tie.example", 15)
	require.NoError(t, err)

	_, err = records.Append(ctx, hostID, "first", 15, t0)
	require.NoError(t, err)
	second, err := records.Append(ctx, hostID, "second", 15, t0.Add(400*time.Millisecond))
	require.NoError(t, err)

	latest, err := records.LatestPerHost(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, second, latest[0].Record.ID)
	assert.Equal(t, "second", latest[0].Record.Provider)
}

func TestSANsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	_, hosts, records, sans := setup(t)

	hostID, err := hosts.Upsert(ctx, "san.example", 15)
	require.NoError(t, err)
	recordID, err := records.Append(ctx, hostID, "", 15, t0)
	require.NoError(t, err)

	n, err := sans.Add(ctx, recordID, []string{"a.san.example", "b.san.example"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = sans.Add(ctx, recordID, []string{"a.san.example"})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	count, err := sans.Count(ctx, recordID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	values, err := sans.ListByRecords(ctx, []int64{recordID})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.san.example", "b.san.example"}, values[recordID])
}

func TestSANRequiresRecord(t *testing.T) {
	_, _, _, sans := setup(t)

	_, err := sans.Add(context.Background(), 12345, []string{"orphan.example"})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListByRecordsBatches(t *testing.T) {
	ctx := context.Background()
	_, hosts, records, sans := setup(t)

	hostID, err := hosts.Upsert(ctx, "many.example", 15)
	require.NoError(t, err)

	var ids []int64
	for i := 0; i < sanBatchSize+3; i++ {
		id, err := records.Append(ctx, hostID, "", 15, t0.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		_, err = sans.Add(ctx, id, []string{"many.example"})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	byRecord, err := sans.ListByRecords(ctx, ids)
	require.NoError(t, err)
	assert.Len(t, byRecord, len(ids))
}

func TestNotificationLog(t *testing.T) {
	ctx := context.Background()
	database := dbtest.Open(t)
	repo := NewNotificationRepository(database.DB)

	ok := &models.NotificationLog{SentAt: t0, Sink: "log", ExpiredCount: 1, Hosts: `{"expired":["a"]}`, Success: true}
	require.NoError(t, repo.Create(ctx, ok))
	failed := &models.NotificationLog{SentAt: t0.Add(time.Hour), Sink: "smtp", DueCount: 2, Hosts: `{}`, ErrorMsg: "dial tcp: refused"}
	require.NoError(t, repo.Create(ctx, failed))

	logs, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, failed.ID, logs[0].ID)
	assert.False(t, logs[0].Success)
	assert.Equal(t, "dial tcp: refused", logs[0].ErrorMsg)
	assert.True(t, logs[1].Success)

	deleted, err := repo.DeleteOld(ctx, t0.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
