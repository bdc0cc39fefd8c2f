package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type availability struct {
	TierID    string `json:"tier_id"`
	Available int    `json:"available"`
}

func TestGetOrSet_MissFetchesAndStores(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewService(client, nil)

	want := []availability{{TierID: "a", Available: 3}}
	payload, err := json.Marshal(want)
	require.NoError(t, err)

	mock.ExpectGet("ticketcore:tiers:by_event:uuid:e1").RedisNil()
	mock.ExpectSet("ticketcore:tiers:by_event:uuid:e1", payload, 30*time.Second).SetVal("OK")

	calls := 0
	var got []availability
	err = svc.GetOrSet(context.Background(), "ticketcore:tiers:by_event:uuid:e1", 30*time.Second, func() (interface{}, error) {
		calls++
		return want, nil
	}, &got)

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, want, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrSet_HitSkipsFetcher(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewService(client, nil)

	mock.ExpectGet("k").SetVal(`[{"tier_id":"b","available":7}]`)

	var got []availability
	err := svc.GetOrSet(context.Background(), "k", time.Minute, func() (interface{}, error) {
		t.Fatal("fetcher must not run on a hit")
		return nil, nil
	}, &got)

	require.NoError(t, err)
	assert.Equal(t, []availability{{TierID: "b", Available: 7}}, got)
}

func TestGetOrSet_RedisDownStillServesFetcher(t *testing.T) {
	client, mock := redismock.NewClientMock()
	var reported []string
	svc := NewService(client, func(_ context.Context, op string, _ error) { reported = append(reported, op) })

	mock.ExpectGet("k").SetErr(errors.New("connection refused"))
	mock.ExpectSet("k", []byte(`{"tier_id":"c","available":1}`), time.Minute).SetErr(errors.New("connection refused"))

	var got availability
	err := svc.GetOrSet(context.Background(), "k", time.Minute, func() (interface{}, error) {
		return availability{TierID: "c", Available: 1}, nil
	}, &got)

	require.NoError(t, err)
	assert.Equal(t, 1, got.Available)
	assert.Equal(t, []string{"get", "set"}, reported)
}

func TestDelete_NoKeysIsNoop(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewService(client, nil)

	require.NoError(t, svc.Delete(context.Background()))
	mock.ExpectDel("a", "b").SetVal(2)
	require.NoError(t, svc.Delete(context.Background(), "a", "b"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
