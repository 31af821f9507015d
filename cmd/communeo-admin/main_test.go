package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/communeo/communeo-api/internal/domain/model"
)

func TestPrintSyncStatusIncludesQueueAndLock(t *testing.T) {
	var buf bytes.Buffer
	ttl := 45 * time.Second

	err := printSyncStatus(&buf, &syncStatusReport{
		Counts:    &model.EventStatusCounts{Pending: 3, Approved: 2, Rejected: 1, Pushed: 4},
		Queue:     syncQueueCounts{Pending: 2, Synced: 4, Errored: 1},
		LastError: "upstream returned 502",
		LockTTL:   &ttl,
	})
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "Event Moderation")
	require.Contains(t, out, "APLO Push Queue")
	require.Contains(t, out, "upstream returned 502")
	require.Contains(t, out, `Tick lock "aplo-sync:tick-lock": 45s`)
}

func TestPrintSyncStatusWithoutRedis(t *testing.T) {
	var buf bytes.Buffer

	err := printSyncStatus(&buf, &syncStatusReport{
		Counts: &model.EventStatusCounts{},
		Queue:  syncQueueCounts{},
	})
	require.NoError(t, err)

	require.Contains(t, buf.String(), "Tick lock: redis unavailable")
}

func TestIsLikelyRemoteHost(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"localhost", false},
		{"127.0.0.1", false},
		{"::1", false},
		{"db.internal.local", false},
		{"", false},
		{"10.0.0.5", true},
		{"db.prod.example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			require.Equal(t, tt.want, isLikelyRemoteHost(tt.host))
		})
	}
}

func TestRenderTTL(t *testing.T) {
	require.Equal(t, "no expiry", renderTTL(-1*time.Second))
	require.Equal(t, "key missing", renderTTL(-2*time.Second))
	require.Equal(t, "1m30s", renderTTL(90*time.Second))
}

func TestParsePruneInvitationsFlagsRejectsBadBatchSize(t *testing.T) {
	_, err := parsePruneInvitationsFlags([]string{"--batch-size", "0"})
	require.Error(t, err)
}
