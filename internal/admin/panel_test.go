package admin

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"funnelbot/internal/storage"
)

func TestMilestoneMarks(t *testing.T) {
	assert.Equal(t, "····", milestoneMarks(&storage.User{}))
	assert.Equal(t, "SRDP", milestoneMarks(&storage.User{
		IsSubscribed: true, IsRegistered: true, HasDeposit: true, IsPlatinum: true,
	}))
	assert.Equal(t, "S·D·", milestoneMarks(&storage.User{
		IsSubscribed: true, HasDeposit: true,
	}))
}

func TestToggleLabel(t *testing.T) {
	assert.Equal(t, "🟢 Deposit", toggleLabel("Deposit", true))
	assert.Equal(t, "🔴 Deposit", toggleLabel("Deposit", false))
}

func TestSegmentKeyIsPerAdmin(t *testing.T) {
	assert.Equal(t, "BROADCAST_SEGMENT_7", segmentKey(7))
	assert.NotEqual(t, segmentKey(7), segmentKey(8))
}

func TestAdminGuard(t *testing.T) {
	p := &Panel{adminIDs: []int64{10, 20}}
	assert.True(t, p.isAdmin(10))
	assert.True(t, p.isAdmin(20))
	assert.False(t, p.isAdmin(30))
	assert.False(t, p.isAdmin(0))
}
