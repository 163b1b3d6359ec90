package bootstrap_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gonano/nanogo/internal/bootstrap"
)

func TestTagsInsertAndEraseByID(t *testing.T) {
	tags := bootstrap.NewTags()
	id := tags.NewID()
	tag := &bootstrap.Tag{ID: id, Account: acct(1), Source: bootstrap.SourcePriority, Cutoff: time.Now().Add(time.Minute)}
	tags.Insert(tag)

	require.Equal(t, 1, tags.Len())
	require.Equal(t, 1, tags.CountByAccount(acct(1), bootstrap.SourcePriority))

	got, ok := tags.EraseByID(id)
	require.True(t, ok)
	require.Equal(t, tag, got)
	require.Equal(t, 0, tags.Len())
	require.Equal(t, 0, tags.CountByAccount(acct(1), bootstrap.SourcePriority))
}

func TestTagsEraseByIDUnknownIsNoop(t *testing.T) {
	tags := bootstrap.NewTags()
	_, ok := tags.EraseByID(9999)
	require.False(t, ok)
}

func TestTagsCountByAccountDistinguishesSource(t *testing.T) {
	tags := bootstrap.NewTags()
	tags.Insert(&bootstrap.Tag{ID: tags.NewID(), Account: acct(1), Source: bootstrap.SourcePriority})
	tags.Insert(&bootstrap.Tag{ID: tags.NewID(), Account: acct(1), Source: bootstrap.SourceDatabase})

	require.Equal(t, 1, tags.CountByAccount(acct(1), bootstrap.SourcePriority))
	require.Equal(t, 1, tags.CountByAccount(acct(1), bootstrap.SourceDatabase))
	require.Equal(t, 0, tags.CountByAccount(acct(2), bootstrap.SourcePriority))
}

func TestTagsExpirePopsOnlyCutoffTagsInOrder(t *testing.T) {
	tags := bootstrap.NewTags()
	now := time.Now()

	early := &bootstrap.Tag{ID: tags.NewID(), Account: acct(1), Cutoff: now.Add(-time.Second)}
	late := &bootstrap.Tag{ID: tags.NewID(), Account: acct(2), Cutoff: now.Add(time.Hour)}
	tags.Insert(early)
	tags.Insert(late)

	expired := tags.Expire(now)
	require.Len(t, expired, 1)
	require.Equal(t, early.ID, expired[0].ID)
	require.Equal(t, 1, tags.Len())
}

func TestTagsExpireStopsAtFirstLiveTag(t *testing.T) {
	tags := bootstrap.NewTags()
	now := time.Now()

	// Even though the second tag here would also be expired, insertion
	// order must be respected: Expire only walks the contiguous expired
	// prefix of the insertion queue.
	stillLive := &bootstrap.Tag{ID: tags.NewID(), Account: acct(1), Cutoff: now.Add(time.Hour)}
	alsoExpired := &bootstrap.Tag{ID: tags.NewID(), Account: acct(2), Cutoff: now.Add(-time.Second)}
	tags.Insert(stillLive)
	tags.Insert(alsoExpired)

	expired := tags.Expire(now)
	require.Empty(t, expired)
	require.Equal(t, 2, tags.Len())
}

func TestTagsHashIndex(t *testing.T) {
	tags := bootstrap.NewTags()
	h := acct(42)
	tags.Insert(&bootstrap.Tag{ID: tags.NewID(), Hash: h, Source: bootstrap.SourceDependencies})
	require.Equal(t, 1, tags.CountByHash(h, bootstrap.SourceDependencies))
}
