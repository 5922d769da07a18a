package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadOnlyBlockingPartition(t *testing.T) {
	readOnly := []Kind{
		Status, LogAll, LogCount, DiffAll, DiffSelected,
		RevisionChanges, RevisionDiff, ListUnresolved, ListBranches, Fetch,
	}
	blocking := []Kind{
		CommitAll, CommitSelected, RevertAll, RevertSelected,
		ResolveTakeOther, ResolveTakeLocal, Pull, Push, NewTag,
		NewBranch, DeleteBranch, CloseBranch, Checkout, Merge, Custom,
	}

	for _, k := range readOnly {
		assert.True(t, k.ReadOnly(), "%s should be read-only", k.Name())
		assert.False(t, k.Blocking(), "%s should not block", k.Name())
	}
	for _, k := range blocking {
		assert.False(t, k.ReadOnly(), "%s should not be read-only", k.Name())
		assert.True(t, k.Blocking(), "%s should block", k.Name())
	}
}

func TestActionName(t *testing.T) {
	assert.Equal(t, "status", Action{Kind: Status}.Name())
	assert.Equal(t, "custom: gv", Action{Kind: Custom, Key: "gv"}.Name())
	assert.Equal(t, "custom command", Action{Kind: Custom}.Name())
}
