package renewal

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subtrackt/subtrackt/internal/models"
)

func TestBuildBatches(t *testing.T) {
	subs := []*models.Subscription{
		{Name: "B", Price: decimal.NewFromInt(5), UserEmail: "u@x.com"},
		{Name: "A", Price: decimal.NewFromInt(10), UserEmail: "u@x.com"},
		{Name: "C", Price: decimal.NewFromInt(3), UserEmail: "v@x.com"},
	}

	batches := BuildBatches(subs)
	require.Len(t, batches, 2)

	assert.Equal(t, "u@x.com", batches[0].Recipient)
	require.Len(t, batches[0].Subscriptions, 2)
	assert.Equal(t, "A", batches[0].Subscriptions[0].Name)
	assert.Equal(t, "B", batches[0].Subscriptions[1].Name)
	assert.True(t, batches[0].Total.Equal(decimal.NewFromInt(15)))

	assert.Equal(t, "v@x.com", batches[1].Recipient)
	require.Len(t, batches[1].Subscriptions, 1)
	assert.Equal(t, "C", batches[1].Subscriptions[0].Name)
	assert.True(t, batches[1].Total.Equal(decimal.NewFromInt(3)))
}

func TestBuildBatches_Empty(t *testing.T) {
	assert.Empty(t, BuildBatches(nil))
}

func TestBuildBatches_DecimalTotals(t *testing.T) {
	subs := []*models.Subscription{
		{Name: "A", Price: decimal.RequireFromString("9.99"), UserEmail: "u@x.com"},
		{Name: "B", Price: decimal.RequireFromString("0.01"), UserEmail: "u@x.com"},
	}

	batches := BuildBatches(subs)
	require.Len(t, batches, 1)
	assert.True(t, batches[0].Total.Equal(decimal.NewFromInt(10)))
}
