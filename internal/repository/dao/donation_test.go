package dao

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDonationInsertAndFindAll(t *testing.T) {
	resetTables(t)
	d := NewDonationDAO(testDB)
	ctx := context.Background()

	first, err := d.Insert(ctx, Donation{DonorName: "Alice", AmountCents: 2500, Note: "for the hall"})
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	time.Sleep(10 * time.Millisecond)

	_, err = d.Insert(ctx, Donation{DonorName: "Bob", AmountCents: 1000})
	require.NoError(t, err)

	all, err := d.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Bob", all[0].DonorName, "newest donation comes first")
	assert.Equal(t, "Alice", all[1].DonorName)
	assert.EqualValues(t, 2500, all[1].AmountCents)
}
