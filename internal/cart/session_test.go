package cart

import (
	"regexp"
	"strings"
	"testing"

	"campus-food/internal/order/app/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestSessionAddMergesLines(t *testing.T) {
	s := NewSession("sess-1")
	jollof, coke := uuid.New(), uuid.New()

	require.NoError(t, s.Add(jollof, 1))
	require.NoError(t, s.Add(coke, 1))
	require.NoError(t, s.Add(jollof, 1))

	require.Len(t, s.Lines, 2)
	require.Equal(t, Line{FoodItemID: jollof, Quantity: 2}, s.Lines[0])
	require.Equal(t, []uuid.UUID{jollof, coke}, s.FoodItemIDs())
}

func TestSessionQuantityBounds(t *testing.T) {
	s := NewSession("sess-1")
	id := uuid.New()

	require.ErrorIs(t, s.Add(id, 0), core.ErrValidation)
	require.ErrorIs(t, s.Add(id, core.MaxItemQuantity+1), core.ErrValidation)
	require.NoError(t, s.Add(id, core.MaxItemQuantity))
	require.ErrorIs(t, s.Add(id, 1), core.ErrValidation)
	require.Equal(t, core.MaxItemQuantity, s.Lines[0].Quantity)
}

func TestSessionSetQuantityZeroRemoves(t *testing.T) {
	s := NewSession("sess-1")
	id := uuid.New()
	require.NoError(t, s.Add(id, 3))

	require.NoError(t, s.SetQuantity(id, 5))
	require.Equal(t, 5, s.Lines[0].Quantity)

	require.NoError(t, s.SetQuantity(id, 0))
	require.True(t, s.Empty())

	require.ErrorIs(t, s.SetQuantity(id, 1), core.ErrNotFound)
}

func TestSessionRemoveAndClear(t *testing.T) {
	s := NewSession("sess-1")
	a, b := uuid.New(), uuid.New()
	require.NoError(t, s.Add(a, 1))
	require.NoError(t, s.Add(b, 1))
	require.NoError(t, s.SetNote("no pepper"))

	require.True(t, s.Remove(a))
	require.False(t, s.Remove(a))
	require.Equal(t, []uuid.UUID{b}, s.FoodItemIDs())

	s.Clear()
	require.True(t, s.Empty())
	require.Empty(t, s.Note)
}

func TestSessionNoteLength(t *testing.T) {
	s := NewSession("sess-1")
	require.ErrorIs(t, s.SetNote(strings.Repeat("x", core.MaxNoteLen+1)), core.ErrValidation)
	require.NoError(t, s.SetNote(strings.Repeat("x", core.MaxNoteLen)))
}

func TestSessionCheckoutFreezesPrices(t *testing.T) {
	s := NewSession("sess-1")
	jollof, coke := uuid.New(), uuid.New()
	require.NoError(t, s.Add(jollof, 2))
	require.NoError(t, s.Add(coke, 1))
	require.NoError(t, s.SetNote("extra plantain"))

	prices := map[uuid.UUID]decimal.Decimal{
		jollof: decimal.NewFromInt(800),
		coke:   decimal.NewFromInt(250),
	}
	total, err := s.Total(prices)
	require.NoError(t, err)
	require.True(t, total.Equal(decimal.NewFromInt(1850)))

	order, err := s.Checkout(prices, "FPI-AB12CD")
	require.NoError(t, err)
	require.Equal(t, "sess-1", order.SessionID)
	require.Equal(t, "FPI-AB12CD", order.TrackingCode)
	require.True(t, order.TotalAmount.Equal(decimal.NewFromInt(1850)))
	require.Equal(t, "extra plantain", *order.Note)
	require.Len(t, order.Items, 2)
	require.Equal(t, jollof, order.Items[0].FoodItemID)
	require.True(t, order.Items[0].UnitPrice.Equal(decimal.NewFromInt(800)))
}

func TestSessionCheckoutErrors(t *testing.T) {
	empty := NewSession("sess-1")
	_, err := empty.Checkout(nil, "FPI-AB12CD")
	require.ErrorIs(t, err, core.ErrValidation)

	s := NewSession("sess-1")
	require.NoError(t, s.Add(uuid.New(), 1))
	_, err = s.Checkout(map[uuid.UUID]decimal.Decimal{}, "FPI-AB12CD")
	require.ErrorIs(t, err, core.ErrFoodItemNotFound)
}

func TestNewTrackingCodeFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^FPI-[A-Z0-9]{6}$`)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := NewTrackingCode()
		require.NoError(t, err)
		require.Regexp(t, pattern, code)
		seen[code] = true
	}
	require.Greater(t, len(seen), 45)
}
