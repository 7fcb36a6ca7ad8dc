package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyclaw/internal/classify"
	"github.com/alejandrodnm/polyclaw/internal/domain"
)

func TestClassifyAll_PreservesOrder(t *testing.T) {
	markets := make([]domain.Market, 50)
	for i := range markets {
		q := fmt.Sprintf("Will Bitcoin reach %dk?", i)
		if i%2 == 0 {
			q = fmt.Sprintf("Will the US strike Iran by day %d?", i)
		}
		markets[i] = domain.Market{ID: fmt.Sprintf("m%d", i), Question: q}
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	got := classifyAll(classify.NewDefault(), markets, now, 4)

	require.Len(t, got, len(markets))
	for i, c := range got {
		assert.Equal(t, markets[i].ID, c.Market.ID)
		if i%2 == 0 {
			assert.True(t, c.Class.HasTopic("iran"), c.Market.Question)
		} else {
			assert.True(t, c.Class.HasTopic("bitcoin"), c.Market.Question)
		}
	}
}

func TestClassifyAll_Empty(t *testing.T) {
	assert.Empty(t, classifyAll(classify.NewDefault(), nil, time.Now(), 0))
}
