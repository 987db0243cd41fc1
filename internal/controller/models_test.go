package controller

import (
	"errors"
	"net/url"
	"testing"

	"buildmarket/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeighting(t *testing.T) {
	w, err := ParseWeighting(url.Values{})
	require.NoError(t, err)
	assert.Nil(t, w)

	w, err = ParseWeighting(url.Values{"rating": {"100"}})
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, models.Weighting{Rating: 100}, *w)

	_, err = ParseWeighting(url.Values{"price": {"0"}, "timeline": {"0"}})
	assert.True(t, errors.Is(err, models.ErrInvalidWeighting))

	_, err = ParseWeighting(url.Values{"experience": {"-1"}, "price": {"50"}})
	assert.True(t, errors.Is(err, models.ErrInvalidWeighting))

	_, err = ParseWeighting(url.Values{"price": {"forty"}})
	assert.Error(t, err)

	for _, v := range []string{"Inf", "+Inf", "-Inf", "NaN"} {
		_, err = ParseWeighting(url.Values{"price": {v}, "rating": {"10"}})
		assert.True(t, errors.Is(err, models.ErrInvalidWeighting), v)
	}
}

func TestParseRankingFilter(t *testing.T) {
	f, err := ParseRankingFilter(url.Values{})
	require.NoError(t, err)
	assert.Nil(t, f.MaxPrice)
	assert.Empty(t, f.Status)

	f, err = ParseRankingFilter(url.Values{"status": {"accepted"}, "max_price": {"99.90"}})
	require.NoError(t, err)
	assert.Equal(t, models.BidAccepted, f.Status)
	assert.Equal(t, "99.9", f.MaxPrice.String())

	f, err = ParseRankingFilter(url.Values{"min_total": {"42.5"}})
	require.NoError(t, err)
	assert.Equal(t, 42.5, f.MinTotal)

	for _, v := range []string{"NaN", "Inf", "-Inf"} {
		_, err = ParseRankingFilter(url.Values{"min_total": {v}})
		assert.Error(t, err, v)
	}
}

func TestParseAcceptBidReq(t *testing.T) {
	req, err := ParseAcceptBidReq(nil)
	require.NoError(t, err)
	assert.Empty(t, req.Milestones)

	req, err = ParseAcceptBidReq([]byte(`{"milestones": [{"name": "Framing", "amount": "1200"}]}`))
	require.NoError(t, err)
	require.Len(t, req.Milestones, 1)
	m := req.Milestones[0].toModel()
	assert.Equal(t, models.MilestonePending, m.Status)
	assert.Equal(t, "1200", m.Amount.String())

	_, err = ParseAcceptBidReq([]byte(`{"milestones": [{"name": "", "amount": "1"}]}`))
	assert.Error(t, err)
}

func TestParseNewBidReq(t *testing.T) {
	_, err := ParseNewBidReq([]byte(`{"jobId": "2f1e0c5a-8a84-4d8e-9b61-3c2b4e8f7a10", "contractorId": "x", "price": "10", "timelineDays": 3}`))
	assert.Error(t, err)

	req, err := ParseNewBidReq([]byte(`{"jobId": "2f1e0c5a-8a84-4d8e-9b61-3c2b4e8f7a10", "contractorId": "8d4b7f2e-1c3a-4e5b-9f6d-0a1b2c3d4e5f", "price": 10.5, "timelineDays": 3}`))
	require.NoError(t, err)
	assert.Equal(t, "10.5", req.Price.String())
}
