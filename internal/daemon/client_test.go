package daemon

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/cashcast/internal/forecast"
	"github.com/theirongolddev/cashcast/internal/model"
)

func TestClientReadsDaemonAPI(t *testing.T) {
	f := &fakeForecaster{results: []*model.FullForecast{
		fullForecast(1000, row("Dining", model.Exceeded)),
	}}
	s := newTestService(f, nil, 10)
	s.Refresh(context.Background())
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	c := NewClient(strings.TrimPrefix(srv.URL, "http://"))
	require.NotNil(t, c)
	ctx := context.Background()

	assert.True(t, c.Healthy(ctx))

	st, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.RefreshCount)
	assert.Equal(t, 1, st.Summary.Budgets.Exceeded)

	rep, err := c.Budgets(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-07", rep.Month)
	require.Len(t, rep.Rows, 1)

	evs, err := c.Events(ctx)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, EventSnapshot, evs[0].Type)
}

func TestClientErrors(t *testing.T) {
	assert.Nil(t, NewClient("  "))

	f := &fakeForecaster{err: forecast.ErrNoTransactions}
	srv := httptest.NewServer(newTestService(f, nil, 10).Router())
	defer srv.Close()

	_, err := NewClient(srv.URL).Budgets(context.Background())
	assert.ErrorIs(t, err, ErrNoData)

	f.err = errors.New("database is locked")
	_, err = NewClient(srv.URL).Budgets(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")

	srv.Close()
	_, err = NewClient(srv.URL).Status(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}
