package service

import (
	"context"
	"testing"

	"inventory-api/internal/model"
	"inventory-api/pkg/pagination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListAuditLogs(t *testing.T) {
	h := newHarness()
	b := h.seedBulk(10)
	for i := 0; i < 3; i++ {
		_, err := h.orders.CreateOrder(context.Background(), "", orderRequest(qtyItem(b, 1)))
		require.NoError(t, err)
	}

	svc := NewAuditService(fakeAudits{h.store})
	logs, meta, err := svc.ListAuditLogs(context.Background(), pagination.New(2, 2))
	require.NoError(t, err)

	require.Len(t, logs, 1)
	assert.Equal(t, model.ActionCreateOrder, logs[0].Action)
	assert.Equal(t, pagination.Meta{Page: 2, Limit: 2, Total: 3, TotalPages: 2}, meta)

	logs, _, err = svc.ListAuditLogs(context.Background(), pagination.New(5, 2))
	require.NoError(t, err)
	assert.NotNil(t, logs)
	assert.Empty(t, logs)
}
