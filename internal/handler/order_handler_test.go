package handler

import (
	"context"
	"net/http"
	"testing"

	"inventory-api/internal/model"
	"inventory-api/internal/query"
	"inventory-api/internal/service"
	"inventory-api/internal/service/mocks"
	"inventory-api/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newOrderRouter(t *testing.T) (*mocks.MockOrderService, *gin.Engine) {
	t.Helper()
	svc := mocks.NewMockOrderService(gomock.NewController(t))
	return svc, newRouter(NewOrderHandler(svc))
}

func validOrderBody() map[string]interface{} {
	return map[string]interface{}{
		"customerName":  "Jane Doe",
		"customerPhone": "0900000000",
		"soldBy":        "staff-1",
		"products": []map[string]interface{}{
			{"productId": uuid.NewString(), "unitId": uuid.NewString()},
		},
	}
}

func TestOrderHandler_Create(t *testing.T) {
	svc, r := newOrderRouter(t)
	userID := uuid.New()

	svc.EXPECT().CreateOrder(gomock.Any(), userID.String(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, req service.CreateOrderRequest) (*model.Order, error) {
			assert.Equal(t, "Jane Doe", req.CustomerName)
			require.Len(t, req.Products, 1)
			return &model.Order{ID: uuid.New(), CustomerName: req.CustomerName, Status: model.OrderStatusFulfilled}, nil
		})

	req := jsonRequest(http.MethodPost, "/api/orders", validOrderBody())
	req.token = tokenFor(t, userID, model.RoleStaff)

	w := serve(r, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := dataMap(t, decode(t, w))["order"].(map[string]interface{})
	assert.Equal(t, "Jane Doe", order["customerName"])
}

func TestOrderHandler_CreateSoldUnit(t *testing.T) {
	svc, r := newOrderRouter(t)

	svc.EXPECT().CreateOrder(gomock.Any(), "", gomock.Any()).
		Return(nil, apperror.InvalidState("Unit WHE-ON-000001 is not available (status: sold)."))

	w := serve(r, jsonRequest(http.MethodPost, "/api/orders", validOrderBody()))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, http.StatusBadRequest, body.StatusCode)
	assert.Contains(t, body.Message, "not available")
}

func TestOrderHandler_CreateInvalidBody(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(body map[string]interface{})
	}{
		{"missing customer", func(b map[string]interface{}) { delete(b, "customerName") }},
		{"no lines", func(b map[string]interface{}) { b["products"] = []interface{}{} }},
		{"line without product", func(b map[string]interface{}) {
			b["products"] = []map[string]interface{}{{"unitId": uuid.NewString()}}
		}},
		{"negative quantity", func(b map[string]interface{}) {
			b["products"] = []map[string]interface{}{{"productId": uuid.NewString(), "quantity": -2}}
		}},
		{"bad email", func(b map[string]interface{}) { b["customerEmail"] = "nope" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, r := newOrderRouter(t)
			body := validOrderBody()
			tt.mutate(body)

			w := serve(r, jsonRequest(http.MethodPost, "/api/orders", body))
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Equal(t, invalidInputs, decode(t, w).Message)
		})
	}
}

func TestOrderHandler_ListAndGet(t *testing.T) {
	svc, r := newOrderRouter(t)
	id := uuid.New()

	svc.EXPECT().ListOrders(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, f query.OrderFilter) ([]model.Order, error) {
			assert.Equal(t, model.OrderStatusPending, f.Status)
			require.NotNil(t, f.DateFrom)
			return []model.Order{}, nil
		})
	w := serve(r, request{method: http.MethodGet, path: "/api/orders?status=pending&dateFrom=2024-03-01"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{}, dataMap(t, decode(t, w))["orders"])

	w = serve(r, request{method: http.MethodGet, path: "/api/orders?status=shipped"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	svc.EXPECT().GetOrder(gomock.Any(), id.String()).Return(nil, apperror.NotFound("Could not find order for this id."))
	w = serve(r, request{method: http.MethodGet, path: "/api/orders/" + id.String()})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderHandler_Update(t *testing.T) {
	svc, r := newOrderRouter(t)
	id := uuid.New()

	svc.EXPECT().UpdateOrder(gomock.Any(), "", id.String(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _, _ string, req service.UpdateOrderRequest) (*model.Order, error) {
			require.NotNil(t, req.Status)
			assert.Equal(t, model.OrderStatusFulfilled, *req.Status)
			assert.Nil(t, req.Notes)
			return &model.Order{ID: id, Status: *req.Status}, nil
		})

	w := serve(r, jsonRequest(http.MethodPut, "/api/orders/"+id.String(), map[string]string{"status": model.OrderStatusFulfilled}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, model.OrderStatusFulfilled, dataMap(t, decode(t, w))["order"].(map[string]interface{})["status"])
}
