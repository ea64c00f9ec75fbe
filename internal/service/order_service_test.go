package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/discount"
	"storefront/internal/metrics"
	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type orderMocks struct {
	orders   *MockOrderRepository
	products *MockProductRepository
	source   *MockSource
	usage    *MockRuleRepository
	cache    *MockInvalidator
	tx       *MockTx
}

func newOrderServiceWithMocks(withUsage bool, m *metrics.Metrics) (*orderService, orderMocks) {
	mocks := orderMocks{
		orders:   new(MockOrderRepository),
		products: new(MockProductRepository),
		source:   new(MockSource),
		usage:    new(MockRuleRepository),
		cache:    new(MockInvalidator),
		tx:       new(MockTx),
	}
	deps := OrderDeps{
		Orders:   mocks.orders,
		Products: mocks.products,
		Rules:    mocks.source,
		Engine:   discount.NewEngine(zerolog.Nop()),
		Cache:    mocks.cache,
		Metrics:  m,
	}
	if withUsage {
		deps.Usage = mocks.usage
	}
	svc := NewOrderService(deps, zerolog.Nop()).(*orderService)
	svc.now = func() time.Time { return fixedNow }
	return svc, mocks
}

func orderProducts() []model.Product {
	return []model.Product{
		{ID: "P001", Name: "Canvas Sneaker", Price: decimal.RequireFromString("1000"), CategoryID: "C001"},
		{ID: "P002", Name: "Coffee Mug", Price: decimal.RequireFromString("250"), CategoryID: "C002"},
	}
}

func TestOrderService_CreateOrder_Success(t *testing.T) {
	ctx := context.Background()
	svc, m := newOrderServiceWithMocks(true, nil)

	req := &model.OrderRequest{
		Items: []model.OrderItemRequest{
			{ProductID: "P001", Quantity: 1},
			{ProductID: "P002", Quantity: 1},
			{ProductID: "P001", Quantity: 1},
		},
	}

	m.products.On("GetByIDs", ctx, []string{"P001", "P002"}).Return(orderProducts(), nil)
	m.source.On("Rules", ctx).Return([]model.DiscountRule{sneakerBOGO()}, nil)
	m.orders.On("BeginTx", ctx).Return(m.tx, nil)
	m.orders.On("CreateOrder", ctx, m.tx, mock.MatchedBy(func(o *model.Order) bool {
		return o.Subtotal.Equal(decimal.NewFromInt(2250)) &&
			o.DiscountTotal.Equal(decimal.NewFromInt(1000)) &&
			o.Total.Equal(decimal.NewFromInt(1250))
	})).Return(nil)
	m.orders.On("CreateOrderItems", ctx, m.tx, mock.MatchedBy(func(items []model.OrderItem) bool {
		return len(items) == 2 && items[0].ProductID == "P001" && items[0].Quantity == 2
	})).Return(nil)
	m.orders.On("CreateOrderDiscounts", ctx, m.tx, mock.MatchedBy(func(d []model.OrderDiscount) bool {
		return len(d) == 1 && d[0].RuleID == "bogo"
	})).Return(nil)
	m.usage.On("IncrementUses", ctx, m.tx, "bogo").Return(true, nil)
	m.tx.On("Commit", ctx).Return(nil)
	m.cache.On("Invalidate").Return()

	resp, err := svc.CreateOrder(ctx, req)

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.NotEqual(t, uuid.Nil, resp.ID)
	assert.True(t, decimal.NewFromInt(1250).Equal(resp.Total))
	assert.Len(t, resp.Items, 2)
	assert.Len(t, resp.Products, 2)
	require.Len(t, resp.Discounts, 1)
	assert.True(t, decimal.NewFromInt(1000).Equal(resp.Discounts[0].Amount))
	assert.Empty(t, resp.Warning)

	m.products.AssertExpectations(t)
	m.orders.AssertExpectations(t)
	m.usage.AssertExpectations(t)
	m.tx.AssertExpectations(t)
	m.cache.AssertNumberOfCalls(t, "Invalidate", 1)
}

func TestOrderService_CreateOrder_RulesUnavailable(t *testing.T) {
	ctx := context.Background()
	svc, m := newOrderServiceWithMocks(true, nil)

	m.products.On("GetByIDs", ctx, []string{"P002"}).Return(orderProducts()[1:], nil)
	m.source.On("Rules", ctx).Return(nil, errors.New("connection refused"))
	m.orders.On("BeginTx", ctx).Return(m.tx, nil)
	m.orders.On("CreateOrder", ctx, m.tx, mock.AnythingOfType("*model.Order")).Return(nil)
	m.orders.On("CreateOrderItems", ctx, m.tx, mock.AnythingOfType("[]model.OrderItem")).Return(nil)
	m.orders.On("CreateOrderDiscounts", ctx, m.tx, mock.AnythingOfType("[]model.OrderDiscount")).Return(nil)
	m.tx.On("Commit", ctx).Return(nil)

	resp, err := svc.CreateOrder(ctx, &model.OrderRequest{
		Items: []model.OrderItemRequest{{ProductID: "P002", Quantity: 3}},
	})

	require.NoError(t, err)
	assert.Equal(t, RulesUnavailable, resp.Warning)
	assert.True(t, decimal.NewFromInt(750).Equal(resp.Total))
	assert.True(t, resp.DiscountTotal.IsZero())
	assert.Empty(t, resp.Discounts)
	m.usage.AssertNotCalled(t, "IncrementUses", mock.Anything, mock.Anything, mock.Anything)
	m.cache.AssertNotCalled(t, "Invalidate")
}

func TestOrderService_CreateOrder_DiscountExhausted(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	svc, m := newOrderServiceWithMocks(true, metrics.New(reg))

	m.products.On("GetByIDs", ctx, []string{"P001"}).Return(orderProducts()[:1], nil)
	m.source.On("Rules", ctx).Return([]model.DiscountRule{sneakerBOGO()}, nil)
	m.orders.On("BeginTx", ctx).Return(m.tx, nil)
	m.orders.On("CreateOrder", ctx, m.tx, mock.Anything).Return(nil)
	m.orders.On("CreateOrderItems", ctx, m.tx, mock.Anything).Return(nil)
	m.orders.On("CreateOrderDiscounts", ctx, m.tx, mock.Anything).Return(nil)
	m.usage.On("IncrementUses", ctx, m.tx, "bogo").Return(false, nil)
	m.tx.On("Rollback", ctx).Return(nil)

	resp, err := svc.CreateOrder(ctx, &model.OrderRequest{
		Items: []model.OrderItemRequest{{ProductID: "P001", Quantity: 2}},
	})

	require.Error(t, err)
	assert.Equal(t, model.ErrDiscountExhausted, err)
	assert.Nil(t, resp)
	m.tx.AssertExpectations(t)
	m.tx.AssertNotCalled(t, "Commit", mock.Anything)
	m.cache.AssertNotCalled(t, "Invalidate")

	count, gatherErr := testutil.GatherAndCount(reg, "storefront_orders_total")
	require.NoError(t, gatherErr)
	assert.Equal(t, 1, count)
}

func TestOrderService_CreateOrder_WithoutUsageTracking(t *testing.T) {
	ctx := context.Background()
	svc, m := newOrderServiceWithMocks(false, nil)

	m.products.On("GetByIDs", ctx, []string{"P001"}).Return(orderProducts()[:1], nil)
	m.source.On("Rules", ctx).Return([]model.DiscountRule{sneakerBOGO()}, nil)
	m.orders.On("BeginTx", ctx).Return(m.tx, nil)
	m.orders.On("CreateOrder", ctx, m.tx, mock.Anything).Return(nil)
	m.orders.On("CreateOrderItems", ctx, m.tx, mock.Anything).Return(nil)
	m.orders.On("CreateOrderDiscounts", ctx, m.tx, mock.Anything).Return(nil)
	m.tx.On("Commit", ctx).Return(nil)

	resp, err := svc.CreateOrder(ctx, &model.OrderRequest{
		Items: []model.OrderItemRequest{{ProductID: "P001", Quantity: 2}},
	})

	require.NoError(t, err)
	assert.Len(t, resp.Discounts, 1)
	m.usage.AssertNotCalled(t, "IncrementUses", mock.Anything, mock.Anything, mock.Anything)
	m.cache.AssertNotCalled(t, "Invalidate")
}

func TestOrderService_CreateOrder_ProductNotFound(t *testing.T) {
	ctx := context.Background()
	svc, m := newOrderServiceWithMocks(true, nil)

	m.products.On("GetByIDs", ctx, []string{"P001", "P999"}).Return(orderProducts()[:1], nil)

	resp, err := svc.CreateOrder(ctx, &model.OrderRequest{
		Items: []model.OrderItemRequest{
			{ProductID: "P001", Quantity: 1},
			{ProductID: "P999", Quantity: 1},
		},
	})

	require.Error(t, err)
	assert.Equal(t, model.ErrProductNotFound, err)
	assert.Nil(t, resp)
	m.source.AssertNotCalled(t, "Rules", mock.Anything)
	m.orders.AssertNotCalled(t, "BeginTx", mock.Anything)
}

func TestOrderService_CreateOrder_ValidationErrors(t *testing.T) {
	ctx := context.Background()
	svc, m := newOrderServiceWithMocks(true, nil)

	tests := []struct {
		name     string
		req      *model.OrderRequest
		wantCode string
	}{
		{
			name:     "Nil request",
			req:      nil,
			wantCode: model.ErrCodeMissingField,
		},
		{
			name:     "Empty items",
			req:      &model.OrderRequest{Items: []model.OrderItemRequest{}},
			wantCode: model.ErrCodeMissingField,
		},
		{
			name:     "Empty product ID",
			req:      &model.OrderRequest{Items: []model.OrderItemRequest{{ProductID: "", Quantity: 1}}},
			wantCode: model.ErrCodeMissingField,
		},
		{
			name:     "Zero quantity",
			req:      &model.OrderRequest{Items: []model.OrderItemRequest{{ProductID: "P001", Quantity: 0}}},
			wantCode: model.ErrCodeInvalidQuantity,
		},
		{
			name:     "Negative quantity",
			req:      &model.OrderRequest{Items: []model.OrderItemRequest{{ProductID: "P001", Quantity: -5}}},
			wantCode: model.ErrCodeInvalidQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.CreateOrder(ctx, tt.req)

			require.Error(t, err)
			assert.Nil(t, resp)
			var de *model.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.wantCode, de.Code)
		})
	}

	m.products.AssertNotCalled(t, "GetByIDs", mock.Anything, mock.Anything)
}

func TestOrderService_CreateOrder_TransactionRollback(t *testing.T) {
	ctx := context.Background()
	svc, m := newOrderServiceWithMocks(true, nil)

	m.products.On("GetByIDs", ctx, []string{"P002"}).Return(orderProducts()[1:], nil)
	m.source.On("Rules", ctx).Return([]model.DiscountRule{}, nil)
	m.orders.On("BeginTx", ctx).Return(m.tx, nil)
	m.orders.On("CreateOrder", ctx, m.tx, mock.AnythingOfType("*model.Order")).
		Return(errors.New("database error"))
	m.tx.On("Rollback", ctx).Return(nil)

	resp, err := svc.CreateOrder(ctx, &model.OrderRequest{
		Items: []model.OrderItemRequest{{ProductID: "P002", Quantity: 1}},
	})

	require.Error(t, err)
	assert.Nil(t, resp)
	m.orders.AssertExpectations(t)
	m.tx.AssertExpectations(t)
	m.orders.AssertNotCalled(t, "CreateOrderItems", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_CreateOrder_BeginTxError(t *testing.T) {
	ctx := context.Background()
	svc, m := newOrderServiceWithMocks(true, nil)

	m.products.On("GetByIDs", ctx, []string{"P002"}).Return(orderProducts()[1:], nil)
	m.source.On("Rules", ctx).Return([]model.DiscountRule{}, nil)
	m.orders.On("BeginTx", ctx).Return(nil, errors.New("pool closed"))

	_, err := svc.CreateOrder(ctx, &model.OrderRequest{
		Items: []model.OrderItemRequest{{ProductID: "P002", Quantity: 1}},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "pool closed")
}

func TestOrderService_GetByID(t *testing.T) {
	ctx := context.Background()

	orderID := uuid.New()
	order := &model.Order{
		ID:            orderID,
		Subtotal:      decimal.NewFromInt(2250),
		DiscountTotal: decimal.NewFromInt(1000),
		Total:         decimal.NewFromInt(1250),
		CreatedAt:     fixedNow,
		UpdatedAt:     fixedNow,
	}
	items := []model.OrderItem{
		{ID: uuid.New(), OrderID: orderID, ProductID: "P001", Quantity: 2, UnitPrice: decimal.NewFromInt(1000)},
		{ID: uuid.New(), OrderID: orderID, ProductID: "P002", Quantity: 1, UnitPrice: decimal.NewFromInt(250)},
	}
	discounts := []model.OrderDiscount{
		{OrderID: orderID, RuleID: "bogo", Name: "Sneaker BOGO", Amount: decimal.NewFromInt(1000)},
	}

	t.Run("Success", func(t *testing.T) {
		svc, m := newOrderServiceWithMocks(true, nil)
		m.orders.On("GetByID", ctx, orderID).Return(order, items, discounts, nil)
		m.products.On("GetByIDs", ctx, []string{"P001", "P002"}).Return(orderProducts(), nil)

		resp, err := svc.GetByID(ctx, orderID)

		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, orderID, resp.ID)
		assert.True(t, order.Total.Equal(resp.Total))
		assert.Len(t, resp.Items, 2)
		assert.Len(t, resp.Products, 2)
		assert.Equal(t, discounts, resp.Discounts)
	})

	t.Run("Order not found", func(t *testing.T) {
		svc, m := newOrderServiceWithMocks(true, nil)
		missing := uuid.New()
		m.orders.On("GetByID", ctx, missing).Return(nil, nil, nil, nil)

		resp, err := svc.GetByID(ctx, missing)

		require.NoError(t, err)
		assert.Nil(t, resp)
	})

	t.Run("Repository error", func(t *testing.T) {
		svc, m := newOrderServiceWithMocks(true, nil)
		m.orders.On("GetByID", ctx, orderID).Return(nil, nil, nil, errors.New("database error"))

		resp, err := svc.GetByID(ctx, orderID)

		require.Error(t, err)
		assert.Nil(t, resp)
	})

	t.Run("Product lookup error", func(t *testing.T) {
		svc, m := newOrderServiceWithMocks(true, nil)
		m.orders.On("GetByID", ctx, orderID).Return(order, items, discounts, nil)
		m.products.On("GetByIDs", ctx, []string{"P001", "P002"}).Return(nil, errors.New("database error"))

		resp, err := svc.GetByID(ctx, orderID)

		require.Error(t, err)
		assert.Nil(t, resp)
	})
}
