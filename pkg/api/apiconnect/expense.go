package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/groupsplit/pkg/api"
)

// ExpenseServiceName is the fully-qualified name of the ExpenseService service.
const ExpenseServiceName = "groupsplit.v1.ExpenseService"

// Procedure paths of the ExpenseService RPCs.
const (
	ExpenseServiceAllocateSplitsProcedure   = "/groupsplit.v1.ExpenseService/AllocateSplits"
	ExpenseServiceCreateExpenseProcedure    = "/groupsplit.v1.ExpenseService/CreateExpense"
	ExpenseServiceGetExpenseProcedure       = "/groupsplit.v1.ExpenseService/GetExpense"
	ExpenseServiceUpdateExpenseProcedure    = "/groupsplit.v1.ExpenseService/UpdateExpense"
	ExpenseServiceDeleteExpenseProcedure    = "/groupsplit.v1.ExpenseService/DeleteExpense"
	ExpenseServiceListExpensesProcedure     = "/groupsplit.v1.ExpenseService/ListExpenses"
	ExpenseServiceRecordSettlementProcedure = "/groupsplit.v1.ExpenseService/RecordSettlement"
	ExpenseServiceListSettlementsProcedure  = "/groupsplit.v1.ExpenseService/ListSettlements"
	ExpenseServiceDeleteSettlementProcedure = "/groupsplit.v1.ExpenseService/DeleteSettlement"
)

// ExpenseServiceHandler is implemented by the server side of groupsplit.v1.ExpenseService.
// ExpenseService records expenses and settlements and previews split allocations.
type ExpenseServiceHandler interface {
	AllocateSplits(context.Context, *connect.Request[api.AllocateSplitsRequest]) (*connect.Response[api.AllocateSplitsResponse], error)
	CreateExpense(context.Context, *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error)
	GetExpense(context.Context, *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error)
	UpdateExpense(context.Context, *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error)
	DeleteExpense(context.Context, *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error)
	RecordSettlement(context.Context, *connect.Request[api.RecordSettlementRequest]) (*connect.Response[api.RecordSettlementResponse], error)
	ListSettlements(context.Context, *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error)
	DeleteSettlement(context.Context, *connect.Request[api.DeleteSettlementRequest]) (*connect.Response[api.DeleteSettlementResponse], error)
}

// NewExpenseServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewExpenseServiceHandler(svc ExpenseServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append(handlerOptions(), opts...)
	mux := http.NewServeMux()
	mux.Handle(ExpenseServiceAllocateSplitsProcedure, connect.NewUnaryHandler(
		ExpenseServiceAllocateSplitsProcedure,
		svc.AllocateSplits,
		opts...,
	))
	mux.Handle(ExpenseServiceCreateExpenseProcedure, connect.NewUnaryHandler(
		ExpenseServiceCreateExpenseProcedure,
		svc.CreateExpense,
		opts...,
	))
	mux.Handle(ExpenseServiceGetExpenseProcedure, connect.NewUnaryHandler(
		ExpenseServiceGetExpenseProcedure,
		svc.GetExpense,
		opts...,
	))
	mux.Handle(ExpenseServiceUpdateExpenseProcedure, connect.NewUnaryHandler(
		ExpenseServiceUpdateExpenseProcedure,
		svc.UpdateExpense,
		opts...,
	))
	mux.Handle(ExpenseServiceDeleteExpenseProcedure, connect.NewUnaryHandler(
		ExpenseServiceDeleteExpenseProcedure,
		svc.DeleteExpense,
		opts...,
	))
	mux.Handle(ExpenseServiceListExpensesProcedure, connect.NewUnaryHandler(
		ExpenseServiceListExpensesProcedure,
		svc.ListExpenses,
		opts...,
	))
	mux.Handle(ExpenseServiceRecordSettlementProcedure, connect.NewUnaryHandler(
		ExpenseServiceRecordSettlementProcedure,
		svc.RecordSettlement,
		opts...,
	))
	mux.Handle(ExpenseServiceListSettlementsProcedure, connect.NewUnaryHandler(
		ExpenseServiceListSettlementsProcedure,
		svc.ListSettlements,
		opts...,
	))
	mux.Handle(ExpenseServiceDeleteSettlementProcedure, connect.NewUnaryHandler(
		ExpenseServiceDeleteSettlementProcedure,
		svc.DeleteSettlement,
		opts...,
	))
	return "/" + ExpenseServiceName + "/", mux
}

// ExpenseServiceClient is a client for groupsplit.v1.ExpenseService.
type ExpenseServiceClient interface {
	AllocateSplits(context.Context, *connect.Request[api.AllocateSplitsRequest]) (*connect.Response[api.AllocateSplitsResponse], error)
	CreateExpense(context.Context, *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error)
	GetExpense(context.Context, *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error)
	UpdateExpense(context.Context, *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error)
	DeleteExpense(context.Context, *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error)
	RecordSettlement(context.Context, *connect.Request[api.RecordSettlementRequest]) (*connect.Response[api.RecordSettlementResponse], error)
	ListSettlements(context.Context, *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error)
	DeleteSettlement(context.Context, *connect.Request[api.DeleteSettlementRequest]) (*connect.Response[api.DeleteSettlementResponse], error)
}

// NewExpenseServiceClient constructs a client for groupsplit.v1.ExpenseService. baseURL is the
// server root, e.g. http://localhost:8080.
func NewExpenseServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) ExpenseServiceClient {
	baseURL = trimSlash(baseURL)
	opts = append(clientOptions(), opts...)
	return &expenseServiceClient{
		allocateSplits:   connect.NewClient[api.AllocateSplitsRequest, api.AllocateSplitsResponse](httpClient, baseURL+ExpenseServiceAllocateSplitsProcedure, opts...),
		createExpense:    connect.NewClient[api.CreateExpenseRequest, api.CreateExpenseResponse](httpClient, baseURL+ExpenseServiceCreateExpenseProcedure, opts...),
		getExpense:       connect.NewClient[api.GetExpenseRequest, api.GetExpenseResponse](httpClient, baseURL+ExpenseServiceGetExpenseProcedure, opts...),
		updateExpense:    connect.NewClient[api.UpdateExpenseRequest, api.UpdateExpenseResponse](httpClient, baseURL+ExpenseServiceUpdateExpenseProcedure, opts...),
		deleteExpense:    connect.NewClient[api.DeleteExpenseRequest, api.DeleteExpenseResponse](httpClient, baseURL+ExpenseServiceDeleteExpenseProcedure, opts...),
		listExpenses:     connect.NewClient[api.ListExpensesRequest, api.ListExpensesResponse](httpClient, baseURL+ExpenseServiceListExpensesProcedure, opts...),
		recordSettlement: connect.NewClient[api.RecordSettlementRequest, api.RecordSettlementResponse](httpClient, baseURL+ExpenseServiceRecordSettlementProcedure, opts...),
		listSettlements:  connect.NewClient[api.ListSettlementsRequest, api.ListSettlementsResponse](httpClient, baseURL+ExpenseServiceListSettlementsProcedure, opts...),
		deleteSettlement: connect.NewClient[api.DeleteSettlementRequest, api.DeleteSettlementResponse](httpClient, baseURL+ExpenseServiceDeleteSettlementProcedure, opts...),
	}
}

type expenseServiceClient struct {
	allocateSplits   *connect.Client[api.AllocateSplitsRequest, api.AllocateSplitsResponse]
	createExpense    *connect.Client[api.CreateExpenseRequest, api.CreateExpenseResponse]
	getExpense       *connect.Client[api.GetExpenseRequest, api.GetExpenseResponse]
	updateExpense    *connect.Client[api.UpdateExpenseRequest, api.UpdateExpenseResponse]
	deleteExpense    *connect.Client[api.DeleteExpenseRequest, api.DeleteExpenseResponse]
	listExpenses     *connect.Client[api.ListExpensesRequest, api.ListExpensesResponse]
	recordSettlement *connect.Client[api.RecordSettlementRequest, api.RecordSettlementResponse]
	listSettlements  *connect.Client[api.ListSettlementsRequest, api.ListSettlementsResponse]
	deleteSettlement *connect.Client[api.DeleteSettlementRequest, api.DeleteSettlementResponse]
}

func (c *expenseServiceClient) AllocateSplits(ctx context.Context, req *connect.Request[api.AllocateSplitsRequest]) (*connect.Response[api.AllocateSplitsResponse], error) {
	return c.allocateSplits.CallUnary(ctx, req)
}

func (c *expenseServiceClient) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	return c.createExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
	return c.getExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	return c.updateExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *expenseServiceClient) RecordSettlement(ctx context.Context, req *connect.Request[api.RecordSettlementRequest]) (*connect.Response[api.RecordSettlementResponse], error) {
	return c.recordSettlement.CallUnary(ctx, req)
}

func (c *expenseServiceClient) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	return c.listSettlements.CallUnary(ctx, req)
}

func (c *expenseServiceClient) DeleteSettlement(ctx context.Context, req *connect.Request[api.DeleteSettlementRequest]) (*connect.Response[api.DeleteSettlementResponse], error) {
	return c.deleteSettlement.CallUnary(ctx, req)
}
