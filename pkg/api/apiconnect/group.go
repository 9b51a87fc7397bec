package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/groupsplit/pkg/api"
)

// GroupServiceName is the fully-qualified name of the GroupService service.
const GroupServiceName = "groupsplit.v1.GroupService"

// Procedure paths of the GroupService RPCs.
const (
	GroupServiceCreateGroupProcedure      = "/groupsplit.v1.GroupService/CreateGroup"
	GroupServiceGetGroupProcedure         = "/groupsplit.v1.GroupService/GetGroup"
	GroupServiceListGroupsProcedure       = "/groupsplit.v1.GroupService/ListGroups"
	GroupServiceUpdateGroupProcedure      = "/groupsplit.v1.GroupService/UpdateGroup"
	GroupServiceDeleteGroupProcedure      = "/groupsplit.v1.GroupService/DeleteGroup"
	GroupServiceAddMemberProcedure        = "/groupsplit.v1.GroupService/AddMember"
	GroupServiceRemoveMemberProcedure     = "/groupsplit.v1.GroupService/RemoveMember"
	GroupServiceListMembersProcedure      = "/groupsplit.v1.GroupService/ListMembers"
	GroupServiceGetGroupBalancesProcedure = "/groupsplit.v1.GroupService/GetGroupBalances"
)

// GroupServiceHandler is implemented by the server side of groupsplit.v1.GroupService.
// GroupService manages groups, their rosters and their settlement plans.
type GroupServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)
	GetGroup(context.Context, *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error)
	ListGroups(context.Context, *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error)
	UpdateGroup(context.Context, *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.UpdateGroupResponse], error)
	DeleteGroup(context.Context, *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error)
	AddMember(context.Context, *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error)
	RemoveMember(context.Context, *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error)
	ListMembers(context.Context, *connect.Request[api.ListMembersRequest]) (*connect.Response[api.ListMembersResponse], error)
	GetGroupBalances(context.Context, *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error)
}

// NewGroupServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append(handlerOptions(), opts...)
	mux := http.NewServeMux()
	mux.Handle(GroupServiceCreateGroupProcedure, connect.NewUnaryHandler(
		GroupServiceCreateGroupProcedure,
		svc.CreateGroup,
		opts...,
	))
	mux.Handle(GroupServiceGetGroupProcedure, connect.NewUnaryHandler(
		GroupServiceGetGroupProcedure,
		svc.GetGroup,
		opts...,
	))
	mux.Handle(GroupServiceListGroupsProcedure, connect.NewUnaryHandler(
		GroupServiceListGroupsProcedure,
		svc.ListGroups,
		opts...,
	))
	mux.Handle(GroupServiceUpdateGroupProcedure, connect.NewUnaryHandler(
		GroupServiceUpdateGroupProcedure,
		svc.UpdateGroup,
		opts...,
	))
	mux.Handle(GroupServiceDeleteGroupProcedure, connect.NewUnaryHandler(
		GroupServiceDeleteGroupProcedure,
		svc.DeleteGroup,
		opts...,
	))
	mux.Handle(GroupServiceAddMemberProcedure, connect.NewUnaryHandler(
		GroupServiceAddMemberProcedure,
		svc.AddMember,
		opts...,
	))
	mux.Handle(GroupServiceRemoveMemberProcedure, connect.NewUnaryHandler(
		GroupServiceRemoveMemberProcedure,
		svc.RemoveMember,
		opts...,
	))
	mux.Handle(GroupServiceListMembersProcedure, connect.NewUnaryHandler(
		GroupServiceListMembersProcedure,
		svc.ListMembers,
		opts...,
	))
	mux.Handle(GroupServiceGetGroupBalancesProcedure, connect.NewUnaryHandler(
		GroupServiceGetGroupBalancesProcedure,
		svc.GetGroupBalances,
		opts...,
	))
	return "/" + GroupServiceName + "/", mux
}

// GroupServiceClient is a client for groupsplit.v1.GroupService.
type GroupServiceClient interface {
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)
	GetGroup(context.Context, *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error)
	ListGroups(context.Context, *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error)
	UpdateGroup(context.Context, *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.UpdateGroupResponse], error)
	DeleteGroup(context.Context, *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error)
	AddMember(context.Context, *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error)
	RemoveMember(context.Context, *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error)
	ListMembers(context.Context, *connect.Request[api.ListMembersRequest]) (*connect.Response[api.ListMembersResponse], error)
	GetGroupBalances(context.Context, *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error)
}

// NewGroupServiceClient constructs a client for groupsplit.v1.GroupService. baseURL is the
// server root, e.g. http://localhost:8080.
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) GroupServiceClient {
	baseURL = trimSlash(baseURL)
	opts = append(clientOptions(), opts...)
	return &groupServiceClient{
		createGroup:      connect.NewClient[api.CreateGroupRequest, api.CreateGroupResponse](httpClient, baseURL+GroupServiceCreateGroupProcedure, opts...),
		getGroup:         connect.NewClient[api.GetGroupRequest, api.GetGroupResponse](httpClient, baseURL+GroupServiceGetGroupProcedure, opts...),
		listGroups:       connect.NewClient[api.ListGroupsRequest, api.ListGroupsResponse](httpClient, baseURL+GroupServiceListGroupsProcedure, opts...),
		updateGroup:      connect.NewClient[api.UpdateGroupRequest, api.UpdateGroupResponse](httpClient, baseURL+GroupServiceUpdateGroupProcedure, opts...),
		deleteGroup:      connect.NewClient[api.DeleteGroupRequest, api.DeleteGroupResponse](httpClient, baseURL+GroupServiceDeleteGroupProcedure, opts...),
		addMember:        connect.NewClient[api.AddMemberRequest, api.AddMemberResponse](httpClient, baseURL+GroupServiceAddMemberProcedure, opts...),
		removeMember:     connect.NewClient[api.RemoveMemberRequest, api.RemoveMemberResponse](httpClient, baseURL+GroupServiceRemoveMemberProcedure, opts...),
		listMembers:      connect.NewClient[api.ListMembersRequest, api.ListMembersResponse](httpClient, baseURL+GroupServiceListMembersProcedure, opts...),
		getGroupBalances: connect.NewClient[api.GetGroupBalancesRequest, api.GetGroupBalancesResponse](httpClient, baseURL+GroupServiceGetGroupBalancesProcedure, opts...),
	}
}

type groupServiceClient struct {
	createGroup      *connect.Client[api.CreateGroupRequest, api.CreateGroupResponse]
	getGroup         *connect.Client[api.GetGroupRequest, api.GetGroupResponse]
	listGroups       *connect.Client[api.ListGroupsRequest, api.ListGroupsResponse]
	updateGroup      *connect.Client[api.UpdateGroupRequest, api.UpdateGroupResponse]
	deleteGroup      *connect.Client[api.DeleteGroupRequest, api.DeleteGroupResponse]
	addMember        *connect.Client[api.AddMemberRequest, api.AddMemberResponse]
	removeMember     *connect.Client[api.RemoveMemberRequest, api.RemoveMemberResponse]
	listMembers      *connect.Client[api.ListMembersRequest, api.ListMembersResponse]
	getGroupBalances *connect.Client[api.GetGroupBalancesRequest, api.GetGroupBalancesResponse]
}

func (c *groupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	return c.listGroups.CallUnary(ctx, req)
}

func (c *groupServiceClient) UpdateGroup(ctx context.Context, req *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.UpdateGroupResponse], error) {
	return c.updateGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	return c.deleteGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	return c.addMember.CallUnary(ctx, req)
}

func (c *groupServiceClient) RemoveMember(ctx context.Context, req *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error) {
	return c.removeMember.CallUnary(ctx, req)
}

func (c *groupServiceClient) ListMembers(ctx context.Context, req *connect.Request[api.ListMembersRequest]) (*connect.Response[api.ListMembersResponse], error) {
	return c.listMembers.CallUnary(ctx, req)
}

func (c *groupServiceClient) GetGroupBalances(ctx context.Context, req *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error) {
	return c.getGroupBalances.CallUnary(ctx, req)
}
