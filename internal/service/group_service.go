package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/groupsplit/internal/calculator"
	"github.com/mmynk/groupsplit/internal/models"
	"github.com/mmynk/groupsplit/internal/money"
	"github.com/mmynk/groupsplit/internal/storage"
	"github.com/mmynk/groupsplit/pkg/api"
	"github.com/mmynk/groupsplit/pkg/api/apiconnect"
)

var _ apiconnect.GroupServiceHandler = (*GroupService)(nil)

// GroupService implements the Connect GroupService
type GroupService struct {
	deps
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store, opts ...Option) *GroupService {
	return &GroupService{deps: newDeps(store, opts)}
}

// CreateGroup creates a new group, optionally seeding its roster.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	slog.InfoContext(ctx, "CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.MemberNames),
	)

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, toConnectError(invalidArgf("group name required"))
	}

	group := &models.Group{
		Name:      name,
		Emoji:     req.Msg.Emoji,
		Currency:  strings.ToUpper(strings.TrimSpace(req.Msg.Currency)),
		CreatedBy: req.Msg.CreatedBy,
	}

	// Save to storage (generates ID and CreatedAt)
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.ErrorContext(ctx, "CreateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	members := make([]*models.Member, 0, len(req.Msg.MemberNames))
	for _, fullName := range req.Msg.MemberNames {
		fullName = strings.TrimSpace(fullName)
		if fullName == "" {
			continue
		}
		member := &models.Member{GroupID: group.ID, FullName: fullName}
		if err := s.store.AddMember(ctx, member); err != nil {
			slog.ErrorContext(ctx, "CreateGroup failed to add member", "group_id", group.ID, "error", err)
			return nil, toConnectError(err)
		}
		members = append(members, member)
	}

	slog.InfoContext(ctx, "Group created", "group_id", group.ID, "members_count", len(members))

	return connect.NewResponse(&api.CreateGroupResponse{
		Group:   toAPIGroup(group),
		Members: toAPIMembers(members),
	}), nil
}

// GetGroup retrieves a group and its roster.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	slog.InfoContext(ctx, "GetGroup request received", "group_id", req.Msg.GroupID)

	if err := requireID("group_id", req.Msg.GroupID); err != nil {
		return nil, toConnectError(err)
	}

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.ErrorContext(ctx, "GetGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	members, err := s.store.ListMembers(ctx, group.ID)
	if err != nil {
		slog.ErrorContext(ctx, "GetGroup failed to list members", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.InfoContext(ctx, "GetGroup successful", "group_id", group.ID, "name", group.Name)

	return connect.NewResponse(&api.GetGroupResponse{
		Group:   toAPIGroup(group),
		Members: toAPIMembers(members),
	}), nil
}

// ListGroups retrieves all groups.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	slog.InfoContext(ctx, "ListGroups request received")

	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "ListGroups failed", "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Group, len(groups))
	for i, group := range groups {
		out[i] = toAPIGroup(group)
	}

	slog.InfoContext(ctx, "ListGroups successful", "count", len(groups))

	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// UpdateGroup updates an existing group's name, emoji and currency.
func (s *GroupService) UpdateGroup(ctx context.Context, req *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.UpdateGroupResponse], error) {
	slog.InfoContext(ctx, "UpdateGroup request received",
		"group_id", req.Msg.GroupID,
		"name", req.Msg.Name,
	)

	if err := requireID("group_id", req.Msg.GroupID); err != nil {
		return nil, toConnectError(err)
	}
	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, toConnectError(invalidArgf("group name required"))
	}

	group := &models.Group{
		ID:       req.Msg.GroupID,
		Name:     name,
		Emoji:    req.Msg.Emoji,
		Currency: strings.ToUpper(strings.TrimSpace(req.Msg.Currency)),
	}

	if err := s.store.UpdateGroup(ctx, group); err != nil {
		slog.ErrorContext(ctx, "UpdateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	// Fetch updated group to get CreatedAt
	updated, err := s.store.GetGroup(ctx, group.ID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to fetch updated group", "error", err)
		return nil, toConnectError(err)
	}

	slog.InfoContext(ctx, "Group updated", "group_id", group.ID)

	return connect.NewResponse(&api.UpdateGroupResponse{Group: toAPIGroup(updated)}), nil
}

// DeleteGroup removes a group and everything recorded in it.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	slog.InfoContext(ctx, "DeleteGroup request received", "group_id", req.Msg.GroupID)

	if err := requireID("group_id", req.Msg.GroupID); err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.DeleteGroup(ctx, req.Msg.GroupID); err != nil {
		slog.ErrorContext(ctx, "DeleteGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.InfoContext(ctx, "Group deleted", "group_id", req.Msg.GroupID)

	return connect.NewResponse(&api.DeleteGroupResponse{}), nil
}

// AddMember appends a member to a group's roster.
func (s *GroupService) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	slog.InfoContext(ctx, "AddMember request received", "group_id", req.Msg.GroupID)

	if err := requireID("group_id", req.Msg.GroupID); err != nil {
		return nil, toConnectError(err)
	}
	fullName := strings.TrimSpace(req.Msg.FullName)
	if fullName == "" {
		return nil, toConnectError(invalidArgf("member name required"))
	}

	if _, err := s.store.GetGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, toConnectError(err)
	}

	member := &models.Member{
		GroupID:  req.Msg.GroupID,
		FullName: fullName,
		Email:    strings.TrimSpace(req.Msg.Email),
	}
	if err := s.store.AddMember(ctx, member); err != nil {
		slog.ErrorContext(ctx, "AddMember failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	slog.InfoContext(ctx, "Member added", "group_id", member.GroupID, "member_id", member.ID)

	return connect.NewResponse(&api.AddMemberResponse{Member: toAPIMember(member)}), nil
}

// RemoveMember deletes a member who has no expenses, splits or settlements.
func (s *GroupService) RemoveMember(ctx context.Context, req *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error) {
	slog.InfoContext(ctx, "RemoveMember request received", "member_id", req.Msg.MemberID)

	if err := requireID("member_id", req.Msg.MemberID); err != nil {
		return nil, toConnectError(err)
	}

	member, err := s.store.GetMember(ctx, req.Msg.MemberID)
	if err != nil {
		return nil, toConnectError(err)
	}

	inUse, err := s.memberInUse(ctx, member)
	if err != nil {
		slog.ErrorContext(ctx, "RemoveMember failed", "member_id", member.ID, "error", err)
		return nil, toConnectError(err)
	}
	if inUse {
		return nil, connect.NewError(connect.CodeFailedPrecondition,
			fmt.Errorf("member %s still appears in expenses or settlements", member.ID))
	}

	if err := s.store.RemoveMember(ctx, member.ID); err != nil {
		slog.ErrorContext(ctx, "RemoveMember failed", "member_id", member.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.InfoContext(ctx, "Member removed", "group_id", member.GroupID, "member_id", member.ID)

	return connect.NewResponse(&api.RemoveMemberResponse{}), nil
}

func (s *GroupService) memberInUse(ctx context.Context, member *models.Member) (bool, error) {
	expenses, err := s.store.ListExpenses(ctx, member.GroupID)
	if err != nil {
		return false, err
	}
	for _, e := range expenses {
		if e.PaidBy == member.ID {
			return true, nil
		}
		for _, split := range e.Splits {
			if split.MemberID == member.ID {
				return true, nil
			}
		}
	}

	settlements, err := s.store.ListSettlements(ctx, member.GroupID)
	if err != nil {
		return false, err
	}
	for _, st := range settlements {
		if st.FromMemberID == member.ID || st.ToMemberID == member.ID {
			return true, nil
		}
	}
	return false, nil
}

// ListMembers returns a group's roster in the order members were added.
func (s *GroupService) ListMembers(ctx context.Context, req *connect.Request[api.ListMembersRequest]) (*connect.Response[api.ListMembersResponse], error) {
	slog.InfoContext(ctx, "ListMembers request received", "group_id", req.Msg.GroupID)

	if err := requireID("group_id", req.Msg.GroupID); err != nil {
		return nil, toConnectError(err)
	}
	if _, err := s.store.GetGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, toConnectError(err)
	}

	members, err := s.store.ListMembers(ctx, req.Msg.GroupID)
	if err != nil {
		slog.ErrorContext(ctx, "ListMembers failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.ListMembersResponse{Members: toAPIMembers(members)}), nil
}

// GetGroupBalances computes net positions and the settlement plan for a group,
// counting every expense and every recorded settlement.
func (s *GroupService) GetGroupBalances(ctx context.Context, req *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error) {
	groupID := req.Msg.GroupID
	slog.InfoContext(ctx, "GetGroupBalances request received", "group_id", groupID)

	if err := requireID("group_id", groupID); err != nil {
		return nil, toConnectError(err)
	}

	// Verify group exists
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		slog.ErrorContext(ctx, "GetGroupBalances failed - group not found", "group_id", groupID, "error", err)
		return nil, toConnectError(err)
	}

	members, err := s.store.ListMembers(ctx, groupID)
	if err != nil {
		slog.ErrorContext(ctx, "GetGroupBalances failed - could not list members", "group_id", groupID, "error", err)
		return nil, toConnectError(err)
	}
	expenses, err := s.store.ListExpenses(ctx, groupID)
	if err != nil {
		slog.ErrorContext(ctx, "GetGroupBalances failed - could not list expenses", "group_id", groupID, "error", err)
		return nil, toConnectError(err)
	}
	settlements, err := s.store.ListSettlements(ctx, groupID)
	if err != nil {
		slog.ErrorContext(ctx, "GetGroupBalances failed - could not list settlements", "group_id", groupID, "error", err)
		return nil, toConnectError(err)
	}

	roster, inputs := ledgerInputs(members, expenses, settlements)
	positions := calculator.NetPositions(inputs, roster)
	balances := calculator.ComputeBalances(inputs, roster)
	s.metrics.ObserveBalances(len(balances))

	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.ID] = m.FullName
	}

	memberBalances := make([]*api.MemberBalance, len(positions))
	for i, p := range positions {
		memberBalances[i] = &api.MemberBalance{
			MemberID:  p.MemberID,
			FullName:  names[p.MemberID],
			TotalPaid: money.Format(p.TotalPaid),
			TotalOwed: money.Format(p.TotalOwed),
			Net:       money.Format(p.Net),
		}
	}

	transfers := make([]*api.Balance, len(balances))
	for i, b := range balances {
		transfers[i] = &api.Balance{
			From:   b.From,
			To:     b.To,
			Amount: money.Format(b.Amount),
		}
	}

	slog.InfoContext(ctx, "GetGroupBalances successful",
		"group_id", groupID,
		"expenses_count", len(expenses),
		"settlements_count", len(settlements),
		"members_count", len(members),
		"transfers_count", len(transfers),
	)

	return connect.NewResponse(&api.GetGroupBalancesResponse{
		Balances:       transfers,
		MemberBalances: memberBalances,
	}), nil
}
