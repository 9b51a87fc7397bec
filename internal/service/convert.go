package service

import (
	"github.com/mmynk/groupsplit/internal/calculator"
	"github.com/mmynk/groupsplit/internal/models"
	"github.com/mmynk/groupsplit/internal/money"
	"github.com/mmynk/groupsplit/pkg/api"
)

func toAPIGroup(g *models.Group) *api.Group {
	return &api.Group{
		ID:        g.ID,
		Name:      g.Name,
		Emoji:     g.Emoji,
		Currency:  g.Currency,
		CreatedBy: g.CreatedBy,
		CreatedAt: g.CreatedAt,
	}
}

func toAPIMember(m *models.Member) *api.Member {
	return &api.Member{
		ID:        m.ID,
		GroupID:   m.GroupID,
		FullName:  m.FullName,
		Email:     m.Email,
		CreatedAt: m.CreatedAt,
	}
}

func toAPIMembers(members []*models.Member) []*api.Member {
	out := make([]*api.Member, len(members))
	for i, m := range members {
		out[i] = toAPIMember(m)
	}
	return out
}

func toAPIExpense(e *models.Expense) *api.Expense {
	splits := make([]api.Split, len(e.Splits))
	for i, s := range e.Splits {
		splits[i] = api.Split{
			MemberID:  s.MemberID,
			Amount:    money.Format(s.Amount),
			SplitType: s.SplitType,
		}
		if s.Percentage.Valid {
			splits[i].Percentage = money.Format(s.Percentage.Decimal)
		}
	}
	return &api.Expense{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Description: e.Description,
		Amount:      money.Format(e.Amount),
		PaidBy:      e.PaidBy,
		SplitType:   e.SplitType,
		CreatedAt:   e.CreatedAt,
		Splits:      splits,
	}
}

func toAPISettlement(s *models.Settlement) *api.Settlement {
	return &api.Settlement{
		ID:           s.ID,
		GroupID:      s.GroupID,
		FromMemberID: s.FromMemberID,
		ToMemberID:   s.ToMemberID,
		Amount:       money.Format(s.Amount),
		CreatedAt:    s.CreatedAt,
		CreatedBy:    s.CreatedBy,
		Note:         s.Note,
	}
}

func toModelSplits(splits []calculator.MemberSplit) []models.Split {
	out := make([]models.Split, len(splits))
	for i, s := range splits {
		out[i] = models.Split{
			MemberID:   s.MemberID,
			Amount:     s.Amount,
			SplitType:  string(s.SplitType),
			Percentage: s.Percentage,
		}
	}
	return out
}

// ledgerInputs converts a group's rows into balance engine inputs.
//
// A recorded settlement from A to B of x enters the engine as an expense of x
// paid by A and owed entirely by B, which moves both net positions toward zero.
func ledgerInputs(members []*models.Member, expenses []*models.Expense, settlements []*models.Settlement) ([]calculator.Member, []calculator.Expense) {
	roster := make([]calculator.Member, len(members))
	for i, m := range members {
		roster[i] = calculator.Member{ID: m.ID, Name: m.FullName}
	}

	inputs := make([]calculator.Expense, 0, len(expenses)+len(settlements))
	for _, e := range expenses {
		splits := make([]calculator.Split, len(e.Splits))
		for i, s := range e.Splits {
			splits[i] = calculator.Split{MemberID: s.MemberID, Amount: s.Amount}
		}
		inputs = append(inputs, calculator.Expense{
			ID:      e.ID,
			Amount:  e.Amount,
			PayerID: e.PaidBy,
			Splits:  splits,
		})
	}
	for _, s := range settlements {
		inputs = append(inputs, calculator.Expense{
			ID:      s.ID,
			Amount:  s.Amount,
			PayerID: s.FromMemberID,
			Splits:  []calculator.Split{{MemberID: s.ToMemberID, Amount: s.Amount}},
		})
	}
	return roster, inputs
}
