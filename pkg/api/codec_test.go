package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec(t *testing.T) {
	assert.Equal(t, "json", JSONCodec.Name())
	assert.Equal(t, "json; charset=utf-8", JSONCharsetCodec.Name())
	assert.Equal(t, "json", Codec{}.Name())

	included := false
	req := &CreateExpenseRequest{
		GroupID:   "g1",
		Amount:    "12.50",
		SplitType: "custom",
		Members:   []*MemberSplitInput{{MemberID: "m1", Included: &included, Amount: "12.50"}},
	}

	data, err := JSONCodec.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"groupId": "g1",
		"amount": "12.50",
		"splitType": "custom",
		"members": [{"memberId": "m1", "included": false, "amount": "12.50"}]
	}`, string(data))

	var decoded CreateExpenseRequest
	require.NoError(t, JSONCodec.Unmarshal(data, &decoded))
	assert.Equal(t, req, &decoded)

	var empty ListGroupsRequest
	assert.NoError(t, JSONCodec.Unmarshal(nil, &empty))
	assert.Error(t, JSONCodec.Unmarshal([]byte("{"), &decoded))
}
