package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionListJSONTagging(t *testing.T) {
	list := ActionList{
		UpdateFieldAction{TargetField: "status", TargetValue: "contacted"},
		AssignUserAction{TargetUserID: "u-1"},
		CreateTaskAction{Subject: "Follow up", DaysUntilDue: 3},
		SendNotificationAction{TargetUserID: "u-2", Severity: "warning"},
	}

	data, err := json.Marshal(list)
	require.NoError(t, err)

	var decoded ActionList
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 4)

	uf, ok := decoded[0].(UpdateFieldAction)
	require.True(t, ok, "first action should decode as UpdateFieldAction")
	assert.Equal(t, "status", uf.TargetField)
	assert.Equal(t, "contacted", uf.TargetValue)

	au, ok := decoded[1].(AssignUserAction)
	require.True(t, ok)
	assert.Equal(t, "u-1", au.TargetUserID)

	ct, ok := decoded[2].(CreateTaskAction)
	require.True(t, ok)
	assert.Equal(t, 3, ct.DaysUntilDue)

	sn, ok := decoded[3].(SendNotificationAction)
	require.True(t, ok)
	assert.Equal(t, "warning", sn.Severity)
}

func TestActionListRejectsUnknownType(t *testing.T) {
	var list ActionList
	err := json.Unmarshal([]byte(`[{"type":"launch_rocket"}]`), &list)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "launch_rocket")
}

func TestActionListScanValueRoundTrip(t *testing.T) {
	list := ActionList{
		SendNotificationAction{TargetUserID: "u-9", Title: "Deal won"},
	}
	v, err := list.Value()
	require.NoError(t, err)

	var decoded ActionList
	require.NoError(t, decoded.Scan(v))
	require.Len(t, decoded, 1)
	sn, ok := decoded[0].(SendNotificationAction)
	require.True(t, ok)
	assert.Equal(t, "Deal won", sn.Title)
}

func TestConditionListScanEmpty(t *testing.T) {
	var list ConditionList
	require.NoError(t, list.Scan(nil))
	assert.Nil(t, list)

	require.NoError(t, list.Scan(`[{"field":"source","operator":"equals","value":"website"}]`))
	require.Len(t, list, 1)
	assert.Equal(t, OperatorEquals, list[0].Operator)
}

func TestModuleTableName(t *testing.T) {
	assert.Equal(t, "leads", ModuleLead.TableName())
	assert.Equal(t, "activities", ModuleActivity.TableName())
	assert.Equal(t, "tickets", ModuleTicket.TableName())
}

func TestModuleAndEventValidation(t *testing.T) {
	assert.True(t, ModuleDeal.Valid())
	assert.False(t, Module("Widget").Valid())
	assert.True(t, EventUpdated.Valid())
	assert.False(t, Event("Archived").Valid())
	assert.True(t, OperatorContains.Valid())
	assert.False(t, Operator("matches").Valid())
}
