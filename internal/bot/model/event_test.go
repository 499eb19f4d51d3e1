package model

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizedCategory(t *testing.T) {
	assert.Equal(t, CategoryToken, Transfer{Category: "token"}.NormalizedCategory())
	assert.Equal(t, CategoryNative, Transfer{Category: "external"}.NormalizedCategory())
	assert.Equal(t, CategoryInternal, Transfer{Category: "internal"}.NormalizedCategory())
	assert.Equal(t, CategoryOther, Transfer{Category: "erc721"}.NormalizedCategory())
	assert.Equal(t, CategoryOther, Transfer{}.NormalizedCategory())
}

func TestContractAddressPrecedence(t *testing.T) {
	tr := Transfer{
		TokenAddress: "0xFALLBACK",
		RawContract:  RawContract{Address: "0xRAW"},
	}
	assert.Equal(t, "0xraw", tr.ContractAddress())

	tr.RawContract.Address = ""
	assert.Equal(t, "0xfallback", tr.ContractAddress())

	assert.Equal(t, "", Transfer{}.ContractAddress())
}

func TestWebhookPayloadDecode(t *testing.T) {
	raw := []byte(`{
		"webhookId": "wh_abc",
		"id": "whevt_1",
		"type": "ADDRESS_ACTIVITY",
		"event": {
			"network": "BASE_MAINNET",
			"activity": [
				{
					"category": "token",
					"fromAddress": "0xfrom",
					"toAddress": "0xto",
					"asset": "BEEF",
					"value": 12.5,
					"hash": "0xhash",
					"rawContract": {"address": "0xBEEF", "decimals": 18}
				},
				{
					"category": "external",
					"fromAddress": "0xfrom",
					"toAddress": "0xto",
					"value": null,
					"hash": "0xhash"
				}
			]
		}
	}`)

	var payload WebhookPayload
	require.NoError(t, sonic.Unmarshal(raw, &payload))

	assert.Equal(t, "BASE_MAINNET", payload.Event.Network)
	require.Len(t, payload.Event.Activity, 2)

	tok := payload.Event.Activity[0]
	assert.True(t, tok.IsToken())
	assert.Equal(t, "0xbeef", tok.ContractAddress())
	require.NotNil(t, tok.Value)
	assert.Equal(t, "12.5", tok.Value.String())

	native := payload.Event.Activity[1]
	assert.False(t, native.IsToken())
	assert.Nil(t, native.Value)
}
