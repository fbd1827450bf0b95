package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComputePayoutAmount(t *testing.T) {
	cases := []struct {
		invoice string
		percent string
		want    string
	}{
		{"1000", "12.5", "125"},
		{"250", "10", "25"},
		{"333.33", "33.33", "111.1"},
		{"0.05", "50", "0.03"},
	}
	for _, tc := range cases {
		got := ComputePayoutAmount(decimal.RequireFromString(tc.invoice), decimal.RequireFromString(tc.percent))
		assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "%s x %s%% = %s, want %s", tc.invoice, tc.percent, got, tc.want)
	}
}

func TestEmailTemplate_LocalizedFallsBackPerField(t *testing.T) {
	tpl := EmailTemplate{
		Subject:   "Contract created",
		Content:   "<p>Hello [name]</p>",
		SubjectEs: "Contrato creado",
	}

	subject, content := tpl.Localized("es")
	assert.Equal(t, "Contrato creado", subject)
	assert.Equal(t, "<p>Hello [name]</p>", content)

	subject, _ = tpl.Localized("fr")
	assert.Equal(t, "Contract created", subject)
}

func TestContractStatus(t *testing.T) {
	assert.True(t, ContractStatusRejected.CarriesReason())
	assert.True(t, ContractStatusCancelled.CarriesReason())
	assert.False(t, ContractStatusApproved.CarriesReason())
	assert.False(t, ContractStatus(7).Valid())
	assert.Equal(t, "approved", ContractStatusApproved.String())
}

func TestPrincipal_IsPrivileged(t *testing.T) {
	assert.True(t, Principal{Role: RoleAdmin}.IsPrivileged())
	assert.True(t, Principal{Role: RoleSuperAdmin}.IsPrivileged())
	assert.False(t, Principal{Role: RoleOfftaker}.IsPrivileged())
}

func TestContract_PartiesSkipsAbsentUsers(t *testing.T) {
	offtaker, investor := int64(4), int64(9)
	assert.Equal(t, []int64{4, 9}, Contract{OfftakerID: &offtaker, InvestorID: &investor}.Parties())
	assert.Equal(t, []int64{9}, Contract{InvestorID: &investor}.Parties())
	assert.Empty(t, Contract{}.Parties())
}
