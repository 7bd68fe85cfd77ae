package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{ProposalDraft, ProposalSent, true},
		{ProposalSent, ProposalViewed, true},
		{ProposalSent, ProposalAccepted, true},
		{ProposalViewed, ProposalAccepted, true},
		{ProposalViewed, ProposalNegotiating, true},
		{ProposalNegotiating, ProposalAccepted, true},
		{ProposalNegotiating, ProposalSent, true},

		// accepted and rejected are terminal
		{ProposalAccepted, ProposalSent, false},
		{ProposalAccepted, ProposalNegotiating, false},
		{ProposalRejected, ProposalAccepted, false},

		// no skipping or rewinding
		{ProposalDraft, ProposalAccepted, false},
		{ProposalViewed, ProposalSent, false},
		{ProposalSent, ProposalDraft, false},
		{"bogus", ProposalSent, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestCustomerApprovalsSetOnce(t *testing.T) {
	var a CustomerApprovals

	for i, section := range ApprovalSections {
		ok, err := a.Get(section)
		require.NoError(t, err)
		assert.False(t, ok, "section %s should start unapproved", section)

		require.NoError(t, a.Set(section))
		ok, err = a.Get(section)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, i+1, a.Count())
	}

	assert.True(t, a.AllApproved())
}

func TestCustomerApprovalsUnknownSection(t *testing.T) {
	var a CustomerApprovals

	_, err := a.Get("budget")
	assert.Error(t, err)
	assert.Error(t, a.Set("budget"))
	assert.Equal(t, 0, a.Count())
}

func TestPhasesAllPaid(t *testing.T) {
	assert.False(t, Phases{}.AllPaid(), "no phases means nothing was paid")

	phases := Phases{
		{Name: "Design", PaymentApproved: true},
		{Name: "Build", PaymentApproved: false},
	}
	assert.False(t, phases.AllPaid())

	phases[1].PaymentApproved = true
	assert.True(t, phases.AllPaid())
}

func TestValidateForSend(t *testing.T) {
	valid := func() *Proposal {
		return &Proposal{
			ProjectAnalysis:       "analysis of the system",
			DepositAmount:         decimal.NewFromInt(500000),
			EstimatedDurationDays: 30,
			Phases:                Phases{{Name: "Build", Days: 30, Amount: decimal.NewFromInt(1000000)}},
			TeamMembers:           TeamMembers{{Name: "An", Role: "Backend"}},
		}
	}

	require.NoError(t, valid().ValidateForSend())

	p := valid()
	p.ProjectAnalysis = ""
	assert.Error(t, p.ValidateForSend())

	p = valid()
	p.DepositAmount = decimal.Zero
	assert.Error(t, p.ValidateForSend())

	p = valid()
	p.EstimatedDurationDays = 0
	assert.Error(t, p.ValidateForSend())

	p = valid()
	p.Phases = nil
	assert.Error(t, p.ValidateForSend())

	p = valid()
	p.TeamMembers = nil
	assert.Error(t, p.ValidateForSend())
}

func TestCustomerApprovalsScanRoundTrip(t *testing.T) {
	a := CustomerApprovals{Analysis: true, Team: true}
	value, err := a.Value()
	require.NoError(t, err)

	var decoded CustomerApprovals
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, a, decoded)
}
