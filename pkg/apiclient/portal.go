package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
)

// minDeposit mirrors the server-side floor so an invalid send never leaves
// the machine.
var minDeposit = decimal.NewFromInt(500000)

// Login authenticates and persists the session.
func (c *Client) Login(ctx context.Context, email, password string) (*Profile, error) {
	var tokens struct {
		AccessToken  string   `json:"access_token"`
		RefreshToken string   `json:"refresh_token"`
		User         *Profile `json:"user"`
	}
	err := c.Do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &tokens)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		User:         tokens.User,
	}
	if err := c.store.Save(sess); err != nil {
		return nil, err
	}
	return tokens.User, nil
}

// Logout revokes the refresh token server-side and clears the local session.
func (c *Client) Logout(ctx context.Context) error {
	sess, err := c.store.Load()
	if err != nil {
		return err
	}
	if sess.RefreshToken != "" {
		_ = c.Do(ctx, http.MethodPost, "/api/auth/logout", map[string]string{
			"refresh_token": sess.RefreshToken,
		}, nil)
	}
	return c.store.Clear()
}

// Me fetches the current profile and refreshes the cached copy.
func (c *Client) Me(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.Do(ctx, http.MethodGet, "/api/users/me", nil, &profile); err != nil {
		return nil, err
	}
	sess, err := c.store.Load()
	if err == nil {
		sess.User = &profile
		_ = c.store.Save(sess)
	}
	return &profile, nil
}

// CachedProfile returns the profile stored at login time without a network
// round trip. Nil when logged out.
func (c *Client) CachedProfile() *Profile {
	sess, err := c.store.Load()
	if err != nil {
		return nil
	}
	return sess.User
}

func (c *Client) Projects(ctx context.Context, status string, page, limit int) (*Page[Project], error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	q.Set("page", fmt.Sprint(page))
	q.Set("limit", fmt.Sprint(limit))

	var result Page[Project]
	if err := c.Do(ctx, http.MethodGet, "/api/projects?"+q.Encode(), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Project(ctx context.Context, id string) (*Project, error) {
	var project Project
	if err := c.Do(ctx, http.MethodGet, "/api/projects/"+id, nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *Client) Proposals(ctx context.Context, projectID string) ([]Proposal, error) {
	var proposals []Proposal
	if err := c.Do(ctx, http.MethodGet, "/api/projects/"+projectID+"/proposals", nil, &proposals); err != nil {
		return nil, err
	}
	return proposals, nil
}

func (c *Client) Proposal(ctx context.Context, id string) (*Proposal, error) {
	var proposal Proposal
	if err := c.Do(ctx, http.MethodGet, "/api/proposals/"+id, nil, &proposal); err != nil {
		return nil, err
	}
	return &proposal, nil
}

// ValidateForSend applies the same rules the server enforces on send, so a
// doomed request is caught before any traffic is issued.
func ValidateForSend(p *Proposal) error {
	if p.ProjectAnalysis == "" {
		return errors.New("project analysis is required before sending")
	}
	if !p.DepositAmount.GreaterThan(decimal.Zero) {
		return errors.New("deposit amount must be positive")
	}
	if p.DepositAmount.LessThan(minDeposit) {
		return errors.New("deposit amount must be at least 500,000 VND")
	}
	if p.EstimatedDurationDays <= 0 {
		return errors.New("estimated duration must be positive")
	}
	if len(p.Phases) == 0 {
		return errors.New("at least one phase is required")
	}
	if len(p.TeamMembers) == 0 {
		return errors.New("at least one team member is required")
	}
	return nil
}

// SendProposal validates locally, then asks the server to move the draft to
// sent.
func (c *Client) SendProposal(ctx context.Context, id string) (*Proposal, error) {
	current, err := c.Proposal(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ValidateForSend(current); err != nil {
		return nil, err
	}

	var proposal Proposal
	if err := c.Do(ctx, http.MethodPost, "/api/proposals/"+id+"/send", nil, &proposal); err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (c *Client) ApproveSection(ctx context.Context, id, section string) (*Proposal, error) {
	var proposal Proposal
	err := c.Do(ctx, http.MethodPost, "/api/proposals/"+id+"/approve-section",
		map[string]string{"section": section}, &proposal)
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (c *Client) AcceptProposal(ctx context.Context, id, notes string) (*Proposal, error) {
	var proposal Proposal
	err := c.Do(ctx, http.MethodPost, "/api/proposals/"+id+"/accept",
		map[string]string{"customer_notes": notes}, &proposal)
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (c *Client) RejectProposal(ctx context.Context, id, reason string) (*Proposal, error) {
	var proposal Proposal
	err := c.Do(ctx, http.MethodPost, "/api/proposals/"+id+"/reject",
		map[string]string{"rejection_reason": reason}, &proposal)
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (c *Client) SubmitDepositPayment(ctx context.Context, id string) (*Proposal, error) {
	var proposal Proposal
	if err := c.Do(ctx, http.MethodPost, "/api/proposals/"+id+"/submit-payment", nil, &proposal); err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (c *Client) phaseOp(ctx context.Context, id string, index int, op string) (*Proposal, error) {
	var proposal Proposal
	path := fmt.Sprintf("/api/proposals/%s/phases/%d/%s", id, index, op)
	if err := c.Do(ctx, http.MethodPost, path, nil, &proposal); err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (c *Client) CompletePhase(ctx context.Context, id string, index int) (*Proposal, error) {
	return c.phaseOp(ctx, id, index, "complete")
}

func (c *Client) SubmitPhasePayment(ctx context.Context, id string, index int) (*Proposal, error) {
	return c.phaseOp(ctx, id, index, "submit-payment")
}

func (c *Client) ApprovePhasePayment(ctx context.Context, id string, index int) (*Proposal, error) {
	return c.phaseOp(ctx, id, index, "approve-payment")
}

// SubmitAcceptance posts the customer's handover decision: accept with a
// rating, or request revisions with details.
func (c *Client) SubmitAcceptance(ctx context.Context, projectID string, sub AcceptanceSubmission) (*Acceptance, error) {
	var acc Acceptance
	err := c.Do(ctx, http.MethodPost, "/api/projects/"+projectID+"/acceptance", sub, &acc)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (c *Client) Acceptance(ctx context.Context, projectID string) (*Acceptance, error) {
	var acc Acceptance
	if err := c.Do(ctx, http.MethodGet, "/api/projects/"+projectID+"/acceptance", nil, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

// PaymentQR returns the VietQR image URL; pass a nil phase for the deposit.
func (c *Client) PaymentQR(ctx context.Context, id string, phase *int) (string, error) {
	path := "/api/proposals/" + id + "/payment-qr"
	if phase != nil {
		path += fmt.Sprintf("?phase=%d", *phase)
	}
	var result struct {
		QRURL string `json:"qr_url"`
	}
	if err := c.Do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return "", err
	}
	return result.QRURL, nil
}

func (c *Client) Messages(ctx context.Context, projectID string, limit int) ([]ChatMessage, error) {
	var messages []ChatMessage
	path := fmt.Sprintf("/api/projects/%s/messages?limit=%d", projectID, limit)
	if err := c.Do(ctx, http.MethodGet, path, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *Client) SendMessage(ctx context.Context, projectID, text string) (*ChatMessage, error) {
	var msg ChatMessage
	err := c.Do(ctx, http.MethodPost, "/api/projects/"+projectID+"/messages",
		map[string]string{"message": text}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) UnreadCount(ctx context.Context, projectID string) (int64, error) {
	var result struct {
		Unread int64 `json:"unread"`
	}
	if err := c.Do(ctx, http.MethodGet, "/api/projects/"+projectID+"/unread-count", nil, &result); err != nil {
		return 0, err
	}
	return result.Unread, nil
}
