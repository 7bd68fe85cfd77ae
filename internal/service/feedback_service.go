package service

import (
	"context"
	"errors"
	"time"

	"github.com/hungle-gif/operisbe/internal/model"
	"github.com/hungle-gif/operisbe/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrFeedbackNotFound     = errors.New("no acceptance submission found for this project")
	ErrNotPendingAcceptance = errors.New("project is not awaiting acceptance")
	ErrRatingRequired       = errors.New("a rating from 1 to 5 is required when accepting")
	ErrRevisionReasonNeeded = errors.New("complaint or revision details required when requesting revisions")
	ErrNotRevisionRequest   = errors.New("revision completion only applies to revision requests")
)

// AcceptanceRequest is the customer's handover decision. Accepting requires a
// rating; requesting revisions requires a complaint or revision details.
type AcceptanceRequest struct {
	AcceptanceStatus string `json:"acceptance_status" binding:"required"`
	Rating           *int   `json:"rating"`
	Feedback         string `json:"feedback"`
	Complaint        string `json:"complaint"`
	RevisionDetails  string `json:"revision_details"`
	FeatureRequest   string `json:"feature_request"`
	UpgradeRequest   string `json:"upgrade_request"`
}

// FeedbackService closes out the project lifecycle: once every phase is paid
// the project sits in pending_acceptance until the customer either accepts it
// (completing the project) or requests revisions. Staff mark revisions done,
// which hands the project back to the customer for another pass.
type FeedbackService interface {
	SubmitAcceptance(ctx context.Context, actor Actor, projectID string, req AcceptanceRequest) (*model.ProjectFeedback, error)
	Get(ctx context.Context, actor Actor, projectID string) (*model.ProjectFeedback, error)
	CompleteRevision(ctx context.Context, actor Actor, feedbackID, response string) (*model.ProjectFeedback, error)
	Respond(ctx context.Context, actor Actor, feedbackID, response string) (*model.ProjectFeedback, error)
	ListAll(ctx context.Context, actor Actor, page, limit int) ([]model.ProjectFeedback, int64, error)
}

type feedbackService struct {
	feedbacks  repository.FeedbackRepository
	projects   repository.ProjectRepository
	txm        repository.TransactionManager
	projectSvc ProjectService
	events     EventPublisher
}

func NewFeedbackService(feedbacks repository.FeedbackRepository, projects repository.ProjectRepository,
	txm repository.TransactionManager, projectSvc ProjectService, events EventPublisher) FeedbackService {
	return &feedbackService{feedbacks: feedbacks, projects: projects, txm: txm, projectSvc: projectSvc, events: events}
}

// SubmitAcceptance records the customer's decision and moves the project:
// accepted closes it as completed, rejected parks it in revision_required.
// The customer may resubmit while revisions go back and forth; the single
// feedback row is updated in place.
func (s *feedbackService) SubmitAcceptance(ctx context.Context, actor Actor, projectID string, req AcceptanceRequest) (*model.ProjectFeedback, error) {
	if actor.Role != model.RoleCustomer {
		return nil, ErrForbidden
	}

	switch req.AcceptanceStatus {
	case model.AcceptanceAccepted:
		if req.Rating == nil || *req.Rating < 1 || *req.Rating > 5 {
			return nil, ErrRatingRequired
		}
	case model.AcceptanceRejected:
		if req.Complaint == "" && req.RevisionDetails == "" {
			return nil, ErrRevisionReasonNeeded
		}
	default:
		return nil, errors.New("acceptance_status must be accepted or rejected")
	}

	customerID, err := uuid.Parse(actor.ID)
	if err != nil {
		return nil, err
	}

	var feedback *model.ProjectFeedback
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		project, err := s.projectSvc.Get(txCtx, actor, projectID)
		if err != nil {
			return err
		}
		if project.Status != model.ProjectPendingAcceptance && project.Status != model.ProjectRevisionRequired {
			return ErrNotPendingAcceptance
		}

		now := time.Now()
		feedback, err = s.feedbacks.GetByProject(txCtx, projectID)
		if err != nil {
			feedback = &model.ProjectFeedback{ProjectID: project.ID, CustomerID: customerID}
		}

		feedback.AcceptanceStatus = req.AcceptanceStatus
		feedback.Rating = req.Rating
		feedback.Feedback = req.Feedback
		feedback.Complaint = req.Complaint
		feedback.RevisionDetails = req.RevisionDetails
		feedback.FeatureRequest = req.FeatureRequest
		feedback.UpgradeRequest = req.UpgradeRequest

		if req.AcceptanceStatus == model.AcceptanceAccepted {
			feedback.AcceptedAt = &now
			feedback.RejectedAt = nil
			project.Status = model.ProjectCompleted
			project.EndDate = &now
		} else {
			feedback.RejectedAt = &now
			feedback.AcceptedAt = nil
			// a fresh revision round; staff must mark it done again
			feedback.RevisionCompleted = false
			feedback.RevisionCompletedAt = nil
			project.Status = model.ProjectRevisionRequired
		}

		if feedback.ID == uuid.Nil {
			if err := s.feedbacks.Create(txCtx, feedback); err != nil {
				return err
			}
		} else if err := s.feedbacks.Update(txCtx, feedback); err != nil {
			return err
		}
		return s.projects.Update(txCtx, project)
	})
	if err != nil {
		return nil, err
	}

	event := EventProjectAccepted
	if req.AcceptanceStatus == model.AcceptanceRejected {
		event = EventRevisionRequested
	}
	publish(s.events, event, map[string]interface{}{
		"project_id": projectID, "feedback_id": feedback.ID.String(),
	})
	return s.feedbacks.GetByID(ctx, feedback.ID.String())
}

// Get returns a project's acceptance feedback to anyone who can see the
// project itself.
func (s *feedbackService) Get(ctx context.Context, actor Actor, projectID string) (*model.ProjectFeedback, error) {
	if _, err := s.projectSvc.Get(ctx, actor, projectID); err != nil {
		return nil, err
	}
	feedback, err := s.feedbacks.GetByProject(ctx, projectID)
	if err != nil {
		return nil, ErrFeedbackNotFound
	}
	return feedback, nil
}

// CompleteRevision marks the requested revisions as delivered and hands the
// project back to pending_acceptance for the customer to review again.
func (s *feedbackService) CompleteRevision(ctx context.Context, actor Actor, feedbackID, response string) (*model.ProjectFeedback, error) {
	if !isSalesSide(actor) {
		return nil, ErrForbidden
	}
	responder, err := uuid.Parse(actor.ID)
	if err != nil {
		return nil, err
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		feedback, err := s.feedbacks.GetByID(txCtx, feedbackID)
		if err != nil {
			return ErrFeedbackNotFound
		}
		if feedback.AcceptanceStatus != model.AcceptanceRejected {
			return ErrNotRevisionRequest
		}

		now := time.Now()
		feedback.RevisionCompleted = true
		feedback.RevisionCompletedAt = &now
		feedback.AdminResponse = response
		feedback.AdminRespondedAt = &now
		feedback.RespondedByID = &responder
		if err := s.feedbacks.Update(txCtx, feedback); err != nil {
			return err
		}

		project, err := s.projects.GetByID(txCtx, feedback.ProjectID.String())
		if err != nil {
			return err
		}
		project.Status = model.ProjectPendingAcceptance
		return s.projects.Update(txCtx, project)
	})
	if err != nil {
		return nil, err
	}
	return s.feedbacks.GetByID(ctx, feedbackID)
}

// Respond attaches a staff reply to feedback without touching project state,
// e.g. thanking the customer or answering a feature request.
func (s *feedbackService) Respond(ctx context.Context, actor Actor, feedbackID, response string) (*model.ProjectFeedback, error) {
	if !isSalesSide(actor) {
		return nil, ErrForbidden
	}
	responder, err := uuid.Parse(actor.ID)
	if err != nil {
		return nil, err
	}

	feedback, err := s.feedbacks.GetByID(ctx, feedbackID)
	if err != nil {
		return nil, ErrFeedbackNotFound
	}

	now := time.Now()
	feedback.AdminResponse = response
	feedback.AdminRespondedAt = &now
	feedback.RespondedByID = &responder
	if err := s.feedbacks.Update(ctx, feedback); err != nil {
		return nil, err
	}
	return s.feedbacks.GetByID(ctx, feedbackID)
}

func (s *feedbackService) ListAll(ctx context.Context, actor Actor, page, limit int) ([]model.ProjectFeedback, int64, error) {
	if !isSalesSide(actor) {
		return nil, 0, ErrForbidden
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.feedbacks.List(ctx, page, limit)
}
