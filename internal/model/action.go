package model

// AssignAction is the verb sent to the manage-tutors and manage-students endpoints.
type AssignAction string

const (
	ActionAssign   AssignAction = "assign"
	ActionUnassign AssignAction = "unassign"
)

// ReviewDecision is the verb sent to the review-user endpoint.
type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "approve"
	DecisionReject  ReviewDecision = "reject"
)

