package models

// TreeEdge is one row of the referral closure table. Every member owns a
// self edge at depth 0.
type TreeEdge struct {
	AncestorID   string `json:"ancestorId" bson:"ancestorId"`
	DescendantID string `json:"descendantId" bson:"descendantId"`
	Depth        int    `json:"depth" bson:"depth"`
}

// AddMemberRequest is the body of a member activation.
type AddMemberRequest struct {
	AccountID  string `json:"accountId" validate:"required"`
	ReferrerID string `json:"referrerId,omitempty"`
}
