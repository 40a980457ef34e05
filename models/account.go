package models

// Account roles and statuses as exposed by the account directory.
const (
	AccountRoleMember = "member"
	AccountRoleStaff  = "staff"

	AccountStatusActive    = "active"
	AccountStatusInactive  = "inactive"
	AccountStatusSuspended = "suspended"
)

// Account is the read-only view of an account owned by the account service.
type Account struct {
	ID       string `json:"id" bson:"_id"`
	Role     string `json:"role" bson:"role"`
	Status   string `json:"status" bson:"status"`
	Email    string `json:"email,omitempty" bson:"email,omitempty"`
	FCMToken string `json:"-" bson:"fcmToken,omitempty"`
}

// CanJoinNetwork reports whether the account may be placed in the referral tree.
func (a Account) CanJoinNetwork() bool {
	return a.Role == AccountRoleMember && a.Status == AccountStatusActive
}
