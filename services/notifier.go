package services

// Notification codes sent to members.
const (
	NotifyMemberJoined     = "network_member_joined"
	NotifyCommissionPaid   = "commission_released"
	NotifyCommissionOnHold = "commission_on_hold"
	NotifyBonusPaid        = "bonus_paid"
	EmailBonusRunSummary   = "bonus_run_summary"
	EmailDeadLetteredJob   = "job_dead_lettered"
)

// Notifier delivers member notifications and queues emails. Implementations
// must not block the caller on delivery.
type Notifier interface {
	Notify(accountIDs []string, code string, payload map[string]interface{})
	QueueEmail(emailType string, payload map[string]interface{})
}

// NopNotifier drops everything.
type NopNotifier struct{}

func (NopNotifier) Notify([]string, string, map[string]interface{}) {}

func (NopNotifier) QueueEmail(string, map[string]interface{}) {}
