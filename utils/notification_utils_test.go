package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/HSouheill/barrim_network/repositories/memory"
)

func TestFormatPayload(t *testing.T) {
	got := formatPayload(map[string]interface{}{"rank": "gold", "paid": 3, "failed": 0})
	assert.Equal(t, "failed: 0\npaid: 3\nrank: gold\n", got)
	assert.Empty(t, formatPayload(nil))
}

func TestEmailSubject(t *testing.T) {
	assert.Equal(t, "Network bonus distribution finished", emailSubject("bonus_run_summary"))
	assert.Equal(t, "Network engine: other", emailSubject("other"))
}

func TestNotificationDispatcher_NoChannels(t *testing.T) {
	d := NewNotificationDispatcher(memory.NewStore().Repositories().Accounts, nil, nil, MailSettings{})
	d.Notify([]string{"A", "B"}, "commission_released", map[string]interface{}{"amount": "10.00"})
	d.QueueEmail("bonus_run_summary", nil)
	d.Wait()
}
