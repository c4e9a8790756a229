package enums

// NotificationType classifies in-app notifications.
type NotificationType string

const (
	NotificationAuctionStarted   NotificationType = "auction_started"
	NotificationAuctionEnded     NotificationType = "auction_ended"
	NotificationWinnerApproved   NotificationType = "winner_approved"
	NotificationWinnerRejected   NotificationType = "winner_rejected"
	NotificationApprovalReminder NotificationType = "approval_reminder"
	NotificationPaymentReceived  NotificationType = "payment_received"
)

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}
