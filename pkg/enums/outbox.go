package enums

// OutboxEventType identifies the domain event stored in outbox_events.
type OutboxEventType string

const (
	EventAuctionStarted     OutboxEventType = "auction.started"
	EventAuctionEnded       OutboxEventType = "auction.ended"
	EventWinnerConfirmed    OutboxEventType = "auction.winner_confirmed"
	EventAuctionSettled     OutboxEventType = "auction.settled"
	EventWinnerRejected     OutboxEventType = "auction.winner_rejected"
	EventApprovalReminder   OutboxEventType = "auction.approval_reminder"
	EventPaymentReconciled  OutboxEventType = "payment.reconciled"
	EventEMDPaid            OutboxEventType = "emd.paid"
	EventMembershipActive   OutboxEventType = "membership.activated"
	EventRegistrationPaid   OutboxEventType = "registration_fee.paid"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateAuction  OutboxAggregateType = "auction"
	AggregatePurchase OutboxAggregateType = "purchase"
	AggregateEMD      OutboxAggregateType = "emd"
	AggregateUser     OutboxAggregateType = "user"
)
