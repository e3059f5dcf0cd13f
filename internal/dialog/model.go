package dialog

type State string

const (
	StateIdle State = "idle"

	// Cashier: record a payment
	StatePayAwaitEnrollment State = "pay_await_enrollment"
	StatePayAwaitAmount     State = "pay_await_amount"
	StatePayConfirm         State = "pay_confirm"
)

type Payload map[string]any

type Item struct {
	ChatID  int64
	State   State
	Payload Payload
}
