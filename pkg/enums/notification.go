package enums

// NotificationType names outbound storefront notifications.
type NotificationType string

const (
	NotificationCartUpdated NotificationType = "cart.updated"
	NotificationCartOpened  NotificationType = "cart.opened"
)

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}
