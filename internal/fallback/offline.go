package fallback

// Feature names used for offline messaging.
const (
	FeatureCheckout = "checkout"
	FeatureLogin    = "login"
	FeatureOrder    = "order"
	FeatureContact  = "contact"
	FeatureReviews  = "reviews"
)

var offlineMessages = map[string]string{
	FeatureCheckout: "Online ordering coming soon! Please call (360) 555-1234 to place your order.",
	FeatureLogin:    "Account features coming soon! Browse our products as a guest.",
	FeatureOrder:    "Order tracking coming soon! Please call us for order status.",
	FeatureContact:  "Please call us at (360) 555-1234 or email info@oyhutmarket.com",
	FeatureReviews:  "Reviews can only be added when online. Please try again later.",
}

const defaultOfflineMessage = "This feature requires our online services. Please call (360) 555-1234."

// Message returns the user-facing text for a feature that needs the live
// backend.
func Message(feature string) string {
	if msg, ok := offlineMessages[feature]; ok {
		return msg
	}
	return defaultOfflineMessage
}

// Unavailable is the result of an operation that has no offline
// equivalent. It is informational, not a failure.
type Unavailable struct {
	Feature string `json:"feature"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	Offline bool   `json:"offline"`
}

// Offline builds the Unavailable result for feature.
func Offline(feature string) Unavailable {
	return Unavailable{
		Feature: feature,
		Success: false,
		Message: Message(feature),
		Offline: true,
	}
}

// Error lets an Unavailable travel on an error path where an API needs one.
func (u Unavailable) Error() string {
	return u.Message
}
