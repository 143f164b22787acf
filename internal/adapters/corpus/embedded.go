package corpus

import (
	"context"

	"github.com/mikey/mailguard/internal/core"
)

func spam(text string) core.Sample  { return core.Sample{Text: text, Label: core.LabelSpam} }
func legit(text string) core.Sample { return core.Sample{Text: text, Label: core.LabelLegitimate} }

var builtinSamples = []core.Sample{
	spam("Free money! Click here to claim your prize!"),
	spam("Congratulations! You won $1,000,000 in our lottery!"),
	spam("Limited time offer! Buy now and get 50% off!"),
	spam("Your account will be suspended. Verify immediately!"),
	spam("Cheap medications! No prescription needed!"),
	spam("Make $5000 working from home! No experience required!"),
	spam("Hot singles in your area want to meet you!"),
	spam("Your computer is infected! Download our antivirus now!"),
	spam("Inheritance of $5 million waiting for you!"),
	spam("Weight loss miracle! Lose 30 pounds in 30 days!"),
	spam("Casino bonus! Free spins await you!"),
	spam("Tax refund pending! Claim your $2000 now!"),
	spam("Pharmacy online! Cheapest prices guaranteed!"),
	spam("Work from home! Earn thousands weekly!"),
	spam("Free iPhone! Just pay shipping and handling!"),
	spam("Your PayPal account requires immediate verification!"),
	spam("Bank alert! Your account has been compromised!"),
	spam("Meet Russian brides! Free registration!"),
	spam("Get rich quick with cryptocurrency! Guaranteed profits!"),
	spam("Debt consolidation! Lower your payments now!"),
	spam("Click now to claim your free gift card!"),
	spam("You have been selected! Claim your cash prize today!"),
	spam("Free money waiting for you, click the link to claim!"),
	spam("Exclusive deal! Click here for free bonus cash!"),
	spam("Urgent: claim your reward before it expires! Click now!"),

	legit("Meeting scheduled for tomorrow at 2 PM in conference room"),
	legit("Thank you for your order. Your items will ship within 2 business days"),
	legit("Reminder: Your subscription renewal is due next week"),
	legit("Welcome to our newsletter! Here's what's new this month"),
	legit("Your flight departure time has been updated"),
	legit("Project status update: Phase 1 completed successfully"),
	legit("Invoice #12345 is attached for your review"),
	legit("Training session on cybersecurity scheduled for Friday"),
	legit("Thank you for registering for our webinar"),
	legit("Your package has been delivered to your address"),
	legit("Monthly report: Sales figures and performance metrics"),
	legit("System maintenance scheduled for this weekend"),
	legit("New employee orientation starts Monday at 9 AM"),
	legit("Customer feedback survey: Help us improve our service"),
	legit("Conference call dial-in information for today's meeting"),
	legit("Your reservation has been confirmed for next Friday"),
	legit("Document review required for the upcoming audit"),
	legit("Team lunch scheduled for this Thursday at noon"),
	legit("Software update available for download"),
	legit("Annual performance review meeting next Tuesday"),
	legit("Team meeting moved to Thursday afternoon"),
	legit("Lunch with the project team scheduled for Wednesday"),
	legit("Agenda for the weekly team meeting is attached"),
	legit("Quarterly planning meeting scheduled with the team"),
	legit("Reminder: team offsite lunch on Thursday at noon"),
}

// EmbeddedSource serves the built-in representative corpus
type EmbeddedSource struct{}

// NewEmbeddedSource creates a source over the built-in corpus
func NewEmbeddedSource() *EmbeddedSource {
	return &EmbeddedSource{}
}

// Name implements core.CorpusSource
func (s *EmbeddedSource) Name() string {
	return "embedded"
}

// Samples returns a copy of the built-in corpus
func (s *EmbeddedSource) Samples(ctx context.Context) ([]core.Sample, error) {
	out := make([]core.Sample, len(builtinSamples))
	copy(out, builtinSamples)
	return out, nil
}
