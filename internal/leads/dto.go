package leads

import (
	"github.com/venuedesk/venuedesk/internal/quote"
)

// SubmitRequest is a customer's quote request from the wizard.
type SubmitRequest struct {
	Contact   Contact         `json:"contact"`
	Message   string          `json:"message,omitempty" validate:"max=2000"`
	Selection quote.Selection `json:"selection" validate:"-"`
}

// SubmitResponse echoes what the customer needs to follow up.
type SubmitResponse struct {
	ID        string       `json:"id"`
	Reference string       `json:"reference"`
	Status    Status       `json:"status"`
	Totals    quote.Totals `json:"totals"`
	Lines     []quote.Line `json:"lines"`
	QuoteURL  string       `json:"quoteUrl"`
}

// PreviewResponse is the priced view of a selection.
type PreviewResponse struct {
	Totals quote.Totals `json:"totals"`
	Lines  []quote.Line `json:"lines"`
}

// ListRequest filters the admin lead listing.
type ListRequest struct {
	Status *Status
	Limit  int
	Offset int
}

// UpdateSelectionRequest replaces a lead's selection. Version, when set, must match the
// stored version.
type UpdateSelectionRequest struct {
	Selection quote.Selection `json:"selection" validate:"-"`
	Version   int             `json:"version,omitempty" validate:"gte=0"`
}

// TransitionRequest moves a lead along the pipeline.
type TransitionRequest struct {
	Status Status `json:"status" validate:"required"`
}
