package http

import (
	"errors"
	"net/http"

	"budget/internal/core"
)

// maxFormBytes caps the body of the entry forms.
const maxFormBytes = 8 << 10

var errBadForm = errors.New("invalid form submission")

// EntryForm is the raw content of the add-income and add-expense forms.
type EntryForm struct {
	Amount      string
	Description string
}

// ParseEntryForm reads the entry form from a POST body.
func ParseEntryForm(w http.ResponseWriter, r *http.Request) (EntryForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return EntryForm{}, errBadForm
	}
	return EntryForm{
		Amount:      r.PostForm.Get("amount"),
		Description: sanitizeInput(r.PostForm.Get("description")),
	}, nil
}

// Validate converts the amount and checks the description.
// Errors are core.ErrInvalidAmount or core.ErrDescriptionTooLong. Amounts
// beyond core.MaxAmount count as invalid.
func (f EntryForm) Validate() (int64, error) {
	amount, err := core.ParseAmount(f.Amount)
	if err != nil {
		return 0, err
	}
	if err := core.ValidateDescription(f.Description); err != nil {
		return 0, err
	}
	return amount, nil
}

// userMessage is the text shown above the form for a validation error.
func userMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return core.InvalidAmountMessage
	case errors.Is(err, core.ErrDescriptionTooLong):
		return "Description is too long (max 200 characters)."
	case errors.Is(err, core.ErrBalanceOutOfRange):
		return "This amount would take the balance out of range."
	case errors.Is(err, errBadForm):
		return "Invalid request."
	default:
		return "Could not save the transaction. Please try again."
	}
}
