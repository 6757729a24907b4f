package barcode

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status and note values recorded on failed rows.
const (
	StatusError      = "ERROR"
	NoteTransportErr = "Error"
)

// InputRow is one product of the barcode input spreadsheet.
type InputRow struct {
	Description string
	Reference   string
	ImageLink   string
	Brand       string
	NetWeight   decimal.NullDecimal
	GrossWeight decimal.NullDecimal
	NCM         string
	// CEST is optional. Empty means the product has no CEST classification.
	CEST string
	GPC  string

	// raw keeps the input cells in header order so results can be written
	// back unchanged.
	raw []string
}

// HasCEST reports whether the row carries a CEST classification.
func (r InputRow) HasCEST() bool {
	return r.CEST != ""
}

// ResultRow is an input row annotated with its registration outcome.
type ResultRow struct {
	InputRow
	EAN    string
	Status string
	Note   string
}

// Failed reports whether the row was not registered.
func (r ResultRow) Failed() bool {
	return r.Status == StatusError
}

// Credentials identify the client application and the registry user.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
}

// Session is an authenticated registry session, valid for a single run.
type Session struct {
	AccessToken string
	ClientID    string
}

// OutcomeKind tags a registration Outcome.
type OutcomeKind int

// Registration outcome kinds.
const (
	OutcomeTransportFailure OutcomeKind = iota
	OutcomeSuccess
	OutcomeRejected
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRejected:
		return "rejected"
	case OutcomeTransportFailure:
		return "transport_failure"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the result of registering a single row. Only the fields of its
// Kind are meaningful.
type Outcome struct {
	Kind OutcomeKind
	// EAN and Status are set on success.
	EAN    string
	Status string
	// Message is the registry's explanation of a rejection.
	Message string
	// Err describes a transport failure.
	Err error
}

// Success returns a successful outcome.
func Success(ean, status string) Outcome {
	return Outcome{Kind: OutcomeSuccess, EAN: ean, Status: status}
}

// Rejected returns an outcome for a business-rule rejection.
func Rejected(message string) Outcome {
	return Outcome{Kind: OutcomeRejected, Message: message}
}

// TransportFailure returns an outcome for a failed call.
func TransportFailure(err error) Outcome {
	return Outcome{Kind: OutcomeTransportFailure, Err: err}
}

// Registry is the remote product registry.
type Registry interface {
	// Authenticate exchanges credentials for a session. It returns an
	// *AuthenticationError on failure.
	Authenticate(ctx context.Context, creds Credentials) (Session, error)
	// Register registers a single product. Failures are reported through
	// the returned Outcome.
	Register(ctx context.Context, row InputRow, session Session) Outcome
}

// Run is the journal record of a barcode batch.
type Run struct {
	ID         string
	InputPath  string
	OutputPath string
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Failed     int
	Results    []ResultRow
}

// RunSummary describes a journaled run without its rows.
type RunSummary struct {
	ID         string
	InputPath  string
	OutputPath string
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Failed     int
}

// Journal persists batch runs.
type Journal interface {
	Save(ctx context.Context, run *Run) error
	List(ctx context.Context, limit int) ([]RunSummary, error)
	// Results returns the annotated rows of a run in input order, or
	// ErrRunNotFound.
	Results(ctx context.Context, runID string) ([]ResultRow, error)
}
