package gs1

import (
	"context"

	"github.com/xenking/gtin-catalog/internal/domain/barcode"
)

// StatusDryRun is the status recorded for rows accepted by DryRun.
const StatusDryRun = "DRY_RUN"

var _ barcode.Registry = DryRun{}

// DryRun is a registry that never contacts GS1. Rows missing data the
// registry requires are rejected locally; every other row is accepted with
// no EAN allocated.
type DryRun struct{}

// Authenticate returns a local session.
func (DryRun) Authenticate(_ context.Context, creds barcode.Credentials) (barcode.Session, error) {
	return barcode.Session{AccessToken: "dry-run", ClientID: creds.ClientID}, nil
}

// Register checks row locally.
func (DryRun) Register(ctx context.Context, row barcode.InputRow, _ barcode.Session) barcode.Outcome {
	if err := ctx.Err(); err != nil {
		return barcode.TransportFailure(err)
	}
	if msg := Check(row); msg != "" {
		return barcode.Rejected(msg)
	}
	return barcode.Success("", StatusDryRun)
}

// Check returns why the registry would refuse row outright, or an empty
// string.
func Check(row barcode.InputRow) string {
	switch {
	case row.Description == "":
		return "description required"
	case len(Mask(row.NCM, NCMPattern)) != len(NCMPattern):
		return "ncm must have 8 digits"
	case row.HasCEST() && len(Mask(row.CEST, CESTPattern)) != len(CESTPattern):
		return "cest must have 7 digits"
	case row.GPC == "":
		return "gpc required"
	}
	return ""
}
