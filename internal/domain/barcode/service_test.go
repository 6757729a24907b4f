package barcode

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/gtin-catalog/internal/sheet"
)

// --- Mock implementations ---

type mockFiles struct {
	table    *sheet.Table
	readErr  error
	writeErr error
	reads    int

	writtenPath   string
	writtenSheet  string
	writtenHeader []string
	writtenRows   [][]string
}

func (m *mockFiles) Read(_ string) (*sheet.Table, error) {
	m.reads++
	return m.table, m.readErr
}

func (m *mockFiles) Write(path, sheetName string, header []string, rows [][]string) error {
	m.writtenPath = path
	m.writtenSheet = sheetName
	m.writtenHeader = header
	m.writtenRows = rows
	return m.writeErr
}

type mockJournal struct {
	saved   *Run
	saveErr error
	runs    []RunSummary
	results map[string][]ResultRow
}

func (m *mockJournal) Save(_ context.Context, run *Run) error {
	m.saved = run
	return m.saveErr
}

func (m *mockJournal) List(_ context.Context, _ int) ([]RunSummary, error) {
	return m.runs, nil
}

func (m *mockJournal) Results(_ context.Context, runID string) ([]ResultRow, error) {
	rows, ok := m.results[runID]
	if !ok {
		return nil, ErrRunNotFound
	}
	return rows, nil
}

// --- Helpers ---

var testHeader = []string{"descricao", "referencia", "ncm", "cest", "gpc", "pesoBruto"}

func barcodeTable() *sheet.Table {
	return &sheet.Table{
		Header: testHeader,
		Rows: []sheet.Record{
			sheet.NewRecord(testHeader, []string{"Polo shirt", "P-1", "61091000", "", "10001234", "250"}),
			sheet.NewRecord(testHeader, []string{"Cap", "C-1", "65050022", "2803800", "10001235", "x"}),
			sheet.NewRecord(testHeader, []string{"Belt", "B-1", "42033000", "", "10001236", ""}),
		},
	}
}

var testCreds = Credentials{ClientID: "id", ClientSecret: "secret", Username: "user", Password: "pass"}

// --- Tests ---

func TestProcess_WritesAnnotatedResults(t *testing.T) {
	reg := &scriptedRegistry{
		session: Session{AccessToken: "tok", ClientID: "id"},
		outcomes: []Outcome{
			Success("7891234567895", "ACTIVE"),
			Rejected("duplicate"),
			TransportFailure(errors.New("timeout")),
		},
	}
	files := &mockFiles{table: barcodeTable()}
	rec := &progressRecorder{}
	svc := NewService(reg, files, nil, testCreds)

	report, err := svc.Process(context.Background(), Request{InputPath: "in.xlsx", OutputPath: "/tmp/out"}, rec.record)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Failed)
	assert.True(t, report.Written)
	assert.Equal(t, "/tmp/out.xlsx", report.OutputPath)

	assert.Equal(t, "/tmp/out.xlsx", files.writtenPath)
	assert.Equal(t, ResultSheet, files.writtenSheet)
	assert.Equal(t, []string{"situação", "ean", "descricao", "referencia", "ncm", "cest", "gpc", "pesoBruto", "observação"}, files.writtenHeader)
	require.Len(t, files.writtenRows, 3)
	assert.Equal(t, []string{"ACTIVE", "7891234567895", "Polo shirt", "P-1", "61091000", "", "10001234", "250", ""}, files.writtenRows[0])
	assert.Equal(t, []string{"ERROR", "", "Cap", "C-1", "65050022", "2803800", "10001235", "x", "duplicate"}, files.writtenRows[1])
	assert.Equal(t, "Error", files.writtenRows[2][8])

	require.Len(t, reg.calls, 3)
	assert.Equal(t, "2803800", reg.calls[1].CEST)
	assert.False(t, reg.calls[1].GrossWeight.Valid)
	assert.Equal(t, "250", reg.calls[0].GrossWeight.Decimal.String())
	assert.Equal(t, Session{AccessToken: "tok", ClientID: "id"}, reg.sessions[2])

	// One event per row plus the final one.
	require.Len(t, rec.events, 4)
	assert.True(t, rec.events[2].IsFinished)
	assert.False(t, rec.events[2].Final)
	final := rec.events[3]
	assert.True(t, final.Final)
	assert.True(t, final.Written)
	assert.Equal(t, "/tmp/out.xlsx", final.OutputPath)
}

func TestProcess_AuthenticationFailureIsFatal(t *testing.T) {
	reg := &scriptedRegistry{authErr: &AuthenticationError{Err: errors.New("401 invalid_client")}}
	files := &mockFiles{table: barcodeTable()}
	rec := &progressRecorder{}
	svc := NewService(reg, files, nil, testCreds)

	report, err := svc.Process(context.Background(), Request{InputPath: "in.xlsx", OutputPath: "out.xlsx"}, rec.record)

	require.Nil(t, report)
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Empty(t, reg.calls, "no row may be registered")
	assert.Zero(t, files.reads)
	assert.Empty(t, files.writtenPath, "no output may be written")
	assert.Empty(t, rec.events)

	failure := Describe(err)
	assert.True(t, failure.Error)
	assert.Equal(t, "authentication failed", failure.Message)
}

func TestProcess_UntypedAuthErrorIsWrapped(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	svc := NewService(&scriptedRegistry{authErr: cause}, &mockFiles{table: barcodeTable()}, nil, testCreds)

	_, err := svc.Process(context.Background(), Request{InputPath: "in.xlsx"}, nil)

	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.ErrorIs(t, err, cause)
}

func TestProcess_ReadFailureIsFatal(t *testing.T) {
	readErr := errors.New("zip: not a valid zip file")
	reg := &scriptedRegistry{}
	svc := NewService(reg, &mockFiles{readErr: readErr}, nil, testCreds)

	_, err := svc.Process(context.Background(), Request{InputPath: "in.xlsx", OutputPath: "out"}, nil)

	require.ErrorIs(t, err, readErr)
	assert.Empty(t, reg.calls)
	assert.True(t, Describe(err).Error)
}

func TestProcess_CancelledSaveDiscardsResults(t *testing.T) {
	reg := &scriptedRegistry{}
	files := &mockFiles{table: barcodeTable()}
	rec := &progressRecorder{}
	svc := NewService(reg, files, nil, testCreds)

	report, err := svc.Process(context.Background(), Request{InputPath: "in.xlsx"}, rec.record)
	require.NoError(t, err)

	assert.False(t, report.Written)
	assert.Empty(t, report.OutputPath)
	assert.Len(t, report.Results, 3)
	assert.Empty(t, files.writtenPath)
	require.Len(t, rec.events, 4)
	assert.True(t, rec.events[3].Final)
	assert.False(t, rec.events[3].Written)
}

func TestProcess_WriteFailure(t *testing.T) {
	writeErr := errors.New("disk full")
	svc := NewService(&scriptedRegistry{}, &mockFiles{table: barcodeTable(), writeErr: writeErr}, nil, testCreds)

	_, err := svc.Process(context.Background(), Request{InputPath: "in.xlsx", OutputPath: "out.xlsx"}, nil)
	require.ErrorIs(t, err, writeErr)
}

func TestProcess_Journal(t *testing.T) {
	journal := &mockJournal{}
	reg := &scriptedRegistry{outcomes: []Outcome{Rejected("duplicate")}}
	svc := NewService(reg, &mockFiles{table: barcodeTable()}, journal, testCreds)

	report, err := svc.Process(context.Background(), Request{InputPath: "in.xlsx", OutputPath: "out.XLSX"}, nil)
	require.NoError(t, err)

	require.NotNil(t, journal.saved)
	assert.Equal(t, report.RunID, journal.saved.ID)
	assert.Equal(t, "in.xlsx", journal.saved.InputPath)
	assert.Equal(t, "out.XLSX", journal.saved.OutputPath)
	assert.Equal(t, 3, journal.saved.Total)
	assert.Equal(t, 1, journal.saved.Failed)
	assert.Len(t, journal.saved.Results, 3)
	assert.False(t, journal.saved.FinishedAt.Before(journal.saved.StartedAt))
}

func TestProcess_JournalFailureIsNotFatal(t *testing.T) {
	journal := &mockJournal{saveErr: errors.New("connection refused")}
	files := &mockFiles{table: barcodeTable()}
	svc := NewService(&scriptedRegistry{}, files, journal, testCreds)

	report, err := svc.Process(context.Background(), Request{InputPath: "in.xlsx", OutputPath: "out"}, nil)
	require.NoError(t, err)
	assert.True(t, report.Written)
	assert.Equal(t, "out.xlsx", files.writtenPath)
}

func TestProcess_MissingInput(t *testing.T) {
	reg := &scriptedRegistry{}
	svc := NewService(reg, &mockFiles{}, nil, testCreds)

	_, err := svc.Process(context.Background(), Request{}, nil)
	require.ErrorIs(t, err, ErrMissingInput)
	assert.Zero(t, reg.authN)
}

func TestRuns(t *testing.T) {
	svc := NewService(&scriptedRegistry{}, &mockFiles{}, nil, testCreds)
	runs, err := svc.Runs(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)

	journal := &mockJournal{runs: []RunSummary{{ID: "r1", Total: 2}}}
	svc = NewService(&scriptedRegistry{}, &mockFiles{}, journal, testCreds)
	runs, err = svc.Runs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "r1", runs[0].ID)
}

func TestResults(t *testing.T) {
	svc := NewService(&scriptedRegistry{}, &mockFiles{}, nil, testCreds)
	_, err := svc.Results(context.Background(), "r1")
	require.ErrorIs(t, err, ErrRunNotFound)

	journal := &mockJournal{results: map[string][]ResultRow{
		"r1": {{InputRow: InputRow{Reference: "P-1"}, EAN: "7891234567895", Status: "ACTIVE"}},
	}}
	svc = NewService(&scriptedRegistry{}, &mockFiles{}, journal, testCreds)

	rows, err := svc.Results(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "P-1", rows[0].Reference)

	_, err = svc.Results(context.Background(), "r2")
	require.ErrorIs(t, err, ErrRunNotFound)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, Failure{Message: "authentication failed", Error: true}, Describe(&AuthenticationError{}))
	assert.Equal(t, Failure{Message: "batch failed: boom", Error: true}, Describe(errors.New("boom")))
	assert.Equal(t, Failure{Message: ErrMissingInput.Error(), Error: true}, Describe(ErrMissingInput))
}

func TestResultRowCells_WithoutSpreadsheet(t *testing.T) {
	r := ResultRow{
		InputRow: InputRow{Description: "d", Reference: "r", NCM: "n", GPC: "g"},
		EAN:      "e",
		Status:   "ACTIVE",
	}
	cells := r.Cells()
	header := ResultHeader(nil)
	require.Len(t, cells, len(header))
	assert.Equal(t, "ACTIVE", cells[0])
	assert.Equal(t, "e", cells[1])
	assert.Equal(t, "d", cells[2])
	assert.Equal(t, "observação", header[len(header)-1])
}
