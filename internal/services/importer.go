package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"budget/internal/core"
	"budget/internal/storage"
)

// Positional CSV columns. The order is a compatibility contract with bank
// exports.
const (
	colDate = iota
	colAmount
	colAccountNumber
	colDescription
	colBalance
	colCategory
	colMerchant

	minColumns = colCategory + 1
)

const uncategorized = "Uncategorized"

// importDateLayouts are tried in order. ISO comes first so unambiguous input
// never falls through to the day/month guesses.
var importDateLayouts = []string{
	"2006-01-02",
	"2 Jan 06",
	"02/01/2006",
	"2/01/2006",
	"02-01-2006",
	"2-01-2006",
	"01/02/2006",
	"1/2/2006",
}

// ImportOptions bounds a single CSV import.
type ImportOptions struct {
	// MaxRows is the largest number of data rows accepted (default: 50000)
	MaxRows int

	// ChunkSize is the number of rows per INSERT statement (default: 400)
	ChunkSize int
}

func DefaultImportOptions() ImportOptions {
	return ImportOptions{
		MaxRows:   50000,
		ChunkSize: 400,
	}
}

// ImportReport describes the outcome of one import.
type ImportReport struct {
	BatchID  string
	Imported []core.Transaction
	Skipped  []*core.RowError
	Accounts []int64
}

// Importer turns bank CSV exports into ledger rows.
type Importer struct {
	storage    *storage.SQLiteRepository
	resolver   *AccountResolver
	reconciler *Reconciler
	uow        unitOfWork
	notifiers  []Notifier
	opts       ImportOptions
	newBatchID func() string
}

func NewImporter(
	storage *storage.SQLiteRepository,
	resolver *AccountResolver,
	reconciler *Reconciler,
	opts ImportOptions,
	maxRetries int,
	notifiers ...Notifier,
) *Importer {
	def := DefaultImportOptions()
	if opts.MaxRows <= 0 {
		opts.MaxRows = def.MaxRows
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = def.ChunkSize
	}
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Importer{
		storage:    storage,
		resolver:   resolver,
		reconciler: reconciler,
		uow:        unitOfWork{repo: storage, maxRetries: maxRetries},
		notifiers:  notifiers,
		opts:       opts,
		newBatchID: func() string { return uuid.NewString() },
	}
}

// Import parses r and persists every well-formed row for userID. Malformed
// rows are logged and dropped. A read failure aborts the whole import.
func (im *Importer) Import(ctx context.Context, userID int64, r io.Reader) ([]core.Transaction, error) {
	report, err := im.ImportWithReport(ctx, userID, r)
	if err != nil {
		return nil, err
	}
	return report.Imported, nil
}

// ImportFile is Import over a file on disk.
func (im *Importer) ImportFile(ctx context.Context, userID int64, path string) (ImportReport, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ImportReport{}, fmt.Errorf("open %s: %w", path, core.ErrNotFound)
		}
		return ImportReport{}, fmt.Errorf("open %s: %w: %w", path, core.ErrIO, err)
	}
	defer f.Close()
	return im.ImportWithReport(ctx, userID, f)
}

func (im *Importer) ImportWithReport(ctx context.Context, userID int64, r io.Reader) (ImportReport, error) {
	if err := core.ValidateID(userID, "user id"); err != nil {
		return ImportReport{}, err
	}
	start := time.Now()
	batchID := im.newBatchID()

	rows, skipped, err := im.parse(ctx, r)
	if err != nil {
		return ImportReport{}, err
	}
	for _, row := range rows {
		row.tx.ImportBatch = batchID
	}

	report := ImportReport{BatchID: batchID, Skipped: skipped}
	err = im.uow.run(ctx, "csv_import", func(q *storage.Queries) error {
		if _, err := q.GetUser(ctx, userID); err != nil {
			return err
		}
		imported, accounts, err := im.persist(ctx, q, userID, rows)
		if err != nil {
			return err
		}
		report.Imported = imported
		report.Accounts = accounts
		return nil
	})
	if err != nil {
		return ImportReport{}, fmt.Errorf("import csv: %w", err)
	}

	slog.InfoContext(ctx, "CSV import completed",
		"user_id", userID,
		"batch_id", batchID,
		"imported", len(report.Imported),
		"skipped", len(report.Skipped),
		"accounts", len(report.Accounts),
		"duration", time.Since(start))

	if len(report.Imported) > 0 {
		notifyAll(ctx, im.notifiers, core.LedgerEvent{
			Type:       core.EventTransactionsImported,
			UserID:     userID,
			AccountIDs: report.Accounts,
			Strategy:   core.StrategyRecompute,
			Count:      len(report.Imported),
			OccurredAt: time.Now().UTC(),
		})
	}
	return report, nil
}

type parsedRow struct {
	line          int
	accountNumber int64
	tx            *core.Transaction
}

// parse reads every record before anything is written, so a stream failure
// leaves the ledger untouched.
func (im *Importer) parse(ctx context.Context, r io.Reader) ([]parsedRow, []*core.RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("csv has no header: %w", core.ErrEmptyInput)
		}
		return nil, nil, fmt.Errorf("read csv header: %w: %w", core.ErrIO, err)
	}

	var (
		rows    []parsedRow
		skipped []*core.RowError
		count   int
	)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			skipped = append(skipped, im.skip(ctx, perr.Line, err))
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read csv: %w: %w", core.ErrIO, err)
		}

		line, _ := cr.FieldPos(0)
		count++
		if count > im.opts.MaxRows {
			return nil, nil, fmt.Errorf("csv exceeds %d rows: %w", im.opts.MaxRows, core.ErrInvalidArgument)
		}

		row, err := parseRecord(record)
		if err != nil {
			skipped = append(skipped, im.skip(ctx, line, err))
			continue
		}
		row.line = line
		rows = append(rows, row)
	}
	return rows, skipped, nil
}

func (im *Importer) skip(ctx context.Context, line int, err error) *core.RowError {
	rowErr := &core.RowError{Line: line, Err: err}
	slog.WarnContext(ctx, "Skipping malformed CSV row", "line", line, "error", err)
	return rowErr
}

func parseRecord(record []string) (parsedRow, error) {
	if len(record) < minColumns {
		return parsedRow{}, fmt.Errorf("expected at least %d columns, got %d", minColumns, len(record))
	}
	field := func(i int) string {
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	number, err := strconv.ParseInt(field(colAccountNumber), 10, 64)
	if err != nil {
		return parsedRow{}, fmt.Errorf("account number %q: %w", field(colAccountNumber), core.ErrInvalidArgument)
	}
	date, err := parseImportDate(field(colDate))
	if err != nil {
		return parsedRow{}, err
	}
	amount, err := core.ParseMoney(field(colAmount))
	if err != nil {
		return parsedRow{}, err
	}
	balance, err := core.ParseMoney(field(colBalance))
	if err != nil {
		return parsedRow{}, fmt.Errorf("balance: %w", err)
	}
	category := field(colCategory)
	if category == "" {
		category = uncategorized
	}

	t := &core.Transaction{
		Date:                 date,
		Amount:               amount,
		Description:          field(colDescription),
		Category:             category,
		Merchant:             field(colMerchant),
		BalanceAtTransaction: balance,
		Source:               core.SourceCSV,
	}
	if err := t.Validate(); err != nil {
		return parsedRow{}, err
	}
	return parsedRow{accountNumber: number, tx: t}, nil
}

func parseImportDate(s string) (core.Date, error) {
	for _, layout := range importDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.Date{Time: t}, nil
		}
	}
	return core.Date{}, fmt.Errorf("unrecognised date %q: %w", s, core.ErrInvalidArgument)
}

// persist resolves each distinct account once, writes all rows in bulk and
// then recomputes every touched account once.
func (im *Importer) persist(ctx context.Context, q *storage.Queries, userID int64, rows []parsedRow) ([]core.Transaction, []int64, error) {
	if len(rows) == 0 {
		return nil, nil, nil
	}
	resolved := make(map[int64]core.Account)
	var order []int64
	txs := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		account, ok := resolved[row.accountNumber]
		if !ok {
			var err error
			account, err = im.resolver.ResolveOrCreate(ctx, q, userID, core.NumberSelector{Number: row.accountNumber})
			if err != nil {
				return nil, nil, err
			}
			resolved[row.accountNumber] = account
			order = append(order, row.accountNumber)
		}
		t := *row.tx
		t.UserID = userID
		t.AccountID = account.ID
		txs = append(txs, t)
	}

	if _, err := q.BulkCreateTransactions(ctx, txs, im.opts.ChunkSize); err != nil {
		return nil, nil, err
	}

	accounts := make([]int64, 0, len(order))
	for _, number := range order {
		account, err := im.reconciler.RecomputeSpendingBalance(ctx, q, resolved[number])
		if err != nil {
			return nil, nil, err
		}
		accounts = append(accounts, account.ID)
	}

	imported, err := q.ListTransactionsByBatch(ctx, txs[0].ImportBatch)
	if err != nil {
		return nil, nil, err
	}
	return imported, accounts, nil
}
