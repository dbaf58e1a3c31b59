package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/civicspend/disclosure-cli/internal/model"
)

// SQLiteStore implements Store on an embedded SQLite database, for local
// runs without a PostgreSQL instance. Amounts are stored as exact decimal
// strings and summed in Go, since SQLite only sums in floating point.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) a SQLite database at path.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// The sqlite driver is not safe for concurrent writers on one file.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA journal_mode = WAL; PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "sqlite: pragmas")
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	name         TEXT NOT NULL,
	ticker       TEXT NOT NULL DEFAULT '',
	cik          TEXT NOT NULL DEFAULT '',
	headquarters TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_companies_name_ci ON companies (lower(name));

CREATE TABLE IF NOT EXISTS financial_summaries (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	company_id    INTEGER NOT NULL REFERENCES companies(id),
	fiscal_year   INTEGER NOT NULL,
	total_revenue TEXT,
	net_income    TEXT,
	created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (company_id, fiscal_year)
);

CREATE TABLE IF NOT EXISTS lobbying_reports (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	company_id      INTEGER NOT NULL REFERENCES companies(id),
	year            INTEGER NOT NULL,
	quarter         INTEGER NOT NULL CHECK (quarter BETWEEN 1 AND 4),
	amount_spent    TEXT NOT NULL DEFAULT '0',
	specific_issues TEXT NOT NULL DEFAULT '',
	report_url      TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (company_id, year, quarter)
);

CREATE TABLE IF NOT EXISTS political_contributions (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	committee_name    TEXT NOT NULL,
	recipient_name    TEXT NOT NULL DEFAULT '',
	recipient_party   TEXT NOT NULL DEFAULT '',
	amount            TEXT NOT NULL DEFAULT '0',
	contribution_date DATE,
	election_cycle    TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS charitable_grants (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	company_id         INTEGER NOT NULL REFERENCES companies(id),
	recipient_name     TEXT NOT NULL,
	recipient_ein      TEXT NOT NULL DEFAULT '',
	amount             TEXT NOT NULL DEFAULT '0',
	fiscal_year        INTEGER NOT NULL,
	description        TEXT NOT NULL DEFAULT '',
	recipient_category TEXT NOT NULL DEFAULT 'Other',
	created_at         TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return eris.Wrap(s.db.Close(), "sqlite: close")
}

func (s *SQLiteStore) scanCompany(row *sql.Row) (*model.Company, error) {
	var c model.Company
	err := row.Scan(&c.ID, &c.Name, &c.Ticker, &c.CIK, &c.HQ, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLiteStore) FindCompanyByName(ctx context.Context, name string) (*model.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE lower(name) = lower(?)`, name)
	c, err := s.scanCompany(row)
	return c, eris.Wrap(err, "sqlite: find company by name")
}

func (s *SQLiteStore) FindCompanyByTicker(ctx context.Context, ticker string) (*model.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE ticker = ? AND ticker <> ''`, ticker)
	c, err := s.scanCompany(row)
	return c, eris.Wrap(err, "sqlite: find company by ticker")
}

func (s *SQLiteStore) FindCompanyByCIK(ctx context.Context, cik string) (*model.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE cik = ? AND cik <> ''`, cik)
	c, err := s.scanCompany(row)
	return c, eris.Wrap(err, "sqlite: find company by cik")
}

func (s *SQLiteStore) InsertOrGetCompany(ctx context.Context, c model.Company) (*model.Company, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO companies (name, ticker, cik, headquarters)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (lower(name)) DO UPDATE SET updated_at = CURRENT_TIMESTAMP`,
		c.Name, c.Ticker, c.CIK, c.HQ)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert or get company")
	}
	out, err := s.FindCompanyByName(ctx, c.Name)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, eris.Errorf("sqlite: company %q vanished after insert", c.Name)
	}
	return out, nil
}

func (s *SQLiteStore) UpdateCompany(ctx context.Context, c model.Company) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE companies
		SET name = ?, ticker = ?, cik = ?, headquarters = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		c.Name, c.Ticker, c.CIK, c.HQ, c.ID)
	return eris.Wrap(err, "sqlite: update company")
}

func (s *SQLiteStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list companies")
	}
	defer func() { _ = rows.Close() }()

	var companies []model.Company
	for rows.Next() {
		var c model.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Ticker, &c.CIK, &c.HQ, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan company")
		}
		companies = append(companies, c)
	}
	return companies, eris.Wrap(rows.Err(), "sqlite: list companies")
}

func (s *SQLiteStore) UpsertFinancialSummary(ctx context.Context, sum model.FinancialSummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO financial_summaries (company_id, fiscal_year, total_revenue, net_income)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (company_id, fiscal_year)
		DO UPDATE SET total_revenue = excluded.total_revenue,
		              net_income    = excluded.net_income,
		              updated_at    = CURRENT_TIMESTAMP`,
		sum.CompanyID, sum.FiscalYear, decimalArg(sum.TotalRevenue), decimalArg(sum.NetIncome))
	return eris.Wrap(err, "sqlite: upsert financial summary")
}

func (s *SQLiteStore) UpsertLobbyingReport(ctx context.Context, r model.LobbyingReport) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lobbying_reports (company_id, year, quarter, amount_spent, specific_issues, report_url)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (company_id, year, quarter)
		DO UPDATE SET amount_spent    = excluded.amount_spent,
		              specific_issues = excluded.specific_issues,
		              report_url      = excluded.report_url`,
		r.CompanyID, r.Year, r.Quarter, r.AmountSpent.String(), r.SpecificIssues, r.ReportURL)
	return eris.Wrap(err, "sqlite: upsert lobbying report")
}

func (s *SQLiteStore) AppendContribution(ctx context.Context, c model.PoliticalContribution) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO political_contributions
			(committee_name, recipient_name, recipient_party, amount, contribution_date, election_cycle)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.CommitteeName, c.RecipientName, c.RecipientParty, c.Amount.String(), dateArg(c.Date), c.ElectionCycle)
	return eris.Wrap(err, "sqlite: append contribution")
}

func (s *SQLiteStore) AppendGrant(ctx context.Context, g model.CharitableGrant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO charitable_grants
			(company_id, recipient_name, recipient_ein, amount, fiscal_year, description, recipient_category)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.CompanyID, g.RecipientName, g.RecipientEIN, g.Amount.String(), g.FiscalYear,
		g.Description, g.RecipientCategory)
	return eris.Wrap(err, "sqlite: append grant")
}

func (s *SQLiteStore) SumLobbying(ctx context.Context, companyID int64, dr model.DateRange) (decimal.Decimal, error) {
	startYear, endYear := dr.YearBounds()
	rows, err := s.db.QueryContext(ctx, `
		SELECT amount_spent FROM lobbying_reports
		WHERE company_id = ?
		  AND (? = 0 OR year >= ?)
		  AND (? = 0 OR year <= ?)`,
		companyID, startYear, startYear, endYear, endYear)
	if err != nil {
		return decimal.Zero, eris.Wrap(err, "sqlite: sum lobbying")
	}
	return sumRows(rows, "sqlite: sum lobbying")
}

func (s *SQLiteStore) SumGrants(ctx context.Context, companyID int64, dr model.DateRange) (decimal.Decimal, error) {
	startYear, endYear := dr.YearBounds()
	rows, err := s.db.QueryContext(ctx, `
		SELECT amount FROM charitable_grants
		WHERE company_id = ?
		  AND (? = 0 OR fiscal_year >= ?)
		  AND (? = 0 OR fiscal_year <= ?)`,
		companyID, startYear, startYear, endYear, endYear)
	if err != nil {
		return decimal.Zero, eris.Wrap(err, "sqlite: sum grants")
	}
	return sumRows(rows, "sqlite: sum grants")
}

func (s *SQLiteStore) SumContributionsMatching(ctx context.Context, token string, dr model.DateRange) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT amount FROM political_contributions
		WHERE instr(lower(committee_name), lower(?)) > 0
		  AND (? IS NULL OR contribution_date >= ?)
		  AND (? IS NULL OR contribution_date <= ?)`,
		token, dateArg(dr.Start), dateArg(dr.Start), dateArg(dr.End), dateArg(dr.End))
	if err != nil {
		return decimal.Zero, eris.Wrap(err, "sqlite: sum contributions")
	}
	return sumRows(rows, "sqlite: sum contributions")
}

func (s *SQLiteStore) GrantCategoryTotals(ctx context.Context, companyID int64, dr model.DateRange) (map[string]decimal.Decimal, error) {
	startYear, endYear := dr.YearBounds()
	rows, err := s.db.QueryContext(ctx, `
		SELECT recipient_category, amount FROM charitable_grants
		WHERE (? = 0 OR company_id = ?)
		  AND (? = 0 OR fiscal_year >= ?)
		  AND (? = 0 OR fiscal_year <= ?)`,
		companyID, companyID, startYear, startYear, endYear, endYear)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: grant category totals")
	}
	defer func() { _ = rows.Close() }()

	totals := make(map[string]decimal.Decimal)
	for rows.Next() {
		var category, raw string
		if err := rows.Scan(&category, &raw); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan category total")
		}
		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse amount for %s", category)
		}
		totals[category] = totals[category].Add(d)
	}
	return totals, eris.Wrap(rows.Err(), "sqlite: grant category totals")
}

func (s *SQLiteStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	row := s.db.QueryRowContext(ctx, `
		SELECT (SELECT count(*) FROM companies),
		       (SELECT count(*) FROM financial_summaries),
		       (SELECT count(*) FROM lobbying_reports),
		       (SELECT count(*) FROM political_contributions),
		       (SELECT count(*) FROM charitable_grants)`)
	err := row.Scan(&c.Companies, &c.Summaries, &c.Lobbying, &c.Contributions, &c.Grants)
	return c, eris.Wrap(err, "sqlite: counts")
}

func (s *SQLiteStore) DataQuality(ctx context.Context) (DataQuality, error) {
	var q DataQuality
	row := s.db.QueryRowContext(ctx, `
		SELECT (SELECT count(*) FROM companies),
		       (SELECT count(*) FROM companies WHERE ticker <> ''),
		       (SELECT count(*) FROM companies WHERE cik <> ''),
		       (SELECT count(*) FROM financial_summaries),
		       (SELECT count(*) FROM financial_summaries WHERE total_revenue IS NOT NULL),
		       (SELECT count(*) FROM financial_summaries WHERE net_income IS NOT NULL),
		       (SELECT count(*) FROM charitable_grants),
		       (SELECT count(*) FROM charitable_grants WHERE recipient_category <> 'Other')`)
	err := row.Scan(&q.Companies, &q.CompaniesWithTicker, &q.CompaniesWithCIK,
		&q.Summaries, &q.SummariesWithRevenue, &q.SummariesWithNetIncome,
		&q.Grants, &q.GrantsCategorized)
	return q, eris.Wrap(err, "sqlite: data quality")
}

// SourcePresence scans EXISTS results as integers; the sqlite driver hands
// them back as int64, not bool.
func (s *SQLiteStore) SourcePresence(ctx context.Context, companyID int64, committeeToken string) (model.SourceFlags, error) {
	var fin, lob, pol, cha int
	row := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM financial_summaries WHERE company_id = ?),
		       EXISTS(SELECT 1 FROM lobbying_reports WHERE company_id = ?),
		       EXISTS(SELECT 1 FROM political_contributions
		              WHERE ? <> '' AND instr(lower(committee_name), lower(?)) > 0),
		       EXISTS(SELECT 1 FROM charitable_grants WHERE company_id = ?)`,
		companyID, companyID, committeeToken, committeeToken, companyID)
	if err := row.Scan(&fin, &lob, &pol, &cha); err != nil {
		return model.SourceFlags{}, eris.Wrap(err, "sqlite: source presence")
	}
	return model.SourceFlags{
		Financials: fin > 0,
		Lobbying:   lob > 0,
		Political:  pol > 0,
		Charitable: cha > 0,
	}, nil
}

// sumRows adds up a single decimal-string column, closing rows.
func sumRows(rows *sql.Rows, opName string) (decimal.Decimal, error) {
	defer func() { _ = rows.Close() }()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, eris.Wrap(err, opName)
		}
		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return decimal.Zero, eris.Wrap(err, opName)
		}
		total = total.Add(d)
	}
	return total, eris.Wrap(rows.Err(), opName)
}

// dateArg stores dates as ISO strings, keeping NULL for absent values.
func dateArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}
