package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/civicspend/disclosure-cli/internal/model"
)

// Pool is the pgx pool surface the store uses; pgxpool.Pool implements it
// in production and pgxmock stands in for tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id           BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	name         TEXT NOT NULL,
	ticker       TEXT NOT NULL DEFAULT '',
	cik          TEXT NOT NULL DEFAULT '',
	headquarters TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_companies_name_ci ON companies (lower(name));
CREATE INDEX IF NOT EXISTS idx_companies_ticker ON companies(ticker) WHERE ticker <> '';
CREATE INDEX IF NOT EXISTS idx_companies_cik ON companies(cik) WHERE cik <> '';

CREATE TABLE IF NOT EXISTS financial_summaries (
	id            BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	company_id    BIGINT NOT NULL REFERENCES companies(id),
	fiscal_year   INTEGER NOT NULL,
	total_revenue NUMERIC(20,2),
	net_income    NUMERIC(20,2),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (company_id, fiscal_year)
);

CREATE TABLE IF NOT EXISTS lobbying_reports (
	id              BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	company_id      BIGINT NOT NULL REFERENCES companies(id),
	year            INTEGER NOT NULL,
	quarter         INTEGER NOT NULL CHECK (quarter BETWEEN 1 AND 4),
	amount_spent    NUMERIC(20,2) NOT NULL DEFAULT 0,
	specific_issues TEXT NOT NULL DEFAULT '',
	report_url      TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (company_id, year, quarter)
);

CREATE TABLE IF NOT EXISTS political_contributions (
	id                BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	committee_name    TEXT NOT NULL,
	recipient_name    TEXT NOT NULL DEFAULT '',
	recipient_party   TEXT NOT NULL DEFAULT '',
	amount            NUMERIC(20,2) NOT NULL DEFAULT 0,
	contribution_date DATE,
	election_cycle    TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_contributions_committee ON political_contributions (lower(committee_name));

CREATE TABLE IF NOT EXISTS charitable_grants (
	id                 BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	company_id         BIGINT NOT NULL REFERENCES companies(id),
	recipient_name     TEXT NOT NULL,
	recipient_ein      TEXT NOT NULL DEFAULT '',
	amount             NUMERIC(20,2) NOT NULL DEFAULT 0,
	fiscal_year        INTEGER NOT NULL,
	description        TEXT NOT NULL DEFAULT '',
	recipient_category TEXT NOT NULL DEFAULT 'Other',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_grants_company_year ON charitable_grants(company_id, fiscal_year);
CREATE INDEX IF NOT EXISTS idx_lobbying_company_year ON lobbying_reports(company_id, year);
`

// Migrate applies the schema. Statements are idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const companyColumns = `id, name, ticker, cik, headquarters, created_at, updated_at`

func (s *PostgresStore) scanCompany(row pgx.Row) (*model.Company, error) {
	var c model.Company
	err := row.Scan(&c.ID, &c.Name, &c.Ticker, &c.CIK, &c.HQ, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) FindCompanyByName(ctx context.Context, name string) (*model.Company, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE lower(name) = lower($1)`, name)
	c, err := s.scanCompany(row)
	return c, eris.Wrap(err, "postgres: find company by name")
}

func (s *PostgresStore) FindCompanyByTicker(ctx context.Context, ticker string) (*model.Company, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE ticker = $1 AND ticker <> ''`, ticker)
	c, err := s.scanCompany(row)
	return c, eris.Wrap(err, "postgres: find company by ticker")
}

func (s *PostgresStore) FindCompanyByCIK(ctx context.Context, cik string) (*model.Company, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE cik = $1 AND cik <> ''`, cik)
	c, err := s.scanCompany(row)
	return c, eris.Wrap(err, "postgres: find company by cik")
}

// InsertOrGetCompany inserts the company, or returns the existing row when
// the case-insensitive name is already taken. The conflict path updates
// nothing but updated_at, so concurrent first sightings converge on one row
// without a find-then-create race.
func (s *PostgresStore) InsertOrGetCompany(ctx context.Context, c model.Company) (*model.Company, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO companies (name, ticker, cik, headquarters)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ((lower(name))) DO UPDATE SET updated_at = now()
		RETURNING `+companyColumns,
		c.Name, c.Ticker, c.CIK, c.HQ)
	out, err := s.scanCompany(row)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert or get company")
	}
	return out, nil
}

func (s *PostgresStore) UpdateCompany(ctx context.Context, c model.Company) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE companies
		SET name = $1, ticker = $2, cik = $3, headquarters = $4, updated_at = now()
		WHERE id = $5`,
		c.Name, c.Ticker, c.CIK, c.HQ, c.ID)
	return eris.Wrap(err, "postgres: update company")
}

func (s *PostgresStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list companies")
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		var c model.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Ticker, &c.CIK, &c.HQ, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan company")
		}
		companies = append(companies, c)
	}
	return companies, eris.Wrap(rows.Err(), "postgres: list companies")
}

func (s *PostgresStore) UpsertFinancialSummary(ctx context.Context, sum model.FinancialSummary) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO financial_summaries (company_id, fiscal_year, total_revenue, net_income)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (company_id, fiscal_year)
		DO UPDATE SET total_revenue = EXCLUDED.total_revenue,
		              net_income    = EXCLUDED.net_income,
		              updated_at    = now()`,
		sum.CompanyID, sum.FiscalYear, decimalArg(sum.TotalRevenue), decimalArg(sum.NetIncome))
	return eris.Wrap(err, "postgres: upsert financial summary")
}

func (s *PostgresStore) UpsertLobbyingReport(ctx context.Context, r model.LobbyingReport) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO lobbying_reports (company_id, year, quarter, amount_spent, specific_issues, report_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (company_id, year, quarter)
		DO UPDATE SET amount_spent    = EXCLUDED.amount_spent,
		              specific_issues = EXCLUDED.specific_issues,
		              report_url      = EXCLUDED.report_url`,
		r.CompanyID, r.Year, r.Quarter, r.AmountSpent.String(), r.SpecificIssues, r.ReportURL)
	return eris.Wrap(err, "postgres: upsert lobbying report")
}

func (s *PostgresStore) AppendContribution(ctx context.Context, c model.PoliticalContribution) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO political_contributions
			(committee_name, recipient_name, recipient_party, amount, contribution_date, election_cycle)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.CommitteeName, c.RecipientName, c.RecipientParty, c.Amount.String(), c.Date, c.ElectionCycle)
	return eris.Wrap(err, "postgres: append contribution")
}

func (s *PostgresStore) AppendGrant(ctx context.Context, g model.CharitableGrant) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO charitable_grants
			(company_id, recipient_name, recipient_ein, amount, fiscal_year, description, recipient_category)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		g.CompanyID, g.RecipientName, g.RecipientEIN, g.Amount.String(), g.FiscalYear,
		g.Description, g.RecipientCategory)
	return eris.Wrap(err, "postgres: append grant")
}

// Sums are cast to text so the NUMERIC values survive the wire exactly.

func (s *PostgresStore) SumLobbying(ctx context.Context, companyID int64, dr model.DateRange) (decimal.Decimal, error) {
	startYear, endYear := dr.YearBounds()
	row := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_spent), 0)::text
		FROM lobbying_reports
		WHERE company_id = $1
		  AND ($2 = 0 OR year >= $2)
		  AND ($3 = 0 OR year <= $3)`,
		companyID, startYear, endYear)
	return scanDecimal(row, "postgres: sum lobbying")
}

func (s *PostgresStore) SumGrants(ctx context.Context, companyID int64, dr model.DateRange) (decimal.Decimal, error) {
	startYear, endYear := dr.YearBounds()
	row := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)::text
		FROM charitable_grants
		WHERE company_id = $1
		  AND ($2 = 0 OR fiscal_year >= $2)
		  AND ($3 = 0 OR fiscal_year <= $3)`,
		companyID, startYear, endYear)
	return scanDecimal(row, "postgres: sum grants")
}

func (s *PostgresStore) SumContributionsMatching(ctx context.Context, token string, dr model.DateRange) (decimal.Decimal, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)::text
		FROM political_contributions
		WHERE committee_name ILIKE '%' || $1 || '%'
		  AND ($2::date IS NULL OR contribution_date >= $2)
		  AND ($3::date IS NULL OR contribution_date <= $3)`,
		token, dr.Start, dr.End)
	return scanDecimal(row, "postgres: sum contributions")
}

func (s *PostgresStore) GrantCategoryTotals(ctx context.Context, companyID int64, dr model.DateRange) (map[string]decimal.Decimal, error) {
	startYear, endYear := dr.YearBounds()
	rows, err := s.pool.Query(ctx, `
		SELECT recipient_category, COALESCE(SUM(amount), 0)::text
		FROM charitable_grants
		WHERE ($1 = 0 OR company_id = $1)
		  AND ($2 = 0 OR fiscal_year >= $2)
		  AND ($3 = 0 OR fiscal_year <= $3)
		GROUP BY recipient_category`,
		companyID, startYear, endYear)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: grant category totals")
	}
	defer rows.Close()

	totals := make(map[string]decimal.Decimal)
	for rows.Next() {
		var category, total string
		if err := rows.Scan(&category, &total); err != nil {
			return nil, eris.Wrap(err, "postgres: scan category total")
		}
		d, err := decimal.NewFromString(total)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: parse total for %s", category)
		}
		totals[category] = d
	}
	return totals, eris.Wrap(rows.Err(), "postgres: grant category totals")
}

func (s *PostgresStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	row := s.pool.QueryRow(ctx, `
		SELECT (SELECT count(*) FROM companies),
		       (SELECT count(*) FROM financial_summaries),
		       (SELECT count(*) FROM lobbying_reports),
		       (SELECT count(*) FROM political_contributions),
		       (SELECT count(*) FROM charitable_grants)`)
	err := row.Scan(&c.Companies, &c.Summaries, &c.Lobbying, &c.Contributions, &c.Grants)
	return c, eris.Wrap(err, "postgres: counts")
}

func (s *PostgresStore) DataQuality(ctx context.Context) (DataQuality, error) {
	var q DataQuality
	row := s.pool.QueryRow(ctx, `
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
	return q, eris.Wrap(err, "postgres: data quality")
}

func (s *PostgresStore) SourcePresence(ctx context.Context, companyID int64, committeeToken string) (model.SourceFlags, error) {
	var f model.SourceFlags
	row := s.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM financial_summaries WHERE company_id = $1),
		       EXISTS(SELECT 1 FROM lobbying_reports WHERE company_id = $1),
		       EXISTS(SELECT 1 FROM political_contributions
		              WHERE $2 <> '' AND committee_name ILIKE '%' || $2 || '%'),
		       EXISTS(SELECT 1 FROM charitable_grants WHERE company_id = $1)`,
		companyID, committeeToken)
	err := row.Scan(&f.Financials, &f.Lobbying, &f.Political, &f.Charitable)
	return f, eris.Wrap(err, "postgres: source presence")
}

// decimalArg converts an optional decimal to a driver argument, keeping NULL
// for absent values.
func decimalArg(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func scanDecimal(row pgx.Row, opName string) (decimal.Decimal, error) {
	var raw string
	if err := row.Scan(&raw); err != nil {
		return decimal.Zero, eris.Wrap(err, opName)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, eris.Wrap(err, opName)
	}
	return d, nil
}
