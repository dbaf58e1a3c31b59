package spending

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/civicspend/disclosure-cli/internal/model"
)

// SourceLinkage reports which disclosure sources hold data for one company.
type SourceLinkage struct {
	Company model.Company     `json:"company"`
	Sources model.SourceFlags `json:"sources"`
	Linked  int               `json:"linked"`
}

// CrossSourceLinkage reports, for every company, which of the four sources
// have data. Political presence uses the same first-token committee match as
// the spending queries, so a company whose name yields no token reports
// false there.
func (c *Calculator) CrossSourceLinkage(ctx context.Context) ([]SourceLinkage, error) {
	companies, err := c.store.ListCompanies(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "spending: list companies")
	}

	report := make([]SourceLinkage, 0, len(companies))
	for _, company := range companies {
		flags, err := c.store.SourcePresence(ctx, company.ID, firstNameToken(company.Name))
		if err != nil {
			return nil, eris.Wrapf(err, "spending: source presence for %s", company.Name)
		}
		report = append(report, SourceLinkage{
			Company: company,
			Sources: flags,
			Linked:  flags.Count(),
		})
	}
	return report, nil
}
