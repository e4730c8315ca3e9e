package sources

import (
	"context"
	"net/url"
	"strings"
	"time"

	"leadpilot_backend/platform/logger"
)

// Default endpoints per provider. A preference can override these through
// its api settings.
const (
	apolloEndpoint     = "https://api.apollo.io/v1/mixed_companies/search"
	crunchbaseEndpoint = "https://api.crunchbase.com/api/v4/searches/organizations"
	clearbitEndpoint   = "https://company.clearbit.com/v2/companies/search"
	hunterEndpoint     = "https://api.hunter.io/v2/companies/find"
	demoEndpoint       = "https://leads.demo.leadpilot.dev/api/companies"
)

// Per-provider timeouts. Apollo is slow on large searches; the demo feeds
// are local and fast.
const (
	apolloTimeout     = 30 * time.Second
	crunchbaseTimeout = 15 * time.Second
	clearbitTimeout   = 15 * time.Second
	hunterTimeout     = 10 * time.Second
	demoTimeout       = 10 * time.Second
)

// apolloAdapter integrates Apollo company search. The response wraps the
// list in an "organizations" object.
type apolloAdapter struct {
	client *client
}

func newApolloAdapter(log *logger.Logger) *apolloAdapter {
	return &apolloAdapter{client: newClient(log, apolloTimeout)}
}

func (a *apolloAdapter) Name() string { return "apollo" }

func (a *apolloAdapter) Fetch(ctx context.Context, req Request) ([]Lead, error) {
	params := url.Values{}
	params.Set("per_page", "100")
	for _, industry := range req.Pref.Business.Industries {
		params.Add("organization_industries[]", industry)
	}
	for _, city := range req.Pref.Geographic.Cities {
		params.Add("organization_locations[]", city)
	}

	records, err := a.client.fetchRecords(ctx, a.Name(), endpointOr(req.Endpoint, apolloEndpoint), params,
		map[string]string{"X-Api-Key": req.APIKey}, "organizations")
	if err != nil {
		return nil, err
	}

	leads := make([]Lead, 0, len(records))
	for _, record := range records {
		lead := Lead{
			ExternalID:    pathString(record, "id"),
			Provider:      a.Name(),
			Name:          pathString(record, "name"),
			Website:       pathString(record, "website_url"),
			Industry:      pathString(record, "industry"),
			EmployeeCount: pathInt(record, "estimated_num_employees"),
			AnnualRevenue: pathFloat(record, "annual_revenue"),
			City:          pathString(record, "city"),
			State:         pathString(record, "state"),
			Country:       pathString(record, "country"),
			Technologies:  pathStrings(record, "technology_names"),
			Contact: Contact{
				Email: pathString(record, "primary_contact.email"),
				Name:  pathString(record, "primary_contact.name"),
				Title: pathString(record, "primary_contact.title"),
			},
			Raw: record,
		}
		if event := pathString(record, "latest_funding_stage"); event != "" {
			lead.TriggerEvents = append(lead.TriggerEvents, "funding_round")
			lead.TriggerDates = append(lead.TriggerDates, pathTime(record, "latest_funding_round_date"))
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

// crunchbaseAdapter integrates Crunchbase organization search. Field values
// hide behind nested identifier arrays, hence the indexed paths.
type crunchbaseAdapter struct {
	client *client
}

func newCrunchbaseAdapter(log *logger.Logger) *crunchbaseAdapter {
	return &crunchbaseAdapter{client: newClient(log, crunchbaseTimeout)}
}

func (a *crunchbaseAdapter) Name() string { return "crunchbase" }

func (a *crunchbaseAdapter) Fetch(ctx context.Context, req Request) ([]Lead, error) {
	params := url.Values{}
	params.Set("limit", "100")
	if len(req.Pref.Business.Industries) > 0 {
		params.Set("categories", strings.Join(req.Pref.Business.Industries, ","))
	}

	records, err := a.client.fetchRecords(ctx, a.Name(), endpointOr(req.Endpoint, crunchbaseEndpoint), params,
		map[string]string{"X-cb-user-key": req.APIKey}, "data")
	if err != nil {
		return nil, err
	}

	leads := make([]Lead, 0, len(records))
	for _, record := range records {
		lead := Lead{
			ExternalID:    pathString(record, "uuid"),
			Provider:      a.Name(),
			Name:          pathString(record, "properties.identifier.value"),
			Website:       pathString(record, "properties.website_url"),
			Industry:      pathString(record, "properties.categories[0].value"),
			EmployeeCount: pathInt(record, "properties.num_employees_enum"),
			AnnualRevenue: pathFloat(record, "properties.revenue_range"),
			City:          pathString(record, "properties.location_identifiers[0].value"),
			State:         pathString(record, "properties.location_identifiers[1].value"),
			Country:       pathString(record, "properties.location_identifiers[2].value"),
			Raw:           record,
		}
		if announced := pathTime(record, "properties.last_funding_at"); !announced.IsZero() {
			lead.TriggerEvents = append(lead.TriggerEvents, "funding_round")
			lead.TriggerDates = append(lead.TriggerDates, announced)
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

// clearbitAdapter integrates Clearbit company search.
type clearbitAdapter struct {
	client *client
}

func newClearbitAdapter(log *logger.Logger) *clearbitAdapter {
	return &clearbitAdapter{client: newClient(log, clearbitTimeout)}
}

func (a *clearbitAdapter) Name() string { return "clearbit" }

func (a *clearbitAdapter) Fetch(ctx context.Context, req Request) ([]Lead, error) {
	params := url.Values{}
	if len(req.Pref.Business.Industries) > 0 {
		params.Set("query", "industry:"+req.Pref.Business.Industries[0])
	}

	records, err := a.client.fetchRecords(ctx, a.Name(), endpointOr(req.Endpoint, clearbitEndpoint), params,
		map[string]string{"Authorization": "Bearer " + req.APIKey}, "results")
	if err != nil {
		return nil, err
	}

	leads := make([]Lead, 0, len(records))
	for _, record := range records {
		leads = append(leads, Lead{
			ExternalID:    pathString(record, "id"),
			Provider:      a.Name(),
			Name:          pathString(record, "name"),
			Website:       pathString(record, "domain"),
			Industry:      pathString(record, "category.industry"),
			EmployeeCount: pathInt(record, "metrics.employees"),
			AnnualRevenue: pathFloat(record, "metrics.estimatedAnnualRevenue"),
			City:          pathString(record, "geo.city"),
			State:         pathString(record, "geo.state"),
			Country:       pathString(record, "geo.country"),
			Technologies:  pathStrings(record, "tech"),
			Raw:           record,
		})
	}
	return leads, nil
}

// hunterAdapter integrates Hunter company lookup. Hunter authenticates via
// an api_key query parameter rather than a header.
type hunterAdapter struct {
	client *client
}

func newHunterAdapter(log *logger.Logger) *hunterAdapter {
	return &hunterAdapter{client: newClient(log, hunterTimeout)}
}

func (a *hunterAdapter) Name() string { return "hunter" }

func (a *hunterAdapter) Fetch(ctx context.Context, req Request) ([]Lead, error) {
	params := url.Values{}
	params.Set("api_key", req.APIKey)
	if len(req.Pref.Business.Industries) > 0 {
		params.Set("industry", req.Pref.Business.Industries[0])
	}

	records, err := a.client.fetchRecords(ctx, a.Name(), endpointOr(req.Endpoint, hunterEndpoint), params, nil, "data")
	if err != nil {
		return nil, err
	}

	leads := make([]Lead, 0, len(records))
	for _, record := range records {
		leads = append(leads, Lead{
			ExternalID:    pathString(record, "domain"),
			Provider:      a.Name(),
			Name:          pathString(record, "organization"),
			Website:       pathString(record, "domain"),
			Industry:      pathString(record, "industry"),
			EmployeeCount: pathInt(record, "headcount"),
			City:          pathString(record, "city"),
			State:         pathString(record, "state"),
			Country:       pathString(record, "country"),
			Technologies:  pathStrings(record, "technologies"),
			Contact: Contact{
				Email: pathString(record, "emails[0].value"),
				Name:  pathString(record, "emails[0].first_name"),
			},
			Raw: record,
		})
	}
	return leads, nil
}

// demoAdapter serves the built-in demo feeds. The demo endpoints return a
// bare JSON array using the normalized field names, so mapping is direct.
type demoAdapter struct {
	name   string
	client *client
}

func newDemoAdapter(log *logger.Logger, name string) *demoAdapter {
	return &demoAdapter{name: name, client: newClient(log, demoTimeout)}
}

func (a *demoAdapter) Name() string { return a.name }

func (a *demoAdapter) Fetch(ctx context.Context, req Request) ([]Lead, error) {
	params := url.Values{}
	params.Set("feed", a.name)

	records, err := a.client.fetchRecords(ctx, a.Name(), endpointOr(req.Endpoint, demoEndpoint), params,
		map[string]string{"X-Api-Key": req.APIKey}, "")
	if err != nil {
		return nil, err
	}

	leads := make([]Lead, 0, len(records))
	for _, record := range records {
		lead := Lead{
			ExternalID:    pathString(record, "id"),
			Provider:      a.Name(),
			Name:          pathString(record, "name"),
			Website:       pathString(record, "website"),
			Industry:      pathString(record, "industry"),
			EmployeeCount: pathInt(record, "employees"),
			AnnualRevenue: pathFloat(record, "revenue"),
			City:          pathString(record, "city"),
			State:         pathString(record, "state"),
			Country:       pathString(record, "country"),
			Technologies:  pathStrings(record, "technologies"),
			TriggerEvents: pathStrings(record, "triggerEvents"),
			Raw:           record,
		}
		if ts := pathTime(record, "triggerDate"); !ts.IsZero() {
			lead.TriggerDates = append(lead.TriggerDates, ts)
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

func endpointOr(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}
