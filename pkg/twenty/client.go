package twenty

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Amount is a Twenty currency value. Amounts are carried as micro-units
// (dollars * 1,000,000).
type Amount struct {
	AmountMicros int64  `json:"amountMicros"`
	CurrencyCode string `json:"currencyCode"`
}

// Micros converts a dollar amount to a USD micro-unit Amount.
func Micros(dollars float64) Amount {
	return Amount{
		AmountMicros: int64(dollars*1_000_000 + 0.5),
		CurrencyCode: "USD",
	}
}

// Company is a Twenty company record.
type Company struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	LeadScore    int    `json:"leadScore,omitempty"`
	LeadCategory string `json:"leadCategory,omitempty"`
}

// CompanyInput carries the calculator-derived fields for a new company.
type CompanyInput struct {
	Name                 string
	DomainURL            string
	AnnualRecurringRev   float64
	MonthlyMRR           float64
	TotalRevenueLeak     float64
	RecoveryPotential    float64
	MonthlyLeads         float64
	LeadScore            int
	LeadCategory         string
	IdealCustomerProfile bool
	CompletionDate       time.Time
}

// Person is a Twenty person record.
type Person struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CompanyID string `json:"companyId,omitempty"`
}

// PersonInput carries the fields for a new person.
type PersonInput struct {
	Email      string
	FirstName  string
	LastName   string
	Phone      string
	JobTitle   string
	Industry   string
	CompanyID  string
	ResultsURL string
}

// OpportunityInput carries the fields for a new opportunity.
type OpportunityInput struct {
	Name             string
	Amount           Amount
	Stage            string
	CompanyID        string
	PointOfContactID string
}

// Client talks to a Twenty CRM workspace. Record creation goes through the
// GraphQL API; lookups and opportunities use the REST API.
type Client interface {
	SearchCompanyByName(ctx context.Context, name string) (*Company, error)
	CreateCompany(ctx context.Context, in CompanyInput) (*Company, error)
	SearchPersonByEmail(ctx context.Context, email string) (*Person, error)
	CreatePerson(ctx context.Context, in PersonInput) (*Person, error)
	UpdatePersonCompany(ctx context.Context, personID, companyID string) error
	CreateOpportunity(ctx context.Context, in OpportunityInput) (string, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the workspace base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit throttles outgoing requests to rps requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Twenty CRM client for the given workspace.
func NewClient(baseURL, apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SearchCompanyByName(ctx context.Context, name string) (*Company, error) {
	var result struct {
		Data struct {
			Companies []Company `json:"companies"`
		} `json:"data"`
	}
	path := "/rest/companies?filter[name][eq]=" + url.QueryEscape(name)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, eris.Wrap(err, "twenty: search company")
	}
	if len(result.Data.Companies) == 0 {
		return nil, nil
	}
	return &result.Data.Companies[0], nil
}

func (c *httpClient) CreateCompany(ctx context.Context, in CompanyInput) (*Company, error) {
	const mutation = `mutation CreateCompany($data: CompanyCreateInput!) {
		createCompany(data: $data) { id name leadScore leadCategory }
	}`

	data := map[string]any{
		"name":                     in.Name,
		"leadScore":                in.LeadScore,
		"leadCategory":             in.LeadCategory,
		"monthlyLeads":             in.MonthlyLeads,
		"idealCustomerProfile":     in.IdealCustomerProfile,
		"calculatorCompletionDate": in.CompletionDate.Format("2006-01-02"),
	}
	if in.AnnualRecurringRev > 0 {
		data["annualRecurringRevenue"] = Micros(in.AnnualRecurringRev)
	}
	if in.MonthlyMRR > 0 {
		data["monthlyMrr"] = Micros(in.MonthlyMRR)
	}
	if in.TotalRevenueLeak > 0 {
		data["totalRevenueLeak"] = Micros(in.TotalRevenueLeak)
	}
	if in.RecoveryPotential > 0 {
		data["recoveryPotential"] = Micros(in.RecoveryPotential)
	}
	if in.DomainURL != "" {
		data["domainName"] = map[string]any{"primaryLinkUrl": in.DomainURL}
	}

	var result struct {
		CreateCompany Company `json:"createCompany"`
	}
	if err := c.graphql(ctx, mutation, map[string]any{"data": data}, &result); err != nil {
		return nil, eris.Wrap(err, "twenty: create company")
	}
	if result.CreateCompany.ID == "" {
		return nil, eris.New("twenty: no company id returned")
	}
	return &result.CreateCompany, nil
}

func (c *httpClient) SearchPersonByEmail(ctx context.Context, email string) (*Person, error) {
	var result struct {
		Data struct {
			People []struct {
				ID     string `json:"id"`
				Emails struct {
					PrimaryEmail string `json:"primaryEmail"`
				} `json:"emails"`
				CompanyID string `json:"companyId"`
			} `json:"people"`
		} `json:"data"`
	}
	path := "/rest/people?filter[emails][primaryEmail][eq]=" + url.QueryEscape(email)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, eris.Wrap(err, "twenty: search person")
	}
	if len(result.Data.People) == 0 {
		return nil, nil
	}
	p := result.Data.People[0]
	return &Person{ID: p.ID, Email: p.Emails.PrimaryEmail, CompanyID: p.CompanyID}, nil
}

func (c *httpClient) CreatePerson(ctx context.Context, in PersonInput) (*Person, error) {
	const mutation = `mutation CreatePerson($data: PersonCreateInput!) {
		createPerson(data: $data) { id companyId }
	}`

	data := map[string]any{
		"emails": map[string]any{"primaryEmail": in.Email},
		"name": map[string]any{
			"firstName": in.FirstName,
			"lastName":  in.LastName,
		},
		"jobTitle":            in.JobTitle,
		"industry":            in.Industry,
		"emailSequenceStatus": "NOT_STARTED",
		"followUpPriority":    "PRIORITY_1_URGENT",
		"companyId":           in.CompanyID,
	}
	if in.Phone != "" {
		data["phones"] = map[string]any{
			"primaryPhoneNumber":      in.Phone,
			"primaryPhoneCountryCode": "US",
			"primaryPhoneCallingCode": "+1",
		}
	}
	if in.ResultsURL != "" {
		data["calculatorResultsUrl"] = map[string]any{"primaryLinkUrl": in.ResultsURL}
	}

	var result struct {
		CreatePerson struct {
			ID        string `json:"id"`
			CompanyID string `json:"companyId"`
		} `json:"createPerson"`
	}
	if err := c.graphql(ctx, mutation, map[string]any{"data": data}, &result); err != nil {
		return nil, eris.Wrap(err, "twenty: create person")
	}
	if result.CreatePerson.ID == "" {
		return nil, eris.New("twenty: no person id returned")
	}
	return &Person{ID: result.CreatePerson.ID, Email: in.Email, CompanyID: result.CreatePerson.CompanyID}, nil
}

func (c *httpClient) UpdatePersonCompany(ctx context.Context, personID, companyID string) error {
	body := map[string]any{"companyId": companyID}
	err := c.do(ctx, http.MethodPatch, "/rest/people/"+personID, body, nil)
	return eris.Wrap(err, "twenty: update person company")
}

func (c *httpClient) CreateOpportunity(ctx context.Context, in OpportunityInput) (string, error) {
	body := map[string]any{
		"name":             in.Name,
		"amount":           in.Amount,
		"stage":            in.Stage,
		"companyId":        in.CompanyID,
		"pointOfContactId": in.PointOfContactID,
	}

	// The REST API has returned the new record under several shapes across
	// Twenty versions; accept all of them.
	var result struct {
		ID   string `json:"id"`
		Data struct {
			ID            string `json:"id"`
			Opportunities []struct {
				ID string `json:"id"`
			} `json:"opportunities"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/rest/opportunities", body, &result); err != nil {
		return "", eris.Wrap(err, "twenty: create opportunity")
	}

	switch {
	case len(result.Data.Opportunities) > 0:
		return result.Data.Opportunities[0].ID, nil
	case result.Data.ID != "":
		return result.Data.ID, nil
	case result.ID != "":
		return result.ID, nil
	}
	return "", eris.New("twenty: no opportunity id returned")
}

// graphql posts a query to the workspace GraphQL endpoint and decodes the
// data envelope into out.
func (c *httpClient) graphql(ctx context.Context, query string, variables map[string]any, out any) error {
	reqBody := map[string]any{
		"query":     query,
		"variables": variables,
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := c.do(ctx, http.MethodPost, "/graphql", reqBody, &envelope); err != nil {
		return err
	}
	if len(envelope.Errors) > 0 {
		return eris.Errorf("graphql error: %s", envelope.Errors[0].Message)
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return eris.Wrap(err, "unmarshal data")
		}
	}
	return nil
}

func (c *httpClient) do(ctx context.Context, method, path string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "rate limit wait")
		}
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return eris.Wrap(err, "marshal request")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return eris.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return eris.Wrap(err, "unmarshal response")
		}
	}
	return nil
}
