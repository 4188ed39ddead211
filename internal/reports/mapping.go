package reports

import (
	"net/url"
	"strconv"

	"github.com/tarunvipparti/DFS/pkg/query"
	"github.com/tarunvipparti/DFS/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "reports", "r").
	Project("id", "ID").
	Project("artifact_id", "ArtifactID").
	Project("fingerprint", "Fingerprint").
	Project("classification", "Classification").
	Project("authenticity_score", "AuthenticityScore").
	Project("threat_score", "ThreatScore").
	Project("alert", "Alert").
	Project("summary", "Summary").
	Project("verdict", "Verdict").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for report queries.
// Nil fields are ignored.
type Filters struct {
	Classification *string `json:"classification,omitempty"`
	Fingerprint    *string `json:"fingerprint,omitempty"`
	Alert          *bool   `json:"alert,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Classification", f.Classification).
		WhereEquals("Fingerprint", f.Fingerprint).
		WhereEquals("Alert", f.Alert)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if c := values.Get("classification"); c != "" {
		f.Classification = &c
	}
	if fp := values.Get("fingerprint"); fp != "" {
		f.Fingerprint = &fp
	}
	if a := values.Get("alert"); a != "" {
		if v, err := strconv.ParseBool(a); err == nil {
			f.Alert = &v
		}
	}

	return f
}

func scanReport(s repository.Scanner) (Report, error) {
	var r Report
	err := s.Scan(
		&r.ID,
		&r.ArtifactID,
		&r.Fingerprint,
		&r.Classification,
		&r.AuthenticityScore,
		&r.ThreatScore,
		&r.Alert,
		&r.Summary,
		&r.Verdict,
		&r.CreatedAt,
	)
	return r, err
}
