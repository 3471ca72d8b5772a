package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"expiry-scanner/internal/core/config"
	"expiry-scanner/internal/core/httpclient"
	"expiry-scanner/internal/core/logger"
	"expiry-scanner/internal/core/proxy"
	"expiry-scanner/internal/features/records/domain"

	"go.uber.org/zap"
)

// RecordsAPIAdapter implements ports.RecordSource against the records REST API.
// One instance serves one item type.
type RecordsAPIAdapter struct {
	// client is the HTTP client used for API requests.
	client *http.Client
	// baseURL is the API root without a trailing slash.
	baseURL string
	// token is sent as a bearer token when not empty.
	token string
	// itemType selects the endpoint and the display-name precedence.
	itemType domain.ItemType
	// location is used for expiration dates without an offset.
	location *time.Location
	logger   *zap.Logger
}

// NewVitaminsAdapter reads GET {base}/vitamins/{userId}.
func NewVitaminsAdapter(cfg config.RecordsConfig, p proxy.Settings, loc *time.Location) *RecordsAPIAdapter {
	return newRecordsAPIAdapter(cfg, p, loc, domain.ItemTypeVitamin)
}

// NewMedicationsAdapter reads GET {base}/medications/user/{userId}.
func NewMedicationsAdapter(cfg config.RecordsConfig, p proxy.Settings, loc *time.Location) *RecordsAPIAdapter {
	return newRecordsAPIAdapter(cfg, p, loc, domain.ItemTypeMedication)
}

func newRecordsAPIAdapter(cfg config.RecordsConfig, p proxy.Settings, loc *time.Location, t domain.ItemType) *RecordsAPIAdapter {
	if loc == nil {
		loc = time.Local
	}
	return &RecordsAPIAdapter{
		client:   httpclient.NewProxyClient(cfg.RequestTimeout(), p.URL()),
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		token:    cfg.Token,
		itemType: t,
		location: loc,
		logger:   logger.Named("records").With(zap.String("item_type", string(t))),
	}
}

// ItemType implements ports.RecordSource.
func (a *RecordsAPIAdapter) ItemType() domain.ItemType {
	return a.itemType
}

// Fetch implements ports.RecordSource.
func (a *RecordsAPIAdapter) Fetch(ctx context.Context, userID string) ([]domain.TrackedItem, error) {
	endpoint := a.endpoint(userID)

	var records []apiRecord
	if err := httpclient.GetJSON(ctx, a.client, endpoint, a.header(), &records); err != nil {
		return nil, fmt.Errorf("%w: %s list for user %s: %w", domain.ErrSourceUnavailable, a.itemType, userID, err)
	}

	items := make([]domain.TrackedItem, 0, len(records))
	skipped := 0
	for _, rec := range records {
		item := a.mapToDomain(rec)
		if item.ExpirationDate == nil && rec.hasExpirationValue() {
			skipped++
		}
		items = append(items, item)
	}

	if skipped > 0 {
		a.logger.Debug("Ignoring unparseable expiration dates",
			zap.String("user_id", userID),
			zap.Int("count", skipped),
		)
	}

	return items, nil
}

// HealthCheck verifies that the records API is reachable.
// Any answer below 500 counts as healthy, since the API root may not be routable itself.
func (a *RecordsAPIAdapter) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL, nil)
	if err != nil {
		return fmt.Errorf("health check failed to create request: %w", err)
	}
	for k, v := range a.header() {
		req.Header[k] = v
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("health check failed with status: %d", resp.StatusCode)
	}

	return nil
}

func (a *RecordsAPIAdapter) endpoint(userID string) string {
	id := url.PathEscape(userID)
	if a.itemType == domain.ItemTypeMedication {
		return fmt.Sprintf("%s/medications/user/%s", a.baseURL, id)
	}
	return fmt.Sprintf("%s/vitamins/%s", a.baseURL, id)
}

func (a *RecordsAPIAdapter) header() http.Header {
	h := http.Header{}
	if a.token != "" {
		h.Set("Authorization", "Bearer "+a.token)
	}
	return h
}

// mapToDomain converts a raw API record into a TrackedItem.
func (a *RecordsAPIAdapter) mapToDomain(rec apiRecord) domain.TrackedItem {
	item := domain.TrackedItem{
		Name: rec.displayName(a.itemType),
		Type: a.itemType,
	}
	if raw, ok := rec.expirationString(); ok {
		if exp, ok := domain.ParseExpirationDate(raw, a.location); ok {
			item.ExpirationDate = exp
		}
	}
	return item
}

// internal structs for mapping

// apiRecord is the subset of a vitamin or medication document the scanner reads.
type apiRecord struct {
	// SelectedName is the name picked from the catalogue (vitamins).
	SelectedName string `json:"selectedName"`
	// Name is the free-text name (medications, and vitamins without a catalogue entry).
	Name string `json:"name"`
	// ExpirationDate is kept raw; non-string values are treated as absent.
	ExpirationDate json.RawMessage `json:"expirationDate"`
}

func (r apiRecord) displayName(t domain.ItemType) string {
	if t == domain.ItemTypeMedication {
		if r.Name != "" {
			return r.Name
		}
		return r.SelectedName
	}
	if r.SelectedName != "" {
		return r.SelectedName
	}
	return r.Name
}

func (r apiRecord) hasExpirationValue() bool {
	s := strings.TrimSpace(string(r.ExpirationDate))
	return s != "" && s != "null" && s != `""`
}

func (r apiRecord) expirationString() (string, bool) {
	if !r.hasExpirationValue() {
		return "", false
	}
	var s string
	if err := json.Unmarshal(r.ExpirationDate, &s); err != nil {
		return "", false
	}
	return s, true
}
