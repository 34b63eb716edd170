package remotesync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kunal-9999/inventory-management-system-sub000/models"
	"github.com/kunal-9999/inventory-management-system-sub000/workflow"
	"github.com/shopspring/decimal"
)

type mirrorClient struct {
	baseURL   string
	apiKey    string
	apiKeyHdr string
	http      *http.Client
	limiter   <-chan time.Time
}

func newMirrorClient(apiKey string) (*mirrorClient, error) {
	baseURL := strings.TrimSpace(os.Getenv("MIRROR_API_BASE_URL"))
	if baseURL == "" {
		return nil, errors.New("MIRROR_API_BASE_URL is not set")
	}
	apiKeyHeader := strings.TrimSpace(os.Getenv("MIRROR_API_KEY_HEADER"))
	if apiKeyHeader == "" {
		apiKeyHeader = "X-API-Key"
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("mirror api key is empty")
	}
	rateLimitPerMin := int64(60)
	if v := strings.TrimSpace(os.Getenv("MIRROR_RATE_LIMIT_PER_MIN")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			rateLimitPerMin = n
		}
	}
	interval := time.Minute / time.Duration(rateLimitPerMin)

	return &mirrorClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		apiKeyHdr: apiKeyHeader,
		http:      &http.Client{Timeout: 30 * time.Second},
		limiter:   time.Tick(interval),
	}, nil
}

type salesTotalPayload struct {
	ProductName   string                 `json:"product_name"`
	WarehouseName string                 `json:"warehouse_name"`
	MonthlySales  map[string]json.Number `json:"monthly_sales"`
}

type salesTotalsResponse struct {
	Data []salesTotalPayload `json:"data"`
}

// FetchSalesTotals pulls the remote system of record's per-(product,warehouse)
// monthly sales totals for one sheet.
func (c *mirrorClient) FetchSalesTotals(ctx context.Context, sheetId string) ([]workflow.RemoteSalesTotal, error) {
	<-c.limiter
	params := url.Values{}
	params.Set("sheet_id", sheetId)
	endpoint := c.baseURL + "/v1/sales-totals?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(c.apiKeyHdr, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mirror sales totals: status=%d body=%s", resp.StatusCode, truncate(string(body), 300))
	}

	var parsed salesTotalsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}

	totals := make([]workflow.RemoteSalesTotal, 0, len(parsed.Data))
	for _, p := range parsed.Data {
		total := workflow.RemoteSalesTotal{
			ProductName:   p.ProductName,
			WarehouseName: p.WarehouseName,
			MonthlySales:  make(map[models.MonthKey]decimal.Decimal, len(p.MonthlySales)),
		}
		for month, num := range p.MonthlySales {
			key := models.MonthKey(month)
			if !key.Valid() {
				continue
			}
			total.MonthlySales[key] = decimalFromNumber(num)
		}
		totals = append(totals, total)
	}
	return totals, nil
}

type cellEditPayload struct {
	SheetId  string `json:"sheet_id"`
	RowId    string `json:"row_id"`
	Field    string `json:"field"`
	Month    string `json:"month"`
	Value    string `json:"value"`
	EditedAt string `json:"edited_at"`
}

// PushCellEdit mirrors one committed cell value to the remote store.
// Last-write-wins per cell on the remote side; no conflict resolution.
func (c *mirrorClient) PushCellEdit(ctx context.Context, edit CellEdit) error {
	<-c.limiter
	payload := cellEditPayload{
		SheetId:  edit.SheetId,
		RowId:    edit.RowId,
		Field:    string(edit.Field),
		Month:    string(edit.Month),
		Value:    edit.Value.String(),
		EditedAt: edit.EditedAt.UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/v1/cells", strings.NewReader(string(data)))
	if err != nil {
		return err
	}
	req.Header.Set(c.apiKeyHdr, c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mirror cell push: status=%d body=%s", resp.StatusCode, truncate(string(body), 300))
	}
	return nil
}

func decimalFromNumber(num json.Number) decimal.Decimal {
	if num == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(num.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
